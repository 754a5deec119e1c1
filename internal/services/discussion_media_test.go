package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tinytitans-bjj/community-backend/internal/models"
)

func TestDiscussionService_AttachMediaLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.mustThread(t, f.author, "Photos")

	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{"pdf rejected", Upload{FileName: "waiver.pdf", ContentType: "application/pdf", Size: 10, Body: bytes.NewReader(make([]byte, 10))}, ErrInvalidInput},
		{"bad content type", Upload{FileName: "x", ContentType: ";;", Size: 10, Body: bytes.NewReader(make([]byte, 10))}, ErrInvalidInput},
		{"empty file", Upload{FileName: "a.jpg", ContentType: "image/jpeg", Size: 0, Body: bytes.NewReader(nil)}, ErrInvalidInput},
		{"image too large", Upload{FileName: "big.jpg", ContentType: "image/jpeg", Size: 2 << 20, Body: strings.NewReader("")}, ErrPayloadTooLarge},
		{"video too large", Upload{FileName: "big.mp4", ContentType: "video/mp4", Size: MaxVideoBytes + 1, Body: strings.NewReader("")}, ErrPayloadTooLarge},
		{"video under limit", Upload{FileName: "roll.MP4", ContentType: "video/mp4", Size: 2 << 20, Body: bytes.NewReader(fileBody(mp4Header, 2<<20))}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerThread, thread.ID, tt.upload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if media.Kind != models.MediaVideo {
				t.Errorf("kind = %q, want video", media.Kind)
			}
			if !strings.HasPrefix(media.StorageKey, "community/acme-daycare/thread/"+thread.ID.String()+"/") ||
				!strings.HasSuffix(media.StorageKey, ".mp4") {
				t.Errorf("unexpected storage key %q", media.StorageKey)
			}
			if media.URL != "https://cdn.test/"+media.StorageKey {
				t.Errorf("unexpected url %q", media.URL)
			}
		})
	}
}

func TestDiscussionService_AttachMediaQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.mustThread(t, f.author, "Quota")
	reply := f.mustReply(t, f.author, thread.ID, "reply")

	for i := 0; i < MaxThreadMedia; i++ {
		if _, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerThread, thread.ID, imageUpload("p.jpg", 16)); err != nil {
			t.Fatalf("thread upload %d: %v", i+1, err)
		}
	}
	if _, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerThread, thread.ID, imageUpload("p.jpg", 16)); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("thread over quota: expected ErrQuotaExceeded, got %v", err)
	}

	for i := 0; i < MaxReplyMedia; i++ {
		if _, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerReply, reply.ID, imageUpload("r.jpg", 16)); err != nil {
			t.Fatalf("reply upload %d: %v", i+1, err)
		}
	}
	if _, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerReply, reply.ID, imageUpload("r.jpg", 16)); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("reply over quota: expected ErrQuotaExceeded, got %v", err)
	}
	if got := f.objects.Len(); got != MaxThreadMedia+MaxReplyMedia {
		t.Errorf("stored objects = %d, want %d", got, MaxThreadMedia+MaxReplyMedia)
	}
}

func TestDiscussionService_MediaOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.mustThread(t, f.author, "Mine")
	f.mustVerify(t, f.other, "acme-daycare", "1234")

	if _, err := f.discussions.AttachMedia(ctx, f.other, models.OwnerThread, thread.ID, imageUpload("x.jpg", 8)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unrelated attach: expected ErrForbidden, got %v", err)
	}
	if _, err := f.discussions.AttachMedia(ctx, f.author, "comment", thread.ID, imageUpload("x.jpg", 8)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad owner kind: expected ErrInvalidInput, got %v", err)
	}

	media, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerThread, thread.ID, imageUpload("x.jpg", 8))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := f.discussions.RemoveMedia(ctx, f.other, media.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("unrelated remove: expected ErrForbidden, got %v", err)
	}
	if err := f.discussions.RemoveMedia(ctx, f.admin, media.ID); err != nil {
		t.Fatalf("admin remove: %v", err)
	}
	if f.objects.Has(media.StorageKey) {
		t.Error("object still stored after remove")
	}
	if _, err := f.store.GetThread(ctx, thread.ID); err != nil {
		t.Errorf("removing media must not touch the thread: %v", err)
	}
}

func TestDiscussionService_AttachMediaChecksContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.mustThread(t, f.author, "Sniffing")

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	html := []byte(`<!DOCTYPE html><html><body><script>alert(1)</script></body></html>`)

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"svg declared as svg", "image/svg+xml", svg},
		{"svg declared as png", "image/png", svg},
		{"html declared as jpeg", "image/jpeg", html},
		{"jpeg declared as video", "video/mp4", fileBody(jpegHeader, 64)},
		{"mp4 declared as image", "image/jpeg", fileBody(mp4Header, 64)},
		{"zero bytes declared as jpeg", "image/jpeg", make([]byte, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerThread, thread.ID, Upload{
				FileName:    "upload",
				ContentType: tt.contentType,
				Size:        int64(len(tt.body)),
				Body:        bytes.NewReader(tt.body),
			})
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if got := f.objects.Len(); got != 0 {
		t.Errorf("stored objects = %d, want 0", got)
	}

	media, err := f.discussions.AttachMedia(ctx, f.author, models.OwnerThread, thread.ID, imageUpload("belt.jpg", 2048))
	if err != nil {
		t.Fatalf("jpeg upload: %v", err)
	}
	if media.Kind != models.MediaImage || media.SizeBytes != 2048 {
		t.Errorf("unexpected media %+v", media)
	}
}
