package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/identity"
)

func TestAccessGate_VerifyThenCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := identity.Principal{ID: "user_p", Email: "p@example.com"}

	_, err := f.discussions.CreateThread(ctx, p, "acme-daycare", CreateThreadInput{Title: "Hello", Content: "World"})
	if !errors.Is(err, ErrUnverified) || !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrUnverified (and ErrForbidden) before verification, got %v", err)
	}

	res, err := f.gate.Verify(ctx, p, "acme-daycare", "1234")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Verified || res.ExpiresAt == nil {
		t.Fatalf("expected verified result with expiry, got %+v", res)
	}

	thread, err := f.discussions.CreateThread(ctx, p, "acme-daycare", CreateThreadInput{Title: "Hello", Content: "World"})
	if err != nil {
		t.Fatalf("create after verify: %v", err)
	}
	if thread.ID == uuid.Nil || thread.IsPinned || thread.IsLocked || thread.IsHidden {
		t.Errorf("unexpected thread state: %+v", thread)
	}
	if thread.AuthorID != p.ID || thread.AuthorEmail != p.Email {
		t.Errorf("author not captured: %q %q", thread.AuthorID, thread.AuthorEmail)
	}
}

func TestAccessGate_WrongPIN(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.gate.Verify(ctx, f.author, "acme-daycare", "9999")
	if err != nil {
		t.Fatalf("wrong PIN should not be an error, got %v", err)
	}
	if res.Verified {
		t.Fatal("wrong PIN verified")
	}

	check, err := f.gate.CheckVerified(ctx, f.author, "acme-daycare")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.Verified {
		t.Error("wrong PIN must not create a grant")
	}
}

func TestAccessGate_UnknownOrInactiveLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.gate.Verify(ctx, f.author, "nowhere", "1234"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown slug, got %v", err)
	}

	inactive := false
	if _, err := f.locations.Update(ctx, "acme-daycare", LocationChanges{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.gate.Verify(ctx, f.author, "acme-daycare", "1234"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for inactive location, got %v", err)
	}
}

func TestAccessGate_GrantExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustVerify(t, f.author, "acme-daycare", "1234")

	if err := f.gate.Authorize(ctx, f.author, f.acme); err != nil {
		t.Fatalf("authorize after verify: %v", err)
	}

	f.clock.Advance(30 * 24 * time.Hour)
	if err := f.gate.Authorize(ctx, f.author, f.acme); !errors.Is(err, ErrUnverified) {
		t.Errorf("expected ErrUnverified after grant TTL, got %v", err)
	}

	// Re-verifying refreshes the same grant.
	f.mustVerify(t, f.author, "acme-daycare", "1234")
	if err := f.gate.Authorize(ctx, f.author, f.acme); err != nil {
		t.Errorf("authorize after re-verify: %v", err)
	}
}

func TestAccessGate_GrantIsPerLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beta := f.mustLocation(t, "Beta Kids", "beta-kids", "5678")

	// A thread and reply at acme, then a principal verified only at beta.
	thread := f.mustThread(t, f.author, "Acme only")
	reply := f.mustReply(t, f.author, thread.ID, "acme reply")
	f.mustVerify(t, f.other, "beta-kids", "5678")

	if err := f.gate.Authorize(ctx, f.other, f.acme); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden at unverified location, got %v", err)
	}
	if err := f.gate.Authorize(ctx, f.other, beta); err != nil {
		t.Errorf("authorize at verified location: %v", err)
	}

	title := "taken over"
	tests := []struct {
		name string
		call func() error
	}{
		{"ListThreads", func() error {
			_, err := f.discussions.ListThreads(ctx, f.other, "acme-daycare", Page{})
			return err
		}},
		{"GetThread", func() error {
			_, err := f.discussions.GetThread(ctx, f.other, thread.ID)
			return err
		}},
		{"CreateThread", func() error {
			_, err := f.discussions.CreateThread(ctx, f.other, "acme-daycare", CreateThreadInput{Title: "x", Content: "y"})
			return err
		}},
		{"CreateReply", func() error {
			_, err := f.discussions.CreateReply(ctx, f.other, thread.ID, "hi")
			return err
		}},
		{"EditThread", func() error {
			_, err := f.discussions.EditThread(ctx, f.other, thread.ID, ThreadEdit{Title: &title})
			return err
		}},
		{"DeleteReply", func() error {
			_, err := f.discussions.DeleteReply(ctx, f.other, reply.ID)
			return err
		}},
		{"ReportThread", func() error {
			_, err := f.discussions.ReportContent(ctx, f.other, "thread", thread.ID, "spam", "")
			return err
		}},
		{"ReportReply", func() error {
			_, err := f.discussions.ReportContent(ctx, f.other, "reply", reply.ID, "spam", "")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var uerr *UnverifiedError
			if !errors.As(err, &uerr) || uerr.Slug != "acme-daycare" {
				t.Errorf("expected unverified at acme-daycare, got %v", err)
			}
		})
	}

	got, err := f.store.GetThread(ctx, thread.ID)
	if err != nil {
		t.Fatalf("thread lost: %v", err)
	}
	if got.Title != "Acme only" {
		t.Errorf("title changed to %q", got.Title)
	}
}

func TestAccessGate_AdminBypass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.gate.CheckVerified(ctx, f.admin, "acme-daycare")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Verified {
		t.Error("administrator should always be verified")
	}
	if err := f.gate.Authorize(ctx, f.admin, f.acme); err != nil {
		t.Errorf("administrator authorize: %v", err)
	}
}

func TestAccessGate_Lockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var last *VerifyResult
	for i := 0; i < 5; i++ {
		res, err := f.gate.Verify(ctx, f.author, "acme-daycare", "0000")
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		last = res
	}
	if last.RetryAfter != 30*time.Second {
		t.Fatalf("expected 30s lockout after 5 failures, got %v", last.RetryAfter)
	}

	res, err := f.gate.Verify(ctx, f.author, "acme-daycare", "1234")
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts during lockout, got %v", err)
	}
	if res == nil || res.RetryAfter <= 0 {
		t.Errorf("expected retry hint, got %+v", res)
	}

	// Another principal is unaffected.
	f.mustVerify(t, f.other, "acme-daycare", "1234")

	f.clock.Advance(31 * time.Second)
	f.mustVerify(t, f.author, "acme-daycare", "1234")
}

func TestAccessGate_ConcurrentWrongPinsHitLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg                sync.WaitGroup
		mu                sync.Mutex
		compared, blocked int
	)
	start := make(chan struct{})
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.gate.Verify(ctx, f.author, "acme-daycare", "0000")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				compared++
			case errors.Is(err, ErrTooManyAttempts):
				blocked++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if compared != 5 || blocked != 35 {
		t.Errorf("compared=%d blocked=%d, want 5 and 35", compared, blocked)
	}
}

func TestAccessGate_ZeroPrincipal(t *testing.T) {
	f := newFixture(t)
	if _, err := f.gate.Verify(context.Background(), identity.Principal{}, "acme-daycare", "1234"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for anonymous caller, got %v", err)
	}
}

func TestAccessGate_UnverifiedCarriesSlug(t *testing.T) {
	f := newFixture(t)
	err := f.gate.Authorize(context.Background(), f.author, f.acme)

	var uerr *UnverifiedError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UnverifiedError, got %v", err)
	}
	if uerr.Slug != "acme-daycare" {
		t.Errorf("slug = %q, want acme-daycare", uerr.Slug)
	}
}
