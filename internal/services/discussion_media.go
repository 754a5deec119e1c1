package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/models"
	"github.com/tinytitans-bjj/community-backend/internal/storage"
)

const (
	MaxThreadMedia = 5
	MaxReplyMedia  = 3

	MaxVideoBytes        int64 = 100 << 20
	DefaultMaxImageBytes int64 = 10 << 20
)

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// allowedMedia maps the accepted media types to their kind. Anything else,
// SVG included, is rejected.
var allowedMedia = map[string]string{
	"image/jpeg":      models.MediaImage,
	"image/png":       models.MediaImage,
	"image/gif":       models.MediaImage,
	"image/webp":      models.MediaImage,
	"video/mp4":       models.MediaVideo,
	"video/webm":      models.MediaVideo,
	"video/quicktime": models.MediaVideo,
}

func mediaKind(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", invalid("unrecognized content type %q", contentType)
	}
	kind, ok := allowedMedia[strings.ToLower(mediaType)]
	if !ok {
		return "", invalid("only JPEG, PNG, GIF, WebP, MP4, WebM and QuickTime files can be attached")
	}
	return kind, nil
}

// sniffMedia detects the real type of body from its leading bytes. It returns
// the detected type and a reader that replays those bytes ahead of the rest.
func sniffMedia(body io.Reader, declaredKind string) (string, io.Reader, error) {
	var head bytes.Buffer
	detected, err := mimetype.DetectReader(io.TeeReader(body, &head))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	for m := detected; m != nil; m = m.Parent() {
		mediaType := m.String()
		if i := strings.IndexByte(mediaType, ';'); i >= 0 {
			mediaType = mediaType[:i]
		}
		if kind, ok := allowedMedia[mediaType]; ok {
			if kind != declaredKind {
				return "", nil, invalid("file content is a %s, not a %s", kind, declaredKind)
			}
			return mediaType, io.MultiReader(&head, body), nil
		}
	}
	return "", nil, invalid("file content does not match an accepted image or video format")
}

// mediaOwner resolves the thread or reply media is attached to and checks the
// caller is its author or an administrator.
func (s *DiscussionService) mediaOwner(ctx context.Context, p identity.Principal, ownerKind string, ownerID uuid.UUID) (*models.Thread, *models.Location, error) {
	switch ownerKind {
	case models.OwnerThread:
		return s.loadOwnThread(ctx, p, ownerID)
	case models.OwnerReply:
		_, thread, err := s.loadReply(ctx, p, ownerID)
		if err != nil {
			return nil, nil, err
		}
		loc, err := s.store.GetLocationByID(ctx, thread.LocationID)
		if err != nil {
			return nil, nil, storeErr(err, "location")
		}
		return thread, loc, nil
	default:
		return nil, nil, invalid("owner_kind must be thread or reply")
	}
}

func objectKey(slug, ownerKind string, ownerID, mediaID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("community/%s/%s/%s/%s%s", slug, ownerKind, ownerID, mediaID, ext)
}

// AttachMedia stores an image or video for a thread or reply. The object is
// uploaded first; it is removed again if the row cannot be written.
func (s *DiscussionService) AttachMedia(ctx context.Context, p identity.Principal, ownerKind string, ownerID uuid.UUID, up Upload) (*models.MediaAttachment, error) {
	thread, loc, err := s.mediaOwner(ctx, p, ownerKind, ownerID)
	if err != nil {
		return nil, err
	}

	kind, err := mediaKind(up.ContentType)
	if err != nil {
		return nil, err
	}
	if up.Size <= 0 {
		return nil, invalid("file is empty")
	}
	limit := s.cfg.MaxImageBytes
	if kind == models.MediaVideo {
		limit = MaxVideoBytes
	}
	if up.Size > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d MB", ErrPayloadTooLarge, kind, limit>>20)
	}

	quota := int64(MaxThreadMedia)
	if ownerKind == models.OwnerReply {
		quota = MaxReplyMedia
	}
	count, err := s.store.CountMedia(ctx, ownerKind, ownerID)
	if err != nil {
		return nil, err
	}
	if count >= quota {
		return nil, fmt.Errorf("%w: at most %d files per %s", ErrQuotaExceeded, quota, ownerKind)
	}

	contentType, body, err := sniffMedia(up.Body, kind)
	if err != nil {
		return nil, err
	}

	mediaID := uuid.New()
	key := objectKey(loc.Slug, ownerKind, ownerID, mediaID, up.FileName)
	url, err := s.objects.Put(ctx, key, body, up.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store media: %w", err)
	}

	name := strings.TrimSpace(path.Base(up.FileName))
	if name == "." || name == "/" {
		name = ""
	}
	if len(name) > 255 {
		name = name[:255]
	}
	media := &models.MediaAttachment{
		ID:          mediaID,
		OwnerKind:   ownerKind,
		OwnerID:     ownerID,
		ThreadID:    thread.ID,
		StorageKey:  key,
		URL:         url,
		Kind:        kind,
		DisplayName: name,
		SizeBytes:   up.Size,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateMedia(ctx, media); err != nil {
		s.removeObjects(ctx, []models.MediaAttachment{*media})
		return nil, err
	}
	slog.Info("media attached", "location", loc.Slug, "owner_kind", ownerKind,
		"owner_id", ownerID, "kind", kind, "size_bytes", up.Size)
	return media, nil
}

// RemoveMedia deletes one attachment; the owning post is left untouched.
func (s *DiscussionService) RemoveMedia(ctx context.Context, p identity.Principal, mediaID uuid.UUID) error {
	media, err := s.store.GetMedia(ctx, mediaID)
	if err != nil {
		return storeErr(err, "media")
	}
	if _, _, err := s.mediaOwner(ctx, p, media.OwnerKind, media.OwnerID); err != nil {
		return err
	}
	if err := s.store.DeleteMedia(ctx, media.ID); err != nil {
		return storeErr(err, "media")
	}
	s.removeObjects(ctx, []models.MediaAttachment{*media})
	return nil
}

// removeObjects deletes backing objects after their rows are gone. Failures are
// logged and otherwise ignored.
func (s *DiscussionService) removeObjects(ctx context.Context, media []models.MediaAttachment) {
	for _, m := range media {
		err := s.objects.Delete(ctx, m.StorageKey)
		if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		slog.Error("failed to delete media object", "key", m.StorageKey, "media_id", m.ID, "error", err)
	}
}
