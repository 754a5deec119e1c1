package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// ThreadFilter selects threads for a listing.
// A nil LocationID lists across every location.
type ThreadFilter struct {
	LocationID    *uuid.UUID
	IncludeHidden bool
	PinnedFirst   bool
	Limit         int
	Offset        int
}

// ThreadUpdate carries the fields to change; nil fields are left untouched.
type ThreadUpdate struct {
	Title        *string
	Content      *string
	IsPinned     *bool
	IsLocked     *bool
	IsHidden     *bool
	HiddenReason *string
}

func (u ThreadUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.IsPinned == nil &&
		u.IsLocked == nil && u.IsHidden == nil && u.HiddenReason == nil
}

type LocationUpdate struct {
	Name     *string
	PinHash  *string
	IsActive *bool
}

type ReportResolution struct {
	Status     string
	AdminNote  string
	ResolvedBy string
	ResolvedAt time.Time
}

// Store is the relational store the community services run against.
// Implementations guarantee row-level atomicity; DeleteThreadCascade and
// DeleteReplyCascade run as a single transaction.
type Store interface {
	CreateLocation(ctx context.Context, loc *models.Location) error
	GetLocationBySlug(ctx context.Context, slug string) (*models.Location, error)
	GetLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, upd LocationUpdate) error

	UpsertGrant(ctx context.Context, grant *models.AccessGrant) error
	GetGrant(ctx context.Context, principalID string, locationID uuid.UUID) (*models.AccessGrant, error)

	CreateThread(ctx context.Context, thread *models.Thread) error
	GetThread(ctx context.Context, id uuid.UUID) (*models.Thread, error)
	ListThreads(ctx context.Context, filter ThreadFilter) ([]models.Thread, int64, error)
	UpdateThread(ctx context.Context, id uuid.UUID, upd ThreadUpdate) error
	// DeleteThreadCascade removes the thread, its replies and every media row
	// under it, returning the deleted media so backing objects can be removed.
	DeleteThreadCascade(ctx context.Context, id uuid.UUID) ([]models.MediaAttachment, error)
	CountReplies(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	CreateReply(ctx context.Context, reply *models.Reply) error
	GetReply(ctx context.Context, id uuid.UUID) (*models.Reply, error)
	ListReplies(ctx context.Context, threadID uuid.UUID) ([]models.Reply, error)
	UpdateReplyContent(ctx context.Context, id uuid.UUID, content string) error
	DeleteReplyCascade(ctx context.Context, id uuid.UUID) ([]models.MediaAttachment, error)

	CreateMedia(ctx context.Context, media *models.MediaAttachment) error
	GetMedia(ctx context.Context, id uuid.UUID) (*models.MediaAttachment, error)
	ListThreadMedia(ctx context.Context, threadID uuid.UUID) ([]models.MediaAttachment, error)
	CountMedia(ctx context.Context, ownerKind string, ownerID uuid.UUID) (int64, error)
	DeleteMedia(ctx context.Context, id uuid.UUID) error

	CreateReport(ctx context.Context, report *models.ContentReport) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.ContentReport, error)
	ListReports(ctx context.Context, status string, limit, offset int) ([]models.ContentReport, int64, error)
	// ResolveReport moves a pending report to a terminal status. It reports
	// false when the report exists but is no longer pending.
	ResolveReport(ctx context.Context, id uuid.UUID, res ReportResolution) (bool, error)
}
