package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/models"
)

type VerifyPinRequest struct {
	Pin string `json:"pin" validate:"required,max=12"`
}

type VerifyPinResponse struct {
	Verified          bool       `json:"verified"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	RetryAfterSeconds int        `json:"retry_after_seconds,omitempty"`
}

type CreateThreadRequest struct {
	LocationSlug string   `json:"location_slug" validate:"required,max=100"`
	Title        string   `json:"title" validate:"required,max=1000"`
	Content      string   `json:"content" validate:"required"`
	VideoLinks   []string `json:"video_links" validate:"max=10"`
}

type UpdateThreadRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=1000"`
	Content *string `json:"content"`
}

type CreateReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

type UpdateReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

type CreateReportRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=thread reply"`
	ContentID   string `json:"content_id" validate:"required,uuid"`
	Reason      string `json:"reason" validate:"required"`
	Detail      string `json:"detail"`
}

type ThreadResponse struct {
	ID           uuid.UUID                `json:"id"`
	LocationID   uuid.UUID                `json:"location_id"`
	LocationSlug string                   `json:"location_slug,omitempty"`
	LocationName string                   `json:"location_name,omitempty"`
	Title        string                   `json:"title"`
	Content      string                   `json:"content"`
	ContentHTML  string                   `json:"content_html,omitempty"`
	AuthorEmail  string                   `json:"author_email"`
	IsPinned     bool                     `json:"is_pinned"`
	IsLocked     bool                     `json:"is_locked"`
	IsHidden     bool                     `json:"is_hidden"`
	HiddenReason string                   `json:"hidden_reason,omitempty"`
	VideoLinks   []string                 `json:"video_links"`
	ReplyCount   *int64                   `json:"reply_count,omitempty"`
	Media        []models.MediaAttachment `json:"media,omitempty"`
	Replies      []ReplyResponse          `json:"replies,omitempty"`
	CanEdit      bool                     `json:"can_edit"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

type ReplyResponse struct {
	ID          uuid.UUID                `json:"id"`
	ThreadID    uuid.UUID                `json:"thread_id"`
	Content     string                   `json:"content"`
	ContentHTML string                   `json:"content_html,omitempty"`
	AuthorEmail string                   `json:"author_email"`
	Media       []models.MediaAttachment `json:"media"`
	CanEdit     bool                     `json:"can_edit"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

type ThreadListResponse struct {
	Location *LocationResponse `json:"location,omitempty"`
	Threads  []ThreadResponse  `json:"threads"`
	PageResponse
}

type DeleteThreadResponse struct {
	Message      string `json:"message"`
	LocationSlug string `json:"location_slug"`
	Redirect     string `json:"redirect"`
}

type DeleteReplyResponse struct {
	Message  string    `json:"message"`
	ThreadID uuid.UUID `json:"thread_id"`
}
