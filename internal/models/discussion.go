package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Thread is a top-level discussion post scoped to one location.
type Thread struct {
	ID           uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LocationID   uuid.UUID                   `gorm:"type:uuid;not null;index" json:"location_id"`
	Title        string                      `gorm:"not null;size:200" json:"title"`
	Content      string                      `gorm:"type:text;not null" json:"content"`
	AuthorID     string                      `gorm:"not null;size:255;index" json:"author_id"`
	AuthorEmail  string                      `gorm:"not null;size:255" json:"author_email"`
	IsPinned     bool                        `gorm:"not null;default:false;index" json:"is_pinned"`
	IsLocked     bool                        `gorm:"not null;default:false" json:"is_locked"`
	IsHidden     bool                        `gorm:"not null;default:false;index" json:"is_hidden"`
	HiddenReason string                      `gorm:"size:500" json:"hidden_reason,omitempty"`
	VideoLinks   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"video_links"`
	CreatedAt    time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (Thread) TableName() string {
	return "discussion_threads"
}

// Reply is a response attached to exactly one thread.
type Reply struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ThreadID    uuid.UUID `gorm:"type:uuid;not null;index" json:"thread_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	AuthorID    string    `gorm:"not null;size:255;index" json:"author_id"`
	AuthorEmail string    `gorm:"not null;size:255" json:"author_email"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Reply) TableName() string {
	return "discussion_replies"
}

const (
	OwnerThread = "thread"
	OwnerReply  = "reply"

	MediaImage = "image"
	MediaVideo = "video"
)

// MediaAttachment is an image or video owned by a thread or a reply.
// ThreadID is always set so a thread delete can sweep its replies' media too.
type MediaAttachment struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerKind   string    `gorm:"not null;size:10;index:idx_media_owner" json:"owner_kind"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index:idx_media_owner" json:"owner_id"`
	ThreadID    uuid.UUID `gorm:"type:uuid;not null;index" json:"thread_id"`
	StorageKey  string    `gorm:"not null;size:500" json:"-"`
	URL         string    `gorm:"not null;size:1000" json:"url"`
	Kind        string    `gorm:"not null;size:10" json:"kind"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

func (MediaAttachment) TableName() string {
	return "media_attachments"
}
