package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportPending   = "pending"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// ContentReport is a flag raised against a thread or reply. Reports are never deleted.
type ContentReport struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContentType   string     `gorm:"not null;size:20" json:"content_type"`
	ContentID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"content_id"`
	LocationID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"location_id"`
	ReporterID    string     `gorm:"not null;size:255;index" json:"reporter_id"`
	ReporterEmail string     `gorm:"not null;size:255" json:"reporter_email"`
	Reason        string     `gorm:"not null;size:50" json:"reason"`
	Detail        string     `gorm:"size:1000" json:"detail,omitempty"`
	Status        string     `gorm:"not null;default:'pending';size:20;index" json:"status"`
	AdminNote     string     `gorm:"size:1000" json:"admin_note,omitempty"`
	ResolvedBy    string     `gorm:"size:255" json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ContentReport) TableName() string {
	return "content_reports"
}
