package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a daycare partner site with its own community board.
// Locations are deactivated, never deleted.
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:200" json:"name"`
	Slug      string    `gorm:"not null;size:100;uniqueIndex" json:"slug"`
	PinHash   string    `gorm:"not null;size:100" json:"-"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccessGrant records a successful PIN verification for a principal at a location.
type AccessGrant struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PrincipalID string    `gorm:"not null;size:255;uniqueIndex:idx_grants_principal_location" json:"principal_id"`
	LocationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_grants_principal_location" json:"location_id"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AccessGrant) TableName() string {
	return "location_access_grants"
}
