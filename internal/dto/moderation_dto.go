package dto

import (
	"time"

	"github.com/google/uuid"
)

type ModerateThreadRequest struct {
	Title        *string `json:"title" validate:"omitempty,max=1000"`
	Content      *string `json:"content"`
	IsPinned     *bool   `json:"is_pinned"`
	IsLocked     *bool   `json:"is_locked"`
	IsHidden     *bool   `json:"is_hidden"`
	HiddenReason *string `json:"hidden_reason" validate:"omitempty,max=500"`
}

type ResolveReportRequest struct {
	Status    string `json:"status" validate:"required,oneof=resolved dismissed"`
	AdminNote string `json:"admin_note" validate:"max=1000"`
}

type CreateLocationRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=100"`
	Pin  string `json:"pin" validate:"required,max=12"`
}

type UpdateLocationRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Pin      *string `json:"pin" validate:"omitempty,max=12"`
	IsActive *bool   `json:"is_active"`
}

type LocationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
