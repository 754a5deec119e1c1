package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	db      Pinger
	storage Pinger
}

func NewHealthHandler(db, storage Pinger) *HealthHandler {
	return &HealthHandler{db: db, storage: storage}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        check(ctx, h.db),
		Storage:   check(ctx, h.storage),
	}
	if resp.DB != "ok" {
		resp.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func check(ctx context.Context, ping Pinger) string {
	if ping == nil {
		return "ok"
	}
	if err := ping(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "ok"
}
