package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

// landingPath is where unverified callers are sent for a location.
func landingPath(slug string) string {
	if slug == "" {
		return "/"
	}
	return "/locations/" + slug
}

// respondError maps service errors to HTTP responses. Unverified callers get
// a redirect to the location landing page; admin-only failures do not.
func respondError(c *fiber.Ctx, err error) error {
	var uerr *services.UnverifiedError
	switch {
	case errors.As(err, &uerr):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Code: "unverified", Message: "Enter the location PIN to continue",
			Redirect: landingPath(uerr.Slug),
		})
	case errors.Is(err, services.ErrUnverified):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Code: "unverified", Message: "Enter the location PIN to continue",
			Redirect: landingPath(c.Params("slug")),
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Code: "forbidden", Message: "You are not allowed to do that",
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Code: "not_found", Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Code: "invalid_input", Message: err.Error(),
		})
	case errors.Is(err, services.ErrPayloadTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: true, Code: "payload_too_large", Message: err.Error(),
		})
	case errors.Is(err, services.ErrQuotaExceeded), errors.Is(err, services.ErrSlugTaken):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Code: "conflict", Message: err.Error(),
		})
	case errors.Is(err, services.ErrThreadLocked):
		return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{
			Error: true, Code: "thread_locked", Message: "This thread is locked",
		})
	case errors.Is(err, services.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Error: true, Code: "too_many_attempts", Message: "Too many incorrect PIN attempts, try again later",
		})
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(),
		"request_id", requestID(c), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Code: "internal", Message: "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Code: "invalid_input", Message: message,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

func setRetryAfter(c *fiber.Ctx, seconds int) {
	if seconds > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
	}
}
