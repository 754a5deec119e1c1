package handlers

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/middleware"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

type AccessHandler struct {
	gate *services.AccessGate
}

func NewAccessHandler(gate *services.AccessGate) *AccessHandler {
	return &AccessHandler{gate: gate}
}

// Check reports whether the caller already holds a grant for the location.
func (h *AccessHandler) Check(c *fiber.Ctx) error {
	res, err := h.gate.CheckVerified(c.UserContext(), middleware.Principal(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.VerifyPinResponse{Verified: res.Verified, ExpiresAt: res.ExpiresAt})
}

func (h *AccessHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyPinRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.gate.Verify(c.UserContext(), middleware.Principal(c), c.Params("slug"), req.Pin)
	if errors.Is(err, services.ErrTooManyAttempts) && res != nil {
		setRetryAfter(c, int(math.Ceil(res.RetryAfter.Seconds())))
	}
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.VerifyPinResponse{Verified: res.Verified, ExpiresAt: res.ExpiresAt}
	if !res.Verified {
		resp.RetryAfterSeconds = int(math.Ceil(res.RetryAfter.Seconds()))
	}
	return c.JSON(resp)
}
