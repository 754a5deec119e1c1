package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

type LocationHandler struct {
	locations *services.LocationService
}

func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

func (h *LocationHandler) List(c *fiber.Ctx) error {
	locs, err := h.locations.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LocationResponse, 0, len(locs))
	for i := range locs {
		out = append(out, locationResponse(&locs[i]))
	}
	return c.JSON(fiber.Map{"locations": out})
}

func (h *LocationHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	loc, err := h.locations.Create(c.UserContext(), req.Name, req.Slug, req.Pin)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(locationResponse(loc))
}

// Update renames, rotates the PIN of, or (de)activates a location.
func (h *LocationHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	loc, err := h.locations.Update(c.UserContext(), c.Params("slug"), services.LocationChanges{
		Name:     req.Name,
		PIN:      req.Pin,
		IsActive: req.IsActive,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(locationResponse(loc))
}
