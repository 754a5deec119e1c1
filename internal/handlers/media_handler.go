package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/middleware"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

type MediaHandler struct {
	discussions *services.DiscussionService
}

func NewMediaHandler(discussions *services.DiscussionService) *MediaHandler {
	return &MediaHandler{discussions: discussions}
}

// Upload attaches one multipart file to a thread or reply.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.FormValue("owner_id"))
	if err != nil {
		return badRequest(c, "Invalid owner ID")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	media, err := h.discussions.AttachMedia(c.UserContext(), middleware.Principal(c), c.FormValue("owner_kind"), ownerID, services.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(media)
}

func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid media ID")
	}
	if err := h.discussions.RemoveMedia(c.UserContext(), middleware.Principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Media removed"})
}
