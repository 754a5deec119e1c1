package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/middleware"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

// ModerationHandler serves the administrator console. Routes sit behind
// AdminRequired; the services check the same policy again.
type ModerationHandler struct {
	moderation *services.ModerationService
	policy     *identity.AdministratorPolicy
}

func NewModerationHandler(moderation *services.ModerationService, policy *identity.AdministratorPolicy) *ModerationHandler {
	return &ModerationHandler{moderation: moderation, policy: policy}
}

func (h *ModerationHandler) ListThreads(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	pg := pageFromQuery(c)

	threads, total, err := h.moderation.ListAllThreads(c.UserContext(), p, pg)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ThreadListResponse{
		Threads:      summariesResponse(threads, viewer{principal: p, policy: h.policy}),
		PageResponse: pageResponse(pg, total),
	})
}

func (h *ModerationHandler) ModerateThread(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid thread ID")
	}
	var req dto.ModerateThreadRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	p := middleware.Principal(c)

	thread, err := h.moderation.ModerateThread(c.UserContext(), p, id, services.ThreadModeration{
		Title:        req.Title,
		Content:      req.Content,
		IsPinned:     req.IsPinned,
		IsLocked:     req.IsLocked,
		IsHidden:     req.IsHidden,
		HiddenReason: req.HiddenReason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(threadResponse(*thread, viewer{principal: p, policy: h.policy}))
}

func (h *ModerationHandler) DeleteThread(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid thread ID")
	}
	slug, err := h.moderation.DeleteThread(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DeleteThreadResponse{
		Message:      "Thread deleted",
		LocationSlug: slug,
		Redirect:     "/admin/community",
	})
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	pg := pageFromQuery(c)
	reports, total, err := h.moderation.ListReports(c.UserContext(), middleware.Principal(c), c.Query("status"), pg)
	if err != nil {
		return respondError(c, err)
	}
	page := pageResponse(pg, total)
	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   page.Total,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}

func (h *ModerationHandler) ResolveReport(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}
	var req dto.ResolveReportRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	report, err := h.moderation.ResolveReport(c.UserContext(), middleware.Principal(c), id, req.Status, req.AdminNote)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
