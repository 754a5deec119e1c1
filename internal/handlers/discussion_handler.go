package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/middleware"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

type DiscussionHandler struct {
	discussions *services.DiscussionService
	policy      *identity.AdministratorPolicy
}

func NewDiscussionHandler(discussions *services.DiscussionService, policy *identity.AdministratorPolicy) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions, policy: policy}
}

func (h *DiscussionHandler) viewer(p identity.Principal) viewer {
	return viewer{principal: p, policy: h.policy}
}

func (h *DiscussionHandler) ListThreads(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	pg := pageFromQuery(c)

	list, err := h.discussions.ListThreads(c.UserContext(), p, c.Params("slug"), pg)
	if err != nil {
		return respondError(c, err)
	}
	locResp := locationResponse(list.Location)

	return c.JSON(dto.ThreadListResponse{
		Location:     &locResp,
		Threads:      summariesResponse(list.Threads, h.viewer(p)),
		PageResponse: pageResponse(pg, list.Total),
	})
}

func (h *DiscussionHandler) GetThread(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid thread ID")
	}
	p := middleware.Principal(c)

	detail, err := h.discussions.GetThread(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detailResponse(detail, h.viewer(p)))
}

func (h *DiscussionHandler) CreateThread(c *fiber.Ctx) error {
	var req dto.CreateThreadRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	p := middleware.Principal(c)

	thread, err := h.discussions.CreateThread(c.UserContext(), p, req.LocationSlug, services.CreateThreadInput{
		Title:      req.Title,
		Content:    req.Content,
		VideoLinks: req.VideoLinks,
	})
	if err != nil {
		return respondError(c, err)
	}
	resp := threadResponse(*thread, h.viewer(p))
	resp.LocationSlug = req.LocationSlug
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *DiscussionHandler) UpdateThread(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid thread ID")
	}
	var req dto.UpdateThreadRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	p := middleware.Principal(c)

	thread, err := h.discussions.EditThread(c.UserContext(), p, id, services.ThreadEdit{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(threadResponse(*thread, h.viewer(p)))
}

func (h *DiscussionHandler) DeleteThread(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid thread ID")
	}

	slug, err := h.discussions.DeleteThread(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DeleteThreadResponse{
		Message:      "Thread deleted",
		LocationSlug: slug,
		Redirect:     landingPath(slug) + "/community",
	})
}

func (h *DiscussionHandler) CreateReply(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid thread ID")
	}
	var req dto.CreateReplyRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	p := middleware.Principal(c)

	reply, err := h.discussions.CreateReply(c.UserContext(), p, id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(replyResponse(*reply, nil, h.viewer(p)))
}

func (h *DiscussionHandler) UpdateReply(c *fiber.Ctx) error {
	replyID, ok := parseID(c, "replyId")
	if !ok {
		return badRequest(c, "Invalid reply ID")
	}
	var req dto.UpdateReplyRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	p := middleware.Principal(c)

	reply, err := h.discussions.EditReply(c.UserContext(), p, replyID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replyResponse(*reply, nil, h.viewer(p)))
}

func (h *DiscussionHandler) DeleteReply(c *fiber.Ctx) error {
	replyID, ok := parseID(c, "replyId")
	if !ok {
		return badRequest(c, "Invalid reply ID")
	}

	threadID, err := h.discussions.DeleteReply(c.UserContext(), middleware.Principal(c), replyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DeleteReplyResponse{Message: "Reply deleted", ThreadID: threadID})
}

func (h *DiscussionHandler) CreateReport(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		return badRequest(c, "Invalid content ID")
	}

	report, err := h.discussions.ReportContent(c.UserContext(), middleware.Principal(c),
		req.ContentType, contentID, req.Reason, req.Detail)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}
