package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/models"
	"github.com/tinytitans-bjj/community-backend/internal/render"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

func parseID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	return id, err == nil
}

func pageFromQuery(c *fiber.Ctx) services.Page {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	return services.Page{Limit: limit, Offset: offset}
}

func pageResponse(pg services.Page, total int64) dto.PageResponse {
	if pg.Limit <= 0 {
		pg.Limit = services.DefaultPageSize
	}
	if pg.Limit > services.MaxPageSize {
		pg.Limit = services.MaxPageSize
	}
	return dto.PageResponse{Total: total, Limit: pg.Limit, Offset: pg.Offset}
}

// parseBody decodes and validates a JSON request body. The returned error
// message is safe to show to the caller.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errors.New("invalid request body")
	}
	return dto.Validate(req)
}

// viewer is the caller a response is rendered for.
type viewer struct {
	principal identity.Principal
	policy    *identity.AdministratorPolicy
}

func (v viewer) canEdit(authorID, authorEmail string) bool {
	return services.CanModify(v.policy, v.principal, authorID, authorEmail)
}

func threadResponse(t models.Thread, v viewer) dto.ThreadResponse {
	links := []string(t.VideoLinks)
	if links == nil {
		links = []string{}
	}
	return dto.ThreadResponse{
		ID:           t.ID,
		LocationID:   t.LocationID,
		Title:        t.Title,
		Content:      t.Content,
		ContentHTML:  render.Markdown(t.Content),
		AuthorEmail:  t.AuthorEmail,
		IsPinned:     t.IsPinned,
		IsLocked:     t.IsLocked,
		IsHidden:     t.IsHidden,
		HiddenReason: t.HiddenReason,
		VideoLinks:   links,
		CanEdit:      v.canEdit(t.AuthorID, t.AuthorEmail),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func summaryResponse(s services.ThreadSummary, v viewer) dto.ThreadResponse {
	resp := threadResponse(s.Thread, v)
	resp.LocationSlug = s.LocationSlug
	resp.LocationName = s.LocationName
	count := s.ReplyCount
	resp.ReplyCount = &count
	return resp
}

func summariesResponse(items []services.ThreadSummary, v viewer) []dto.ThreadResponse {
	out := make([]dto.ThreadResponse, 0, len(items))
	for _, s := range items {
		out = append(out, summaryResponse(s, v))
	}
	return out
}

func replyResponse(r models.Reply, media []models.MediaAttachment, v viewer) dto.ReplyResponse {
	if media == nil {
		media = []models.MediaAttachment{}
	}
	return dto.ReplyResponse{
		ID:          r.ID,
		ThreadID:    r.ThreadID,
		Content:     r.Content,
		ContentHTML: render.Markdown(r.Content),
		AuthorEmail: r.AuthorEmail,
		Media:       media,
		CanEdit:     v.canEdit(r.AuthorID, r.AuthorEmail),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func detailResponse(d *services.ThreadDetail, v viewer) dto.ThreadResponse {
	resp := threadResponse(d.Thread, v)
	resp.LocationSlug = d.Location.Slug
	resp.LocationName = d.Location.Name
	resp.Media = d.Media
	resp.Replies = make([]dto.ReplyResponse, 0, len(d.Replies))
	for _, r := range d.Replies {
		resp.Replies = append(resp.Replies, replyResponse(r.Reply, r.Media, v))
	}
	count := int64(len(d.Replies))
	resp.ReplyCount = &count
	return resp
}

func locationResponse(l *models.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Slug:      l.Slug,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
	}
}
