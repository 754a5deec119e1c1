package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/models"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
)

// ThreadModeration is a combined administrator change to one thread.
// Nil fields are left untouched.
type ThreadModeration struct {
	Title        *string
	Content      *string
	IsPinned     *bool
	IsLocked     *bool
	IsHidden     *bool
	HiddenReason *string
}

// ModerationService is the administrator console. It reads across every
// location and hands all mutations to the DiscussionService, which applies
// the same AdministratorPolicy.
type ModerationService struct {
	store       repository.Store
	policy      *identity.AdministratorPolicy
	discussions *DiscussionService
}

func NewModerationService(store repository.Store, policy *identity.AdministratorPolicy, discussions *DiscussionService) *ModerationService {
	return &ModerationService{store: store, policy: policy, discussions: discussions}
}

// ListAllThreads returns threads from every location, newest first, hidden included.
func (s *ModerationService) ListAllThreads(ctx context.Context, admin identity.Principal, pg Page) ([]ThreadSummary, int64, error) {
	if err := requireAdmin(s.policy, admin); err != nil {
		return nil, 0, err
	}
	pg = pg.normalize()
	threads, total, err := s.store.ListThreads(ctx, repository.ThreadFilter{
		IncludeHidden: true,
		Limit:         pg.Limit,
		Offset:        pg.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	summaries, err := s.discussions.summarize(ctx, threads, nil)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// ListReports lists reports with the given status, pending when empty.
func (s *ModerationService) ListReports(ctx context.Context, admin identity.Principal, status string, pg Page) ([]models.ContentReport, int64, error) {
	if err := requireAdmin(s.policy, admin); err != nil {
		return nil, 0, err
	}
	switch status {
	case "":
		status = models.ReportPending
	case "all":
		status = ""
	case models.ReportPending, models.ReportResolved, models.ReportDismissed:
	default:
		return nil, 0, invalid("status must be pending, resolved, dismissed or all")
	}
	pg = pg.normalize()
	return s.store.ListReports(ctx, status, pg.Limit, pg.Offset)
}

func (s *ModerationService) ListPendingReports(ctx context.Context, admin identity.Principal, limit int) ([]models.ContentReport, error) {
	reports, _, err := s.ListReports(ctx, admin, models.ReportPending, Page{Limit: limit})
	return reports, err
}

// ModerateThread applies edits and flag changes in order: text, pin, lock, hide.
// The first failure stops the sequence.
func (s *ModerationService) ModerateThread(ctx context.Context, admin identity.Principal, id uuid.UUID, m ThreadModeration) (*models.Thread, error) {
	if err := requireAdmin(s.policy, admin); err != nil {
		return nil, err
	}
	if m.HiddenReason != nil && (m.IsHidden == nil || !*m.IsHidden) {
		return nil, invalid("hidden_reason requires is_hidden=true")
	}

	var (
		thread *models.Thread
		err    error
	)
	if m.Title != nil || m.Content != nil {
		if thread, err = s.discussions.EditThread(ctx, admin, id, ThreadEdit{Title: m.Title, Content: m.Content}); err != nil {
			return nil, err
		}
	}
	if m.IsPinned != nil {
		if thread, err = s.discussions.SetPinned(ctx, admin, id, *m.IsPinned); err != nil {
			return nil, err
		}
	}
	if m.IsLocked != nil {
		if thread, err = s.discussions.SetLocked(ctx, admin, id, *m.IsLocked); err != nil {
			return nil, err
		}
	}
	if m.IsHidden != nil {
		reason := ""
		if m.HiddenReason != nil {
			reason = *m.HiddenReason
		}
		if thread, err = s.discussions.SetHidden(ctx, admin, id, *m.IsHidden, reason); err != nil {
			return nil, err
		}
	}
	if thread == nil {
		return nil, invalid("nothing to update")
	}
	return thread, nil
}

func (s *ModerationService) DeleteThread(ctx context.Context, admin identity.Principal, id uuid.UUID) (string, error) {
	if err := requireAdmin(s.policy, admin); err != nil {
		return "", err
	}
	return s.discussions.DeleteThread(ctx, admin, id)
}

func (s *ModerationService) ResolveReport(ctx context.Context, admin identity.Principal, id uuid.UUID, outcome, note string) (*models.ContentReport, error) {
	return s.discussions.ResolveReport(ctx, admin, id, outcome, note)
}
