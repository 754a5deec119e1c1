package services

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/models"
	"github.com/tinytitans-bjj/community-backend/internal/render"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
	"github.com/tinytitans-bjj/community-backend/internal/storage"
)

const (
	MaxTitleLength         = 200
	MaxThreadContentLength = 10000
	MaxReplyLength         = 5000
	MaxReportDetailLength  = 1000
	MaxHiddenReasonLength  = 500

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ReportReasons are the accepted reason codes for a content report.
var ReportReasons = map[string]bool{
	"spam":          true,
	"harassment":    true,
	"inappropriate": true,
	"safety":        true,
	"other":         true,
}

type DiscussionConfig struct {
	MaxImageBytes int64
}

// Page is a limit/offset window; zero values select the defaults.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type ThreadSummary struct {
	models.Thread
	LocationName string
	LocationSlug string
	ReplyCount   int64
}

type ReplyDetail struct {
	models.Reply
	Media []models.MediaAttachment
}

type ThreadDetail struct {
	Thread   models.Thread
	Location models.Location
	Media    []models.MediaAttachment
	Replies  []ReplyDetail
}

type CreateThreadInput struct {
	Title      string
	Content    string
	VideoLinks []string
}

// ThreadEdit is a partial update of a thread's text; nil fields are kept.
type ThreadEdit struct {
	Title   *string
	Content *string
}

// DiscussionService owns the thread and reply lifecycle at each location.
type DiscussionService struct {
	store   repository.Store
	gate    *AccessGate
	policy  *identity.AdministratorPolicy
	objects storage.ObjectStore
	filter  *ContentFilter
	clock   Clock
	cfg     DiscussionConfig
}

func NewDiscussionService(
	store repository.Store,
	gate *AccessGate,
	policy *identity.AdministratorPolicy,
	objects storage.ObjectStore,
	filter *ContentFilter,
	clock Clock,
	cfg DiscussionConfig,
) *DiscussionService {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	return &DiscussionService{
		store:   store,
		gate:    gate,
		policy:  policy,
		objects: objects,
		filter:  filter,
		clock:   clock,
		cfg:     cfg,
	}
}

// CanModify reports whether p may edit or delete content by the given author.
// Administrators always can; otherwise p must match the author by id, or by
// email when both sides carry one.
func CanModify(policy *identity.AdministratorPolicy, p identity.Principal, authorID, authorEmail string) bool {
	if policy.IsAdmin(p) {
		return true
	}
	if p.IsZero() {
		return false
	}
	if p.ID == authorID {
		return true
	}
	return p.Email != "" && strings.EqualFold(p.Email, authorEmail)
}

func (s *DiscussionService) requireAuthorOrAdmin(p identity.Principal, authorID, authorEmail string) error {
	if CanModify(s.policy, p, authorID, authorEmail) {
		return nil
	}
	return ErrForbidden
}

func cleanText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid("%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return "", invalid("%s must be at most %d characters", field, max)
	}
	return value, nil
}

func cleanTitle(title string) (string, error) {
	return cleanText("title", render.PlainText(title), MaxTitleLength)
}

// loadThread resolves a thread and its location and checks the caller may see it.
// Hidden threads are NotFound for everyone but administrators.
func (s *DiscussionService) loadThread(ctx context.Context, p identity.Principal, id uuid.UUID) (*models.Thread, *models.Location, error) {
	thread, err := s.store.GetThread(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err, "thread")
	}
	loc, err := s.store.GetLocationByID(ctx, thread.LocationID)
	if err != nil {
		return nil, nil, storeErr(err, "location")
	}
	if err := s.gate.Authorize(ctx, p, loc); err != nil {
		return nil, nil, err
	}
	if thread.IsHidden && !s.policy.IsAdmin(p) {
		return nil, nil, notFound("thread")
	}
	return thread, loc, nil
}

// loadOwnThread is loadThread for author-or-admin mutations. Authors keep
// access to their own hidden threads so they can edit or remove them.
func (s *DiscussionService) loadOwnThread(ctx context.Context, p identity.Principal, id uuid.UUID) (*models.Thread, *models.Location, error) {
	thread, err := s.store.GetThread(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err, "thread")
	}
	loc, err := s.store.GetLocationByID(ctx, thread.LocationID)
	if err != nil {
		return nil, nil, storeErr(err, "location")
	}
	if err := s.gate.Authorize(ctx, p, loc); err != nil {
		return nil, nil, err
	}
	if err := s.requireAuthorOrAdmin(p, thread.AuthorID, thread.AuthorEmail); err != nil {
		if thread.IsHidden {
			return nil, nil, notFound("thread")
		}
		return nil, nil, err
	}
	return thread, loc, nil
}

// ThreadList is one page of a location's board.
type ThreadList struct {
	Location *models.Location
	Threads  []ThreadSummary
	Total    int64
}

func (s *DiscussionService) ListThreads(ctx context.Context, p identity.Principal, slug string, pg Page) (*ThreadList, error) {
	loc, err := s.gate.ActiveLocation(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, p, loc); err != nil {
		return nil, err
	}
	pg = pg.normalize()

	threads, total, err := s.store.ListThreads(ctx, repository.ThreadFilter{
		LocationID:    &loc.ID,
		IncludeHidden: s.policy.IsAdmin(p),
		PinnedFirst:   true,
		Limit:         pg.Limit,
		Offset:        pg.Offset,
	})
	if err != nil {
		return nil, err
	}
	summaries, err := s.summarize(ctx, threads, map[uuid.UUID]*models.Location{loc.ID: loc})
	if err != nil {
		return nil, err
	}
	return &ThreadList{Location: loc, Threads: summaries, Total: total}, nil
}

// summarize annotates threads with their location and reply count. known
// seeds the location cache.
func (s *DiscussionService) summarize(ctx context.Context, threads []models.Thread, known map[uuid.UUID]*models.Location) ([]ThreadSummary, error) {
	if known == nil {
		known = make(map[uuid.UUID]*models.Location)
	}
	ids := make([]uuid.UUID, len(threads))
	for i := range threads {
		ids[i] = threads[i].ID
	}
	counts, err := s.store.CountReplies(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ThreadSummary, 0, len(threads))
	for _, t := range threads {
		loc, ok := known[t.LocationID]
		if !ok {
			loc, err = s.store.GetLocationByID(ctx, t.LocationID)
			if err != nil {
				return nil, storeErr(err, "location")
			}
			known[t.LocationID] = loc
		}
		out = append(out, ThreadSummary{
			Thread:       t,
			LocationName: loc.Name,
			LocationSlug: loc.Slug,
			ReplyCount:   counts[t.ID],
		})
	}
	return out, nil
}

func (s *DiscussionService) GetThread(ctx context.Context, p identity.Principal, id uuid.UUID) (*ThreadDetail, error) {
	thread, loc, err := s.loadThread(ctx, p, id)
	if err != nil {
		return nil, err
	}
	replies, err := s.store.ListReplies(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	media, err := s.store.ListThreadMedia(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	byReply := make(map[uuid.UUID][]models.MediaAttachment)
	detail := &ThreadDetail{Thread: *thread, Location: *loc, Media: []models.MediaAttachment{}}
	for _, m := range media {
		if m.OwnerKind == models.OwnerReply {
			byReply[m.OwnerID] = append(byReply[m.OwnerID], m)
			continue
		}
		detail.Media = append(detail.Media, m)
	}
	detail.Replies = make([]ReplyDetail, 0, len(replies))
	for _, r := range replies {
		rm := byReply[r.ID]
		if rm == nil {
			rm = []models.MediaAttachment{}
		}
		detail.Replies = append(detail.Replies, ReplyDetail{Reply: r, Media: rm})
	}
	return detail, nil
}

func (s *DiscussionService) CreateThread(ctx context.Context, p identity.Principal, slug string, in CreateThreadInput) (*models.Thread, error) {
	loc, err := s.gate.ActiveLocation(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, p, loc); err != nil {
		return nil, err
	}

	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := cleanText("content", in.Content, MaxThreadContentLength)
	if err != nil {
		return nil, err
	}
	links, err := NormalizeVideoLinks(in.VideoLinks)
	if err != nil {
		return nil, err
	}
	if err := s.filter.Check(title, content); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	thread := &models.Thread{
		ID:          uuid.New(),
		LocationID:  loc.ID,
		Title:       title,
		Content:     content,
		AuthorID:    p.ID,
		AuthorEmail: p.Email,
		VideoLinks:  links,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, err
	}
	slog.Info("thread created", "location", loc.Slug, "thread_id", thread.ID, "principal_id", p.ID)
	return thread, nil
}

func (s *DiscussionService) CreateReply(ctx context.Context, p identity.Principal, threadID uuid.UUID, content string) (*models.Reply, error) {
	thread, _, err := s.loadThread(ctx, p, threadID)
	if err != nil {
		return nil, err
	}
	if thread.IsLocked {
		return nil, ErrThreadLocked
	}
	content, err = cleanText("content", content, MaxReplyLength)
	if err != nil {
		return nil, err
	}
	if err := s.filter.Check(content); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reply := &models.Reply{
		ID:          uuid.New(),
		ThreadID:    thread.ID,
		Content:     content,
		AuthorID:    p.ID,
		AuthorEmail: p.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// EditThread changes title and/or content. Flags are never touched here.
func (s *DiscussionService) EditThread(ctx context.Context, p identity.Principal, id uuid.UUID, edit ThreadEdit) (*models.Thread, error) {
	thread, _, err := s.loadOwnThread(ctx, p, id)
	if err != nil {
		return nil, err
	}

	var upd repository.ThreadUpdate
	if edit.Title != nil {
		title, err := cleanTitle(*edit.Title)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if edit.Content != nil {
		content, err := cleanText("content", *edit.Content, MaxThreadContentLength)
		if err != nil {
			return nil, err
		}
		upd.Content = &content
	}
	if upd.IsEmpty() {
		return nil, invalid("nothing to update")
	}
	var texts []string
	if upd.Title != nil {
		texts = append(texts, *upd.Title)
	}
	if upd.Content != nil {
		texts = append(texts, *upd.Content)
	}
	if err := s.filter.Check(texts...); err != nil {
		return nil, err
	}

	if err := s.store.UpdateThread(ctx, thread.ID, upd); err != nil {
		return nil, storeErr(err, "thread")
	}
	return s.reloadThread(ctx, thread.ID)
}

func (s *DiscussionService) reloadThread(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	thread, err := s.store.GetThread(ctx, id)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	return thread, nil
}

// loadReply resolves a reply and applies its parent thread's visibility rules.
func (s *DiscussionService) loadReply(ctx context.Context, p identity.Principal, id uuid.UUID) (*models.Reply, *models.Thread, error) {
	reply, err := s.store.GetReply(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err, "reply")
	}
	thread, _, err := s.loadThread(ctx, p, reply.ThreadID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireAuthorOrAdmin(p, reply.AuthorID, reply.AuthorEmail); err != nil {
		return nil, nil, err
	}
	return reply, thread, nil
}

func (s *DiscussionService) EditReply(ctx context.Context, p identity.Principal, id uuid.UUID, content string) (*models.Reply, error) {
	reply, _, err := s.loadReply(ctx, p, id)
	if err != nil {
		return nil, err
	}
	content, err = cleanText("content", content, MaxReplyLength)
	if err != nil {
		return nil, err
	}
	if err := s.filter.Check(content); err != nil {
		return nil, err
	}
	if err := s.store.UpdateReplyContent(ctx, reply.ID, content); err != nil {
		return nil, storeErr(err, "reply")
	}
	updated, err := s.store.GetReply(ctx, reply.ID)
	if err != nil {
		return nil, storeErr(err, "reply")
	}
	return updated, nil
}

// DeleteThread hard-deletes a thread with its replies and media and returns the
// slug of the location it belonged to.
func (s *DiscussionService) DeleteThread(ctx context.Context, p identity.Principal, id uuid.UUID) (string, error) {
	thread, loc, err := s.loadOwnThread(ctx, p, id)
	if err != nil {
		return "", err
	}
	media, err := s.store.DeleteThreadCascade(ctx, thread.ID)
	if err != nil {
		return "", storeErr(err, "thread")
	}
	s.removeObjects(ctx, media)
	slog.Info("thread deleted", "location", loc.Slug, "thread_id", thread.ID,
		"principal_id", p.ID, "media_removed", len(media))
	return loc.Slug, nil
}

// DeleteReply removes a reply and its media and returns the parent thread id.
func (s *DiscussionService) DeleteReply(ctx context.Context, p identity.Principal, id uuid.UUID) (uuid.UUID, error) {
	reply, thread, err := s.loadReply(ctx, p, id)
	if err != nil {
		return uuid.Nil, err
	}
	media, err := s.store.DeleteReplyCascade(ctx, reply.ID)
	if err != nil {
		return uuid.Nil, storeErr(err, "reply")
	}
	s.removeObjects(ctx, media)
	return thread.ID, nil
}

// moderate applies an administrator-only flag change.
func (s *DiscussionService) moderate(ctx context.Context, admin identity.Principal, id uuid.UUID, upd repository.ThreadUpdate) (*models.Thread, error) {
	if err := requireAdmin(s.policy, admin); err != nil {
		return nil, err
	}
	if err := s.store.UpdateThread(ctx, id, upd); err != nil {
		return nil, storeErr(err, "thread")
	}
	thread, err := s.reloadThread(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.Info("thread moderated", "thread_id", id, "admin_id", admin.ID,
		"pinned", thread.IsPinned, "locked", thread.IsLocked, "hidden", thread.IsHidden)
	return thread, nil
}

func (s *DiscussionService) SetPinned(ctx context.Context, admin identity.Principal, id uuid.UUID, pinned bool) (*models.Thread, error) {
	return s.moderate(ctx, admin, id, repository.ThreadUpdate{IsPinned: &pinned})
}

func (s *DiscussionService) SetLocked(ctx context.Context, admin identity.Principal, id uuid.UUID, locked bool) (*models.Thread, error) {
	return s.moderate(ctx, admin, id, repository.ThreadUpdate{IsLocked: &locked})
}

// SetHidden flags a thread hidden with an optional reason. Unhiding clears the reason.
func (s *DiscussionService) SetHidden(ctx context.Context, admin identity.Principal, id uuid.UUID, hidden bool, reason string) (*models.Thread, error) {
	reason = strings.TrimSpace(reason)
	if !hidden {
		reason = ""
	}
	if utf8.RuneCountInString(reason) > MaxHiddenReasonLength {
		return nil, invalid("reason must be at most %d characters", MaxHiddenReasonLength)
	}
	return s.moderate(ctx, admin, id, repository.ThreadUpdate{IsHidden: &hidden, HiddenReason: &reason})
}

func (s *DiscussionService) ReportContent(ctx context.Context, p identity.Principal, contentType string, contentID uuid.UUID, reason, detail string) (*models.ContentReport, error) {
	reason = strings.ToLower(strings.TrimSpace(reason))
	if !ReportReasons[reason] {
		return nil, invalid("reason must be one of spam, harassment, inappropriate, safety, other")
	}
	detail = strings.TrimSpace(detail)
	if utf8.RuneCountInString(detail) > MaxReportDetailLength {
		return nil, invalid("detail must be at most %d characters", MaxReportDetailLength)
	}

	var threadID uuid.UUID
	switch contentType {
	case models.OwnerThread:
		threadID = contentID
	case models.OwnerReply:
		reply, err := s.store.GetReply(ctx, contentID)
		if err != nil {
			return nil, storeErr(err, "reply")
		}
		threadID = reply.ThreadID
	default:
		return nil, invalid("content_type must be thread or reply")
	}
	thread, _, err := s.loadThread(ctx, p, threadID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	report := &models.ContentReport{
		ID:            uuid.New(),
		ContentType:   contentType,
		ContentID:     contentID,
		LocationID:    thread.LocationID,
		ReporterID:    p.ID,
		ReporterEmail: p.Email,
		Reason:        reason,
		Detail:        detail,
		Status:        models.ReportPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	slog.Info("content reported", "content_type", contentType, "content_id", contentID,
		"reason", reason, "principal_id", p.ID)
	return report, nil
}

// ResolveReport moves a pending report to resolved or dismissed.
func (s *DiscussionService) ResolveReport(ctx context.Context, admin identity.Principal, id uuid.UUID, outcome, note string) (*models.ContentReport, error) {
	if err := requireAdmin(s.policy, admin); err != nil {
		return nil, err
	}
	if outcome != models.ReportResolved && outcome != models.ReportDismissed {
		return nil, invalid("status must be resolved or dismissed")
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxReportDetailLength {
		return nil, invalid("admin_note must be at most %d characters", MaxReportDetailLength)
	}

	ok, err := s.store.ResolveReport(ctx, id, repository.ReportResolution{
		Status:     outcome,
		AdminNote:  note,
		ResolvedBy: admin.ID,
		ResolvedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, storeErr(err, "report")
	}
	if !ok {
		return nil, invalid("report is no longer pending")
	}
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, storeErr(err, "report")
	}
	return report, nil
}
