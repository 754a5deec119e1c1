package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinytitans-bjj/community-backend/internal/models"
)

// MemoryStore is an in-memory Store used for tests and local development.
// It is safe for concurrent use; every mutation holds the write lock, so the
// cascade deletes are atomic with respect to other callers.
type MemoryStore struct {
	mu        sync.RWMutex
	locations map[uuid.UUID]models.Location
	grants    map[string]models.AccessGrant
	threads   map[uuid.UUID]models.Thread
	replies   map[uuid.UUID]models.Reply
	media     map[uuid.UUID]models.MediaAttachment
	reports   map[uuid.UUID]models.ContentReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations: make(map[uuid.UUID]models.Location),
		grants:    make(map[string]models.AccessGrant),
		threads:   make(map[uuid.UUID]models.Thread),
		replies:   make(map[uuid.UUID]models.Reply),
		media:     make(map[uuid.UUID]models.MediaAttachment),
		reports:   make(map[uuid.UUID]models.ContentReport),
	}
}

func grantKey(principalID string, locationID uuid.UUID) string {
	return principalID + "/" + locationID.String()
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = *created
	}
}

func (m *MemoryStore) CreateLocation(_ context.Context, loc *models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.locations {
		if existing.Slug == loc.Slug {
			return ErrDuplicate
		}
	}
	ensureID(&loc.ID)
	stamp(&loc.CreatedAt, &loc.UpdatedAt)
	m.locations[loc.ID] = *loc
	return nil
}

func (m *MemoryStore) GetLocationBySlug(_ context.Context, slug string) (*models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.Slug == slug {
			l := loc
			return &l, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetLocationByID(_ context.Context, id uuid.UUID) (*models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &loc, nil
}

func (m *MemoryStore) ListLocations(_ context.Context) ([]models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	locs := make([]models.Location, 0, len(m.locations))
	for _, loc := range m.locations {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].Name < locs[j].Name })
	return locs, nil
}

func (m *MemoryStore) UpdateLocation(_ context.Context, id uuid.UUID, upd LocationUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.locations[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Name != nil {
		loc.Name = *upd.Name
	}
	if upd.PinHash != nil {
		loc.PinHash = *upd.PinHash
	}
	if upd.IsActive != nil {
		loc.IsActive = *upd.IsActive
	}
	loc.UpdatedAt = time.Now()
	m.locations[id] = loc
	return nil
}

func (m *MemoryStore) UpsertGrant(_ context.Context, grant *models.AccessGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := grantKey(grant.PrincipalID, grant.LocationID)
	if existing, ok := m.grants[key]; ok {
		existing.ExpiresAt = grant.ExpiresAt
		existing.UpdatedAt = time.Now()
		m.grants[key] = existing
		*grant = existing
		return nil
	}
	ensureID(&grant.ID)
	stamp(&grant.CreatedAt, &grant.UpdatedAt)
	m.grants[key] = *grant
	return nil
}

func (m *MemoryStore) GetGrant(_ context.Context, principalID string, locationID uuid.UUID) (*models.AccessGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	grant, ok := m.grants[grantKey(principalID, locationID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &grant, nil
}

func (m *MemoryStore) CreateThread(_ context.Context, thread *models.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&thread.ID)
	stamp(&thread.CreatedAt, &thread.UpdatedAt)
	t := *thread
	t.VideoLinks = append([]string(nil), thread.VideoLinks...)
	m.threads[t.ID] = t
	return nil
}

func (m *MemoryStore) GetThread(_ context.Context, id uuid.UUID) (*models.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	thread, ok := m.threads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &thread, nil
}

func (m *MemoryStore) ListThreads(_ context.Context, filter ThreadFilter) ([]models.Thread, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	threads := make([]models.Thread, 0)
	for _, t := range m.threads {
		if filter.LocationID != nil && t.LocationID != *filter.LocationID {
			continue
		}
		if !filter.IncludeHidden && t.IsHidden {
			continue
		}
		threads = append(threads, t)
	}
	sort.SliceStable(threads, func(i, j int) bool {
		if filter.PinnedFirst && threads[i].IsPinned != threads[j].IsPinned {
			return threads[i].IsPinned
		}
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})

	total := int64(len(threads))
	return page(threads, filter.Limit, filter.Offset), total, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *MemoryStore) UpdateThread(_ context.Context, id uuid.UUID, upd ThreadUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Content != nil {
		t.Content = *upd.Content
	}
	if upd.IsPinned != nil {
		t.IsPinned = *upd.IsPinned
	}
	if upd.IsLocked != nil {
		t.IsLocked = *upd.IsLocked
	}
	if upd.IsHidden != nil {
		t.IsHidden = *upd.IsHidden
	}
	if upd.HiddenReason != nil {
		t.HiddenReason = *upd.HiddenReason
	}
	t.UpdatedAt = time.Now()
	m.threads[id] = t
	return nil
}

func (m *MemoryStore) DeleteThreadCascade(_ context.Context, id uuid.UUID) ([]models.MediaAttachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.threads[id]; !ok {
		return nil, ErrNotFound
	}
	var removed []models.MediaAttachment
	for mid, media := range m.media {
		if media.ThreadID == id {
			removed = append(removed, media)
			delete(m.media, mid)
		}
	}
	for rid, reply := range m.replies {
		if reply.ThreadID == id {
			delete(m.replies, rid)
		}
	}
	delete(m.threads, id)
	return removed, nil
}

func (m *MemoryStore) CountReplies(_ context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[uuid.UUID]bool, len(threadIDs))
	for _, id := range threadIDs {
		wanted[id] = true
	}
	counts := make(map[uuid.UUID]int64, len(threadIDs))
	for _, r := range m.replies {
		if wanted[r.ThreadID] {
			counts[r.ThreadID]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) CreateReply(_ context.Context, reply *models.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&reply.ID)
	stamp(&reply.CreatedAt, &reply.UpdatedAt)
	m.replies[reply.ID] = *reply
	return nil
}

func (m *MemoryStore) GetReply(_ context.Context, id uuid.UUID) (*models.Reply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reply, ok := m.replies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &reply, nil
}

func (m *MemoryStore) ListReplies(_ context.Context, threadID uuid.UUID) ([]models.Reply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	replies := make([]models.Reply, 0)
	for _, r := range m.replies {
		if r.ThreadID == threadID {
			replies = append(replies, r)
		}
	}
	sort.SliceStable(replies, func(i, j int) bool {
		return replies[i].CreatedAt.Before(replies[j].CreatedAt)
	})
	return replies, nil
}

func (m *MemoryStore) UpdateReplyContent(_ context.Context, id uuid.UUID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reply, ok := m.replies[id]
	if !ok {
		return ErrNotFound
	}
	reply.Content = content
	reply.UpdatedAt = time.Now()
	m.replies[id] = reply
	return nil
}

func (m *MemoryStore) DeleteReplyCascade(_ context.Context, id uuid.UUID) ([]models.MediaAttachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.replies[id]; !ok {
		return nil, ErrNotFound
	}
	var removed []models.MediaAttachment
	for mid, media := range m.media {
		if media.OwnerKind == models.OwnerReply && media.OwnerID == id {
			removed = append(removed, media)
			delete(m.media, mid)
		}
	}
	delete(m.replies, id)
	return removed, nil
}

func (m *MemoryStore) CreateMedia(_ context.Context, media *models.MediaAttachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&media.ID)
	stamp(&media.CreatedAt, nil)
	m.media[media.ID] = *media
	return nil
}

func (m *MemoryStore) GetMedia(_ context.Context, id uuid.UUID) (*models.MediaAttachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	media, ok := m.media[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &media, nil
}

func (m *MemoryStore) ListThreadMedia(_ context.Context, threadID uuid.UUID) ([]models.MediaAttachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	media := make([]models.MediaAttachment, 0)
	for _, a := range m.media {
		if a.ThreadID == threadID {
			media = append(media, a)
		}
	}
	sort.SliceStable(media, func(i, j int) bool {
		return media[i].CreatedAt.Before(media[j].CreatedAt)
	})
	return media, nil
}

func (m *MemoryStore) CountMedia(_ context.Context, ownerKind string, ownerID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, a := range m.media {
		if a.OwnerKind == ownerKind && a.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) DeleteMedia(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.media[id]; !ok {
		return ErrNotFound
	}
	delete(m.media, id)
	return nil
}

func (m *MemoryStore) CreateReport(_ context.Context, report *models.ContentReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&report.ID)
	stamp(&report.CreatedAt, &report.UpdatedAt)
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	m.reports[report.ID] = *report
	return nil
}

func (m *MemoryStore) GetReport(_ context.Context, id uuid.UUID) (*models.ContentReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &report, nil
}

func (m *MemoryStore) ListReports(_ context.Context, status string, limit, offset int) ([]models.ContentReport, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reports := make([]models.ContentReport, 0)
	for _, r := range m.reports {
		if status == "" || r.Status == status {
			reports = append(reports, r)
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	total := int64(len(reports))
	return page(reports, limit, offset), total, nil
}

func (m *MemoryStore) ResolveReport(_ context.Context, id uuid.UUID, res ReportResolution) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[id]
	if !ok {
		return false, ErrNotFound
	}
	if report.Status != models.ReportPending {
		return false, nil
	}
	resolvedAt := res.ResolvedAt
	report.Status = res.Status
	report.AdminNote = res.AdminNote
	report.ResolvedBy = res.ResolvedBy
	report.ResolvedAt = &resolvedAt
	report.UpdatedAt = time.Now()
	m.reports[id] = report
	return true, nil
}

// Counts returns the number of stored threads, replies and media rows.
func (m *MemoryStore) Counts() (threads, replies, media int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.threads), len(m.replies), len(m.media)
}

var _ Store = (*MemoryStore)(nil)
