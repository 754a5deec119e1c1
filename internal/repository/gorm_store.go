package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tinytitans-bjj/community-backend/internal/models"
)

// GormStore implements Store on PostgreSQL through GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) CreateLocation(ctx context.Context, loc *models.Location) error {
	return translate(s.db.WithContext(ctx).Create(loc).Error)
}

func (s *GormStore) GetLocationBySlug(ctx context.Context, slug string) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&loc).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

func (s *GormStore) GetLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

func (s *GormStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locs []models.Location
	err := s.db.WithContext(ctx).Order("name ASC").Find(&locs).Error
	return locs, err
}

func (s *GormStore) UpdateLocation(ctx context.Context, id uuid.UUID, upd LocationUpdate) error {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.PinHash != nil {
		fields["pin_hash"] = *upd.PinHash
	}
	if upd.IsActive != nil {
		fields["is_active"] = *upd.IsActive
	}
	if len(fields) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UpsertGrant(ctx context.Context, grant *models.AccessGrant) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal_id"}, {Name: "location_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at", "updated_at"}),
	}).Create(grant).Error
}

func (s *GormStore) GetGrant(ctx context.Context, principalID string, locationID uuid.UUID) (*models.AccessGrant, error) {
	var grant models.AccessGrant
	err := s.db.WithContext(ctx).
		Where("principal_id = ? AND location_id = ?", principalID, locationID).
		First(&grant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &grant, nil
}

func (s *GormStore) CreateThread(ctx context.Context, thread *models.Thread) error {
	return s.db.WithContext(ctx).Create(thread).Error
}

func (s *GormStore) GetThread(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	if err := s.db.WithContext(ctx).First(&thread, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}

func (s *GormStore) ListThreads(ctx context.Context, filter ThreadFilter) ([]models.Thread, int64, error) {
	var threads []models.Thread
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Thread{})
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if !filter.IncludeHidden {
		query = query.Where("is_hidden = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PinnedFirst {
		query = query.Order("is_pinned DESC")
	}
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&threads).Error; err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

func (s *GormStore) UpdateThread(ctx context.Context, id uuid.UUID, upd ThreadUpdate) error {
	fields := map[string]interface{}{}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Content != nil {
		fields["content"] = *upd.Content
	}
	if upd.IsPinned != nil {
		fields["is_pinned"] = *upd.IsPinned
	}
	if upd.IsLocked != nil {
		fields["is_locked"] = *upd.IsLocked
	}
	if upd.IsHidden != nil {
		fields["is_hidden"] = *upd.IsHidden
	}
	if upd.HiddenReason != nil {
		fields["hidden_reason"] = *upd.HiddenReason
	}
	if len(fields) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteThreadCascade(ctx context.Context, id uuid.UUID) ([]models.MediaAttachment, error) {
	var media []models.MediaAttachment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&thread, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", id).Find(&media).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", id).Delete(&models.MediaAttachment{}).Error; err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		if err := tx.Where("thread_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
		return tx.Delete(&thread).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return media, nil
}

func (s *GormStore) CountReplies(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ThreadID uuid.UUID
		Count    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Reply{}).
		Select("thread_id, COUNT(*) AS count").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ThreadID] = r.Count
	}
	return counts, nil
}

func (s *GormStore) CreateReply(ctx context.Context, reply *models.Reply) error {
	return s.db.WithContext(ctx).Create(reply).Error
}

func (s *GormStore) GetReply(ctx context.Context, id uuid.UUID) (*models.Reply, error) {
	var reply models.Reply
	if err := s.db.WithContext(ctx).First(&reply, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reply, nil
}

func (s *GormStore) ListReplies(ctx context.Context, threadID uuid.UUID) ([]models.Reply, error) {
	var replies []models.Reply
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

func (s *GormStore) UpdateReplyContent(ctx context.Context, id uuid.UUID, content string) error {
	result := s.db.WithContext(ctx).Model(&models.Reply{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteReplyCascade(ctx context.Context, id uuid.UUID) ([]models.MediaAttachment, error) {
	var media []models.MediaAttachment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reply models.Reply
		if err := tx.First(&reply, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_kind = ? AND owner_id = ?", models.OwnerReply, id).Find(&media).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_kind = ? AND owner_id = ?", models.OwnerReply, id).
			Delete(&models.MediaAttachment{}).Error; err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		return tx.Delete(&reply).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return media, nil
}

func (s *GormStore) CreateMedia(ctx context.Context, media *models.MediaAttachment) error {
	return s.db.WithContext(ctx).Create(media).Error
}

func (s *GormStore) GetMedia(ctx context.Context, id uuid.UUID) (*models.MediaAttachment, error) {
	var media models.MediaAttachment
	if err := s.db.WithContext(ctx).First(&media, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &media, nil
}

func (s *GormStore) ListThreadMedia(ctx context.Context, threadID uuid.UUID) ([]models.MediaAttachment, error) {
	var media []models.MediaAttachment
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&media).Error
	return media, err
}

func (s *GormStore) CountMedia(ctx context.Context, ownerKind string, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MediaAttachment{}).
		Where("owner_kind = ? AND owner_id = ?", ownerKind, ownerID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MediaAttachment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateReport(ctx context.Context, report *models.ContentReport) error {
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *GormStore) GetReport(ctx context.Context, id uuid.UUID) (*models.ContentReport, error) {
	var report models.ContentReport
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (s *GormStore) ListReports(ctx context.Context, status string, limit, offset int) ([]models.ContentReport, int64, error) {
	var reports []models.ContentReport
	var total int64

	query := s.db.WithContext(ctx).Model(&models.ContentReport{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *GormStore) ResolveReport(ctx context.Context, id uuid.UUID, res ReportResolution) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.ContentReport{}).
		Where("id = ? AND status = ?", id, models.ReportPending).
		Updates(map[string]interface{}{
			"status":      res.Status,
			"admin_note":  res.AdminNote,
			"resolved_by": res.ResolvedBy,
			"resolved_at": res.ResolvedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	if _, err := s.GetReport(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

var _ Store = (*GormStore)(nil)
