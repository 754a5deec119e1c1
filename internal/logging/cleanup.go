package logging

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/tinytitans-bjj/community-backend/internal/models"
)

// LocationCount is the number of system_logs rows pruned for one location.
// Records logged outside a location carry an empty Location.
type LocationCount struct {
	Location string
	Deleted  int64
}

// PruneFunc deletes system logs older than cutoff and reports what went per location.
type PruneFunc func(ctx context.Context, cutoff time.Time) ([]LocationCount, error)

// PruneSystemLogs counts and deletes expired rows in one transaction so the
// per-location report matches what was removed.
func PruneSystemLogs(db *gorm.DB) PruneFunc {
	return func(ctx context.Context, cutoff time.Time) ([]LocationCount, error) {
		var counts []LocationCount
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.SystemLog{}).
				Select("location, COUNT(*) AS deleted").
				Where("timestamp < ?", cutoff).
				Group("location").
				Order("location").
				Scan(&counts).Error; err != nil {
				return err
			}
			if len(counts) == 0 {
				return nil
			}
			return tx.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{}).Error
		})
		if err != nil {
			return nil, err
		}
		return counts, nil
	}
}

// StartCleanup prunes system logs older than retention once at start and then
// every interval until done is closed.
func StartCleanup(prune PruneFunc, retention, interval time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			runCleanup(context.Background(), prune, retention, time.Now())
			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	}()
}

func runCleanup(ctx context.Context, prune PruneFunc, retention time.Duration, now time.Time) int64 {
	if retention <= 0 {
		return 0
	}
	counts, err := prune(ctx, now.Add(-retention))
	if err != nil {
		// WARN keeps the failure out of the table being pruned.
		slog.Warn("log cleanup failed", "error", err)
		return 0
	}
	var total int64
	for _, c := range counts {
		total += c.Deleted
		slog.Info("system logs pruned", "location", c.Location, "deleted", c.Deleted)
	}
	if total > 0 {
		slog.Info("log cleanup completed", "deleted", total, "locations", len(counts), "retention", retention.String())
	}
	return total
}
