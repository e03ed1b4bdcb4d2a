// Package repo implements the persistence layer backed by GORM. This file
// provides small aggregate queries reported by the index status endpoint.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/catecismo-search/internal/domain"
)

// BuildRunsStats returns the number of recorded builds and the greatest
// FinishedAt among them. When no build was recorded, count is 0 and
// lastFinished is nil.
func BuildRunsStats(ctx context.Context, db *gorm.DB) (count int64, lastFinished *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.BuildRun{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest finished_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		FinishedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.BuildRun{}).
		Select("finished_at").Order("finished_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.FinishedAt, nil
}

// DocumentsStats returns the number of cached documents and their total size
// in bytes.
func DocumentsStats(ctx context.Context, db *gorm.DB) (count int64, bytes int64, err error) {
	q := db.WithContext(ctx).Model(&domain.DocumentRecord{})
	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	var row struct {
		Total int64
	}
	if err = db.WithContext(ctx).Model(&domain.DocumentRecord{}).
		Select("COALESCE(SUM(size), 0) AS total").Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.Total, nil
}
