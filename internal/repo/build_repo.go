package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/catecismo-search/internal/domain"
)

// CreateBuildRun persists run and its documents in one transaction. An empty
// ID is replaced by a random UUID; zero timestamps default to now (UTC).
func CreateBuildRun(ctx context.Context, db *gorm.DB, run *domain.BuildRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = now
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
}

// LatestBuildRun returns the most recently started run with its documents in
// configuration order, or ErrNotFound.
func LatestBuildRun(ctx context.Context, db *gorm.DB) (*domain.BuildRun, error) {
	var run domain.BuildRun
	err := db.WithContext(ctx).
		Preload("Documents", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Order("started_at DESC").
		Take(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListBuildRunsPage returns runs newest first, without their documents.
func ListBuildRunsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.BuildRun, error) {
	var out []domain.BuildRun
	err := db.WithContext(ctx).
		Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
