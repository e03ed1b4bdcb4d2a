// Package repo implements the persistence layer backed by GORM. This file
// provides the per-URL document-text cache.
//
// Error semantics:
//   - A missing document is not an error for DocumentStore.Get (ok=false).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/catecismo-search/internal/domain"
)

// GetDocument fetches a cached document by URL, or ErrNotFound.
func GetDocument(ctx context.Context, db *gorm.DB, url string) (*domain.DocumentRecord, error) {
	var d domain.DocumentRecord
	if err := db.WithContext(ctx).Where("url = ?", url).Take(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// PutDocument inserts or replaces the cached text of url.
func PutDocument(ctx context.Context, db *gorm.DB, url, label string, body []byte) (*domain.DocumentRecord, error) {
	d := &domain.DocumentRecord{
		URL:       url,
		Label:     label,
		Body:      string(body),
		Size:      len(body),
		FetchedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "body", "size", "fetched_at"}),
	}).Create(d).Error
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDocuments returns cached document metadata (without bodies), ordered
// by URL.
func ListDocuments(ctx context.Context, db *gorm.DB) ([]domain.DocumentRecord, error) {
	var out []domain.DocumentRecord
	err := db.WithContext(ctx).
		Select("url", "label", "size", "fetched_at").
		Order("url ASC").
		Find(&out).Error
	return out, err
}

// ClearDocuments drops every cached document.
func ClearDocuments(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.DocumentRecord{}).Error
}

// DocumentStore adapts the document functions to the locator's cache
// interface.
type DocumentStore struct {
	DB *gorm.DB
}

// NewDocumentStore returns a DocumentStore over db.
func NewDocumentStore(db *gorm.DB) *DocumentStore { return &DocumentStore{DB: db} }

// Get returns the cached body of url; ok is false when nothing is cached.
func (s *DocumentStore) Get(ctx context.Context, url string) (body []byte, ok bool, err error) {
	d, err := GetDocument(ctx, s.DB, url)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(d.Body), true, nil
}

// Put caches body under url.
func (s *DocumentStore) Put(ctx context.Context, url, label string, body []byte) error {
	_, err := PutDocument(ctx, s.DB, url, label, body)
	return err
}

// Clear empties the cache.
func (s *DocumentStore) Clear(ctx context.Context) error {
	return ClearDocuments(ctx, s.DB)
}
