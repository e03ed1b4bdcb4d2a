// Package search provides the corpus index and the query engine over it.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options for thresholds (Option pattern)
//   - Immutable, read-only Index after Build (safe for concurrent use)
//   - Accent- and case-insensitive substring matching, corpus order preserved
//   - Previews highlighted through textnorm.Mapping, the same mapping the
//     in-document highlighter uses
//
// A build is all-or-nothing: Build returns a brand-new Index and the caller
// swaps it in wholesale. Nothing is patched in place.
package search

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/extract"
)

// Loader returns the raw bytes of a corpus document.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minEntryRunes int
	dedupMinText  int
	minTermRunes  int
	previewWindow int
	now           func() time.Time
}

func defaultConfig() config {
	return config{
		minEntryRunes: 10,
		dedupMinText:  5,
		minTermRunes:  2,
		previewWindow: 180,
		now:           time.Now,
	}
}

// WithMinEntryRunes sets the minimum text length of an entry.
func WithMinEntryRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minEntryRunes = n
		}
	}
}

// WithDedupMinText sets the post-label length above which dedup keys ignore
// the numeral.
func WithDedupMinText(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.dedupMinText = n
		}
	}
}

// WithMinTermRunes sets the minimum query length.
func WithMinTermRunes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.minTermRunes = n
		}
	}
}

// WithPreviewWindow sets the preview window size in runes.
func WithPreviewWindow(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.previewWindow = n
		}
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// ----------------------------------------------------------------------------
// Index

// Index is an ordered, read-only sequence of entries.
type Index struct {
	entries []domain.Entry
	byID    map[int]int
}

// NewIndex wraps entries, which must already be in extraction order.
func NewIndex(entries []domain.Entry) *Index {
	ix := &Index{entries: entries, byID: make(map[int]int, len(entries))}
	for i, e := range entries {
		ix.byID[e.ID] = i
	}
	return ix
}

// Len returns the number of entries; a nil Index is empty.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Entries returns the entries in extraction order. The slice must not be
// modified.
func (ix *Index) Entries() []domain.Entry {
	if ix == nil {
		return nil
	}
	return ix.entries
}

// Entry looks an entry up by id.
func (ix *Index) Entry(id int) (domain.Entry, bool) {
	if ix == nil {
		return domain.Entry{}, false
	}
	i, ok := ix.byID[id]
	if !ok {
		return domain.Entry{}, false
	}
	return ix.entries[i], true
}

// CountByDocument returns the number of entries per document URL.
func (ix *Index) CountByDocument() map[string]int {
	out := map[string]int{}
	for _, e := range ix.Entries() {
		out[e.DocumentURL]++
	}
	return out
}

// ----------------------------------------------------------------------------
// Build

// Build loads every source in order, extracts its entries and returns a new
// Index plus the build report. A source that fails to load or parse is
// recorded in the report and skipped. Build stops early only when ctx is
// cancelled; the remaining sources are then reported as not loaded.
func Build(ctx context.Context, sources []domain.Source, loader Loader, parser dom.Parser, opts ...Option) (*Index, Report) {
	cfg := newConfig(opts)
	rep := Report{
		DocumentsTotal: len(sources),
		Documents:      make([]DocumentReport, 0, len(sources)),
		StartedAt:      cfg.now(),
	}
	b := extract.NewBuilder(
		extract.WithMinEntryRunes(cfg.minEntryRunes),
		extract.WithDedupMinText(cfg.dedupMinText),
	)

	for _, src := range sources {
		dr := DocumentReport{Source: src}
		if err := ctx.Err(); err != nil {
			dr.Err = err
			rep.Documents = append(rep.Documents, dr)
			continue
		}
		raw, err := loader.Load(ctx, src.URL)
		if err != nil {
			dr.Err = fmt.Errorf("load %s: %w", src.URL, err)
			rep.Documents = append(rep.Documents, dr)
			continue
		}
		doc, err := parser.Parse(bytes.NewReader(raw))
		if err != nil {
			dr.Err = fmt.Errorf("parse %s: %w", src.URL, err)
			rep.Documents = append(rep.Documents, dr)
			continue
		}
		dr.Loaded = true
		dr.Entries = b.AddDocument(doc, src)
		rep.DocumentsLoaded++
		rep.Documents = append(rep.Documents, dr)
	}

	ix := NewIndex(b.Entries())
	rep.Entries = ix.Len()
	rep.State = classify(rep)
	rep.FinishedAt = cfg.now()
	return ix, rep
}

func classify(r Report) State {
	switch {
	case r.DocumentsLoaded == 0:
		return StateFailed
	case r.Entries == 0:
		return StateDegraded
	case r.DocumentsLoaded < r.DocumentsTotal:
		return StatePartial
	default:
		return StateReady
	}
}
