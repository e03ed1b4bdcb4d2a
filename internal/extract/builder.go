// Package extract turns parsed catechism documents into ordered, de-duplicated
// entries with part/chapter location metadata.
//
// The library does not log and keeps no global state: a Builder holds the id
// counter, the dedup set and the running labels for one build, and a fresh
// Builder starts from nothing.
package extract

import (
	"unicode/utf8"

	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/textnorm"
)

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minEntryRunes int
	dedupMinText  int
}

func defaultConfig() config {
	return config{
		minEntryRunes: 10,
		dedupMinText:  5,
	}
}

// WithMinEntryRunes sets the minimum rune length of an entry's text.
// Standalone numerals are exempt.
func WithMinEntryRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minEntryRunes = n
		}
	}
}

// WithDedupMinText sets the post-label length above which the dedup key
// ignores the numeral.
func WithDedupMinText(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.dedupMinText = n
		}
	}
}

// ----------------------------------------------------------------------------
// Builder

// Builder accumulates entries across the documents of one build. It is not
// safe for concurrent use.
type Builder struct {
	cfg     config
	nextID  int
	seen    map[string]struct{}
	entries []domain.Entry
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Builder{cfg: cfg, seen: make(map[string]struct{})}
}

// Entries returns the entries extracted so far, in extraction order.
func (b *Builder) Entries() []domain.Entry {
	out := make([]domain.Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries extracted so far.
func (b *Builder) Len() int { return len(b.entries) }

// AddDocument walks doc's body in document order and appends its entries.
// Part and chapter labels start empty for every document. It returns the
// number of entries added.
func (b *Builder) AddDocument(doc dom.Document, src domain.Source) int {
	body := doc.Body()
	if body == nil {
		return 0
	}
	before := len(b.entries)
	part, chapter := "", ""

	for _, n := range body.QueryAll(Candidates) {
		if n.Closest(FootnoteRegion) != nil {
			continue
		}

		if isPartMarker(n) {
			part = partLabel(trimmedText(n), src.Label)
			chapter = ""
			continue
		}

		title := chapterTitleNode(n)
		if title != nil {
			chapter = chapterLabel(title.Text())
		}

		if !isContent(n, title) {
			continue
		}
		b.addUnit(n, src, part, chapter)
	}
	return len(b.entries) - before
}

func (b *Builder) addUnit(n dom.Node, src domain.Source, part, chapter string) {
	clone := n.Clone()
	for _, fn := range clone.QueryAll(FootnoteParts) {
		fn.Detach()
	}
	text := textnorm.CollapseSpace(clone.Text())
	if text == "" {
		return
	}

	p, _ := SplitPrefix(text)
	standalone := p.Standalone()
	if !standalone && utf8.RuneCountInString(text) < b.cfg.minEntryRunes {
		return
	}

	search := textnorm.Normalize(p.Rest)
	if standalone {
		search = p.Number
	}
	if search == "" {
		return
	}

	key := DedupKey(p, b.cfg.dedupMinText)
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}

	b.entries = append(b.entries, domain.Entry{
		ID:            b.nextID,
		OriginalText:  text,
		SearchText:    search,
		SourceMarkup:  clone.OuterHTML(),
		DocumentURL:   src.URL,
		DocumentLabel: src.Label,
		PartLabel:     part,
		ChapterLabel:  chapter,
		Number:        p.Number,
		VisualPrefix:  p.Visual,
	})
	b.nextID++
}
