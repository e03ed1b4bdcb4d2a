// Package locator renders the document an entry belongs to, highlights the
// current query inside it and finds the paragraph the entry came from.
//
//   - Raw document text is cached per URL; only fully successful fetches
//     are cached, and concurrent requests for one URL share a single fetch
//   - Every selection takes a monotonic token; a result whose token is no
//     longer current is discarded with ErrStaleSelection
//   - Reset starts a new cache generation: fetches begun before it are
//     neither shared with later selections nor written to the cache
//   - Each render works on a fresh clone of the parsed body, so the cache and
//     earlier views are never mutated
package locator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/highlight"
)

var (
	// ErrDocumentLoad: the entry's document could not be fetched or parsed.
	ErrDocumentLoad = errors.New("document unavailable")
	// ErrStaleSelection: a newer selection started while this one was loading.
	ErrStaleSelection = errors.New("selection superseded")
	// ErrNotRelocated: the entry text has no exact match in the rendered
	// document. The view is still returned.
	ErrNotRelocated = errors.New("entry not found in rendered document")
)

// FlashClass is added to the relocated paragraph.
const FlashClass = "paragrafo-destacado-flash"

// SurfaceClass marks the container that holds the rendered copy.
const SurfaceClass = "conteudo-documento"

const excerptRunes = 100

// Cache stores raw document text per URL.
type Cache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Put(ctx context.Context, url, label string, body []byte) error
}

// Loader fetches raw document text.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// Observer receives fetch and relocation outcomes. source is "cache" or
// "network".
type Observer interface {
	ObserveFetch(source string, err error)
	ObserveRelocation(found bool)
}

// ScrollTarget tells the client which element to bring into view.
type ScrollTarget struct {
	Anchor   string `json:"anchor"`
	Block    string `json:"block"`
	Behavior string `json:"behavior"`
}

// Flash is the transient marker applied to the relocated element.
type Flash struct {
	Class      string `json:"class"`
	DurationMS int64  `json:"duration_ms"`
}

// View is one rendered selection.
type View struct {
	Entry       domain.Entry  `json:"entry"`
	Token       uint64        `json:"token"`
	Term        string        `json:"term"`
	HTML        string        `json:"html"`
	Marks       int           `json:"marks"`
	Relocated   bool          `json:"relocated"`
	ResetScroll bool          `json:"reset_scroll"`
	Scroll      *ScrollTarget `json:"scroll,omitempty"`
	Flash       *Flash        `json:"flash,omitempty"`
}

// Option configures a Locator.
type Option func(*Locator)

// WithLogger sets the logger used for fetch and relocation diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(x *Locator) { x.log = l } }

// WithHighlighter replaces the default highlighter.
func WithHighlighter(h *highlight.Highlighter) Option {
	return func(x *Locator) {
		if h != nil {
			x.hl = h
		}
	}
}

// WithFlashDuration sets the flash lifetime reported in views.
func WithFlashDuration(d time.Duration) Option {
	return func(x *Locator) {
		if d > 0 {
			x.flash = d
		}
	}
}

// WithObserver registers an outcome observer.
func WithObserver(o Observer) Option { return func(x *Locator) { x.obs = o } }

// Locator renders selections. It is safe for concurrent use.
type Locator struct {
	loader Loader
	cache  Cache
	parser dom.Parser
	hl     *highlight.Highlighter
	log    zerolog.Logger
	obs    Observer
	flash  time.Duration

	group singleflight.Group
	token atomic.Uint64

	genMu sync.Mutex // orders cache writes against Reset
	gen   uint64
}

// New returns a Locator.
func New(loader Loader, cache Cache, parser dom.Parser, opts ...Option) *Locator {
	l := &Locator{
		loader: loader,
		cache:  cache,
		parser: parser,
		hl:     highlight.New(2),
		log:    zerolog.Nop(),
		flash:  2500 * time.Millisecond,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Current returns the token of the latest selection.
func (l *Locator) Current() uint64 { return l.token.Load() }

// Invalidate makes every in-flight selection stale.
func (l *Locator) Invalidate() { l.token.Add(1) }

// Reset invalidates every in-flight selection and starts a new cache
// generation. Call it before clearing the cache on a rebuild.
func (l *Locator) Reset() {
	l.genMu.Lock()
	l.gen++
	l.genMu.Unlock()
	l.Invalidate()
}

func (l *Locator) generation() uint64 {
	l.genMu.Lock()
	defer l.genMu.Unlock()
	return l.gen
}

// store caches body unless a Reset happened since gen was read.
func (l *Locator) store(ctx context.Context, gen uint64, src domain.Source, body []byte) {
	l.genMu.Lock()
	defer l.genMu.Unlock()
	if l.gen != gen {
		l.log.Debug().Str("document", src.URL).Msg("document fetched before reset; not cached")
		return
	}
	if err := l.cache.Put(ctx, src.URL, src.Label, body); err != nil {
		l.log.Warn().Err(err).Str("document", src.URL).Msg("document cache write failed")
	}
}

// Select marks ent as the current selection and renders its document with
// term highlighted. On ErrNotRelocated the returned view is usable.
func (l *Locator) Select(ctx context.Context, ent domain.Entry, term string) (View, error) {
	tok := l.token.Add(1)
	v := View{Entry: ent, Token: tok, Term: term}

	raw, err := l.document(ctx, domain.Source{Label: ent.DocumentLabel, URL: ent.DocumentURL})
	if l.stale(tok) {
		return v, ErrStaleSelection
	}
	if err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrDocumentLoad, ent.DocumentLabel, err)
	}

	doc, err := l.parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrDocumentLoad, ent.DocumentLabel, err)
	}
	surface := doc.CreateElement("div")
	surface.AddClass(SurfaceClass)
	for _, c := range doc.Body().Children() {
		surface.AppendChild(c.Clone())
	}

	v.Marks = l.hl.Apply(doc, surface, term)
	v.ResetScroll = true

	target := Relocate(surface, ent.OriginalText)
	if l.obs != nil {
		l.obs.ObserveRelocation(target != nil)
	}
	if target == nil {
		l.log.Warn().
			Int("entry_id", ent.ID).
			Str("document", ent.DocumentURL).
			Str("text", excerpt(ent.OriginalText)).
			Msg("paragraph not found in rendered document")
		v.HTML = surface.OuterHTML()
		if l.stale(tok) {
			return v, ErrStaleSelection
		}
		return v, ErrNotRelocated
	}

	anchor := target.Attr("id")
	if anchor == "" {
		anchor = ent.Anchor()
		target.SetAttr("id", anchor)
	}
	target.SetAttr("data-entry-id", strconv.Itoa(ent.ID))
	target.AddClass(FlashClass)

	v.Relocated = true
	v.Scroll = &ScrollTarget{Anchor: anchor, Block: "center", Behavior: "smooth"}
	v.Flash = &Flash{Class: FlashClass, DurationMS: l.flash.Milliseconds()}
	v.HTML = surface.OuterHTML()
	if l.stale(tok) {
		return v, ErrStaleSelection
	}
	return v, nil
}

func (l *Locator) stale(tok uint64) bool { return l.token.Load() != tok }

// document returns the raw text of src, from the cache when present.
func (l *Locator) document(ctx context.Context, src domain.Source) ([]byte, error) {
	if b, ok := l.cached(ctx, src.URL); ok {
		l.observeFetch("cache", nil)
		return b, nil
	}
	gen := l.generation()
	v, err, _ := l.group.Do(strconv.FormatUint(gen, 10)+"|"+src.URL, func() (any, error) {
		if b, ok := l.cached(ctx, src.URL); ok {
			return b, nil
		}
		b, err := l.loader.Load(ctx, src.URL)
		l.observeFetch("network", err)
		if err != nil {
			l.log.Error().Err(err).Str("document", src.URL).Msg("document fetch failed")
			return nil, err
		}
		l.store(ctx, gen, src, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (l *Locator) cached(ctx context.Context, url string) ([]byte, bool) {
	b, ok, err := l.cache.Get(ctx, url)
	if err != nil {
		l.log.Warn().Err(err).Str("document", url).Msg("document cache read failed")
		return nil, false
	}
	return b, ok
}

func (l *Locator) observeFetch(source string, err error) {
	if l.obs != nil {
		l.obs.ObserveFetch(source, err)
	}
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptRunes {
		return s
	}
	return string([]rune(s)[:excerptRunes]) + "..."
}
