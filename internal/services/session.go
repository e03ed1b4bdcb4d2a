// Session
//
// The Session replaces the page-global state of a reader: it owns the current
// Index, the selection (query term and selected entry) and the status slot,
// and routes selections through the Locator. Rebuild is the only writer of
// the index; it swaps in a whole new one.
//
// Observability: public methods open OpenTelemetry spans; build, query,
// fetch and relocation outcomes feed the Prometheus collectors.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/locator"
	"github.com/tbourn/catecismo-search/internal/observability"
	"github.com/tbourn/catecismo-search/internal/repo"
	"github.com/tbourn/catecismo-search/internal/search"
	"github.com/tbourn/catecismo-search/internal/utils"
)

// User-facing texts.
const (
	msgTermTooShort = "Por favor, digite pelo menos %d caracteres."
	msgNoResults    = "Nenhum resultado encontrado para \"%s\"."
	msgResultCount  = "%d resultado(s) encontrado(s)"
	msgSelectFailed = "Erro ao carregar o conteúdo de %s."
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultTTL      = 5 * time.Second
)

// Selector renders a selected entry. *locator.Locator implements it.
type Selector interface {
	Select(ctx context.Context, ent domain.Entry, term string) (locator.View, error)
	Invalidate()
	Reset()
}

// DocumentCache is the per-URL raw document cache cleared on rebuild.
type DocumentCache interface {
	Clear(ctx context.Context) error
}

// Session coordinates the corpus pipelines. Exported fields are set once at
// construction; the rest is guarded internally.
type Session struct {
	DB       *gorm.DB // optional; build runs and document metadata
	Sources  []domain.Source
	Loader   search.Loader
	Parser   dom.Parser
	Engine   *search.Engine
	Locator  Selector
	Cache    DocumentCache
	Metrics  *observability.Metrics
	Log      zerolog.Logger
	BuildOpt []search.Option
	// StatusTTL is how long a success message stays visible.
	StatusTTL time.Duration

	now func() time.Time

	buildMu sync.Mutex // serializes Rebuild

	mu        sync.RWMutex
	index     *search.Index
	report    *search.Report
	selection Selection

	status statusBoard
}

// Selection is the reader's current query and selected entry.
type Selection struct {
	Term    string `json:"term"`
	EntryID int    `json:"entry_id"`
	Active  bool   `json:"active"`
}

// SearchPage is a page of query results.
type SearchPage struct {
	search.Response
	Header string     `json:"header,omitempty"`
	Notice string     `json:"notice,omitempty"`
	Page   utils.Page `json:"pagination"`
	// Top is the rendered view of the first result, selected automatically.
	Top *locator.View `json:"top,omitempty"`
	// TopError reports why the top result could not be rendered.
	TopError string `json:"top_error,omitempty"`
}

// StatusView is the status slot plus the index summary.
type StatusView struct {
	Status          Status         `json:"status"`
	Entries         int            `json:"entries"`
	Report          *search.Report `json:"report,omitempty"`
	Selection       Selection      `json:"selection"`
	CachedDocuments int64          `json:"cached_documents"`
	CachedBytes     int64          `json:"cached_bytes"`
	Builds          int64          `json:"builds"`
}

// DocumentInfo describes one configured document.
type DocumentInfo struct {
	Label     string     `json:"label"`
	URL       string     `json:"url"`
	Entries   int        `json:"entries"`
	Loaded    bool       `json:"loaded"`
	Cached    bool       `json:"cached"`
	Size      int        `json:"size,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Session) ttl() time.Duration {
	if s.StatusTTL > 0 {
		return s.StatusTTL
	}
	return defaultTTL
}

func (s *Session) engine() *search.Engine {
	if s.Engine == nil {
		return search.NewEngine()
	}
	return s.Engine
}

func tracer() trace.Tracer { return observability.Tracer("services/Session") }

// Index returns the current index (nil before the first build).
func (s *Session) Index() *search.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Rebuild loads every configured document in order and installs a new index
// in one step. Previous selection state and cached document text are
// dropped. The report is returned for every end state; ErrIndexEmpty
// accompanies degraded and failed builds.
func (s *Session) Rebuild(ctx context.Context) (search.Report, error) {
	ctx, span := tracer().Start(ctx, "Rebuild",
		trace.WithAttributes(attribute.Int("documents.total", len(s.Sources))),
	)
	defer span.End()

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	s.status.set(s.clock(), search.MsgLoading, false, 0)
	s.Log.Info().Int("documents", len(s.Sources)).Msg("index build started")

	ix, rep := search.Build(ctx, s.Sources, s.Loader, s.Parser, s.BuildOpt...)
	for _, d := range rep.Documents {
		ev := s.Log.Info()
		if !d.Loaded {
			ev = s.Log.Error().Err(d.Err)
		}
		ev.Str("document", d.Source.URL).Str("label", d.Source.Label).Int("entries", d.Entries).Msg("document indexed")
	}

	if s.Locator != nil {
		s.Locator.Reset()
	}
	if s.Cache != nil {
		if err := s.Cache.Clear(ctx); err != nil {
			s.Log.Warn().Err(err).Msg("document cache clear failed")
		}
	}

	s.mu.Lock()
	s.index = ix
	s.report = &rep
	s.selection = Selection{}
	s.mu.Unlock()
	if s.Locator != nil {
		s.Locator.Invalidate()
	}

	msg := rep.Message()
	if rep.Transient() {
		s.status.set(s.clock(), msg, false, s.ttl())
	} else {
		s.status.set(s.clock(), msg, true, 0)
	}
	s.Metrics.ObserveBuild(string(rep.State), rep.Entries)
	s.persistRun(ctx, rep, msg)

	span.SetAttributes(
		attribute.String("build.state", string(rep.State)),
		attribute.Int("build.entries", rep.Entries),
	)
	s.Log.Info().
		Str("state", string(rep.State)).
		Int("loaded", rep.DocumentsLoaded).
		Int("total", rep.DocumentsTotal).
		Int("entries", rep.Entries).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("index build finished")

	if ix.Len() == 0 {
		return rep, ErrIndexEmpty
	}
	return rep, nil
}

func (s *Session) persistRun(ctx context.Context, rep search.Report, msg string) {
	if s.DB == nil {
		return
	}
	run := &domain.BuildRun{
		State:           string(rep.State),
		DocumentsLoaded: rep.DocumentsLoaded,
		DocumentsTotal:  rep.DocumentsTotal,
		Entries:         rep.Entries,
		Message:         msg,
		StartedAt:       rep.StartedAt.UTC(),
		FinishedAt:      rep.FinishedAt.UTC(),
	}
	for i, d := range rep.Documents {
		run.Documents = append(run.Documents, domain.BuildDocument{
			Position: i,
			URL:      d.Source.URL,
			Label:    d.Source.Label,
			Loaded:   d.Loaded,
			Entries:  d.Entries,
			Error:    d.ErrorText(),
		})
	}
	if err := repo.CreateBuildRun(ctx, s.DB, run); err != nil {
		s.Log.Warn().Err(err).Msg("build run not recorded")
	}
}

// Search runs a query, returns the requested page of results and renders
// the top hit. Rendering failures of the top hit do not fail the search.
func (s *Session) Search(ctx context.Context, raw string, page, pageSize int) (*SearchPage, error) {
	ctx, span := tracer().Start(ctx, "Search",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	s.resetSelection()

	eng := s.engine()
	resp, err := eng.Search(s.Index(), raw)
	if errors.Is(err, search.ErrTermTooShort) {
		msg := fmt.Sprintf(msgTermTooShort, eng.MinTermRunes())
		s.status.set(s.clock(), msg, true, 0)
		s.Metrics.ObserveQuery("too_short")
		return nil, &MessageError{Err: ErrTermTooShort, Message: msg}
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", resp.Count))

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pg := utils.Paginate(resp.Count, page, pageSize, maxPageSize)
	out := &SearchPage{Response: resp, Page: pg}
	out.Results = resp.Results[pg.Start:pg.End]

	if resp.Count == 0 {
		out.Notice = fmt.Sprintf(msgNoResults, resp.Term)
		s.mu.Lock()
		s.selection = Selection{Term: resp.Term}
		s.mu.Unlock()
		s.status.clear(s.clock())
		s.Metrics.ObserveQuery("no_results")
		return out, nil
	}

	out.Header = fmt.Sprintf(msgResultCount, resp.Count)
	s.Metrics.ObserveQuery("ok")
	s.status.clear(s.clock())

	v, err := s.selectEntry(ctx, resp.Results[0].Entry, resp.Term)
	switch {
	case err == nil:
		out.Top = &v
	case errors.Is(err, ErrStaleSelection):
	default:
		out.TopError = fmt.Sprintf(msgSelectFailed, resp.Results[0].Entry.DocumentLabel)
	}
	return out, nil
}

// resetSelection drops the current selection and discards any selection
// still rendering for the previous query.
func (s *Session) resetSelection() {
	s.mu.Lock()
	s.selection = Selection{}
	s.mu.Unlock()
	if s.Locator != nil {
		s.Locator.Invalidate()
	}
}

// Entry returns the entry with the given id from the current index.
func (s *Session) Entry(id int) (domain.Entry, error) {
	ent, ok := s.Index().Entry(id)
	if !ok {
		return domain.Entry{}, ErrEntryNotFound
	}
	return ent, nil
}

// Select renders the entry's document with term highlighted. An empty term
// reuses the current query. A paragraph that cannot be relocated still
// yields a view with Relocated=false.
func (s *Session) Select(ctx context.Context, id int, term string) (locator.View, error) {
	ctx, span := tracer().Start(ctx, "Select", trace.WithAttributes(attribute.Int("entry.id", id)))
	defer span.End()

	ent, err := s.Entry(id)
	if err != nil {
		return locator.View{}, err
	}
	if strings.TrimSpace(term) == "" {
		term = s.Selection().Term
	}
	return s.selectEntry(ctx, ent, term)
}

func (s *Session) selectEntry(ctx context.Context, ent domain.Entry, term string) (locator.View, error) {
	s.mu.Lock()
	s.selection = Selection{Term: term, EntryID: ent.ID, Active: true}
	s.mu.Unlock()

	if s.Locator == nil {
		return locator.View{}, fmt.Errorf("%w: no locator configured", ErrDocumentUnavailable)
	}
	v, err := s.Locator.Select(ctx, ent, term)
	switch {
	case err == nil, errors.Is(err, locator.ErrNotRelocated):
		return v, nil
	case errors.Is(err, locator.ErrStaleSelection):
		return v, err
	default:
		msg := fmt.Sprintf(msgSelectFailed, ent.DocumentLabel)
		s.status.set(s.clock(), msg, true, 0)
		s.Log.Error().Err(err).Int("entry_id", ent.ID).Str("document", ent.DocumentURL).Msg("selection failed")
		return v, &MessageError{Err: err, Message: msg}
	}
}

// Status returns the status slot and index summary.
func (s *Session) Status() StatusView {
	s.mu.RLock()
	v := StatusView{
		Entries:   s.index.Len(),
		Report:    s.report,
		Selection: s.selection,
	}
	s.mu.RUnlock()
	v.Status = s.status.get(s.clock())
	return v
}

// StatusWithStats adds cache and build-log counters from the database.
func (s *Session) StatusWithStats(ctx context.Context) (StatusView, error) {
	v := s.Status()
	if s.DB == nil {
		return v, nil
	}
	n, size, err := repo.DocumentsStats(ctx, s.DB)
	if err != nil {
		return v, err
	}
	builds, _, err := repo.BuildRunsStats(ctx, s.DB)
	if err != nil {
		return v, err
	}
	v.CachedDocuments, v.CachedBytes, v.Builds = n, size, builds
	return v, nil
}

// Documents lists the configured documents in order with their entry
// counts and cache state.
func (s *Session) Documents(ctx context.Context) ([]DocumentInfo, error) {
	ix := s.Index()
	counts := ix.CountByDocument()

	s.mu.RLock()
	rep := s.report
	s.mu.RUnlock()
	loaded := map[string]bool{}
	if rep != nil {
		for _, d := range rep.Documents {
			loaded[d.Source.URL] = d.Loaded
		}
	}

	cached := map[string]domain.DocumentRecord{}
	if s.DB != nil {
		recs, err := repo.ListDocuments(ctx, s.DB)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			cached[r.URL] = r
		}
	}

	out := make([]DocumentInfo, 0, len(s.Sources))
	for _, src := range s.Sources {
		info := DocumentInfo{
			Label:   src.Label,
			URL:     src.URL,
			Entries: counts[src.URL],
			Loaded:  loaded[src.URL],
		}
		if r, ok := cached[src.URL]; ok {
			at := r.FetchedAt
			info.Cached, info.Size, info.FetchedAt = true, r.Size, &at
		}
		out = append(out, info)
	}
	return out, nil
}

// Builds returns a page of recorded build runs, newest first.
func (s *Session) Builds(ctx context.Context, page, pageSize int) ([]domain.BuildRun, utils.Page, error) {
	if s.DB == nil {
		return []domain.BuildRun{}, utils.Paginate(0, page, pageSize, maxPageSize), nil
	}
	total, _, err := repo.BuildRunsStats(ctx, s.DB)
	if err != nil {
		return nil, utils.Page{}, err
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pg := utils.Paginate(int(total), page, pageSize, maxPageSize)
	runs, err := repo.ListBuildRunsPage(ctx, s.DB, pg.Start, pg.PageSize)
	if err != nil {
		return nil, utils.Page{}, err
	}
	return runs, pg, nil
}

// LatestBuild returns the most recent recorded build with its documents.
func (s *Session) LatestBuild(ctx context.Context) (*domain.BuildRun, error) {
	if s.DB == nil {
		return nil, repo.ErrNotFound
	}
	return repo.LatestBuildRun(ctx, s.DB)
}
