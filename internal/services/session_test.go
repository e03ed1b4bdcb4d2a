package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/locator"
	"github.com/tbourn/catecismo-search/internal/repo"
	"github.com/tbourn/catecismo-search/internal/search"
)

// ---------- fixtures ----------
type countingLoader struct {
	mu    sync.Mutex
	docs  map[string]string
	calls map[string]int
}

func (l *countingLoader) Load(_ context.Context, url string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	l.calls[url]++
	s, ok := l.docs[url]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return []byte(s), nil
}

func (l *countingLoader) count(url string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[url]
}

const (
	parte1 = `<body><h1 class="parte">PRIMEIRA PARTE</h1>
<p class="paragrafo">1619. A confirmação é chamada crisma no Oriente</p>
<p class="paragrafo">1620. A Confirmação imprime caráter indelével</p></body>`
	parte2 = `<body><p class="paragrafo">2000. A graça santificante é um dom habitual</p></body>`
)

var sources = []domain.Source{
	{Label: "Parte 1", URL: "p1.html"},
	{Label: "Parte 2", URL: "p2.html"},
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.OpenSQLite(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time      { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }

func newSession(t *testing.T, docs map[string]string) (*Session, *countingLoader, *clock) {
	t.Helper()
	db := newDB(t)
	ld := &countingLoader{docs: docs}
	store := repo.NewDocumentStore(db)
	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := &Session{
		DB:        db,
		Sources:   sources,
		Loader:    ld,
		Parser:    dom.NewHTMLParser(),
		Engine:    search.NewEngine(),
		Locator:   locator.New(ld, store, dom.NewHTMLParser()),
		Cache:     store,
		Log:       zerolog.Nop(),
		StatusTTL: 5 * time.Second,
		now:       clk.now,
	}
	return s, ld, clk
}

// ---------- tests ----------

func TestRebuild_ReadyRecordsRunAndTransientStatus(t *testing.T) {
	s, _, clk := newSession(t, map[string]string{"p1.html": parte1, "p2.html": parte2})
	rep, err := s.Rebuild(context.Background())
	if err != nil || rep.State != search.StateReady || s.Index().Len() != 3 {
		t.Fatalf("rebuild: err=%v rep=%+v", err, rep)
	}

	st := s.Status()
	if !strings.Contains(st.Status.Message, "(3 parágrafos indexados)") || st.Status.Error {
		t.Fatalf("status = %+v", st.Status)
	}
	clk.add(6 * time.Second)
	if msg := s.Status().Status.Message; msg != "" {
		t.Fatalf("success status should clear after the TTL, got %q", msg)
	}

	run, err := s.LatestBuild(context.Background())
	if err != nil || run.State != "ready" || len(run.Documents) != 2 || run.Documents[1].Entries != 1 {
		t.Fatalf("latest build: err=%v run=%+v", err, run)
	}
	runs, pg, err := s.Builds(context.Background(), 1, 10)
	if err != nil || len(runs) != 1 || pg.Total != 1 {
		t.Fatalf("builds: err=%v runs=%d pg=%+v", err, len(runs), pg)
	}
}

func TestRebuild_PartialDegradedFailed(t *testing.T) {
	s, _, clk := newSession(t, map[string]string{"p1.html": parte1})
	rep, err := s.Rebuild(context.Background())
	if err != nil || rep.State != search.StatePartial {
		t.Fatalf("partial: err=%v state=%s", err, rep.State)
	}
	clk.add(time.Hour)
	st := s.Status().Status
	if st.Message != "Erro ao carregar Parte 2. Tente recarregar a página." || !st.Error {
		t.Fatalf("error status must stay: %+v", st)
	}

	s, _, _ = newSession(t, map[string]string{"p1.html": "<body></body>", "p2.html": "<body><div>x</div></body>"})
	rep, err = s.Rebuild(context.Background())
	if !errors.Is(err, ErrIndexEmpty) || rep.State != search.StateDegraded || s.Status().Status.Message != search.MsgDegraded {
		t.Fatalf("degraded: err=%v rep=%+v", err, rep)
	}

	s, _, _ = newSession(t, nil)
	rep, err = s.Rebuild(context.Background())
	if !errors.Is(err, ErrIndexEmpty) || rep.State != search.StateFailed || s.Status().Status.Message != search.MsgFailed {
		t.Fatalf("failed: err=%v rep=%+v", err, rep)
	}
	// Queries against an empty index answer with no results.
	page, err := s.Search(context.Background(), "confirmacao", 1, 20)
	if err != nil || page.Count != 0 || page.Notice == "" {
		t.Fatalf("empty index search: err=%v page=%+v", err, page)
	}
}

func TestSearch_AutoSelectsTopHitAndFetchesOnce(t *testing.T) {
	s, ld, _ := newSession(t, map[string]string{"p1.html": parte1, "p2.html": parte2})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	buildLoads := ld.count("p1.html")

	page, err := s.Search(context.Background(), "confirmação", 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Count != 2 || page.Header != "2 resultado(s) encontrado(s)" {
		t.Fatalf("page = %+v", page)
	}
	if page.Top == nil || !page.Top.Relocated || page.Top.Entry.ID != page.Results[0].Entry.ID {
		t.Fatalf("top hit not rendered: %+v err=%q", page.Top, page.TopError)
	}
	if ld.count("p1.html") != buildLoads+1 {
		t.Fatalf("selection should fetch the document once: %d", ld.count("p1.html"))
	}

	sel := s.Selection()
	if !sel.Active || sel.Term != "confirmação" || sel.EntryID != page.Results[0].Entry.ID {
		t.Fatalf("selection = %+v", sel)
	}

	// Second entry of the same document: no new fetch; the term is reused.
	v, err := s.Select(context.Background(), page.Results[1].Entry.ID, "")
	if err != nil || !v.Relocated || v.Term != "confirmação" {
		t.Fatalf("select: err=%v view=%+v", err, v)
	}
	if ld.count("p1.html") != buildLoads+1 {
		t.Fatalf("cached document was fetched again")
	}
}

func TestSearch_TooShortAndNoResults(t *testing.T) {
	s, _, _ := newSession(t, map[string]string{"p1.html": parte1, "p2.html": parte2})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	_, err := s.Search(context.Background(), " a ", 1, 20)
	if !errors.Is(err, ErrTermTooShort) {
		t.Fatalf("err = %v", err)
	}
	if UserMessage(err) != "Por favor, digite pelo menos 2 caracteres." {
		t.Fatalf("user message = %q", UserMessage(err))
	}
	if got := s.Status().Status.Message; got != "Por favor, digite pelo menos 2 caracteres." {
		t.Fatalf("status = %q", got)
	}

	page, err := s.Search(context.Background(), "inexistente", 1, 20)
	if err != nil || page.Count != 0 || page.Top != nil {
		t.Fatalf("no results: err=%v page=%+v", err, page)
	}
	if page.Notice != `Nenhum resultado encontrado para "inexistente".` {
		t.Fatalf("notice = %q", page.Notice)
	}
	if s.Selection().Active {
		t.Fatalf("content pane must be inactive after an empty result")
	}
}

func TestSearch_Pagination(t *testing.T) {
	s, _, _ := newSession(t, map[string]string{"p1.html": parte1, "p2.html": parte2})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	page, err := s.Search(context.Background(), "a", 1, 20)
	if !errors.Is(err, ErrTermTooShort) || page != nil {
		t.Fatalf("expected rejection")
	}
	page, err = s.Search(context.Background(), "ca", 2, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Count != 3 || len(page.Results) != 1 || page.Page.Page != 2 || page.Results[0].Entry.ID != 1 {
		t.Fatalf("page = %+v", page)
	}
}

func TestSelect_Errors(t *testing.T) {
	s, ld, _ := newSession(t, map[string]string{"p1.html": parte1, "p2.html": parte2})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := s.Select(context.Background(), 999, "fe"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err = %v", err)
	}

	// The document disappears after the build: the selection fails, scoped.
	delete(ld.docs, "p2.html")
	ent := s.Index().Entries()[2]
	_, err := s.Select(context.Background(), ent.ID, "graca")
	if !errors.Is(err, ErrDocumentUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if got := s.Status().Status.Message; got != "Erro ao carregar o conteúdo de Parte 2." {
		t.Fatalf("status = %q", got)
	}
	if s.Index().Len() != 3 {
		t.Fatalf("a selection failure must not touch the index")
	}
}

func TestRebuild_ClearsCacheAndSelection(t *testing.T) {
	s, ld, _ := newSession(t, map[string]string{"p1.html": parte1, "p2.html": parte2})
	ctx := context.Background()
	if _, err := s.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := s.Select(ctx, 0, "crisma"); err != nil {
		t.Fatalf("select: %v", err)
	}
	docs, err := s.Documents(ctx)
	if err != nil || len(docs) != 2 || !docs[0].Cached || docs[0].Entries != 2 || docs[1].Cached {
		t.Fatalf("documents = %+v err=%v", docs, err)
	}
	st, err := s.StatusWithStats(ctx)
	if err != nil || st.CachedDocuments != 1 || st.Builds != 1 {
		t.Fatalf("stats = %+v err=%v", st, err)
	}

	before := ld.count("p1.html")
	if _, err := s.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if s.Selection().Active {
		t.Fatalf("rebuild must reset the selection")
	}
	docs, _ = s.Documents(ctx)
	if docs[0].Cached {
		t.Fatalf("rebuild must clear the document cache")
	}
	if _, err := s.Select(ctx, 0, "crisma"); err != nil {
		t.Fatalf("select: %v", err)
	}
	// One load for the rebuild, one for the post-rebuild selection.
	if ld.count("p1.html") != before+2 {
		t.Fatalf("loads = %d, want %d", ld.count("p1.html"), before+2)
	}
}

func TestStatusBoard(t *testing.T) {
	var b statusBoard
	now := time.Unix(100, 0)
	b.set(now, "ok", false, time.Second)
	if b.get(now).Message != "ok" {
		t.Fatalf("message lost")
	}
	if b.get(now.Add(time.Second)).Message != "" {
		t.Fatalf("transient message should expire at its deadline")
	}
	b.set(now, "erro", true, 0)
	if got := b.get(now.Add(time.Hour)); got.Message != "erro" || !got.Error {
		t.Fatalf("persistent message expired: %+v", got)
	}
}

// gatedLoader blocks the first load after arm() until the gate is opened.
// The document text is read before blocking.
type gatedLoader struct {
	mu      sync.Mutex
	docs    map[string]string
	gate    chan struct{}
	entered chan struct{}
}

func (l *gatedLoader) arm() (entered, gate chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate, l.entered = make(chan struct{}), make(chan struct{})
	return l.entered, l.gate
}

func (l *gatedLoader) set(url, doc string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[url] = doc
}

func (l *gatedLoader) Load(_ context.Context, url string) ([]byte, error) {
	l.mu.Lock()
	doc, ok := l.docs[url]
	gate, entered := l.gate, l.entered
	l.gate, l.entered = nil, nil
	l.mu.Unlock()
	if gate != nil {
		close(entered)
		<-gate
	}
	if !ok {
		return nil, errors.New("404 not found")
	}
	return []byte(doc), nil
}

func newGatedSession(t *testing.T) (*Session, *gatedLoader, *repo.DocumentStore) {
	t.Helper()
	db := newDB(t)
	ld := &gatedLoader{docs: map[string]string{"p1.html": parte1, "p2.html": parte2}}
	store := repo.NewDocumentStore(db)
	s := &Session{
		DB:      db,
		Sources: sources,
		Loader:  ld,
		Parser:  dom.NewHTMLParser(),
		Engine:  search.NewEngine(),
		Locator: locator.New(ld, store, dom.NewHTMLParser()),
		Cache:   store,
		Log:     zerolog.Nop(),
	}
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	return s, ld, store
}

func TestSearch_NewQueryResetsSelection(t *testing.T) {
	s, ld, store := newGatedSession(t)

	if _, err := s.Search(context.Background(), "confirmação", 1, 20); err != nil {
		t.Fatalf("search: %v", err)
	}
	if sel := s.Selection(); !sel.Active || sel.Term != "confirmação" {
		t.Fatalf("selection after search = %+v", sel)
	}

	if _, err := s.Search(context.Background(), "a", 1, 20); !errors.Is(err, ErrTermTooShort) {
		t.Fatalf("err = %v", err)
	}
	if sel := s.Selection(); sel != (Selection{}) {
		t.Fatalf("too-short query must reset the selection, got %+v", sel)
	}

	// A selection still loading when the next query arrives is discarded.
	for _, q := range []string{"a", "inexistente"} {
		if err := store.Clear(context.Background()); err != nil {
			t.Fatalf("clear: %v", err)
		}
		entered, gate := ld.arm()
		errc := make(chan error, 1)
		go func() {
			_, err := s.Select(context.Background(), 2, "graca")
			errc <- err
		}()
		<-entered
		_, _ = s.Search(context.Background(), q, 1, 20)
		close(gate)
		if err := <-errc; !errors.Is(err, ErrStaleSelection) {
			t.Fatalf("query %q: pending selection err = %v", q, err)
		}
		if s.Selection().Active {
			t.Fatalf("query %q left a selection active", q)
		}
	}
}

func TestRebuild_DropsDocumentFetchedBeforeIt(t *testing.T) {
	s, ld, store := newGatedSession(t)
	ctx := context.Background()

	entered, gate := ld.arm()
	errc := make(chan error, 1)
	go func() {
		_, err := s.Select(ctx, 0, "confirmacao")
		errc <- err
	}()
	<-entered

	ld.set("p1.html", `<body><h1 class="parte">PRIMEIRA PARTE</h1>
<p class="paragrafo">1619. A confirmação é chamada crisma no Oriente cristão</p></body>`)
	if _, err := s.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	close(gate)

	if err := <-errc; !errors.Is(err, ErrStaleSelection) {
		t.Fatalf("pre-rebuild selection err = %v", err)
	}
	if _, ok, err := store.Get(ctx, "p1.html"); err != nil || ok {
		t.Fatalf("pre-rebuild document must not be cached: ok=%v err=%v", ok, err)
	}

	v, err := s.Select(ctx, 0, "confirmacao")
	if err != nil || !v.Relocated {
		t.Fatalf("select after rebuild: err=%v view=%+v", err, v)
	}
	if !strings.Contains(v.HTML, "cristão") {
		t.Fatalf("view must render the rebuilt document")
	}
	body, ok, err := store.Get(ctx, "p1.html")
	if err != nil || !ok || !strings.Contains(string(body), "cristão") {
		t.Fatalf("cache after rebuild: ok=%v err=%v", ok, err)
	}
}
