package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/fetcher"
	"github.com/tbourn/catecismo-search/internal/locator"
	"github.com/tbourn/catecismo-search/internal/repo"
	"github.com/tbourn/catecismo-search/internal/search"
	"github.com/tbourn/catecismo-search/internal/services"
	"github.com/tbourn/catecismo-search/internal/utils"
)

const (
	parte1 = `<html><body><h1 class="parte">PRIMEIRA PARTE</h1>
<p class="paragrafo">1619. A confirmação é chamada crisma no Oriente</p>
<p class="paragrafo">1620. A Confirmação imprime caráter indelével</p></body></html>`
	parte2 = `<html><body><p class="paragrafo">2000. A graça santificante é um dom habitual</p></body></html>`
)

// ---------- test session over files in a temp dir ----------

func newSession(t *testing.T, files map[string]string) (*services.Session, string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	db, err := repo.OpenSQLite(fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := fetcher.New(dir, 0)
	store := repo.NewDocumentStore(db)
	s := &services.Session{
		DB: db,
		Sources: []domain.Source{
			{Label: "Parte 1", URL: "parte1.html"},
			{Label: "Parte 2", URL: "parte2.html"},
		},
		Loader:  f,
		Parser:  dom.NewHTMLParser(),
		Engine:  search.NewEngine(),
		Locator: locator.New(f, store, dom.NewHTMLParser()),
		Cache:   store,
		Log:     zerolog.Nop(),
	}
	return s, dir
}

func newRouter(s *services.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(s, s)
	r.GET("/search", h.Search)
	r.GET("/entries/:id", h.GetEntry)
	r.POST("/entries/:id/select", h.SelectEntry)
	r.GET("/index/status", h.IndexStatus)
	r.POST("/index/rebuild", h.RebuildIndex)
	r.GET("/index/builds", h.ListBuilds)
	r.GET("/index/builds/latest", h.LatestBuild)
	r.GET("/documents", h.ListDocuments)
	return r
}

func do(t *testing.T, r http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v; body=%s", err, w.Body.String())
	}
	return v
}

func ready(t *testing.T) (*gin.Engine, *services.Session, string) {
	t.Helper()
	s, dir := newSession(t, map[string]string{"parte1.html": parte1, "parte2.html": parte2})
	r := newRouter(s)
	if w := do(t, r, http.MethodPost, "/index/rebuild", nil); w.Code != http.StatusOK {
		t.Fatalf("rebuild = %d %s", w.Code, w.Body.String())
	}
	return r, s, dir
}

// ---------- tests ----------

func TestRebuild_ReadyAndEmpty(t *testing.T) {
	r, _, _ := ready(t)
	w := do(t, r, http.MethodPost, "/index/rebuild", nil)
	rep := decode[search.Report](t, w)
	if rep.State != search.StateReady || rep.Entries != 3 || rep.DocumentsLoaded != 2 {
		t.Fatalf("report = %+v", rep)
	}

	empty, _ := newSession(t, nil)
	w = do(t, newRouter(empty), http.MethodPost, "/index/rebuild", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("empty rebuild = %d", w.Code)
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != ErrCodeIndexFailed || er.Message != search.MsgFailed {
		t.Fatalf("unexpected body: %+v", er)
	}
}

func TestSearch_ResultsAndTopView(t *testing.T) {
	r, _, _ := ready(t)
	w := do(t, r, http.MethodGet, "/search?q=CONFIRMACAO", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	page := decode[services.SearchPage](t, w)
	if page.Count != 2 || len(page.Results) != 2 || page.Header != "2 resultado(s) encontrado(s)" {
		t.Fatalf("page = %+v", page)
	}
	if page.Results[0].Location != "PRIMEIRA PARTE" {
		t.Fatalf("location = %q", page.Results[0].Location)
	}
	if page.Top == nil || !page.Top.Relocated || page.Top.Entry.ID != page.Results[0].Entry.ID {
		t.Fatalf("top view = %+v", page.Top)
	}
	if !strings.Contains(page.Top.HTML, "<mark>confirmação</mark>") {
		t.Fatalf("top view not highlighted: %s", page.Top.HTML)
	}
}

func TestSearch_TooShortAndNoResults(t *testing.T) {
	r, _, _ := ready(t)
	w := do(t, r, http.MethodGet, "/search?q=a", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != ErrCodeTermTooShort || er.Message != "Por favor, digite pelo menos 2 caracteres." {
		t.Fatalf("unexpected body: %+v", er)
	}

	w = do(t, r, http.MethodGet, "/search?q=inexistente", nil)
	page := decode[services.SearchPage](t, w)
	if w.Code != http.StatusOK || page.Count != 0 || page.Notice == "" || page.Top != nil {
		t.Fatalf("no-results page = %d %+v", w.Code, page)
	}
}

func TestGetEntry(t *testing.T) {
	r, _, _ := ready(t)
	w := do(t, r, http.MethodGet, "/entries/2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[EntryResponse](t, w)
	if got.Entry.Number != "2000" || got.Location != "PARTE 2" {
		t.Fatalf("entry = %+v", got)
	}

	for target, want := range map[string]int{
		"/entries/99": http.StatusNotFound,
		"/entries/x":  http.StatusBadRequest,
		"/entries/-1": http.StatusBadRequest,
	} {
		if w := do(t, r, http.MethodGet, target, nil); w.Code != want {
			t.Fatalf("%s = %d, want %d", target, w.Code, want)
		}
	}
}

func TestSelectEntry_TermSources(t *testing.T) {
	r, s, _ := ready(t)
	if w := do(t, r, http.MethodGet, "/search?q=crisma", nil); w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}

	// No body: the current query is reused.
	w := do(t, r, http.MethodPost, "/entries/1/select", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("select = %d %s", w.Code, w.Body.String())
	}
	v := decode[locator.View](t, w)
	if v.Term != "crisma" || v.Entry.ID != 1 || !v.Relocated || v.Scroll.Anchor == "" {
		t.Fatalf("view = %+v", v)
	}
	if sel := s.Selection(); sel.EntryID != 1 || !sel.Active {
		t.Fatalf("selection = %+v", sel)
	}

	// Body override.
	w = do(t, r, http.MethodPost, "/entries/2/select", []byte(`{"term":"graça"}`))
	v = decode[locator.View](t, w)
	if w.Code != http.StatusOK || v.Term != "graça" || v.Marks != 1 {
		t.Fatalf("override = %d %+v", w.Code, v)
	}

	if w := do(t, r, http.MethodPost, "/entries/2/select", []byte(`{`)); w.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON = %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/entries/42/select", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown entry = %d", w.Code)
	}
}

func TestSelectEntry_DocumentUnavailable(t *testing.T) {
	r, _, dir := ready(t)
	if err := os.Remove(filepath.Join(dir, "parte2.html")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	w := do(t, r, http.MethodPost, "/entries/2/select?q=graca", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != ErrCodeDocumentUnavailable || er.Message != "Erro ao carregar o conteúdo de Parte 2." {
		t.Fatalf("unexpected body: %+v", er)
	}
}

func TestIndexStatusDocumentsAndBuilds(t *testing.T) {
	r, _, _ := ready(t)
	_ = do(t, r, http.MethodPost, "/entries/0/select?q=crisma", nil)

	st := decode[services.StatusView](t, do(t, r, http.MethodGet, "/index/status", nil))
	if st.Entries != 3 || st.Report == nil || st.Builds != 1 || st.CachedDocuments != 1 {
		t.Fatalf("status = %+v", st)
	}

	docs := decode[DocumentsResponse](t, do(t, r, http.MethodGet, "/documents", nil))
	if len(docs.Documents) != 2 || docs.Documents[0].Entries != 2 || !docs.Documents[0].Cached || docs.Documents[1].Cached {
		t.Fatalf("documents = %+v", docs)
	}

	_ = do(t, r, http.MethodPost, "/index/rebuild", nil)
	builds := decode[BuildsResponse](t, do(t, r, http.MethodGet, "/index/builds?page=1&page_size=1", nil))
	if len(builds.Builds) != 1 || builds.Pagination != (utils.Page{Page: 1, PageSize: 1, Total: 2}) {
		t.Fatalf("builds = %+v", builds)
	}

	latest := decode[domain.BuildRun](t, do(t, r, http.MethodGet, "/index/builds/latest", nil))
	if latest.State != "ready" || len(latest.Documents) != 2 {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestLatestBuild_NoneRecorded(t *testing.T) {
	s, _ := newSession(t, nil)
	w := do(t, newRouter(s), http.MethodGet, "/index/builds/latest", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

// ---------- error mapping with a failing service ----------

type brokenCatalog struct{ err error }

func (b brokenCatalog) Search(context.Context, string, int, int) (*services.SearchPage, error) {
	return nil, b.err
}
func (b brokenCatalog) Entry(int) (domain.Entry, error) { return domain.Entry{}, b.err }
func (b brokenCatalog) Select(context.Context, int, string) (locator.View, error) {
	return locator.View{}, b.err
}
func (b brokenCatalog) Documents(context.Context) ([]services.DocumentInfo, error) {
	return nil, b.err
}

func TestFailService_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrStaleSelection, http.StatusConflict, ErrCodeStaleSelection},
		{fmt.Errorf("wrapped: %w", services.ErrEntryNotFound), http.StatusNotFound, ErrCodeNotFound},
		{fmt.Errorf("db down"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		r := gin.New()
		h := New(brokenCatalog{err: tc.err}, nil)
		r.GET("/documents", h.ListDocuments)
		w := do(t, r, http.MethodGet, "/documents", nil)
		er := decode[ErrorResponse](t, w)
		if w.Code != tc.status || er.Code != tc.code {
			t.Fatalf("%v: got %d %s", tc.err, w.Code, er.Code)
		}
	}
}
