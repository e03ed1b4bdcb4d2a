package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/locator"
	"github.com/tbourn/catecismo-search/internal/repo"
	"github.com/tbourn/catecismo-search/internal/search"
	"github.com/tbourn/catecismo-search/internal/services"
	"github.com/tbourn/catecismo-search/internal/utils"
)

// Catalog is the query side of the Session consumed by the handlers.
// *services.Session implements it.
type Catalog interface {
	Search(ctx context.Context, raw string, page, pageSize int) (*services.SearchPage, error)
	Entry(id int) (domain.Entry, error)
	Select(ctx context.Context, id int, term string) (locator.View, error)
	Documents(ctx context.Context) ([]services.DocumentInfo, error)
}

// Indexer is the build side of the Session.
type Indexer interface {
	Rebuild(ctx context.Context) (search.Report, error)
	StatusWithStats(ctx context.Context) (services.StatusView, error)
	Builds(ctx context.Context, page, pageSize int) ([]domain.BuildRun, utils.Page, error)
	LatestBuild(ctx context.Context) (*domain.BuildRun, error)
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	catalog Catalog
	indexer Indexer
}

// New returns Handlers bound to the given services. A *services.Session
// serves both roles.
func New(catalog Catalog, indexer Indexer) *Handlers {
	return &Handlers{catalog: catalog, indexer: indexer}
}

// EntryResponse is an entry with its display location.
type EntryResponse struct {
	Entry    domain.Entry `json:"entry"`
	Location string       `json:"location" example:"PRIMEIRA PARTE"`
}

// SelectRequest optionally overrides the highlight term of a selection.
type SelectRequest struct {
	Term string `json:"term" example:"confirmação"`
}

// DocumentsResponse lists the configured documents in order.
type DocumentsResponse struct {
	Documents []services.DocumentInfo `json:"documents"`
}

// BuildsResponse is a page of recorded builds.
type BuildsResponse struct {
	Builds     []domain.BuildRun `json:"builds"`
	Pagination utils.Page        `json:"pagination"`
}

// pagination parses page and page_size; bounds are applied by the services.
func pagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
	)
	return utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
}

func entryID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

// failService maps service errors to status codes and envelope codes.
func failService(c *gin.Context, err error) {
	msg := services.UserMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	switch {
	case errors.Is(err, services.ErrTermTooShort):
		fail(c, http.StatusBadRequest, ErrCodeTermTooShort, msg)
	case errors.Is(err, services.ErrEntryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
	case errors.Is(err, repo.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no build recorded")
	case errors.Is(err, services.ErrStaleSelection):
		fail(c, http.StatusConflict, ErrCodeStaleSelection, "superseded by a newer selection")
	case errors.Is(err, services.ErrDocumentUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeDocumentUnavailable, msg)
	case errors.Is(err, services.ErrIndexEmpty):
		fail(c, http.StatusServiceUnavailable, ErrCodeIndexFailed, msg)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
