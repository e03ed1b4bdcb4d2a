// Index endpoints:
//   - GET  /index/status         (status slot and last build)
//   - POST /index/rebuild        (wholesale rebuild)
//   - GET  /index/builds         (build log, paginated)
//   - GET  /index/builds/latest  (most recent build)
//   - GET  /documents            (configured documents)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/catecismo-search/internal/services"
)

// IndexStatus godoc
// @ID          indexStatus
// @Summary     Index status
// @Description Current status message, index size, last build report and selection.
// @Tags        Index
// @Produce     json
// @Success     200  {object}  services.StatusView
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /index/status [get]
func (h *Handlers) IndexStatus(c *gin.Context) {
	v, err := h.indexer.StatusWithStats(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// RebuildIndex godoc
// @ID          rebuildIndex
// @Summary     Rebuild the index
// @Description Reloads every configured document in order and replaces the index. Cached document text and the selection are dropped. Partial builds succeed; builds with no entries return 503.
// @Tags        Index
// @Produce     json
// @Success     200  {object}  search.Report
// @Failure     503  {object}  handlers.ErrorResponse  "Index empty"
// @Router      /index/rebuild [post]
func (h *Handlers) RebuildIndex(c *gin.Context) {
	rep, err := h.indexer.Rebuild(c.Request.Context())
	if errors.Is(err, services.ErrIndexEmpty) {
		fail(c, http.StatusServiceUnavailable, ErrCodeIndexFailed, rep.Message())
		return
	}
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, rep)
}

// ListBuilds godoc
// @ID          listBuilds
// @Summary     List builds
// @Tags        Index
// @Produce     json
// @Param       page       query  int  false  "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page" minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.BuildsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /index/builds [get]
func (h *Handlers) ListBuilds(c *gin.Context) {
	page, pageSize := pagination(c)
	runs, pg, err := h.indexer.Builds(c.Request.Context(), page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, BuildsResponse{Builds: runs, Pagination: pg})
}

// LatestBuild godoc
// @ID          latestBuild
// @Summary     Latest build
// @Tags        Index
// @Produce     json
// @Success     200  {object}  domain.BuildRun
// @Failure     404  {object}  handlers.ErrorResponse  "No build recorded"
// @Router      /index/builds/latest [get]
func (h *Handlers) LatestBuild(c *gin.Context) {
	run, err := h.indexer.LatestBuild(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, run)
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     List documents
// @Description Configured documents in order, with entry counts and cache state.
// @Tags        Documents
// @Produce     json
// @Success     200  {object}  handlers.DocumentsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	docs, err := h.catalog.Documents(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, DocumentsResponse{Documents: docs})
}
