// Search and selection endpoints:
//   - GET  /search?q=           (query, with the top hit rendered)
//   - GET  /entries/{id}        (entry detail)
//   - POST /entries/{id}/select (render the entry's document)
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/catecismo-search/internal/search"
)

// Search godoc
// @ID          search
// @Summary     Search the catechism
// @Description Accent- and case-insensitive substring search over all indexed entries, in corpus order. The first result is selected and its document rendered with the term highlighted.
// @Tags        Search
// @Produce     json
//
// @Param       q          query   string  true   "Search term (at least 2 characters)"  example(confirmação)
// @Param       page       query   int     false  "Page number"      minimum(1) default(1)
// @Param       page_size  query   int     false  "Results per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  services.SearchPage
// @Failure     400  {object}  handlers.ErrorResponse  "Term too short"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /search [get]
func (h *Handlers) Search(c *gin.Context) {
	page, pageSize := pagination(c)
	res, err := h.catalog.Search(c.Request.Context(), c.Query("q"), page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetEntry godoc
// @ID          getEntry
// @Summary     Get an entry
// @Tags        Entries
// @Produce     json
// @Param       id   path      int  true  "Entry ID"  minimum(0)
// @Success     200  {object}  handlers.EntryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Entry not found"
// @Router      /entries/{id} [get]
func (h *Handlers) GetEntry(c *gin.Context) {
	id, valid := entryID(c)
	if !valid {
		return
	}
	ent, err := h.catalog.Entry(id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, EntryResponse{Entry: ent, Location: search.Location(ent)})
}

// SelectEntry godoc
// @ID          selectEntry
// @Summary     Select an entry
// @Description Renders the entry's document with the term highlighted and returns a scroll and flash directive for the relocated paragraph. Without a term the current query is used. Relocated=false means the paragraph was not found in the rendered document.
// @Tags        Entries
// @Accept      json
// @Produce     json
// @Param       id    path  int                      true   "Entry ID"  minimum(0)
// @Param       body  body  handlers.SelectRequest  false  "Highlight term override"
// @Success     200  {object}  locator.View
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Entry not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Superseded by a newer selection"
// @Failure     502  {object}  handlers.ErrorResponse  "Document unavailable"
// @Router      /entries/{id}/select [post]
func (h *Handlers) SelectEntry(c *gin.Context) {
	id, valid := entryID(c)
	if !valid {
		return
	}
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Term == "" {
		req.Term = c.Query("q")
	}

	v, err := h.catalog.Select(c.Request.Context(), id, req.Term)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}
