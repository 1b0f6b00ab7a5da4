package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/library"
)

// LibraryController exposes the per-viewer library view and its navigation.
type LibraryController struct {
	library *library.Library
	navs    NavStore
}

func NewLibraryController(lib *library.Library, navs NavStore) *LibraryController {
	return &LibraryController{library: lib, navs: navs}
}

// render builds the view for the session's nav and persists whatever the view changed.
func (lc *LibraryController) render(c *gin.Context, nav library.NavState) {
	ctx := c.Request.Context()
	view := lc.library.View(&nav)
	lc.navs.PutNav(ctx, nav)
	c.JSON(http.StatusOK, view)
}

// GetView handles GET /api/library
func (lc *LibraryController) GetView(c *gin.Context) {
	lc.render(c, lc.navs.GetNav(c.Request.Context()))
}

// SelectAuthor handles POST /api/library/select-author/:id
func (lc *LibraryController) SelectAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if lc.library.FindAuthor(id) == nil {
		respondNotFound(c, "author")
		return
	}
	nav := lc.navs.GetNav(c.Request.Context())
	nav.HandleAuthorSelect(id)
	lc.render(c, nav)
}

// SelectBook handles POST /api/library/select-book/:id
func (lc *LibraryController) SelectBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book := lc.library.FindBook(id)
	if book == nil {
		respondNotFound(c, "book")
		return
	}
	nav := lc.navs.GetNav(c.Request.Context())
	if nav.AuthorID != book.AuthorID {
		nav.HandleAuthorSelect(book.AuthorID)
	}
	nav.HandleBookSelect(id)
	lc.render(c, nav)
}

// Back handles POST /api/library/back
func (lc *LibraryController) Back(c *gin.Context) {
	nav := lc.navs.GetNav(c.Request.Context())
	nav.HandleBackToBooks()
	lc.render(c, nav)
}
