package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/forms"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/services"
	"github.com/mrlokans/shelf/internal/store"
)

// IdempotencyKeyHeader lets API clients name a submission so retries do not duplicate it.
const IdempotencyKeyHeader = "Idempotency-Key"

// NavStore keeps a viewer's navigation state. *auth.SessionManager implements it.
type NavStore interface {
	GetNav(ctx context.Context) library.NavState
	PutNav(ctx context.Context, nav library.NavState)
}

// User-facing messages for failed operations.
const (
	msgAddAuthor     = "Error adding author. Please try again."
	msgAddBook       = "Error adding book. Please try again."
	msgAddChapter    = "Error adding chapter. Please try again."
	msgUpdateAuthor  = "Error updating author. Please try again."
	msgUpdateBook    = "Error updating book. Please try again."
	msgUpdateChapter = "Error updating chapter. Please try again."
	msgRemoveAuthor  = "Error removing author. Please try again."
	msgRemoveBook    = "Error removing book. Please try again."
	msgRemoveChapter = "Error removing chapter. Please try again."
	msgBadForm       = "The form could not be read. Please try again."
)

// CatalogController serves the JSON API for authors, books and chapters.
type CatalogController struct {
	library *library.Library
	catalog *services.Catalog
	navs    NavStore
}

func NewCatalogController(lib *library.Library, catalog *services.Catalog, navs NavStore) *CatalogController {
	return &CatalogController{library: lib, catalog: catalog, navs: navs}
}

// AuthorRequest is the JSON body for creating or patching an author.
type AuthorRequest struct {
	Name   *string   `json:"name"`
	Bio    *string   `json:"bio"`
	Genres *[]string `json:"genres"`
}

type BookRequest struct {
	AuthorID    *string `json:"authorId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Year        *string `json:"year"`
	Category    *string `json:"category"`
}

type ChapterRequest struct {
	BookID        *string `json:"bookId"`
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	ChapterNumber *int    `json:"chapterNumber"`
}

// apply overlays the fields present in r onto f.
func (r AuthorRequest) apply(f *forms.AuthorForm) {
	setString(&f.Name, r.Name)
	setString(&f.Bio, r.Bio)
	if r.Genres != nil {
		f.Genres = forms.JoinGenres(*r.Genres)
		f.GenreList = *r.Genres
	}
}

func (r BookRequest) apply(f *forms.BookForm) {
	setString(&f.AuthorID, r.AuthorID)
	setString(&f.Title, r.Title)
	setString(&f.Description, r.Description)
	setString(&f.Year, r.Year)
	setString(&f.Category, r.Category)
}

func (r ChapterRequest) apply(f *forms.ChapterForm) {
	setString(&f.BookID, r.BookID)
	setString(&f.Title, r.Title)
	setString(&f.Content, r.Content)
	if r.ChapterNumber != nil {
		f.Number = strconv.Itoa(*r.ChapterNumber)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// submissionContext tags the request context with the client's idempotency key, if any.
func submissionContext(c *gin.Context, key string) context.Context {
	ctx := c.Request.Context()
	if key = strings.TrimSpace(key); key != "" {
		ctx = services.WithSubmissionKey(ctx, key)
	}
	return ctx
}

// --- Authors ---

// ListAuthors handles GET /api/authors
func (cc *CatalogController) ListAuthors(c *gin.Context) {
	c.JSON(http.StatusOK, cc.library.Authors.Items())
}

// GetAuthor handles GET /api/authors/:id
func (cc *CatalogController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	author, err := cc.catalog.Authors.GetAuthor(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondNotFound(c, "author")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get author", "internal server error")
		return
	}
	c.JSON(http.StatusOK, author)
}

// CreateAuthor handles POST /api/authors
func (cc *CatalogController) CreateAuthor(c *gin.Context) {
	var req AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	var form forms.AuthorForm
	req.apply(&form)

	ctx := submissionContext(c, c.GetHeader(IdempotencyKeyHeader))
	nav := cc.navs.GetNav(ctx)
	id, err := cc.library.AddAuthor(ctx, &nav, form)
	if err != nil {
		respondMutationError(c, err, "author", "add author", msgAddAuthor)
		return
	}
	cc.navs.PutNav(ctx, nav)
	respondCreated(c, gin.H{"id": id})
}

// UpdateAuthor handles PATCH /api/authors/:id
func (cc *CatalogController) UpdateAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	existing, err := cc.catalog.Authors.GetAuthor(ctx, id)
	if err != nil {
		respondMutationError(c, err, "author", "update author", msgUpdateAuthor)
		return
	}
	form := forms.NewAuthorUpdateForm(*existing)
	req.apply(&form.AuthorForm)

	nav := cc.navs.GetNav(ctx)
	if err := cc.library.UpdateAuthor(ctx, &nav, id, form); err != nil {
		respondMutationError(c, err, "author", "update author", msgUpdateAuthor)
		return
	}
	cc.navs.PutNav(ctx, nav)

	updated, err := cc.catalog.Authors.GetAuthor(ctx, id)
	if err != nil {
		respondMutationError(c, err, "author", "reload author", msgUpdateAuthor)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteAuthor handles DELETE /api/authors/:id, removing the author's books and chapters too.
func (cc *CatalogController) DeleteAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	nav := cc.navs.GetNav(ctx)
	result, err := cc.library.RemoveAuthor(ctx, &nav, id)
	if err != nil {
		respondInternalError(c, err, "remove author", msgRemoveAuthor)
		return
	}
	cc.navs.PutNav(ctx, nav)
	respondSuccess(c, "Author removed", result)
}

// --- Books ---

// ListBooks handles GET /api/books, optionally filtered by ?authorId=
func (cc *CatalogController) ListBooks(c *gin.Context) {
	if authorID := c.Query("authorId"); authorID != "" {
		c.JSON(http.StatusOK, cc.library.BooksForAuthor(authorID))
		return
	}
	c.JSON(http.StatusOK, cc.library.Books.Items())
}

func (cc *CatalogController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := cc.catalog.Books.GetBook(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book", "internal server error")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (cc *CatalogController) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	var form forms.BookForm
	req.apply(&form)

	ctx := submissionContext(c, c.GetHeader(IdempotencyKeyHeader))
	nav := cc.navs.GetNav(ctx)
	id, err := cc.library.AddBook(ctx, &nav, form)
	if err != nil {
		respondMutationError(c, err, "book", "add book", msgAddBook)
		return
	}
	cc.navs.PutNav(ctx, nav)
	respondCreated(c, gin.H{"id": id})
}

// UpdateBook handles PATCH /api/books/:id
func (cc *CatalogController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	existing, err := cc.catalog.Books.GetBook(ctx, id)
	if err != nil {
		respondMutationError(c, err, "book", "update book", msgUpdateBook)
		return
	}
	form := forms.NewBookUpdateForm(*existing)
	req.apply(&form.BookForm)

	nav := cc.navs.GetNav(ctx)
	if err := cc.library.UpdateBook(ctx, &nav, id, form); err != nil {
		respondMutationError(c, err, "book", "update book", msgUpdateBook)
		return
	}
	cc.navs.PutNav(ctx, nav)

	updated, err := cc.catalog.Books.GetBook(ctx, id)
	if err != nil {
		respondMutationError(c, err, "book", "reload book", msgUpdateBook)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteBook handles DELETE /api/books/:id, removing its chapters too.
func (cc *CatalogController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	nav := cc.navs.GetNav(ctx)
	result, err := cc.library.RemoveBook(ctx, &nav, id)
	if err != nil {
		respondInternalError(c, err, "remove book", msgRemoveBook)
		return
	}
	cc.navs.PutNav(ctx, nav)
	respondSuccess(c, "Book removed", result)
}

// --- Chapters ---

// ListChapters handles GET /api/chapters, optionally filtered by ?bookId=
func (cc *CatalogController) ListChapters(c *gin.Context) {
	if bookID := c.Query("bookId"); bookID != "" {
		c.JSON(http.StatusOK, cc.library.ChaptersForBook(bookID))
		return
	}
	c.JSON(http.StatusOK, cc.library.Chapters.Items())
}

func (cc *CatalogController) GetChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapter, err := cc.catalog.Chapters.GetChapter(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondNotFound(c, "chapter")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get chapter", "internal server error")
		return
	}
	c.JSON(http.StatusOK, chapter)
}

// CreateChapter handles POST /api/chapters
func (cc *CatalogController) CreateChapter(c *gin.Context) {
	var req ChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	var form forms.ChapterForm
	req.apply(&form)

	ctx := submissionContext(c, c.GetHeader(IdempotencyKeyHeader))
	nav := cc.navs.GetNav(ctx)
	id, err := cc.library.AddChapter(ctx, &nav, form)
	if err != nil {
		respondMutationError(c, err, "chapter", "add chapter", msgAddChapter)
		return
	}
	cc.navs.PutNav(ctx, nav)
	respondCreated(c, gin.H{"id": id})
}

// UpdateChapter handles PATCH /api/chapters/:id
func (cc *CatalogController) UpdateChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	existing, err := cc.catalog.Chapters.GetChapter(ctx, id)
	if err != nil {
		respondMutationError(c, err, "chapter", "update chapter", msgUpdateChapter)
		return
	}
	form := forms.NewChapterUpdateForm(*existing)
	req.apply(&form.ChapterForm)

	nav := cc.navs.GetNav(ctx)
	if err := cc.library.UpdateChapter(ctx, &nav, id, form); err != nil {
		respondMutationError(c, err, "chapter", "update chapter", msgUpdateChapter)
		return
	}
	cc.navs.PutNav(ctx, nav)

	updated, err := cc.catalog.Chapters.GetChapter(ctx, id)
	if err != nil {
		respondMutationError(c, err, "chapter", "reload chapter", msgUpdateChapter)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteChapter handles DELETE /api/chapters/:id
func (cc *CatalogController) DeleteChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.library.RemoveChapter(c.Request.Context(), id); err != nil {
		respondInternalError(c, err, "remove chapter", msgRemoveChapter)
		return
	}
	respondSuccess(c, "Chapter removed", nil)
}
