package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

type createdResponse struct {
	ID string `json:"id"`
}

func createAuthor(t *testing.T, app *testApp, name string, genres ...string) string {
	t.Helper()
	w := app.sendJSON(t, http.MethodPost, "/api/authors", map[string]any{"name": name, "genres": genres})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[createdResponse](t, w).ID
}

func createBook(t *testing.T, app *testApp, authorID, title string) string {
	t.Helper()
	w := app.sendJSON(t, http.MethodPost, "/api/books", map[string]any{"authorId": authorID, "title": title, "year": "1949"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[createdResponse](t, w).ID
}

func createChapter(t *testing.T, app *testApp, bookID, title string, number int) string {
	t.Helper()
	w := app.sendJSON(t, http.MethodPost, "/api/chapters", map[string]any{"bookId": bookID, "title": title, "chapterNumber": number})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[createdResponse](t, w).ID
}

func TestCatalogController_MutationsRequireAdmin(t *testing.T) {
	app := setupApp(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/authors"},
		{http.MethodPatch, "/api/authors/a1"},
		{http.MethodDelete, "/api/authors/a1"},
		{http.MethodPost, "/api/books"},
		{http.MethodDelete, "/api/books/b1"},
		{http.MethodPost, "/api/chapters"},
		{http.MethodDelete, "/api/chapters/c1"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := app.sendJSON(t, tc.method, tc.path, map[string]string{"name": "Orwell"})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	authors, err := app.db.Authors().List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, authors)
}

func TestCatalogController_CreateAndReadAuthor(t *testing.T) {
	app := setupApp(t)
	app.login(t)

	id := createAuthor(t, app, "  George Orwell ", "Dystopia", " Essays", "")

	w := app.get(t, "/api/authors/"+id)
	require.Equal(t, http.StatusOK, w.Code)
	author := decode[entities.Author](t, w)
	assert.Equal(t, "George Orwell", author.Name)
	assert.Equal(t, []string{"Dystopia", "Essays"}, author.Genres)

	eventually(t, func() bool { return len(app.library.Authors.Items()) == 1 })
	w = app.get(t, "/api/authors")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Author](t, w), 1)
}

func TestCatalogController_GetMissing(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/authors/nope", "/api/books/nope", "/api/chapters/nope"} {
		w := app.get(t, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestCatalogController_ValidationErrors(t *testing.T) {
	app := setupApp(t)
	app.login(t)

	t.Run("author without name", func(t *testing.T) {
		w := app.sendJSON(t, http.MethodPost, "/api/authors", map[string]any{"name": "  "})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "validation failed", resp.Error)
		assert.Equal(t, map[string]any{"name": "Author name is required."}, resp.Details)
	})

	t.Run("book with short year and no author", func(t *testing.T) {
		w := app.sendJSON(t, http.MethodPost, "/api/books", map[string]any{"title": "1984", "year": "84"})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		details := decode[ErrorResponse](t, w).Details.(map[string]any)
		assert.Equal(t, "Select an author.", details["author"])
		assert.Equal(t, "Year must be 4 digits (e.g. 1951).", details["year"])
	})

	t.Run("chapter number below one", func(t *testing.T) {
		w := app.sendJSON(t, http.MethodPost, "/api/chapters", map[string]any{"bookId": "b", "title": "One", "chapterNumber": 0})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		details := decode[ErrorResponse](t, w).Details.(map[string]any)
		assert.Equal(t, "Chapter number must be at least 1.", details["number"])
	})

	t.Run("malformed body", func(t *testing.T) {
		w := app.sendJSON(t, http.MethodPost, "/api/authors", "not an object")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	authors, err := app.db.Authors().List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, authors)
}

func TestCatalogController_IdempotencyKey(t *testing.T) {
	app := setupApp(t)
	app.login(t)

	body := map[string]any{"name": "Orwell"}
	first := app.sendJSON(t, http.MethodPost, "/api/authors", body, IdempotencyKeyHeader, "submit-1")
	second := app.sendJSON(t, http.MethodPost, "/api/authors", body, IdempotencyKeyHeader, "submit-1")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decode[createdResponse](t, first).ID, decode[createdResponse](t, second).ID)

	authors, err := app.db.Authors().List(t.Context())
	require.NoError(t, err)
	assert.Len(t, authors, 1)
}

func TestCatalogController_PatchAuthor(t *testing.T) {
	app := setupApp(t)
	app.login(t)
	id := createAuthor(t, app, "Orwell", "Dystopia")

	w := app.sendJSON(t, http.MethodPatch, "/api/authors/"+id, map[string]any{"bio": "English novelist"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	author := decode[entities.Author](t, w)
	assert.Equal(t, "Orwell", author.Name)
	assert.Equal(t, "English novelist", author.Bio)
	assert.Equal(t, []string{"Dystopia"}, author.Genres)

	t.Run("clearing the name is rejected", func(t *testing.T) {
		w := app.sendJSON(t, http.MethodPatch, "/api/authors/"+id, map[string]any{"name": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestCatalogController_PatchMissingReturns404(t *testing.T) {
	app := setupApp(t)
	app.login(t)

	w := app.sendJSON(t, http.MethodPatch, "/api/books/missing", map[string]any{"title": "Ghost"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	books, err := app.db.Books().List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCatalogController_ChaptersOrderedAndFiltered(t *testing.T) {
	app := setupApp(t)
	app.login(t)
	authorID := createAuthor(t, app, "Orwell")
	bookID := createBook(t, app, authorID, "1984")
	otherID := createBook(t, app, authorID, "Animal Farm")

	createChapter(t, app, bookID, "Three", 3)
	createChapter(t, app, bookID, "One", 1)
	createChapter(t, app, otherID, "Elsewhere", 1)
	createChapter(t, app, bookID, "Two", 2)

	eventually(t, func() bool { return len(app.library.Chapters.Items()) == 4 })

	w := app.get(t, "/api/chapters?bookId="+bookID)
	require.Equal(t, http.StatusOK, w.Code)
	chapters := decode[[]entities.Chapter](t, w)
	require.Len(t, chapters, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{chapters[0].ChapterNumber, chapters[1].ChapterNumber, chapters[2].ChapterNumber})

	w = app.get(t, "/api/books?authorId="+authorID)
	assert.Len(t, decode[[]entities.Book](t, w), 2)
}

func TestCatalogController_DeleteAuthorCascades(t *testing.T) {
	app := setupApp(t)
	app.login(t)
	authorID := createAuthor(t, app, "Orwell")
	bookID := createBook(t, app, authorID, "1984")
	createChapter(t, app, bookID, "One", 1)
	createChapter(t, app, bookID, "Two", 2)

	w := app.sendJSON(t, http.MethodDelete, "/api/authors/"+authorID, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Data store.CascadeResult `json:"data"`
	}](t, w)
	assert.Equal(t, store.CascadeResult{Authors: 1, Books: 1, Chapters: 2}, resp.Data)

	ctx := t.Context()
	books, err := app.db.Books().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
	chapters, err := app.db.Chapters().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, chapters)
}

func TestCatalogController_DeleteChapter(t *testing.T) {
	app := setupApp(t)
	app.login(t)
	authorID := createAuthor(t, app, "Orwell")
	bookID := createBook(t, app, authorID, "1984")
	chapterID := createChapter(t, app, bookID, "One", 1)

	w := app.sendJSON(t, http.MethodDelete, "/api/chapters/"+chapterID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.get(t, "/api/chapters/"+chapterID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting again is not an error.
	w = app.sendJSON(t, http.MethodDelete, "/api/chapters/"+chapterID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogController_UnknownParentRejected(t *testing.T) {
	app := setupApp(t)
	app.login(t)
	authorID := createAuthor(t, app, "Orwell")
	bookID := createBook(t, app, authorID, "Animal Farm")
	chapterID := createChapter(t, app, bookID, "Old Major", 1)

	cases := []struct {
		name    string
		method  string
		path    string
		body    map[string]any
		field   string
		message string
	}{
		{"create book", http.MethodPost, "/api/books", map[string]any{"authorId": "no-such-author", "title": "Ghost", "year": "1950"}, "author", "Select an author."},
		{"move book", http.MethodPatch, "/api/books/" + bookID, map[string]any{"authorId": "no-such-author"}, "author", "Select an author."},
		{"create chapter", http.MethodPost, "/api/chapters", map[string]any{"bookId": "no-such-book", "title": "Ghost", "chapterNumber": 2}, "book", "Select a book."},
		{"move chapter", http.MethodPatch, "/api/chapters/" + chapterID, map[string]any{"bookId": "no-such-book"}, "book", "Select a book."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.sendJSON(t, tc.method, tc.path, tc.body)

			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			details := decode[ErrorResponse](t, w).Details.(map[string]any)
			assert.Equal(t, tc.message, details[tc.field])
		})
	}

	books, err := app.db.Books().List(t.Context())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, authorID, books[0].AuthorID)

	chapters, err := app.db.Chapters().List(t.Context())
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, bookID, chapters[0].BookID)
}

func TestCatalogController_GenresKeepCommas(t *testing.T) {
	app := setupApp(t)
	app.login(t)

	id := createAuthor(t, app, "Le Guin", "Science fiction, hard", "Poetry")

	w := app.get(t, "/api/authors/"+id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Science fiction, hard", "Poetry"}, decode[entities.Author](t, w).Genres)

	// A patch that leaves genres out must not re-split the stored ones.
	w = app.sendJSON(t, http.MethodPatch, "/api/authors/"+id, map[string]any{"bio": "Earthsea"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Science fiction, hard", "Poetry"}, decode[entities.Author](t, w).Genres)

	w = app.sendJSON(t, http.MethodPatch, "/api/authors/"+id, map[string]any{"genres": []string{" Essays, collected ", ""}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Essays, collected"}, decode[entities.Author](t, w).Genres)
}
