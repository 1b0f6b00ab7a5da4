package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/library"
)

func seedLibrary(t *testing.T, app *testApp) (authorID, bookID string) {
	t.Helper()
	ctx := t.Context()

	authorID, err := app.catalog.Authors.AddAuthor(ctx, entities.Author{Name: "Orwell"})
	require.NoError(t, err)
	bookID, err = app.catalog.Books.AddBook(ctx, entities.Book{AuthorID: authorID, Title: "1984", Year: "1949", Category: "Fiction"})
	require.NoError(t, err)
	_, err = app.catalog.Chapters.AddChapter(ctx, entities.Chapter{BookID: bookID, Title: "One", ChapterNumber: 1})
	require.NoError(t, err)

	eventually(t, func() bool { return len(app.library.Chapters.Items()) == 1 })
	return authorID, bookID
}

func TestLibraryController_InitialView(t *testing.T) {
	app := setupApp(t)

	w := app.get(t, "/api/library")

	require.Equal(t, http.StatusOK, w.Code)
	view := decode[library.View](t, w)
	assert.False(t, view.Loading)
	assert.Equal(t, library.TabBooks, view.Nav.ActiveTab)
	assert.Nil(t, view.SelectedAuthor)
	assert.Empty(t, view.Authors)
}

func TestLibraryController_Navigation(t *testing.T) {
	app := setupApp(t)
	authorID, bookID := seedLibrary(t, app)

	w := app.sendJSON(t, http.MethodPost, "/api/library/select-author/"+authorID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[library.View](t, w)
	require.NotNil(t, view.SelectedAuthor)
	assert.Equal(t, "Orwell", view.SelectedAuthor.Name)
	assert.Len(t, view.AuthorBooks, 1)
	assert.Equal(t, 1, view.BookCounts[authorID])

	w = app.sendJSON(t, http.MethodPost, "/api/library/select-book/"+bookID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[library.View](t, w)
	assert.Equal(t, library.TabChapters, view.Nav.ActiveTab)
	require.NotNil(t, view.SelectedBook)
	assert.Len(t, view.BookChapters, 1)

	// The session keeps the state between requests.
	view = decode[library.View](t, app.get(t, "/api/library"))
	assert.Equal(t, bookID, view.Nav.BookID)

	w = app.sendJSON(t, http.MethodPost, "/api/library/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[library.View](t, w)
	assert.Equal(t, library.TabBooks, view.Nav.ActiveTab)
	assert.Empty(t, view.Nav.BookID)
	assert.Equal(t, authorID, view.Nav.AuthorID)
}

func TestLibraryController_SelectBookFollowsItsAuthor(t *testing.T) {
	app := setupApp(t)
	authorID, bookID := seedLibrary(t, app)

	view := decode[library.View](t, app.sendJSON(t, "POST", "/api/library/select-book/"+bookID, nil))

	assert.Equal(t, authorID, view.Nav.AuthorID)
	assert.Equal(t, bookID, view.Nav.BookID)
}

func TestLibraryController_SelectUnknown(t *testing.T) {
	app := setupApp(t)

	w := app.sendJSON(t, http.MethodPost, "/api/library/select-author/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.sendJSON(t, http.MethodPost, "/api/library/select-book/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibraryController_RemovingSelectedAuthorClearsNav(t *testing.T) {
	app := setupApp(t)
	authorID, _ := seedLibrary(t, app)
	app.login(t)

	app.sendJSON(t, http.MethodPost, "/api/library/select-author/"+authorID, nil)
	w := app.sendJSON(t, http.MethodDelete, "/api/authors/"+authorID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	eventually(t, func() bool { return len(app.library.Authors.Items()) == 0 })
	view := decode[library.View](t, app.get(t, "/api/library"))
	assert.Empty(t, view.Nav.AuthorID)
	assert.Nil(t, view.SelectedAuthor)
}
