package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/shelf/internal/auth"
	"github.com/mrlokans/shelf/internal/forms"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/readonly"
)

//go:embed templates/*.html
var templateFS embed.FS

// SubmissionKeyField is the hidden form field carrying a per-render idempotency key.
const SubmissionKeyField = "submission_key"

// AppTitle is shown in the page header and the browser tab.
const AppTitle = "BookLibrary"

var templateFuncs = template.FuncMap{
	// firstGenres returns at most n genres for compact badges.
	"firstGenres": func(genres []string, n int) []string {
		if len(genres) > n {
			return genres[:n]
		}
		return genres
	},
	"moreGenres": func(genres []string, n int) int {
		if len(genres) > n {
			return len(genres) - n
		}
		return 0
	},
	"fieldError": func(errs forms.FieldErrors, field string) string {
		return errs[field]
	},
}

// LoadTemplates parses the embedded page templates.
func LoadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
}

// UIController renders the server-side library UI and handles its forms.
type UIController struct {
	library *library.Library
	navs    NavStore
	gate    *auth.Gate
}

func NewUIController(lib *library.Library, navs NavStore, gate *auth.Gate) *UIController {
	return &UIController{library: lib, navs: navs, gate: gate}
}

// pageData is what the "page" template renders.
type pageData struct {
	Title         string
	View          library.View
	Session       auth.Session
	CSRFField     template.HTML
	SubmissionKey string
	Alert         string
	ReadOnly      bool

	// Form holds the values of the open modal; Errors its inline messages.
	Form   any
	Errors forms.FieldErrors
}

// render draws the page for nav. form and errs override the modal's default values.
func (uc *UIController) render(c *gin.Context, status int, nav library.NavState, form any, errs forms.FieldErrors, alert string) {
	ctx := c.Request.Context()
	view := uc.library.View(&nav)
	if form == nil {
		form = uc.defaultForm(&nav)
		view.Nav = nav
	}
	uc.navs.PutNav(ctx, nav)

	c.HTML(status, "page", pageData{
		Title:         AppTitle,
		View:          view,
		Session:       auth.GetSession(c),
		CSRFField:     auth.CSRFTokenField(c),
		SubmissionKey: uuid.NewString(),
		Alert:         alert,
		ReadOnly:      readonly.IsReadOnly(c),
		Form:          form,
		Errors:        errs,
	})
}

// defaultForm builds the initial values of the open modal. Edit modals whose
// record is gone are closed.
func (uc *UIController) defaultForm(nav *library.NavState) any {
	switch nav.Modal {
	case library.ModalLogin:
		return LoginRequest{}
	case library.ModalAddAuthor:
		return forms.AuthorForm{}
	case library.ModalAddBook:
		return forms.BookForm{AuthorID: nav.AuthorID}
	case library.ModalAddChapter:
		bookID := nav.ChapterBookID
		if bookID == "" {
			bookID = nav.BookID
		}
		next := len(uc.library.ChaptersForBook(bookID)) + 1
		return forms.ChapterForm{BookID: bookID, Number: strconv.Itoa(next)}
	case library.ModalEditAuthor:
		if a := uc.library.FindAuthor(nav.EditID); a != nil {
			return forms.NewAuthorUpdateForm(*a)
		}
	case library.ModalEditBook:
		if b := uc.library.FindBook(nav.EditID); b != nil {
			return forms.NewBookUpdateForm(*b)
		}
	case library.ModalEditChapter:
		if ch := uc.library.FindChapter(nav.EditID); ch != nil {
			return forms.NewChapterUpdateForm(*ch)
		}
	default:
		return nil
	}
	nav.CloseModal()
	return nil
}

// submissionCtx tags the request with the key rendered into the form.
func submissionCtx(c *gin.Context) context.Context {
	return submissionContext(c, c.PostForm(SubmissionKeyField))
}

// redirectHome sends the browser back to the page, optionally with an alert.
func redirectHome(c *gin.Context, alert string) {
	target := "/"
	if alert != "" {
		target += "?alert=" + url.QueryEscape(alert)
	}
	c.Redirect(http.StatusSeeOther, target)
}

// bindForm reads the submitted form into obj. A body that cannot be parsed
// is logged and sent back to the page with an alert.
func bindForm(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		log.Printf("Bad form submission (%s %s): %v", c.Request.Method, c.Request.URL.Path, err)
		redirectHome(c, msgBadForm)
		return false
	}
	return true
}

// failForm re-renders the page after a failed submit: validation errors keep
// the modal open with inline messages, anything else shows the alert banner.
func (uc *UIController) failForm(c *gin.Context, nav library.NavState, form any, err error, context, message string) {
	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		uc.render(c, http.StatusUnprocessableEntity, nav, form, fieldErrs, "")
		return
	}
	log.Printf("Internal error (%s): %v", context, err)
	uc.render(c, http.StatusInternalServerError, nav, form, nil, message)
}

// Page handles GET /
func (uc *UIController) Page(c *gin.Context) {
	nav := uc.navs.GetNav(c.Request.Context())
	if c.Query("modal") == library.ModalLogin && !auth.IsAdmin(c) {
		nav.OpenModal(library.ModalLogin, "")
	}
	uc.render(c, http.StatusOK, nav, nil, nil, c.Query("alert"))
}

// --- Navigation ---

// SelectAuthor handles GET /ui/nav/author/:id
func (uc *UIController) SelectAuthor(c *gin.Context) {
	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.HandleAuthorSelect(c.Param("id"))
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// SelectBook handles GET /ui/nav/book/:id
func (uc *UIController) SelectBook(c *gin.Context) {
	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.HandleBookSelect(c.Param("id"))
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// BackToBooks handles GET /ui/nav/back
func (uc *UIController) BackToBooks(c *gin.Context) {
	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.HandleBackToBooks()
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// OpenModal handles GET /ui/modal/:name?edit=<id>&book=<id>
// Catalog modals need an admin session; everyone else is sent to the login modal.
func (uc *UIController) OpenModal(c *gin.Context) {
	name := c.Param("name")
	switch name {
	case library.ModalAddAuthor, library.ModalAddBook, library.ModalAddChapter,
		library.ModalEditAuthor, library.ModalEditBook, library.ModalEditChapter:
		if !auth.IsAdmin(c) {
			c.Redirect(http.StatusSeeOther, "/?modal=login")
			return
		}
	case library.ModalLogin:
	default:
		respondNotFound(c, "modal")
		return
	}

	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.OpenModal(name, c.Query("edit"))
	if name == library.ModalAddChapter {
		nav.ChapterBookID = c.Query("book")
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// CloseModal handles GET /ui/close-modal
func (uc *UIController) CloseModal(c *gin.Context) {
	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.CloseModal()
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// --- Catalog forms ---

// AddAuthor handles POST /ui/authors
func (uc *UIController) AddAuthor(c *gin.Context) {
	var form forms.AuthorForm
	if !bindForm(c, &form) {
		return
	}

	ctx := submissionCtx(c)
	nav := uc.navs.GetNav(ctx)
	nav.OpenModal(library.ModalAddAuthor, "")
	if _, err := uc.library.AddAuthor(ctx, &nav, form); err != nil {
		uc.failForm(c, nav, form, err, "add author", msgAddAuthor)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// UpdateAuthor handles POST /ui/authors/:id
func (uc *UIController) UpdateAuthor(c *gin.Context) {
	id := c.Param("id")
	var form forms.AuthorUpdateForm
	if !bindForm(c, &form) {
		return
	}

	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.OpenModal(library.ModalEditAuthor, id)
	if err := uc.library.UpdateAuthor(ctx, &nav, id, form); err != nil {
		uc.failForm(c, nav, form, err, "update author", msgUpdateAuthor)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// RemoveAuthor handles POST /ui/authors/:id/delete
func (uc *UIController) RemoveAuthor(c *gin.Context) {
	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	if _, err := uc.library.RemoveAuthor(ctx, &nav, c.Param("id")); err != nil {
		log.Printf("Internal error (remove author): %v", err)
		redirectHome(c, msgRemoveAuthor)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// AddBook handles POST /ui/books
func (uc *UIController) AddBook(c *gin.Context) {
	var form forms.BookForm
	if !bindForm(c, &form) {
		return
	}

	ctx := submissionCtx(c)
	nav := uc.navs.GetNav(ctx)
	nav.OpenModal(library.ModalAddBook, "")
	if _, err := uc.library.AddBook(ctx, &nav, form); err != nil {
		uc.failForm(c, nav, form, err, "add book", msgAddBook)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// UpdateBook handles POST /ui/books/:id
func (uc *UIController) UpdateBook(c *gin.Context) {
	id := c.Param("id")
	var form forms.BookUpdateForm
	if !bindForm(c, &form) {
		return
	}

	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.OpenModal(library.ModalEditBook, id)
	if err := uc.library.UpdateBook(ctx, &nav, id, form); err != nil {
		uc.failForm(c, nav, form, err, "update book", msgUpdateBook)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// RemoveBook handles POST /ui/books/:id/delete
func (uc *UIController) RemoveBook(c *gin.Context) {
	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	if _, err := uc.library.RemoveBook(ctx, &nav, c.Param("id")); err != nil {
		log.Printf("Internal error (remove book): %v", err)
		redirectHome(c, msgRemoveBook)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// AddChapter handles POST /ui/chapters
func (uc *UIController) AddChapter(c *gin.Context) {
	var form forms.ChapterForm
	if !bindForm(c, &form) {
		return
	}

	ctx := submissionCtx(c)
	nav := uc.navs.GetNav(ctx)
	nav.OpenModal(library.ModalAddChapter, "")
	nav.ChapterBookID = form.BookID
	if _, err := uc.library.AddChapter(ctx, &nav, form); err != nil {
		uc.failForm(c, nav, form, err, "add chapter", msgAddChapter)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// UpdateChapter handles POST /ui/chapters/:id
func (uc *UIController) UpdateChapter(c *gin.Context) {
	id := c.Param("id")
	var form forms.ChapterUpdateForm
	if !bindForm(c, &form) {
		return
	}

	ctx := c.Request.Context()
	nav := uc.navs.GetNav(ctx)
	nav.OpenModal(library.ModalEditChapter, id)
	if err := uc.library.UpdateChapter(ctx, &nav, id, form); err != nil {
		uc.failForm(c, nav, form, err, "update chapter", msgUpdateChapter)
		return
	}
	uc.navs.PutNav(ctx, nav)
	redirectHome(c, "")
}

// RemoveChapter handles POST /ui/chapters/:id/delete
func (uc *UIController) RemoveChapter(c *gin.Context) {
	if err := uc.library.RemoveChapter(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("Internal error (remove chapter): %v", err)
		redirectHome(c, msgRemoveChapter)
		return
	}
	redirectHome(c, "")
}

// --- Session forms ---

// Login handles POST /ui/session/login
func (uc *UIController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindForm(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := uc.gate.Login(c, req.Email, req.Password); err != nil {
		status, message, retryAfter := loginFailure(err)
		if retryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
		}
		if status == http.StatusInternalServerError {
			log.Printf("Internal error (login): %v", err)
		}
		nav := uc.navs.GetNav(ctx)
		nav.OpenModal(library.ModalLogin, "")
		uc.render(c, status, nav, LoginRequest{Email: req.Email}, nil, message)
		return
	}

	// The session token was renewed; keep working on the new one.
	nav := uc.navs.GetNav(ctx)
	nav.CloseModal()
	uc.navs.PutNav(ctx, nav)
	c.Redirect(http.StatusSeeOther, auth.SanitizeRedirectPath(c.PostForm("next")))
}

// Logout handles POST /ui/session/logout
func (uc *UIController) Logout(c *gin.Context) {
	if err := uc.gate.Logout(c); err != nil {
		log.Printf("Internal error (logout): %v", err)
		redirectHome(c, "Logout failed. Please try again.")
		return
	}
	redirectHome(c, "")
}

