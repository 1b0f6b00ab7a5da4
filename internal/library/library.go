// Package library composes the author, book and chapter hooks into the view-model
// every presentation layer renders: the web UI, the JSON API and the terminal browser.
//
// A Library is shared by all viewers. Per-viewer state lives in NavState, which
// callers keep (in the session) and pass to View and the action methods.
package library

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/forms"
	"github.com/mrlokans/shelf/internal/services"
	"github.com/mrlokans/shelf/internal/store"
)

// Option configures a Library.
type Option func(*Library)

// WithAutoSelect toggles picking a random author for viewers with no selection.
func WithAutoSelect(enabled bool) Option {
	return func(l *Library) { l.autoSelect = enabled }
}

// WithRand replaces the random source used by auto-select. intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(l *Library) { l.intn = intn }
}

// WithOnChange is called after any hook received a new snapshot.
func WithOnChange(fn func()) Option {
	return func(l *Library) { l.onChange = fn }
}

type Library struct {
	catalog *services.Catalog

	Authors  *Hook[entities.Author]
	Books    *Hook[entities.Book]
	Chapters *Hook[entities.Chapter]

	autoSelect bool
	intn       func(n int) int
	onChange   func()
}

func New(catalog *services.Catalog, opts ...Option) *Library {
	l := &Library{
		catalog:    catalog,
		Authors:    NewHook[entities.Author](),
		Books:      NewHook[entities.Book](),
		Chapters:   NewHook[entities.Chapter](),
		autoSelect: true,
		intn:       rand.IntN,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.onChange != nil {
		l.Authors.setOnChange(l.onChange)
		l.Books.setOnChange(l.onChange)
		l.Chapters.setOnChange(l.onChange)
	}
	return l
}

// Start subscribes the three hooks.
func (l *Library) Start(ctx context.Context) error {
	if err := l.Authors.Start(ctx, l.catalog.Authors.SubscribeToAuthors); err != nil {
		return err
	}
	if err := l.Books.Start(ctx, l.catalog.Books.SubscribeToBooks); err != nil {
		l.Close()
		return err
	}
	if err := l.Chapters.Start(ctx, l.catalog.Chapters.SubscribeToChapters); err != nil {
		l.Close()
		return err
	}
	return nil
}

// Close releases every subscription.
func (l *Library) Close() {
	l.Authors.Stop()
	l.Books.Stop()
	l.Chapters.Stop()
}

// Loading is true until every hook received its first snapshot.
func (l *Library) Loading() bool {
	return l.Authors.Loading() || l.Books.Loading() || l.Chapters.Loading()
}

// WaitLoaded blocks until Loading is false or ctx is done.
func (l *Library) WaitLoaded(ctx context.Context) error {
	for _, ch := range []<-chan struct{}{l.Authors.Loaded(), l.Books.Loaded(), l.Chapters.Loaded()} {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// BooksForAuthor filters the book snapshot, keeping its order.
func (l *Library) BooksForAuthor(authorID string) []entities.Book {
	return filter(l.Books.Items(), func(b entities.Book) bool { return b.AuthorID == authorID })
}

// ChaptersForBook filters the chapter snapshot, keeping chapter-number order.
func (l *Library) ChaptersForBook(bookID string) []entities.Chapter {
	return filter(l.Chapters.Items(), func(c entities.Chapter) bool { return c.BookID == bookID })
}

func (l *Library) FindAuthor(id string) *entities.Author {
	return find(l.Authors.Items(), id)
}

func (l *Library) FindBook(id string) *entities.Book {
	return find(l.Books.Items(), id)
}

func (l *Library) FindChapter(id string) *entities.Chapter {
	return find(l.Chapters.Items(), id)
}

// View is everything a renderer needs for one viewer.
type View struct {
	Nav      NavState           `json:"nav"`
	Loading  bool               `json:"loading"`
	Authors  []entities.Author  `json:"authors"`
	Books    []entities.Book    `json:"books"`
	Chapters []entities.Chapter `json:"chapters"`

	SelectedAuthor *entities.Author   `json:"selectedAuthor"`
	SelectedBook   *entities.Book     `json:"selectedBook"`
	AuthorBooks    []entities.Book    `json:"authorBooks"`
	BookChapters   []entities.Chapter `json:"bookChapters"`

	BookCounts    map[string]int `json:"bookCounts"`
	ChapterCounts map[string]int `json:"chapterCounts"`
}

// View derives the view for nav. When auto-select is on, the library finished
// loading, there are authors and none is selected, a random author is selected
// and nav is updated in place; the caller should persist it.
func (l *Library) View(nav *NavState) View {
	nav.normalize()
	l.autoSelectAuthor(nav)

	authors := l.Authors.Items()
	books := l.Books.Items()
	chapters := l.Chapters.Items()

	v := View{
		Nav:            *nav,
		Loading:        l.Loading(),
		Authors:        authors,
		Books:          books,
		Chapters:       chapters,
		SelectedAuthor: find(authors, nav.AuthorID),
		SelectedBook:   find(books, nav.BookID),
		AuthorBooks:    filter(books, func(b entities.Book) bool { return b.AuthorID == nav.AuthorID }),
		BookChapters:   filter(chapters, func(c entities.Chapter) bool { return c.BookID == nav.BookID }),
		BookCounts:     make(map[string]int, len(authors)),
		ChapterCounts:  make(map[string]int, len(books)),
	}
	for _, b := range books {
		v.BookCounts[b.AuthorID]++
	}
	for _, c := range chapters {
		v.ChapterCounts[c.BookID]++
	}
	return v
}

func (l *Library) autoSelectAuthor(nav *NavState) {
	if !l.autoSelect || nav.AuthorID != "" || l.Loading() {
		return
	}
	authors := l.Authors.Items()
	if len(authors) == 0 {
		return
	}
	nav.HandleAuthorSelect(authors[l.intn(len(authors))].ID)
}

// AddAuthor validates f, stores the author and selects it.
func (l *Library) AddAuthor(ctx context.Context, nav *NavState, f forms.AuthorForm) (string, error) {
	var id string
	err := forms.Submit(f, func(a entities.Author) (err error) {
		id, err = l.catalog.Authors.AddAuthor(ctx, a)
		return err
	})
	if err != nil {
		return "", err
	}
	nav.AfterAuthorAdded(id)
	return id, nil
}

// AddBook validates f, stores the book and opens the add-chapter modal for it.
func (l *Library) AddBook(ctx context.Context, nav *NavState, f forms.BookForm) (string, error) {
	var id string
	err := forms.Submit(f, func(b entities.Book) (err error) {
		if err := l.requireAuthor(ctx, b.AuthorID); err != nil {
			return err
		}
		id, err = l.catalog.Books.AddBook(ctx, b)
		return err
	})
	if err != nil {
		return "", err
	}
	nav.AfterBookAdded(id)
	return id, nil
}

func (l *Library) AddChapter(ctx context.Context, nav *NavState, f forms.ChapterForm) (string, error) {
	var id string
	err := forms.Submit(f, func(c entities.Chapter) (err error) {
		if err := l.requireBook(ctx, c.BookID); err != nil {
			return err
		}
		id, err = l.catalog.Chapters.AddChapter(ctx, c)
		return err
	})
	if err != nil {
		return "", err
	}
	nav.CloseModal()
	return id, nil
}

func (l *Library) UpdateAuthor(ctx context.Context, nav *NavState, id string, f forms.AuthorUpdateForm) error {
	err := forms.Submit(f, func(p entities.AuthorPatch) error {
		return l.catalog.Authors.UpdateAuthor(ctx, id, p)
	})
	if err == nil {
		nav.CloseModal()
	}
	return err
}

func (l *Library) UpdateBook(ctx context.Context, nav *NavState, id string, f forms.BookUpdateForm) error {
	err := forms.Submit(f, func(p entities.BookPatch) error {
		if p.AuthorID != nil {
			if err := l.requireAuthor(ctx, *p.AuthorID); err != nil {
				return err
			}
		}
		return l.catalog.Books.UpdateBook(ctx, id, p)
	})
	if err == nil {
		nav.CloseModal()
	}
	return err
}

func (l *Library) UpdateChapter(ctx context.Context, nav *NavState, id string, f forms.ChapterUpdateForm) error {
	err := forms.Submit(f, func(p entities.ChapterPatch) error {
		if p.BookID != nil {
			if err := l.requireBook(ctx, *p.BookID); err != nil {
				return err
			}
		}
		return l.catalog.Chapters.UpdateChapter(ctx, id, p)
	})
	if err == nil {
		nav.CloseModal()
	}
	return err
}

// requireAuthor rejects a book whose author does not exist.
func (l *Library) requireAuthor(ctx context.Context, authorID string) error {
	_, err := l.catalog.Authors.GetAuthor(ctx, authorID)
	if errors.Is(err, store.ErrNotFound) {
		return forms.FieldErrors{forms.FieldAuthor: forms.MsgSelectAuthor}
	}
	return err
}

// requireBook rejects a chapter whose book does not exist.
func (l *Library) requireBook(ctx context.Context, bookID string) error {
	_, err := l.catalog.Books.GetBook(ctx, bookID)
	if errors.Is(err, store.ErrNotFound) {
		return forms.FieldErrors{forms.FieldBook: forms.MsgSelectBook}
	}
	return err
}

// RemoveAuthor deletes the author subtree and clears the selection if it pointed there.
func (l *Library) RemoveAuthor(ctx context.Context, nav *NavState, id string) (store.CascadeResult, error) {
	result, err := l.catalog.Authors.RemoveAuthor(ctx, id)
	if err != nil {
		return result, err
	}
	nav.AfterAuthorRemoved(id)
	return result, nil
}

func (l *Library) RemoveBook(ctx context.Context, nav *NavState, id string) (store.CascadeResult, error) {
	result, err := l.catalog.Books.RemoveBook(ctx, id)
	if err != nil {
		return result, err
	}
	nav.AfterBookRemoved(id)
	return result, nil
}

func (l *Library) RemoveChapter(ctx context.Context, id string) error {
	if err := l.catalog.Chapters.RemoveChapter(ctx, id); err != nil {
		return fmt.Errorf("remove chapter: %w", err)
	}
	return nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func find[T any](items []T, id string) *T {
	if id == "" {
		return nil
	}
	for i := range items {
		if recordID(&items[i]) == id {
			item := items[i]
			return &item
		}
	}
	return nil
}

func recordID(item any) string {
	if r, ok := item.(interface{ Base() *entities.Record }); ok {
		return r.Base().ID
	}
	return ""
}
