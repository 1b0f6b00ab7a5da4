// Package store defines the backend-agnostic catalog storage contract.
//
// A Store exposes one Collection per entity type plus the multi-record
// operations the application needs (cascading deletes and the orphan sweep).
// Backends live in internal/database (gorm: SQLite, PostgreSQL) and
// internal/firestore (Cloud Firestore).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/shelf/internal/entities"
)

var (
	// ErrNotFound is returned when an update targets a record that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// Collection is a flat keyed set of records of one entity type.
type Collection[T any] interface {
	// Name is the collection name (authors, books, chapters).
	Name() string

	// List returns every record in an unspecified order.
	List(ctx context.Context) ([]T, error)

	// Get returns the record with id or ErrNotFound.
	Get(ctx context.Context, id string) (*T, error)

	// Insert writes item under a newly generated key and returns the key.
	Insert(ctx context.Context, item T) (string, error)

	// Update loads the record at id, applies mutate and writes it back atomically.
	// It returns ErrNotFound, without writing, when id does not exist.
	Update(ctx context.Context, id string, mutate func(*T)) error

	// Delete removes the record at id. Deleting a missing id succeeds.
	Delete(ctx context.Context, id string) error

	// Watch emits a full snapshot of the collection immediately and after every change,
	// until ctx is cancelled, at which point the channel is closed.
	Watch(ctx context.Context) (<-chan []T, error)
}

// CascadeResult counts the records removed by a multi-record delete.
type CascadeResult struct {
	Authors  int64 `json:"authors"`
	Books    int64 `json:"books"`
	Chapters int64 `json:"chapters"`
}

// Add accumulates other into r.
func (r *CascadeResult) Add(other CascadeResult) {
	r.Authors += other.Authors
	r.Books += other.Books
	r.Chapters += other.Chapters
}

// Total is the number of records removed.
func (r CascadeResult) Total() int64 {
	return r.Authors + r.Books + r.Chapters
}

func (r CascadeResult) String() string {
	return fmt.Sprintf("%d authors, %d books, %d chapters", r.Authors, r.Books, r.Chapters)
}

// Store is a catalog backend.
type Store interface {
	Authors() Collection[entities.Author]
	Books() Collection[entities.Book]
	Chapters() Collection[entities.Chapter]

	// DeleteAuthorCascade removes the author, its books and their chapters as one unit.
	DeleteAuthorCascade(ctx context.Context, authorID string) (CascadeResult, error)

	// DeleteBookCascade removes the book and its chapters as one unit.
	DeleteBookCascade(ctx context.Context, bookID string) (CascadeResult, error)

	// SweepOrphans removes books whose author is gone and chapters whose book is gone.
	// Running it again on a clean catalog removes nothing.
	SweepOrphans(ctx context.Context) (CascadeResult, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Backend names the implementation ("sqlite", "postgres", "firestore").
	Backend() string

	Close() error
}
