package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

const entityBook = "book"

// BookService manages books. Removing a book removes its chapters.
type BookService struct {
	base
}

func NewBookService(s store.Store, opts ...Option) *BookService {
	return &BookService{base: newBase(s, opts)}
}

// SortBooks orders newest first.
func SortBooks(books []entities.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
}

func (s *BookService) SubscribeToBooks(ctx context.Context, callback func([]entities.Book)) (func(), error) {
	return subscribe(ctx, s.store.Books(), SortBooks, callback)
}

func (s *BookService) GetBook(ctx context.Context, id string) (*entities.Book, error) {
	return s.store.Books().Get(ctx, id)
}

func (s *BookService) AddBook(ctx context.Context, book entities.Book) (string, error) {
	if book.Category == "" {
		book.Category = entities.DefaultCategory
	}
	book.ID = ""

	id, reused, err := s.add(ctx, entities.CollectionBooks, book, func() (string, error) {
		s.stamp(&book.Record)
		return s.store.Books().Insert(ctx, book)
	})
	if !reused {
		s.activity.LogMutation(ctx, entities.AuditEventCreate, entityBook, id, "Added book "+book.Title, err)
	}
	if err != nil {
		return "", fmt.Errorf("add book: %w", err)
	}
	return id, nil
}

func (s *BookService) UpdateBook(ctx context.Context, id string, patch entities.BookPatch) error {
	var title string
	err := s.store.Books().Update(ctx, id, func(b *entities.Book) {
		patch.Apply(b)
		b.UpdatedAt = s.now().UTC()
		title = b.Title
	})
	s.activity.LogMutation(ctx, entities.AuditEventUpdate, entityBook, id, "Updated book "+title, err)
	if err != nil {
		return fmt.Errorf("update book %s: %w", id, err)
	}
	return nil
}

// RemoveBook deletes the book and its chapters.
func (s *BookService) RemoveBook(ctx context.Context, id string) (store.CascadeResult, error) {
	result, err := s.store.DeleteBookCascade(ctx, id)
	s.activity.LogCascade(ctx, entityBook, id, result, err)
	if err != nil {
		return result, fmt.Errorf("remove book %s: %w", id, err)
	}
	return result, nil
}
