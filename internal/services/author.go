package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

const entityAuthor = "author"

// AuthorService manages authors. Removing an author removes its books and chapters.
type AuthorService struct {
	base
}

func NewAuthorService(s store.Store, opts ...Option) *AuthorService {
	return &AuthorService{base: newBase(s, opts)}
}

// SortAuthors orders newest first.
func SortAuthors(authors []entities.Author) {
	sort.SliceStable(authors, func(i, j int) bool {
		return authors[i].CreatedAt.After(authors[j].CreatedAt)
	})
}

// SubscribeToAuthors delivers every author snapshot, newest first, to callback.
func (s *AuthorService) SubscribeToAuthors(ctx context.Context, callback func([]entities.Author)) (func(), error) {
	return subscribe(ctx, s.store.Authors(), SortAuthors, callback)
}

func (s *AuthorService) GetAuthor(ctx context.Context, id string) (*entities.Author, error) {
	return s.store.Authors().Get(ctx, id)
}

// AddAuthor stores a new author and returns its key.
func (s *AuthorService) AddAuthor(ctx context.Context, author entities.Author) (string, error) {
	if author.Genres == nil {
		author.Genres = []string{}
	}
	author.ID = ""

	id, reused, err := s.add(ctx, entities.CollectionAuthors, author, func() (string, error) {
		s.stamp(&author.Record)
		return s.store.Authors().Insert(ctx, author)
	})
	if !reused {
		s.activity.LogMutation(ctx, entities.AuditEventCreate, entityAuthor, id, "Added author "+author.Name, err)
	}
	if err != nil {
		return "", fmt.Errorf("add author: %w", err)
	}
	return id, nil
}

// UpdateAuthor merges patch into the author and refreshes updatedAt.
// Returns store.ErrNotFound when id does not exist.
func (s *AuthorService) UpdateAuthor(ctx context.Context, id string, patch entities.AuthorPatch) error {
	var name string
	err := s.store.Authors().Update(ctx, id, func(a *entities.Author) {
		patch.Apply(a)
		a.UpdatedAt = s.now().UTC()
		name = a.Name
	})
	s.activity.LogMutation(ctx, entities.AuditEventUpdate, entityAuthor, id, "Updated author "+name, err)
	if err != nil {
		return fmt.Errorf("update author %s: %w", id, err)
	}
	return nil
}

// RemoveAuthor deletes the author with its books and their chapters.
// Removing a missing id succeeds with an empty result.
func (s *AuthorService) RemoveAuthor(ctx context.Context, id string) (store.CascadeResult, error) {
	result, err := s.store.DeleteAuthorCascade(ctx, id)
	s.activity.LogCascade(ctx, entityAuthor, id, result, err)
	if err != nil {
		return result, fmt.Errorf("remove author %s: %w", id, err)
	}
	return result, nil
}
