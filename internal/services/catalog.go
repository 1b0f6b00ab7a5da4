package services

import (
	"github.com/mrlokans/shelf/internal/store"
)

// Catalog bundles the three entity services over one store.
type Catalog struct {
	Authors  *AuthorService
	Books    *BookService
	Chapters *ChapterService
}

func NewCatalog(s store.Store, opts ...Option) *Catalog {
	return &Catalog{
		Authors:  NewAuthorService(s, opts...),
		Books:    NewBookService(s, opts...),
		Chapters: NewChapterService(s, opts...),
	}
}
