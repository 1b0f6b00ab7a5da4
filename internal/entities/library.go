package entities

import (
	"time"
)

// Collection names shared by every store backend.
const (
	CollectionAuthors  = "authors"
	CollectionBooks    = "books"
	CollectionChapters = "chapters"
)

// DefaultCategory is assigned to books submitted without a category.
const DefaultCategory = "Uncategorized"

// Record carries the fields every catalog entity has.
// ID is a store-generated key; timestamps are stamped by the services.
type Record struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id" firestore:"-"`
	CreatedAt time.Time `gorm:"index;autoCreateTime:false" json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt" firestore:"updatedAt"`
}

// Base gives generic store code access to the embedded record.
func (r *Record) Base() *Record {
	return r
}

type Author struct {
	Record
	Name   string   `gorm:"index;size:256" json:"name" firestore:"name"`
	Bio    string   `gorm:"type:text" json:"bio" firestore:"bio"`
	Genres []string `gorm:"serializer:json;type:text" json:"genres" firestore:"genres"`
}

func (Author) TableName() string {
	return CollectionAuthors
}

type Book struct {
	Record
	AuthorID    string `gorm:"index;size:64" json:"authorId" firestore:"authorId"`
	Title       string `gorm:"size:512" json:"title" firestore:"title"`
	Description string `gorm:"type:text" json:"description" firestore:"description"`
	Year        string `gorm:"size:4" json:"year" firestore:"year"`
	Category    string `gorm:"size:128" json:"category" firestore:"category"`
}

func (Book) TableName() string {
	return CollectionBooks
}

type Chapter struct {
	Record
	BookID        string `gorm:"index;size:64" json:"bookId" firestore:"bookId"`
	Title         string `gorm:"size:512" json:"title" firestore:"title"`
	Content       string `gorm:"type:text" json:"content" firestore:"content"`
	ChapterNumber int    `json:"chapterNumber" firestore:"chapterNumber"`
}

func (Chapter) TableName() string {
	return CollectionChapters
}

// AuthorPatch lists the author fields an update may change. Nil fields are left untouched.
type AuthorPatch struct {
	Name   *string   `json:"name,omitempty"`
	Bio    *string   `json:"bio,omitempty"`
	Genres *[]string `json:"genres,omitempty"`
}

// Apply merges the present fields into a.
func (p AuthorPatch) Apply(a *Author) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Bio != nil {
		a.Bio = *p.Bio
	}
	if p.Genres != nil {
		a.Genres = append([]string(nil), (*p.Genres)...)
	}
}

type BookPatch struct {
	AuthorID    *string `json:"authorId,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Year        *string `json:"year,omitempty"`
	Category    *string `json:"category,omitempty"`
}

func (p BookPatch) Apply(b *Book) {
	if p.AuthorID != nil {
		b.AuthorID = *p.AuthorID
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Year != nil {
		b.Year = *p.Year
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
}

type ChapterPatch struct {
	BookID        *string `json:"bookId,omitempty"`
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	ChapterNumber *int    `json:"chapterNumber,omitempty"`
}

func (p ChapterPatch) Apply(c *Chapter) {
	if p.BookID != nil {
		c.BookID = *p.BookID
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.ChapterNumber != nil {
		c.ChapterNumber = *p.ChapterNumber
	}
}
