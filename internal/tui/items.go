package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/library"
)

type authorItem struct {
	author entities.Author
	books  int
}

func (i authorItem) FilterValue() string { return i.author.Name }
func (i authorItem) Title() string       { return i.author.Name }
func (i authorItem) Description() string {
	desc := fmt.Sprintf("%d books", i.books)
	if len(i.author.Genres) > 0 {
		desc += " • " + strings.Join(i.author.Genres, ", ")
	}
	return desc
}

type bookItem struct {
	book     entities.Book
	chapters int
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.Title }
func (i bookItem) Description() string {
	return fmt.Sprintf("%s • %s • %d chapters", i.book.Year, i.book.Category, i.chapters)
}

type chapterItem struct {
	chapter entities.Chapter
}

func (i chapterItem) FilterValue() string { return i.chapter.Title }
func (i chapterItem) Title() string {
	return fmt.Sprintf("Chapter %d: %s", i.chapter.ChapterNumber, i.chapter.Title)
}
func (i chapterItem) Description() string {
	content := strings.Join(strings.Fields(i.chapter.Content), " ")
	if len(content) > 80 {
		content = content[:77] + "..."
	}
	return content
}

func authorItems(v library.View) []list.Item {
	items := make([]list.Item, len(v.Authors))
	for i, a := range v.Authors {
		items[i] = authorItem{author: a, books: v.BookCounts[a.ID]}
	}
	return items
}

func bookItems(v library.View) []list.Item {
	items := make([]list.Item, len(v.AuthorBooks))
	for i, b := range v.AuthorBooks {
		items[i] = bookItem{book: b, chapters: v.ChapterCounts[b.ID]}
	}
	return items
}

func chapterItems(v library.View) []list.Item {
	items := make([]list.Item, len(v.BookChapters))
	for i, c := range v.BookChapters {
		items[i] = chapterItem{chapter: c}
	}
	return items
}
