package forms

import (
	"strings"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/validators"
)

type BookForm struct {
	AuthorID    string `form:"authorId" json:"authorId"`
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Year        string `form:"year" json:"year"`
	Category    string `form:"category" json:"category"`
}

func (f BookForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !validators.IsNonEmpty(f.AuthorID) {
		errs[FieldAuthor] = MsgSelectAuthor
	}
	if !validators.IsNonEmpty(f.Title) {
		errs[FieldTitle] = "Book title is required."
	}
	if !validators.IsFourDigitYear(f.Year) {
		errs[FieldYear] = "Year must be 4 digits (e.g. 1951)."
	}
	return errs
}

func (f BookForm) Payload() entities.Book {
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = entities.DefaultCategory
	}
	return entities.Book{
		AuthorID:    strings.TrimSpace(f.AuthorID),
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Year:        strings.TrimSpace(f.Year),
		Category:    category,
	}
}

type BookUpdateForm struct {
	BookForm
}

func NewBookUpdateForm(b entities.Book) BookUpdateForm {
	return BookUpdateForm{BookForm{
		AuthorID:    b.AuthorID,
		Title:       b.Title,
		Description: b.Description,
		Year:        b.Year,
		Category:    b.Category,
	}}
}

func (f BookUpdateForm) Payload() entities.BookPatch {
	b := f.BookForm.Payload()
	return entities.BookPatch{
		AuthorID:    &b.AuthorID,
		Title:       &b.Title,
		Description: &b.Description,
		Year:        &b.Year,
		Category:    &b.Category,
	}
}
