package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/entities"
)

func TestAuthorForm_EmptyNameBlocksSubmit(t *testing.T) {
	called := false
	err := Submit[entities.Author](AuthorForm{Name: "   "}, func(entities.Author) error {
		called = true
		return nil
	})

	var fieldErrs FieldErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.True(t, fieldErrs.Has(FieldName))
	assert.Equal(t, "Author name is required.", fieldErrs[FieldName])
	assert.False(t, called, "submit must not run for an invalid form")
}

func TestAuthorForm_Payload(t *testing.T) {
	f := AuthorForm{Name: "  Ursula K. Le Guin ", Bio: " Wrote Earthsea. ", Genres: "Fantasy, , Sci-Fi ,"}

	require.Empty(t, f.Validate())
	a := f.Payload()
	assert.Equal(t, "Ursula K. Le Guin", a.Name)
	assert.Equal(t, "Wrote Earthsea.", a.Bio)
	assert.Equal(t, []string{"Fantasy", "Sci-Fi"}, a.Genres)
}

func TestAuthorForm_EmptyGenresIsEmptySlice(t *testing.T) {
	a := AuthorForm{Name: "x"}.Payload()
	assert.NotNil(t, a.Genres)
	assert.Empty(t, a.Genres)
}

func TestBookForm_ShortYear(t *testing.T) {
	called := false
	err := Submit[entities.Book](BookForm{AuthorID: "a1", Title: "Foundation", Year: "195"}, func(entities.Book) error {
		called = true
		return nil
	})

	var fieldErrs FieldErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Equal(t, "Year must be 4 digits (e.g. 1951).", fieldErrs[FieldYear])
	assert.False(t, fieldErrs.Has(FieldTitle))
	assert.False(t, called)
}

func TestBookForm_DefaultsCategory(t *testing.T) {
	var written entities.Book
	err := Submit[entities.Book](BookForm{AuthorID: "a1", Title: " Foundation ", Year: "1999", Category: "  "}, func(b entities.Book) error {
		written = b
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, entities.DefaultCategory, written.Category)
	assert.Equal(t, "Foundation", written.Title)
	assert.Equal(t, "1999", written.Year)
	assert.Equal(t, "a1", written.AuthorID)
}

func TestBookForm_MissingAuthor(t *testing.T) {
	errs := BookForm{Title: "T", Year: "2001"}.Validate()
	assert.Equal(t, FieldErrors{FieldAuthor: "Select an author."}, errs)
}

func TestChapterForm_Validate(t *testing.T) {
	tests := []struct {
		name   string
		form   ChapterForm
		fields []string
	}{
		{"valid", ChapterForm{BookID: "b", Title: "One", Number: "1"}, nil},
		{"zero number", ChapterForm{BookID: "b", Title: "One", Number: "0"}, []string{FieldNumber}},
		{"negative number", ChapterForm{BookID: "b", Title: "One", Number: "-3"}, []string{FieldNumber}},
		{"not a number", ChapterForm{BookID: "b", Title: "One", Number: "two"}, []string{FieldNumber}},
		{"empty", ChapterForm{}, []string{FieldBook, FieldTitle, FieldNumber}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.form.Validate()
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.True(t, errs.Has(f), "expected error for %s", f)
			}
		})
	}
}

func TestChapterForm_Payload(t *testing.T) {
	c := ChapterForm{BookID: " b1 ", Title: " Arrival ", Content: " text ", Number: " 3 "}.Payload()
	assert.Equal(t, entities.Chapter{BookID: "b1", Title: "Arrival", Content: "text", ChapterNumber: 3}, c)
}

func TestAuthorForm_GenreListWinsOverCommaField(t *testing.T) {
	f := AuthorForm{Name: "Le Guin", Genres: "ignored", GenreList: []string{" Science fiction, hard ", "", "Poetry"}}
	assert.Equal(t, []string{"Science fiction, hard", "Poetry"}, f.Payload().Genres)

	f.GenreList = nil
	assert.Equal(t, []string{"ignored"}, f.Payload().Genres)
}

func TestUpdateForms_RoundTripRecord(t *testing.T) {
	author := entities.Author{Name: "Le Guin", Bio: "bio", Genres: []string{"Fantasy", "Sci-Fi"}}
	af := NewAuthorUpdateForm(author)
	assert.Equal(t, "Fantasy, Sci-Fi", af.Genres)

	patch := af.Payload()
	var updated entities.Author
	patch.Apply(&updated)
	assert.Equal(t, author.Name, updated.Name)
	assert.Equal(t, author.Genres, updated.Genres)

	chapter := entities.Chapter{BookID: "b", Title: "T", ChapterNumber: 7}
	cf := NewChapterUpdateForm(chapter)
	assert.Equal(t, "7", cf.Number)
	require.Empty(t, cf.Validate())
	assert.Equal(t, 7, *cf.Payload().ChapterNumber)

	bf := NewBookUpdateForm(entities.Book{AuthorID: "a", Title: "T", Year: "1960"})
	assert.Equal(t, entities.DefaultCategory, *bf.Payload().Category)
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{FieldYear: "bad year", FieldAuthor: "missing"}
	assert.Equal(t, "validation failed: author: missing; year: bad year", errs.Error())
}
