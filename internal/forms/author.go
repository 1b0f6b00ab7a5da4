package forms

import (
	"strings"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/validators"
)

type AuthorForm struct {
	Name   string `form:"name" json:"name"`
	Bio    string `form:"bio" json:"bio"`
	Genres string `form:"genres" json:"genres"` // comma-separated

	// GenreList, when non-nil, is used as-is instead of splitting Genres.
	// Callers that already hold a list set it so genres may contain commas.
	GenreList []string `form:"-" json:"-"`
}

func (f AuthorForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !validators.IsNonEmpty(f.Name) {
		errs[FieldName] = "Author name is required."
	}
	return errs
}

func (f AuthorForm) Payload() entities.Author {
	return entities.Author{
		Name:   strings.TrimSpace(f.Name),
		Bio:    strings.TrimSpace(f.Bio),
		Genres: f.genres(),
	}
}

func (f AuthorForm) genres() []string {
	if f.GenreList != nil {
		return CleanGenres(f.GenreList)
	}
	return SplitGenres(f.Genres)
}

// AuthorUpdateForm edits an existing author; every field is written back.
type AuthorUpdateForm struct {
	AuthorForm
}

// NewAuthorUpdateForm prefills the form from a.
func NewAuthorUpdateForm(a entities.Author) AuthorUpdateForm {
	return AuthorUpdateForm{AuthorForm{
		Name:      a.Name,
		Bio:       a.Bio,
		Genres:    JoinGenres(a.Genres),
		GenreList: append([]string{}, a.Genres...),
	}}
}

func (f AuthorUpdateForm) Payload() entities.AuthorPatch {
	a := f.AuthorForm.Payload()
	return entities.AuthorPatch{Name: &a.Name, Bio: &a.Bio, Genres: &a.Genres}
}
