// Package forms turns raw modal input into validated catalog payloads.
//
// Each form keeps its fields as the strings a user typed. Validate reports
// per-field messages; Payload returns the trimmed, normalized value that the
// services persist. Submit ties the two together.
package forms

import (
	"sort"
	"strings"
)

// Field keys used in FieldErrors.
const (
	FieldName   = "name"
	FieldAuthor = "author"
	FieldBook   = "book"
	FieldTitle  = "title"
	FieldYear   = "year"
	FieldNumber = "number"
)

// Messages for a parent reference that is missing or points nowhere.
const (
	MsgSelectAuthor = "Select an author."
	MsgSelectBook   = "Select a book."
)

// FieldErrors maps a field key to the message shown next to that field.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has an error.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Form is implemented by every catalog form.
type Form[P any] interface {
	Validate() FieldErrors
	Payload() P
}

// Submit validates f and, only when it is valid, hands the normalized payload to submit.
// Validation failures are returned as FieldErrors and submit is not called.
func Submit[P any](f Form[P], submit func(P) error) error {
	if errs := f.Validate(); len(errs) > 0 {
		return errs
	}
	return submit(f.Payload())
}

// SplitGenres turns "Fiction, Sci-Fi,, Mystery" into [Fiction Sci-Fi Mystery].
func SplitGenres(raw string) []string {
	return CleanGenres(strings.Split(raw, ","))
}

// CleanGenres trims every genre and drops the empty ones, keeping the order.
func CleanGenres(list []string) []string {
	genres := []string{}
	for _, g := range list {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// JoinGenres is the inverse used to prefill update forms.
func JoinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}
