// Package validators holds the field predicates shared by the catalog forms.
package validators

import (
	"fmt"
	"regexp"
	"strings"
)

var fourDigitYear = regexp.MustCompile(`^\d{4}$`)

// IsNonEmpty reports whether v is a string with at least one non-whitespace character.
// Values of any other type, nil included, are never non-empty.
func IsNonEmpty(v any) bool {
	s, ok := v.(string)
	return ok && len(strings.TrimSpace(s)) > 0
}

// IsFourDigitYear reports whether the string form of v is exactly four decimal digits.
func IsFourDigitYear(v any) bool {
	if v == nil {
		return false
	}
	return fourDigitYear.MatchString(fmt.Sprint(v))
}
