// Package analysis turns raw text into normalized tokens for the token
// based matching strategies.
package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize composes text to NFC, lower-cases it unless caseSensitive,
// replaces every rune that is not a letter, digit, '_', '#' or '@' with a
// space and collapses whitespace.
func Normalize(s string, caseSensitive bool) string {
	s = norm.NFC.String(s)
	if !caseSensitive {
		// a Caser keeps state and must not be shared between goroutines
		s = cases.Lower(language.Und).String(s)
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '#' || r == '@' {
			return r
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// Fold lower-cases s for case-insensitive comparisons
func Fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
