package fuzzy

import (
	"strings"
	"unicode"
)

var wordStopList = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// ExtractWords lower-cases text, splits it on anything that is not a letter
// or digit and drops a short list of English stop words
func ExtractWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := fields[:0]
	for _, f := range fields {
		if _, stop := wordStopList[f]; !stop {
			words = append(words, f)
		}
	}
	return words
}
