package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
)

// Stemmer reduces a lower-case word to its stem
type Stemmer interface {
	Stem(word string) string
}

// SuffixStemmer strips the first matching common English suffix
type SuffixStemmer struct{}

var suffixes = []string{"ing", "ed", "er", "est", "ly", "tion", "sion", "ness", "ment"}

// Stem strips a suffix when the word is longer than the suffix plus two runes
func (SuffixStemmer) Stem(word string) string {
	word = strings.ToLower(word)
	n := utf8.RuneCountInString(word)
	for _, suf := range suffixes {
		if strings.HasSuffix(word, suf) && n > len(suf)+2 {
			return strings.TrimSuffix(word, suf)
		}
	}
	return word
}

// SnowballStemmer applies the Snowball English (Porter2) algorithm
type SnowballStemmer struct{}

// Stem returns the Porter2 stem of word
func (SnowballStemmer) Stem(word string) string {
	return english.Stem(word, false)
}

// NewStemmer returns the stemmer registered under name; unknown names get
// the suffix stemmer
func NewStemmer(name string) Stemmer {
	if name == "snowball" {
		return SnowballStemmer{}
	}
	return SuffixStemmer{}
}
