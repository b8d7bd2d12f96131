package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/keywatch/internal/model"
)

// Token is one word of normalized text
type Token struct {
	Text   string
	Stem   string // equal to Text when stemming is off
	Index  int    // position among the kept tokens
	Offset int    // rune offset in the normalized text
}

// Analyzer tokenizes normalized text according to the matching options
type Analyzer struct {
	minWordLength   int
	removeStopWords bool
	stemming        bool
	stemmer         Stemmer
}

// NewAnalyzer builds an analyzer from the matching configuration
func NewAnalyzer(cfg model.MatchingConfig) *Analyzer {
	minLen := cfg.MinWordLength
	if minLen < 1 {
		minLen = 1
	}
	return &Analyzer{
		minWordLength:   minLen,
		removeStopWords: cfg.RemoveStopWords,
		stemming:        cfg.StemmingEnabled,
		stemmer:         NewStemmer(cfg.Stemmer),
	}
}

// Stemming reports whether stem equality counts as a token match
func (a *Analyzer) Stemming() bool {
	return a.stemming
}

// Tokenize splits normalized text on spaces, dropping short words and,
// when configured, stop words
func (a *Analyzer) Tokenize(normalized string) []Token {
	var tokens []Token
	offset := 0
	for _, word := range strings.Split(normalized, " ") {
		n := utf8.RuneCountInString(word)
		start := offset
		offset += n + 1

		if word == "" || n < a.minWordLength {
			continue
		}
		if a.removeStopWords && IsStopWord(word) {
			continue
		}

		tok := Token{Text: word, Stem: word, Index: len(tokens), Offset: start}
		if a.stemming {
			tok.Stem = a.stemmer.Stem(word)
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TokensMatch reports whether two tokens are equal, or stem-equal when
// stemming is enabled
func (a *Analyzer) TokensMatch(x, y Token) bool {
	if x.Text == y.Text {
		return true
	}
	return a.stemming && x.Stem == y.Stem
}
