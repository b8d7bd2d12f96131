package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/ppiankov/keywatch/internal/analysis"
)

var positiveWords = map[string]struct{}{}
var negativeWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`good great excellent amazing awesome bullish moon pump
		gain gains profit up rise surge breakout hodl buy long win success`) {
		positiveWords[w] = struct{}{}
	}
	for _, w := range strings.Fields(`bad terrible awful bearish dump crash loss down fall drop
		sell short fud scam rug rugpull hack exploit dead failed broken`) {
		negativeWords[w] = struct{}{}
	}
}

// Lexicon scores text by counting words from fixed positive and negative
// lists: (positive - negative) / max(1, words/10), clamped to [-1,1]
type Lexicon struct{}

// NewLexicon creates a lexicon analyzer
func NewLexicon() *Lexicon { return &Lexicon{} }

// Name returns the provider name
func (*Lexicon) Name() string { return "lexicon" }

// Score never fails
func (l *Lexicon) Score(_ context.Context, text string) (float64, error) {
	return l.score(text), nil
}

func (*Lexicon) score(text string) float64 {
	words := strings.Fields(analysis.Normalize(text, false))
	if len(words) == 0 {
		return 0
	}

	pos, neg := 0, 0
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			pos++
		} else if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}

	v := float64(pos-neg) / math.Max(1, float64(len(words))/10)
	return math.Round(clamp(v)*100) / 100
}
