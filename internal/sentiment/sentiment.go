// Package sentiment scores content polarity in [-1,1] for documents whose
// metadata carries no sentiment score.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/keywatch/internal/model"
)

// Analyzer scores the sentiment of text
type Analyzer interface {
	// Name returns the provider name
	Name() string

	// Score returns a polarity in [-1,1]
	Score(ctx context.Context, text string) (float64, error)
}

// New creates the analyzer selected by cfg. It returns nil, nil when
// sentiment analysis is disabled.
func New(cfg model.SentimentConfig, httpProxy, httpsProxy string) (Analyzer, error) {
	switch strings.ToLower(cfg.Provider) {
	case model.SentimentProviderLexicon:
		return NewLexicon(), nil
	case model.SentimentProviderOpenAI:
		return NewOpenAI(cfg)
	case model.SentimentProviderOllama:
		return NewOllama(cfg, httpProxy, httpsProxy)
	case "", model.SentimentProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown sentiment provider: %s (supported: lexicon, openai, ollama, none)", cfg.Provider)
	}
}

// maxPromptRunes bounds the text sent to a model
const maxPromptRunes = 4000

const systemPrompt = "You rate the sentiment of social media and news text. " +
	"Reply with a single number between -1 (very negative) and 1 (very positive). No other text."

func buildPrompt(text string) string {
	r := []rune(text)
	if len(r) > maxPromptRunes {
		text = string(r[:maxPromptRunes])
	}
	return "Text:\n" + text + "\n\nSentiment score:"
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// parseScore extracts the first number of a model reply and clamps it
func parseScore(reply string) (float64, error) {
	m := numberPattern.FindString(reply)
	if m == "" {
		return 0, fmt.Errorf("no score in reply %q", truncate(reply, 80))
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", m, err)
	}
	return clamp(v), nil
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
