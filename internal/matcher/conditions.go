package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/keywatch/internal/analysis"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/score"
)

// Condition defaults
const (
	defaultMinMatches    = 1
	defaultMaxMatches    = 100
	defaultMinConfidence = 0.5
	defaultMaxLength     = 10000
)

// conditionsPass evaluates the rule conditions as an AND chain. Unknown
// condition types pass.
func conditionsPass(conditions []model.Condition, matches []model.Match, content string) bool {
	for _, c := range conditions {
		if !conditionPasses(c, matches, content) {
			return false
		}
	}
	return true
}

func conditionPasses(c model.Condition, matches []model.Match, content string) bool {
	switch c.Type {
	case model.ConditionMinMatches:
		return float64(len(matches)) >= c.ValueOr(defaultMinMatches)
	case model.ConditionMaxMatches:
		return float64(len(matches)) <= c.ValueOr(defaultMaxMatches)
	case model.ConditionContextRequired:
		return hasRequiredContext(matches, c.Context)
	case model.ConditionExcludeWords:
		return !containsAny(analysis.Fold(content), c.Words)
	case model.ConditionMinConfidence:
		return score.AverageConfidence(matches) >= c.ValueOr(defaultMinConfidence)
	case model.ConditionContentLength:
		n := utf8.RuneCountInString(content)
		minLen, maxLen := 0, defaultMaxLength
		if c.MinLength != nil {
			minLen = *c.MinLength
		}
		if c.MaxLength != nil {
			maxLen = *c.MaxLength
		}
		return n >= minLen && n <= maxLen
	default:
		return true
	}
}

func hasRequiredContext(matches []model.Match, words []string) bool {
	for _, m := range matches {
		if containsAny(analysis.Fold(m.Context), words) {
			return true
		}
	}
	return false
}

// containsAny reports whether folded contains any of words, compared case-insensitively
func containsAny(folded string, words []string) bool {
	for _, w := range words {
		if w = analysis.Fold(w); w != "" && strings.Contains(folded, w) {
			return true
		}
	}
	return false
}
