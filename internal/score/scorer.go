package score

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/keywatch/internal/analysis"
	"github.com/ppiankov/keywatch/internal/model"
)

// Scorer computes per-match relevance scores
type Scorer struct {
	weights model.ScoringConfig
}

// NewScorer creates a scorer with the given weights
func NewScorer(weights model.ScoringConfig) *Scorer {
	return &Scorer{weights: weights}
}

// Input is everything the relevance score depends on
type Input struct {
	Priority    model.Priority
	MatchedText string
	Density     float64
	Metadata    model.Metadata
}

// Relevance returns the relevance score of one match, rounded to 2 decimals
func (s *Scorer) Relevance(in Input) float64 {
	total, _ := s.Explain(in)
	return total
}

// Explain returns the relevance score together with one signal per
// component, each carrying its inputs and formula
func (s *Scorer) Explain(in Input) (float64, []model.Signal) {
	priority, prioritySignal := s.priorityComponent(in.Priority)
	density, densitySignal := s.densityComponent(in.Density)
	engagement, engagementSignal := s.engagementComponent(in.Metadata.EngagementScore)
	sentiment, sentimentSignal := s.sentimentComponent(in.Metadata.Sentiment())
	length, lengthSignal := s.lengthComponent(in.MatchedText)

	total := round(priority+density+engagement+sentiment+length, 2)
	return total, []model.Signal{prioritySignal, densitySignal, engagementSignal, sentimentSignal, lengthSignal}
}

// priorityComponent is the base score from rule priority
func (s *Scorer) priorityComponent(p model.Priority) (float64, model.Signal) {
	v := float64(p) / 10
	return v, model.Signal{
		Type:        model.SignalPriority,
		Description: fmt.Sprintf("Rule priority %d (%s)", p, p.Label()),
		Data: map[string]any{
			"priority": int(p),
			"value":    v,
			"formula":  "priority / 10",
		},
	}
}

// densityComponent rewards repeated keywords, capped at 5 points before weighting
func (s *Scorer) densityComponent(density float64) (float64, model.Signal) {
	raw := math.Min(density*10, 5)
	v := raw * s.weights.DensityWeight
	return v, model.Signal{
		Type:        model.SignalDensity,
		Description: fmt.Sprintf("Keyword density %.2f%%", density),
		Data: map[string]any{
			"density": density,
			"weight":  s.weights.DensityWeight,
			"value":   v,
			"formula": "min(density * 10, 5) * density_weight",
		},
	}
}

// engagementComponent uses a logarithmic scale, capped at 10 points before weighting
func (s *Scorer) engagementComponent(engagement float64) (float64, model.Signal) {
	raw := 0.0
	if engagement > -1 {
		raw = math.Min(math.Log(engagement+1)*2, 10)
	}
	v := raw * s.weights.EngagementWeight
	return v, model.Signal{
		Type:        model.SignalEngagement,
		Description: fmt.Sprintf("Engagement %.0f", engagement),
		Data: map[string]any{
			"engagement": engagement,
			"weight":     s.weights.EngagementWeight,
			"value":      v,
			"formula":    "min(ln(engagement + 1) * 2, 10) * engagement_weight",
		},
	}
}

// sentimentComponent rewards strong sentiment in either direction
func (s *Scorer) sentimentComponent(sentiment float64) (float64, model.Signal) {
	v := math.Abs(sentiment) * 5 * s.weights.SentimentWeight
	return v, model.Signal{
		Type:        model.SignalSentiment,
		Description: fmt.Sprintf("Sentiment %.2f (%s)", sentiment, model.SentimentLabel(sentiment)),
		Data: map[string]any{
			"sentiment": sentiment,
			"weight":    s.weights.SentimentWeight,
			"value":     v,
			"formula":   "abs(sentiment) * 5 * sentiment_weight",
		},
	}
}

// lengthComponent favours longer, more specific matches, max 2 points
func (s *Scorer) lengthComponent(matched string) (float64, model.Signal) {
	n := utf8.RuneCountInString(matched)
	v := math.Min(float64(n)/10, 2)
	return v, model.Signal{
		Type:        model.SignalLength,
		Description: fmt.Sprintf("Matched text length %d", n),
		Data: map[string]any{
			"length":  n,
			"value":   v,
			"formula": "min(length / 10, 2)",
		},
	}
}

// Density returns case-insensitive occurrences of matched per 100 words of content
func Density(content, matched string) float64 {
	words := WordCount(content)
	if words == 0 || matched == "" {
		return 0
	}
	count := strings.Count(analysis.Fold(content), analysis.Fold(matched))
	return float64(count) / float64(words) * 100
}

// WordCount counts runs of letters, digits, apostrophes and hyphens
func WordCount(content string) int {
	return len(strings.FieldsFunc(content, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	}))
}

// TypeMultiplier weights a match by how it was found
func TypeMultiplier(t model.MatchType) float64 {
	switch t {
	case model.MatchPhrase:
		return 1.0
	case model.MatchToken:
		return 0.8
	case model.MatchSynonym:
		return 0.6
	case model.MatchFuzzy:
		return 0.4
	default:
		return 0.5
	}
}

// MatchScore is the average type-weighted confidence, rounded to 3 decimals
func MatchScore(matches []model.Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	total := 0.0
	for _, m := range matches {
		total += m.Confidence * TypeMultiplier(m.Type)
	}
	return round(total/float64(len(matches)), 3)
}

// Confidence is the average match confidence plus a coverage bonus of
// min(matches/tokens, 0.5), capped at 1 and rounded to 3 decimals
func Confidence(matches []model.Match, tokenCount int) float64 {
	if len(matches) == 0 || tokenCount == 0 {
		return 0
	}
	avg := AverageConfidence(matches)
	bonus := math.Min(float64(len(matches))/float64(tokenCount), 0.5)
	return round(math.Min(avg+bonus, 1.0), 3)
}

// AverageConfidence is the plain mean confidence
func AverageConfidence(matches []model.Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	total := 0.0
	for _, m := range matches {
		total += m.Confidence
	}
	return total / float64(len(matches))
}

// Clamp limits v to [0,1]
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
