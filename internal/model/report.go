package model

import "time"

// Report is the complete keywatch analysis of one document
type Report struct {
	Source        string     `json:"source"`             // URL, file path or document id
	Platform      string     `json:"platform,omitempty"` // platform the content was published on
	AnalyzedAt    time.Time  `json:"analyzed_at"`
	ContentLength int        `json:"content_length"` // runes
	FetchMeta     *FetchMeta `json:"fetch_meta,omitempty"`

	Sentiment *SentimentResult `json:"sentiment,omitempty"`

	Results []RuleMatchResult `json:"results"`
	Alert   AlertDecision     `json:"alert"`
	Stats   MatchStats        `json:"stats"`
	Signals []Signal          `json:"signals,omitempty"` // score breakdown of the top result

	Entities          *Entities `json:"entities,omitempty"`
	SuggestedKeywords []string  `json:"suggested_keywords,omitempty"`
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// SentimentResult records where a document's sentiment score came from
type SentimentResult struct {
	Score    float64 `json:"score"`    // [-1,1]
	Label    string  `json:"label"`    // positive, negative, neutral
	Provider string  `json:"provider"` // metadata, lexicon, openai, ollama
}

// SentimentLabel buckets a score into positive, negative or neutral
func SentimentLabel(score float64) string {
	switch {
	case score > 0.1:
		return string(SentimentPositive)
	case score < -0.1:
		return string(SentimentNegative)
	default:
		return string(SentimentNeutral)
	}
}

// AlertDecision is the outcome of trigger evaluation
type AlertDecision struct {
	Triggered bool     `json:"triggered"`
	RuleID    int64    `json:"rule_id,omitempty"`
	RuleName  string   `json:"rule_name,omitempty"`
	Trigger   *Trigger `json:"trigger,omitempty"`
	Keyword   string   `json:"keyword,omitempty"`
}

// Entities are structured tokens found in content
type Entities struct {
	Symbols   []string `json:"symbols,omitempty"`   // $BTC style tickers
	Addresses []string `json:"addresses,omitempty"` // 0x contract / wallet addresses
	URLs      []string `json:"urls,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
}

// Empty reports whether no entity was found
func (e *Entities) Empty() bool {
	return e == nil || len(e.Symbols)+len(e.Addresses)+len(e.URLs)+len(e.Hashtags)+len(e.Mentions) == 0
}

// Signal is one transparent component of a score
type Signal struct {
	Type        SignalType     `json:"type"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"` // inputs, weight and formula
}

// SignalType classifies a score component
type SignalType string

const (
	SignalPriority   SignalType = "priority"
	SignalDensity    SignalType = "density"
	SignalEngagement SignalType = "engagement"
	SignalSentiment  SignalType = "sentiment"
	SignalLength     SignalType = "length"
	SignalCoverage   SignalType = "coverage"
)
