package model

// MatchType identifies the strategy that produced a match
type MatchType string

const (
	MatchPhrase  MatchType = "phrase"
	MatchToken   MatchType = "token"
	MatchFuzzy   MatchType = "fuzzy"
	MatchSynonym MatchType = "synonym"
	MatchPattern MatchType = "pattern" // compiled rule pattern hit
	MatchLiteral MatchType = "literal" // substring fallback hit
)

// Match is a single keyword hit inside content
type Match struct {
	Keyword         string    `json:"keyword"`
	OriginalKeyword string    `json:"original_keyword,omitempty"` // synonym matches only
	MatchedText     string    `json:"matched_text"`
	Type            MatchType `json:"match_type"`

	// Position is a rune offset for pattern and literal matches, a token
	// index for phrase, token and synonym matches, and nil for fuzzy matches.
	Position *int `json:"position"`

	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`
	Density    float64 `json:"density"`
	Score      float64 `json:"score"`

	RuleID   int64    `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	Category string   `json:"category,omitempty"`
	Priority Priority `json:"priority"`
}

// Key returns the deduplication key of the match
func (m Match) Key() MatchKey {
	return MatchKey{Keyword: m.Keyword, MatchedText: m.MatchedText, Type: m.Type}
}

// MatchKey identifies a match within a rule's match set
type MatchKey struct {
	Keyword     string
	MatchedText string
	Type        MatchType
}

// RuleMatchResult aggregates the matches produced by one rule
type RuleMatchResult struct {
	RuleID     int64     `json:"rule_id"`
	RuleName   string    `json:"rule_name"`
	Category   string    `json:"category,omitempty"`
	Priority   Priority  `json:"priority"`
	Matches    []Match   `json:"matches"`
	MatchScore float64   `json:"match_score"`
	Confidence float64   `json:"confidence"`
	Triggers   []Trigger `json:"triggers,omitempty"`
}

// Metadata accompanies content submitted for matching
type Metadata struct {
	EngagementScore float64        `json:"engagement_score,omitempty" yaml:"engagement_score,omitempty"`
	SentimentScore  *float64       `json:"sentiment_score,omitempty" yaml:"sentiment_score,omitempty"` // [-1,1]; nil = unknown
	Extra           map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Sentiment returns the sentiment score, or 0 when unknown
func (m Metadata) Sentiment() float64 {
	if m.SentimentScore == nil {
		return 0
	}
	return *m.SentimentScore
}

// MatchStats summarizes a set of rule results
type MatchStats struct {
	TotalMatches         int               `json:"total_matches"`
	UniqueRules          int               `json:"unique_rules"`
	AvgScore             float64           `json:"avg_score"`
	MaxScore             float64           `json:"max_score"`
	MinScore             float64           `json:"min_score"`
	TopCategories        []CategoryCount   `json:"top_categories,omitempty"`
	PriorityDistribution map[string]int    `json:"priority_distribution,omitempty"` // keyed by Priority.Label()
	ByType               map[MatchType]int `json:"by_type,omitempty"`
}

// CategoryCount is a category with its match count
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
