package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// KeywordRule is a declarative keyword rule supplied by the rule owner
type KeywordRule struct {
	ID              int64           `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	Description     string          `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords        Terms           `json:"keywords" yaml:"keywords"`
	Platforms       []string        `json:"platforms,omitempty" yaml:"platforms,omitempty"` // empty = every platform
	Priority        Priority        `json:"priority" yaml:"priority"`
	Category        string          `json:"category,omitempty" yaml:"category,omitempty"`
	MatchType       MatchMode       `json:"match_type,omitempty" yaml:"match_type,omitempty"`
	CaseSensitive   bool            `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
	ContextRadius   int             `json:"context_radius,omitempty" yaml:"context_radius,omitempty"` // characters around a match
	MinEngagement   float64         `json:"min_engagement,omitempty" yaml:"min_engagement,omitempty"`
	SentimentFilter SentimentFilter `json:"sentiment_filter,omitempty" yaml:"sentiment_filter,omitempty"`
	DateRange       *DateRange      `json:"date_range,omitempty" yaml:"date_range,omitempty"`
	Exclusions      []string        `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
	Triggers        []Trigger       `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Conditions      []Condition     `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Disabled        bool            `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DefaultContextRadius is used when a rule does not set one
const DefaultContextRadius = 50

// Radius returns the context radius, falling back to the default
func (r *KeywordRule) Radius() int {
	if r.ContextRadius <= 0 {
		return DefaultContextRadius
	}
	return r.ContextRadius
}

// AppliesTo reports whether the rule targets the platform.
// An empty platform or an empty platform set always applies.
func (r *KeywordRule) AppliesTo(platform string) bool {
	if platform == "" || len(r.Platforms) == 0 {
		return true
	}
	for _, p := range r.Platforms {
		if strings.EqualFold(p, platform) {
			return true
		}
	}
	return false
}

// Validate reports problems that degrade matching. It never blocks matching;
// callers log the result.
func (r *KeywordRule) Validate() error {
	var errs []error

	if len(r.Keywords) == 0 {
		errs = append(errs, errors.New("no keywords"))
	}
	for i, term := range r.Keywords {
		if strings.TrimSpace(term.Text()) == "" {
			errs = append(errs, fmt.Errorf("keyword %d is empty", i))
		}
	}
	if !r.MatchType.Known() {
		errs = append(errs, fmt.Errorf("unknown match type %q (treated as %q)", r.MatchType, MatchAny))
	}
	if r.ContextRadius < 0 {
		errs = append(errs, fmt.Errorf("negative context radius %d", r.ContextRadius))
	}
	if !r.SentimentFilter.Known() {
		errs = append(errs, fmt.Errorf("unknown sentiment filter %q", r.SentimentFilter))
	}
	if r.DateRange != nil && r.DateRange.Start != nil && r.DateRange.End != nil &&
		r.DateRange.End.Before(*r.DateRange.Start) {
		errs = append(errs, errors.New("date range ends before it starts"))
	}
	for _, t := range r.Triggers {
		if !t.Kind().Known() {
			errs = append(errs, fmt.Errorf("unknown trigger type %q (never fires)", t.Type))
		}
	}
	for _, c := range r.Conditions {
		if !c.Type.Known() {
			errs = append(errs, fmt.Errorf("unknown condition type %q (ignored)", c.Type))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("rule %d (%s): %w", r.ID, r.Name, errors.Join(errs...))
}

// MatchMode controls how a rule's keyword patterns are combined
type MatchMode string

const (
	MatchAny   MatchMode = "any"   // first-match alternation
	MatchAll   MatchMode = "all"   // every term must match somewhere
	MatchExact MatchMode = "exact" // whole content equals one term
	MatchRegex MatchMode = "regex" // terms are raw expressions
)

// Known reports whether the mode is one of the defined modes (empty = any)
func (m MatchMode) Known() bool {
	switch m {
	case "", MatchAny, MatchAll, MatchExact, MatchRegex:
		return true
	}
	return false
}

// Resolve maps empty and unknown modes to MatchAny
func (m MatchMode) Resolve() MatchMode {
	switch m {
	case MatchAll, MatchExact, MatchRegex:
		return m
	default:
		return MatchAny
	}
}

// Priority is a rule priority. Higher is more important. Categorical labels
// are mapped onto fixed numeric bands.
type Priority int

// Numeric bands for categorical priorities
const (
	PriorityLow    Priority = 2
	PriorityNormal Priority = 5
	PriorityHigh   Priority = 8
	PriorityUrgent Priority = 10
)

// ParsePriority parses an integer or a label (urgent, high, normal, medium, low).
// Unknown labels map to PriorityNormal.
func ParsePriority(s string) Priority {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Priority(n)
	}
	switch strings.ToLower(s) {
	case "urgent", "critical":
		return PriorityUrgent
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Label returns the categorical band of the priority
func (p Priority) Label() string {
	switch {
	case p >= PriorityUrgent:
		return "urgent"
	case p >= PriorityHigh:
		return "high"
	case p >= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// UnmarshalYAML accepts integers and labels
func (p *Priority) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: priority must be a number or a label", node.Line)
	}
	*p = ParsePriority(node.Value)
	return nil
}

// UnmarshalJSON accepts numbers and labels
func (p *Priority) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Priority(int(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("priority must be a number or a label: %w", err)
	}
	*p = ParsePriority(s)
	return nil
}

// DateRange bounds when a rule is active. Either end may be open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End   *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// Contains reports whether t falls inside the range (inclusive)
func (d *DateRange) Contains(t time.Time) bool {
	if d == nil {
		return true
	}
	if d.Start != nil && t.Before(*d.Start) {
		return false
	}
	if d.End != nil && t.After(*d.End) {
		return false
	}
	return true
}

// SentimentFilter restricts a rule to content of a given polarity
type SentimentFilter string

const (
	SentimentAny      SentimentFilter = "any"
	SentimentPositive SentimentFilter = "positive"
	SentimentNegative SentimentFilter = "negative"
	SentimentNeutral  SentimentFilter = "neutral"
)

// Known reports whether the filter is defined (empty = any)
func (f SentimentFilter) Known() bool {
	switch f {
	case "", SentimentAny, SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// TriggerType classifies an alert trigger
type TriggerType string

const (
	TriggerScoreThreshold    TriggerType = "score_threshold"
	TriggerPriorityThreshold TriggerType = "priority_threshold"
	TriggerPlatformSpecific  TriggerType = "platform_specific"
	TriggerDensityThreshold  TriggerType = "density_threshold"
	TriggerImmediate         TriggerType = "immediate"
)

// Known reports whether the trigger type is defined
func (t TriggerType) Known() bool {
	switch t {
	case TriggerScoreThreshold, TriggerPriorityThreshold, TriggerPlatformSpecific,
		TriggerDensityThreshold, TriggerImmediate:
		return true
	}
	return false
}

// Trigger is an alert condition attached to a rule
type Trigger struct {
	Type      TriggerType `json:"type,omitempty" yaml:"type,omitempty"`
	Threshold *float64    `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Platform  string      `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// Kind returns the trigger type; an empty type is a score threshold
func (t Trigger) Kind() TriggerType {
	if t.Type == "" {
		return TriggerScoreThreshold
	}
	return t.Type
}

// ThresholdOr returns the configured threshold or def
func (t Trigger) ThresholdOr(def float64) float64 {
	if t.Threshold == nil {
		return def
	}
	return *t.Threshold
}

// ConditionType classifies a rule condition
type ConditionType string

const (
	ConditionMinMatches      ConditionType = "min_matches"
	ConditionMaxMatches      ConditionType = "max_matches"
	ConditionContextRequired ConditionType = "context_required"
	ConditionExcludeWords    ConditionType = "exclude_words"
	ConditionMinConfidence   ConditionType = "min_confidence"
	ConditionContentLength   ConditionType = "content_length"
)

// Known reports whether the condition type is defined
func (c ConditionType) Known() bool {
	switch c {
	case ConditionMinMatches, ConditionMaxMatches, ConditionContextRequired,
		ConditionExcludeWords, ConditionMinConfidence, ConditionContentLength:
		return true
	}
	return false
}

// Condition is a predicate over a rule's accumulated matches
type Condition struct {
	Type      ConditionType `json:"type" yaml:"type"`
	Value     *float64      `json:"value,omitempty" yaml:"value,omitempty"`
	Context   []string      `json:"context,omitempty" yaml:"context,omitempty"`
	Words     []string      `json:"words,omitempty" yaml:"words,omitempty"`
	MinLength *int          `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int          `json:"max_length,omitempty" yaml:"max_length,omitempty"`
}

// ValueOr returns the configured value or def
func (c Condition) ValueOr(def float64) float64 {
	if c.Value == nil {
		return def
	}
	return *c.Value
}
