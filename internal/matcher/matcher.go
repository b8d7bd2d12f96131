// Package matcher runs compiled keyword rules against content and produces
// ranked, scored match results.
package matcher

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/keywatch/internal/analysis"
	"github.com/ppiankov/keywatch/internal/compiler"
	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/score"
	"github.com/ppiankov/keywatch/internal/telemetry"
)

// ErrNilRule is returned when the rule list contains a nil entry
var ErrNilRule = errors.New("matcher: nil rule in rule list")

// Options carries the per-call inputs besides content and rules
type Options struct {
	Platform string
	Metadata model.Metadata
	Now      time.Time // zero = time.Now()
}

// Matcher is stateless between calls and safe for concurrent use
type Matcher struct {
	cfg      model.MatchingConfig
	analyzer *analysis.Analyzer
	scorer   *score.Scorer
	synonyms map[string][]string
	metrics  *telemetry.Metrics
	logger   logging.Logger
}

// Option configures a Matcher
type Option func(*Matcher)

// WithMetrics records rule evaluation metrics
func WithMetrics(m *telemetry.Metrics) Option {
	return func(mt *Matcher) { mt.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(mt *Matcher) { mt.logger = l }
}

// New creates a matcher
func New(cfg model.MatchingConfig, weights model.ScoringConfig, opts ...Option) *Matcher {
	m := &Matcher{
		cfg:      cfg,
		analyzer: analysis.NewAnalyzer(cfg),
		scorer:   score.NewScorer(weights),
		synonyms: mergeSynonyms(cfg.Synonyms),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrNop(m.logger)
	return m
}

// Match evaluates every rule against content. Empty content or an empty
// rule list yields an empty result. The context is checked between rules.
func (m *Matcher) Match(ctx context.Context, content string, rules []*compiler.CompiledRule, opts Options) ([]model.RuleMatchResult, error) {
	for _, r := range rules {
		if r == nil {
			return nil, ErrNilRule
		}
	}

	results := []model.RuleMatchResult{}
	if strings.TrimSpace(content) == "" || len(rules) == 0 {
		return results, nil
	}

	start := time.Now()
	now := opts.Now
	if now.IsZero() {
		now = start
	}

	doc := newDocument(content, m.analyzer)
	evaluated := 0
	var matchedCategories []string

	for _, cr := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		evaluated++

		if !m.passesFilters(cr, content, now, opts) {
			continue
		}

		matches := m.matchRule(cr, doc, opts.Metadata)
		if len(matches) == 0 {
			continue
		}

		view := doc.view(cr.Rule.CaseSensitive)
		results = append(results, model.RuleMatchResult{
			RuleID:     cr.Rule.ID,
			RuleName:   cr.Rule.Name,
			Category:   cr.Rule.Category,
			Priority:   cr.Rule.Priority,
			Matches:    matches,
			MatchScore: score.MatchScore(matches),
			Confidence: score.Confidence(matches, len(view.tokens)),
			Triggers:   cr.Rule.Triggers,
		})
		matchedCategories = append(matchedCategories, cr.Rule.Category)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].Priority > results[j].Priority
	})

	m.metrics.ObserveMatch(evaluated, matchedCategories, time.Since(start))
	m.logger.Debug("content matched",
		logging.Int("rules", evaluated),
		logging.Int("results", len(results)),
		logging.Int("content_runes", utf8.RuneCountInString(content)))

	return results, nil
}

// passesFilters applies the platform, date range and exclusion filters,
// then the optional audience filters
func (m *Matcher) passesFilters(cr *compiler.CompiledRule, content string, now time.Time, opts Options) bool {
	rule := &cr.Rule
	if !rule.AppliesTo(opts.Platform) {
		return false
	}
	if !rule.DateRange.Contains(now) {
		return false
	}
	if cr.Excluded(content) {
		return false
	}
	if !m.cfg.AudienceFilters {
		return true
	}

	if opts.Metadata.EngagementScore < rule.MinEngagement {
		return false
	}
	switch rule.SentimentFilter {
	case "", model.SentimentAny:
		return true
	}
	if opts.Metadata.SentimentScore == nil {
		return true
	}
	return model.SentimentLabel(*opts.Metadata.SentimentScore) == string(rule.SentimentFilter)
}

// matchRule accumulates matches from every applicable strategy, then
// deduplicates, applies conditions and scores what is left. Rules whose
// match type the scan does not satisfy contribute nothing; regex rules
// skip the token strategies since their terms are expressions.
func (m *Matcher) matchRule(cr *compiler.CompiledRule, doc *document, meta model.Metadata) []model.Match {
	rule := &cr.Rule

	spans := cr.Scan(doc.content)
	if !cr.Satisfied(doc.content, spans) {
		return nil
	}

	raw := m.scanMatches(cr, doc, spans)
	if rule.MatchType.Resolve() != model.MatchRegex {
		view := doc.view(rule.CaseSensitive)
		for _, term := range rule.Keywords {
			raw = append(raw, m.tokenMatches(term.Text(), view, rule)...)
		}
	}

	matches := dedupe(raw)
	if len(matches) == 0 {
		return nil
	}
	for i := range matches {
		matches[i].Confidence = score.Clamp(matches[i].Confidence)
	}
	if !conditionsPass(rule.Conditions, matches, doc.content) {
		return nil
	}

	for i := range matches {
		mt := &matches[i]
		mt.RuleID = rule.ID
		mt.RuleName = rule.Name
		mt.Category = rule.Category
		mt.Priority = rule.Priority
		mt.Density = score.Density(doc.content, mt.MatchedText)
		mt.Score = m.scorer.Relevance(score.Input{
			Priority:    rule.Priority,
			MatchedText: mt.MatchedText,
			Density:     mt.Density,
			Metadata:    meta,
		})
	}
	return matches
}

// Explain returns the score breakdown of a match
func (m *Matcher) Explain(mt model.Match, meta model.Metadata) []model.Signal {
	_, signals := m.scorer.Explain(score.Input{
		Priority:    mt.Priority,
		MatchedText: mt.MatchedText,
		Density:     mt.Density,
		Metadata:    meta,
	})
	return signals
}

// dedupe keeps the first match of every (keyword, matched text, type)
func dedupe(matches []model.Match) []model.Match {
	seen := make(map[model.MatchKey]struct{}, len(matches))
	out := matches[:0]
	for _, mt := range matches {
		k := mt.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, mt)
	}
	return out
}
