// Package pipeline turns documents and web pages into keywatch reports:
// fetch, visible text, sentiment, rule matching, trigger evaluation,
// statistics and entity extraction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/keywatch/internal/extract"
	"github.com/ppiankov/keywatch/internal/extract/adapters"
	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/matcher"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/ruleset"
	"github.com/ppiankov/keywatch/internal/score"
	"github.com/ppiankov/keywatch/internal/sentiment"
	"github.com/ppiankov/keywatch/internal/telemetry"
	"github.com/ppiankov/keywatch/internal/trigger"
)

// ErrNoFetcher is returned by ScanURL on a pipeline built without a fetcher
var ErrNoFetcher = errors.New("pipeline: no fetcher configured")

// Pipeline orchestrates the analysis of one document at a time. It is
// safe for concurrent use.
type Pipeline struct {
	rules     *ruleset.Store
	matcher   *matcher.Matcher
	evaluator *trigger.Evaluator
	sentiment sentiment.Analyzer
	fetcher   *Fetcher
	adapters  *adapters.Registry

	suggestLimit int
	metrics      *telemetry.Metrics
	logger       logging.Logger
	now          func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSentiment fills missing sentiment scores with a
func WithSentiment(a sentiment.Analyzer) Option {
	return func(p *Pipeline) { p.sentiment = a }
}

// WithFetcher enables ScanURL
func WithFetcher(f *Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithSuggestLimit sets how many keywords are suggested per report; 0 disables suggestions
func WithSuggestLimit(n int) Option {
	return func(p *Pipeline) { p.suggestLimit = n }
}

// WithMetrics records document and alert metrics
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline matching against the rules held by store
func New(store *ruleset.Store, m *matcher.Matcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:        store,
		matcher:      m,
		adapters:     adapters.NewRegistry(),
		suggestLimit: extract.DefaultSuggestLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrNop(p.logger)
	p.evaluator = trigger.NewEvaluator(trigger.WithMetrics(p.metrics), trigger.WithLogger(p.logger))
	return p
}

// Analyze matches one document against the current rule set and builds
// its report. A failing sentiment analyzer degrades to an unknown score.
func (p *Pipeline) Analyze(ctx context.Context, doc Document) (*model.Report, error) {
	set, err := p.rules.Rules(ctx)
	if err != nil {
		p.metrics.DocumentFailed("rules")
		return nil, fmt.Errorf("load rules: %w", err)
	}

	meta := doc.Metadata
	sent := p.sentimentFor(ctx, doc, &meta)

	results, err := p.matcher.Match(ctx, doc.Content, set.Rules, matcher.Options{
		Platform: doc.Platform,
		Metadata: meta,
		Now:      publishedOr(doc.PublishedAt),
	})
	if err != nil {
		p.metrics.DocumentFailed("match")
		return nil, fmt.Errorf("match %s: %w", doc.ID, err)
	}

	report := &model.Report{
		Source:        doc.Source,
		Platform:      doc.Platform,
		AnalyzedAt:    p.now().UTC(),
		ContentLength: utf8.RuneCountInString(doc.Content),
		Sentiment:     sent,
		Results:       results,
		Alert:         p.evaluator.Evaluate(results, doc.Platform),
		Stats:         score.Stats(results),
	}
	if report.Source == "" {
		report.Source = doc.ID
	}
	if top, ok := topMatch(results); ok {
		report.Signals = p.matcher.Explain(top, meta)
	}
	if ents := extract.Entities(doc.Content); !ents.Empty() {
		report.Entities = ents
	}
	if p.suggestLimit > 0 {
		report.SuggestedKeywords = extract.SuggestKeywords(doc.Content, p.suggestLimit)
	}

	p.metrics.DocumentProcessed(sourceKind(doc))
	p.logger.Debug("document analyzed",
		logging.String("id", doc.ID),
		logging.Int("results", len(results)),
		logging.Bool("alert", report.Alert.Triggered),
		logging.Uint64("ruleset_version", set.Version))

	return report, nil
}

// ScanURL fetches rawURL, extracts the page's main text and analyzes it.
// The platform is taken from the site adapter that handled the page.
func (p *Pipeline) ScanURL(ctx context.Context, rawURL string) (*model.Report, error) {
	if p.fetcher == nil {
		return nil, ErrNoFetcher
	}

	fetched, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		p.metrics.DocumentFailed("fetch")
		p.logger.Warn("fetch failed", logging.String("url", rawURL), logging.Error(err))
		return nil, fmt.Errorf("fetch: %w", err)
	}

	finalURL := fetched.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}

	doc := Document{ID: rawURL, Source: finalURL, Content: fetched.HTML}
	if extract.IsHTML(fetched.Meta.ContentType, fetched.HTML) {
		page, err := p.adapters.Extract(finalURL, fetched.HTML)
		if err != nil {
			p.metrics.DocumentFailed("extract")
			return nil, fmt.Errorf("extract %s: %w", finalURL, err)
		}
		doc.Content = page.Text
		doc.Platform = page.Platform
	} else {
		doc.Platform = p.adapters.FindAdapter(finalURL).Platform()
	}

	report, err := p.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}
	meta := fetched.Meta
	report.FetchMeta = &meta
	return report, nil
}

func (p *Pipeline) sentimentFor(ctx context.Context, doc Document, meta *model.Metadata) *model.SentimentResult {
	if meta.SentimentScore != nil {
		s := *meta.SentimentScore
		return &model.SentimentResult{Score: s, Label: model.SentimentLabel(s), Provider: "metadata"}
	}
	if p.sentiment == nil || doc.Content == "" {
		return nil
	}

	s, err := p.sentiment.Score(ctx, doc.Content)
	if err != nil {
		p.metrics.DocumentFailed("sentiment")
		p.logger.Warn("sentiment analysis failed",
			logging.String("id", doc.ID),
			logging.String("provider", p.sentiment.Name()),
			logging.Error(err))
		return nil
	}
	meta.SentimentScore = &s
	return &model.SentimentResult{Score: s, Label: model.SentimentLabel(s), Provider: p.sentiment.Name()}
}

// topMatch returns the highest scoring match of the best result
func topMatch(results []model.RuleMatchResult) (model.Match, bool) {
	if len(results) == 0 || len(results[0].Matches) == 0 {
		return model.Match{}, false
	}
	best := results[0].Matches[0]
	for _, m := range results[0].Matches[1:] {
		if m.Score > best.Score {
			best = m
		}
	}
	return best, true
}

func publishedOr(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func sourceKind(doc Document) string {
	if doc.Platform != "" {
		return doc.Platform
	}
	return "unknown"
}
