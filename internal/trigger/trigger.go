// Package trigger decides whether rule match results should raise an alert.
package trigger

import (
	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/telemetry"
)

// Default thresholds
const (
	DefaultScoreThreshold    = 5.0
	DefaultPriorityThreshold = 8.0
	DefaultDensityThreshold  = 1.0
)

// Evaluator evaluates rule triggers against match results
type Evaluator struct {
	metrics *telemetry.Metrics
	logger  logging.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithMetrics counts fired alerts
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// NewEvaluator creates an evaluator
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// ShouldTriggerAlert reports whether any trigger of any result fires
func ShouldTriggerAlert(results []model.RuleMatchResult, platform string) bool {
	return Evaluate(results, platform).Triggered
}

// Evaluate returns the first satisfied trigger, walking results in order,
// then their matches, then the rule's triggers
func Evaluate(results []model.RuleMatchResult, platform string) model.AlertDecision {
	for _, r := range results {
		if len(r.Triggers) == 0 {
			continue
		}
		for _, m := range r.Matches {
			for i := range r.Triggers {
				t := r.Triggers[i]
				if !fires(t, m, platform) {
					continue
				}
				return model.AlertDecision{
					Triggered: true,
					RuleID:    r.RuleID,
					RuleName:  r.RuleName,
					Trigger:   &t,
					Keyword:   m.Keyword,
				}
			}
		}
	}
	return model.AlertDecision{}
}

// Evaluate is the package Evaluate with logging and metrics
func (e *Evaluator) Evaluate(results []model.RuleMatchResult, platform string) model.AlertDecision {
	d := Evaluate(results, platform)
	if d.Triggered {
		e.metrics.AlertTriggered(string(d.Trigger.Kind()))
		e.logger.Info("alert triggered",
			logging.Int64("rule_id", d.RuleID),
			logging.String("rule", d.RuleName),
			logging.String("trigger", string(d.Trigger.Kind())),
			logging.String("keyword", d.Keyword))
	}
	return d
}

// fires evaluates one trigger against one match. Unknown types never fire.
func fires(t model.Trigger, m model.Match, platform string) bool {
	switch t.Kind() {
	case model.TriggerScoreThreshold:
		return m.Score >= t.ThresholdOr(DefaultScoreThreshold)
	case model.TriggerPriorityThreshold:
		return float64(m.Priority) >= t.ThresholdOr(DefaultPriorityThreshold)
	case model.TriggerPlatformSpecific:
		return platform != "" && platform == t.Platform
	case model.TriggerDensityThreshold:
		return m.Density >= t.ThresholdOr(DefaultDensityThreshold)
	case model.TriggerImmediate:
		return true
	default:
		return false
	}
}
