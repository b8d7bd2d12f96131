// Package telemetry holds the Prometheus metrics of the matching engine.
// Metrics live on a private registry; a nil *Metrics records nothing.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "keywatch"

// Metrics holds all keywatch Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Rule engine
	RulesEvaluated  prometheus.Counter
	RulesMatched    *prometheus.CounterVec
	MatchDuration   prometheus.Histogram
	CompileFailures prometheus.Counter

	// Rule set cache
	RuleSetRebuilds *prometheus.CounterVec
	RulesLoaded     prometheus.Gauge

	// Alerts
	AlertsTriggered *prometheus.CounterVec

	// Documents
	DocumentsProcessed *prometheus.CounterVec
	DocumentsFailed    *prometheus.CounterVec
}

// New registers all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RulesEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_evaluated_total",
			Help:      "Rules evaluated against content",
		}),
		RulesMatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_matched_total",
			Help:      "Rules that produced at least one match, by category",
		}, []string{"category"}),
		MatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Time to match one content item against the rule set",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		CompileFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_failures_total",
			Help:      "Rule patterns that failed to compile and fell back to literal scanning",
		}),
		RuleSetRebuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ruleset_rebuilds_total",
			Help:      "Rule set rebuilds by result (success, error, stale)",
		}, []string{"result"}),
		RulesLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules_loaded",
			Help:      "Compiled rules in the current rule set",
		}),
		AlertsTriggered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Alert decisions by trigger type",
		}, []string{"trigger"}),
		DocumentsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents analyzed, by source kind",
		}, []string{"source"}),
		DocumentsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_failed_total",
			Help:      "Documents that failed analysis, by stage",
		}, []string{"stage"}),
	}
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveMatch records one matching pass
func (m *Metrics) ObserveMatch(evaluated int, matchedCategories []string, took time.Duration) {
	if m == nil {
		return
	}
	m.RulesEvaluated.Add(float64(evaluated))
	for _, c := range matchedCategories {
		if c == "" {
			c = "uncategorized"
		}
		m.RulesMatched.WithLabelValues(c).Inc()
	}
	m.MatchDuration.Observe(took.Seconds())
}

// CompileFailed records a pattern that degraded to literal scanning
func (m *Metrics) CompileFailed() {
	if m == nil {
		return
	}
	m.CompileFailures.Inc()
}

// RuleSetRebuilt records a rule set rebuild outcome
func (m *Metrics) RuleSetRebuilt(result string, rules int) {
	if m == nil {
		return
	}
	m.RuleSetRebuilds.WithLabelValues(result).Inc()
	if result == "success" {
		m.RulesLoaded.Set(float64(rules))
	}
}

// AlertTriggered records a fired trigger
func (m *Metrics) AlertTriggered(triggerType string) {
	if m == nil {
		return
	}
	m.AlertsTriggered.WithLabelValues(triggerType).Inc()
}

// DocumentProcessed records an analyzed document
func (m *Metrics) DocumentProcessed(source string) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.WithLabelValues(source).Inc()
}

// DocumentFailed records a document that failed at stage
func (m *Metrics) DocumentFailed(stage string) {
	if m == nil {
		return
	}
	m.DocumentsFailed.WithLabelValues(stage).Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
