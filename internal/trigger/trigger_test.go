package trigger

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/telemetry"
)

func threshold(v float64) *float64 { return &v }

func result(m model.Match, triggers ...model.Trigger) model.RuleMatchResult {
	return model.RuleMatchResult{RuleID: 1, RuleName: "r", Matches: []model.Match{m}, Triggers: triggers}
}

func TestShouldTriggerAlert(t *testing.T) {
	tests := []struct {
		name     string
		match    model.Match
		trigger  model.Trigger
		platform string
		want     bool
	}{
		{"score above threshold", model.Match{Score: 6}, model.Trigger{Type: model.TriggerScoreThreshold, Threshold: threshold(5)}, "", true},
		{"score below threshold", model.Match{Score: 6}, model.Trigger{Type: model.TriggerScoreThreshold, Threshold: threshold(7)}, "", false},
		{"score at threshold", model.Match{Score: 7}, model.Trigger{Type: model.TriggerScoreThreshold, Threshold: threshold(7)}, "", true},
		{"score default threshold", model.Match{Score: 5}, model.Trigger{Type: model.TriggerScoreThreshold}, "", true},
		{"empty type is score", model.Match{Score: 4.9}, model.Trigger{}, "", false},
		{"priority default", model.Match{Priority: model.PriorityHigh}, model.Trigger{Type: model.TriggerPriorityThreshold}, "", true},
		{"priority low", model.Match{Priority: model.PriorityNormal}, model.Trigger{Type: model.TriggerPriorityThreshold}, "", false},
		{"platform equal", model.Match{}, model.Trigger{Type: model.TriggerPlatformSpecific, Platform: "twitter"}, "twitter", true},
		{"platform case differs", model.Match{}, model.Trigger{Type: model.TriggerPlatformSpecific, Platform: "twitter"}, "Twitter", false},
		{"platform differs", model.Match{}, model.Trigger{Type: model.TriggerPlatformSpecific, Platform: "twitter"}, "reddit", false},
		{"platform missing", model.Match{}, model.Trigger{Type: model.TriggerPlatformSpecific, Platform: "twitter"}, "", false},
		{"density default", model.Match{Density: 1.0}, model.Trigger{Type: model.TriggerDensityThreshold}, "", true},
		{"density low", model.Match{Density: 0.5}, model.Trigger{Type: model.TriggerDensityThreshold}, "", false},
		{"immediate", model.Match{}, model.Trigger{Type: model.TriggerImmediate}, "", true},
		{"unknown fails closed", model.Match{Score: 100}, model.Trigger{Type: "page_someone"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldTriggerAlert([]model.RuleMatchResult{result(tt.match, tt.trigger)}, tt.platform)
			if got != tt.want {
				t.Errorf("ShouldTriggerAlert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldTriggerAlert_NoTriggers(t *testing.T) {
	if ShouldTriggerAlert(nil, "") {
		t.Error("nil results should not trigger")
	}
	if ShouldTriggerAlert([]model.RuleMatchResult{result(model.Match{Score: 100})}, "") {
		t.Error("results without triggers should not trigger")
	}
}

func TestEvaluate_FirstSatisfiedTrigger(t *testing.T) {
	results := []model.RuleMatchResult{
		result(model.Match{Keyword: "quiet", Score: 1}, model.Trigger{Type: model.TriggerScoreThreshold}),
		{
			RuleID:   2,
			RuleName: "loud",
			Matches:  []model.Match{{Keyword: "low", Score: 1}, {Keyword: "high", Score: 9}},
			Triggers: []model.Trigger{{Type: "bogus"}, {Type: model.TriggerScoreThreshold, Threshold: threshold(8)}},
		},
	}

	d := Evaluate(results, "")
	if !d.Triggered {
		t.Fatal("expected an alert")
	}
	if d.RuleID != 2 || d.Keyword != "high" || d.Trigger.Kind() != model.TriggerScoreThreshold {
		t.Errorf("unexpected decision: %+v", d)
	}
}

func TestEvaluator_LogsAndCounts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := telemetry.New()
	e := NewEvaluator(WithLogger(logging.NewWithCore(core)), WithMetrics(metrics))

	d := e.Evaluate([]model.RuleMatchResult{result(model.Match{Keyword: "hack"}, model.Trigger{Type: model.TriggerImmediate})}, "")
	if !d.Triggered {
		t.Fatal("expected an alert")
	}
	if logs.FilterMessage("alert triggered").Len() != 1 {
		t.Errorf("expected one alert log entry, got %d", logs.Len())
	}

	families, err := metrics.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var fired float64
	for _, f := range families {
		if f.GetName() != "keywatch_alerts_triggered_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			fired += m.GetCounter().GetValue()
		}
	}
	if fired != 1 {
		t.Errorf("alerts counted = %v, want 1", fired)
	}

	if e.Evaluate(nil, "").Triggered {
		t.Error("empty results should not trigger")
	}
}
