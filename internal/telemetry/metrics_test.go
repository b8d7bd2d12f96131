package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.ObserveMatch(3, []string{"security", ""}, 2*time.Millisecond)
	m.CompileFailed()
	m.RuleSetRebuilt("success", 3)
	m.AlertTriggered("score_threshold")
	m.DocumentProcessed("file")
	m.DocumentFailed("fetch")

	assert.Equal(t, 3.0, counterValue(t, m, "keywatch_rules_evaluated_total"))
	assert.Equal(t, 2.0, counterValue(t, m, "keywatch_rules_matched_total"))
	assert.Equal(t, 1.0, counterValue(t, m, "keywatch_compile_failures_total"))
	assert.Equal(t, 1.0, counterValue(t, m, "keywatch_alerts_triggered_total"))
	assert.Equal(t, 1.0, counterValue(t, m, "keywatch_documents_failed_total"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveMatch(1, nil, time.Second)
	m.CompileFailed()
	m.RuleSetRebuilt("error", 0)
	m.AlertTriggered("immediate")
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.CompileFailed()

	path := filepath.Join(t.TempDir(), "keywatch.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "keywatch_compile_failures_total 1"))
}
