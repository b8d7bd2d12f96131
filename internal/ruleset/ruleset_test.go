package ruleset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/keywatch/internal/compiler"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/telemetry"
)

const yamlRules = `
rules:
  - id: 1
    name: exploits
    priority: urgent
    keywords: [exploit, "flash loan"]
  - id: 2
    name: scams
    priority: low
    keywords: [rug pull]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileLoader(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    int
	}{
		{"yaml document", "rules.yaml", yamlRules, 2},
		{"yaml list", "rules.yml", "- id: 1\n  name: a\n  keywords: [x]\n", 1},
		{"json document", "rules.json", `{"rules":[{"id":1,"name":"a","keywords":["x"]}]}`, 1},
		{"json list", "rules.json", `[{"id":1,"keywords":["x"]},{"id":2,"keywords":["y"]}]`, 2},
		{"empty", "rules.yaml", "  \n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := FileLoader{Path: writeFile(t, tt.file, tt.content)}.Load(context.Background())
			require.NoError(t, err)
			assert.Len(t, rules, tt.want)
		})
	}
}

func TestFileLoader_Errors(t *testing.T) {
	_, err := FileLoader{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = FileLoader{Path: writeFile(t, "bad.json", `{"rules": [`)}.Load(context.Background())
	assert.Error(t, err)

	_, err = Parse([]byte("x"), "toml")
	assert.ErrorContains(t, err, "unknown rule format")
}

type countingLoader struct {
	calls atomic.Int32
	rules []model.KeywordRule
	err   error
	gate  chan struct{}
}

func (l *countingLoader) Load(ctx context.Context) ([]model.KeywordRule, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.rules, l.err
}

func testRules() []model.KeywordRule {
	return []model.KeywordRule{
		{ID: 1, Name: "a", Keywords: model.Terms{model.Literal("hack")}, Priority: model.PriorityLow},
		{ID: 2, Name: "b", Keywords: model.Terms{model.Literal("exploit")}, Priority: model.PriorityUrgent},
	}
}

func TestStore_CachesUntilInvalidated(t *testing.T) {
	loader := &countingLoader{rules: testRules()}
	store := NewStore(loader, compiler.New(true))

	first, err := store.Rules(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Rules, 2)
	assert.Equal(t, int64(2), first.Rules[0].Rule.ID, "compiled set is priority ordered")

	second, err := store.Rules(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loader.calls.Load())

	store.Invalidate()
	third, err := store.Rules(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Greater(t, third.Version, first.Version)
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Same(t, third, store.Current())
}

func TestStore_TTLExpiry(t *testing.T) {
	loader := &countingLoader{rules: testRules()}
	store := NewStore(loader, compiler.New(true), WithTTL(20*time.Millisecond))

	_, err := store.Rules(context.Background())
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = store.Rules(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestStore_ConcurrentRebuildsCollapse(t *testing.T) {
	loader := &countingLoader{rules: testRules(), gate: make(chan struct{})}
	store := NewStore(loader, compiler.New(true))

	var wg sync.WaitGroup
	sets := make([]*RuleSet, 8)
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set, err := store.Rules(context.Background())
			assert.NoError(t, err)
			sets[i] = set
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(loader.gate)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, s := range sets {
		assert.Same(t, sets[0], s)
	}
}

func TestStore_StaleOnFailure(t *testing.T) {
	metrics := telemetry.New()
	loader := &countingLoader{rules: testRules()}
	store := NewStore(loader, compiler.New(true), WithMetrics(metrics))

	good, err := store.Rules(context.Background())
	require.NoError(t, err)

	loader.err = errors.New("database down")
	stale, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, stale)

	loader.err = nil
	loader.rules = nil
	stale, err = store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, stale)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RulesLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RuleSetRebuilds.WithLabelValues("stale")))
}

func TestStore_StaleSetIsRecached(t *testing.T) {
	loader := &countingLoader{rules: testRules()}
	store := NewStore(loader, compiler.New(true))

	good, err := store.Rules(context.Background())
	require.NoError(t, err)

	loader.err = errors.New("database down")
	_, err = store.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), loader.calls.Load())

	for i := 0; i < 5; i++ {
		set, err := store.Rules(context.Background())
		require.NoError(t, err)
		assert.Same(t, good, set)
	}
	assert.Equal(t, int32(2), loader.calls.Load(), "stale set served from cache")
}

func TestStore_StaleSetRetriesAfterShortTTL(t *testing.T) {
	loader := &countingLoader{rules: testRules()}
	store := NewStore(loader, compiler.New(true), WithTTL(20*time.Millisecond))

	good, err := store.Rules(context.Background())
	require.NoError(t, err)

	loader.err = errors.New("database down")
	_, err = store.Refresh(context.Background())
	require.NoError(t, err)

	loader.err = nil
	time.Sleep(40 * time.Millisecond)
	fresh, err := store.Rules(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, good, fresh)
	assert.Equal(t, int32(3), loader.calls.Load())
}

func TestStore_NoRules(t *testing.T) {
	store := NewStore(&countingLoader{rules: []model.KeywordRule{{ID: 1, Disabled: true}}}, compiler.New(true))
	_, err := store.Rules(context.Background())
	assert.ErrorIs(t, err, ErrNoRules)

	failing := NewStore(&countingLoader{err: errors.New("boom")}, compiler.New(true))
	_, err = failing.Rules(context.Background())
	assert.ErrorContains(t, err, "load rules: boom")
}

func TestStore_CountsDegradedRules(t *testing.T) {
	rules := []model.KeywordRule{{ID: 1, Keywords: model.Terms{model.Literal("([")}, MatchType: model.MatchRegex}}
	store := NewStore(Static(rules), compiler.New(true))

	set, err := store.Rules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Degraded)
}

func TestStore_ContextCanceled(t *testing.T) {
	loader := &countingLoader{rules: testRules(), gate: make(chan struct{})}
	defer close(loader.gate)
	store := NewStore(loader, compiler.New(true))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := store.Rules(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type signal chan struct{}

func (s signal) Invalidate() {
	select {
	case s <- struct{}{}:
	default:
	}
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	path := writeFile(t, "rules.yaml", yamlRules)
	got := make(signal, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path, got, WithDebounce(10*time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(yamlRules+"\n"), 0o644))

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not invalidate")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestHighPriorityKeywords(t *testing.T) {
	rules := []model.KeywordRule{
		{ID: 1, Keywords: model.Terms{model.Literal("normal")}, Priority: model.PriorityNormal},
		{ID: 2, Keywords: model.Terms{model.Literal("high"), model.Literal("shared")}, Priority: model.PriorityHigh},
		{ID: 3, Keywords: model.Terms{model.Literal("urgent"), model.Literal("shared")}, Priority: model.PriorityUrgent},
		{ID: 4, Keywords: model.Terms{model.Literal("reddit only")}, Priority: model.PriorityUrgent, Platforms: []string{"reddit"}},
		{ID: 5, Keywords: model.Terms{model.Literal("off")}, Priority: model.PriorityUrgent, Disabled: true},
	}

	assert.Equal(t, []string{"urgent", "shared", "high"}, HighPriorityKeywords(rules, "twitter", 0))
	assert.Equal(t, []string{"urgent", "shared", "reddit only", "high"}, HighPriorityKeywords(rules, "reddit", 0))
	assert.Equal(t, []string{"urgent"}, HighPriorityKeywords(rules, "twitter", 1))
}
