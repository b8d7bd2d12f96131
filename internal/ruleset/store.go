package ruleset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/keywatch/internal/compiler"
	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/telemetry"
)

// ErrNoRules is returned when the loader yields no enabled rules and no
// previous set exists
var ErrNoRules = errors.New("ruleset: no rules loaded")

const cacheKey = "compiled"

// DefaultTTL is the rule set lifetime when none is configured
const DefaultTTL = time.Hour

// staleRetryTTL bounds how long a stale set is served before the loader is
// tried again
const staleRetryTTL = 30 * time.Second

// RuleSet is one complete, immutable compiled rule set
type RuleSet struct {
	Rules    []*compiler.CompiledRule
	Source   []model.KeywordRule
	BuiltAt  time.Time
	Version  uint64
	Degraded int // rules that fell back to literal scanning
}

// Store owns the compiled rule set. Rebuilds happen on TTL expiry or
// invalidation; concurrent callers share one rebuild. Readers always get
// a complete set.
type Store struct {
	loader   Loader
	compiler *compiler.Compiler
	ttl      time.Duration

	cache   *gocache.Cache
	group   singleflight.Group
	current atomic.Pointer[RuleSet]
	version atomic.Uint64

	logger  logging.Logger
	metrics *telemetry.Metrics
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithTTL sets the rule set lifetime
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithMetrics records rebuild outcomes
func WithMetrics(m *telemetry.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store. Nothing is loaded until the first Rules call.
func NewStore(loader Loader, c *compiler.Compiler, opts ...StoreOption) *Store {
	s := &Store{loader: loader, compiler: c, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	s.logger = logging.OrNop(s.logger)
	s.cache = gocache.New(s.ttl, 0)
	return s
}

// Rules returns the current rule set, rebuilding it when it has expired or
// was invalidated
func (s *Store) Rules(ctx context.Context) (*RuleSet, error) {
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(*RuleSet), nil
	}

	ch := s.group.DoChan(cacheKey, func() (any, error) {
		return s.rebuild(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RuleSet), nil
	}
}

// Current returns the last built set without triggering a rebuild, or nil
func (s *Store) Current() *RuleSet {
	return s.current.Load()
}

// Invalidate marks the set stale; the next Rules call rebuilds it
func (s *Store) Invalidate() {
	s.cache.Delete(cacheKey)
}

// Refresh invalidates and rebuilds immediately
func (s *Store) Refresh(ctx context.Context) (*RuleSet, error) {
	s.Invalidate()
	s.group.Forget(cacheKey)
	return s.Rules(ctx)
}

func (s *Store) rebuild(ctx context.Context) (*RuleSet, error) {
	start := time.Now()

	rules, err := s.loader.Load(ctx)
	if err == nil && countEnabled(rules) == 0 {
		err = ErrNoRules
	}
	if err != nil {
		if prev := s.current.Load(); prev != nil {
			s.logger.Warn("rule set rebuild failed, serving stale set",
				logging.Error(err),
				logging.Uint64("version", prev.Version))
			s.metrics.RuleSetRebuilt("stale", len(prev.Rules))
			s.cache.Set(cacheKey, prev, min(s.ttl, staleRetryTTL))
			return prev, nil
		}
		s.metrics.RuleSetRebuilt("error", 0)
		if errors.Is(err, ErrNoRules) {
			return nil, err
		}
		return nil, fmt.Errorf("load rules: %w", err)
	}

	compiled := s.compiler.CompileAll(rules)
	set := &RuleSet{
		Rules:   compiled,
		Source:  rules,
		BuiltAt: time.Now(),
		Version: s.version.Add(1),
	}
	for _, cr := range compiled {
		if cr.Err != nil {
			set.Degraded++
		}
	}

	s.current.Store(set)
	s.cache.Set(cacheKey, set, s.ttl)
	s.metrics.RuleSetRebuilt("success", len(compiled))
	s.logger.Info("rule set built",
		logging.Int("rules", len(compiled)),
		logging.Int("degraded", set.Degraded),
		logging.Uint64("version", set.Version),
		logging.Duration("took", time.Since(start)))

	return set, nil
}

func countEnabled(rules []model.KeywordRule) int {
	n := 0
	for _, r := range rules {
		if !r.Disabled {
			n++
		}
	}
	return n
}

func sortByPriority(rules []model.KeywordRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}
