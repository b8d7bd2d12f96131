// Package compiler turns declarative keyword rules into executable matchers.
package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/ppiankov/keywatch/internal/analysis"
	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/telemetry"
)

// Strategy is the scanning strategy resolved for a rule
type Strategy string

const (
	StrategyPattern Strategy = "pattern" // compiled rule pattern
	StrategyLiteral Strategy = "literal" // per-keyword substring scan
)

// Error is a rule pattern that failed to compile. The rule still matches
// through literal scanning.
type Error struct {
	RuleID  int64
	Pattern string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rule %d: compile pattern %q: %v", e.RuleID, e.Pattern, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CompiledRule is a rule ready for matching. It is read-only after
// compilation and safe for concurrent use.
type CompiledRule struct {
	Rule     model.KeywordRule
	Pattern  *Pattern // nil for the literal strategy
	Strategy Strategy
	Err      *Error // set when the pattern degraded to literal scanning

	literals []*regexp.Regexp

	exclusionMu sync.Mutex
	exclusions  *ahocorasick.Matcher
}

// Span is one hit in content, in byte offsets
type Span struct {
	Start int
	End   int
	Term  int // index into Rule.Keywords
}

// Scan returns every hit of the rule's keywords in content using the
// resolved strategy
func (c *CompiledRule) Scan(content string) []Span {
	if c.Pattern != nil {
		return c.Pattern.FindAll(content)
	}

	var spans []Span
	for i, re := range c.literals {
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(content, -1) {
			spans = append(spans, Span{Start: loc[0], End: loc[1], Term: i})
		}
	}
	return spans
}

// Satisfied reports whether the spans Scan found for content meet the
// rule's match type. "any" rules always pass; the other modes are decided
// by the pattern alone, or by the literal scan when there is no pattern.
func (c *CompiledRule) Satisfied(content string, spans []Span) bool {
	switch c.Rule.MatchType.Resolve() {
	case model.MatchAll:
		if c.Pattern != nil {
			return len(spans) > 0
		}
		hit := make(map[int]bool, len(spans))
		for _, s := range spans {
			hit[s.Term] = true
		}
		for i, re := range c.literals {
			if re != nil && !hit[i] {
				return false
			}
		}
		return len(hit) > 0

	case model.MatchExact:
		if c.Pattern != nil {
			return len(spans) > 0
		}
		for _, s := range spans {
			if s.Start == 0 && s.End == len(content) {
				return true
			}
		}
		return false

	case model.MatchRegex:
		return len(spans) > 0

	default:
		return true
	}
}

// Excluded reports whether content contains any exclusion term
func (c *CompiledRule) Excluded(content string) bool {
	if c.exclusions == nil {
		return false
	}
	if !c.Rule.CaseSensitive {
		content = analysis.Fold(content)
	}

	c.exclusionMu.Lock()
	defer c.exclusionMu.Unlock()
	return len(c.exclusions.Match([]byte(content))) > 0
}

// Compiler builds CompiledRules
type Compiler struct {
	useRegex bool
	logger   logging.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Compiler
type Option func(*Compiler)

// WithLogger logs compile failures
func WithLogger(l logging.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithMetrics counts compile failures
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Compiler) { c.metrics = m }
}

// New creates a compiler. With useRegex false every rule uses literal scanning.
func New(useRegex bool, opts ...Option) *Compiler {
	c := &Compiler{useRegex: useRegex, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Compile compiles one rule. It never fails: a bad pattern is recorded on
// the result and the rule falls back to literal scanning.
func (c *Compiler) Compile(rule model.KeywordRule) *CompiledRule {
	cr := &CompiledRule{
		Rule:     rule,
		Strategy: StrategyLiteral,
		literals: compileLiterals(rule),
	}
	cr.exclusions = buildExclusions(rule)

	if !c.useRegex || len(rule.Keywords) == 0 {
		return cr
	}

	p, source, err := buildPattern(rule)
	switch {
	case err != nil:
		cr.Err = &Error{RuleID: rule.ID, Pattern: source, Err: err}
		c.logger.Warn("rule pattern failed to compile, using literal scanning",
			logging.Int64("rule_id", rule.ID),
			logging.String("rule_name", rule.Name),
			logging.String("pattern", source),
			logging.Error(err))
		c.metrics.CompileFailed()
	case p != nil:
		cr.Pattern = p
		cr.Strategy = StrategyPattern
	}
	return cr
}

// CompileAll compiles every enabled rule, ordered by priority (desc) then id
func (c *Compiler) CompileAll(rules []model.KeywordRule) []*CompiledRule {
	out := make([]*CompiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Disabled {
			continue
		}
		if err := r.Validate(); err != nil {
			c.logger.Warn("rule has problems", logging.Int64("rule_id", r.ID), logging.Error(err))
		}
		out = append(out, c.Compile(r))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rule.Priority != out[j].Rule.Priority {
			return out[i].Rule.Priority > out[j].Rule.Priority
		}
		return out[i].Rule.ID < out[j].Rule.ID
	})
	return out
}

func compileLiterals(rule model.KeywordRule) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(rule.Keywords))
	for i, term := range rule.Keywords {
		text := term.Text()
		if text == "" {
			continue
		}
		expr := regexp.QuoteMeta(text)
		if !rule.CaseSensitive {
			expr = "(?i)" + expr
		}
		// quoted literals always compile
		out[i] = regexp.MustCompile(expr)
	}
	return out
}

func buildExclusions(rule model.KeywordRule) *ahocorasick.Matcher {
	var terms []string
	for _, ex := range rule.Exclusions {
		if strings.TrimSpace(ex) == "" {
			continue
		}
		if !rule.CaseSensitive {
			ex = analysis.Fold(ex)
		}
		terms = append(terms, ex)
	}
	if len(terms) == 0 {
		return nil
	}
	return ahocorasick.NewStringMatcher(terms)
}
