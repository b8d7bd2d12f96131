package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/keywatch/internal/model"
)

const (
	groupPrefix = "kw"  // wraps a whole alternative
	innerPrefix = "kwm" // wraps the term text inside boundary guards

	wordClass    = `[\p{L}\p{N}_]`
	nonWordClass = `[^\p{L}\p{N}_]`
)

// Pattern is the compiled form of a rule's keywords
type Pattern struct {
	mode     model.MatchMode
	combined *regexp.Regexp // any, exact, regex
	perTerm  []termRegexp   // all
	groups   map[int]int    // submatch index -> term index
	inner    map[int]int    // term index -> submatch index of the term text
}

type termRegexp struct {
	term  int
	re    *regexp.Regexp
	inner int // -1 when the whole match is the term
}

// String returns the compiled expression
func (p *Pattern) String() string {
	if p.combined != nil {
		return p.combined.String()
	}
	parts := make([]string, 0, len(p.perTerm))
	for _, t := range p.perTerm {
		parts = append(parts, t.re.String())
	}
	return strings.Join(parts, " && ")
}

// Mode returns the combination mode the pattern was built for
func (p *Pattern) Mode() model.MatchMode { return p.mode }

// FindAll returns every non-overlapping hit, attributed to its term. In
// "all" mode it returns nothing unless every term matches. Boundary
// characters consumed by word-boundary guards are not part of a span.
func (p *Pattern) FindAll(content string) []Span {
	if p.combined != nil {
		var spans []Span
		for _, loc := range p.combined.FindAllStringSubmatchIndex(content, -1) {
			term := p.termOf(loc)
			inner, ok := p.inner[term]
			if !ok {
				inner = -1
			}
			spans = append(spans, spanOf(loc, term, inner))
		}
		return spans
	}

	var spans []Span
	for _, t := range p.perTerm {
		locs := t.re.FindAllStringSubmatchIndex(content, -1)
		if len(locs) == 0 {
			return nil
		}
		for _, loc := range locs {
			spans = append(spans, spanOf(loc, t.term, t.inner))
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

func (p *Pattern) termOf(loc []int) int {
	for idx, term := range p.groups {
		if 2*idx+1 < len(loc) && loc[2*idx] >= 0 {
			return term
		}
	}
	return 0
}

func spanOf(loc []int, term, inner int) Span {
	if inner > 0 && 2*inner+1 < len(loc) && loc[2*inner] >= 0 {
		return Span{Start: loc[2*inner], End: loc[2*inner+1], Term: term}
	}
	return Span{Start: loc[0], End: loc[1], Term: term}
}

func innerName(term int) string {
	return innerPrefix + strconv.Itoa(term)
}

// buildPattern composes and compiles the rule's pattern. It returns a nil
// pattern when no term yields an expression.
func buildPattern(rule model.KeywordRule) (*Pattern, string, error) {
	mode := rule.MatchType.Resolve()
	flags := ""
	if !rule.CaseSensitive {
		flags = "(?i)"
	}

	type alt struct {
		term int
		expr string
	}
	var alts []alt
	for i, term := range rule.Keywords {
		expr := termExpr(term, mode, i)
		if expr == "" {
			continue
		}
		alts = append(alts, alt{term: i, expr: expr})
	}
	if len(alts) == 0 {
		return nil, "", nil
	}

	if mode == model.MatchAll {
		p := &Pattern{mode: mode}
		sources := make([]string, 0, len(alts))
		for _, a := range alts {
			src := flags + a.expr
			sources = append(sources, src)
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, strings.Join(sources, " && "), err
			}
			p.perTerm = append(p.perTerm, termRegexp{term: a.term, re: re, inner: re.SubexpIndex(innerName(a.term))})
		}
		return p, strings.Join(sources, " && "), nil
	}

	groups := make([]string, 0, len(alts))
	for _, a := range alts {
		groups = append(groups, fmt.Sprintf("(?P<%s%d>%s)", groupPrefix, a.term, a.expr))
	}
	joined := strings.Join(groups, "|")

	var source string
	switch mode {
	case model.MatchExact:
		source = flags + "^(?:" + joined + ")$"
	case model.MatchRegex:
		source = flags + joined
	default:
		source = flags + "(?:" + joined + ")"
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, source, err
	}

	p := &Pattern{mode: mode, combined: re, groups: map[int]int{}, inner: map[int]int{}}
	for idx, name := range re.SubexpNames() {
		switch {
		case strings.HasPrefix(name, innerPrefix):
			if term, err := strconv.Atoi(strings.TrimPrefix(name, innerPrefix)); err == nil {
				p.inner[term] = idx
			}
		case strings.HasPrefix(name, groupPrefix):
			if term, err := strconv.Atoi(strings.TrimPrefix(name, groupPrefix)); err == nil {
				p.groups[idx] = term
			}
		}
	}
	return p, source, nil
}

// termExpr builds the expression of one term. Modifiers apply in a fixed
// order: word boundary, start anchor, end anchor; proximity replaces the
// whole expression for multi-word terms. Word characters are Unicode
// letters, digits and '_'. A boundary guard next to an anchor is dropped
// since the anchor already bounds the term.
func termExpr(term model.Term, mode model.MatchMode, idx int) string {
	switch t := term.(type) {
	case model.Literal:
		if t == "" {
			return ""
		}
		if mode == model.MatchRegex {
			return string(t)
		}
		return regexp.QuoteMeta(string(t))

	case model.Modified:
		if t.Term == "" {
			return ""
		}
		if t.Proximity > 0 {
			if words := strings.Fields(t.Term); len(words) > 1 {
				for i, w := range words {
					words[i] = regexp.QuoteMeta(w)
				}
				gap := fmt.Sprintf(`(?:%s+%s+){0,%d}%s+`, nonWordClass, wordClass, t.Proximity, nonWordClass)
				return strings.Join(words, gap)
			}
		}

		expr := regexp.QuoteMeta(t.Term)
		if t.WordBoundary {
			expr = fmt.Sprintf("(?P<%s>%s)", innerName(idx), expr)
			if !t.StartsWith {
				expr = `(?:^|` + nonWordClass + `)` + expr
			}
			if !t.EndsWith {
				expr += `(?:` + nonWordClass + `|$)`
			}
		}
		if t.StartsWith {
			expr = "^" + expr
		}
		if t.EndsWith {
			expr = expr + "$"
		}
		return expr
	}
	return ""
}
