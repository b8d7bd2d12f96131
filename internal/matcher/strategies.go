package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/keywatch/internal/analysis"
	"github.com/ppiankov/keywatch/internal/compiler"
	"github.com/ppiankov/keywatch/internal/fuzzy"
	"github.com/ppiankov/keywatch/internal/model"
)

// Strategy confidences
const (
	phraseConfidence = 0.95
	synonymPenalty   = 0.8
	exactConfidence  = 1.0
)

// scanMatches turns the spans of the compiled pattern, or of the literal
// fallback, into matches. Positions are rune offsets.
func (m *Matcher) scanMatches(cr *compiler.CompiledRule, doc *document, spans []compiler.Span) []model.Match {
	if len(spans) == 0 {
		return nil
	}

	typ := model.MatchLiteral
	if cr.Strategy == compiler.StrategyPattern {
		typ = model.MatchPattern
	}
	radius := cr.Rule.Radius()

	out := make([]model.Match, 0, len(spans))
	for _, s := range spans {
		if s.End <= s.Start {
			continue
		}
		text := doc.content[s.Start:s.End]
		pos := utf8.RuneCountInString(doc.content[:s.Start])
		keyword := text
		if s.Term >= 0 && s.Term < len(cr.Rule.Keywords) {
			keyword = cr.Rule.Keywords[s.Term].Text()
		}
		out = append(out, model.Match{
			Keyword:     keyword,
			MatchedText: text,
			Type:        typ,
			Position:    intPtr(pos),
			Confidence:  exactConfidence,
			Context:     excerpt(doc.runes, pos, utf8.RuneCountInString(text), radius),
		})
	}
	return out
}

// tokenMatches runs the phrase, token, fuzzy and synonym strategies for one
// keyword over the normalized view
func (m *Matcher) tokenMatches(keyword string, view *textView, rule *model.KeywordRule) []model.Match {
	normalized := analysis.Normalize(keyword, rule.CaseSensitive)
	if normalized == "" {
		return nil
	}
	kTokens := m.analyzer.Tokenize(normalized)
	radius := rule.Radius()

	var out []model.Match
	if len(kTokens) > 1 {
		out = append(out, m.phraseMatches(kTokens, view, radius)...)
	}
	for _, kt := range kTokens {
		out = append(out, m.singleTokenMatches(kt, view, radius)...)
	}
	if m.cfg.FuzzyMatching {
		out = append(out, m.fuzzyMatches(normalized, view, radius)...)
	}
	if m.cfg.SynonymMatching {
		out = append(out, m.synonymMatches(keyword, view, rule)...)
	}
	return out
}

// phraseMatches slides a window of the keyword's length over the content
// tokens; every token pair must match
func (m *Matcher) phraseMatches(kTokens []analysis.Token, view *textView, radius int) []model.Match {
	n := len(kTokens)
	var out []model.Match
	for i := 0; i+n <= len(view.tokens); i++ {
		window := view.tokens[i : i+n]
		ok := true
		for j := range kTokens {
			if !m.analyzer.TokensMatch(kTokens[j], window[j]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		last := window[n-1]
		end := last.Offset + utf8.RuneCountInString(last.Text)
		out = append(out, model.Match{
			Keyword:     joinTokens(kTokens),
			MatchedText: joinTokens(window),
			Type:        model.MatchPhrase,
			Position:    intPtr(i),
			Confidence:  phraseConfidence,
			Context:     excerpt(view.runes, window[0].Offset, end-window[0].Offset, radius),
		})
	}
	return out
}

// singleTokenMatches compares one keyword token to every content token
func (m *Matcher) singleTokenMatches(kt analysis.Token, view *textView, radius int) []model.Match {
	var out []model.Match
	for _, ct := range view.tokens {
		if !m.analyzer.TokensMatch(kt, ct) {
			continue
		}
		conf := exactConfidence
		if kt.Text != ct.Text {
			conf = fuzzy.LevenshteinSimilarity(kt.Text, ct.Text)
		}
		out = append(out, model.Match{
			Keyword:     kt.Text,
			MatchedText: ct.Text,
			Type:        model.MatchToken,
			Position:    intPtr(ct.Index),
			Confidence:  conf,
			Context:     excerpt(view.runes, ct.Offset, utf8.RuneCountInString(ct.Text), radius),
		})
	}
	return out
}

// fuzzyMatches keeps every content word whose similarity to the keyword
// reaches the threshold
func (m *Matcher) fuzzyMatches(normalizedKeyword string, view *textView, radius int) []model.Match {
	var out []model.Match
	for _, w := range view.words {
		sim := fuzzy.LevenshteinSimilarity(normalizedKeyword, w.text)
		if sim < m.cfg.FuzzyThreshold {
			continue
		}
		out = append(out, model.Match{
			Keyword:     normalizedKeyword,
			MatchedText: w.text,
			Type:        model.MatchFuzzy,
			Confidence:  sim,
			Context:     excerpt(view.runes, w.offset, utf8.RuneCountInString(w.text), radius),
		})
	}
	return out
}

// synonymMatches runs token matching (phrase matching for multi-word
// synonyms) for each synonym of keyword, at reduced confidence
func (m *Matcher) synonymMatches(keyword string, view *textView, rule *model.KeywordRule) []model.Match {
	synonyms := m.synonyms[strings.ToLower(strings.TrimSpace(keyword))]
	if len(synonyms) == 0 {
		return nil
	}
	radius := rule.Radius()

	var out []model.Match
	for _, syn := range synonyms {
		sTokens := m.analyzer.Tokenize(analysis.Normalize(syn, rule.CaseSensitive))

		var found []model.Match
		switch {
		case len(sTokens) > 1:
			found = m.phraseMatches(sTokens, view, radius)
		case len(sTokens) == 1:
			found = m.singleTokenMatches(sTokens[0], view, radius)
		}

		for _, f := range found {
			f.Type = model.MatchSynonym
			f.OriginalKeyword = keyword
			f.Confidence *= synonymPenalty
			out = append(out, f)
		}
	}
	return out
}

func joinTokens(tokens []analysis.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

func intPtr(v int) *int { return &v }
