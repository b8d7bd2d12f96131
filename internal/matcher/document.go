package matcher

import (
	"strings"

	"github.com/ppiankov/keywatch/internal/analysis"
)

// document holds the content of one Match call together with its
// normalized views, built on first use
type document struct {
	content  string
	runes    []rune
	analyzer *analysis.Analyzer
	folded   *textView
	exact    *textView
}

// textView is normalized content with its tokens
type textView struct {
	normalized string
	runes      []rune
	tokens     []analysis.Token
	words      []word // every whitespace word, before length and stop word filtering
}

type word struct {
	text   string
	offset int // rune offset in normalized
}

func newDocument(content string, a *analysis.Analyzer) *document {
	return &document{content: content, runes: []rune(content), analyzer: a}
}

func (d *document) view(caseSensitive bool) *textView {
	slot := &d.folded
	if caseSensitive {
		slot = &d.exact
	}
	if *slot == nil {
		normalized := analysis.Normalize(d.content, caseSensitive)
		v := &textView{
			normalized: normalized,
			runes:      []rune(normalized),
			tokens:     d.analyzer.Tokenize(normalized),
		}
		offset := 0
		for _, w := range strings.Split(normalized, " ") {
			if w != "" {
				v.words = append(v.words, word{text: w, offset: offset})
			}
			offset += len([]rune(w)) + 1
		}
		*slot = v
	}
	return *slot
}

// excerpt returns the text around [start, start+length) in runes, with
// radius runes on each side and ellipses where the text was cut
func excerpt(runes []rune, start, length, radius int) string {
	from := max(0, start-radius)
	to := min(len(runes), start+length+radius)
	if from >= to {
		return ""
	}

	ctx := strings.TrimSpace(string(runes[from:to]))
	if from > 0 {
		ctx = "..." + ctx
	}
	if to < len(runes) {
		ctx += "..."
	}
	return ctx
}
