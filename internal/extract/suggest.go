package extract

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/keywatch/internal/analysis"
)

var suggestStopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and or but in on at to for of with by from up about into through
		during before after above below between among this that these those i me my myself we our
		ours ourselves you your yours yourself yourselves he him his himself she her hers herself it
		its itself they them their theirs themselves what which who whom whose am is are was were be
		been being have has had having do does did doing will would could should may might must can
		shall a an`) {
		suggestStopWords[w] = struct{}{}
	}
}

// DefaultSuggestLimit is the number of keywords SuggestKeywords returns by default
const DefaultSuggestLimit = 10

// SuggestKeywords returns the most frequent non stop words of content
// longer than two characters, most frequent first, ties in order of first
// appearance. limit <= 0 means DefaultSuggestLimit.
func SuggestKeywords(content string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	normalized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, analysis.Fold(content))

	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(normalized) {
		if utf8.RuneCountInString(w) <= 2 || isNumber(w) {
			continue
		}
		if _, stop := suggestStopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
