// Package fuzzy provides string similarity primitives. All functions operate
// on runes, so multi-byte characters count as one position.
package fuzzy

import (
	"github.com/agnivade/levenshtein"
)

// Levenshtein returns the unit-cost edit distance between a and b
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// LevenshteinSimilarity returns 1 - distance/max(len(a), len(b)).
// Two empty strings are identical.
func LevenshteinSimilarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// Jaro returns the Jaro similarity of a and b
func Jaro(a, b string) float64 {
	r1, r2 := []rune(a), []rune(b)
	len1, len2 := len(r1), len(r2)

	if len1 == 0 && len2 == 0 {
		return 1.0
	}
	if len1 == 0 || len2 == 0 {
		return 0.0
	}

	window := max(len1, len2)/2 - 1
	if window < 0 {
		window = 0
	}

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)
	matches := 0

	for i := range r1 {
		start := max(0, i-window)
		end := min(i+window+1, len2)
		for j := start; j < end; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := range r1 {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len1) + m/float64(len2) + (m-float64(transpositions)/2)/m) / 3
}

// JaroWinkler boosts the Jaro similarity by the common prefix (up to 4
// runes) when Jaro is at least 0.7
func JaroWinkler(a, b string) float64 {
	jaro := Jaro(a, b)
	if jaro < 0.7 {
		return jaro
	}

	r1, r2 := []rune(a), []rune(b)
	limit := min(4, len(r1), len(r2))
	prefix := 0
	for prefix < limit && r1[prefix] == r2[prefix] {
		prefix++
	}

	return jaro + 0.1*float64(prefix)*(1-jaro)
}
