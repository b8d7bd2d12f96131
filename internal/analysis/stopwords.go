package analysis

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "he",
		"in", "is", "it", "its", "of", "on", "that", "the", "to", "was", "were",
		"will", "with", "this", "but", "they", "have", "had", "what", "said",
		"each", "which", "she", "do", "how", "their", "if", "up", "out", "many",
		"then", "them", "these", "so", "some", "her", "would", "make", "like",
		"him", "into", "time", "two", "more", "go", "no", "way", "could", "my",
		"than", "first", "been", "call", "who", "oil", "sit", "now", "find",
		"long", "down", "day", "did", "get", "come", "made", "may", "part",
	} {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether word is on the English stop list
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
