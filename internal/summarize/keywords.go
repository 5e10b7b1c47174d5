package summarize

import (
	"sort"
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "in": {}, "it": {}, "of": {}, "to": {},
	"a": {}, "for": {}, "that": {}, "on": {}, "with": {}, "as": {}, "are": {},
	"this": {}, "be": {}, "or": {}, "an": {}, "by": {}, "from": {}, "at": {},
	"was": {}, "were": {}, "which": {}, "have": {}, "has": {}, "but": {}, "not": {},
}

// ExtractKeywords returns up to max keywords from text by frequency, after
// lowercasing, stripping punctuation and filtering stop words and short
// tokens. It is the local fallback that keeps keywords populated even when
// the remote summarizer is unreachable.
func ExtractKeywords(text string, max int) []string {
	if strings.TrimSpace(text) == "" || max <= 0 {
		return []string{}
	}

	cleaned := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, text)

	freq := make(map[string]int)
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		freq[word]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > max {
		words = words[:max]
	}
	return words
}
