package textutil

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-z][a-z0-9']+`)

// Words returns the lowercase words of text with surrounding apostrophes
// removed. Tokens shorter than two characters are dropped.
func Words(text string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(text), -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.Trim(w, "'")
		if len(w) < 2 {
			continue
		}
		words = append(words, w)
	}
	return words
}

// RankKeywords orders the distinct words of text by descending frequency,
// breaking ties by first occurrence, skipping stopwords. At most limit words
// are returned.
func RankKeywords(text string, stopwords map[string]struct{}, limit int) []string {
	if limit <= 0 {
		return nil
	}
	firstSeen := make(map[string]int)
	counts := make(map[string]int)
	for idx, w := range Words(text) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, ok := firstSeen[w]; !ok {
			firstSeen[w] = idx
		}
		counts[w]++
	}

	ranked := make([]string, 0, len(counts))
	for w := range counts {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return firstSeen[a] < firstSeen[b]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
