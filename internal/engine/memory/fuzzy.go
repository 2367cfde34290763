package memory

import (
	"strings"
)

// minSimilarity is the floor below which a candidate never surfaces as a
// suggestion; it keeps unrelated texts out of short-prefix lookups.
const minSimilarity = 0.4

// similarity scores how well a candidate text matches a partial query,
// in [0, 1]. Each word of the candidate is scored independently and the
// best word wins: exact prefix matches rank highest, substring matches
// next, and edit distance covers typos.
func similarity(queryLower, text string) float64 {
	if queryLower == "" {
		return 0
	}

	var best float64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		score := wordSimilarity(queryLower, word)
		if score > best {
			best = score
		}
	}
	return best
}

func wordSimilarity(q, word string) float64 {
	if q == word {
		return 1
	}
	if strings.HasPrefix(word, q) {
		// Longer shared prefixes relative to the word rank higher.
		return 0.8 + 0.2*float64(len(q))/float64(len(word))
	}
	if strings.Contains(word, q) {
		return 0.7
	}

	dist := levenshtein(q, word)
	longest := len(q)
	if len(word) > longest {
		longest = len(word)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(longest)
}

// levenshtein computes the edit distance between two strings using two
// rolling rows instead of the full matrix.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
