// Package match quantifies how similar two normalized strings are, as an
// integer percentage 0-100. It is used for fuzzy product-name matching during
// reconciliation; strength and size comparisons are always exact and never
// routed through this package.
package match

import "math"

// Similarity returns the edit-distance similarity of a and b scaled by the
// longer string's length: round(100 * (maxLen - distance) / maxLen).
// Equal strings (including both empty) score 100; one empty and one not
// scores 0.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	distance := editDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return int(math.Round(100 * float64(maxLen-distance) / float64(maxLen)))
}

// editDistance computes the classic Levenshtein distance with unit cost for
// insert, delete and substitute, and no transposition credit. Two rows of the
// DP matrix are enough; runs in O(len(a)*len(b)).
func editDistance(a, b string) int {
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
				prev[j]+1,      // delete
				curr[j-1]+1,    // insert
				prev[j-1]+cost, // substitute
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
