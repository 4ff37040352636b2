package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityEdgeCases(t *testing.T) {
	assert.Equal(t, 100, Similarity("", ""))
	assert.Equal(t, 100, Similarity("freeze", "freeze"))
	assert.Equal(t, 0, Similarity("", "x"))
	assert.Equal(t, 0, Similarity("x", ""))
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"freeze", "squeeze"},
		{"ghost town", "ghost twn"},
		{"a", "abcdef"},
		{"blue razz", "blu razz ice"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]),
			"similarity not symmetric for %q / %q", p[0], p[1])
	}
}

func TestSimilarityScores(t *testing.T) {
	// One substitution in a 10-char string: round(100*9/10) = 90.
	assert.Equal(t, 90, Similarity("abcdefghij", "abcdefghix"))
	// One substitution in a 9-char string: round(100*8/9) = 89.
	assert.Equal(t, 89, Similarity("abcdefghi", "abcdefghx"))
	// Distinct flavors sharing a suffix stay well below the 90 threshold.
	assert.Equal(t, 57, Similarity("freeze", "squeeze"))
}
