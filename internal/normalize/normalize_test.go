package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"lowercases and trims", "  FREEZE  ", "freeze"},
		{"strips trailing size token", "Freeze a-30mL", "freeze"},
		{"strips trailing size token larger", "Blue Razz b-120ml", "blue razz"},
		{"strips leading size token", "a-30mL Freeze", "freeze"},
		{"removes punctuation", "MR. Freeze", "mr freeze"},
		{"removes hyphens and underscores", "ice-cold_mix", "icecoldmix"},
		{"collapses whitespace", "ghost   town", "ghost town"},
		{"keeps digits in names", "Cloud 9", "cloud 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.input))
		})
	}
}

func TestStrength(t *testing.T) {
	assert.Equal(t, "3", Strength("3mg"))
	assert.Equal(t, "6", Strength(" 6 MG "))
	assert.Equal(t, "0", Strength("0mg"))
	assert.Equal(t, "12", Strength("strength: 12mg/ml"))
	assert.Equal(t, "0", Strength(""))
	assert.Equal(t, "0", Strength("unknown"))
}

func TestSize(t *testing.T) {
	assert.Equal(t, "30", Size("30ml"))
	assert.Equal(t, "60", Size(" 60 mL "))
	assert.Equal(t, "", Size(""))
	// Non-numeric placeholders stay comparable as literal strings.
	assert.Equal(t, "sample", Size(" sample "))
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		"", "Freeze a-30mL", "a-60mL Squeeze", "MR. Freeze", "  GHOST   TOWN  ",
		"3mg", "30ml", "sample", "blue-razz_ice (limited)",
	}
	for _, s := range inputs {
		assert.Equal(t, Name(s), Name(Name(s)), "Name not idempotent for %q", s)
		assert.Equal(t, Strength(s), Strength(Strength(s)), "Strength not idempotent for %q", s)
		assert.Equal(t, Size(s), Size(Size(s)), "Size not idempotent for %q", s)
	}
}
