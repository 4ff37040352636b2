// Package reconcile pushes database inventory counts into a stock sheet,
// matching sheet rows against bottles by product name, strength and size.
package reconcile

import (
	"regexp"

	"bottletrack/internal/match"
	"bottletrack/internal/normalize"
	"bottletrack/pkg/models"
)

// Key identifies one distinct product variant in the inventory.
type Key struct {
	Name     string
	Strength string
	Size     string
}

// CountIndex maps product variants to how many bottles the inventory holds.
type CountIndex map[Key]int

// BuildIndex groups bottles by raw name, strength and size.
func BuildIndex(bottles []models.Bottle) CountIndex {
	index := make(CountIndex, len(bottles))
	for _, b := range bottles {
		index[Key{Name: b.Name, Strength: b.Strength, Size: b.BottleSize}]++
	}
	return index
}

// MatchKind describes how a sheet row was resolved.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNone  MatchKind = "none"
)

// MatchResult is the outcome of resolving one sheet row against the index.
type MatchResult struct {
	// Count is the number of bottles in stock, 0 when nothing matched.
	Count int

	// Kind records the match path taken.
	Kind MatchKind

	// MatchedKey is the variant that supplied the count. Zero value when
	// Kind is MatchNone.
	MatchedKey Key

	// Similarity is the name similarity score of a fuzzy match (100 for
	// exact matches, 0 for misses).
	Similarity int
}

// Matcher resolves sheet rows against a count index.
type Matcher struct {
	index     CountIndex
	threshold int
}

// NewMatcher creates a matcher. threshold is the minimum name similarity
// (inclusive) for a fuzzy match; strength and size always require an exact
// normalized match.
func NewMatcher(index CountIndex, threshold int) *Matcher {
	return &Matcher{index: index, threshold: threshold}
}

// Resolve finds the stock count for a sheet row. The raw key is tried first;
// failing that, every variant with the same normalized strength and size is
// scored by name similarity and the best score at or above the threshold
// wins. A perfect normalized name match short-circuits the scan.
func (m *Matcher) Resolve(name, strength, size string) MatchResult {
	exactKey := Key{Name: name, Strength: strength, Size: size}
	if count, ok := m.index[exactKey]; ok && count > 0 {
		return MatchResult{Count: count, Kind: MatchExact, MatchedKey: exactKey, Similarity: 100}
	}

	normName := normalize.Name(name)
	normStrength := normalize.Strength(strength)
	normSize := normalize.Size(size)

	var best MatchResult
	for key, count := range m.index {
		if normalize.Strength(key.Strength) != normStrength || normalize.Size(key.Size) != normSize {
			continue
		}
		sim := match.Similarity(normalize.Name(key.Name), normName)
		if sim == 100 {
			return MatchResult{Count: count, Kind: MatchFuzzy, MatchedKey: key, Similarity: sim}
		}
		if sim >= m.threshold && sim > best.Similarity {
			best = MatchResult{Count: count, Kind: MatchFuzzy, MatchedKey: key, Similarity: sim}
		}
	}
	if best.Kind == MatchFuzzy {
		return best
	}

	return MatchResult{Kind: MatchNone}
}

var (
	letterSizeToken = regexp.MustCompile(`(?i)[a-z]-(\d+)ml`)
	bareSizeToken   = regexp.MustCompile(`(?i)(\d+)ml`)
)

// DeriveSize pulls the bottle size out of a sheet product name such as
// "Freeze a-30mL". fallback is returned when the name carries no size token.
func DeriveSize(name, fallback string) string {
	if m := letterSizeToken.FindStringSubmatch(name); len(m) == 2 {
		return m[1]
	}
	if m := bareSizeToken.FindStringSubmatch(name); len(m) == 2 {
		return m[1]
	}
	return fallback
}
