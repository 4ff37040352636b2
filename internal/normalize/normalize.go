// Package normalize produces canonical comparison forms for product names,
// nicotine strengths and bottle sizes, so that superficially different but
// semantically identical strings compare equal during reconciliation.
//
// All functions are pure, deterministic and total: any input yields a string,
// never an error.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// Size disambiguation token appended (or prepended) to spreadsheet
	// product names to distinguish SKUs by size, e.g. "a-30mL" or "b-60mL".
	trailingSizeToken = regexp.MustCompile(`(?i)\s*[a-z]-\d+ml$`)
	leadingSizeToken  = regexp.MustCompile(`(?i)^[a-z]-\d+ml\s+`)

	punctuation = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_`~()]")
	spaceRuns   = regexp.MustCompile(`\s+`)
	digitRun    = regexp.MustCompile(`\d+`)
)

// Name canonicalizes a product name: lower-cases, strips the size
// disambiguation token at either end, removes punctuation, collapses
// whitespace runs and trims. Empty input yields the empty string.
func Name(raw string) string {
	if raw == "" {
		return ""
	}
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = trailingSizeToken.ReplaceAllString(normalized, "")
	normalized = leadingSizeToken.ReplaceAllString(normalized, "")
	normalized = punctuation.ReplaceAllString(normalized, "")
	normalized = spaceRuns.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// Strength extracts the first run of digits anywhere in the input.
// The database stores "0", "3", "6" while labels and sheets carry "0mg",
// "3 mg" and similar; embedded noise must not block comparison. Returns "0"
// when no digits are present, strengths being non-negative integers.
func Strength(raw string) string {
	if raw == "" {
		return "0"
	}
	if match := digitRun.FindString(raw); match != "" {
		return match
	}
	return "0"
}

// Size extracts the first run of digits. Sizes occasionally appear as
// non-numeric placeholders that must still be comparable as literal strings,
// so when no digits are present the trimmed original is returned unchanged.
func Size(raw string) string {
	if raw == "" {
		return ""
	}
	if match := digitRun.FindString(raw); match != "" {
		return match
	}
	return strings.TrimSpace(raw)
}
