package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Config tunes the numeric acceptance ranges and the brand override list.
// Zero values are not meaningful; start from DefaultConfig.
type Config struct {
	// StrengthMin and StrengthMax bound the accepted nicotine strength in mg.
	StrengthMin int
	StrengthMax int

	// SizeMin and SizeMax bound the accepted bottle size in ml.
	SizeMin int
	SizeMax int

	// BrandTokens lists brand keywords whose presence overrides the generic
	// name heuristic. Matching is case-insensitive.
	BrandTokens []string
}

// DefaultConfig returns the acceptance ranges used in production.
func DefaultConfig() Config {
	return Config{
		StrengthMin: 0,
		StrengthMax: 50,
		SizeMin:     10,
		SizeMax:     1000,
	}
}

// rule pairs a capture pattern with an optional validator for the captured
// value. A nil validator accepts any non-empty capture.
type rule struct {
	re       *regexp.Regexp
	validate func(string) bool
}

// firstValidated returns the first capture, in rule order, that passes its
// rule's validator. All occurrences of a pattern are considered, so a
// validated match later in the text beats an out-of-range one before it.
// Pure function of its inputs.
func firstValidated(rules []rule, text string) (string, bool) {
	for _, r := range rules {
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 || m[1] == "" {
				continue
			}
			if r.validate != nil && !r.validate(m[1]) {
				continue
			}
			return m[1], true
		}
	}
	return "", false
}

var (
	digitRun     = regexp.MustCompile(`\d+`)
	longDigitRun = regexp.MustCompile(`\d{6,}`)

	nonContent    = regexp.MustCompile(`^[\d\s\W]+$`)
	noisePrefix   = regexp.MustCompile(`(?i)^(batch|lot|exp|made|mfg|warning|this|product|tobacco|nicotine)`)
	spaceCollapse = regexp.MustCompile(`\s+`)
)

// Extractor extracts typed field values from raw OCR text.
type Extractor struct {
	cfg Config

	strengthRules []rule
	sizeRules     []rule
	batchRules    []rule
	dateRules     []rule
	brandOverride []*regexp.Regexp
}

// New builds an Extractor with the rule lists bound to cfg's ranges.
func New(cfg Config) *Extractor {
	e := &Extractor{cfg: cfg}

	inStrengthRange := func(s string) bool {
		n, err := strconv.Atoi(s)
		return err == nil && n >= cfg.StrengthMin && n <= cfg.StrengthMax
	}
	inSizeRange := func(s string) bool {
		n, err := strconv.Atoi(s)
		return err == nil && n >= cfg.SizeMin && n <= cfg.SizeMax
	}

	e.strengthRules = []rule{
		{regexp.MustCompile(`(?i)(\d+)\s*mg`), inStrengthRange},
		{regexp.MustCompile(`(?i)mg\s*(\d+)`), inStrengthRange},
		{regexp.MustCompile(`(?i)(\d+)\s*mg/ml`), inStrengthRange},
		{regexp.MustCompile(`(\d+)%`), inStrengthRange},
	}

	e.sizeRules = []rule{
		{regexp.MustCompile(`(?i)(\d+)\s*ml`), inSizeRange},
		{regexp.MustCompile(`(?i)ml\s*(\d+)`), inSizeRange},
	}

	e.batchRules = []rule{
		{regexp.MustCompile(`(?i)(?:batch|lot)[:\s#]*([A-Za-z0-9_-]+)`), nil},
		{regexp.MustCompile(`(?i)\b([A-Za-z]{1,3}\d{4,})\b`), nil},
		{regexp.MustCompile(`(\d{6,})`), nil},
	}

	e.dateRules = []rule{
		{regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4})`), nil},
		{regexp.MustCompile(`(\d{4}-\d{1,2}-\d{1,2})`), nil},
		{regexp.MustCompile(`(\d{1,2}-\d{1,2}-\d{2,4})`), nil},
		{regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.\d{2,4})`), nil},
		{regexp.MustCompile(`(\d{6,8})`), nil},
	}

	for _, token := range cfg.BrandTokens {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(token) + `[A-Za-z]*[A-Za-z\s]*`)
		e.brandOverride = append(e.brandOverride, re)
	}
	return e
}

// Extract dispatches to the field-specific extractor. Unknown fields yield
// the empty string.
func (e *Extractor) Extract(field Field, text string) string {
	switch field {
	case FieldName:
		return e.Name(text)
	case FieldStrength:
		return e.Strength(text)
	case FieldSize:
		return e.Size(text)
	case FieldBatch:
		return e.Batch(text)
	case FieldExpiration:
		return e.Expiration(text)
	default:
		return ""
	}
}

// Strength extracts the nicotine strength in mg as a bare digit string.
// Returns "" when nothing in range is found.
func (e *Extractor) Strength(text string) string {
	if v, ok := firstValidated(e.strengthRules, text); ok {
		return v
	}
	// Fallback: any digit run that happens to land in range.
	for _, run := range digitRun.FindAllString(text, -1) {
		n, err := strconv.Atoi(run)
		if err == nil && n >= e.cfg.StrengthMin && n <= e.cfg.StrengthMax {
			return run
		}
	}
	return ""
}

// Size extracts the bottle size in ml as a bare digit string. Returns ""
// when nothing in range is found.
func (e *Extractor) Size(text string) string {
	if v, ok := firstValidated(e.sizeRules, text); ok {
		return v
	}
	for _, run := range digitRun.FindAllString(text, -1) {
		n, err := strconv.Atoi(run)
		if err == nil && n >= e.cfg.SizeMin && n <= e.cfg.SizeMax {
			return run
		}
	}
	return ""
}

// Batch extracts a batch or lot identifier. When no pattern matches, the
// surviving text lines are joined as a last resort so the value is still
// reviewable by hand.
func (e *Extractor) Batch(text string) string {
	if v, ok := firstValidated(e.batchRules, text); ok {
		return v
	}
	lines := contentLines(text)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, " ")
}

// Expiration extracts an expiration date in whatever format the label uses.
// Use NormalizeDate to canonicalize the result.
func (e *Extractor) Expiration(text string) string {
	if v, ok := firstValidated(e.dateRules, text); ok {
		return v
	}
	return longDigitRun.FindString(text)
}

// Name extracts the product name. Brand overrides win outright; otherwise the
// first content line that is neither purely numeric/symbolic nor prefixed by
// a label-boilerplate keyword is taken, with the longest line as fallback.
func (e *Extractor) Name(text string) string {
	for _, re := range e.brandOverride {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(spaceCollapse.ReplaceAllString(m, " "))
		}
	}

	lines := contentLines(text)
	for _, line := range lines {
		if nonContent.MatchString(line) || noisePrefix.MatchString(line) {
			continue
		}
		return line
	}

	longest := ""
	for _, line := range lines {
		if len(line) > len(longest) {
			longest = line
		}
	}
	return longest
}

// contentLines splits text into trimmed lines longer than three characters.
func contentLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 3 {
			out = append(out, line)
		}
	}
	return out
}

// NormalizeDate rewrites a slash- or dash-separated date as YYYY-MM-DD,
// assuming month-first ordering and expanding two-digit years into the 2000s.
// Inputs that do not look like a three-part month-first date pass through
// unchanged.
func NormalizeDate(s string) string {
	sep := ""
	switch {
	case strings.Contains(s, "/"):
		sep = "/"
	case strings.Contains(s, "-"):
		sep = "-"
	default:
		return s
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 || len(parts[0]) > 2 {
		return s
	}
	month, day, year := parts[0], parts[1], parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
