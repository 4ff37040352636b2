package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"bottletrack/internal/logger"
	"bottletrack/pkg/models"
)

// ErrNoRows is returned when the sheet has no data to reconcile.
var ErrNoRows = errors.New("no rows found in sheet")

// Store is the inventory side of a reconciliation run.
type Store interface {
	ListBottles(ctx context.Context, ownerID string) ([]models.Bottle, error)
}

// Row is one stock sheet row as read.
type Row struct {
	// Position is the 1-based row number in the sheet.
	Position int

	// Name is the product name cell (column A), possibly carrying a size
	// token like "a-30mL".
	Name string

	// Strength is the strength cell (column B), e.g. "7mg".
	Strength string
}

// CountUpdate sets the stock quantity of one sheet row.
type CountUpdate struct {
	Position int
	Count    int
}

// RowSource reads and writes the stock sheet.
type RowSource interface {
	// ReadRows returns all sheet rows in order, including headers.
	ReadRows(ctx context.Context) ([]Row, error)

	// WriteCounts applies all quantity updates in one batch.
	WriteCounts(ctx context.Context, updates []CountUpdate) error
}

// Config tunes a reconciliation run.
type Config struct {
	// SimilarityThreshold is the minimum fuzzy name similarity, inclusive.
	SimilarityThreshold int

	// FallbackSize is assumed when a sheet name carries no size token.
	FallbackSize string

	// SkipMarkers are substrings that mark header or section rows; rows
	// whose name contains one (case-insensitive) are left untouched.
	SkipMarkers []string
}

// Summary reports the outcome of a reconciliation run.
type Summary struct {
	Rows        int
	Matched     int
	Exact       int
	Fuzzy       int
	NotFound    int
	RowsWritten int
}

// Reconciler runs the inventory-to-sheet count sync.
type Reconciler struct {
	store  Store
	source RowSource
	cfg    Config
	log    zerolog.Logger
}

// New creates a Reconciler.
func New(store Store, source RowSource, cfg Config) *Reconciler {
	return &Reconciler{
		store:  store,
		source: source,
		cfg:    cfg,
		log:    logger.WithComponent("reconcile"),
	}
}

// Run reconciles the sheet against ownerID's inventory. Empty ownerID means
// all owners. Every non-skipped row gets its quantity written, with 0 for
// rows no inventory variant matched; nothing is written if any step before
// the batch write fails.
func (r *Reconciler) Run(ctx context.Context, ownerID string) (Summary, error) {
	const op = "Run"

	bottles, err := r.store.ListBottles(ctx, ownerID)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: failed to list bottles: %w", op, err)
	}

	index := BuildIndex(bottles)
	matcher := NewMatcher(index, r.cfg.SimilarityThreshold)

	r.log.Info().
		Str("owner_id", ownerID).
		Int("bottles", len(bottles)).
		Int("variants", len(index)).
		Msg("Built inventory index")

	rows, err := r.source.ReadRows(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: failed to read sheet rows: %w", op, err)
	}
	if len(rows) == 0 {
		return Summary{}, fmt.Errorf("%s: %w", op, ErrNoRows)
	}

	summary := Summary{Rows: len(rows)}
	var updates []CountUpdate

	for _, row := range rows {
		if r.skip(row) {
			continue
		}

		strength := row.Strength
		if strength == "" {
			strength = "0mg"
		}
		size := DeriveSize(row.Name, r.cfg.FallbackSize)

		result := matcher.Resolve(row.Name, strength, size)
		switch result.Kind {
		case MatchExact:
			summary.Matched++
			summary.Exact++
		case MatchFuzzy:
			summary.Matched++
			summary.Fuzzy++
			r.log.Debug().
				Int("row", row.Position).
				Str("sheet_name", row.Name).
				Str("matched_name", result.MatchedKey.Name).
				Int("similarity", result.Similarity).
				Msg("Fuzzy match")
		case MatchNone:
			summary.NotFound++
			r.log.Debug().
				Int("row", row.Position).
				Str("sheet_name", row.Name).
				Msg("No match")
		}

		updates = append(updates, CountUpdate{Position: row.Position, Count: result.Count})
	}

	if err := r.source.WriteCounts(ctx, updates); err != nil {
		return Summary{}, fmt.Errorf("%s: failed to write counts: %w", op, err)
	}
	summary.RowsWritten = len(updates)

	r.log.Info().
		Int("matched", summary.Matched).
		Int("not_found", summary.NotFound).
		Int("rows_written", summary.RowsWritten).
		Msg("Reconciliation complete")

	return summary, nil
}

// skip reports whether a row is empty or marked as a header/section row.
func (r *Reconciler) skip(row Row) bool {
	if row.Name == "" {
		return true
	}
	name := strings.ToLower(row.Name)
	for _, marker := range r.cfg.SkipMarkers {
		if marker != "" && strings.Contains(name, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
