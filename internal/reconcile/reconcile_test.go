package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bottletrack/pkg/models"
)

func bottle(name, strength, size string) models.Bottle {
	return models.Bottle{Name: name, Strength: strength, BottleSize: size}
}

func TestBuildIndex(t *testing.T) {
	index := BuildIndex([]models.Bottle{
		bottle("Freeze", "7", "30"),
		bottle("Freeze", "7", "30"),
		bottle("Freeze", "0", "30"),
	})
	assert.Equal(t, 2, index[Key{"Freeze", "7", "30"}])
	assert.Equal(t, 1, index[Key{"Freeze", "0", "30"}])
	assert.Len(t, index, 2)
}

func TestDeriveSize(t *testing.T) {
	assert.Equal(t, "30", DeriveSize("Freeze a-30mL", "30"))
	assert.Equal(t, "120", DeriveSize("b-120ml Squeeze", "30"))
	assert.Equal(t, "60", DeriveSize("Juice 60ml", "30"))
	assert.Equal(t, "30", DeriveSize("Plain Custard", "30"))
}

func TestMatcherExact(t *testing.T) {
	// The second entry would win the fuzzy pass outright (normalized name,
	// strength and size all line up), but a raw-key hit is never overridden.
	m := NewMatcher(CountIndex{
		Key{"Freeze", "7mg", "30"}: 4,
		Key{"Freeze", "7", "30"}:   9,
	}, 90)

	res := m.Resolve("Freeze", "7mg", "30")
	assert.Equal(t, MatchExact, res.Kind)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, Key{"Freeze", "7mg", "30"}, res.MatchedKey)
	assert.Equal(t, 100, res.Similarity)
}

func TestMatcherNormalizedPerfect(t *testing.T) {
	// DB stores bare values, sheet carries units and a size suffix.
	m := NewMatcher(CountIndex{
		Key{"Freeze", "7", "30"}: 3,
	}, 90)

	res := m.Resolve("Freeze a-30mL", "7mg", "30")
	assert.Equal(t, MatchFuzzy, res.Kind)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 100, res.Similarity)
}

func TestMatcherStrengthGate(t *testing.T) {
	m := NewMatcher(CountIndex{
		Key{"Freeze", "7", "30"}: 3,
	}, 90)

	res := m.Resolve("Freeze", "0mg", "30")
	assert.Equal(t, MatchNone, res.Kind)
	assert.Equal(t, 0, res.Count)
}

func TestMatcherSizeGate(t *testing.T) {
	m := NewMatcher(CountIndex{
		Key{"Freeze", "7", "30"}: 3,
	}, 90)

	res := m.Resolve("Freeze", "7mg", "60")
	assert.Equal(t, MatchNone, res.Kind)
}

func TestMatcherThresholdBoundary(t *testing.T) {
	m := NewMatcher(CountIndex{
		Key{"abcdefghij", "7", "30"}: 2,
		Key{"abcdefghi", "3", "30"}:  5,
	}, 90)

	// One substitution in ten characters scores exactly 90: accepted.
	res := m.Resolve("abcdefghix", "7mg", "30")
	assert.Equal(t, MatchFuzzy, res.Kind)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 90, res.Similarity)

	// One substitution in nine characters scores 89: rejected.
	res = m.Resolve("abcdefghx", "3mg", "30")
	assert.Equal(t, MatchNone, res.Kind)
}

func TestMatcherRejectsSimilarNames(t *testing.T) {
	m := NewMatcher(CountIndex{
		Key{"Squeeze", "7", "30"}: 9,
	}, 90)

	// "Freeze" and "Squeeze" score 57, well under the threshold.
	res := m.Resolve("Freeze", "7mg", "30")
	assert.Equal(t, MatchNone, res.Kind)
	assert.Equal(t, 0, res.Count)
}

type fakeStore struct {
	bottles []models.Bottle
	err     error
}

func (f *fakeStore) ListBottles(ctx context.Context, ownerID string) ([]models.Bottle, error) {
	return f.bottles, f.err
}

type fakeRowSource struct {
	rows     []Row
	readErr  error
	writeErr error
	written  []CountUpdate
}

func (f *fakeRowSource) ReadRows(ctx context.Context) ([]Row, error) {
	return f.rows, f.readErr
}

func (f *fakeRowSource) WriteCounts(ctx context.Context, updates []CountUpdate) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = updates
	return nil
}

func testConfig() Config {
	return Config{
		SimilarityThreshold: 90,
		FallbackSize:        "30",
		SkipMarkers:         []string{"osuna", "rsv house"},
	}
}

func TestRun(t *testing.T) {
	store := &fakeStore{bottles: []models.Bottle{
		bottle("Freeze", "7", "30"),
		bottle("Freeze", "7", "30"),
		bottle("Mega Melon", "0", "60"),
	}}
	source := &fakeRowSource{rows: []Row{
		{Position: 1, Name: "OSUNA STOCK LIST"},
		{Position: 2, Name: "Freeze a-30mL", Strength: "7mg"},
		{Position: 3, Name: "Mega Melon b-60mL", Strength: ""},
		{Position: 4, Name: "Squeeze a-30mL", Strength: "7mg"},
		{Position: 5, Name: ""},
	}}

	summary, err := New(store, source, testConfig()).Run(context.Background(), "owner-1")
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Rows)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 3, summary.RowsWritten)

	// Header and empty rows are untouched; unmatched rows are zeroed.
	assert.Equal(t, []CountUpdate{
		{Position: 2, Count: 2},
		{Position: 3, Count: 1},
		{Position: 4, Count: 0},
	}, source.written)
}

func TestRunLeadingSizeToken(t *testing.T) {
	// Sheet names carry the size token at either end; "a-30mL Freeze" must
	// match stored "Freeze" bottles and never the near-neighbor "Squeeze".
	store := &fakeStore{bottles: []models.Bottle{
		bottle("Freeze", "6", "30"),
		bottle("Freeze", "6", "30"),
		bottle("Squeeze", "6", "30"),
	}}
	source := &fakeRowSource{rows: []Row{
		{Position: 1, Name: "a-30mL Freeze", Strength: "6mg"},
	}}

	summary, err := New(store, source, testConfig()).Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, []CountUpdate{{Position: 1, Count: 2}}, source.written)
}

func TestRunDefaultsMissingStrength(t *testing.T) {
	// An empty strength cell is treated as "0mg", matching 0-strength stock.
	store := &fakeStore{bottles: []models.Bottle{bottle("Custard", "0", "30")}}
	source := &fakeRowSource{rows: []Row{
		{Position: 1, Name: "Custard a-30mL"},
	}}

	summary, err := New(store, source, testConfig()).Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, []CountUpdate{{Position: 1, Count: 1}}, source.written)
}

func TestRunNoRows(t *testing.T) {
	store := &fakeStore{}
	source := &fakeRowSource{}

	_, err := New(store, source, testConfig()).Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRows)
	assert.Nil(t, source.written)
}

func TestRunReadFailureWritesNothing(t *testing.T) {
	store := &fakeStore{}
	source := &fakeRowSource{readErr: errors.New("api quota exceeded")}

	_, err := New(store, source, testConfig()).Run(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, source.written)
}

func TestRunStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	source := &fakeRowSource{rows: []Row{{Position: 1, Name: "Freeze"}}}

	_, err := New(store, source, testConfig()).Run(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, source.written)
}
