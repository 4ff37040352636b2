package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrength(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name string
		text string
		want string
	}{
		{"digit then unit", "Nicotine 7mg per bottle", "7"},
		{"spaced unit", "Nicotine 7 mg", "7"},
		{"unit then digit", "mg 12", "12"},
		{"percentage", "3% nicotine", "3"},
		{"out of range rejected", "999mg", ""},
		{"out of range match skipped for in-range", "999mg but really 7mg", "7"},
		{"fallback digit run", "strength 25 something", "25"},
		{"no digits", "no numbers here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Strength(tt.text))
		})
	}
}

func TestSize(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name string
		text string
		want string
	}{
		{"digit then unit", "30ml bottle", "30"},
		{"spaced unit", "30 ml", "30"},
		{"unit then digit", "ml 60", "60"},
		{"below range", "5ml", ""},
		{"above range", "5000ml", ""},
		{"fallback digit run", "contains 120 of liquid", "120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Size(tt.text))
		})
	}
}

func TestBatch(t *testing.T) {
	e := New(DefaultConfig())

	assert.Equal(t, "AB1234", e.Batch("Batch: AB1234"))
	assert.Equal(t, "X99-01", e.Batch("LOT X99-01"))
	assert.Equal(t, "BC20240101", e.Batch("code BC20240101 printed"))
	assert.Equal(t, "123456", e.Batch("serial 123456"))
	// No pattern hit: content lines are joined for manual review.
	assert.Equal(t, "some text more text", e.Batch("some text\nmore text\nab\n"))
	assert.Equal(t, "", e.Batch(""))
}

func TestExpiration(t *testing.T) {
	e := New(DefaultConfig())

	assert.Equal(t, "12/31/2025", e.Expiration("EXP 12/31/2025"))
	assert.Equal(t, "2025-12-31", e.Expiration("best before 2025-12-31"))
	assert.Equal(t, "31-12-2025", e.Expiration("use by 31-12-2025"))
	assert.Equal(t, "31.12.2025", e.Expiration("MHD 31.12.2025"))
	assert.Equal(t, "20251231", e.Expiration("stamp 20251231 end"))
	assert.Equal(t, "", e.Expiration("no date"))
}

func TestName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BrandTokens = []string{"GHOST"}
	e := New(cfg)

	t.Run("brand override wins", func(t *testing.T) {
		got := e.Name("WARNING: nicotine\nGHOST   MEGA MELON\n7mg")
		assert.Equal(t, "GHOST MEGA MELON", got)
	})

	t.Run("first content line", func(t *testing.T) {
		got := e.Name("12345\nBatch: X1\nFreeze Menthol\nmade in USA")
		assert.Equal(t, "Freeze Menthol", got)
	})

	t.Run("keyword lines skipped", func(t *testing.T) {
		got := e.Name("Nicotine warning text\nTobacco product\nBlue Razz")
		assert.Equal(t, "Blue Razz", got)
	})

	t.Run("longest line fallback", func(t *testing.T) {
		got := e.Name("warning here\nthis product\nmade somewhere")
		assert.Equal(t, "made somewhere", got)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", e.Name(""))
	})
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2025-12-31", NormalizeDate("12/31/2025"))
	assert.Equal(t, "2025-01-05", NormalizeDate("1/5/25"))
	assert.Equal(t, "2025-12-31", NormalizeDate("12-31-25"))
	// Already ISO, or not a three-part date: untouched.
	assert.Equal(t, "2025-12-31", NormalizeDate("2025-12-31"))
	assert.Equal(t, "20251231", NormalizeDate("20251231"))
	assert.Equal(t, "31.12.2025", NormalizeDate("31.12.2025"))
}

func TestWhitelist(t *testing.T) {
	for _, f := range Fields() {
		assert.NotEmpty(t, f.Whitelist(), string(f))
	}
	assert.Empty(t, Field("bogus").Whitelist())
}
