package capture

import (
	"context"

	"github.com/rs/zerolog"

	"bottletrack/internal/extract"
	"bottletrack/internal/logger"
	"bottletrack/pkg/models"
)

// PlainStrategy extracts fields from the OCR text alone, using the pattern
// rules. It needs no network access and never fails, which makes it the
// fallback behind every enhanced strategy.
type PlainStrategy struct {
	ex  *extract.Extractor
	log zerolog.Logger
}

// NewPlainStrategy creates the rule-based extraction strategy.
func NewPlainStrategy(ex *extract.Extractor) *PlainStrategy {
	return &PlainStrategy{
		ex:  ex,
		log: logger.WithComponent("capture.plain"),
	}
}

// Name identifies the strategy in logs.
func (s *PlainStrategy) Name() string { return "plain" }

// Extract runs the field extractors over rawText. The image itself is unused.
func (s *PlainStrategy) Extract(ctx context.Context, image []byte, rawText string) (models.ExtractedRecord, error) {
	rec := models.ExtractedRecord{
		Name:           s.ex.Name(rawText),
		Strength:       s.ex.Strength(rawText),
		BottleSize:     s.ex.Size(rawText),
		BatchNumber:    s.ex.Batch(rawText),
		ExpirationDate: s.ex.Expiration(rawText),
		SourceMode:     models.SourceTesseractOnly,
		Confidence:     models.ConfidenceMedium,
		RawText:        rawText,
	}

	s.log.Debug().
		Str("name", rec.Name).
		Str("strength", rec.Strength).
		Str("size", rec.BottleSize).
		Msg("Plain extraction complete")

	return rec, nil
}
