// Package capture turns label photos into structured bottle records.
//
// Extraction is strategy-based: each Strategy produces a full record tagged
// with its source mode and confidence, and the Orchestrator composes them so
// that an enhanced (AI-backed) strategy can fail without the capture failing.
package capture

import (
	"context"

	"bottletrack/internal/extract"
	"bottletrack/pkg/models"
)

// Strategy extracts a full record from one label image. rawText is the plain
// OCR text for the same image, recognized once by the orchestrator so
// strategies do not repeat the work.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Extract builds a record from the image and its OCR text. The returned
	// record carries the strategy's SourceMode and Confidence tags.
	Extract(ctx context.Context, image []byte, rawText string) (models.ExtractedRecord, error)
}

// FieldStrategy is implemented by strategies that can answer for a single
// field of a dedicated per-field photo.
type FieldStrategy interface {
	// ExtractField returns the value of one field from a cropped image of
	// just that field.
	ExtractField(ctx context.Context, field extract.Field, image []byte, rawText string) (string, error)
}
