package models

import "time"

// Bottle is a single stored inventory record, one row per physical bottle.
type Bottle struct {
	// Core identifiers
	ID      string // Unique record identifier
	OwnerID string // Owning user; all queries are scoped to one owner

	// Label fields (kept as strings exactly as captured; values may be
	// hand-corrected by the user before commit)
	Name           string // Product name as printed on the label
	Brand          string // Brand name, if distinct from the product name
	Strength       string // Nicotine strength in mg, digits only ("0", "3", "6", ...)
	BottleSize     string // Bottle size in ml, digits only ("30", "60", "120", ...)
	BatchNumber    string // Batch/lot code, unvalidated free text
	ExpirationDate string // Expiration date, normalized to YYYY-MM-DD when possible

	CreatedAt time.Time // Record creation timestamp
}

// Source modes for an ExtractedRecord, matching the extraction path that
// produced it.
const (
	SourceAIEnhanced    = "ai-enhanced"    // vision model returned the fields directly
	SourceTesseractOnly = "tesseract-only" // plain OCR text plus local pattern extraction
	SourceMultiField    = "multi-field"    // one dedicated capture per field
)

// Confidence labels attached to an ExtractedRecord.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// ExtractedRecord is the best-effort result of one capture session. No field
// is required to be non-empty; required-field validation happens at the
// persistence boundary after the user has had a chance to edit.
type ExtractedRecord struct {
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	Strength       string `json:"mg"`
	BottleSize     string `json:"bottleSize"`
	BatchNumber    string `json:"batchNumber"`
	ExpirationDate string `json:"expirationDate"`

	// Provenance
	SourceMode string `json:"sourceMode"` // one of the Source* constants
	Confidence string `json:"confidence"` // one of the Confidence* constants

	// Raw OCR output, for the review screen. RawText is set in single-image
	// mode, RawTexts (keyed by field name) in multi-field mode.
	RawText  string            `json:"rawText,omitempty"`
	RawTexts map[string]string `json:"rawTexts,omitempty"`
}
