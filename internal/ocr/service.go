// Package ocr provides plain text recognition for bottle label photos.
//
// Two providers are supported:
//   - Tesseract (default): runs locally via libtesseract, honors per-field
//     character whitelists, needs no network access.
//   - Google Cloud Vision: remote TEXT_DETECTION, generally better on curved
//     or low-contrast labels, but has no character whitelist knob.
//
// Required Environment Variables (Vision provider only):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package ocr

import (
	"context"
	"fmt"
)

// Provider names accepted by New.
const (
	ProviderTesseract = "tesseract"
	ProviderVision    = "vision"
)

// Options tunes a single recognition call.
type Options struct {
	// LanguageHint is a BCP-47 language code hint (e.g. "en"). Empty means
	// provider default.
	LanguageHint string

	// CharWhitelist restricts recognition to the given characters. Only
	// honored by the Tesseract provider; Vision ignores it.
	CharWhitelist string
}

// Service extracts text from a single label image.
type Service interface {
	// Recognize returns the raw text detected in image. The image is the
	// encoded file content (JPEG or PNG). An empty result without error means
	// the provider found no text.
	Recognize(ctx context.Context, image []byte, opts Options) (string, error)
}

// New builds the Service named by provider.
func New(ctx context.Context, provider, tessdataPrefix string) (Service, error) {
	const op = "New"

	switch provider {
	case ProviderTesseract:
		return NewTesseractService(tessdataPrefix), nil
	case ProviderVision:
		return NewGoogleVisionService(ctx)
	default:
		return nil, WrapOCRError(op, ErrUnknownProvider, fmt.Sprintf("provider: %q", provider))
	}
}
