package ocr

import (
	"context"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"bottletrack/internal/logger"
)

// TesseractService implements Service with a local Tesseract engine.
//
// A fresh gosseract client is created per call: the underlying libtesseract
// handle is not safe for concurrent use, and per-call construction keeps
// whitelist settings from leaking between fields.
type TesseractService struct {
	tessdataPrefix string
	log            zerolog.Logger
}

// NewTesseractService creates a Tesseract-backed OCR service. tessdataPrefix
// may be empty to use the system default tessdata location.
func NewTesseractService(tessdataPrefix string) *TesseractService {
	return &TesseractService{
		tessdataPrefix: tessdataPrefix,
		log:            logger.WithComponent("ocr.tesseract"),
	}
}

// Recognize extracts text from an image using Tesseract.
func (s *TesseractService) Recognize(ctx context.Context, image []byte, opts Options) (string, error) {
	const op = "Recognize"

	if len(image) == 0 {
		return "", WrapOCRError(op, ErrEmptyImage, "")
	}
	if err := ctx.Err(); err != nil {
		return "", WrapOCRError(op, err, "context done before recognition")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if s.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(s.tessdataPrefix); err != nil {
			return "", WrapOCRError(op, err, "failed to set tessdata prefix")
		}
	}
	if opts.LanguageHint != "" {
		if err := client.SetLanguage(tesseractLang(opts.LanguageHint)); err != nil {
			return "", WrapOCRError(op, err, "failed to set language")
		}
	}
	if opts.CharWhitelist != "" {
		if err := client.SetWhitelist(opts.CharWhitelist); err != nil {
			return "", WrapOCRError(op, err, "failed to set whitelist")
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", WrapOCRError(op, err, "failed to load image")
	}

	text, err := client.Text()
	if err != nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, err.Error())
	}

	s.log.Debug().
		Int("image_bytes", len(image)).
		Int("text_len", len(text)).
		Bool("whitelisted", opts.CharWhitelist != "").
		Msg("Tesseract recognition complete")

	return text, nil
}

// tesseractLang maps BCP-47 hints to Tesseract traineddata names.
func tesseractLang(hint string) string {
	switch hint {
	case "en":
		return "eng"
	case "de":
		return "deu"
	case "es":
		return "spa"
	case "fr":
		return "fra"
	default:
		return hint
	}
}
