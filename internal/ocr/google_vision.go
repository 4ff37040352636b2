package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"bottletrack/internal/logger"
)

// MaxImageSizeBytes is the maximum image size accepted for recognition.
// Google Cloud Vision rejects requests beyond 20MB.
const MaxImageSizeBytes = 20 * 1024 * 1024

// GoogleVisionService implements Service using Google Cloud Vision TEXT_DETECTION.
type GoogleVisionService struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewGoogleVisionService creates a Vision-backed OCR service with credentials
// from the environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path
// or GOOGLE_CREDENTIALS JSON in env, falling back to application default
// credentials.
func NewGoogleVisionService(ctx context.Context) (*GoogleVisionService, error) {
	const op = "NewGoogleVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionService{
		client: client,
		log:    logger.WithComponent("ocr.vision"),
	}, nil
}

// NewGoogleVisionServiceWithClient creates a Vision-backed OCR service with an
// explicit client (for testing).
func NewGoogleVisionServiceWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionService {
	return &GoogleVisionService{
		client: client,
		log:    logger.WithComponent("ocr.vision"),
	}
}

// Recognize extracts text from an image using Vision TEXT_DETECTION.
// Options.CharWhitelist is ignored: the Vision API has no equivalent setting.
func (s *GoogleVisionService) Recognize(ctx context.Context, image []byte, opts Options) (string, error) {
	const op = "Recognize"

	if len(image) == 0 {
		return "", WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > MaxImageSizeBytes {
		return "", WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("image size %d exceeds limit", len(image)))
	}

	img, err := vision.NewImageFromReader(bytes.NewReader(image))
	if err != nil {
		return "", WrapOCRError(op, err, "failed to prepare image")
	}

	var imgCtx *visionpb.ImageContext
	if opts.LanguageHint != "" {
		imgCtx = &visionpb.ImageContext{LanguageHints: []string{opts.LanguageHint}}
	}

	annotations, err := s.client.DetectTexts(ctx, img, imgCtx, 1)
	if err != nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	// The first annotation carries the full detected text; the rest are
	// per-word boxes we do not need.
	if len(annotations) == 0 {
		s.log.Debug().Int("image_bytes", len(image)).Msg("Vision found no text")
		return "", nil
	}

	text := annotations[0].GetDescription()
	s.log.Debug().
		Int("image_bytes", len(image)).
		Int("text_len", len(text)).
		Msg("Vision recognition complete")

	return text, nil
}
