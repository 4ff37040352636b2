package capture

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"bottletrack/internal/extract"
	"bottletrack/internal/logger"
	"bottletrack/pkg/models"
)

// DocumentAIConfig configures the Document AI extraction strategy.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// DocumentAIStrategy extracts fields with a trained Document AI label
// processor. An alternative to the OpenAI strategy for deployments that keep
// everything inside Google Cloud.
type DocumentAIStrategy struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	ex     *extract.Extractor
	log    zerolog.Logger
}

// NewDocumentAIStrategy creates the strategy with credentials from the
// environment.
func NewDocumentAIStrategy(ctx context.Context, config DocumentAIConfig, ex *extract.Extractor) (*DocumentAIStrategy, error) {
	const op = "NewDocumentAIStrategy"

	if config.ProjectID == "" {
		return nil, fmt.Errorf("%s: project ID is required", op)
	}
	if config.ProcessorID == "" {
		return nil, fmt.Errorf("%s: processor ID is required", op)
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	// Set regional endpoint if not us-central1
	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create Document AI client for location %s: %w", op, config.Location, err)
	}

	return NewDocumentAIStrategyWithClient(config, client, ex), nil
}

// NewDocumentAIStrategyWithClient creates the strategy with an explicit client (for testing).
func NewDocumentAIStrategyWithClient(config DocumentAIConfig, client *documentai.DocumentProcessorClient, ex *extract.Extractor) *DocumentAIStrategy {
	return &DocumentAIStrategy{
		client: client,
		config: config,
		ex:     ex,
		log:    logger.WithComponent("capture.documentai"),
	}
}

// Name identifies the strategy in logs.
func (s *DocumentAIStrategy) Name() string { return "documentai" }

// Close releases the underlying client.
func (s *DocumentAIStrategy) Close() error {
	return s.client.Close()
}

// processorName constructs the full processor resource name.
func (s *DocumentAIStrategy) processorName() string {
	if s.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			s.config.ProjectID, s.config.Location, s.config.ProcessorID, s.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		s.config.ProjectID, s.config.Location, s.config.ProcessorID)
}

// Extract sends the image to the label processor and maps its entities onto
// the record. Entities the processor misses are backfilled from the pattern
// rules over the processor's own text layer.
func (s *DocumentAIStrategy) Extract(ctx context.Context, image []byte, rawText string) (models.ExtractedRecord, error) {
	const op = "Extract"

	processCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	mime := "image/jpeg"
	if len(image) > 4 && string(image[1:4]) == "PNG" {
		mime = "image/png"
	}

	req := &documentaipb.ProcessRequest{
		Name: s.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: mime,
			},
		},
	}

	resp, err := s.client.ProcessDocument(processCtx, req)
	if err != nil {
		return models.ExtractedRecord{}, fmt.Errorf("%s: processor call failed: %w", op, err)
	}
	if resp.Document == nil {
		return models.ExtractedRecord{}, fmt.Errorf("%s: no document in response", op)
	}

	rec := models.ExtractedRecord{
		SourceMode: models.SourceAIEnhanced,
		Confidence: models.ConfidenceHigh,
		RawText:    rawText,
	}
	if rec.RawText == "" {
		rec.RawText = resp.Document.Text
	}

	for _, entity := range resp.Document.Entities {
		value := strings.TrimSpace(entity.MentionText)
		if value == "" {
			continue
		}
		switch normalizeEntityType(entity.Type) {
		case "name", "productname":
			rec.Name = value
		case "brand":
			rec.Brand = value
		case "mg", "strength", "nicotinestrength":
			rec.Strength = value
		case "bottlesize", "size", "volume":
			rec.BottleSize = value
		case "batchnumber", "batch", "lot":
			rec.BatchNumber = value
		case "expirationdate", "expiry", "expiration":
			rec.ExpirationDate = value
		}
	}

	s.backfill(&rec)

	s.log.Info().
		Int("entities", len(resp.Document.Entities)).
		Str("name", rec.Name).
		Msg("Document AI extraction complete")

	return rec, nil
}

// normalizeEntityType folds processor entity type names ("product_name",
// "Product-Name") onto plain lowercase keys.
func normalizeEntityType(t string) string {
	t = strings.ToLower(t)
	t = strings.ReplaceAll(t, "_", "")
	t = strings.ReplaceAll(t, "-", "")
	return t
}

func (s *DocumentAIStrategy) backfill(rec *models.ExtractedRecord) {
	text := rec.RawText
	if rec.Name == "" {
		rec.Name = s.ex.Name(text)
	}
	if rec.Strength == "" {
		rec.Strength = s.ex.Strength(text)
	}
	if rec.BottleSize == "" {
		rec.BottleSize = s.ex.Size(text)
	}
	if rec.BatchNumber == "" {
		rec.BatchNumber = s.ex.Batch(text)
	}
	if rec.ExpirationDate == "" {
		rec.ExpirationDate = s.ex.Expiration(text)
	}
}
