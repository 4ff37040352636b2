package capture

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"bottletrack/internal/extract"
	"bottletrack/internal/logger"
	"bottletrack/pkg/models"
)

// OpenAIStrategy extracts fields with a vision-capable chat model. The model
// sees both the label photo and the raw OCR text; fields the model leaves
// empty are backfilled from the pattern rules so an evasive answer degrades
// to plain extraction per field instead of losing the capture.
type OpenAIStrategy struct {
	client     *openai.Client
	model      string
	maxRetries int
	ex         *extract.Extractor
	log        zerolog.Logger
}

// NewOpenAIStrategy creates the AI-backed extraction strategy.
func NewOpenAIStrategy(apiKey, model string, ex *extract.Extractor) *OpenAIStrategy {
	return NewOpenAIStrategyWithClient(openai.NewClient(apiKey), model, ex)
}

// NewOpenAIStrategyWithClient creates the strategy with an explicit client (for testing).
func NewOpenAIStrategyWithClient(client *openai.Client, model string, ex *extract.Extractor) *OpenAIStrategy {
	return &OpenAIStrategy{
		client:     client,
		model:      model,
		maxRetries: 3,
		ex:         ex,
		log:        logger.WithComponent("capture.openai"),
	}
}

// Name identifies the strategy in logs.
func (s *OpenAIStrategy) Name() string { return "openai" }

// aiFields mirrors the JSON object the model is asked to produce.
type aiFields struct {
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	Strength       string `json:"mg"`
	BottleSize     string `json:"bottleSize"`
	BatchNumber    string `json:"batchNumber"`
	ExpirationDate string `json:"expirationDate"`
}

const systemPrompt = `You read photos of e-liquid bottle labels. Extract the requested fields exactly as printed, without guessing. Respond with a single JSON object and nothing else. Use an empty string for any field you cannot read.`

// Extract asks the model for all fields at once.
func (s *OpenAIStrategy) Extract(ctx context.Context, image []byte, rawText string) (models.ExtractedRecord, error) {
	const op = "Extract"

	prompt := fmt.Sprintf(`Extract these fields from the bottle label photo:
- "name": the product or flavor name
- "brand": the brand name
- "mg": nicotine strength in mg, digits only
- "bottleSize": bottle size in ml, digits only
- "batchNumber": batch or lot number
- "expirationDate": expiration date as printed

OCR text from the same label, for reference (may contain errors):
%s`, rawText)

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: 0.1,
			MaxTokens:   300,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: prompt,
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    imageDataURL(image),
								Detail: openai.ImageURLDetailLow,
							},
						},
					},
				},
			},
		})
		if err != nil {
			lastErr = err
			s.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", s.maxRetries).
				Msg("OpenAI request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from model")
			continue
		}

		content := stripCodeFence(resp.Choices[0].Message.Content)

		var fields aiFields
		if err := json.Unmarshal([]byte(content), &fields); err != nil {
			lastErr = fmt.Errorf("failed to parse model JSON response: %w", err)
			s.log.Warn().
				Err(err).
				Str("response", content).
				Int("attempt", attempt).
				Msg("Failed to parse model response, retrying")
			continue
		}

		rec := models.ExtractedRecord{
			Name:           cleanFieldAnswer(extract.FieldName, fields.Name),
			Brand:          cleanFieldValue(fields.Brand),
			Strength:       cleanFieldAnswer(extract.FieldStrength, fields.Strength),
			BottleSize:     cleanFieldAnswer(extract.FieldSize, fields.BottleSize),
			BatchNumber:    cleanFieldAnswer(extract.FieldBatch, fields.BatchNumber),
			ExpirationDate: cleanFieldAnswer(extract.FieldExpiration, fields.ExpirationDate),
			SourceMode:     models.SourceAIEnhanced,
			Confidence:     models.ConfidenceHigh,
			RawText:        rawText,
		}
		s.backfill(&rec, rawText)

		s.log.Info().
			Str("name", rec.Name).
			Str("strength", rec.Strength).
			Int("attempt", attempt).
			Msg("AI extraction complete")

		return rec, nil
	}

	return models.ExtractedRecord{}, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, s.maxRetries, lastErr)
}

// fieldPrompts asks for a single value, no JSON wrapper.
var fieldPrompts = map[extract.Field]string{
	extract.FieldName:       "This photo shows the product name area of an e-liquid bottle label. Return only the product or flavor name, exactly as printed.",
	extract.FieldStrength:   "This photo shows the nicotine strength of an e-liquid bottle label. Return only the strength in mg as digits, e.g. 7.",
	extract.FieldSize:       "This photo shows the volume marking of an e-liquid bottle label. Return only the size in ml as digits, e.g. 30.",
	extract.FieldBatch:      "This photo shows the batch or lot code of an e-liquid bottle label. Return only the code, exactly as printed.",
	extract.FieldExpiration: "This photo shows the expiration date of an e-liquid bottle label. Return only the date, exactly as printed.",
}

// ExtractField asks the model for one field from a cropped per-field photo.
func (s *OpenAIStrategy) ExtractField(ctx context.Context, field extract.Field, image []byte, rawText string) (string, error) {
	const op = "ExtractField"

	prompt, ok := fieldPrompts[field]
	if !ok {
		return "", fmt.Errorf("%s: no prompt for field %q", op, field)
	}
	if rawText != "" {
		prompt += "\n\nOCR text from the same photo, for reference (may contain errors):\n" + rawText
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.1,
		MaxTokens:   60,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You read photos of e-liquid bottle labels. Answer with the requested value only, no explanation. Answer with an empty string if the value is not readable.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageDataURL(image),
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices from model", op)
	}

	return cleanFieldAnswer(field, resp.Choices[0].Message.Content), nil
}

// backfill replaces empty AI fields with rule-based values from the OCR text.
func (s *OpenAIStrategy) backfill(rec *models.ExtractedRecord, rawText string) {
	if rec.Name == "" {
		rec.Name = s.ex.Name(rawText)
	}
	if rec.Strength == "" {
		rec.Strength = s.ex.Strength(rawText)
	}
	if rec.BottleSize == "" {
		rec.BottleSize = s.ex.Size(rawText)
	}
	if rec.BatchNumber == "" {
		rec.BatchNumber = s.ex.Batch(rawText)
	}
	if rec.ExpirationDate == "" {
		rec.ExpirationDate = s.ex.Expiration(rawText)
	}
}

// imageDataURL encodes image bytes as a data URL for the vision API.
func imageDataURL(image []byte) string {
	mime := "image/jpeg"
	if len(image) > 4 && string(image[1:4]) == "PNG" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))
}

// stripCodeFence removes a surrounding markdown code fence, which some models
// add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// placeholders the model uses when it cannot read a value.
var placeholderValues = map[string]bool{
	"n/a":          true,
	"none":         true,
	"unknown":      true,
	"not visible":  true,
	"not found":    true,
	"not readable": true,
}

// cleanFieldValue trims quotes and whitespace and maps placeholder answers to
// the empty string.
func cleanFieldValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"'`)
	v = strings.TrimSpace(v)
	if placeholderValues[strings.ToLower(v)] {
		return ""
	}
	return v
}

var (
	nonDigits    = regexp.MustCompile(`\D`)
	nonDateChars = regexp.MustCompile(`[^0-9/.\-]`)
)

// cleanFieldAnswer applies the field's value convention on top of
// cleanFieldValue: strength and size are digits only, dates keep digits and
// separators, free-text fields pass through. Model answers like "7mg" or
// "30 ml" land as "7" and "30".
func cleanFieldAnswer(field extract.Field, v string) string {
	v = cleanFieldValue(v)
	switch field {
	case extract.FieldStrength, extract.FieldSize:
		return nonDigits.ReplaceAllString(v, "")
	case extract.FieldExpiration:
		return strings.TrimSpace(nonDateChars.ReplaceAllString(v, ""))
	default:
		return v
	}
}
