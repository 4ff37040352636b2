package capture

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"bottletrack/internal/extract"
	"bottletrack/internal/logger"
	"bottletrack/internal/ocr"
	"bottletrack/pkg/models"
)

// maxFieldWorkers bounds concurrent per-field recognitions in multi-field
// capture.
const maxFieldWorkers = 5

// Orchestrator composes OCR and extraction strategies into the two capture
// flows. Extraction never returns an error: every failure degrades to a less
// capable strategy and, at worst, to empty fields, so a bad photo still
// produces a record the user can correct by hand.
type Orchestrator struct {
	ocr      ocr.Service
	enhanced Strategy
	plain    Strategy
	ex       *extract.Extractor
	langHint string
	log      zerolog.Logger
}

// NewOrchestrator builds an orchestrator. enhanced may be nil, in which case
// only plain extraction runs.
func NewOrchestrator(ocrSvc ocr.Service, enhanced, plain Strategy, ex *extract.Extractor) *Orchestrator {
	return &Orchestrator{
		ocr:      ocrSvc,
		enhanced: enhanced,
		plain:    plain,
		ex:       ex,
		langHint: "en",
		log:      logger.WithComponent("capture"),
	}
}

// ExtractSingle captures all fields from one full-label photo. When
// useEnhanced is set and the enhanced strategy succeeds, its record wins;
// any enhanced failure falls back to plain extraction.
func (o *Orchestrator) ExtractSingle(ctx context.Context, image []byte, useEnhanced bool) models.ExtractedRecord {
	rawText, err := o.ocr.Recognize(ctx, image, ocr.Options{LanguageHint: o.langHint})
	if err != nil {
		o.log.Warn().Err(err).Msg("OCR failed, continuing with empty text")
		rawText = ""
	}

	if useEnhanced && o.enhanced != nil {
		rec, err := o.enhanced.Extract(ctx, image, rawText)
		if err == nil {
			return finishRecord(rec)
		}
		o.log.Warn().
			Err(err).
			Str("strategy", o.enhanced.Name()).
			Msg("Enhanced extraction failed, falling back to plain")
	}

	rec, _ := o.plain.Extract(ctx, image, rawText)
	return finishRecord(rec)
}

// ExtractMultiField captures a record from dedicated per-field photos. Each
// field is recognized with its own character whitelist; at most
// maxFieldWorkers fields are processed at once. A field whose photo cannot be
// read ends up empty without affecting the others.
func (o *Orchestrator) ExtractMultiField(ctx context.Context, images map[extract.Field][]byte, useEnhanced bool) models.ExtractedRecord {
	fieldStrategy, haveFieldStrategy := o.enhanced.(FieldStrategy)
	useAI := useEnhanced && haveFieldStrategy

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		values   = make(map[extract.Field]string, len(images))
		rawTexts = make(map[string]string, len(images))
	)
	sem := make(chan struct{}, maxFieldWorkers)

	for field, image := range images {
		wg.Add(1)
		go func(field extract.Field, image []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := o.ocr.Recognize(ctx, image, ocr.Options{
				LanguageHint:  o.langHint,
				CharWhitelist: field.Whitelist(),
			})
			if err != nil {
				o.log.Warn().
					Err(err).
					Str("field", string(field)).
					Msg("Per-field OCR failed")
				text = ""
			}

			value := ""
			if useAI {
				value, err = fieldStrategy.ExtractField(ctx, field, image, text)
				if err != nil {
					o.log.Warn().
						Err(err).
						Str("field", string(field)).
						Msg("Per-field AI extraction failed, using pattern rules")
					value = ""
				}
				value = cleanFieldAnswer(field, value)
			}
			if value == "" {
				value = o.ex.Extract(field, text)
			}

			mu.Lock()
			values[field] = value
			rawTexts[string(field)] = text
			mu.Unlock()
		}(field, image)
	}
	wg.Wait()

	confidence := models.ConfidenceMedium
	if useAI {
		confidence = models.ConfidenceHigh
	}

	return finishRecord(models.ExtractedRecord{
		Name:           values[extract.FieldName],
		Strength:       values[extract.FieldStrength],
		BottleSize:     values[extract.FieldSize],
		BatchNumber:    values[extract.FieldBatch],
		ExpirationDate: values[extract.FieldExpiration],
		SourceMode:     models.SourceMultiField,
		Confidence:     confidence,
		RawTexts:       rawTexts,
	})
}

// finishRecord applies assembly-time cleanups shared by both flows.
func finishRecord(rec models.ExtractedRecord) models.ExtractedRecord {
	rec.ExpirationDate = extract.NormalizeDate(rec.ExpirationDate)
	return rec
}
