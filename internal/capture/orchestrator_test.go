package capture

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"bottletrack/internal/extract"
	"bottletrack/internal/ocr"
	"bottletrack/pkg/models"
)

// fakeOCR returns canned text per whitelist, or a global error.
type fakeOCR struct {
	mu          sync.Mutex
	text        string
	byWhitelist map[string]string
	err         error
	calls       int
}

func (f *fakeOCR) Recognize(ctx context.Context, image []byte, opts ocr.Options) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.byWhitelist != nil {
		if text, ok := f.byWhitelist[opts.CharWhitelist]; ok {
			return text, nil
		}
	}
	return f.text, nil
}

type fakeStrategy struct {
	rec models.ExtractedRecord
	err error
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Extract(ctx context.Context, image []byte, rawText string) (models.ExtractedRecord, error) {
	if f.err != nil {
		return models.ExtractedRecord{}, f.err
	}
	rec := f.rec
	rec.RawText = rawText
	return rec, nil
}

func newTestExtractor() *extract.Extractor {
	return extract.New(extract.DefaultConfig())
}

func TestExtractSingleEnhancedWins(t *testing.T) {
	ex := newTestExtractor()
	enhanced := &fakeStrategy{rec: models.ExtractedRecord{
		Name:       "Mega Melon",
		Strength:   "7",
		SourceMode: models.SourceAIEnhanced,
		Confidence: models.ConfidenceHigh,
	}}
	o := NewOrchestrator(&fakeOCR{text: "MEGA MELON\n7mg"}, enhanced, NewPlainStrategy(ex), ex)

	rec := o.ExtractSingle(context.Background(), []byte("img"), true)
	assert.Equal(t, "Mega Melon", rec.Name)
	assert.Equal(t, models.SourceAIEnhanced, rec.SourceMode)
	assert.Equal(t, models.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, "MEGA MELON\n7mg", rec.RawText)
}

func TestExtractSingleFallsBackToPlain(t *testing.T) {
	ex := newTestExtractor()
	enhanced := &fakeStrategy{err: errors.New("model unavailable")}
	o := NewOrchestrator(&fakeOCR{text: "Blue Razz\n7mg 30ml"}, enhanced, NewPlainStrategy(ex), ex)

	rec := o.ExtractSingle(context.Background(), []byte("img"), true)
	assert.Equal(t, models.SourceTesseractOnly, rec.SourceMode)
	assert.Equal(t, models.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, "Blue Razz", rec.Name)
	assert.Equal(t, "7", rec.Strength)
	assert.Equal(t, "30", rec.BottleSize)
}

func TestExtractSinglePlainOnly(t *testing.T) {
	ex := newTestExtractor()
	o := NewOrchestrator(&fakeOCR{text: "Freeze\n7mg"}, nil, NewPlainStrategy(ex), ex)

	rec := o.ExtractSingle(context.Background(), []byte("img"), true)
	assert.Equal(t, models.SourceTesseractOnly, rec.SourceMode)
	assert.Equal(t, "Freeze", rec.Name)
}

func TestExtractSingleSurvivesOCRFailure(t *testing.T) {
	ex := newTestExtractor()
	o := NewOrchestrator(&fakeOCR{err: errors.New("engine crashed")}, nil, NewPlainStrategy(ex), ex)

	rec := o.ExtractSingle(context.Background(), []byte("img"), false)
	assert.Equal(t, models.SourceTesseractOnly, rec.SourceMode)
	assert.Empty(t, rec.Name)
	assert.Empty(t, rec.Strength)
}

func TestExtractSingleNormalizesDate(t *testing.T) {
	ex := newTestExtractor()
	o := NewOrchestrator(&fakeOCR{text: "Freeze\nEXP 12/31/2025"}, nil, NewPlainStrategy(ex), ex)

	rec := o.ExtractSingle(context.Background(), []byte("img"), false)
	assert.Equal(t, "2025-12-31", rec.ExpirationDate)
}

func TestExtractMultiField(t *testing.T) {
	ex := newTestExtractor()
	fake := &fakeOCR{byWhitelist: map[string]string{
		extract.FieldName.Whitelist():       "Mega Melon Ice",
		extract.FieldStrength.Whitelist():   "7mg",
		extract.FieldSize.Whitelist():       "30ml",
		extract.FieldBatch.Whitelist():      "AB12345",
		extract.FieldExpiration.Whitelist(): "12/31/25",
	}}
	o := NewOrchestrator(fake, nil, NewPlainStrategy(ex), ex)

	images := map[extract.Field][]byte{
		extract.FieldName:       []byte("n"),
		extract.FieldStrength:   []byte("s"),
		extract.FieldSize:       []byte("z"),
		extract.FieldBatch:      []byte("b"),
		extract.FieldExpiration: []byte("e"),
	}
	rec := o.ExtractMultiField(context.Background(), images, false)

	assert.Equal(t, models.SourceMultiField, rec.SourceMode)
	assert.Equal(t, models.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, "Mega Melon Ice", rec.Name)
	assert.Equal(t, "7", rec.Strength)
	assert.Equal(t, "30", rec.BottleSize)
	assert.Equal(t, "AB12345", rec.BatchNumber)
	assert.Equal(t, "2025-12-31", rec.ExpirationDate)
	assert.Equal(t, "7mg", rec.RawTexts[string(extract.FieldStrength)])
	assert.Equal(t, 5, fake.calls)
}

func TestExtractMultiFieldPartialFailure(t *testing.T) {
	ex := newTestExtractor()
	// Whitelists not in the map fall through to the default empty text.
	fake := &fakeOCR{byWhitelist: map[string]string{
		extract.FieldName.Whitelist(): "Blue Razz",
	}}
	o := NewOrchestrator(fake, nil, NewPlainStrategy(ex), ex)

	images := map[extract.Field][]byte{
		extract.FieldName:     []byte("n"),
		extract.FieldStrength: []byte("s"),
	}
	rec := o.ExtractMultiField(context.Background(), images, false)

	assert.Equal(t, "Blue Razz", rec.Name)
	assert.Empty(t, rec.Strength)
}

// fakeFieldStrategy answers per-field prompts with canned strings.
type fakeFieldStrategy struct {
	fakeStrategy
	answers map[extract.Field]string
}

func (f *fakeFieldStrategy) ExtractField(ctx context.Context, field extract.Field, image []byte, rawText string) (string, error) {
	return f.answers[field], nil
}

func TestExtractMultiFieldCleansAIAnswers(t *testing.T) {
	ex := newTestExtractor()
	enhanced := &fakeFieldStrategy{answers: map[extract.Field]string{
		extract.FieldName:       `"Mega Melon"`,
		extract.FieldStrength:   "7mg",
		extract.FieldSize:       "30 ml",
		extract.FieldExpiration: "EXP 12/31/2025",
	}}
	o := NewOrchestrator(&fakeOCR{}, enhanced, NewPlainStrategy(ex), ex)

	images := map[extract.Field][]byte{
		extract.FieldName:       []byte("n"),
		extract.FieldStrength:   []byte("s"),
		extract.FieldSize:       []byte("z"),
		extract.FieldExpiration: []byte("e"),
	}
	rec := o.ExtractMultiField(context.Background(), images, true)

	assert.Equal(t, models.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, "Mega Melon", rec.Name)
	assert.Equal(t, "7", rec.Strength)
	assert.Equal(t, "30", rec.BottleSize)
	assert.Equal(t, "2025-12-31", rec.ExpirationDate)
}

func TestCleanFieldAnswer(t *testing.T) {
	assert.Equal(t, "7", cleanFieldAnswer(extract.FieldStrength, "7mg"))
	assert.Equal(t, "30", cleanFieldAnswer(extract.FieldSize, "30 ml"))
	assert.Equal(t, "12/31/2025", cleanFieldAnswer(extract.FieldExpiration, "EXP 12/31/2025"))
	// Free-text fields keep their content.
	assert.Equal(t, "Lot B-123", cleanFieldAnswer(extract.FieldBatch, " Lot B-123 "))
	assert.Equal(t, "Mega Melon", cleanFieldAnswer(extract.FieldName, `"Mega Melon"`))
	// Placeholder answers still collapse to empty.
	assert.Equal(t, "", cleanFieldAnswer(extract.FieldStrength, "N/A"))
}

func TestCleanFieldValue(t *testing.T) {
	assert.Equal(t, "Mega Melon", cleanFieldValue(`  "Mega Melon" `))
	assert.Equal(t, "", cleanFieldValue("N/A"))
	assert.Equal(t, "", cleanFieldValue("not visible"))
	assert.Equal(t, "7", cleanFieldValue("'7'"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"name":"x"}`, stripCodeFence("```json\n{\"name\":\"x\"}\n```"))
	assert.Equal(t, `{"name":"x"}`, stripCodeFence("```\n{\"name\":\"x\"}\n```"))
	assert.Equal(t, `{"name":"x"}`, stripCodeFence(`{"name":"x"}`))
}
