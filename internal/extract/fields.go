// Package extract turns noisy OCR text into typed label field values.
//
// Each field is served by an ordered list of (pattern, validator) rules: the
// first pattern whose captured value passes the field's sanity check wins.
// Bounded numeric fields (strength, size) always prefer a validated match
// over an unvalidated one, even if the unvalidated one appears earlier in the
// text. A field whose rules are all exhausted degrades to a fallback and
// finally to the empty string; extraction never fails.
package extract

// Field identifies one label field. The string values double as wire names
// for multi-field capture uploads.
type Field string

const (
	FieldName       Field = "name"
	FieldStrength   Field = "mg"
	FieldSize       Field = "bottleSize"
	FieldBatch      Field = "batchNumber"
	FieldExpiration Field = "expirationDate"
)

// Fields returns all label fields in capture order.
func Fields() []Field {
	return []Field{FieldName, FieldStrength, FieldSize, FieldBatch, FieldExpiration}
}

// Whitelist returns the recommended OCR character allow-list for a dedicated
// per-field capture. Restricting the character set noticeably improves the
// raw-text recognition rate on cropped images; whether the OCR engine honors
// it is up to the engine (Tesseract does, Cloud Vision has no such knob).
func (f Field) Whitelist() string {
	switch f {
	case FieldName:
		return "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 -&."
	case FieldStrength:
		return "0123456789mgMG "
	case FieldSize:
		return "0123456789mlML "
	case FieldBatch:
		return "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	case FieldExpiration:
		return "0123456789/-. "
	default:
		return ""
	}
}
