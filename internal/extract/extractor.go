package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wastetrack/ticketscan/internal/model"
	"github.com/wastetrack/ticketscan/internal/vision"
)

// Extractor produces a typed record from one ticket image. Implementations
// are bound to a single layout variant and own its prompt and confidence
// heuristic.
type Extractor interface {
	// Source returns the layout variant this extractor handles
	Source() model.TicketSource

	// Extract runs structured extraction plus a raw OCR pass and returns a
	// populated result with per-field confidences
	Extract(ctx context.Context, image []byte, mimeType string) (*model.ExtractionResult, error)
}

// weightKeys are the fields that get numeric cleaning and validation
var weightKeys = map[string]bool{
	"gross_weight": true,
	"tare_weight":  true,
	"net_weight":   true,
}

var nonNumericRe = regexp.MustCompile(`[^0-9.]`)

// profile is the per-variant recipe a concrete extractor supplies: which
// prompt to send, which JSON keys to map, and how to score each field.
type profile struct {
	source model.TicketSource
	prompt string
	keys   []string

	// score assigns the confidence for a populated field before clamping
	score func(key string, value any) float64

	// notesKey, when set, names a prompt key whose answer is recorded as a
	// processing note instead of a field
	notesKey   string
	notesLabel string
}

// run executes a profile: one structured call for the typed fields, one
// plain-text call for the audit OCR dump.
func run(ctx context.Context, provider vision.Provider, image []byte, mimeType string, prof profile) (*model.ExtractionResult, error) {
	data, err := provider.ExtractStructured(ctx, image, mimeType, prof.prompt)
	if err != nil {
		return nil, err
	}

	rawText, err := provider.ExtractText(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	result := &model.ExtractionResult{
		Source:     prof.source,
		RawOCRText: rawText,
	}

	for _, key := range prof.keys {
		value, ok := data[key]
		if !ok || value == nil {
			continue
		}

		cleaned := cleanValue(key, value)
		if cleaned == nil {
			// Cleans to nothing: absent, not zero
			continue
		}

		result.SetField(key, &model.Field{
			Value:      cleaned,
			Confidence: clamp01(prof.score(key, value)),
			RawText:    stringify(value),
		})
	}

	if prof.notesKey != "" {
		if note, ok := data[prof.notesKey].(string); ok && strings.TrimSpace(note) != "" {
			result.AddNote(fmt.Sprintf("%s: %s", prof.notesLabel, strings.TrimSpace(note)))
		}
	}

	result.RecalculateConfidence()
	return result, nil
}

// cleanValue normalizes a raw extracted value. Weight fields are stripped to
// digits and decimal point and parsed; everything else is trimmed text.
// Returns nil when nothing usable remains.
func cleanValue(key string, value any) any {
	if weightKeys[key] {
		switch v := value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
		cleaned := nonNumericRe.ReplaceAllString(stringify(value), "")
		if cleaned == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return f
	}

	s := strings.TrimSpace(stringify(value))
	if s == "" {
		return nil
	}
	return s
}

// isNumeric reports whether the raw value already reads as a number
func isNumeric(value any) bool {
	switch v := value.(type) {
	case float64, float32, int, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	}
	return false
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func clamp01(f float64) float64 {
	if f > 1.0 {
		return 1.0
	}
	if f < 0.0 {
		return 0.0
	}
	return f
}
