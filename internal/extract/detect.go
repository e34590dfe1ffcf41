package extract

import (
	"context"
	"strings"

	"github.com/wastetrack/ticketscan/internal/model"
	"github.com/wastetrack/ticketscan/internal/vision"
)

const detectionPrompt = `Analyze this scale ticket image and determine its source type.

Possible types:
1. "handwritten" - ticket with handwritten entries, typically in red ink
2. "thermal" - thermal scale printout with a standard printed format
3. "generic" - generic/other digital scale ticket

Return a JSON object:
{
    "source_type": "handwritten" or "thermal" or "generic",
    "confidence": 0.0 to 1.0,
    "indicators": ["list of visual indicators that led to this classification"]
}

Return ONLY the JSON object.`

// SourceDetector classifies the layout variant of a ticket image. Detection
// is a hint: every failure degrades to (generic, 0.5) instead of an error.
type SourceDetector struct {
	provider vision.Provider
}

// NewSourceDetector creates a new source detector
func NewSourceDetector(provider vision.Provider) *SourceDetector {
	return &SourceDetector{provider: provider}
}

// Detect classifies the ticket image into one of the automatic sources
func (d *SourceDetector) Detect(ctx context.Context, image []byte, mimeType string) (model.TicketSource, float64) {
	data, err := d.provider.ExtractStructured(ctx, image, mimeType, detectionPrompt)
	if err != nil {
		return model.SourceGeneric, 0.5
	}

	sourceType, _ := data["source_type"].(string)
	var source model.TicketSource
	switch strings.ToLower(strings.TrimSpace(sourceType)) {
	case "handwritten":
		source = model.SourceHandwritten
	case "thermal":
		source = model.SourceThermal
	case "generic":
		source = model.SourceGeneric
	default:
		// Unexpected answer counts as a detection failure
		return model.SourceGeneric, 0.5
	}

	confidence := 0.5
	if c, ok := data["confidence"].(float64); ok && c >= 0.0 && c <= 1.0 {
		confidence = c
	}

	return source, confidence
}
