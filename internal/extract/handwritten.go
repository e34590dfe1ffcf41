package extract

import (
	"context"

	"github.com/wastetrack/ticketscan/internal/model"
	"github.com/wastetrack/ticketscan/internal/vision"
)

// handwrittenPrompt biases the model toward the failure modes of handwritten
// tickets: red ink, fading, ambiguous digits.
const handwrittenPrompt = `Analyze this scale ticket image. The entries on this ticket are likely HANDWRITTEN in RED INK.
Pay special attention to handwritten numbers and text.

Extract the following information into a JSON object:
{
    "ticket_number": "the ticket/receipt number",
    "gross_weight": "gross weight as a number only",
    "tare_weight": "tare weight as a number only",
    "net_weight": "net weight as a number only",
    "weight_unit": "lbs, tons, or kg",
    "date": "date in MM/DD/YYYY format",
    "time_in": "time in HH:MM format",
    "time_out": "time out in HH:MM format",
    "truck_id": "truck number or fleet ID",
    "license_plate": "license plate number",
    "driver_name": "driver's name",
    "hauler_company": "hauling company name",
    "material_type": "type of material (concrete, wood, metal, mixed, etc)",
    "material_description": "detailed description if available",
    "facility_name": "facility name",
    "customer_name": "customer or project name",
    "job_number": "job or PO number",
    "confidence_notes": "any areas of uncertainty in reading handwritten text"
}

IMPORTANT:
- For handwritten numbers, be careful to distinguish 1/7, 4/9, 5/6, 0/6/8
- Red ink may appear faded - look carefully
- Include ONLY extracted values, use null for fields not found
- For weights, extract numbers only without units

Return ONLY the JSON object, no additional text.`

var handwrittenKeys = []string{
	"ticket_number",
	"gross_weight", "tare_weight", "net_weight", "weight_unit",
	"date", "time_in", "time_out",
	"truck_id", "license_plate", "driver_name", "hauler_company",
	"material_type", "material_description",
	"facility_name", "customer_name", "job_number",
}

// HandwrittenExtractor handles tickets with handwritten red-ink entries
type HandwrittenExtractor struct {
	provider vision.Provider
}

// NewHandwrittenExtractor creates an extractor for handwritten tickets
func NewHandwrittenExtractor(provider vision.Provider) *HandwrittenExtractor {
	return &HandwrittenExtractor{provider: provider}
}

// Source returns the layout variant this extractor handles
func (e *HandwrittenExtractor) Source() model.TicketSource {
	return model.SourceHandwritten
}

// Extract runs the handwritten-ticket extraction profile
func (e *HandwrittenExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*model.ExtractionResult, error) {
	return run(ctx, e.provider, image, mimeType, profile{
		source:     model.SourceHandwritten,
		prompt:     handwrittenPrompt,
		keys:       handwrittenKeys,
		score:      handwrittenScore,
		notesKey:   "confidence_notes",
		notesLabel: "handwriting notes",
	})
}

// handwrittenScore trusts handwriting less than print. Weight fields start at
// 0.70 and move with numeric validation; everything else starts at 0.80.
func handwrittenScore(key string, value any) float64 {
	if !weightKeys[key] {
		return 0.80
	}
	confidence := 0.70
	if isNumeric(value) {
		confidence += 0.15
	} else {
		confidence -= 0.20
	}
	return confidence
}
