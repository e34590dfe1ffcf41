package extract

import (
	"context"

	"github.com/wastetrack/ticketscan/internal/model"
	"github.com/wastetrack/ticketscan/internal/vision"
)

const genericPrompt = `Analyze this scale ticket image and extract all relevant information.

Extract into a JSON object:
{
    "ticket_number": "ticket/receipt number",
    "gross_weight": "gross weight (number only)",
    "tare_weight": "tare weight (number only)",
    "net_weight": "net weight (number only)",
    "weight_unit": "lbs, tons, or kg",
    "date": "date (MM/DD/YYYY)",
    "time_in": "time in (HH:MM)",
    "time_out": "time out (HH:MM)",
    "truck_id": "truck/vehicle ID",
    "license_plate": "license plate",
    "driver_name": "driver name",
    "hauler_company": "hauling company",
    "material_type": "material type",
    "material_description": "material description",
    "destination": "destination type",
    "facility_name": "facility name",
    "customer_name": "customer name",
    "job_number": "job number",
    "po_number": "PO number"
}

Return ONLY the JSON object with extracted values. Use null for missing fields.`

var genericKeys = []string{
	"ticket_number",
	"gross_weight", "tare_weight", "net_weight", "weight_unit",
	"date", "time_in", "time_out",
	"truck_id", "license_plate", "driver_name", "hauler_company",
	"material_type", "material_description", "destination",
	"facility_name", "customer_name", "job_number", "po_number",
}

// GenericExtractor handles standard digital scale tickets
type GenericExtractor struct {
	provider vision.Provider
}

// NewGenericExtractor creates an extractor for standard digital tickets
func NewGenericExtractor(provider vision.Provider) *GenericExtractor {
	return &GenericExtractor{provider: provider}
}

// Source returns the layout variant this extractor handles
func (e *GenericExtractor) Source() model.TicketSource {
	return model.SourceGeneric
}

// Extract runs the generic extraction profile: flat confidence, no numeric
// bonus or penalty.
func (e *GenericExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*model.ExtractionResult, error) {
	return run(ctx, e.provider, image, mimeType, profile{
		source: model.SourceGeneric,
		prompt: genericPrompt,
		keys:   genericKeys,
		score:  func(string, any) float64 { return 0.85 },
	})
}
