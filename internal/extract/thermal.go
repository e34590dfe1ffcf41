package extract

import (
	"context"

	"github.com/wastetrack/ticketscan/internal/model"
	"github.com/wastetrack/ticketscan/internal/vision"
)

const thermalPrompt = `Analyze this scale ticket (thermal printout). These tickets have a standard format
with printed (not handwritten) text.

Extract the following information into a JSON object:
{
    "ticket_number": "the ticket/scale ticket number",
    "gross_weight": "gross/in weight as a number only",
    "tare_weight": "tare/out weight as a number only",
    "net_weight": "net weight as a number only",
    "weight_unit": "lbs, tons, or kg",
    "date": "date in MM/DD/YYYY format",
    "time_in": "time in in HH:MM format",
    "time_out": "time out in HH:MM format",
    "truck_id": "truck ID or vehicle number",
    "license_plate": "tag/license plate",
    "driver_name": "driver name",
    "hauler_company": "carrier/hauler company",
    "material_type": "product/material type code or name",
    "material_description": "material description",
    "destination": "destination (landfill, recycling, etc)",
    "facility_name": "facility or location name",
    "customer_name": "customer/account name",
    "job_number": "job number or ticket reference",
    "po_number": "PO number if present"
}

IMPORTANT:
- Thermal prints may have faded sections - extract what's visible
- Look for the standard layout: header, weights section, footer
- Weight units are typically shown next to weight values
- Include ONLY extracted values, use null for fields not found

Return ONLY the JSON object, no additional text.`

var thermalKeys = []string{
	"ticket_number",
	"gross_weight", "tare_weight", "net_weight", "weight_unit",
	"date", "time_in", "time_out",
	"truck_id", "license_plate", "driver_name", "hauler_company",
	"material_type", "material_description", "destination",
	"facility_name", "customer_name", "job_number", "po_number",
}

// ThermalExtractor handles thermal scale printouts
type ThermalExtractor struct {
	provider vision.Provider
}

// NewThermalExtractor creates an extractor for thermal printouts
func NewThermalExtractor(provider vision.Provider) *ThermalExtractor {
	return &ThermalExtractor{provider: provider}
}

// Source returns the layout variant this extractor handles
func (e *ThermalExtractor) Source() model.TicketSource {
	return model.SourceThermal
}

// Extract runs the thermal-printout extraction profile
func (e *ThermalExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*model.ExtractionResult, error) {
	return run(ctx, e.provider, image, mimeType, profile{
		source: model.SourceThermal,
		prompt: thermalPrompt,
		keys:   thermalKeys,
		score:  thermalScore,
	})
}

// thermalScore trusts printed text more than handwriting, so weight fields
// swing harder on numeric validation: 0.95 when the value reads as a number,
// 0.60 when it does not. Every other field sits at 0.88.
func thermalScore(key string, value any) float64 {
	if !weightKeys[key] {
		return 0.88
	}
	if isNumeric(value) {
		return 0.95
	}
	return 0.60
}
