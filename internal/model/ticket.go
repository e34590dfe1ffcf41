package model

// ConfidentThreshold is the score at or above which a field is considered
// reliably extracted.
const ConfidentThreshold = 0.75

// TicketSource classifies the layout variant of a scale ticket
type TicketSource string

const (
	SourceHandwritten TicketSource = "handwritten" // handwritten red-ink entries
	SourceThermal     TicketSource = "thermal"     // thermal scale printout
	SourceGeneric     TicketSource = "generic"     // standard digital scale ticket
	SourceManual      TicketSource = "manual"      // manual entry, bypasses the pipeline
	SourceBulkImport  TicketSource = "bulk_import" // bulk import, bypasses the pipeline
)

// AutomaticSources lists the layout variants the pipeline can detect and
// extract on its own. Manual and bulk-import tickets are produced elsewhere.
func AutomaticSources() []TicketSource {
	return []TicketSource{SourceHandwritten, SourceThermal, SourceGeneric}
}

// IsAutomatic reports whether the source is handled by the extraction pipeline.
func (s TicketSource) IsAutomatic() bool {
	switch s {
	case SourceHandwritten, SourceThermal, SourceGeneric:
		return true
	}
	return false
}

// WeightUnit is the unit a ticket's weights are recorded in
type WeightUnit string

const (
	UnitLbs  WeightUnit = "lbs"
	UnitTons WeightUnit = "tons"
	UnitKg   WeightUnit = "kg"
)

// Field is a single extracted datum with its heuristic confidence.
// Confidence is advisory, not calibrated: it reflects how much the extraction
// logic trusts the reading, not a probability.
type Field struct {
	Value       any     `json:"value"`
	Confidence  float64 `json:"confidence"`
	RawText     string  `json:"raw_text,omitempty"`     // verbatim text as read
	BoundingBox []int   `json:"bounding_box,omitempty"` // pixel coords when the provider reports them
}

// IsConfident reports whether the field meets the confidence threshold.
func (f *Field) IsConfident() bool {
	return f.Confidence >= ConfidentThreshold
}

// Float returns the field value as a float64 when it holds a number.
func (f *Field) Float() (float64, bool) {
	switch v := f.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// ExtractionResult is the complete record extracted from one ticket image.
// Every field is optional; absent fields are nil.
type ExtractionResult struct {
	// Core identifiers
	TicketNumber *Field `json:"ticket_number,omitempty"`

	// Weights
	GrossWeight *Field `json:"gross_weight,omitempty"`
	TareWeight  *Field `json:"tare_weight,omitempty"`
	NetWeight   *Field `json:"net_weight,omitempty"`
	WeightUnit  *Field `json:"weight_unit,omitempty"`

	// Date/time
	Date    *Field `json:"date,omitempty"`
	TimeIn  *Field `json:"time_in,omitempty"`
	TimeOut *Field `json:"time_out,omitempty"`

	// Vehicle
	TruckID       *Field `json:"truck_id,omitempty"`
	LicensePlate  *Field `json:"license_plate,omitempty"`
	DriverName    *Field `json:"driver_name,omitempty"`
	HaulerCompany *Field `json:"hauler_company,omitempty"`

	// Material and destination
	MaterialType        *Field `json:"material_type,omitempty"`
	MaterialDescription *Field `json:"material_description,omitempty"`
	Destination         *Field `json:"destination,omitempty"`

	// Facility
	FacilityName    *Field `json:"facility_name,omitempty"`
	FacilityAddress *Field `json:"facility_address,omitempty"`

	// Project/customer
	ProjectName  *Field `json:"project_name,omitempty"`
	CustomerName *Field `json:"customer_name,omitempty"`
	JobNumber    *Field `json:"job_number,omitempty"`
	PONumber     *Field `json:"po_number,omitempty"`

	// Metadata
	Source            TicketSource `json:"source"`
	OverallConfidence float64      `json:"overall_confidence"`
	RawOCRText        string       `json:"raw_ocr_text,omitempty"`
	ProcessingNotes   []string     `json:"processing_notes,omitempty"`
}

// fieldSlots returns pointers to every field slot in declaration order.
func (r *ExtractionResult) fieldSlots() []**Field {
	return []**Field{
		&r.TicketNumber,
		&r.GrossWeight, &r.TareWeight, &r.NetWeight, &r.WeightUnit,
		&r.Date, &r.TimeIn, &r.TimeOut,
		&r.TruckID, &r.LicensePlate, &r.DriverName, &r.HaulerCompany,
		&r.MaterialType, &r.MaterialDescription, &r.Destination,
		&r.FacilityName, &r.FacilityAddress,
		&r.ProjectName, &r.CustomerName, &r.JobNumber, &r.PONumber,
	}
}

// fieldKeys mirrors fieldSlots: the wire key for each slot, same order.
var fieldKeys = []string{
	"ticket_number",
	"gross_weight", "tare_weight", "net_weight", "weight_unit",
	"date", "time_in", "time_out",
	"truck_id", "license_plate", "driver_name", "hauler_company",
	"material_type", "material_description", "destination",
	"facility_name", "facility_address",
	"project_name", "customer_name", "job_number", "po_number",
}

// SetField assigns a field by its wire key. It reports whether the key named
// a known field.
func (r *ExtractionResult) SetField(key string, f *Field) bool {
	for i, k := range fieldKeys {
		if k == key {
			*r.fieldSlots()[i] = f
			return true
		}
	}
	return false
}

// FieldByKey returns the field stored under the wire key, or nil.
func (r *ExtractionResult) FieldByKey(key string) *Field {
	for i, k := range fieldKeys {
		if k == key {
			return *r.fieldSlots()[i]
		}
	}
	return nil
}

// PopulatedFields returns every non-nil field in declaration order.
func (r *ExtractionResult) PopulatedFields() []*Field {
	var fields []*Field
	for _, slot := range r.fieldSlots() {
		if *slot != nil {
			fields = append(fields, *slot)
		}
	}
	return fields
}

// RecalculateConfidence sets OverallConfidence to the arithmetic mean of the
// populated fields' confidences, or 0.0 when nothing was populated.
func (r *ExtractionResult) RecalculateConfidence() {
	fields := r.PopulatedFields()
	if len(fields) == 0 {
		r.OverallConfidence = 0.0
		return
	}
	sum := 0.0
	for _, f := range fields {
		sum += f.Confidence
	}
	r.OverallConfidence = sum / float64(len(fields))
}

// NetWeightValue returns the net weight, deriving gross − tare when no net
// weight field was extracted directly. The derived value is not re-scored.
func (r *ExtractionResult) NetWeightValue() (float64, bool) {
	if r.NetWeight != nil {
		if v, ok := r.NetWeight.Float(); ok {
			return v, true
		}
	}
	if r.GrossWeight == nil || r.TareWeight == nil {
		return 0, false
	}
	gross, okG := r.GrossWeight.Float()
	tare, okT := r.TareWeight.Float()
	if !okG || !okT {
		return 0, false
	}
	return gross - tare, true
}

// AddNote appends a diagnostic note. Notes inform, they never fail anything.
func (r *ExtractionResult) AddNote(note string) {
	r.ProcessingNotes = append(r.ProcessingNotes, note)
}
