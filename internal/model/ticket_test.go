package model

import (
	"math"
	"testing"
)

func TestFieldIsConfident(t *testing.T) {
	tests := []struct {
		confidence float64
		want       bool
	}{
		{0.75, true},
		{0.90, true},
		{0.7499, false},
		{0.0, false},
	}

	for _, tt := range tests {
		f := &Field{Value: "x", Confidence: tt.confidence}
		if got := f.IsConfident(); got != tt.want {
			t.Errorf("IsConfident() with %.4f = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestSetFieldAndFieldByKey(t *testing.T) {
	r := &ExtractionResult{}

	if !r.SetField("gross_weight", &Field{Value: 15280.0, Confidence: 0.95}) {
		t.Fatal("SetField rejected known key gross_weight")
	}
	if r.SetField("not_a_field", &Field{Value: "x"}) {
		t.Error("SetField accepted unknown key")
	}

	if r.GrossWeight == nil {
		t.Fatal("GrossWeight not assigned")
	}
	if got := r.FieldByKey("gross_weight"); got != r.GrossWeight {
		t.Error("FieldByKey returned a different field than the struct member")
	}
	if got := r.FieldByKey("tare_weight"); got != nil {
		t.Errorf("FieldByKey for unset field = %v, want nil", got)
	}
}

func TestRecalculateConfidence(t *testing.T) {
	r := &ExtractionResult{}
	r.RecalculateConfidence()
	if r.OverallConfidence != 0.0 {
		t.Errorf("empty result confidence = %v, want 0.0", r.OverallConfidence)
	}

	r.TicketNumber = &Field{Value: "T-1", Confidence: 0.80}
	r.GrossWeight = &Field{Value: 15280.0, Confidence: 0.50}
	r.TareWeight = &Field{Value: 8500.0, Confidence: 0.85}
	r.RecalculateConfidence()

	want := (0.80 + 0.50 + 0.85) / 3
	if math.Abs(r.OverallConfidence-want) > 1e-9 {
		t.Errorf("OverallConfidence = %v, want %v", r.OverallConfidence, want)
	}
	if r.OverallConfidence < 0 || r.OverallConfidence > 1 {
		t.Errorf("OverallConfidence %v outside [0,1]", r.OverallConfidence)
	}
}

func TestNetWeightValueDerived(t *testing.T) {
	r := &ExtractionResult{
		GrossWeight: &Field{Value: 15280.0, Confidence: 0.95},
		TareWeight:  &Field{Value: 8500.0, Confidence: 0.95},
	}

	net, ok := r.NetWeightValue()
	if !ok {
		t.Fatal("expected derived net weight")
	}
	if net != 6780.0 {
		t.Errorf("net = %v, want 6780.0", net)
	}
}

func TestNetWeightValueDirect(t *testing.T) {
	r := &ExtractionResult{
		GrossWeight: &Field{Value: 15280.0, Confidence: 0.95},
		TareWeight:  &Field{Value: 8500.0, Confidence: 0.95},
		NetWeight:   &Field{Value: 6700.0, Confidence: 0.95},
	}

	// Direct extraction wins over derivation
	net, ok := r.NetWeightValue()
	if !ok || net != 6700.0 {
		t.Errorf("net = %v (%v), want 6700.0", net, ok)
	}
}

func TestNetWeightValueMissing(t *testing.T) {
	r := &ExtractionResult{
		GrossWeight: &Field{Value: 15280.0, Confidence: 0.95},
	}
	if _, ok := r.NetWeightValue(); ok {
		t.Error("expected no net weight with tare missing")
	}
}

func TestIsAutomatic(t *testing.T) {
	for _, src := range AutomaticSources() {
		if !src.IsAutomatic() {
			t.Errorf("%s should be automatic", src)
		}
	}
	if SourceManual.IsAutomatic() {
		t.Error("manual should not be automatic")
	}
	if SourceBulkImport.IsAutomatic() {
		t.Error("bulk_import should not be automatic")
	}
}
