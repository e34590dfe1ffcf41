package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wastetrack/ticketscan/internal/model"
)

// stubProvider satisfies vision.Provider for engine wiring; the extractors
// themselves are faked, so only the detector path ever reaches it
type stubProvider struct {
	name            string
	structured      map[string]any
	structuredCalls int32
}

func (s *stubProvider) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *stubProvider) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	return "", nil
}

func (s *stubProvider) ExtractStructured(ctx context.Context, image []byte, mimeType string, prompt string) (map[string]any, error) {
	atomic.AddInt32(&s.structuredCalls, 1)
	if s.structured == nil {
		return nil, errors.New("no canned response")
	}
	return s.structured, nil
}

// fakeExtractor returns scripted results attempt by attempt
type fakeExtractor struct {
	source  model.TicketSource
	calls   int32
	extract func(attempt int, image []byte) (*model.ExtractionResult, error)
}

func (f *fakeExtractor) Source() model.TicketSource { return f.source }

func (f *fakeExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*model.ExtractionResult, error) {
	attempt := int(atomic.AddInt32(&f.calls, 1))
	return f.extract(attempt, image)
}

func resultWithConfidence(source model.TicketSource, confidence float64) *model.ExtractionResult {
	return &model.ExtractionResult{
		Source:            source,
		TicketNumber:      &model.Field{Value: "T-1", Confidence: confidence},
		OverallConfidence: confidence,
	}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.RateLimit.RequestsPerSecond = 0
	cfg.Engine.RetryBackoff = time.Millisecond
	return cfg
}

func testEngine(cfg *model.Config, extractor *fakeExtractor) (*Engine, *stubProvider) {
	provider := &stubProvider{}
	e := NewWithProvider(cfg, provider)
	if extractor != nil {
		e.extractors[extractor.source] = extractor
	}
	return e, provider
}

func TestProcess_HighConfidenceFirstAttempt(t *testing.T) {
	extractor := &fakeExtractor{
		source: model.SourceThermal,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return resultWithConfidence(model.SourceThermal, 0.90), nil
		},
	}
	e, _ := testEngine(testConfig(), extractor)

	req := NewProcessRequest([]byte("img"), "image/jpeg")
	req.SourceHint = model.SourceThermal

	result, err := e.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.OverallConfidence != 0.90 {
		t.Errorf("OverallConfidence = %v, want 0.90", result.OverallConfidence)
	}
	if len(result.ProcessingNotes) != 0 {
		t.Errorf("unexpected notes: %v", result.ProcessingNotes)
	}
	if extractor.calls != 1 {
		t.Errorf("extractor called %d times, want 1", extractor.calls)
	}
}

func TestProcess_RetriesUntilConfident(t *testing.T) {
	confidences := []float64{0.60, 0.60, 0.82}
	extractor := &fakeExtractor{
		source: model.SourceHandwritten,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return resultWithConfidence(model.SourceHandwritten, confidences[attempt-1]), nil
		},
	}
	e, _ := testEngine(testConfig(), extractor)

	req := NewProcessRequest([]byte("img"), "image/jpeg")
	req.SourceHint = model.SourceHandwritten

	result, err := e.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if extractor.calls != 3 {
		t.Errorf("extractor called %d times, want 3", extractor.calls)
	}
	if result.OverallConfidence != 0.82 {
		t.Errorf("OverallConfidence = %v, want the third attempt's 0.82", result.OverallConfidence)
	}

	// Both discarded attempts leave a note on the accepted result
	if len(result.ProcessingNotes) != 2 {
		t.Fatalf("ProcessingNotes = %v, want exactly 2 retry notes", result.ProcessingNotes)
	}
	for _, note := range result.ProcessingNotes {
		if !strings.Contains(note, "low confidence (0.60), retrying") {
			t.Errorf("unexpected note: %q", note)
		}
	}
}

func TestProcess_LowConfidenceExhausted(t *testing.T) {
	extractor := &fakeExtractor{
		source: model.SourceGeneric,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return resultWithConfidence(model.SourceGeneric, 0.40), nil
		},
	}
	e, _ := testEngine(testConfig(), extractor)

	req := NewProcessRequest([]byte("img"), "image/jpeg")
	req.SourceHint = model.SourceGeneric

	result, err := e.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("low confidence should degrade, not fail: %v", err)
	}
	if extractor.calls != 3 {
		t.Errorf("extractor called %d times, want 3", extractor.calls)
	}
	if len(result.ProcessingNotes) != 3 {
		t.Fatalf("ProcessingNotes = %v, want 2 retry notes plus the final one", result.ProcessingNotes)
	}
	last := result.ProcessingNotes[2]
	if !strings.Contains(last, "low confidence after 3 attempts") {
		t.Errorf("final note = %q", last)
	}
}

func TestProcess_ErrorsExhaustWithBackoff(t *testing.T) {
	cause := errors.New("provider unavailable")
	extractor := &fakeExtractor{
		source: model.SourceThermal,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return nil, cause
		},
	}

	cfg := testConfig()
	cfg.Engine.RetryBackoff = 10 * time.Millisecond
	e, _ := testEngine(cfg, extractor)

	var backoffs []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		backoffs = append(backoffs, d)
		return nil
	}

	req := NewProcessRequest([]byte("img"), "image/jpeg")
	req.SourceHint = model.SourceThermal

	_, err := e.Process(context.Background(), req)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var ocrErr *OCRError
	if !errors.As(err, &ocrErr) {
		t.Fatalf("expected *OCRError, got %T: %v", err, err)
	}
	if ocrErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", ocrErr.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Error("OCRError should wrap the last cause")
	}
	if extractor.calls != 3 {
		t.Errorf("extractor called %d times, want 3", extractor.calls)
	}

	// Backoff scales with the attempt number; the last attempt does not sleep
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(backoffs) != len(want) {
		t.Fatalf("backoffs = %v, want %v", backoffs, want)
	}
	for i := range want {
		if backoffs[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, backoffs[i], want[i])
		}
	}
}

func TestProcess_SourceHintSkipsDetection(t *testing.T) {
	extractor := &fakeExtractor{
		source: model.SourceHandwritten,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return resultWithConfidence(model.SourceHandwritten, 0.90), nil
		},
	}
	e, provider := testEngine(testConfig(), extractor)

	req := NewProcessRequest([]byte("img"), "image/jpeg")
	req.SourceHint = model.SourceHandwritten

	if _, err := e.Process(context.Background(), req); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if provider.structuredCalls != 0 {
		t.Errorf("detector ran %d times despite the hint", provider.structuredCalls)
	}
}

func TestProcess_AutoDetectRoutesExtractor(t *testing.T) {
	handwritten := &fakeExtractor{
		source: model.SourceHandwritten,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return resultWithConfidence(model.SourceHandwritten, 0.90), nil
		},
	}
	e, provider := testEngine(testConfig(), handwritten)
	provider.structured = map[string]any{"source_type": "handwritten", "confidence": 0.9}

	result, err := e.Process(context.Background(), NewProcessRequest([]byte("img"), "image/jpeg"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Source != model.SourceHandwritten {
		t.Errorf("Source = %s, want handwritten via detection", result.Source)
	}
	if handwritten.calls != 1 {
		t.Errorf("handwritten extractor called %d times, want 1", handwritten.calls)
	}
}

func TestProcess_NoDetectFallsBackToGeneric(t *testing.T) {
	generic := &fakeExtractor{
		source: model.SourceGeneric,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return resultWithConfidence(model.SourceGeneric, 0.90), nil
		},
	}
	e, provider := testEngine(testConfig(), generic)

	req := NewProcessRequest([]byte("img"), "image/jpeg")
	req.AutoDetect = false

	if _, err := e.Process(context.Background(), req); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if provider.structuredCalls != 0 {
		t.Error("detector should not run when AutoDetect is off")
	}
	if generic.calls != 1 {
		t.Errorf("generic extractor called %d times, want 1", generic.calls)
	}
}

func TestProcess_RejectsManualSources(t *testing.T) {
	e, _ := testEngine(testConfig(), nil)

	for _, source := range []model.TicketSource{model.SourceManual, model.SourceBulkImport} {
		req := NewProcessRequest([]byte("img"), "image/jpeg")
		req.SourceHint = source
		if _, err := e.Process(context.Background(), req); err == nil {
			t.Errorf("expected error for source hint %q", source)
		}
	}
}

func TestProcess_CachesAcceptedResults(t *testing.T) {
	extractor := &fakeExtractor{
		source: model.SourceThermal,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			return resultWithConfidence(model.SourceThermal, 0.90), nil
		},
	}

	cfg := testConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute
	e, _ := testEngine(cfg, extractor)

	req := NewProcessRequest([]byte("same-image"), "image/jpeg")
	req.SourceHint = model.SourceThermal

	first, err := e.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	second, err := e.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}

	if extractor.calls != 1 {
		t.Errorf("extractor called %d times, want 1 (second call served from cache)", extractor.calls)
	}
	if second.OverallConfidence != first.OverallConfidence || second.Source != first.Source {
		t.Error("cached result does not match the original")
	}
}

func TestSetProvider_InvalidatesExtractors(t *testing.T) {
	extractor := &fakeExtractor{source: model.SourceThermal}
	e, _ := testEngine(testConfig(), extractor)

	if len(e.extractors) != 1 {
		t.Fatalf("precondition: %d extractors", len(e.extractors))
	}
	e.SetProvider(&stubProvider{name: "replacement"})
	if len(e.extractors) != 0 {
		t.Error("extractor cache should be cleared on provider swap")
	}
	if e.Provider().Name() != "replacement" {
		t.Errorf("Provider().Name() = %s", e.Provider().Name())
	}
}

func TestProcessBatch(t *testing.T) {
	extractor := &fakeExtractor{
		source: model.SourceGeneric,
		extract: func(attempt int, image []byte) (*model.ExtractionResult, error) {
			if string(image) == "bad" {
				return nil, errors.New("unreadable image")
			}
			result := resultWithConfidence(model.SourceGeneric, 0.90)
			result.TicketNumber = &model.Field{Value: string(image), Confidence: 0.90}
			return result, nil
		},
	}
	e, _ := testEngine(testConfig(), extractor)

	items := []BatchItem{
		{Image: []byte("a"), MIMEType: "image/jpeg"},
		{Image: []byte("bad"), MIMEType: "image/jpeg"},
		{Image: []byte("c"), MIMEType: "image/jpeg"},
	}

	results := e.ProcessBatch(context.Background(), items, model.SourceGeneric, 2)
	if len(results) != len(items) {
		t.Fatalf("got %d results for %d items", len(results), len(items))
	}

	if results[0].TicketNumber.Value != "a" || results[2].TicketNumber.Value != "c" {
		t.Errorf("results out of order: %v, %v", results[0].TicketNumber.Value, results[2].TicketNumber.Value)
	}

	// The failed item degrades in place without affecting its neighbors
	failed := results[1]
	if failed.OverallConfidence != 0.0 {
		t.Errorf("failed item confidence = %v, want 0.0", failed.OverallConfidence)
	}
	if len(failed.ProcessingNotes) == 0 || !strings.Contains(failed.ProcessingNotes[0], "extraction failed") {
		t.Errorf("failed item notes = %v", failed.ProcessingNotes)
	}
}
