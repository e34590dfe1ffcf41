// Package engine orchestrates ticket extraction: provider selection, source
// detection, per-source extractor dispatch, confidence-gated retry and
// bounded-concurrency batch processing.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wastetrack/ticketscan/internal/cache"
	"github.com/wastetrack/ticketscan/internal/extract"
	"github.com/wastetrack/ticketscan/internal/model"
	"github.com/wastetrack/ticketscan/internal/vision"
	"github.com/wastetrack/ticketscan/internal/worker"
)

// Engine is the unified ticket extraction pipeline
type Engine struct {
	cfg      model.EngineConfig
	provider vision.Provider
	detector *extract.SourceDetector
	limiter  *worker.Limiter
	results  cache.Cache

	mu         sync.Mutex
	extractors map[model.TicketSource]extract.Extractor

	// sleep is swapped out by tests to observe backoff without waiting
	sleep func(ctx context.Context, d time.Duration) error
}

// ProcessRequest is one extraction request
type ProcessRequest struct {
	Image    []byte
	MIMEType string

	// SourceHint skips detection when set; must be an automatic source
	SourceHint model.TicketSource

	// AutoDetect runs the source detector when no hint is given; without it
	// the generic extractor is used
	AutoDetect bool
}

// NewProcessRequest returns a request with the defaults callers usually want:
// JPEG input and automatic source detection.
func NewProcessRequest(image []byte, mimeType string) ProcessRequest {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return ProcessRequest{
		Image:      image,
		MIMEType:   mimeType,
		AutoDetect: true,
	}
}

// BatchItem is one image in a batch request
type BatchItem struct {
	Image    []byte
	MIMEType string
}

// New creates an engine, resolving the vision provider from the configured
// API keys (default provider first, then any other constructible one).
func New(cfg *model.Config) (*Engine, error) {
	provider, err := vision.Resolve(cfg.Vision)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, provider), nil
}

// NewWithProvider creates an engine around an already-built provider
func NewWithProvider(cfg *model.Config, provider vision.Provider) *Engine {
	e := &Engine{
		cfg:        cfg.Engine,
		provider:   provider,
		detector:   extract.NewSourceDetector(provider),
		extractors: make(map[model.TicketSource]extract.Extractor),
		sleep:      sleepContext,
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		e.limiter = worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	if cfg.Cache.Enabled {
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		e.results = cache.NewMemoryCache(ttl, 2*ttl)
	}

	if e.cfg.MaxRetries <= 0 {
		e.cfg.MaxRetries = 3
	}
	if e.cfg.ConfidenceThreshold <= 0 {
		e.cfg.ConfidenceThreshold = 0.75
	}
	if e.cfg.RetryBackoff <= 0 {
		e.cfg.RetryBackoff = time.Second
	}

	return e
}

// Provider returns the active vision provider
func (e *Engine) Provider() vision.Provider {
	return e.provider
}

// SetProvider swaps the vision provider and invalidates the per-source
// extractor cache built on the old one.
func (e *Engine) SetProvider(provider vision.Provider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.provider = provider
	e.detector = extract.NewSourceDetector(provider)
	e.extractors = make(map[model.TicketSource]extract.Extractor)
}

// extractorFor returns the extractor bound to the source, constructing it
// lazily. Construction is idempotent, so sharing across concurrent Process
// calls is safe under the mutex.
func (e *Engine) extractorFor(source model.TicketSource) extract.Extractor {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ex, ok := e.extractors[source]; ok {
		return ex
	}

	var ex extract.Extractor
	switch source {
	case model.SourceHandwritten:
		ex = extract.NewHandwrittenExtractor(e.provider)
	case model.SourceThermal:
		ex = extract.NewThermalExtractor(e.provider)
	default:
		ex = extract.NewGenericExtractor(e.provider)
	}
	e.extractors[source] = ex
	return ex
}

// Process extracts structured data from one ticket image.
//
// Low-confidence results degrade gracefully: the caller gets the last
// attempt's data plus warning notes. Provider errors retry with backoff and,
// once exhausted, surface as an *OCRError wrapping the last cause.
func (e *Engine) Process(ctx context.Context, req ProcessRequest) (*model.ExtractionResult, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if req.SourceHint != "" && !req.SourceHint.IsAutomatic() {
		return nil, fmt.Errorf("source %q is not handled by the extraction pipeline", req.SourceHint)
	}

	cacheKey := cache.Key(req.Image, e.provider.Name(), string(req.SourceHint))
	if e.results != nil {
		if body, ok := e.results.Get(cacheKey); ok {
			var cached model.ExtractionResult
			if err := json.Unmarshal(body, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	// Resolve the layout variant: hint, else detection, else generic
	source := req.SourceHint
	if source == "" {
		if req.AutoDetect {
			if err := e.waitLimiter(ctx); err != nil {
				return nil, err
			}
			source, _ = e.detector.Detect(ctx, req.Image, mimeType)
		} else {
			source = model.SourceGeneric
		}
	}

	extractor := e.extractorFor(source)

	var notes []string
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		if err := e.waitLimiter(ctx); err != nil {
			return nil, err
		}

		result, err := extractor.Extract(ctx, req.Image, mimeType)
		if err != nil {
			lastErr = err
			if attempt < e.cfg.MaxRetries {
				if serr := e.sleep(ctx, e.cfg.RetryBackoff*time.Duration(attempt)); serr != nil {
					return nil, serr
				}
			}
			continue
		}

		if result.OverallConfidence >= e.cfg.ConfidenceThreshold {
			e.attachNotes(result, notes)
			e.store(cacheKey, result)
			return result, nil
		}

		if attempt < e.cfg.MaxRetries {
			// Discard the low-confidence attempt; keep only the note
			notes = append(notes, fmt.Sprintf("low confidence (%.2f), retrying", result.OverallConfidence))
			continue
		}

		// Out of attempts: low confidence is reported, not fatal
		notes = append(notes, fmt.Sprintf("low confidence after %d attempts", e.cfg.MaxRetries))
		e.attachNotes(result, notes)
		return result, nil
	}

	return nil, &OCRError{Attempts: e.cfg.MaxRetries, Err: lastErr}
}

// ProcessBatch extracts many images concurrently under a fixed limit.
//
// The returned slice matches the input positionally and in length. Per-item
// failures become zero-confidence results with a note; ProcessBatch itself
// never fails.
func (e *Engine) ProcessBatch(ctx context.Context, items []BatchItem, hint model.TicketSource, concurrency int) []*model.ExtractionResult {
	if concurrency <= 0 {
		concurrency = 3
	}

	tasks := make([]worker.Task, len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(ctx context.Context) (*model.ExtractionResult, error) {
			req := NewProcessRequest(item.Image, item.MIMEType)
			req.SourceHint = hint
			return e.Process(ctx, req)
		}
	}

	return worker.NewRunner(concurrency).Run(ctx, tasks)
}

// attachNotes prepends the retry notes accumulated across attempts, keeping
// them in chronological order ahead of the final attempt's own notes.
func (e *Engine) attachNotes(result *model.ExtractionResult, notes []string) {
	if len(notes) == 0 {
		return
	}
	result.ProcessingNotes = append(notes, result.ProcessingNotes...)
}

// store caches an accepted result. Cache failures are ignored; the cache is
// an optimization, never a dependency.
func (e *Engine) store(key string, result *model.ExtractionResult) {
	if e.results == nil {
		return
	}
	if body, err := json.Marshal(result); err == nil {
		_ = e.results.Set(key, body)
	}
}

func (e *Engine) waitLimiter(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx, e.provider.Name())
}

// sleepContext sleeps for d or until the context is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
