package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(1, 2)

	// Burst of 2, then the bucket is empty
	if !l.Allow("anthropic") {
		t.Error("first request should be allowed")
	}
	if !l.Allow("anthropic") {
		t.Error("second request should be allowed within burst")
	}
	if l.Allow("anthropic") {
		t.Error("third request should be throttled")
	}

	// Providers do not share a bucket
	if !l.Allow("openai") {
		t.Error("a different provider should have its own bucket")
	}
}

func TestLimiter_DisabledRate(t *testing.T) {
	l := NewLimiter(0, 0)

	for i := 0; i < 100; i++ {
		if !l.Allow("anthropic") {
			t.Fatal("disabled limiter should always allow")
		}
	}
	if err := l.Wait(context.Background(), "anthropic"); err != nil {
		t.Errorf("Wait on disabled limiter: %v", err)
	}
}

func TestLimiter_NilReceiver(t *testing.T) {
	var l *Limiter
	if !l.Allow("anthropic") {
		t.Error("nil limiter should allow")
	}
	if err := l.Wait(context.Background(), "anthropic"); err != nil {
		t.Errorf("nil limiter Wait: %v", err)
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	if err := l.Wait(context.Background(), "slow"); err != nil {
		t.Fatalf("first Wait should clear immediately: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "slow"); err == nil {
		t.Error("expected context error while throttled")
	}
}

func TestLimiter_SetProviderRate(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.SetProviderRate("ollama", 1000, 10)

	for i := 0; i < 10; i++ {
		if !l.Allow("ollama") {
			t.Fatalf("request %d should be allowed under the custom rate", i)
		}
	}
}
