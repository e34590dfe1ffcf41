package cache

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	base := Key([]byte("image"), "anthropic", "thermal")

	if base != Key([]byte("image"), "anthropic", "thermal") {
		t.Error("identical inputs should produce identical keys")
	}
	if base == Key([]byte("other"), "anthropic", "thermal") {
		t.Error("different image should change the key")
	}
	if base == Key([]byte("image"), "openai", "thermal") {
		t.Error("different provider should change the key")
	}
	if base == Key([]byte("image"), "anthropic", "") {
		t.Error("different hint should change the key")
	}

	// Boundary bytes keep adjacent segments from colliding
	if Key([]byte("ab"), "c", "") == Key([]byte("a"), "bc", "") {
		t.Error("image/provider boundary collision")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache should miss")
	}

	if err := c.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if val, found := c.Get("k"); !found || string(val) != "v" {
		t.Errorf("Get = %q, %v", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key should miss")
	}

	_ = c.Set("a", []byte("1"))
	_ = c.Set("b", []byte("2"))
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("cleared cache should miss")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(20*time.Millisecond, time.Minute)

	_ = c.Set("k", []byte("v"))
	time.Sleep(40 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("entry should expire after the TTL")
	}
}
