// Package cache holds extraction results in memory so re-submitted images do
// not re-spend vision-model calls. Nothing is written to disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Cache defines the interface for result caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the image bytes plus the extraction context
// (provider name and source hint). The same photo through a different
// provider or hint is a different entry.
func Key(image []byte, provider string, hint string) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(hint))
	return "ticketscan:v1:" + hex.EncodeToString(h.Sum(nil))
}
