// Package cache provides the fetched-page cache used by source adapters.
// Listing and detail pages change slowly relative to an ingestion run, so
// re-runs within the TTL avoid re-crawling unchanged pages.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk and layered
// implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey derives a stable cache key from a fetched URL.
func PageKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "marquee:v1:" + hex.EncodeToString(hash[:])
}
