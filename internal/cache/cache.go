// Package cache stores fetched pages between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/keywatch/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from a URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "keywatch:v1:" + hex.EncodeToString(hash[:])
}

// memoryTTL bounds how long a page stays in memory regardless of the
// configured disk TTL
const memoryTTL = 15 * time.Minute

// New builds the page cache described by cfg, or returns nil when
// caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cfg.Dir == "" {
		return NewMemoryCache(min(ttl, memoryTTL), 10*time.Minute)
	}
	return NewLayeredCache(min(ttl, memoryTTL), cfg.Dir, ttl)
}
