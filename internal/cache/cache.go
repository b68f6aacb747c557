// Package cache stores fetched pages so repeated learning runs stay offline.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/endi/internal/model"
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
	return "endi:v1:" + hex.EncodeToString(hash[:])
}

// New builds the page cache described by cfg, stored under dir.
// A disabled cache is a Nop.
func New(cfg model.CacheConfig, dir string) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	if dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, dir, cfg.DiskTTL)
}

// Nop caches nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)                { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                      { return nil }
func (Nop) Clear() error                             { return nil }
