// Package cache stores finished plans and rendered artifacts.
//
// Backends implement [Cache]: [NullCache] disables caching, [MemoryCache]
// is a bounded in-process LRU, [FileCache] persists entries on disk for CLI
// use, and [RedisCache] is shared between server replicas. Keys come from a
// [Keyer] and always include the recipe database fingerprint, so a change to
// the recipe set or selection never serves a stale plan.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. ok is false on a miss; err is reserved
	// for backend failures.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default expiry for cached entries.
const (
	TTLPlan     = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
