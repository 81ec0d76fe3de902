// Package cache provides the read-through cache for body graphs.
//
// The cleave engine caches the expensive part of a request, fetching a
// body's member list and edge list from DVID, keyed by body ID and the
// body's mutation ID. A body that mutates on the store side gets a new
// mutation ID, so stale entries are never served even before their TTL
// expires. Entries can also be invalidated explicitly when the store sends
// a mutation notification.
//
// Backends:
//   - memory: bounded in-process map for single-instance deployments (default)
//   - redis: shared cache for multi-instance deployments
//   - null: disables caching, useful in tests
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the interface implemented by all cache backends.
// Values are opaque bytes; callers own serialization.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values whose key starts with prefix.
	// Used to invalidate every cached snapshot of one body at once.
	DeletePrefix(ctx context.Context, prefix string) error

	// Close releases backend resources.
	Close() error
}

// BodyPrefix returns the key prefix shared by all cached snapshots of a body.
func BodyPrefix(body uint64) string {
	return fmt.Sprintf("body:%d:", body)
}

// BodyKey returns the cache key for one body snapshot at a given mutation ID.
func BodyKey(body, mutID uint64) string {
	return fmt.Sprintf("%smut:%d", BodyPrefix(body), mutID)
}
