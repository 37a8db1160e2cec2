// Package store defines the key-value capability consumed by nscache.
//
// A Store is the set of primitive commands the cache composes: it never sees
// namespaces or serialized value semantics, only opaque keys and bytes.
// Implementations MUST be safe for concurrent use and byte-for-byte
// transparent: Get must return exactly the []byte previously passed to Set
// for the same key (no prepended metadata, no re-encoding).
//
// Error contract: a miss is not an error. Transport and server failures are
// returned as-is; the cache layer adds no retry or suppression on top.
package store

import (
	"context"
	"time"
)

// TTL sentinels returned by Store.TTL. They mirror the Redis convention
// (-1 for "exists without expiry", -2 for "no such key") and are distinct
// outcomes: a persistent key and an absent key must never be conflated.
const (
	// NoExpiry means the key exists and has no TTL set.
	NoExpiry time.Duration = -1
	// Missing means the key does not exist.
	Missing time.Duration = -2
)

// Store is a minimal byte store with TTLs, pattern enumeration, and atomic
// counters. TTL semantics on write: ttl > 0 sets an expiry; ttl <= 0 stores
// without expiry.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores value only when key is absent. Returns false when the key
	// already exists. This must be a single atomic operation at the store,
	// never a check-then-set.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Del removes keys and returns how many existed. Deleting absent keys is
	// not an error.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// IncrBy/DecrBy atomically adjust the integer value at key, initializing
	// an absent key to 0 first, and return the new value. Must use the
	// store's native counter primitive, never read-modify-write.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	DecrBy(ctx context.Context, key string, delta int64) (int64, error)

	// Expire sets or overwrites the TTL on an existing key. Returns false
	// when the key is absent. A non-positive ttl removes the key immediately.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL returns the remaining lifetime of key, NoExpiry for a persistent
	// key, or Missing for an absent key.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Keys returns every key matching the glob pattern in a single blocking
	// call. Unsafe on large keyspaces; prefer Scan.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Scan returns one page of keys matching pattern starting at cursor,
	// plus the next cursor. A returned cursor of 0 means iteration is
	// complete. Pages may be empty and may repeat keys; callers must
	// tolerate both.
	Scan(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}
