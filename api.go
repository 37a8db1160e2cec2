package nscache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/nscache/codec"
	st "github.com/unkn0wn-root/nscache/store"
)

// Defaults applied by New and Reconfigure when the corresponding Options
// field is zero.
const (
	DefaultNamespace = "cache"
	DefaultTTL       = 5 * time.Minute
	DefaultScanBatch = 100
)

// TTL sentinels re-exported from the store package so most callers never
// import it directly.
const (
	NoExpiry = st.NoExpiry
	Missing  = st.Missing
)

// Cache is the namespaced cache API. All operations are single round trips
// to the store (pattern operations are loops of round trips); nothing is
// cached locally, and no retry or suppression is added on top of store
// errors.
type Cache interface {
	// Read-only accessors for the current configuration.
	Namespace() string
	DefaultTTL() time.Duration
	DebugEnabled() bool
	Store() st.Store
	Config() Options

	// Reconfigure atomically replaces the whole configuration. In-flight
	// operations keep whichever config they read first; there is no partial
	// apply. The previous store is not closed - the caller owns swapped-out
	// connections.
	Reconfigure(opts Options) error

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close releases the store when the cache owns it (Options.CloseStore).
	Close(ctx context.Context) error

	// Get returns the decoded value, or ok=false when the key is absent.
	// Absence is not an error.
	Get(ctx context.Context, key string) (v any, ok bool, err error)

	// GetInto decodes the stored JSON payload directly into dest, which must
	// be a non-nil pointer. Returns ok=false when the key is absent.
	GetInto(ctx context.Context, key string, dest any) (ok bool, err error)

	// Set writes value with an expiry. ttl == 0 uses the configured default;
	// negative ttl is floored to one second. Use SetForever for no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// SetForever writes value with no expiry.
	SetForever(ctx context.Context, key string, value any) error

	// SetIfNotExists atomically writes value only when key is absent, using
	// the store's native conditional-set. Returns false when the key exists.
	SetIfNotExists(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)

	// GetOrSet returns the existing value, or writes fallback and returns
	// it. Concurrent callers in this process are deduplicated; across
	// processes two concurrent misses may both write (last write wins).
	GetOrSet(ctx context.Context, key string, fallback any, ttl time.Duration) (any, error)
	GetOrSetForever(ctx context.Context, key string, fallback any) (any, error)

	// Counters use the store's native atomic increment. An absent key is
	// initialized to 0 before the delta is applied.
	Increment(ctx context.Context, key string) (int64, error)
	IncrementBy(ctx context.Context, key string, delta int64) (int64, error)
	Decrement(ctx context.Context, key string) (int64, error)
	DecrementBy(ctx context.Context, key string, delta int64) (int64, error)

	// Expire sets or overwrites the TTL on an existing key; absent keys are
	// a no-op. ExpireNow removes the key by expiring it immediately.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	ExpireNow(ctx context.Context, key string) error

	// TTL returns the remaining lifetime, NoExpiry for a persistent key, or
	// Missing for an absent key. The two sentinels are distinct outcomes.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Delete and DeleteMany are idempotent; deleting absent keys is fine.
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error

	Exists(ctx context.Context, key string) (bool, error)
	// Missing reports !Exists.
	Missing(ctx context.Context, key string) (bool, error)

	// Clear deletes every key under the configured namespace via a cursor
	// scan on "<ns>:*" - never a global flush - and returns the number of
	// keys targeted. Other namespaces on the same store are untouched.
	Clear(ctx context.Context) (int64, error)

	// ScanKeys resolves pattern with the store's non-blocking cursor scan,
	// looping until the cursor returns to 0. Duplicate keys across pages are
	// removed. batchSize <= 0 uses DefaultScanBatch. Returned keys have the
	// namespace prefix stripped.
	ScanKeys(ctx context.Context, pattern string, batchSize int64) ([]string, error)

	// Keys resolves pattern with the store's single blocking call. Same
	// output shape as ScanKeys, but it stalls the store on large keyspaces;
	// prefer ScanKeys in production.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// GetByPattern resolves matching keys (scan when useScan, KEYS
	// otherwise) and fetches their values concurrently. Keys deleted between
	// discovery and fetch are omitted from the map, so a nil value always
	// means "stored nil", never "raced away".
	GetByPattern(ctx context.Context, pattern string, useScan bool) (map[string]any, error)

	// DeleteByPattern resolves matching keys and bulk-deletes them,
	// returning the number of keys targeted (store deletes are idempotent,
	// so this may exceed the number actually removed).
	DeleteByPattern(ctx context.Context, pattern string, useScan bool) (int64, error)
}

// Options configure a Cache. Only Store is required; the rest default as
// documented. The whole struct is applied atomically by New and Reconfigure.
type Options struct {
	// Required. The store capability; see store/redisstore and
	// store/memstore.
	Store st.Store

	Codec      c.Codec       // nil => codec.JSON{}
	Namespace  string        // "" => DefaultNamespace
	DefaultTTL time.Duration // 0 => DefaultTTL; must not be negative
	Debug      bool          // per-operation trace lines; never alters control flow
	Logger     Logger        // nil => NopLogger (slog.Default when Debug)
	Hooks      Hooks         // nil => NopHooks
	CloseStore bool          // Close tears down the store when set
}

// New validates opts and builds a Cache. Configuration problems surface
// here as *ConfigError.
func New(opts Options) (Cache, error) {
	return newCache(opts)
}
