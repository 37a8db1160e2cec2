package nscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/nscache/codec"
	"github.com/unkn0wn-root/nscache/internal/keyutil"
	"github.com/unkn0wn-root/nscache/store"
)

// patternFetchWorkers bounds GetByPattern's parallel value fetches so a wide
// pattern cannot exhaust the store client's connection pool.
const patternFetchWorkers = 16

// config is one immutable snapshot of the cache's options. Reconfigure swaps
// the whole snapshot; operations read it once at entry and keep it for their
// duration, so a concurrent swap leaves in-flight work on the old snapshot.
type config struct {
	store      store.Store
	codec      codec.Codec
	ns         string
	defaultTTL time.Duration
	debug      bool
	log        Logger
	hooks      Hooks
	closeStore bool
}

type cache struct {
	cfg atomic.Pointer[config]
	sf  singleflight.Group
}

var _ Cache = (*cache)(nil)

func newCache(opts Options) (*cache, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	c := &cache{}
	c.cfg.Store(cfg)
	return c, nil
}

func buildConfig(opts Options) (*config, error) {
	if opts.Store == nil {
		return nil, &ConfigError{Field: "Store", Reason: "store capability is required"}
	}
	if opts.DefaultTTL < 0 {
		return nil, &ConfigError{Field: "DefaultTTL", Reason: "must not be negative"}
	}

	cfg := &config{
		store:      opts.Store,
		ns:         coalesce(opts.Namespace, DefaultNamespace),
		defaultTTL: coalesce(opts.DefaultTTL, DefaultTTL),
		debug:      opts.Debug,
		closeStore: opts.CloseStore,
	}

	cfg.codec = opts.Codec
	if cfg.codec == nil {
		cfg.codec = codec.JSON{}
	}
	cfg.hooks = opts.Hooks
	if cfg.hooks == nil {
		cfg.hooks = NopHooks{}
	}
	cfg.log = opts.Logger
	if cfg.log == nil {
		if opts.Debug {
			cfg.log = slogLogger{slog.Default()}
		} else {
			cfg.log = NopLogger{}
		}
	}
	return cfg, nil
}

func (c *cache) conf() *config { return c.cfg.Load() }

func (c *cache) Namespace() string         { return c.conf().ns }
func (c *cache) DefaultTTL() time.Duration { return c.conf().defaultTTL }
func (c *cache) DebugEnabled() bool        { return c.conf().debug }
func (c *cache) Store() store.Store        { return c.conf().store }

func (c *cache) Config() Options {
	cfg := c.conf()
	return Options{
		Store:      cfg.store,
		Codec:      cfg.codec,
		Namespace:  cfg.ns,
		DefaultTTL: cfg.defaultTTL,
		Debug:      cfg.debug,
		Logger:     cfg.log,
		Hooks:      cfg.hooks,
		CloseStore: cfg.closeStore,
	}
}

func (c *cache) Reconfigure(opts Options) error {
	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}
	c.cfg.Store(cfg)
	return nil
}

func (c *cache) Ping(ctx context.Context) error {
	return c.conf().store.Ping(ctx)
}

func (c *cache) Close(ctx context.Context) error {
	cfg := c.conf()
	if cfg.closeStore {
		return cfg.store.Close(ctx)
	}
	return nil
}

// ==============================
// Single-key operations
// ==============================

func (c *cache) Get(ctx context.Context, key string) (any, bool, error) {
	return c.get(ctx, c.conf(), key)
}

func (c *cache) get(ctx context.Context, cfg *config, key string) (any, bool, error) {
	raw, ok, err := cfg.store.Get(ctx, keyutil.Compose(cfg.ns, key))
	if err != nil {
		cfg.hooks.StoreError("get", key, err)
		return nil, false, err
	}
	if !ok {
		c.trace(cfg, "get", key, Fields{"hit": false})
		return nil, false, nil
	}
	v, err := cfg.codec.Decode(raw)
	if err != nil {
		return nil, false, err
	}
	c.trace(cfg, "get", key, Fields{"hit": true})
	return v, true, nil
}

func (c *cache) GetInto(ctx context.Context, key string, dest any) (bool, error) {
	if dest == nil {
		return false, fmt.Errorf("nscache: GetInto dest must be a non-nil pointer")
	}
	cfg := c.conf()
	raw, ok, err := cfg.store.Get(ctx, keyutil.Compose(cfg.ns, key))
	if err != nil {
		cfg.hooks.StoreError("get", key, err)
		return false, err
	}
	if !ok {
		c.trace(cfg, "get_into", key, Fields{"hit": false})
		return false, nil
	}
	c.trace(cfg, "get_into", key, Fields{"hit": true})
	if string(raw) == codec.NilMarker {
		return true, nil // stored nil; dest left untouched
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Raw-stored strings are not valid JSON; honor the fallback contract
		// for string destinations.
		if sp, isStr := dest.(*string); isStr {
			*sp = string(raw)
			return true, nil
		}
		return true, err
	}
	return true, nil
}

func (c *cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	cfg := c.conf()
	return c.set(ctx, cfg, key, value, resolveTTL(cfg, ttl))
}

func (c *cache) SetForever(ctx context.Context, key string, value any) error {
	return c.set(ctx, c.conf(), key, value, 0)
}

// set writes the encoded value. storeTTL == 0 means no expiry at the store.
func (c *cache) set(ctx context.Context, cfg *config, key string, value any, storeTTL time.Duration) error {
	payload, err := cfg.codec.Encode(value)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	if err := cfg.store.Set(ctx, keyutil.Compose(cfg.ns, key), payload, storeTTL); err != nil {
		cfg.hooks.StoreError("set", key, err)
		return err
	}
	c.trace(cfg, "set", key, Fields{"ttl": storeTTL})
	return nil
}

func (c *cache) SetIfNotExists(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	cfg := c.conf()
	payload, err := cfg.codec.Encode(value)
	if err != nil {
		return false, errors.Join(ErrEncode, err)
	}
	ok, err := cfg.store.SetNX(ctx, keyutil.Compose(cfg.ns, key), payload, resolveTTL(cfg, ttl))
	if err != nil {
		cfg.hooks.StoreError("setnx", key, err)
		return false, err
	}
	c.trace(cfg, "setnx", key, Fields{"stored": ok})
	return ok, nil
}

func (c *cache) GetOrSet(ctx context.Context, key string, fallback any, ttl time.Duration) (any, error) {
	cfg := c.conf()
	return c.getOrSet(ctx, cfg, key, fallback, resolveTTL(cfg, ttl))
}

func (c *cache) GetOrSetForever(ctx context.Context, key string, fallback any) (any, error) {
	return c.getOrSet(ctx, c.conf(), key, fallback, 0)
}

// getOrSet deduplicates concurrent misses in-process via singleflight.
// Across processes the race is benign: both callers write intent-equal
// fallbacks and the last write wins; partial writes cannot happen because
// the store's SET is atomic.
func (c *cache) getOrSet(ctx context.Context, cfg *config, key string, fallback any, storeTTL time.Duration) (any, error) {
	if v, ok, err := c.get(ctx, cfg, key); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(keyutil.Compose(cfg.ns, key), func() (any, error) {
		// Re-check: another flight may have just written.
		if v, ok, err := c.get(ctx, cfg, key); err != nil {
			return nil, err
		} else if ok {
			return v, nil
		}
		if err := c.set(ctx, cfg, key, fallback, storeTTL); err != nil {
			return nil, err
		}
		return fallback, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *cache) Increment(ctx context.Context, key string) (int64, error) {
	return c.IncrementBy(ctx, key, 1)
}

func (c *cache) IncrementBy(ctx context.Context, key string, delta int64) (int64, error) {
	cfg := c.conf()
	n, err := cfg.store.IncrBy(ctx, keyutil.Compose(cfg.ns, key), delta)
	if err != nil {
		cfg.hooks.StoreError("incr", key, err)
		return 0, err
	}
	c.trace(cfg, "incr", key, Fields{"value": n})
	return n, nil
}

func (c *cache) Decrement(ctx context.Context, key string) (int64, error) {
	return c.DecrementBy(ctx, key, 1)
}

func (c *cache) DecrementBy(ctx context.Context, key string, delta int64) (int64, error) {
	cfg := c.conf()
	n, err := cfg.store.DecrBy(ctx, keyutil.Compose(cfg.ns, key), delta)
	if err != nil {
		cfg.hooks.StoreError("decr", key, err)
		return 0, err
	}
	c.trace(cfg, "decr", key, Fields{"value": n})
	return n, nil
}

func (c *cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	cfg := c.conf()
	applied, err := cfg.store.Expire(ctx, keyutil.Compose(cfg.ns, key), ttl)
	if err != nil {
		cfg.hooks.StoreError("expire", key, err)
		return err
	}
	c.trace(cfg, "expire", key, Fields{"ttl": ttl, "applied": applied})
	return nil
}

func (c *cache) ExpireNow(ctx context.Context, key string) error {
	return c.Expire(ctx, key, 0)
}

func (c *cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	cfg := c.conf()
	d, err := cfg.store.TTL(ctx, keyutil.Compose(cfg.ns, key))
	if err != nil {
		cfg.hooks.StoreError("ttl", key, err)
		return 0, err
	}
	c.trace(cfg, "ttl", key, Fields{"remaining": d})
	return d, nil
}

func (c *cache) Delete(ctx context.Context, key string) error {
	return c.DeleteMany(ctx, key)
}

func (c *cache) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cfg := c.conf()
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyutil.Compose(cfg.ns, k)
	}
	n, err := cfg.store.Del(ctx, full...)
	if err != nil {
		cfg.hooks.StoreError("del", keys[0], err)
		return err
	}
	c.trace(cfg, "del", keys[0], Fields{"requested": len(keys), "removed": n})
	return nil
}

func (c *cache) Exists(ctx context.Context, key string) (bool, error) {
	cfg := c.conf()
	ok, err := cfg.store.Exists(ctx, keyutil.Compose(cfg.ns, key))
	if err != nil {
		cfg.hooks.StoreError("exists", key, err)
		return false, err
	}
	c.trace(cfg, "exists", key, Fields{"exists": ok})
	return ok, nil
}

func (c *cache) Missing(ctx context.Context, key string) (bool, error) {
	ok, err := c.Exists(ctx, key)
	return !ok && err == nil, err
}

// ==============================
// Pattern-based bulk operations
// ==============================

func (c *cache) Clear(ctx context.Context) (int64, error) {
	cfg := c.conf()
	full, err := c.scanFull(ctx, cfg, "*", DefaultScanBatch)
	if err != nil {
		return 0, err
	}
	if len(full) == 0 {
		return 0, nil
	}
	if _, err := cfg.store.Del(ctx, full...); err != nil {
		cfg.hooks.StoreError("del", "*", err)
		return 0, err
	}
	c.trace(cfg, "clear", "*", Fields{"keys": len(full)})
	return int64(len(full)), nil
}

func (c *cache) ScanKeys(ctx context.Context, pattern string, batchSize int64) ([]string, error) {
	cfg := c.conf()
	full, err := c.scanFull(ctx, cfg, pattern, batchSize)
	if err != nil {
		return nil, err
	}
	cfg.hooks.PatternResolved(pattern, len(full))
	c.trace(cfg, "scan", pattern, Fields{"keys": len(full)})
	return stripAll(cfg.ns, full), nil
}

func (c *cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	cfg := c.conf()
	full, err := c.keysFull(ctx, cfg, pattern)
	if err != nil {
		return nil, err
	}
	cfg.hooks.PatternResolved(pattern, len(full))
	c.trace(cfg, "keys", pattern, Fields{"keys": len(full)})
	return stripAll(cfg.ns, full), nil
}

func (c *cache) GetByPattern(ctx context.Context, pattern string, useScan bool) (map[string]any, error) {
	cfg := c.conf()
	full, err := c.resolveFull(ctx, cfg, pattern, useScan)
	if err != nil {
		return nil, err
	}
	cfg.hooks.PatternResolved(pattern, len(full))

	// Fetch in parallel; results correlate to keys by index, never by
	// completion order.
	values := make([]any, len(full))
	hits := make([]bool, len(full))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(patternFetchWorkers)
	for i, fk := range full {
		i, fk := i, fk
		g.Go(func() error {
			raw, ok, err := cfg.store.Get(gctx, fk)
			if err != nil {
				cfg.hooks.StoreError("get", keyutil.Decompose(cfg.ns, fk), err)
				return err
			}
			if !ok {
				// Deleted between discovery and fetch; omit from the map.
				cfg.hooks.FetchRaced(keyutil.Decompose(cfg.ns, fk))
				return nil
			}
			v, err := cfg.codec.Decode(raw)
			if err != nil {
				return err
			}
			values[i], hits[i] = v, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(full))
	for i, fk := range full {
		if hits[i] {
			out[keyutil.Decompose(cfg.ns, fk)] = values[i]
		}
	}
	c.trace(cfg, "get_by_pattern", pattern, Fields{"resolved": len(full), "returned": len(out)})
	return out, nil
}

func (c *cache) DeleteByPattern(ctx context.Context, pattern string, useScan bool) (int64, error) {
	cfg := c.conf()
	full, err := c.resolveFull(ctx, cfg, pattern, useScan)
	if err != nil {
		return 0, err
	}
	cfg.hooks.PatternResolved(pattern, len(full))
	if len(full) == 0 {
		return 0, nil
	}
	if _, err := cfg.store.Del(ctx, full...); err != nil {
		cfg.hooks.StoreError("del", pattern, err)
		return 0, err
	}
	c.trace(cfg, "delete_by_pattern", pattern, Fields{"keys": len(full)})
	return int64(len(full)), nil
}

// resolveFull returns the namespaced keys matching pattern.
func (c *cache) resolveFull(ctx context.Context, cfg *config, pattern string, useScan bool) ([]string, error) {
	if useScan {
		return c.scanFull(ctx, cfg, pattern, DefaultScanBatch)
	}
	return c.keysFull(ctx, cfg, pattern)
}

// scanFull loops the store's cursor scan until the cursor returns to 0,
// de-duplicating keys across pages (SCAN may report a key more than once).
func (c *cache) scanFull(ctx context.Context, cfg *config, pattern string, batchSize int64) ([]string, error) {
	if batchSize <= 0 {
		batchSize = DefaultScanBatch
	}
	fullPattern := keyutil.Compose(cfg.ns, pattern)

	var (
		keys   []string
		cursor uint64
		seen   = make(map[string]struct{})
	)
	for {
		page, next, err := cfg.store.Scan(ctx, cursor, fullPattern, batchSize)
		if err != nil {
			cfg.hooks.StoreError("scan", pattern, err)
			return nil, err
		}
		for _, k := range page {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (c *cache) keysFull(ctx context.Context, cfg *config, pattern string) ([]string, error) {
	keys, err := cfg.store.Keys(ctx, keyutil.Compose(cfg.ns, pattern))
	if err != nil {
		cfg.hooks.StoreError("keys", pattern, err)
		return nil, err
	}
	return keys, nil
}

func stripAll(ns string, full []string) []string {
	out := make([]string, len(full))
	for i, k := range full {
		out[i] = keyutil.Decompose(ns, k)
	}
	return out
}

// resolveTTL maps the caller-facing TTL to a store TTL: 0 selects the
// configured default, negative values are floored to one second (the store
// rejects non-positive expiries on SET). The result is always > 0; only
// SetForever writes without expiry.
func resolveTTL(cfg *config, ttl time.Duration) time.Duration {
	switch {
	case ttl == 0:
		return cfg.defaultTTL
	case ttl < 0:
		return time.Second
	}
	return ttl
}

func (c *cache) trace(cfg *config, op, key string, f Fields) {
	if !cfg.debug {
		return
	}
	if f == nil {
		f = Fields{}
	}
	f["ns"] = cfg.ns
	f["key"] = key
	cfg.log.Debug("nscache."+op, f)
}
