// Package redisstore adapts a go-redis client to the nscache store capability.
package redisstore

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/nscache/store"
)

var (
	ErrParseURL = errors.New("redisstore: failed to parse connection URL")
	ErrConnect  = errors.New("redisstore: failed to establish connection")
)

// DefaultURL is dialed when Config names no connection source.
const DefaultURL = "redis://localhost:6379/0"

// Config selects exactly one connection source, in precedence order:
// an explicit Client beats URL, URL beats Options, and when none is set the
// adapter dials DefaultURL. Supplying more than one source is not an error;
// the highest-precedence one wins.
type Config struct {
	// Client is an already-connected client. The adapter does not take
	// ownership unless CloseClient is set.
	Client goredis.UniversalClient

	// URL in redis:// or rediss:// form, parsed via goredis.ParseURL.
	URL string

	// Options for a direct dial when no Client or URL is given.
	Options *goredis.Options

	// CloseClient transfers ownership of an explicit Client to the adapter,
	// so Close tears it down. Clients dialed by the adapter itself (URL,
	// Options, or the default) are always owned and closed.
	CloseClient bool
}

// Redis implements store.Store over a go-redis client.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ store.Store = (*Redis)(nil)

// New builds the adapter from cfg and verifies connectivity with a single
// PING when it dials the connection itself. Connection failures surface here,
// at construction, not at first use.
func New(ctx context.Context, cfg Config) (*Redis, error) {
	if cfg.Client != nil {
		return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
	}

	var opts *goredis.Options
	switch {
	case cfg.URL != "":
		parsed, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, errors.Join(ErrParseURL, err)
		}
		opts = parsed
	case cfg.Options != nil:
		opts = cfg.Options
	default:
		parsed, err := goredis.ParseURL(DefaultURL)
		if err != nil {
			return nil, errors.Join(ErrParseURL, err)
		}
		opts = parsed
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnect, err)
	}
	return &Redis{rdb: client, closeClient: true}, nil
}

// Client exposes the underlying connection for callers that need commands
// outside the store capability.
func (r *Redis) Client() goredis.UniversalClient { return r.rdb }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0 // no expiry
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0
	}
	return r.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.rdb.Del(ctx, keys...).Result()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return r.rdb.IncrBy(ctx, key, delta).Result()
}

func (r *Redis) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return r.rdb.DecrBy(ctx, key, delta).Result()
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // EXPIRE key 0 deletes the key
	}
	return r.rdb.Expire(ctx, key, ttl).Result()
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// go-redis reports the Redis sentinels as raw -1/-2 durations.
	switch d {
	case -1:
		return store.NoExpiry, nil
	case -2:
		return store.Missing, nil
	}
	return d, nil
}

func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.rdb.Keys(ctx, pattern).Result()
}

func (r *Redis) Scan(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error) {
	return r.rdb.Scan(ctx, cursor, pattern, count).Result()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the underlying client only when this adapter owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (r *Redis) Close(context.Context) error {
	if r.closeClient {
		if err := r.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
