// Package nscache is a namespaced, typed convenience layer over a
// Redis-compatible key-value store.
//
// Every key is prefixed with a configurable namespace ("cache" by default),
// values are (de)serialized by a pluggable Codec (JSON with raw-string
// fallback by default), and the underlying store is an opaque capability of
// primitive commands (GET, SET with expiry, SETNX, DEL, EXISTS, INCR/DECR,
// EXPIRE, TTL, KEYS, SCAN). The cache never retains entries locally; every
// operation is a round trip.
//
// Components:
//   - store.Store: the primitive command capability (store/redisstore for
//     go-redis, store/memstore for in-process use and tests).
//   - codec.Codec: value (de)serialization.
//   - Logger / Hooks: optional observability; never alter control flow.
//
// Key shape:
//
//	<namespace>:<raw key>
//
// Pattern operations (ScanKeys, Keys, GetByPattern, DeleteByPattern, Clear)
// namespace the pattern the same way and report keys with the prefix
// stripped, so callers only ever see raw keys.
package nscache
