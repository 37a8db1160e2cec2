package nscache

// Hooks are lightweight callbacks for high-signal events. Implementations
// MUST be cheap and non-blocking; the cache calls them on hot paths. Wrap
// with hooks/async when the sink can stall.
type Hooks interface {
	// StoreError fires when a store primitive fails. The error still
	// propagates to the caller; this is observation, not handling.
	// op ∈ {"get", "set", "setnx", "del", "exists", "incr", "decr",
	// "expire", "ttl", "keys", "scan"}
	StoreError(op, key string, err error)

	// PatternResolved fires after a pattern operation resolved its key set.
	PatternResolved(pattern string, keys int)

	// FetchRaced fires when GetByPattern discovered a key that was deleted
	// before its value could be fetched. The key is omitted from the result.
	FetchRaced(key string)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) StoreError(string, string, error) {}
func (NopHooks) PatternResolved(string, int)      {}
func (NopHooks) FetchRaced(string)                {}
