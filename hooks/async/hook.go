// Package asynchook decouples hook sinks from the cache's hot path.
//
// Usage:
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{FetchRacedEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue of 1000 events
//	defer hooks.Close()
//
//	cc, _ := nscache.New(nscache.Options{
//	    Store: st,
//	    Hooks: hooks, // or `raw` if the sink is already cheap
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/nscache"
)

// Hooks wraps another Hooks implementation and invokes it from a worker
// pool, so a slow sink never stalls cache operations. When the queue is
// full, events are dropped rather than blocking.
type Hooks struct {
	inner nscache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ nscache.Hooks = (*Hooks)(nil)

func New(inner nscache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 256
	}
	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for fn := range h.q {
				fn()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events emitted after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) emit(fn func()) {
	defer func() {
		// Sending on the closed queue after Close; drop the event.
		_ = recover()
	}()
	select {
	case h.q <- fn:
	default:
		// Queue full; drop rather than block the caller.
	}
}

func (h *Hooks) StoreError(op, key string, err error) {
	h.emit(func() { h.inner.StoreError(op, key, err) })
}

func (h *Hooks) PatternResolved(pattern string, keys int) {
	h.emit(func() { h.inner.PatternResolved(pattern, keys) })
}

func (h *Hooks) FetchRaced(key string) {
	h.emit(func() { h.inner.FetchRaced(key) })
}
