// Package sloghook implements nscache.Hooks on top of log/slog, with
// sampling so chatty events cannot flood the log.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/nscache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	FetchRacedEvery      uint64
	PatternResolvedEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix so raw keys
	// (which may carry tenant or user identifiers) stay out of logs.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	fetchRacedCtr atomic.Uint64
	patternCtr    atomic.Uint64
}

var _ nscache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StoreError(op, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("nscache.store_error",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) PatternResolved(pattern string, keys int) {
	if h.l == nil || !sample(h.opts.PatternResolvedEvery, &h.patternCtr) {
		return
	}
	h.l.Debug("nscache.pattern_resolved",
		"pattern", pattern,
		"keys", keys)
}

func (h *Hooks) FetchRaced(key string) {
	if h.l == nil || !sample(h.opts.FetchRacedEvery, &h.fetchRacedCtr) {
		return
	}
	h.l.Debug("nscache.fetch_raced",
		"key", h.redact(key))
}
