// Package memstore implements the store capability in process memory.
//
// It exists so the cache can be exercised without a server: tests and
// embedded tools get the full primitive surface, including glob matching,
// cursor-paged scans, and decimal counters with Redis-compatible semantics.
// Entries expire lazily on access.
package memstore

import (
	"context"
	"errors"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/unkn0wn-root/nscache/store"
)

var (
	ErrNotInteger = errors.New("memstore: value is not an integer")
	ErrBadPattern = errors.New("memstore: invalid glob pattern")
)

type entry struct {
	value  []byte
	expire time.Time // zero => no expiry
}

func (e entry) expired() bool {
	return !e.expire.IsZero() && time.Now().After(e.expire)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func clone(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// Memory is a thread-safe in-memory store.Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
}

var _ store.Store = (*Memory)(nil)

// New creates an empty in-memory store.
func New() *Memory {
	return &Memory{data: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expired() {
		return clone(e.value), true, nil
	}

	// Expired: take the write lock to drop it, re-checking after upgrade.
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok = m.data[key]
	if !ok || e.expired() {
		delete(m.data, key)
		return nil, false, nil
	}
	return clone(e.value), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry{value: clone(value), expire: expiry(ttl)}
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.data[key]; ok {
		if !e.expired() {
			return false, nil
		}
		delete(m.data, key)
	}
	m.data[key] = entry{value: clone(value), expire: expiry(ttl)}
	return true, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if e, ok := m.data[k]; ok {
			if !e.expired() {
				n++
			}
			delete(m.data, k)
		}
	}
	return n, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if e.expired() {
		m.mu.Lock()
		if e, ok := m.data[key]; ok && e.expired() {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (m *Memory) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	return m.add(key, delta)
}

func (m *Memory) DecrBy(_ context.Context, key string, delta int64) (int64, error) {
	return m.add(key, -delta)
}

// add mimics Redis INCRBY: absent keys start at 0, values are stored as
// decimal strings, and the entry's TTL is preserved across adjustments.
func (m *Memory) add(key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cur int64
	exp := time.Time{}
	if e, ok := m.data[key]; ok && !e.expired() {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur = n
		exp = e.expire
	}
	cur += delta
	m.data[key] = entry{value: []byte(strconv.FormatInt(cur, 10)), expire: exp}
	return cur, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired() {
		delete(m.data, key)
		return false, nil
	}
	if ttl <= 0 {
		delete(m.data, key)
		return true, nil
	}
	e.expire = time.Now().Add(ttl)
	m.data[key] = e
	return true, nil
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok || e.expired() {
		return store.Missing, nil
	}
	if e.expire.IsZero() {
		return store.NoExpiry, nil
	}
	return time.Until(e.expire), nil
}

func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for k, e := range m.data {
		if e.expired() {
			continue
		}
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, errors.Join(ErrBadPattern, err)
		}
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Scan walks the live keyspace in sorted order, count keys per page, and
// returns the matching subset of each page. Like Redis SCAN, a page may come
// back empty (no matches among the keys walked) while the cursor still
// advances; cursor 0 signals completion. Keys written between pages may or
// may not be observed.
func (m *Memory) Scan(_ context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error) {
	if count <= 0 {
		count = 10
	}

	m.mu.RLock()
	all := make([]string, 0, len(m.data))
	for k, e := range m.data {
		if !e.expired() {
			all = append(all, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(all)

	start := int(cursor)
	if start >= len(all) {
		return nil, 0, nil
	}
	end := start + int(count)
	if end > len(all) {
		end = len(all)
	}

	var out []string
	for _, k := range all[start:end] {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, 0, errors.Join(ErrBadPattern, err)
		}
		if ok {
			out = append(out, k)
		}
	}

	next := uint64(end)
	if end >= len(all) {
		next = 0
	}
	return out, next, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error {
	m.mu.Lock()
	m.data = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// Len reports the number of live entries. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.data {
		if !e.expired() {
			n++
		}
	}
	return n
}
