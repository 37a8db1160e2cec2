package memstore

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/unkn0wn-root/nscache/store"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	m := New()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("empty store reported a hit")
	}
	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("Get: b=%q ok=%v err=%v", b, ok, err)
	}

	n, err := m.Del(ctx, "k", "absent")
	if err != nil || n != 1 {
		t.Fatalf("Del: n=%d err=%v", n, err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("key survived Del")
	}
}

func TestLazyExpiry(t *testing.T) {
	ctx := context.Background()
	m := New()

	_ = m.Set(ctx, "k", []byte("v"), 30*time.Millisecond)
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expired entry returned")
	}
	if ok, _ := m.Exists(ctx, "k"); ok {
		t.Fatal("expired entry exists")
	}
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	m := New()

	ok, err := m.SetNX(ctx, "k", []byte("v1"), 0)
	if err != nil || !ok {
		t.Fatalf("first SetNX: ok=%v err=%v", ok, err)
	}
	ok, err = m.SetNX(ctx, "k", []byte("v2"), 0)
	if err != nil || ok {
		t.Fatalf("second SetNX: ok=%v err=%v", ok, err)
	}
	if b, _, _ := m.Get(ctx, "k"); string(b) != "v1" {
		t.Fatalf("SetNX overwrote: %q", b)
	}

	// An expired entry does not block SetNX.
	_ = m.Set(ctx, "e", []byte("old"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if ok, _ := m.SetNX(ctx, "e", []byte("new"), 0); !ok {
		t.Fatal("SetNX blocked by expired entry")
	}
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	m := New()

	if n, err := m.IncrBy(ctx, "c", 1); err != nil || n != 1 {
		t.Fatalf("IncrBy absent: n=%d err=%v", n, err)
	}
	if n, err := m.IncrBy(ctx, "c", 5); err != nil || n != 6 {
		t.Fatalf("IncrBy: n=%d err=%v", n, err)
	}
	if n, err := m.DecrBy(ctx, "c", 2); err != nil || n != 4 {
		t.Fatalf("DecrBy: n=%d err=%v", n, err)
	}
	// Counters are stored as decimal strings, Redis-style.
	if b, _, _ := m.Get(ctx, "c"); string(b) != "4" {
		t.Fatalf("counter payload = %q", b)
	}

	_ = m.Set(ctx, "s", []byte("not a number"), 0)
	if _, err := m.IncrBy(ctx, "s", 1); !errors.Is(err, ErrNotInteger) {
		t.Fatalf("IncrBy on string: %v", err)
	}
}

func TestExpireAndTTL(t *testing.T) {
	ctx := context.Background()
	m := New()

	if d, _ := m.TTL(ctx, "absent"); d != store.Missing {
		t.Fatalf("absent ttl = %v", d)
	}

	_ = m.Set(ctx, "k", []byte("v"), 0)
	if d, _ := m.TTL(ctx, "k"); d != store.NoExpiry {
		t.Fatalf("persistent ttl = %v", d)
	}

	ok, err := m.Expire(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expire: ok=%v err=%v", ok, err)
	}
	if d, _ := m.TTL(ctx, "k"); d <= 0 || d > time.Minute {
		t.Fatalf("ttl = %v", d)
	}

	// Non-positive TTL deletes, like EXPIRE key 0.
	if ok, _ := m.Expire(ctx, "k", 0); !ok {
		t.Fatal("Expire 0 on live key")
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("key survived Expire 0")
	}

	if ok, _ := m.Expire(ctx, "absent", time.Minute); ok {
		t.Fatal("Expire on absent key reported true")
	}
}

func TestKeysGlob(t *testing.T) {
	ctx := context.Background()
	m := New()
	for _, k := range []string{"ns:user:1", "ns:user:2", "ns:order:1", "other:1"} {
		_ = m.Set(ctx, k, []byte("v"), 0)
	}

	keys, err := m.Keys(ctx, "ns:user:*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"ns:user:1", "ns:user:2"}) {
		t.Fatalf("Keys = %v", keys)
	}

	if _, err := m.Keys(ctx, "["); !errors.Is(err, ErrBadPattern) {
		t.Fatalf("bad pattern: %v", err)
	}
}

func TestScanPagination(t *testing.T) {
	ctx := context.Background()
	m := New()
	want := []string{"ns:a", "ns:b", "ns:c", "ns:d"}
	for _, k := range append([]string{"other:x"}, want...) {
		_ = m.Set(ctx, k, []byte("v"), 0)
	}

	for _, count := range []int64{1, 2, 100} {
		var (
			got    []string
			cursor uint64
		)
		for {
			page, next, err := m.Scan(ctx, cursor, "ns:*", count)
			if err != nil {
				t.Fatalf("Scan(count=%d): %v", count, err)
			}
			got = append(got, page...)
			cursor = next
			if cursor == 0 {
				break
			}
		}
		sort.Strings(got)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Scan(count=%d) = %v, want %v", count, got, want)
		}
	}
}

func TestCloseResets(t *testing.T) {
	ctx := context.Background()
	m := New()
	_ = m.Set(ctx, "k", []byte("v"), 0)
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("Len after Close = %d", m.Len())
	}
}
