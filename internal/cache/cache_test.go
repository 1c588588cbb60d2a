package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"salesdash/internal/core"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *clock) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	c.Set("c", 3) // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	if got := c.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clk := newTestCache[string](4, time.Minute)
	c.Set("k", "v")
	clk.advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected entry before ttl")
	}
	clk.advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
	if c.Size() != 0 {
		t.Fatal("expired entry should be removed on read")
	}
}

func TestLRUCacheCleanExpiredAndClear(t *testing.T) {
	c, clk := newTestCache[int](10, time.Second)
	c.Set("old1", 1)
	c.Set("old2", 2)
	clk.advance(2 * time.Second)
	c.Set("fresh", 3)

	m := NewManager()
	m.Register(c)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}

	c.Clear()
	if c.Size() != 0 {
		t.Fatal("Clear should empty the cache")
	}
	c.Set("again", 4)
	if v, ok := c.Get("again"); !ok || v != 4 {
		t.Fatal("cache unusable after Clear")
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := NewManager()
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}

type countingSource struct {
	calls   atomic.Int32
	records []core.SaleRecord
	err     error
}

func (s *countingSource) FetchAllSales(context.Context) ([]core.SaleRecord, error) {
	s.calls.Add(1)
	return s.records, s.err
}

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

func TestRecordSourceCachesUntilInvalidated(t *testing.T) {
	src := &countingSource{records: []core.SaleRecord{{ProductName: "Laptop"}}}
	obs := &countingObserver{}
	rs := NewRecordSource(src, time.Minute, obs)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := rs.FetchAllSales(ctx)
		if err != nil || len(got) != 1 {
			t.Fatalf("FetchAllSales() = %v, %v", got, err)
		}
	}
	if src.calls.Load() != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls.Load())
	}
	if obs.hits != 2 || obs.misses != 1 {
		t.Fatalf("hits=%d misses=%d", obs.hits, obs.misses)
	}

	rs.Invalidate()
	if _, err := rs.FetchAllSales(ctx); err != nil {
		t.Fatal(err)
	}
	if src.calls.Load() != 2 {
		t.Fatalf("source calls after invalidate = %d, want 2", src.calls.Load())
	}
}

func TestRecordSourceDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: errors.New("unavailable")}
	rs := NewRecordSource(src, time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := rs.FetchAllSales(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	if src.calls.Load() != 2 {
		t.Fatalf("source calls = %d, want 2", src.calls.Load())
	}
	if err := rs.Ping(context.Background()); err != nil {
		t.Fatalf("Ping on a non-pinger should succeed, got %v", err)
	}
}
