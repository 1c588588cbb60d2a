package cache

import (
	"context"
	"sync/atomic"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/sales"
)

const recordsKey = "sales:all"

// Observer is told about cache hits and misses. *metrics.Metrics satisfies it.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// RecordSource caches the full record set of an underlying source for a
// fixed TTL. Only input records are cached; derived reports never are.
type RecordSource struct {
	next     sales.Source
	entries  *LRUCache[[]core.SaleRecord]
	observer Observer
	// generation guards against a fetch that started before Invalidate
	// repopulating the cache with stale data.
	generation atomic.Uint64
}

var _ sales.Source = (*RecordSource)(nil)

// NewRecordSource wraps next. observer may be nil.
func NewRecordSource(next sales.Source, ttl time.Duration, observer Observer) *RecordSource {
	return &RecordSource{
		next:     next,
		entries:  NewLRUCache[[]core.SaleRecord](1, ttl),
		observer: observer,
	}
}

// FetchAllSales returns the cached set, fetching from the wrapped source on a
// miss. The returned slice is shared and must not be modified.
func (s *RecordSource) FetchAllSales(ctx context.Context) ([]core.SaleRecord, error) {
	if records, ok := s.entries.Get(recordsKey); ok {
		s.hit()
		return records, nil
	}
	s.miss()

	gen := s.generation.Load()
	records, err := s.next.FetchAllSales(ctx)
	if err != nil {
		return nil, err
	}
	if s.generation.Load() == gen {
		s.entries.Set(recordsKey, records)
	}
	return records, nil
}

// Invalidate drops the cached set so the next fetch reads the source.
func (s *RecordSource) Invalidate() {
	s.generation.Add(1)
	s.entries.Clear()
}

// Ping forwards to the wrapped source when it supports health checks.
func (s *RecordSource) Ping(ctx context.Context) error {
	if p, ok := s.next.(sales.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Cleaner exposes the underlying cache to a Manager.
func (s *RecordSource) Cleaner() Cleaner {
	return s.entries
}

func (s *RecordSource) hit() {
	if s.observer != nil {
		s.observer.CacheHit()
	}
}

func (s *RecordSource) miss() {
	if s.observer != nil {
		s.observer.CacheMiss()
	}
}
