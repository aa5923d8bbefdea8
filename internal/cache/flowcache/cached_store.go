package flowcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"flowcanvas/internal/gateway/repository/flowstore"
)

type Store = flowstore.Store

const listKey = "flows"

type CacheConfig struct {
	ListTTL        time.Duration
	ListMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ListTTL:        2 * time.Minute,
		ListMaxEntries: 1,
	}
}

type MetricsSnapshot struct {
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore serves List from memory until the TTL expires or a save
// goes through it.
type CachedStore struct {
	origin  Store
	lists   *expirable.LRU[string, []flowstore.Record]
	metrics *Metrics

	// gen counts writes. A List only caches what it read if no write
	// landed while it was reading.
	mu  sync.Mutex
	gen uint64
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	return &CachedStore{
		origin:  origin,
		lists:   expirable.NewLRU[string, []flowstore.Record](cfg.ListMaxEntries, nil, cfg.ListTTL),
		metrics: &Metrics{},
	}
}

func (s *CachedStore) Append(ctx context.Context, rec flowstore.Record) error {
	if s == nil || s.origin == nil {
		return flowstore.ErrStoreUnavailable
	}
	s.metrics.originWrites.Add(1)
	if err := s.origin.Append(ctx, rec); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.invalidate()
	return nil
}

func (s *CachedStore) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.lists.Remove(listKey)
}

func (s *CachedStore) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *CachedStore) List(ctx context.Context) ([]flowstore.Record, error) {
	if s == nil || s.origin == nil {
		return nil, flowstore.ErrStoreUnavailable
	}
	if cached, ok := s.lists.Get(listKey); ok {
		s.metrics.listHits.Add(1)
		return cloneRecords(cached), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)
	start := s.generation()
	records, err := s.origin.List(ctx)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.mu.Lock()
	if s.gen == start {
		s.lists.Add(listKey, cloneRecords(records))
	}
	s.mu.Unlock()
	return cloneRecords(records), nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func cloneRecords(in []flowstore.Record) []flowstore.Record {
	out := make([]flowstore.Record, len(in))
	for i, rec := range in {
		out[i] = rec.Clone()
	}
	return out
}
