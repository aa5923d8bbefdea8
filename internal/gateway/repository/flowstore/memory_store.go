package flowstore

import (
	"context"
	"sync"
)

// MemoryStore keeps saved flows for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	if s == nil {
		return ErrStoreUnavailable
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = append(s.records, rec.Clone())
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	if s == nil {
		return nil, ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out, nil
}
