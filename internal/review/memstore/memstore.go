// Package memstore provides an in-memory implementation of review.Store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/oncallops/revu/internal/review"
)

// Store holds run records in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	records map[string]*review.RunRecord // run ID -> record
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*review.RunRecord),
	}
}

// Put stores a copy of the run record.
func (s *Store) Put(_ context.Context, r *review.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

// Get retrieves a run record by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*review.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// Recent returns up to limit records, newest first. ULID run IDs sort
// lexicographically by creation time, so ordering by ID is ordering by
// time.
func (s *Store) Recent(_ context.Context, limit int) ([]*review.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*review.RunRecord, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
