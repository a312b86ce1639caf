package memstore

import (
	"context"
	"sync"

	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
	"github.com/cognicore/deptdir/pkg/deptdir/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu       sync.RWMutex
	depts    []ingest.Department
	index    map[string]int
	snapshot store.Snapshot
	hasSnap  bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ReplaceDepartments implements store.Store.
func (s *Store) ReplaceDepartments(ctx context.Context, snap store.Snapshot, depts []ingest.Department) error {
	next := make([]ingest.Department, 0, len(depts))
	index := make(map[string]int, len(depts))
	for _, d := range depts {
		if err := d.Validate(); err != nil {
			return err
		}
		if i, dup := index[d.ID]; dup {
			next[i] = store.CopyDepartment(d)
			continue
		}
		index[d.ID] = len(next)
		next = append(next, store.CopyDepartment(d))
	}
	snap.Count = len(next)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.depts = next
	s.index = index
	s.snapshot = snap
	s.hasSnap = true
	return nil
}

// ListDepartments implements store.Store.
func (s *Store) ListDepartments(ctx context.Context) ([]ingest.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ingest.Department, len(s.depts))
	for i, d := range s.depts {
		out[i] = store.CopyDepartment(d)
	}
	return out, nil
}

// GetDepartment implements store.Store.
func (s *Store) GetDepartment(ctx context.Context, id string) (ingest.Department, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return ingest.Department{}, false, nil
	}
	return store.CopyDepartment(s.depts[i]), true, nil
}

// LatestSnapshot implements store.Store.
func (s *Store) LatestSnapshot(ctx context.Context) (store.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.hasSnap, nil
}
