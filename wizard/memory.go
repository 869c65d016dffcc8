package wizard

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStorage keeps snapshots in process memory.
type MemoryStorage struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{snapshots: make(map[string]Snapshot)}
}

func (s *MemoryStorage) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = copySnapshot(snap)
	return nil
}

func (s *MemoryStorage) Load(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return nil, nil
	}
	snap = copySnapshot(snap)
	return &snap, nil
}

func (s *MemoryStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

// Len returns the number of stored snapshots.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

func copySnapshot(snap Snapshot) Snapshot {
	snap.Completed = slices.Clone(snap.Completed)
	snap.Touched = slices.Clone(snap.Touched)
	snap.Values = maps.Clone(snap.Values)
	return snap
}
