package store

import (
	"context"
	"sort"
	"sync"

	"github.com/i474232898/obhavo-bot/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory weather cache holding one
// snapshot per region.
type MemoryStore struct {
	mu sync.RWMutex

	// key: region id
	data map[string]weather.Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]weather.Snapshot),
	}
}

// Upsert replaces the snapshot for the region.
func (s *MemoryStore) Upsert(_ context.Context, snapshot weather.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[snapshot.RegionID] = snapshot
	return nil
}

// Get returns the cached snapshot for a region.
func (s *MemoryStore) Get(_ context.Context, regionID string) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[regionID]
	if !ok {
		return weather.Snapshot{}, weather.ErrSnapshotUnavailable
	}
	return snap, nil
}

// ListAll returns every cached snapshot ordered by region id.
func (s *MemoryStore) ListAll(_ context.Context) ([]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Snapshot, 0, len(s.data))
	for _, snap := range s.data {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionID < out[j].RegionID })
	return out, nil
}

var _ weather.Store = (*MemoryStore)(nil)
