package weather

import (
	"context"
)

// Provider abstracts a live weather source (Open-Meteo today).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, region Region) (Snapshot, error)
}

// Store is the weather cache contract. Implementations live in the store
// package (memory, Postgres, Redis).
type Store interface {
	// Get returns ErrSnapshotUnavailable when the region has never been cached.
	Get(ctx context.Context, regionID string) (Snapshot, error)
	ListAll(ctx context.Context) ([]Snapshot, error)
	Upsert(ctx context.Context, snapshot Snapshot) error
}

// Index keys snapshots by region id.
func Index(snapshots []Snapshot) map[string]Snapshot {
	out := make(map[string]Snapshot, len(snapshots))
	for _, s := range snapshots {
		out[s.RegionID] = s
	}
	return out
}
