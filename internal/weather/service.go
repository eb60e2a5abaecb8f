package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RefreshRecorder receives refresh outcomes for metrics.
type RefreshRecorder interface {
	RecordRefresh(regionID string, ok bool)
}

// Refresher keeps the cache populated by polling a provider for every region.
type Refresher struct {
	store    Store
	provider Provider
	regions  []Region
	timeout  time.Duration
	log      *zap.Logger
	metrics  RefreshRecorder
	now      func() time.Time
}

// NewRefresher creates a Refresher. perRegionTimeout bounds each provider call.
func NewRefresher(store Store, provider Provider, regions []Region, perRegionTimeout time.Duration, log *zap.Logger, metrics RefreshRecorder) *Refresher {
	if perRegionTimeout <= 0 {
		perRegionTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{
		store:    store,
		provider: provider,
		regions:  regions,
		timeout:  perRegionTimeout,
		log:      log.Named("refresher"),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Refresh fetches all regions concurrently and stores successful readings.
// It returns the number of regions that were updated. A failed region keeps
// its last good snapshot.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	if r.provider == nil {
		return 0, fmt.Errorf("no weather provider configured")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
	)

	for _, region := range r.regions {
		wg.Add(1)
		go func(region Region) {
			defer wg.Done()

			ok := r.refreshRegion(ctx, region)
			if r.metrics != nil {
				r.metrics.RecordRefresh(region.ID, ok)
			}
			if ok {
				mu.Lock()
				updated++
				mu.Unlock()
			}
		}(region)
	}
	wg.Wait()

	r.log.Info("weather cache refreshed",
		zap.Int("updated", updated),
		zap.Int("regions", len(r.regions)),
	)
	return updated, nil
}

func (r *Refresher) refreshRegion(ctx context.Context, region Region) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	snap, err := r.provider.Fetch(ctx, region)
	if err != nil {
		r.log.Warn("provider fetch failed",
			zap.String("provider", r.provider.Name()),
			zap.String("region", region.ID),
			zap.Error(err),
		)
		return false
	}

	snap.RegionID = region.ID
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = r.now().UTC()
	}
	if err := r.store.Upsert(ctx, snap); err != nil {
		r.log.Error("cache upsert failed", zap.String("region", region.ID), zap.Error(err))
		return false
	}

	r.log.Debug("region refreshed",
		zap.String("region", region.ID),
		zap.Int("temperature", snap.Temperature),
		zap.String("condition", snap.Condition),
	)
	return true
}
