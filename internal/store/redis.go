package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/weather"
)

// DefaultRedisKey is the hash holding one JSON snapshot per region.
const DefaultRedisKey = "obhavo:weather"

// RedisSnapshots is a weather cache shared between processes. All regions
// live in a single hash so ListAll is one round trip.
type RedisSnapshots struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

// NewRedisClient builds a client for addr and db.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisSnapshots(client *redis.Client, key string, log *zap.Logger) *RedisSnapshots {
	if key == "" {
		key = DefaultRedisKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSnapshots{client: client, key: key, log: log.Named("redis_cache")}
}

func (s *RedisSnapshots) Upsert(ctx context.Context, snap weather.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.RegionID, err)
	}
	if err := s.client.HSet(ctx, s.key, snap.RegionID, b).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", snap.RegionID, err)
	}
	return nil
}

func (s *RedisSnapshots) Get(ctx context.Context, regionID string) (weather.Snapshot, error) {
	raw, err := s.client.HGet(ctx, s.key, regionID).Result()
	if errors.Is(err, redis.Nil) {
		return weather.Snapshot{}, weather.ErrSnapshotUnavailable
	}
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("redis hget %s: %w", regionID, err)
	}
	var snap weather.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return weather.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", regionID, err)
	}
	return snap, nil
}

// ListAll skips entries that fail to decode rather than failing the digest.
func (s *RedisSnapshots) ListAll(ctx context.Context) ([]weather.Snapshot, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	out := make([]weather.Snapshot, 0, len(all))
	for regionID, raw := range all {
		var snap weather.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			s.log.Warn("skipping unreadable snapshot", zap.String("region", regionID), zap.Error(err))
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionID < out[j].RegionID })
	return out, nil
}

var _ weather.Store = (*RedisSnapshots)(nil)
