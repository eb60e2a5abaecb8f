package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/i474232898/obhavo-bot/internal/weather"
)

func newRedisSnapshots(t *testing.T) (*RedisSnapshots, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSnapshots(client, "", nil), mr
}

func TestRedisSnapshotsUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisSnapshots(t)

	if _, err := s.Get(ctx, "toshkent"); !errors.Is(err, weather.ErrSnapshotUnavailable) {
		t.Fatalf("expected ErrSnapshotUnavailable, got %v", err)
	}

	snap := weather.Snapshot{
		RegionID:    "toshkent",
		Temperature: 18,
		Condition:   "Ochiq",
		Forecast:    weather.Forecast{Daily: []weather.DailyPoint{{Date: "2026-10-17", Max: 20, Min: 9, Sunrise: "06:41"}}},
		UpdatedAt:   time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC),
	}
	if err := s.Upsert(ctx, snap); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	snap.Temperature = 19
	if err := s.Upsert(ctx, snap); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.Get(ctx, "toshkent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Temperature != 19 || !got.UpdatedAt.Equal(snap.UpdatedAt) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if today, ok := got.Forecast.Today(snap.UpdatedAt); !ok || today.Max != 20 || today.Sunrise != "06:41" {
		t.Fatalf("forecast not round-tripped: %+v", got.Forecast)
	}

	keys, err := mr.HKeys(DefaultRedisKey)
	if err != nil || len(keys) != 1 {
		t.Fatalf("expected one hash field under %s, got %v (%v)", DefaultRedisKey, keys, err)
	}
}

func TestRedisSnapshotsListAllSkipsUnreadable(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisSnapshots(t)

	for _, id := range []string{"termiz", "andijon", "toshkent"} {
		if err := s.Upsert(ctx, weather.Snapshot{RegionID: id, Temperature: 10}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
	mr.HSet(DefaultRedisKey, "nukus", `{"regionId": "nukus", "temperature": "hot"`)

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].RegionID != "andijon" || all[1].RegionID != "termiz" || all[2].RegionID != "toshkent" {
		t.Fatalf("unexpected ListAll result: %+v", all)
	}

	// The unreadable region is left out, so the digest shows a placeholder.
	if _, ok := weather.Index(all)["nukus"]; ok {
		t.Fatal("unreadable entry should be skipped")
	}
	if _, err := s.Get(ctx, "nukus"); err == nil || errors.Is(err, weather.ErrSnapshotUnavailable) {
		t.Fatalf("expected a decode error for nukus, got %v", err)
	}
}

func TestRedisSnapshotsServerDown(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisSnapshots(t)
	mr.Close()

	if _, err := s.ListAll(ctx); err == nil {
		t.Fatal("expected an error with the server gone")
	}
	if _, err := s.Get(ctx, "toshkent"); err == nil || errors.Is(err, weather.ErrSnapshotUnavailable) {
		t.Fatalf("connection errors must not look like a missing snapshot, got %v", err)
	}
}
