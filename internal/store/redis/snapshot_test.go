package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func testSnapshot(id string, at time.Time, apps int) *domain.Snapshot {
	snap := &domain.Snapshot{
		ID:           id,
		CollectedAt:  at,
		HostAddress:  "192.168.1.10",
		Applications: []*domain.Application{},
		Statistics:   domain.Statistics{Total: apps, Running: apps, Docker: apps},
	}
	for i := 0; i < apps; i++ {
		snap.Applications = append(snap.Applications, &domain.Application{Name: "web", Source: domain.SourceDocker})
	}
	return snap
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	s.WithRetention(time.Hour, 10)

	last, err := s.LastSnapshot(ctx)
	if err != nil || last != nil {
		t.Fatalf("LastSnapshot() on empty store = %v, %v", last, err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SaveSnapshot(ctx, testSnapshot("a", at, 2)); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	last, err = s.LastSnapshot(ctx)
	if err != nil {
		t.Fatalf("LastSnapshot() error = %v", err)
	}
	if last.ID != "a" || len(last.Applications) != 2 || !last.CollectedAt.Equal(at) {
		t.Errorf("LastSnapshot() = %+v", last)
	}

	if ttl := mr.TTL(SnapshotKey("a")); ttl != time.Hour {
		t.Errorf("snapshot ttl = %v, want 1h", ttl)
	}
	if ttl := mr.TTL(KeyLastSnapshot); ttl != 0 {
		t.Errorf("last snapshot ttl = %v, want none", ttl)
	}

	got, err := s.Snapshot(ctx, "a")
	if err != nil || got.ID != "a" {
		t.Errorf("Snapshot(a) = %v, %v", got, err)
	}
	if _, err := s.Snapshot(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Snapshot(missing) error = %v, want ErrNotFound", err)
	}
}

func TestHistoryRetention(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	s.WithRetention(time.Minute, 2)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.SaveSnapshot(ctx, testSnapshot(id, base.Add(time.Duration(i)*time.Second), i)); err != nil {
			t.Fatalf("SaveSnapshot(%s) error = %v", id, err)
		}
	}

	ids, err := mr.List(KeySnapshotHistory)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "b" {
		t.Errorf("history ids = %v, want [c b]", ids)
	}

	hist, err := s.History(ctx, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 2 || hist[0].ID != "c" || hist[1].ID != "b" {
		t.Fatalf("History() = %+v, want c then b", hist)
	}
	if hist[0].Statistics.Total != 2 || hist[0].Statistics.Docker != 2 || hist[0].HostAddress != "192.168.1.10" {
		t.Errorf("History()[0] = %+v", hist[0])
	}

	hist, err = s.History(ctx, 1)
	if err != nil || len(hist) != 1 || hist[0].ID != "c" {
		t.Errorf("History(1) = %+v, %v", hist, err)
	}

	// expired snapshots drop out of the history while their ids remain listed
	mr.FastForward(2 * time.Minute)
	hist, err = s.History(ctx, 0)
	if err != nil {
		t.Fatalf("History() after expiry error = %v", err)
	}
	if len(hist) != 0 {
		t.Errorf("History() after expiry = %+v, want empty", hist)
	}
	if _, err := s.Snapshot(ctx, "c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Snapshot(c) after expiry error = %v, want ErrNotFound", err)
	}
	if last, err := s.LastSnapshot(ctx); err != nil || last.ID != "c" {
		t.Errorf("LastSnapshot() after expiry = %v, %v", last, err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	hist, err := s.History(context.Background(), 5)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if hist == nil || len(hist) != 0 {
		t.Errorf("History() = %#v, want empty slice", hist)
	}
}

func TestStoreErrorsWhenServerGone(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	ctx := context.Background()
	if err := s.Ping(ctx); err == nil {
		t.Error("Ping() expected error")
	}
	if err := s.SaveSnapshot(ctx, testSnapshot("a", time.Now(), 0)); err == nil {
		t.Error("SaveSnapshot() expected error")
	}
	if _, err := s.LastSnapshot(ctx); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("LastSnapshot() error = %v, want connection error", err)
	}
}
