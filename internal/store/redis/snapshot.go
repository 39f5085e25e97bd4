package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
)

const (
	// DefaultSnapshotTTL is how long individual snapshots are kept (24 hours)
	DefaultSnapshotTTL = 24 * time.Hour
	// DefaultHistorySize caps the history list
	DefaultHistorySize = 50
)

// ErrNotFound is returned when a snapshot does not exist or has expired.
var ErrNotFound = errors.New("snapshot not found")

// Store persists inventory snapshots in Redis
type Store struct {
	client      *redis.Client
	ttl         time.Duration
	historySize int64
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client:      client,
		ttl:         DefaultSnapshotTTL,
		historySize: DefaultHistorySize,
	}
}

// WithRetention overrides the snapshot TTL and history size.
func (s *Store) WithRetention(ttl time.Duration, historySize int) *Store {
	if ttl > 0 {
		s.ttl = ttl
	}
	if historySize > 0 {
		s.historySize = int64(historySize)
	}
	return s
}

// Summary is the short form of a stored snapshot.
type Summary struct {
	ID          string            `json:"id"`
	CollectedAt time.Time         `json:"collected_at"`
	HostAddress string            `json:"host_ip"`
	Statistics  domain.Statistics `json:"statistics"`
}

// SaveSnapshot stores snap as the last snapshot and appends it to the
// history. Degraded snapshots are refused.
func (s *Store) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.ID == "" {
		return errors.New("snapshot without id")
	}
	if snap.Error != "" {
		return fmt.Errorf("refusing to persist degraded snapshot: %s", snap.Error)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, KeyLastSnapshot, data, 0)
	pipe.Set(ctx, SnapshotKey(snap.ID), data, s.ttl)
	pipe.LPush(ctx, KeySnapshotHistory, snap.ID)
	pipe.LTrim(ctx, KeySnapshotHistory, 0, s.historySize-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LastSnapshot returns the last saved snapshot, or nil when none exists.
func (s *Store) LastSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := s.get(ctx, KeyLastSnapshot)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return snap, err
}

// Snapshot returns a stored snapshot by ID.
func (s *Store) Snapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.get(ctx, SnapshotKey(id))
}

// History returns up to limit snapshot summaries, newest first. Expired
// entries are skipped.
func (s *Store) History(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 || int64(limit) > s.historySize {
		limit = int(s.historySize)
	}

	ids, err := s.client.LRange(ctx, KeySnapshotHistory, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot history: %w", err)
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = SnapshotKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	out := make([]Summary, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var sum Summary
		if err := json.Unmarshal([]byte(raw), &sum); err != nil {
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) get(ctx context.Context, key string) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
