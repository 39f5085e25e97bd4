// Package cache keeps the last inventory snapshot for a bounded time.
//
// The cache holds one mutex. A reader either receives the fresh-enough
// snapshot or performs a synchronous recollection while holding the lock,
// so concurrent requests during a slow collection queue behind it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/inventory"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/metrics"
)

const (
	// DefaultTTL is how long a snapshot is served before recollection.
	DefaultTTL = 10 * time.Second

	storeTimeout = 5 * time.Second
)

// Store persists snapshots across restarts.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error
	LastSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

// Cache wraps a collector with a TTL.
type Cache struct {
	collector inventory.Collector
	ttl       time.Duration
	store     Store
	now       func() time.Time
	log       logger.Logger

	mu        sync.Mutex
	last      *domain.Snapshot
	fetchedAt time.Time
	fresh     bool
	lastErr   error
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithStore persists every successful snapshot.
func WithStore(s Store) Option {
	return func(c *Cache) { c.store = s }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a cache in front of collector. A non-positive ttl falls back
// to DefaultTTL.
func New(collector inventory.Collector, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		collector: collector,
		ttl:       ttl,
		now:       time.Now,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot while it is younger than the TTL and
// collects a new one otherwise. It never returns nil: when collection
// fails the last good snapshot is served, and without one a degraded
// snapshot carrying the error.
func (c *Cache) Get(ctx context.Context) *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && c.fresh && c.now().Sub(c.fetchedAt) < c.ttl {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return c.last
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	snap, _ := c.refreshLocked(ctx)
	return snap
}

// Refresh forces a recollection. The returned snapshot follows the same
// fallback rules as Get; the error reports whether collection failed.
func (c *Cache) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Invalidate makes the next Get recollect. The last good snapshot stays
// available as a fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh = false
}

// LastGood returns the last successful snapshot, or nil.
func (c *Cache) LastGood() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Status describes the cache for health endpoints.
type Status struct {
	HasSnapshot bool
	FetchedAt   time.Time
	Fresh       bool
	LastError   string
}

// Status reports the cache state without collecting.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		HasSnapshot: c.last != nil,
		FetchedAt:   c.fetchedAt,
		Fresh:       c.last != nil && c.fresh && c.now().Sub(c.fetchedAt) < c.ttl,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

// Restore seeds the fallback snapshot from the store. The restored
// snapshot is stale: it is served only if the next collection fails.
func (c *Cache) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	snap, err := c.store.LastSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		c.last = snap
		c.fresh = false
		c.log.Info("restored last snapshot",
			logger.String("snapshot", snap.ID),
			logger.Int("applications", len(snap.Applications)))
	}
	return nil
}

func (c *Cache) refreshLocked(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := c.collect(ctx)
	if err != nil {
		c.lastErr = err
		if c.last != nil {
			metrics.CacheLookups.WithLabelValues("stale").Inc()
			c.log.Warn("collection failed, serving last good snapshot",
				logger.String("snapshot", c.last.ID),
				logger.Error(err))
			return c.last, err
		}
		metrics.CacheLookups.WithLabelValues("degraded").Inc()
		c.log.Error("collection failed, no snapshot to fall back on", logger.Error(err))
		return domain.DegradedSnapshot(err, c.now()), err
	}

	c.last = snap
	c.fetchedAt = c.now()
	c.fresh = true
	c.lastErr = nil
	c.persist(ctx, snap)
	return snap, nil
}

// collect runs one pass detached from the caller's cancellation: a
// triggered collection always runs to completion. Panics are turned into
// errors.
func (c *Cache) collect(ctx context.Context) (snap *domain.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap, err = nil, fmt.Errorf("collection panicked: %v", r)
		}
	}()

	snap, err = c.collector.Collect(context.WithoutCancel(ctx))
	if err == nil && snap == nil {
		err = errors.New("collector returned no snapshot")
	}
	return snap, err
}

func (c *Cache) persist(ctx context.Context, snap *domain.Snapshot) {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if err := c.store.SaveSnapshot(ctx, snap); err != nil {
		c.log.Warn("failed to persist snapshot",
			logger.String("snapshot", snap.ID),
			logger.Error(err))
	}
}
