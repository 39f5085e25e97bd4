package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
)

// SnapshotCache is the part of the snapshot cache the warmer drives.
type SnapshotCache interface {
	Refresh(ctx context.Context) (*domain.Snapshot, error)
	Restore(ctx context.Context) error
}

// Warmer preloads the snapshot cache at startup and refreshes it on a
// fixed interval and on manual triggers.
type Warmer struct {
	cache         SnapshotCache
	logger        logger.Logger
	interval      time.Duration
	manualTrigger <-chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
}

// NewWarmer creates a warmer. A zero interval disables periodic refresh;
// a nil trigger disables manual refresh.
func NewWarmer(
	cache SnapshotCache,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *Warmer {
	return &Warmer{
		cache:         cache,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start restores the persisted snapshot, runs the first collection and
// starts the refresh loop. Failures are logged: the cache degrades on
// its own, so startup never blocks on a broken backend.
func (w *Warmer) Start(ctx context.Context) error {
	if err := w.cache.Restore(ctx); err != nil {
		w.logger.Warn("failed to restore snapshot, starting empty", logger.Error(err))
	}

	w.Reload(ctx, "startup")

	if w.interval <= 0 && w.manualTrigger == nil {
		close(w.done)
		return nil
	}

	go w.loop(ctx)
	return nil
}

func (w *Warmer) loop(ctx context.Context) {
	defer close(w.done)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	trigger := w.manualTrigger
	for {
		select {
		case <-tick:
			w.Reload(ctx, "interval")
		case _, ok := <-trigger:
			if !ok {
				trigger = nil
				continue
			}
			w.logger.Info("manual reload triggered")
			w.Reload(ctx, "manual")
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the refresh loop and waits for it to exit. It must only be
// called after Start.
func (w *Warmer) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

// Reload runs one collection through the cache.
func (w *Warmer) Reload(ctx context.Context, reason string) {
	start := time.Now()
	snap, err := w.cache.Refresh(ctx)
	if err != nil {
		w.logger.Error("snapshot refresh failed",
			logger.String("reason", reason),
			logger.Error(err))
		return
	}
	w.logger.Info("snapshot refreshed",
		logger.String("reason", reason),
		logger.String("snapshot", snap.ID),
		logger.Int("applications", len(snap.Applications)),
		logger.Duration("elapsed", time.Since(start)))
}
