// Package inventory runs a full collection pass and assembles the snapshot.
package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/enrich"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/metrics"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

// HostAddressCommand prints the host's addresses, space separated.
const HostAddressCommand = "hostname -I"

// Collector produces one fresh snapshot per call.
type Collector interface {
	Collect(ctx context.Context) (*domain.Snapshot, error)
}

// NATSource provides the host's port forwarding table.
type NATSource interface {
	NAT(ctx context.Context) enrich.NATRoutes
}

// NATFunc adapts a function to NATSource.
type NATFunc func(ctx context.Context) enrich.NATRoutes

// NAT implements NATSource.
func (f NATFunc) NAT(ctx context.Context) enrich.NATRoutes { return f(ctx) }

// Inventory wires the backends, the enrichment stage and the statistics.
type Inventory struct {
	runner      runner.Runner
	timeout     time.Duration
	hostAddress string
	collectors  []sources.Collector
	enricher    *enrich.Enricher
	nat         NATSource
	now         func() time.Time
	log         logger.Logger
}

var _ Collector = (*Inventory)(nil)

// Option configures an Inventory.
type Option func(*Inventory)

// WithHostAddress pins the host address instead of detecting it.
func WithHostAddress(addr string) Option {
	return func(i *Inventory) { i.hostAddress = strings.TrimSpace(addr) }
}

// WithCommandTimeout bounds the host address detection command.
func WithCommandTimeout(d time.Duration) Option {
	return func(i *Inventory) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// WithNAT sets the routing table source used during enrichment.
func WithNAT(src NATSource) Option {
	return func(i *Inventory) { i.nat = src }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Inventory) { i.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(i *Inventory) {
		if log != nil {
			i.log = log
		}
	}
}

// New creates an Inventory. collectors run sequentially in the given order.
func New(run runner.Runner, collectors []sources.Collector, enricher *enrich.Enricher, opts ...Option) *Inventory {
	i := &Inventory{
		runner:     run,
		timeout:    runner.DefaultTimeout,
		collectors: collectors,
		enricher:   enricher,
		now:        time.Now,
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Collect runs every backend, enriches the merged records and returns a
// new snapshot. Missing tools produce an empty snapshot, not an error.
func (i *Inventory) Collect(ctx context.Context) (*domain.Snapshot, error) {
	start := time.Now()

	host := i.HostAddress(ctx)
	apps := []*domain.Application{}

	for _, c := range i.collectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := c.Collect(ctx, host)
		metrics.BackendRecords.WithLabelValues(string(c.Source())).Set(float64(len(found)))
		i.log.Debug("backend collected",
			logger.String("source", string(c.Source())),
			logger.Int("records", len(found)))
		apps = append(apps, found...)
	}

	if i.enricher != nil {
		var nat enrich.NATRoutes
		if i.nat != nil {
			nat = i.nat.NAT(ctx)
		}
		i.enricher.Enrich(ctx, apps, nat)
	}

	snap := &domain.Snapshot{
		ID:           uuid.NewString(),
		CollectedAt:  i.now().UTC(),
		HostAddress:  host,
		Applications: apps,
		Statistics:   Statistics(apps),
	}

	elapsed := time.Since(start)
	metrics.CollectionDuration.Observe(elapsed.Seconds())
	i.log.Info("collection finished",
		logger.String("snapshot", snap.ID),
		logger.Int("total", snap.Statistics.Total),
		logger.Int("running", snap.Statistics.Running),
		logger.Duration("elapsed", elapsed))

	return snap, nil
}

// HostAddress returns the configured address, else the first private
// address reported by `hostname -I` (192.168.* or 10.*), else the first
// address, else the loopback fallback.
func (i *Inventory) HostAddress(ctx context.Context) string {
	if i.hostAddress != "" {
		return i.hostAddress
	}
	if i.runner == nil {
		return domain.FallbackHostAddress
	}
	return PickHostAddress(i.runner.Run(ctx, HostAddressCommand, i.timeout))
}

// PickHostAddress selects the host address from `hostname -I` output.
func PickHostAddress(out string) string {
	addrs := strings.Fields(out)
	for _, a := range addrs {
		if strings.HasPrefix(a, "192.168.") || strings.HasPrefix(a, "10.") {
			return a
		}
	}
	if len(addrs) > 0 {
		return addrs[0]
	}
	return domain.FallbackHostAddress
}

// Statistics summarizes apps. Total always equals len(apps) and
// Running+Stopped always equals Total.
func Statistics(apps []*domain.Application) domain.Statistics {
	st := domain.Statistics{BySource: make(map[domain.SourceType]int, len(domain.Sources))}
	for _, s := range domain.Sources {
		st.BySource[s] = 0
	}
	for _, a := range apps {
		st.Total++
		if a.IsRunning() {
			st.Running++
		} else {
			st.Stopped++
		}
		st.BySource[a.Source]++
	}
	st.Docker = st.BySource[domain.SourceDocker]
	st.LXD = st.BySource[domain.SourceLXD]
	st.Host = st.BySource[domain.SourceHost]
	return st
}
