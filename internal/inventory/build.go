package inventory

import (
	"context"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/domains"
	"github.com/CDTO-DENKART/app-visualizer/internal/enrich"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/probe"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources/docker"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources/host"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources/lxd"
)

// Setup gathers what a complete pipeline needs.
type Setup struct {
	Runner  runner.Runner
	Rules   *rules.Rules
	Domains *domains.Directory
	Prober  probe.Prober

	// Backends restricts and orders the collectors; empty means all.
	Backends []domain.SourceType

	HostAddress    string
	CommandTimeout time.Duration
	ProbeTimeout   time.Duration
	ProbeWorkers   int

	Log logger.Logger
}

// Build wires the collectors, the enricher and the NAT table reader.
func (s Setup) Build() *Inventory {
	log := s.Log
	if log == nil {
		log = logger.NewNop()
	}

	cfg := sources.Config{
		Runner:  s.Runner,
		Rules:   s.Rules,
		Timeout: s.CommandTimeout,
		Log:     log,
	}.WithDefaults()

	hostCollector := host.New(cfg)

	backends := s.Backends
	if len(backends) == 0 {
		backends = domain.Sources
	}
	var collectors []sources.Collector
	for _, b := range backends {
		switch b {
		case domain.SourceDocker:
			collectors = append(collectors, docker.New(cfg))
		case domain.SourceLXD:
			collectors = append(collectors, lxd.New(cfg))
		case domain.SourceHost:
			collectors = append(collectors, hostCollector)
		default:
			log.Warn("unknown backend ignored", logger.String("backend", string(b)))
		}
	}

	dir := s.Domains
	if dir == nil {
		dir = domains.Default()
	}

	enricher := enrich.New(dir, s.Prober,
		enrich.WithProbeTimeout(s.ProbeTimeout),
		enrich.WithWorkers(s.ProbeWorkers),
		enrich.WithLogger(log))

	return New(s.Runner, collectors, enricher,
		WithHostAddress(s.HostAddress),
		WithCommandTimeout(cfg.Timeout),
		WithNAT(NATFunc(func(ctx context.Context) enrich.NATRoutes {
			return hostCollector.NAT(ctx)
		})),
		WithLogger(log))
}
