// Package enrich annotates collected records with domains, a canonical
// URL, reachability and routing metadata.
package enrich

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/probe"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

// Reasons attached to records that were not probed.
const (
	ReasonStopped       = "application stopped"
	ReasonNoURL         = "url not configured"
	ReasonNotProbed     = probe.ReasonNotProbed
	DefaultWorkers      = 8
	DefaultProbeTimeout = probe.DefaultTimeout
)

// DomainLookup resolves the domains bound to an application.
type DomainLookup interface {
	Lookup(appName, containerName string) []domain.DomainBinding
}

// NATRoutes resolves the firewall rule forwarding a host port.
type NATRoutes interface {
	Lookup(port string) *domain.NATRoute
}

// Enricher runs the enrichment stage.
type Enricher struct {
	domains      DomainLookup
	prober       probe.Prober
	probeTimeout time.Duration
	workers      int
	log          logger.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithProbeTimeout bounds each reachability probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.probeTimeout = d
		}
	}
}

// WithWorkers bounds the number of concurrent probes.
func WithWorkers(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Enricher) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an Enricher.
func New(domains DomainLookup, prober probe.Prober, opts ...Option) *Enricher {
	e := &Enricher{
		domains:      domains,
		prober:       prober,
		probeTimeout: DefaultProbeTimeout,
		workers:      DefaultWorkers,
		log:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich annotates apps in place. nat may be nil.
//
// Probes run on a bounded pool; every probe carries its own timeout, so a
// slow endpoint delays only its own record.
func (e *Enricher) Enrich(ctx context.Context, apps []*domain.Application, nat NATRoutes) {
	var g errgroup.Group
	g.SetLimit(e.workers)

	probed := 0
	for _, app := range apps {
		e.attachDomains(app)
		e.ensureURL(app)

		if res, skip := e.precheck(app); skip {
			app.SetReachability(res)
		} else {
			probed++
			g.Go(func() error {
				app.SetReachability(e.prober.Probe(ctx, app.URL, e.probeTimeout))
				return nil
			})
		}

		e.attachRouting(app, nat)
	}
	_ = g.Wait()

	e.log.Debug("enrichment done",
		logger.Int("records", len(apps)),
		logger.Int("probed", probed))
}

func (e *Enricher) attachDomains(app *domain.Application) {
	var found []domain.DomainBinding
	if e.domains != nil {
		if app.ContainerName != "" {
			found = e.domains.Lookup("", app.ContainerName)
		} else {
			found = e.domains.Lookup(SearchName(app.Name), "")
		}
	}
	if found == nil {
		found = []domain.DomainBinding{}
	}
	app.Domains = found
}

// ensureURL synthesizes a recommended URL from address, port and protocol
// when the backend gave none. Internal-only services are addressed through
// the container address.
func (e *Enricher) ensureURL(app *domain.Application) {
	if app.URL != "" || app.Port == "" {
		return
	}
	host := app.HostAddress
	if app.InternalOnly {
		host = app.InternalAddress
	}
	if host == "" {
		return
	}
	app.URL = sources.URL(app.Protocol, host, app.Port)
	app.URLRecommended = true
}

// precheck returns the result for records that must not be probed.
func (e *Enricher) precheck(app *domain.Application) (domain.Reachability, bool) {
	switch {
	case app.URL == "":
		return domain.Undetermined(ReasonNoURL), true
	case app.Protocol == domain.ProtocolSSH || strings.HasPrefix(strings.ToLower(app.URL), "ssh://"):
		return domain.Undetermined(ReasonNotProbed), true
	case !app.IsRunning():
		return domain.Reachable(false, ReasonStopped), true
	case e.prober == nil:
		return domain.Undetermined(ReasonNotProbed), true
	default:
		return domain.Reachability{}, false
	}
}

func (e *Enricher) attachRouting(app *domain.Application, nat NATRoutes) {
	// an internal-only port lives inside its container, not on the host
	if nat != nil && !app.InternalOnly {
		if route := nat.Lookup(app.Port); route != nil {
			if app.Routing == nil {
				app.Routing = &domain.Routing{}
			}
			app.Routing.FirewallNAT = route
		}
	}
	if app.Routing.IsEmpty() {
		app.Routing = nil
	}
}

// SearchName is the display name used for domain lookup: lower-cased, with
// any " - suffix" trimmed.
func SearchName(name string) string {
	name, _, _ = strings.Cut(name, " - ")
	return strings.ToLower(strings.TrimSpace(name))
}
