// Package host detects well-known system services listening on the host.
package host

import (
	"context"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

// ListeningCommand lists listening TCP sockets on the host.
const ListeningCommand = "ss -tlnp"

// Collector reads the host backend.
type Collector struct {
	cfg sources.Config
}

var _ sources.Collector = (*Collector)(nil)

// New creates a host collector.
func New(cfg sources.Config) *Collector {
	return &Collector{cfg: cfg.WithDefaults()}
}

// Source implements sources.Collector.
func (c *Collector) Source() domain.SourceType { return domain.SourceHost }

// Collect implements sources.Collector. One record is emitted per
// host-service rule whose port is listening, in rule order.
func (c *Collector) Collect(ctx context.Context, hostAddress string) []*domain.Application {
	out := c.cfg.Run(ctx, ListeningCommand)
	if out == "" {
		return nil
	}
	listening := sources.Ports(sources.ParseListening(out, c.cfg.Rules.Process))

	var apps []*domain.Application
	for _, rule := range c.cfg.Rules.HostServices {
		l, ok := listening[rule.Port]
		if !ok {
			continue
		}
		apps = append(apps, c.record(rule, l, hostAddress))
	}
	return apps
}

func (c *Collector) record(rule rules.PortRule, l sources.Listener, hostAddress string) *domain.Application {
	svc := rule.Service
	proto := svc.Protocol
	if proto == "" {
		proto = domain.ProtocolHTTP
	}
	v := rules.Vars{Port: rule.Port, Protocol: proto}

	return &domain.Application{
		Name:           v.Render(svc.Name),
		Source:         domain.SourceHost,
		ContainerLabel: c.cfg.Rules.Labels.Host,
		Status:         domain.StatusRunning,
		HostAddress:    hostAddress,
		Port:           rule.Port,
		Protocol:       proto,
		URL:            sources.URL(proto, hostAddress, rule.Port),
		Process:        l.Process,
		Category:       svc.Category,
		Description:    v.Render(svc.Description),
	}
}
