// Package docker discovers running Docker containers from the docker CLI.
package docker

import (
	"context"
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

// PSCommand lists containers as "name|image|ports|status" lines.
const PSCommand = `docker ps --format "{{.Names}}|{{.Image}}|{{.Ports}}|{{.Status}}"`

// InspectCommand returns the command printing the container's network
// addresses, space separated.
func InspectCommand(name string) string {
	return `docker inspect --format "{{range .NetworkSettings.Networks}}{{.IPAddress}} {{end}}" ` + sources.Quote(name)
}

// Collector reads the docker backend.
type Collector struct {
	cfg sources.Config
}

var _ sources.Collector = (*Collector)(nil)

// New creates a docker collector.
func New(cfg sources.Config) *Collector {
	return &Collector{cfg: cfg.WithDefaults()}
}

// Source implements sources.Collector.
func (c *Collector) Source() domain.SourceType { return domain.SourceDocker }

// Collect implements sources.Collector.
func (c *Collector) Collect(ctx context.Context, hostAddress string) []*domain.Application {
	out := c.cfg.Run(ctx, PSCommand)
	if out == "" {
		return nil
	}

	var apps []*domain.Application
	for _, line := range sources.Lines(out) {
		row, ok := ParseLine(line)
		if !ok {
			c.cfg.Log.Debug("skipping docker ps line", logger.String("line", line))
			continue
		}
		internal := FirstIPv4(c.cfg.Run(ctx, InspectCommand(row.Name)))
		apps = append(apps, c.record(row, internal, hostAddress))
	}
	return apps
}

func (c *Collector) record(row Row, internal, hostAddress string) *domain.Application {
	r := c.cfg.Rules
	in := rules.Input{rules.FieldName: row.Name, rules.FieldImage: row.Image}

	app := &domain.Application{
		Name:            row.Name,
		Source:          domain.SourceDocker,
		ContainerLabel:  r.Labels.Docker,
		Image:           row.Image,
		Status:          row.Status(),
		HostAddress:     hostAddress,
		InternalAddress: internal,
		Protocol:        domain.ProtocolHTTP,
		PortMappings:    row.Mappings,
		Category:        r.Category.Match(in),
		Description:     r.Description.Match(in),
	}

	if first, ok := FirstTCP(row.Mappings); ok {
		app.Port = first.HostPort
		app.InternalPort = first.ContainerPort
		app.URL = sources.URL(domain.ProtocolHTTP, hostAddress, first.HostPort)
		app.Routing = &domain.Routing{PortMapping: &first}
	}
	return app
}

// FirstTCP returns the first tcp mapping. UDP publications are listed in
// port_mappings but never drive the port or URL of a record.
func FirstTCP(mappings []domain.PortMapping) (domain.PortMapping, bool) {
	for _, m := range mappings {
		if m.Protocol == "tcp" {
			return m, true
		}
	}
	return domain.PortMapping{}, false
}

// Row is one parsed `docker ps` line.
type Row struct {
	Name       string
	Image      string
	Ports      string
	StatusText string
	Mappings   []domain.PortMapping
}

// Status maps the docker status text ("Up 3 hours", "Exited (0) ...").
func (r Row) Status() domain.Status {
	if strings.Contains(r.StatusText, "Up") {
		return domain.StatusRunning
	}
	return domain.StatusStopped
}

// ParseLine splits a "name|image|ports|status" line. Lines with fewer than
// four fields are rejected.
func ParseLine(line string) (Row, bool) {
	parts := strings.Split(line, "|")
	if len(parts) < 4 {
		return Row{}, false
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Row{}, false
	}
	return Row{
		Name:       name,
		Image:      strings.TrimSpace(parts[1]),
		Ports:      parts[2],
		StatusText: strings.TrimSpace(parts[3]),
		Mappings:   ParsePortMappings(parts[2]),
	}, true
}

const wildcardIPv4 = "0.0.0.0"

var mappingPattern = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+)?:(\d+)->(\d+)/(tcp|udp)`)

// ParsePortMappings extracts published ports from the docker Ports column,
// e.g. "0.0.0.0:8080->80/tcp, :::8080->80/tcp". The IPv6 wildcard
// publication of a binding already seen on the IPv4 wildcard is collapsed
// into it; bindings on distinct addresses are kept. Malformed input yields
// no mappings.
func ParsePortMappings(ports string) []domain.PortMapping {
	var (
		out  []domain.PortMapping
		seen = map[string]bool{}
	)
	for _, m := range mappingPattern.FindAllStringSubmatch(ports, -1) {
		hostIP := m[1]
		if hostIP == "" {
			hostIP = wildcardIPv4
		}
		key := fmt.Sprintf("%s/%s/%s/%s", hostIP, m[2], m[3], m[4])
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, domain.PortMapping{
			HostIP:        hostIP,
			HostPort:      m[2],
			ContainerPort: m[3],
			Protocol:      m[4],
		})
	}
	return out
}

// FirstIPv4 returns the first IPv4 address among whitespace separated
// fields of s.
func FirstIPv4(s string) string {
	for _, f := range strings.Fields(s) {
		if addr, err := netip.ParseAddr(f); err == nil && addr.Is4() {
			return addr.String()
		}
	}
	return ""
}
