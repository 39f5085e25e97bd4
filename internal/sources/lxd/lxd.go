// Package lxd discovers LXD containers and the applications they expose.
package lxd

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

// ListCommand prints every container as a JSON array.
const ListCommand = "lxc list --format json"

// statusCodeRunning is the LXD API status code of a running instance.
const statusCodeRunning = 103

// InfoCommand returns the command describing one container.
func InfoCommand(name string) string {
	return "lxc info " + sources.Quote(name)
}

// Container is the subset of an `lxc list` entry the collector reads.
type Container struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	// IPv4 is either a string or a list of strings depending on the
	// client; it is kept raw and scanned for addresses.
	IPv4  json.RawMessage `json:"ipv4,omitempty"`
	State *struct {
		Network map[string]struct {
			Addresses []struct {
				Family  string `json:"family"`
				Address string `json:"address"`
			} `json:"addresses"`
		} `json:"network"`
	} `json:"state,omitempty"`
}

// Running reports whether the container is running by status text or code.
func (c Container) Running() bool {
	return strings.EqualFold(strings.TrimSpace(c.Status), "running") || c.StatusCode == statusCodeRunning
}

// ListAddresses returns every address the listing reported, space separated.
func (c Container) ListAddresses() string {
	var parts []string

	raw := bytes.TrimSpace(c.IPv4)
	if len(raw) > 0 {
		var s string
		var list []string
		switch {
		case json.Unmarshal(raw, &s) == nil:
			parts = append(parts, s)
		case json.Unmarshal(raw, &list) == nil:
			parts = append(parts, list...)
		}
	}

	if c.State != nil {
		for _, name := range slices.Sorted(maps.Keys(c.State.Network)) {
			if name == "lo" {
				continue
			}
			for _, a := range c.State.Network[name].Addresses {
				if a.Family == "inet" {
					parts = append(parts, a.Address)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

// ParseList decodes `lxc list --format json`. Malformed output yields nil.
func ParseList(out string) ([]Container, bool) {
	var cs []Container
	if err := json.Unmarshal([]byte(out), &cs); err != nil {
		return nil, false
	}
	return cs, true
}

// Collector reads the LXD backend.
type Collector struct {
	cfg     sources.Config
	scanner *Scanner
}

var _ sources.Collector = (*Collector)(nil)

// New creates an LXD collector.
func New(cfg sources.Config) *Collector {
	cfg = cfg.WithDefaults()
	return &Collector{cfg: cfg, scanner: NewScanner(cfg)}
}

// Source implements sources.Collector.
func (c *Collector) Source() domain.SourceType { return domain.SourceLXD }

// Collect implements sources.Collector. Running containers contribute
// their scanned applications, or one placeholder record when none were
// found; stopped containers contribute exactly one record.
func (c *Collector) Collect(ctx context.Context, hostAddress string) []*domain.Application {
	out := c.cfg.Run(ctx, ListCommand)
	if out == "" {
		return nil
	}
	containers, ok := ParseList(out)
	if !ok {
		c.cfg.Log.Warn("unparsable lxc list output", logger.Int("bytes", len(out)))
		return nil
	}

	var apps []*domain.Application
	for _, ct := range containers {
		if ct.Name == "" {
			continue
		}
		if !ct.Running() {
			apps = append(apps, c.stopped(ct, hostAddress))
			continue
		}

		address := rules.ResolveAddress(c.cfg.Rules.Addresses, map[string]string{
			rules.SourceInfo: c.cfg.Run(ctx, InfoCommand(ct.Name)),
			rules.SourceList: ct.ListAddresses(),
		})

		found := c.scanner.Scan(ctx, Target{Name: ct.Name, Address: address, HostAddress: hostAddress})
		if len(found) == 0 {
			found = append(found, c.idle(ct, address, hostAddress))
		}
		apps = append(apps, found...)
	}
	return apps
}

func (c *Collector) idle(ct Container, address, hostAddress string) *domain.Application {
	l := c.cfg.Rules.Labels
	v := rules.Vars{Container: ct.Name}
	return &domain.Application{
		Name:            ct.Name,
		Source:          domain.SourceLXD,
		ContainerLabel:  l.LXD,
		ContainerName:   ct.Name,
		Status:          domain.StatusRunning,
		HostAddress:     hostAddress,
		InternalAddress: address,
		Category:        l.IdleCategory,
		Description:     v.Render(l.IdleDescription),
	}
}

func (c *Collector) stopped(ct Container, hostAddress string) *domain.Application {
	l := c.cfg.Rules.Labels
	return &domain.Application{
		Name:           ct.Name,
		Source:         domain.SourceLXD,
		ContainerLabel: l.LXD,
		ContainerName:  ct.Name,
		Status:         domain.StatusStopped,
		HostAddress:    hostAddress,
		Description:    rules.Vars{Container: ct.Name}.Render(l.StoppedDescription),
	}
}
