package lxd

import (
	"context"
	"regexp"
	"strings"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

// ListeningCommand lists listening TCP sockets inside a container.
func ListeningCommand(name string) string {
	return "lxc exec " + sources.Quote(name) + " -- ss -tlnp 2>/dev/null"
}

// DeviceListCommand lists the devices attached to a container.
func DeviceListCommand(name string) string {
	return "lxc config device list " + sources.Quote(name)
}

// DeviceGetCommand reads one key of a container device.
func DeviceGetCommand(name, device, key string) string {
	return "lxc config device get " + sources.Quote(name) + " " + sources.Quote(device) + " " + key
}

// Target identifies the container being scanned.
type Target struct {
	Name string
	// Address is the container's own address, possibly empty.
	Address     string
	HostAddress string
}

// ProxyDevice is an LXD proxy device forwarding a host port.
type ProxyDevice struct {
	Name    string
	Listen  string
	Connect string
	// Port is the host port parsed from Listen.
	Port string
	// InternalPort is the port parsed from Connect, or Port.
	InternalPort string
}

// Scanner finds the applications living inside one running container.
type Scanner struct {
	cfg sources.Config
}

// NewScanner creates a scanner.
func NewScanner(cfg sources.Config) *Scanner {
	return &Scanner{cfg: cfg.WithDefaults()}
}

// Scan returns one record per proxy device, plus the records emitted by
// the device and internal-port rule tables.
func (s *Scanner) Scan(ctx context.Context, t Target) []*domain.Application {
	listeners := sources.ParseListening(s.cfg.Run(ctx, ListeningCommand(t.Name)), s.cfg.Rules.Process)
	byPort := sources.Ports(listeners)

	var apps []*domain.Application
	for _, dev := range s.proxyDevices(ctx, t.Name) {
		apps = append(apps, s.proxyRecord(t, dev, byPort))
		if svc, ok := s.cfg.Rules.Device(dev.Name, dev.Port); ok {
			apps = append(apps, s.deviceRecord(t, dev, svc, byPort))
		}
	}

	for _, l := range listeners {
		if svc, ok := rules.FindPort(s.cfg.Rules.InternalPorts, l.Port); ok {
			apps = append(apps, s.internalRecord(t, l, svc))
		}
	}
	return apps
}

func (s *Scanner) proxyDevices(ctx context.Context, name string) []ProxyDevice {
	var devices []ProxyDevice
	for _, dev := range sources.Lines(s.cfg.Run(ctx, DeviceListCommand(name))) {
		typ := s.cfg.Run(ctx, DeviceGetCommand(name, dev, "type"))
		if !strings.Contains(strings.ToLower(typ), "proxy") {
			continue
		}
		listen := s.cfg.Run(ctx, DeviceGetCommand(name, dev, "listen"))
		connect := s.cfg.Run(ctx, DeviceGetCommand(name, dev, "connect"))

		port := TrailingPort(listen)
		if port == "" {
			continue
		}
		internal := TrailingPort(connect)
		if internal == "" {
			internal = port
		}
		devices = append(devices, ProxyDevice{
			Name:         dev,
			Listen:       listen,
			Connect:      connect,
			Port:         port,
			InternalPort: internal,
		})
	}
	return devices
}

func (s *Scanner) proxyRecord(t Target, dev ProxyDevice, byPort map[string]sources.Listener) *domain.Application {
	l := s.cfg.Rules.Labels
	proto := s.cfg.Rules.Protocol.Match(dev.Name, dev.Port)
	v := rules.Vars{Container: t.Name, Device: dev.Name, Port: dev.Port, Protocol: proto}

	app := s.base(t, v.Render(l.ProxyName))
	app.Port = dev.Port
	app.InternalPort = dev.InternalPort
	app.Protocol = proto
	app.URL = sources.URL(proto, t.HostAddress, dev.Port)
	app.ProxyListen = dev.Listen
	app.ProxyConnect = dev.Connect
	app.Process = byPort[dev.InternalPort].Process
	app.Category = l.ProxyCategory
	app.Description = v.Render(l.ProxyDescription)
	app.Routing = &domain.Routing{ProxyDevice: &domain.ProxyRoute{ExternalPort: dev.Port, InternalPort: dev.InternalPort}}
	return app
}

func (s *Scanner) deviceRecord(t Target, dev ProxyDevice, svc rules.Service, byPort map[string]sources.Listener) *domain.Application {
	proto := svc.Protocol
	if proto == "" {
		proto = domain.ProtocolHTTP
	}
	v := rules.Vars{Container: t.Name, Device: dev.Name, Port: dev.Port, Protocol: proto}

	app := s.base(t, v.Render(svc.Name))
	app.Port = dev.Port
	app.InternalPort = dev.InternalPort
	app.Protocol = proto
	app.URL = sources.URL(proto, t.HostAddress, dev.Port)
	app.Process = byPort[dev.InternalPort].Process
	app.Category = svc.Category
	app.Description = v.Render(svc.Description)
	app.Routing = &domain.Routing{ProxyDevice: &domain.ProxyRoute{ExternalPort: dev.Port, InternalPort: dev.InternalPort}}
	return app
}

// internalRecord describes a service reachable only from inside the
// container, so its URL targets the container address.
func (s *Scanner) internalRecord(t Target, l sources.Listener, svc rules.Service) *domain.Application {
	proto := svc.Protocol
	if proto == "" {
		proto = domain.ProtocolHTTP
	}
	v := rules.Vars{Container: t.Name, Port: l.Port, Protocol: proto}

	app := s.base(t, v.Render(svc.Name))
	app.Port = l.Port
	app.InternalPort = l.Port
	app.Protocol = proto
	app.InternalOnly = svc.InternalOnly
	app.Process = l.Process
	app.Category = svc.Category
	app.Description = v.Render(svc.Description)
	if t.Address != "" {
		app.URL = sources.URL(proto, t.Address, l.Port)
	}
	return app
}

func (s *Scanner) base(t Target, name string) *domain.Application {
	return &domain.Application{
		Name:            name,
		Source:          domain.SourceLXD,
		ContainerLabel:  s.cfg.Rules.Labels.LXD,
		ContainerName:   t.Name,
		Status:          domain.StatusRunning,
		HostAddress:     t.HostAddress,
		InternalAddress: t.Address,
	}
}

var trailingPort = regexp.MustCompile(`:(\d+)$`)

// TrailingPort returns the port of a device address such as
// "tcp:0.0.0.0:443" or "tcp:[::]:80", or "" when there is none.
func TrailingPort(spec string) string {
	if m := trailingPort.FindStringSubmatch(strings.TrimSpace(spec)); m != nil {
		return m[1]
	}
	return ""
}
