package domain

import "strings"

// SourceType identifies the backend an application was discovered from.
type SourceType string

const (
	SourceDocker SourceType = "docker"
	SourceLXD    SourceType = "lxd"
	SourceHost   SourceType = "host"
)

// Sources lists every backend in collection order.
var Sources = []SourceType{SourceDocker, SourceLXD, SourceHost}

// Status is the observed run state of an application.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// Protocol is the scheme used to reach an application.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolSSH   Protocol = "ssh"
)

// ParseProtocol maps free text to a Protocol, defaulting to http.
func ParseProtocol(s string) Protocol {
	switch Protocol(strings.ToLower(strings.TrimSpace(s))) {
	case ProtocolHTTPS:
		return ProtocolHTTPS
	case ProtocolSSH:
		return ProtocolSSH
	default:
		return ProtocolHTTP
	}
}

// PortMapping is one published host -> container port binding.
type PortMapping struct {
	HostIP        string `json:"host_ip" yaml:"host_ip"`
	HostPort      string `json:"host_port" yaml:"host_port"`
	ContainerPort string `json:"container_port" yaml:"container_port"`
	Protocol      string `json:"protocol" yaml:"protocol"`
}

// Application is one discovered service instance on the host.
//
// It is NOT tied to a particular backend: every collector normalizes
// its raw output into this structure before enrichment.
//
// Identity is positional within a snapshot. Nothing here is stable
// across collection cycles.
type Application struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Name is the display name.
	// Example: "docs-denkart - HTTPS Proxy"
	Name string `json:"name" yaml:"name"`

	// Source is the backend that reported the application.
	Source SourceType `json:"type" yaml:"type"`

	// ContainerLabel is the human label of the backend.
	// Example: "Docker", "LXD container"
	ContainerLabel string `json:"container_type,omitempty" yaml:"container_type,omitempty"`

	// ContainerName is set for applications living inside a named container
	// whose name should drive domain lookup.
	ContainerName string `json:"container_name,omitempty" yaml:"container_name,omitempty"`

	// Image is the container image (docker only).
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	Status Status `json:"status" yaml:"status"`

	// ─────────────────────────────
	// Network
	// ─────────────────────────────

	HostAddress     string        `json:"host_ip" yaml:"host_ip"`
	InternalAddress string        `json:"internal_ip,omitempty" yaml:"internal_ip,omitempty"`
	Port            string        `json:"port,omitempty" yaml:"port,omitempty"`
	InternalPort    string        `json:"internal_port,omitempty" yaml:"internal_port,omitempty"`
	Protocol        Protocol      `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	PortMappings    []PortMapping `json:"port_mappings,omitempty" yaml:"port_mappings,omitempty"`

	// InternalOnly marks services reachable only from inside their container.
	InternalOnly bool `json:"internal_only,omitempty" yaml:"internal_only,omitempty"`

	// ProxyListen and ProxyConnect are the raw LXD proxy device specs.
	ProxyListen  string `json:"proxy_listen,omitempty" yaml:"proxy_listen,omitempty"`
	ProxyConnect string `json:"proxy_connect,omitempty" yaml:"proxy_connect,omitempty"`

	// Process is the process keyword seen listening on InternalPort.
	Process string `json:"process,omitempty" yaml:"process,omitempty"`

	// ─────────────────────────────
	// Enrichment
	// ─────────────────────────────

	URL            string          `json:"url,omitempty" yaml:"url,omitempty"`
	URLRecommended bool            `json:"url_recommended" yaml:"url_recommended"`
	Reachability   *Reachability   `json:"url_check,omitempty" yaml:"url_check,omitempty"`
	URLAvailable   *bool           `json:"url_available" yaml:"url_available"`
	Domains        []DomainBinding `json:"domains" yaml:"domains"`
	Routing        *Routing        `json:"routing,omitempty" yaml:"routing,omitempty"`

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	Category    string `json:"app_type,omitempty" yaml:"app_type,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// IsRunning reports whether the application was observed running.
func (a *Application) IsRunning() bool {
	return a.Status == StatusRunning
}

// SetReachability records a reachability result. URLAvailable mirrors
// its Available flag for consumers reading the flat field.
func (a *Application) SetReachability(r Reachability) {
	a.Reachability = &r
	a.URLAvailable = r.Available
}

// Reachability is the outcome of one lightweight existence check.
type Reachability struct {
	// Available is nil when reachability could not be determined.
	Available *bool  `json:"available" yaml:"available"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Reachable builds a determined result.
func Reachable(ok bool, reason string) Reachability {
	return Reachability{Available: &ok, Error: reason}
}

// Undetermined builds a result for checks that were not performed.
func Undetermined(reason string) Reachability {
	return Reachability{Error: reason}
}

// NATRoute is a firewall DNAT rule forwarding a host port.
type NATRoute struct {
	Type        string `json:"type" yaml:"type"`
	Destination string `json:"destination" yaml:"destination"`
}

// ProxyRoute is an LXD proxy device forwarding a host port into a container.
type ProxyRoute struct {
	ExternalPort string `json:"external_port" yaml:"external_port"`
	InternalPort string `json:"internal_port" yaml:"internal_port"`
}

// Routing describes how traffic reaches an application.
type Routing struct {
	FirewallNAT *NATRoute    `json:"firewall_nat,omitempty" yaml:"firewall_nat,omitempty"`
	ProxyDevice *ProxyRoute  `json:"proxy_device,omitempty" yaml:"proxy_device,omitempty"`
	PortMapping *PortMapping `json:"port_mapping,omitempty" yaml:"port_mapping,omitempty"`
}

// IsEmpty reports whether no routing field is set.
func (r *Routing) IsEmpty() bool {
	return r == nil || (r.FirewallNAT == nil && r.ProxyDevice == nil && r.PortMapping == nil)
}
