// Package rules holds the ordered, first-match-wins tables the backend
// collectors use to label what they discover. Everything that names a
// specific product, port or address family lives here as data.
package rules

import (
	"regexp"
	"strings"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
)

// Input keys understood by keyword rules.
const (
	FieldName  = "name"
	FieldImage = "image"
	FieldLine  = "line"
)

// Input is the set of named values a keyword rule may inspect.
type Input map[string]string

// KeywordRule matches when any keyword is contained (case-insensitive) in
// any of the inspected fields. An empty Fields list inspects every field.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Fields   []string `yaml:"fields,omitempty"`
	Value    string   `yaml:"value"`
}

// KeywordTable is an ordered list of keyword rules with a fallback value.
type KeywordTable struct {
	Rules   []KeywordRule `yaml:"rules"`
	Default string        `yaml:"default"`
}

// Match returns the value of the first matching rule, or the default.
func (t KeywordTable) Match(in Input) string {
	if v, ok := t.Find(in); ok {
		return v
	}
	return t.Default
}

// Find is Match without the fallback.
func (t KeywordTable) Find(in Input) (string, bool) {
	for _, r := range t.Rules {
		if r.matches(in) {
			return r.Value, true
		}
	}
	return "", false
}

func (r KeywordRule) matches(in Input) bool {
	fields := r.Fields
	if len(fields) == 0 {
		fields = make([]string, 0, len(in))
		for k := range in {
			fields = append(fields, k)
		}
	}
	for _, f := range fields {
		v := strings.ToLower(in[f])
		if v == "" {
			continue
		}
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(v, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// ProtocolRule selects a protocol by proxy device name or exposed port.
// Either criterion matching is enough.
type ProtocolRule struct {
	Device   string          `yaml:"device,omitempty"`
	Port     string          `yaml:"port,omitempty"`
	Protocol domain.Protocol `yaml:"protocol"`
}

// ProtocolTable resolves the protocol of a forwarded port.
type ProtocolTable struct {
	Rules   []ProtocolRule  `yaml:"rules"`
	Default domain.Protocol `yaml:"default"`
}

// Match returns the protocol for a device exposing port.
func (t ProtocolTable) Match(device, port string) domain.Protocol {
	for _, r := range t.Rules {
		if (r.Device != "" && strings.EqualFold(r.Device, device)) || (r.Port != "" && r.Port == port) {
			return r.Protocol
		}
	}
	if t.Default == "" {
		return domain.ProtocolHTTP
	}
	return t.Default
}

// Service describes a record emitted when a rule fires.
// Name and Description are templates expanded with Vars.Render.
type Service struct {
	Name         string          `yaml:"name"`
	Protocol     domain.Protocol `yaml:"protocol"`
	Category     string          `yaml:"category"`
	Description  string          `yaml:"description"`
	InternalOnly bool            `yaml:"internal_only,omitempty"`
}

// DeviceRule emits an extra record for a proxy device with a given name
// exposing a given port.
type DeviceRule struct {
	Device  string  `yaml:"device"`
	Port    string  `yaml:"port"`
	Service Service `yaml:"service"`
}

// PortRule emits a record when Port is seen listening, either inside a
// container or on the host.
type PortRule struct {
	Port    string  `yaml:"port"`
	Service Service `yaml:"service"`
}

// Address sources for AddressPattern.
const (
	SourceInfo = "info"
	SourceList = "list"
)

// AddressPattern extracts a container address from one of the LXD outputs.
// Patterns are tried in order; the first match wins.
type AddressPattern struct {
	Source  string `yaml:"source"`
	Pattern string `yaml:"pattern"`
	// Group selects the capture group, 0 for the whole match.
	Group int `yaml:"group"`

	re *regexp.Regexp
}

func (p *AddressPattern) compile() error {
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return err
	}
	p.re = re
	return nil
}

// Extract returns the first match of the pattern in s.
func (p AddressPattern) Extract(s string) (string, bool) {
	re := p.re
	if re == nil {
		var err error
		if re, err = regexp.Compile(p.Pattern); err != nil {
			return "", false
		}
	}
	m := re.FindStringSubmatch(s)
	if m == nil || p.Group >= len(m) {
		return "", false
	}
	return m[p.Group], true
}

// ResolveAddress walks patterns against the per-source outputs and returns
// the first address found.
func ResolveAddress(patterns []AddressPattern, outputs map[string]string) string {
	for _, p := range patterns {
		if addr, ok := p.Extract(outputs[p.Source]); ok {
			return addr
		}
	}
	return ""
}

// Labels are the fixed strings attached to records.
// Templates are expanded with Vars.Render.
type Labels struct {
	Docker string `yaml:"docker"`
	LXD    string `yaml:"lxd"`
	Host   string `yaml:"host"`

	ProxyName        string `yaml:"proxy_name"`
	ProxyCategory    string `yaml:"proxy_category"`
	ProxyDescription string `yaml:"proxy_description"`

	IdleCategory       string `yaml:"idle_category"`
	IdleDescription    string `yaml:"idle_description"`
	StoppedDescription string `yaml:"stopped_description"`
}

// Rules is the complete rule set used by the collectors.
type Rules struct {
	Category      KeywordTable     `yaml:"category"`
	Description   KeywordTable     `yaml:"description"`
	Process       KeywordTable     `yaml:"process"`
	Protocol      ProtocolTable    `yaml:"protocol"`
	Devices       []DeviceRule     `yaml:"devices"`
	InternalPorts []PortRule       `yaml:"internal_ports"`
	HostServices  []PortRule       `yaml:"host_services"`
	Addresses     []AddressPattern `yaml:"addresses"`
	Labels        Labels           `yaml:"labels"`
}

// Device returns the first device rule for device exposing port.
func (r *Rules) Device(device, port string) (Service, bool) {
	for _, d := range r.Devices {
		if strings.EqualFold(d.Device, device) && d.Port == port {
			return d.Service, true
		}
	}
	return Service{}, false
}

// Vars are the values a label template can reference.
type Vars struct {
	Container string
	Device    string
	Port      string
	Protocol  domain.Protocol
}

// Render expands {container}, {device}, {port} and {protocol} in tmpl.
// The upper-case forms {DEVICE} and {PROTOCOL} expand upper-cased.
func (v Vars) Render(tmpl string) string {
	return strings.NewReplacer(
		"{container}", v.Container,
		"{device}", v.Device,
		"{DEVICE}", strings.ToUpper(v.Device),
		"{port}", v.Port,
		"{protocol}", string(v.Protocol),
		"{PROTOCOL}", strings.ToUpper(string(v.Protocol)),
	).Replace(tmpl)
}

// FindPort returns the service of the first rule for port.
func FindPort(table []PortRule, port string) (Service, bool) {
	for _, r := range table {
		if r.Port == port {
			return r.Service, true
		}
	}
	return Service{}, false
}
