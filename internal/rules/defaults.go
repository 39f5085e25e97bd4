package rules

import "github.com/CDTO-DENKART/app-visualizer/internal/domain"

// Default returns the built-in rule set.
func Default() *Rules {
	r := &Rules{
		Category: KeywordTable{
			Rules: []KeywordRule{
				{Keywords: []string{"grafana", "prometheus"}, Fields: []string{FieldName, FieldImage}, Value: "Monitoring"},
				{Keywords: []string{"portainer"}, Fields: []string{FieldName, FieldImage}, Value: "Management"},
				{Keywords: []string{"exporter"}, Fields: []string{FieldName}, Value: "Metrics export"},
			},
			Default: "Application",
		},
		Description: KeywordTable{
			Rules: []KeywordRule{
				{Keywords: []string{"grafana"}, Fields: []string{FieldName}, Value: "Metrics monitoring and visualization"},
				{Keywords: []string{"prometheus"}, Fields: []string{FieldName}, Value: "Monitoring and metrics collection"},
				{Keywords: []string{"portainer"}, Fields: []string{FieldName}, Value: "Docker container management"},
				{Keywords: []string{"node-exporter"}, Fields: []string{FieldName}, Value: "System metrics export"},
			},
			Default: "Application in a Docker container",
		},
		Process: KeywordTable{
			Rules: []KeywordRule{
				{Keywords: []string{"nginx"}, Fields: []string{FieldLine}, Value: "nginx"},
				{Keywords: []string{"python"}, Fields: []string{FieldLine}, Value: "python"},
				{Keywords: []string{"node"}, Fields: []string{FieldLine}, Value: "node"},
			},
		},
		Protocol: ProtocolTable{
			Rules: []ProtocolRule{
				{Device: "https", Protocol: domain.ProtocolHTTPS},
				{Port: "443", Protocol: domain.ProtocolHTTPS},
			},
			Default: domain.ProtocolHTTP,
		},
		Devices: []DeviceRule{
			{
				Device: "http",
				Port:   "80",
				Service: Service{
					Name:        "{container} - Nginx",
					Protocol:    domain.ProtocolHTTP,
					Category:    "Web server",
					Description: "Nginx web server in container {container}",
				},
			},
		},
		InternalPorts: []PortRule{
			{
				Port: "8090",
				Service: Service{
					Name:         "{container} - DENKART Docs",
					Protocol:     domain.ProtocolHTTP,
					Category:     "Documentation",
					Description:  "DENKART knowledge base (reachable only inside the container)",
					InternalOnly: true,
				},
			},
		},
		HostServices: []PortRule{
			{
				Port: "8443",
				Service: Service{
					Name:        "LXD API",
					Protocol:    domain.ProtocolHTTPS,
					Category:    "API",
					Description: "LXD API for container management",
				},
			},
			{
				Port: "22",
				Service: Service{
					Name:        "SSH Server",
					Protocol:    domain.ProtocolSSH,
					Category:    "System",
					Description: "SSH server for remote access",
				},
			},
		},
		// IPv4 is preferred: the address from lxc info, then any IPv4 the
		// listing reported, and only then the LXD-managed ULA IPv6.
		Addresses: []AddressPattern{
			{Source: SourceInfo, Pattern: `inet:?\s+(\d+\.\d+\.\d+\.\d+)`, Group: 1},
			{Source: SourceList, Pattern: `\d+\.\d+\.\d+\.\d+`},
			{Source: SourceInfo, Pattern: `fd42:[0-9a-f:]+`},
		},
		Labels: Labels{
			Docker:             "Docker",
			LXD:                "LXD container",
			Host:               "System service",
			ProxyName:          "{container} - {DEVICE} Proxy",
			ProxyCategory:      "Web server",
			ProxyDescription:   "Forwarded {PROTOCOL} port {port} in container {container}",
			IdleCategory:       "no applications detected",
			IdleDescription:    "Running LXD container {container} (no applications detected)",
			StoppedDescription: "Stopped LXD container {container}",
		},
	}
	if err := r.compile(); err != nil {
		panic("rules: invalid default address pattern: " + err.Error())
	}
	return r
}
