package docker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

func TestParsePortMappings(t *testing.T) {
	tests := []struct {
		name  string
		ports string
		want  []domain.PortMapping
	}{
		{
			name:  "single ipv4",
			ports: "0.0.0.0:8080->80/tcp",
			want:  []domain.PortMapping{{HostIP: "0.0.0.0", HostPort: "8080", ContainerPort: "80", Protocol: "tcp"}},
		},
		{
			name:  "ipv4 and ipv6 collapsed",
			ports: "0.0.0.0:3000->3000/tcp, :::3000->3000/tcp",
			want:  []domain.PortMapping{{HostIP: "0.0.0.0", HostPort: "3000", ContainerPort: "3000", Protocol: "tcp"}},
		},
		{
			name:  "bracketed ipv6 only",
			ports: "[::]:9090->9090/tcp",
			want:  []domain.PortMapping{{HostIP: "0.0.0.0", HostPort: "9090", ContainerPort: "9090", Protocol: "tcp"}},
		},
		{
			name:  "bound address and udp",
			ports: "127.0.0.1:5353->53/udp, 10.0.0.2:443->8443/tcp",
			want: []domain.PortMapping{
				{HostIP: "127.0.0.1", HostPort: "5353", ContainerPort: "53", Protocol: "udp"},
				{HostIP: "10.0.0.2", HostPort: "443", ContainerPort: "8443", Protocol: "tcp"},
			},
		},
		{
			name:  "same port on distinct addresses",
			ports: "127.0.0.1:9000->80/tcp, 192.168.1.5:9000->80/tcp",
			want: []domain.PortMapping{
				{HostIP: "127.0.0.1", HostPort: "9000", ContainerPort: "80", Protocol: "tcp"},
				{HostIP: "192.168.1.5", HostPort: "9000", ContainerPort: "80", Protocol: "tcp"},
			},
		},
		{
			name:  "tcp and udp on the same port",
			ports: "0.0.0.0:53->53/tcp, 0.0.0.0:53->53/udp, :::53->53/tcp, :::53->53/udp",
			want: []domain.PortMapping{
				{HostIP: "0.0.0.0", HostPort: "53", ContainerPort: "53", Protocol: "tcp"},
				{HostIP: "0.0.0.0", HostPort: "53", ContainerPort: "53", Protocol: "udp"},
			},
		},
		{name: "exposed but not published", ports: "80/tcp", want: nil},
		{name: "empty", ports: "", want: nil},
		{name: "garbage", ports: "->:/tcp abc:def->ghi/tcp", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePortMappings(tt.ports))
		})
	}
}

func TestParseLine(t *testing.T) {
	row, ok := ParseLine("web|nginx:latest|0.0.0.0:8080->80/tcp|Up 3 hours")
	require.True(t, ok)
	assert.Equal(t, "web", row.Name)
	assert.Equal(t, "nginx:latest", row.Image)
	assert.Equal(t, domain.StatusRunning, row.Status())
	require.Len(t, row.Mappings, 1)

	row, ok = ParseLine("old|busybox||Exited (0) 2 days ago")
	require.True(t, ok)
	assert.Equal(t, domain.StatusStopped, row.Status())
	assert.Empty(t, row.Mappings)

	for _, line := range []string{"web|nginx", "a|b|c", "|img|ports|Up"} {
		_, ok := ParseLine(line)
		assert.False(t, ok, line)
	}
}

func TestFirstIPv4(t *testing.T) {
	assert.Equal(t, "172.17.0.2", FirstIPv4("172.17.0.2 "))
	assert.Equal(t, "172.18.0.4", FirstIPv4("fe80::1 172.18.0.4 172.19.0.4"))
	assert.Equal(t, "", FirstIPv4(""))
	assert.Equal(t, "", FirstIPv4("<no value>"))
}

func TestCollect(t *testing.T) {
	run := runner.NewScripted(map[string]string{
		PSCommand: "web|nginx:latest|0.0.0.0:8080->80/tcp|Up 3 hours\n" +
			"broken line\n" +
			"grafana|grafana/grafana:10.2|0.0.0.0:3000->3000/tcp, :::3000->3000/tcp|Up 2 days\n" +
			"worker|busybox||Up 5 minutes",
		InspectCommand("web"):     "172.17.0.2 ",
		InspectCommand("grafana"): "172.18.0.3 ",
	})

	apps := New(sources.Config{Runner: run}).Collect(context.Background(), "192.168.1.10")
	require.Len(t, apps, 3)

	web := apps[0]
	assert.Equal(t, "web", web.Name)
	assert.Equal(t, domain.SourceDocker, web.Source)
	assert.Equal(t, "Docker", web.ContainerLabel)
	assert.Equal(t, "8080", web.Port)
	assert.Equal(t, "80", web.InternalPort)
	assert.Equal(t, domain.StatusRunning, web.Status)
	assert.Equal(t, "http://192.168.1.10:8080", web.URL)
	assert.Equal(t, "172.17.0.2", web.InternalAddress)
	assert.Equal(t, "Application", web.Category)
	assert.Empty(t, web.ContainerName)
	require.NotNil(t, web.Routing)
	assert.Equal(t, "8080", web.Routing.PortMapping.HostPort)

	grafana := apps[1]
	assert.Equal(t, "Monitoring", grafana.Category)
	assert.Equal(t, "Metrics monitoring and visualization", grafana.Description)
	assert.Len(t, grafana.PortMappings, 1)

	worker := apps[2]
	assert.Empty(t, worker.Port)
	assert.Empty(t, worker.URL)
	assert.Nil(t, worker.Routing)
	assert.Empty(t, worker.InternalAddress)
}

func TestCollectWithoutDocker(t *testing.T) {
	apps := New(sources.Config{Runner: runner.NewScripted(nil)}).Collect(context.Background(), "10.0.0.1")
	assert.Empty(t, apps)
}

func TestCollectUDPMappings(t *testing.T) {
	run := runner.NewScripted(map[string]string{
		PSCommand: "wg|linuxserver/wireguard|0.0.0.0:51820->51820/udp|Up 1 hour\n" +
			"dns|pihole/pihole|0.0.0.0:53->53/udp, 0.0.0.0:8080->80/tcp|Up 1 hour",
	})

	apps := New(sources.Config{Runner: run}).Collect(context.Background(), "192.168.1.10")
	require.Len(t, apps, 2)

	wg := apps[0]
	assert.Len(t, wg.PortMappings, 1)
	assert.Empty(t, wg.Port)
	assert.Empty(t, wg.InternalPort)
	assert.Empty(t, wg.URL)
	assert.Nil(t, wg.Routing)

	dns := apps[1]
	assert.Len(t, dns.PortMappings, 2)
	assert.Equal(t, "8080", dns.Port)
	assert.Equal(t, "80", dns.InternalPort)
	assert.Equal(t, "http://192.168.1.10:8080", dns.URL)
	require.NotNil(t, dns.Routing)
	assert.Equal(t, "tcp", dns.Routing.PortMapping.Protocol)
	assert.Equal(t, "8080", dns.Routing.PortMapping.HostPort)
}
