package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

const hostListening = `State  Recv-Q Send-Q Local Address:Port Peer Address:Port Process
LISTEN 0      4096         0.0.0.0:22        0.0.0.0:*     users:(("sshd",pid=800,fd=3))
LISTEN 0      4096               *:8443            *:*     users:(("lxd",pid=1200,fd=20))
LISTEN 0      4096         0.0.0.0:2222      0.0.0.0:*     users:(("docker-proxy",pid=4,fd=4))
`

func TestCollect(t *testing.T) {
	run := runner.NewScripted(map[string]string{ListeningCommand: hostListening})

	apps := New(sources.Config{Runner: run}).Collect(context.Background(), "192.168.1.10")
	require.Len(t, apps, 2)

	lxdAPI := apps[0]
	assert.Equal(t, "LXD API", lxdAPI.Name)
	assert.Equal(t, domain.SourceHost, lxdAPI.Source)
	assert.Equal(t, "System service", lxdAPI.ContainerLabel)
	assert.Equal(t, domain.ProtocolHTTPS, lxdAPI.Protocol)
	assert.Equal(t, "https://192.168.1.10:8443", lxdAPI.URL)
	assert.Equal(t, "API", lxdAPI.Category)

	ssh := apps[1]
	assert.Equal(t, "SSH Server", ssh.Name)
	assert.Equal(t, domain.ProtocolSSH, ssh.Protocol)
	assert.Equal(t, "ssh://192.168.1.10:22", ssh.URL)
	assert.Equal(t, domain.StatusRunning, ssh.Status)
}

func TestCollectExactPortMatch(t *testing.T) {
	run := runner.NewScripted(map[string]string{
		ListeningCommand: "LISTEN 0 128 0.0.0.0:2222 0.0.0.0:*\nLISTEN 0 128 0.0.0.0:18443 0.0.0.0:*",
	})

	apps := New(sources.Config{Runner: run}).Collect(context.Background(), "10.0.0.1")
	assert.Empty(t, apps)
}

func TestCollectWithoutSS(t *testing.T) {
	apps := New(sources.Config{Runner: runner.NewScripted(nil)}).Collect(context.Background(), "10.0.0.1")
	assert.Empty(t, apps)
}

func TestParseNAT(t *testing.T) {
	out := `-P PREROUTING ACCEPT
-A PREROUTING -m addrtype --dst-type LOCAL -j DOCKER
-A PREROUTING -i eth0 -p tcp -m tcp --dport 443 -j DNAT --to-destination 10.10.10.5:443
-A PREROUTING -i eth0 -p tcp -m tcp --dport 443 -j DNAT --to-destination 10.10.10.6:443
-A PREROUTING -p tcp --dport 8080 -j DNAT --to-destination 10.10.10.7
-A PREROUTING -p tcp --dport 9000 -j REDIRECT --to-ports 9001
`
	table := ParseNAT(out)

	assert.Len(t, table, 2)
	assert.Equal(t, &domain.NATRoute{Type: "DNAT", Destination: "10.10.10.5:443"}, table.Lookup("443"))
	assert.Equal(t, "10.10.10.7", table.Lookup("8080").Destination)
	assert.Nil(t, table.Lookup("9000"))
	assert.Nil(t, table.Lookup(""))
}

func TestNAT(t *testing.T) {
	run := runner.NewScripted(map[string]string{
		NATCommand: "-A PREROUTING -p tcp --dport 80 -j DNAT --to-destination 10.0.0.5:80",
	})
	c := New(sources.Config{Runner: run})

	assert.NotNil(t, c.NAT(context.Background()).Lookup("80"))
	assert.Empty(t, New(sources.Config{Runner: runner.NewScripted(nil)}).NAT(context.Background()))
}
