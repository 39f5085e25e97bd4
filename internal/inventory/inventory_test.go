package inventory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources/docker"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources/host"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources/lxd"
)

type stubProber struct{ calls atomic.Int32 }

func (p *stubProber) Probe(_ context.Context, _ string, _ time.Duration) domain.Reachability {
	p.calls.Add(1)
	return domain.Reachable(true, "")
}

func TestCollectWithoutTools(t *testing.T) {
	inv := Setup{Runner: runner.NewScripted(nil), Prober: &stubProber{}}.Build()

	snap, err := inv.Collect(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, snap.Applications)
	assert.Empty(t, snap.Applications)
	assert.Equal(t, 0, snap.Statistics.Total)
	assert.Equal(t, domain.FallbackHostAddress, snap.HostAddress)
	assert.NotEmpty(t, snap.ID)
	assert.Empty(t, snap.Error)
}

func TestCollectEndToEnd(t *testing.T) {
	run := runner.NewScripted(map[string]string{
		HostAddressCommand: "172.17.0.1 192.168.1.10 fd00::1",
		docker.PSCommand:   "web|nginx:latest|0.0.0.0:8080->80/tcp|Up 3 hours",
		lxd.ListCommand:    `[{"name":"archive","status":"Stopped","status_code":102}]`,
		host.ListeningCommand: "LISTEN 0 128 0.0.0.0:22 0.0.0.0:*\n" +
			"LISTEN 0 128 *:8443 *:*",
		host.NATCommand: "-A PREROUTING -p tcp --dport 8080 -j DNAT --to-destination 172.17.0.2:80",
	})
	prober := &stubProber{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	inv := Setup{Runner: run, Prober: prober}.Build()
	inv.now = func() time.Time { return fixed }

	snap, err := inv.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.10", snap.HostAddress)
	assert.Equal(t, fixed, snap.CollectedAt)
	require.Len(t, snap.Applications, 4)

	web := snap.Applications[0]
	assert.Equal(t, "8080", web.Port)
	assert.Equal(t, domain.StatusRunning, web.Status)
	assert.Equal(t, "http://192.168.1.10:8080", web.URL)
	require.NotNil(t, web.Routing)
	assert.Equal(t, "172.17.0.2:80", web.Routing.FirewallNAT.Destination)
	assert.True(t, *web.Reachability.Available)

	assert.Equal(t, "archive", snap.Applications[1].Name)
	assert.Equal(t, "LXD API", snap.Applications[2].Name)
	assert.Equal(t, "SSH Server", snap.Applications[3].Name)

	// web and LXD API probed; stopped and ssh records are not
	assert.Equal(t, int32(2), prober.calls.Load())

	st := snap.Statistics
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.Running)
	assert.Equal(t, 1, st.Stopped)
	assert.Equal(t, map[domain.SourceType]int{
		domain.SourceDocker: 1,
		domain.SourceLXD:    1,
		domain.SourceHost:   2,
	}, st.BySource)
	assert.Equal(t, 1, st.Docker)
	assert.Equal(t, 1, st.LXD)
	assert.Equal(t, 2, st.Host)
	require.NotNil(t, web.URLAvailable)
	assert.True(t, *web.URLAvailable)
}

func TestCollectBackendSelection(t *testing.T) {
	run := runner.NewScripted(map[string]string{
		docker.PSCommand:      "web|nginx|0.0.0.0:80->80/tcp|Up 1 minute",
		host.ListeningCommand: "LISTEN 0 128 0.0.0.0:22 0.0.0.0:*",
	})

	inv := Setup{
		Runner:      run,
		Backends:    []domain.SourceType{domain.SourceHost, "bogus"},
		HostAddress: "10.1.1.1",
	}.Build()

	snap, err := inv.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Applications, 1)
	assert.Equal(t, domain.SourceHost, snap.Applications[0].Source)
	assert.Equal(t, "10.1.1.1", snap.HostAddress)
	assert.NotContains(t, run.Calls(), docker.PSCommand)
	assert.NotContains(t, run.Calls(), HostAddressCommand, "pinned address skips detection")
}

func TestCollectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Setup{Runner: runner.NewScripted(nil)}.Build().Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPickHostAddress(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{"172.17.0.1 192.168.1.10 10.0.0.4", "192.168.1.10"},
		{"172.17.0.1 10.0.0.4", "10.0.0.4"},
		{"203.0.113.7 172.17.0.1", "203.0.113.7"},
		{"", "127.0.0.1"},
		{"   \n", "127.0.0.1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PickHostAddress(tt.out), tt.out)
	}
}

func TestStatisticsInvariants(t *testing.T) {
	sets := [][]*domain.Application{
		nil,
		{{Status: domain.StatusRunning, Source: domain.SourceDocker}},
		{
			{Status: domain.StatusRunning, Source: domain.SourceLXD},
			{Status: domain.StatusStopped, Source: domain.SourceLXD},
			{Status: "", Source: domain.SourceHost},
		},
	}

	for _, apps := range sets {
		st := Statistics(apps)
		assert.Equal(t, len(apps), st.Total)
		assert.Equal(t, st.Total, st.Running+st.Stopped)

		sum := 0
		for _, n := range st.BySource {
			sum += n
		}
		assert.Equal(t, st.Total, sum)
		assert.Len(t, st.BySource, 3, "every backend is reported")
		assert.Equal(t, st.Total, st.Docker+st.LXD+st.Host)
	}
}
