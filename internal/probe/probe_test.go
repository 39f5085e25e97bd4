package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAvailableStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, true},
		{301, true},
		{302, true},
		{303, true},
		{307, true},
		{308, true},
		{204, false},
		{304, false},
		{401, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAvailableStatus(tt.code), "status %d", tt.code)
	}
}

func TestProbeStatusCodes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr string
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "redirect not followed", status: http.StatusFound, want: true},
		{name: "permanent redirect", status: http.StatusPermanentRedirect, want: true},
		{name: "not found", status: http.StatusNotFound, want: false, wantErr: "unexpected status 404"},
		{name: "server error", status: http.StatusBadGateway, want: false, wantErr: "unexpected status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status >= 300 && tt.status < 400 {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			res := NewHTTPProber(false).Probe(context.Background(), ts.URL, time.Second)

			require.NotNil(t, res.Available)
			assert.Equal(t, tt.want, *res.Available)
			assert.Equal(t, tt.wantErr, res.Error)
		})
	}
}

func TestProbeSendsHeadWithUserAgent(t *testing.T) {
	var method, ua string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		ua = r.UserAgent()
	}))
	defer ts.Close()

	p := &HTTPProber{UserAgent: "appvis-test"}
	res := p.Probe(context.Background(), ts.URL, time.Second)

	require.NotNil(t, res.Available)
	assert.True(t, *res.Available)
	assert.Equal(t, http.MethodHead, method)
	assert.Equal(t, "appvis-test", ua)
}

func TestProbeSkipsSSH(t *testing.T) {
	for _, url := range []string{"ssh://10.0.0.5:22", "SSH://host", "ssh://"} {
		res := NewHTTPProber(false).Probe(context.Background(), url, time.Second)
		assert.Nil(t, res.Available, url)
		assert.Equal(t, ReasonNotProbed, res.Error, url)
	}
}

func TestProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	res := NewHTTPProber(false).Probe(context.Background(), ts.URL, 150*time.Millisecond)

	require.NotNil(t, res.Available)
	assert.False(t, *res.Available)
	assert.Equal(t, "timeout", res.Error)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestProbeTransportErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	tests := []struct {
		name string
		url  string
	}{
		{name: "connection refused", url: url},
		{name: "malformed url", url: "http://%zz"},
		{name: "empty url", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewHTTPProber(false).Probe(context.Background(), tt.url, time.Second)
			require.NotNil(t, res.Available)
			assert.False(t, *res.Available)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestProbeSelfSignedTLS(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	strict := NewHTTPProber(false).Probe(context.Background(), ts.URL, time.Second)
	require.NotNil(t, strict.Available)
	assert.False(t, *strict.Available)

	lenient := NewHTTPProber(true).Probe(context.Background(), ts.URL, time.Second)
	require.NotNil(t, lenient.Available)
	assert.True(t, *lenient.Available)
}
