package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
)

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"appvis.local", "appvis.local", true},
		{"appvis.local:5050", "appvis.local", true},
		{"appvis.local:5050", "appvis.local:5050", true},
		{"appvis.local:8080", "appvis.local:5050", false},
		{"a.example.com", "*.example.com", true},
		{"a.example.com:443", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil.com", "appvis.local", false},
	}

	for _, tt := range tests {
		t.Run(tt.host+"_"+tt.pattern, func(t *testing.T) {
			if got := matchHost(tt.host, tt.pattern); got != tt.want {
				t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestLimiterAllow(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60})
	now := time.Now()

	if ok, rem, _ := l.allow("1.1.1.1", now); !ok || rem != 1 {
		t.Fatalf("first request: ok=%v remaining=%d", ok, rem)
	}
	if ok, _, _ := l.allow("1.1.1.1", now); !ok {
		t.Fatal("second request should use the burst")
	}
	ok, _, retry := l.allow("1.1.1.1", now)
	if ok {
		t.Fatal("third request should be limited")
	}
	if retry != 1 {
		t.Errorf("retry = %d, want 1", retry)
	}

	if ok, _, _ := l.allow("2.2.2.2", now); !ok {
		t.Error("other clients have their own bucket")
	}
	if ok, _, _ := l.allow("1.1.1.1", now.Add(time.Second)); !ok {
		t.Error("a token refills after one second")
	}
}

func TestLimiterSweepsIdleClients(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, MaxEntries: 2, IdleTTL: time.Minute})
	now := time.Now()

	l.allow("a", now)
	l.allow("b", now)
	l.allow("c", now.Add(2*time.Minute))

	if _, ok := l.clients["a"]; ok {
		t.Error("idle client a should have been swept")
	}
	if _, ok := l.clients["c"]; !ok {
		t.Error("client c should be tracked")
	}
}

func TestRateLimitHeaders(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	if first.Code != http.StatusNoContent {
		t.Fatalf("first = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("limit header = %q", first.Header().Get("X-RateLimit-Limit"))
	}

	second := do()
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name       string
		allowed    []string
		remote     string
		xff        string
		trustProxy bool
		want       int
	}{
		{name: "passthrough", allowed: nil, remote: "8.8.8.8:1", want: http.StatusOK},
		{name: "cidr match", allowed: []string{"10.0.0.0/8"}, remote: "10.2.3.4:1", want: http.StatusOK},
		{name: "exact ip", allowed: []string{"192.168.1.5"}, remote: "192.168.1.5:1", want: http.StatusOK},
		{name: "rejected", allowed: []string{"10.0.0.0/8"}, remote: "8.8.8.8:1", want: http.StatusForbidden},
		{name: "xff ignored without trust", allowed: []string{"10.0.0.0/8"}, remote: "8.8.8.8:1", xff: "10.0.0.1", want: http.StatusForbidden},
		{name: "xff trusted", allowed: []string{"10.0.0.0/8"}, remote: "127.0.0.1:1", xff: "10.0.0.1, 1.1.1.1", trustProxy: true, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.NewNop())(ok)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
