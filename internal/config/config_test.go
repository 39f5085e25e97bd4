package config

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
)

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseBackends(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expected  []domain.SourceType
		wantPanic bool
	}{
		{
			name:     "empty enables all",
			value:    "",
			expected: []domain.SourceType{domain.SourceDocker, domain.SourceLXD, domain.SourceHost},
		},
		{
			name:     "emission order is fixed",
			value:    "host, Docker",
			expected: []domain.SourceType{domain.SourceDocker, domain.SourceHost},
		},
		{
			name:     "duplicates collapse",
			value:    "lxd,lxd",
			expected: []domain.SourceType{domain.SourceLXD},
		},
		{
			name:      "unknown backend",
			value:     "podman",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("parseBackends() should have panicked")
					}
				}()
			}

			result := parseBackends(tt.value)
			if !tt.wantPanic && !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("parseBackends() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APPVIS_LISTEN_PORT", "APPVIS_CACHE_TTL", "APPVIS_PROBE_WORKERS",
		"APPVIS_REFRESH_INTERVAL", "APPVIS_REDIS_ADDR", "APPVIS_RUNNER_ENABLED",
		"APPVIS_BACKENDS", "APPVIS_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ListenPort != ":5050" {
		t.Errorf("ListenPort = %q, want :5050", cfg.ListenPort)
	}
	if cfg.CacheTTL != 10*time.Second {
		t.Errorf("CacheTTL = %v, want 10s", cfg.CacheTTL)
	}
	if cfg.CommandTimeout != 5*time.Second {
		t.Errorf("CommandTimeout = %v, want 5s", cfg.CommandTimeout)
	}
	if cfg.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want 3s", cfg.ProbeTimeout)
	}
	if cfg.ProbeWorkers != 8 {
		t.Errorf("ProbeWorkers = %d, want 8", cfg.ProbeWorkers)
	}
	if cfg.RefreshInterval != 0 {
		t.Errorf("RefreshInterval = %v, want 0", cfg.RefreshInterval)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
	if cfg.RunnerEnabled {
		t.Error("RunnerEnabled should default to false")
	}
	if len(cfg.Backends) != 3 {
		t.Errorf("Backends = %v, want all three", cfg.Backends)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APPVIS_LISTEN_PORT", ":9000")
	t.Setenv("APPVIS_CACHE_TTL", "30s")
	t.Setenv("APPVIS_PROBE_WORKERS", "2")
	t.Setenv("APPVIS_BACKENDS", "lxd")
	t.Setenv("APPVIS_ALLOWED_CIDRS", "10.0.0.0/8, '192.168.1.5'")
	t.Setenv("APPVIS_RUNNER_ENABLED", "true")
	t.Setenv("APPVIS_LOG_LEVEL", "info")

	cfg := Load()

	if cfg.ListenPort != ":9000" {
		t.Errorf("ListenPort = %q", cfg.ListenPort)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.ProbeWorkers != 2 {
		t.Errorf("ProbeWorkers = %d", cfg.ProbeWorkers)
	}
	if !reflect.DeepEqual(cfg.Backends, []domain.SourceType{domain.SourceLXD}) {
		t.Errorf("Backends = %v", cfg.Backends)
	}
	if !reflect.DeepEqual(cfg.AllowedCIDRS, []string{"10.0.0.0/8", "192.168.1.5"}) {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if !cfg.RunnerEnabled {
		t.Error("RunnerEnabled should be true")
	}
}

func TestLoadRejectsZeroWorkers(t *testing.T) {
	t.Setenv("APPVIS_PROBE_WORKERS", "0")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()
	Load()
}
