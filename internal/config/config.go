package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
)

type Config struct {
	ListenPort      string        // ex: ":5050"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout, must cover one collection pass

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Collection
	DomainsFile      string              // optional domain directory yaml, empty = built-in
	RulesFile        string              // optional rule tables yaml, empty = built-in
	HostAddress      string              // pins the host address, empty = detect with `hostname -I`
	Backends         []domain.SourceType // enabled backends, in emission order
	CacheTTL         time.Duration       // snapshot freshness window (default: 10s)
	CommandTimeout   time.Duration       // per external command (default: 5s)
	ProbeTimeout     time.Duration       // per reachability probe (default: 3s)
	ProbeWorkers     int                 // concurrent probes (default: 8)
	ProbeInsecureTLS bool                // accept self-signed certificates when probing
	RefreshInterval  time.Duration       // background refresh, 0 = only on demand

	// Command runner endpoint
	RunnerEnabled        bool // POST /api/run, off by default
	RunnerBurst          int  // requests allowed in a burst per client
	RunnerRefillPerMin   int  // tokens refilled per client per minute
	RunnerMaxRateEntries int  // tracked clients before a forced sweep

	// Redis (optional, empty address disables persistence)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	SnapshotTTL         time.Duration // retention of per-id snapshots in redis
	SnapshotHistory     int           // length of the snapshot history list

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("APPVIS_LISTEN_PORT", ":5050"),
		ShutdownTimeout: mustDuration("APPVIS_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("APPVIS_REQUEST_TIMEOUT", 60*time.Second),

		// Logging
		LogLevel:  getenv("APPVIS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("APPVIS_PRETTY_LOG", false),

		// Collection
		DomainsFile:      getenv("APPVIS_DOMAINS_FILE", ""),
		RulesFile:        getenv("APPVIS_RULES_FILE", ""),
		HostAddress:      getenv("APPVIS_HOST_ADDRESS", ""),
		Backends:         parseBackends(getenv("APPVIS_BACKENDS", "")),
		CacheTTL:         mustDuration("APPVIS_CACHE_TTL", 10*time.Second),
		CommandTimeout:   mustDuration("APPVIS_COMMAND_TIMEOUT", 5*time.Second),
		ProbeTimeout:     mustDuration("APPVIS_PROBE_TIMEOUT", 3*time.Second),
		ProbeWorkers:     getenvInt("APPVIS_PROBE_WORKERS", 8),
		ProbeInsecureTLS: mustBool("APPVIS_PROBE_INSECURE_TLS", true),
		RefreshInterval:  mustDuration("APPVIS_REFRESH_INTERVAL", 0),

		// Command runner
		RunnerEnabled:        mustBool("APPVIS_RUNNER_ENABLED", false),
		RunnerBurst:          getenvInt("APPVIS_RUNNER_BURST", 5),
		RunnerRefillPerMin:   getenvInt("APPVIS_RUNNER_REFILL_PER_MIN", 10),
		RunnerMaxRateEntries: getenvInt("APPVIS_RUNNER_MAX_RATE_ENTRIES", 1024),

		// Redis settings
		RedisAddr:           getenv("APPVIS_REDIS_ADDR", ""),
		RedisUser:           getenv("APPVIS_REDIS_USERNAME", ""),
		RedisPassword:       getenv("APPVIS_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("APPVIS_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		SnapshotTTL:         mustDuration("APPVIS_SNAPSHOT_TTL", 7*24*time.Hour),
		SnapshotHistory:     getenvInt("APPVIS_SNAPSHOT_HISTORY", 100),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("APPVIS_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("APPVIS_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("APPVIS_TRUST_PROXY", false),
	}

	if cfg.ProbeWorkers < 1 {
		panic(fmt.Sprintf("❌ FATAL: APPVIS_PROBE_WORKERS must be >= 1, got %d", cfg.ProbeWorkers))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

// parseBackends turns "lxd, docker" into source types in emission order
// (docker, lxd, host). Unknown names are fatal; an empty value enables
// every backend.
func parseBackends(s string) []domain.SourceType {
	names := splitAndTrim(s)
	if len(names) == 0 {
		return append([]domain.SourceType(nil), domain.Sources...)
	}

	enabled := make(map[domain.SourceType]bool, len(names))
	for _, n := range names {
		src := domain.SourceType(strings.ToLower(n))
		if !isKnownSource(src) {
			panic(fmt.Sprintf("❌ FATAL: unknown backend %q in APPVIS_BACKENDS", n))
		}
		enabled[src] = true
	}

	out := make([]domain.SourceType, 0, len(enabled))
	for _, src := range domain.Sources {
		if enabled[src] {
			out = append(out, src)
		}
	}
	return out
}

func isKnownSource(src domain.SourceType) bool {
	for _, s := range domain.Sources {
		if s == src {
			return true
		}
	}
	return false
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
