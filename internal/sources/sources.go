// Package sources defines the backend collector contract and the parsing
// helpers shared by the docker, lxd and host collectors.
package sources

import (
	"context"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
)

// Collector turns one backend's command output into normalized records.
// A missing tool or unparsable output yields zero records, never an error.
type Collector interface {
	Source() domain.SourceType
	Collect(ctx context.Context, hostAddress string) []*domain.Application
}

// Config is shared by every collector.
type Config struct {
	Runner runner.Runner
	Rules  *rules.Rules
	// Timeout bounds each external command.
	Timeout time.Duration
	Log     logger.Logger
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Rules == nil {
		c.Rules = rules.Default()
	}
	if c.Timeout <= 0 {
		c.Timeout = runner.DefaultTimeout
	}
	if c.Log == nil {
		c.Log = logger.NewNop()
	}
	return c
}

// Run executes command with the configured timeout.
func (c Config) Run(ctx context.Context, command string) string {
	return c.Runner.Run(ctx, command, c.Timeout)
}

// Lines splits command output into trimmed, non-empty lines.
func Lines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

var safeArg = regexp.MustCompile(`^[A-Za-z0-9_.:/@%+=-]+$`)

// Quote returns s ready to be placed in a sh command line. Plain
// identifiers are returned unchanged.
func Quote(s string) string {
	if safeArg.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// URL builds "<protocol>://<host>:<port>", bracketing IPv6 hosts.
func URL(protocol domain.Protocol, host, port string) string {
	if protocol == "" {
		protocol = domain.ProtocolHTTP
	}
	return string(protocol) + "://" + net.JoinHostPort(host, port)
}

// Listener is one listening TCP socket reported by ss.
type Listener struct {
	Port string
	// Process is the keyword matched on the socket line, if any.
	Process string
}

var portPattern = regexp.MustCompile(`:(\d+)`)

// ParseListening extracts listening ports from `ss -tlnp` output in order
// of first appearance. Lines without LISTEN or without a port are skipped.
func ParseListening(out string, process rules.KeywordTable) []Listener {
	var (
		listeners []Listener
		seen      = map[string]bool{}
	)
	for _, line := range Lines(out) {
		if !strings.Contains(line, "LISTEN") || !strings.Contains(line, ":") {
			continue
		}
		port := localPort(line)
		if port == "" || seen[port] {
			continue
		}
		seen[port] = true

		proc, _ := process.Find(rules.Input{rules.FieldLine: line})
		listeners = append(listeners, Listener{Port: port, Process: proc})
	}
	return listeners
}

// localPort reads the port of the "Local Address:Port" column, falling
// back to the first ":<digits>" on the line for non-tabular output.
func localPort(line string) string {
	fields := strings.Fields(line)
	if len(fields) >= 4 && fields[0] == "LISTEN" {
		local := fields[3]
		if i := strings.LastIndex(local, ":"); i >= 0 && isDigits(local[i+1:]) {
			return local[i+1:]
		}
	}
	if m := portPattern.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Ports returns the ports of ls as a set.
func Ports(ls []Listener) map[string]Listener {
	out := make(map[string]Listener, len(ls))
	for _, l := range ls {
		out[l.Port] = l
	}
	return out
}
