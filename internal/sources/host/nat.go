package host

import (
	"context"
	"regexp"
	"strings"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/sources"
)

// NATCommand dumps the DNAT rules applied to incoming traffic. It needs
// privileges; without them the table is simply empty.
const NATCommand = "iptables -t nat -S PREROUTING"

// NATTable maps a host port to the firewall rule forwarding it.
type NATTable map[string]domain.NATRoute

// Lookup returns the route for port, or nil.
func (t NATTable) Lookup(port string) *domain.NATRoute {
	if port == "" {
		return nil
	}
	r, ok := t[port]
	if !ok {
		return nil
	}
	return &r
}

var (
	dportPattern = regexp.MustCompile(`--dport\s+(\d+)`)
	destPattern  = regexp.MustCompile(`--to-destination\s+(\S+)`)
)

// ParseNAT reads `iptables -S` output. Only "-j DNAT" rules with a single
// destination port are kept; the first rule for a port wins.
func ParseNAT(out string) NATTable {
	table := NATTable{}
	for _, line := range sources.Lines(out) {
		if !strings.HasPrefix(line, "-A ") || !strings.Contains(line, "-j DNAT") {
			continue
		}
		port := dportPattern.FindStringSubmatch(line)
		dest := destPattern.FindStringSubmatch(line)
		if port == nil || dest == nil {
			continue
		}
		if _, dup := table[port[1]]; dup {
			continue
		}
		table[port[1]] = domain.NATRoute{Type: "DNAT", Destination: dest[1]}
	}
	return table
}

// NAT reads the host's DNAT table.
func (c *Collector) NAT(ctx context.Context) NATTable {
	return ParseNAT(c.cfg.Run(ctx, NATCommand))
}
