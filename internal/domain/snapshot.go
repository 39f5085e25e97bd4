package domain

import "time"

// Statistics summarizes a snapshot.
type Statistics struct {
	Total    int                `json:"total" yaml:"total"`
	Running  int                `json:"running" yaml:"running"`
	Stopped  int                `json:"stopped" yaml:"stopped"`
	BySource map[SourceType]int `json:"by_source" yaml:"by_source"`

	// Flat per-backend counters, equal to the BySource entries.
	Docker int `json:"docker" yaml:"docker"`
	LXD    int `json:"lxd" yaml:"lxd"`
	Host   int `json:"host" yaml:"host"`
}

// Snapshot is one complete, immutable result of a collection pass.
// The next pass supersedes it wholesale; consumers must never diff two
// snapshots by record position.
type Snapshot struct {
	ID           string         `json:"id" yaml:"id"`
	CollectedAt  time.Time      `json:"collected_at" yaml:"collected_at"`
	HostAddress  string         `json:"host_ip" yaml:"host_ip"`
	Applications []*Application `json:"applications" yaml:"applications"`
	Statistics   Statistics     `json:"statistics" yaml:"statistics"`

	// Error is only set on degraded snapshots served when no collection
	// has ever succeeded.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FallbackHostAddress is used when the host address cannot be detected.
const FallbackHostAddress = "127.0.0.1"

// DegradedSnapshot returns an empty snapshot carrying the failure reason.
func DegradedSnapshot(err error, now time.Time) *Snapshot {
	return &Snapshot{
		CollectedAt:  now,
		HostAddress:  FallbackHostAddress,
		Applications: []*Application{},
		Statistics:   Statistics{BySource: map[SourceType]int{}},
		Error:        err.Error(),
	}
}
