package runner

import (
	"context"
	"sync"
	"time"
)

// Scripted replays canned output keyed by the exact command string.
// Unknown commands return "", like a missing tool on the host.
type Scripted struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   []string
}

// NewScripted builds a Scripted runner from command -> output pairs.
func NewScripted(outputs map[string]string) *Scripted {
	copied := make(map[string]string, len(outputs))
	for k, v := range outputs {
		copied[k] = v
	}
	return &Scripted{outputs: copied}
}

// Set registers or replaces the output of one command.
func (s *Scripted) Set(command, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[command] = output
}

// Run returns the canned output for command.
func (s *Scripted) Run(_ context.Context, command string, _ time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, command)
	return s.outputs[command]
}

// Calls returns every command received, in order.
func (s *Scripted) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
