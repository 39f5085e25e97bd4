// Package runner executes external commands for the backend collectors.
//
// Absence of output is the normal "feature not present" signal for every
// caller, so Run never reports an error: a missing tool, a non-zero exit
// status, a timeout and a spawn failure all come back as "".
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/metrics"
)

// DefaultTimeout bounds a command when the caller passes no timeout.
const DefaultTimeout = 5 * time.Second

// Runner abstracts shell command execution for the collectors.
type Runner interface {
	Run(ctx context.Context, command string, timeout time.Duration) string
}

// Shell runs commands through the host shell.
type Shell struct {
	// Path is the shell binary, "sh" when empty.
	Path string
	// WaitDelay bounds how long Run waits for inherited pipes after the
	// process was killed.
	WaitDelay time.Duration

	log logger.Logger
}

// NewShell builds a Shell runner logging failures at debug level.
func NewShell(log logger.Logger) *Shell {
	return &Shell{Path: "sh", WaitDelay: time.Second, log: log}
}

// Run executes command via "sh -c" and returns its trimmed stdout.
func (s *Shell) Run(ctx context.Context, command string, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shell := s.Path
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.WaitDelay = s.WaitDelay

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		return strings.TrimSpace(stdout.String())
	}

	metrics.CommandFailures.Inc()
	if s.log != nil {
		s.log.Debug("command failed",
			logger.String("command", command),
			logger.String("reason", failureReason(ctx, err)),
			logger.Duration("elapsed", time.Since(start)))
	}
	return ""
}

func failureReason(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "exit status " + strconv.Itoa(exitErr.ExitCode())
	}
	return err.Error()
}
