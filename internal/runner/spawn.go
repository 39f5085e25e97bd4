package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/metrics"
)

var (
	ErrEmptyCommand    = errors.New("command is required")
	ErrInvalidWorkdir  = errors.New("invalid working directory")
	ErrCommandNotFound = errors.New("command not found")
)

// SpawnRequest describes a detached process. Command is an executable, not
// a shell line; when Args is empty a whitespace separated Command is split.
type SpawnRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Workdir string   `json:"workdir,omitempty"`
}

// Spawner starts processes without waiting for them. Every started
// process is reaped by a goroutine that logs its exit.
type Spawner struct {
	log logger.Logger
}

func NewSpawner(log logger.Logger) *Spawner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Spawner{log: log}
}

// Resolve validates the request and returns the executable path and the
// argument list.
func (r SpawnRequest) Resolve() (string, []string, error) {
	name, args := strings.TrimSpace(r.Command), r.Args
	if name == "" {
		return "", nil, ErrEmptyCommand
	}
	if len(args) == 0 {
		fields := strings.Fields(name)
		name, args = fields[0], fields[1:]
	}

	if r.Workdir != "" {
		info, err := os.Stat(r.Workdir)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidWorkdir, err)
		}
		if !info.IsDir() {
			return "", nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidWorkdir, r.Workdir)
		}
	}

	path, err := r.lookPath(name)
	if err != nil {
		return "", nil, err
	}
	return path, args, nil
}

// lookPath resolves path-like commands against the working directory and
// bare names against PATH.
func (r SpawnRequest) lookPath(name string) (string, error) {
	if !strings.ContainsRune(name, filepath.Separator) {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
		}
		return path, nil
	}

	path := name
	if !filepath.IsAbs(path) && r.Workdir != "" {
		path = filepath.Join(r.Workdir, path)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}
	return path, nil
}

// Spawn starts the process and returns its pid.
func (s *Spawner) Spawn(req SpawnRequest) (int, error) {
	path, args, err := req.Resolve()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = req.Workdir
	if err := cmd.Start(); err != nil {
		metrics.SpawnedProcesses.WithLabelValues("start_failed").Inc()
		return 0, fmt.Errorf("start %s: %w", path, err)
	}

	pid := cmd.Process.Pid
	s.log.Info("process started",
		logger.String("command", path),
		logger.Strings("args", args),
		logger.String("workdir", req.Workdir),
		logger.Int("pid", pid))

	start := time.Now()
	go func() {
		err := cmd.Wait()
		fields := []logger.Field{
			logger.Int("pid", pid),
			logger.String("command", path),
			logger.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			metrics.SpawnedProcesses.WithLabelValues("failed").Inc()
			s.log.Warn("process exited with error", append(fields, logger.Error(err))...)
			return
		}
		metrics.SpawnedProcesses.WithLabelValues("succeeded").Inc()
		s.log.Info("process exited", fields...)
	}()

	return pid, nil
}
