package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
)

const maxRunBody = 64 << 10

type runResponse struct {
	Success bool   `json:"success"`
	PID     int    `json:"pid,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Run starts a command in the background and answers with its pid
// without waiting for it to finish.
func Run(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Spawner == nil {
			writeJSON(w, http.StatusForbidden, runResponse{Error: "command runner disabled"})
			return
		}

		var req runner.SpawnRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxRunBody))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, runResponse{Error: "invalid request body"})
			return
		}

		pid, err := d.Spawner.Spawn(req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, runner.ErrEmptyCommand) ||
				errors.Is(err, runner.ErrInvalidWorkdir) ||
				errors.Is(err, runner.ErrCommandNotFound) {
				status = http.StatusBadRequest
			}
			d.Logger.Warn("command rejected",
				logger.String("command", req.Command),
				logger.Error(err))
			writeJSON(w, status, runResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusAccepted, runResponse{Success: true, PID: pid})
	}
}
