package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	redisstore "github.com/CDTO-DENKART/app-visualizer/internal/store/redis"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type snapshotsResponse struct {
	Snapshots []redisstore.Summary `json:"snapshots"`
}

// Snapshots lists the persisted snapshot history, newest first.
func Snapshots(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.History == nil {
			writeError(w, http.StatusNotFound, "snapshot history disabled")
			return
		}

		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		list, err := d.History.History(r.Context(), limit)
		if err != nil {
			d.Logger.Warn("failed to read snapshot history", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "snapshot history unavailable")
			return
		}
		if list == nil {
			list = []redisstore.Summary{}
		}
		writeJSON(w, http.StatusOK, snapshotsResponse{Snapshots: list})
	}
}

// Snapshot serves one persisted snapshot by id.
func Snapshot(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.History == nil {
			writeError(w, http.StatusNotFound, "snapshot history disabled")
			return
		}

		id := chi.URLParam(r, "id")
		snap, err := d.History.Snapshot(r.Context(), id)
		switch {
		case errors.Is(err, redisstore.ErrNotFound):
			writeError(w, http.StatusNotFound, "snapshot not found")
		case err != nil:
			d.Logger.Warn("failed to read snapshot",
				logger.String("snapshot", id),
				logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "snapshot history unavailable")
		default:
			writeJSON(w, http.StatusOK, snap)
		}
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxHistoryLimit), nil
}
