package handlers

import (
	"net/http"

	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
)

// Apps serves the current snapshot. Backend failures never surface as an
// HTTP error: the cache answers with the last good or a degraded snapshot.
func Apps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Snapshots.Get(r.Context()))
	}
}
