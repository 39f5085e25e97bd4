package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Entries     *int   `json:"entries,omitempty"`
	LastCollect string `json:"last_collection,omitempty"`
	Fresh       *bool  `json:"fresh,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"collector": checkCollector(d),
			"redis":     checkRedis(r.Context(), d),
			"domains":   checkDomains(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// Nothing to serve
	if c, ok := components["collector"]; ok && !c.OK {
		return "critical"
	}

	// Redis down = no history, no restore after restart
	if rd, ok := components["redis"]; ok && !rd.OK && rd.Mode != "disabled" {
		return "degraded"
	}

	return "optimal"
}

func checkCollector(d deps.Deps) componentStatus {
	st := d.Snapshots.Status()
	last := "never"
	if !st.FetchedAt.IsZero() {
		last = st.FetchedAt.Format("2006-01-02 15:04:05")
	}
	fresh := st.Fresh
	return componentStatus{
		OK:          st.HasSnapshot,
		LastCollect: last,
		Fresh:       &fresh,
		Error:       st.LastError,
	}
}

func checkDomains(d deps.Deps) componentStatus {
	n := 0
	if d.Domains != nil {
		n = d.Domains.Len()
	}
	return componentStatus{OK: true, Entries: &n}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.History == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "snapshot-history-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.History.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "snapshot-history-unavailable",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "snapshot-history-enabled",
	}
}
