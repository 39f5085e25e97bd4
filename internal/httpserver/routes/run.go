package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/handlers"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/mw"
)

func init() { Register(registerRun) }

// The UI posts to /api/test/run; both paths reach the same handler.
func registerRun(r chi.Router, d deps.Deps) {
	guarded := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(d.RateLimit),
	)
	guarded.Post("/api/run", handlers.Run(d))
	guarded.Post("/api/test/run", handlers.Run(d))
}
