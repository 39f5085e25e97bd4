package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/handlers"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/mw"
)

func init() { Register(registerApps) }

func registerApps(r chi.Router, d deps.Deps) {
	guarded := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
	guarded.Get("/api/apps", handlers.Apps(d))
	guarded.Get("/api/domains", handlers.Domains(d))
}
