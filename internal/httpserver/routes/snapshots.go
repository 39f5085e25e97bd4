package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/handlers"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/mw"
)

func init() { Register(registerSnapshots) }

func registerSnapshots(r chi.Router, d deps.Deps) {
	r.Route("/api/snapshots", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Get("/", handlers.Snapshots(d))
		r.Get("/{id}", handlers.Snapshot(d))
	})
}
