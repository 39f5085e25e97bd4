package handlers

import (
	"net/http"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
)

type domainsResponse struct {
	Active  []domain.DomainBinding `json:"active"`
	Planned []domain.DomainBinding `json:"planned"`
}

func Domains(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := domainsResponse{
			Active:  []domain.DomainBinding{},
			Planned: []domain.DomainBinding{},
		}
		if d.Domains != nil {
			resp.Active = d.Domains.List(domain.BindingActive)
			resp.Planned = d.Domains.List(domain.BindingPlanned)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
