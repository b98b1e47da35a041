package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all holdings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios/{portfolioID}/holdings", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/import", h.HandleImport)
		r.Post("/repair", h.HandleRepair)
		r.Get("/{symbol}", h.HandleGet)
		r.Put("/{symbol}/target", h.HandleSetTarget)
	})
}
