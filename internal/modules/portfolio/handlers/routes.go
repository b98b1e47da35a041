package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{portfolioID}", h.HandleGet)
		r.Put("/{portfolioID}", h.HandleUpdate)
		r.Delete("/{portfolioID}", h.HandleDelete)
	})
}
