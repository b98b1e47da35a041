package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all performance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios/{portfolioID}/performance", func(r chi.Router) {
		r.Post("/snapshot", h.HandleSnapshot)
		r.Get("/history", h.HandleHistory)
		r.Get("/stats", h.HandleStats)
	})
}
