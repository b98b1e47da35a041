package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios/{portfolioID}/transactions", func(r chi.Router) {
		r.Post("/", h.HandleAdd)
		r.Get("/", h.HandleList)
		r.Get("/summary", h.HandleSummary)
	})
	r.Get("/portfolios/{portfolioID}/cash", h.HandleCashBalance)
}
