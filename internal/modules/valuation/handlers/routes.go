package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all valuation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios/{portfolioID}/valuation", func(r chi.Router) {
		r.Get("/", h.HandleValuate)
		r.Get("/summary", h.HandleSummary)
		r.Get("/sectors", h.HandleSectors)
	})
}
