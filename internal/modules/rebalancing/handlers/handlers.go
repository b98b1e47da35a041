// Package handlers provides HTTP handlers for rebalancing suggestions.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/rebalancing"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	advisor *rebalancing.Advisor
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(advisor *rebalancing.Advisor, log zerolog.Logger) *Handler {
	return &Handler{
		advisor: advisor,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandleSuggest returns advisory trades toward the target allocations
func (h *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			response.Error(w, h.log, domain.NewValidationError("threshold", "threshold must be a non-negative number"))
			return
		}
		threshold = parsed
	}

	suggestions, err := h.advisor.Suggest(r.Context(), chi.URLParam(r, "portfolioID"), threshold)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(suggestions))
	for _, s := range suggestions {
		result = append(result, map[string]interface{}{
			"symbol":        s.Symbol,
			"action":        s.Action,
			"currentWeight": s.CurrentWeight,
			"targetWeight":  s.TargetWeight,
			"drift":         s.Drift,
			"currentValue":  s.CurrentValue,
			"targetValue":   s.TargetValue,
			"tradeValue":    s.TradeValue,
			"shares":        s.Shares,
			"price":         s.Price,
			"priceStatus":   s.PriceStatus,
		})
	}

	response.JSON(w, h.log, http.StatusOK, result)
}
