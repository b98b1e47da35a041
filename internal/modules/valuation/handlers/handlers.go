// Package handlers provides HTTP handlers for portfolio valuation.
package handlers

import (
	"net/http"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/valuation"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles valuation HTTP requests
type Handler struct {
	service *valuation.Service
	log     zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(service *valuation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// HandleValuate returns the live valuation of every holding
func (h *Handler) HandleValuate(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Valuate(r.Context(), chi.URLParam(r, "portfolioID"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(records))
	for i := range records {
		result = append(result, recordJSON(&records[i]))
	}

	response.JSON(w, h.log, http.StatusOK, result)
}

// HandleSummary returns the portfolio-level valuation roll-up
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summarize(r.Context(), chi.URLParam(r, "portfolioID"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"portfolioId":        summary.PortfolioID,
		"cashBalance":        summary.CashBalance,
		"holdingsValue":      summary.HoldingsValue,
		"totalEquity":        summary.TotalEquity,
		"dayChange":          summary.DayChange,
		"dayChangePercent":   summary.DayChangePercent,
		"netDeposits":        summary.NetDeposits,
		"totalReturn":        summary.TotalReturn,
		"totalReturnPercent": summary.TotalReturnPercent,
		"dailyAlpha":         summary.DailyAlpha,
		"holdingCount":       summary.HoldingCount,
	})
}

// HandleSectors returns the sector allocation breakdown
func (h *Handler) HandleSectors(w http.ResponseWriter, r *http.Request) {
	slices, err := h.service.SectorAllocation(r.Context(), chi.URLParam(r, "portfolioID"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(slices))
	for _, slice := range slices {
		result = append(result, map[string]interface{}{
			"sector":      slice.Sector,
			"marketValue": slice.MarketValue,
			"weight":      slice.Weight,
			"holdings":    slice.Holdings,
		})
	}

	response.JSON(w, h.log, http.StatusOK, result)
}

func recordJSON(rec *valuation.Record) map[string]interface{} {
	result := map[string]interface{}{
		"symbol":                rec.Symbol,
		"name":                  rec.Name,
		"sector":                rec.Sector,
		"quantity":              rec.Quantity,
		"averageCostBasis":      rec.AverageCostBasis,
		"totalCostBasis":        rec.TotalCostBasis,
		"price":                 rec.Price,
		"priceStatus":           rec.PriceStatus,
		"marketValue":           rec.MarketValue,
		"weight":                rec.Weight,
		"targetAllocation":      rec.TargetAllocation,
		"drift":                 rec.Drift,
		"dayChange":             rec.DayChange,
		"dayChangePercent":      rec.DayChangePercent,
		"unrealizedGain":        rec.UnrealizedGain,
		"unrealizedGainPercent": rec.UnrealizedGainPercent,
	}
	if rec.PriceStatusReason != "" {
		result["priceStatusReason"] = rec.PriceStatusReason
	}
	return result
}
