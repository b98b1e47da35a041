// Package handlers provides HTTP handlers for the holdings cache.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/holdings"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles holdings HTTP requests
type Handler struct {
	service *holdings.Service
	log     zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(service *holdings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "holdings").Logger(),
	}
}

// HandleList returns all cached positions of a portfolio
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.GetAll(chi.URLParam(r, "portfolioID"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(positions))
	for i := range positions {
		result = append(result, holdingJSON(&positions[i]))
	}

	response.JSON(w, h.log, http.StatusOK, result)
}

// HandleGet returns one cached position
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")
	symbol := chi.URLParam(r, "symbol")

	holding, err := h.service.Get(portfolioID, symbol)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if holding == nil {
		response.Error(w, h.log, domain.NewNotFoundError(
			fmt.Sprintf("holding %s not found in portfolio %s", symbol, portfolioID)))
		return
	}

	response.JSON(w, h.log, http.StatusOK, holdingJSON(holding))
}

type targetAllocationRequest struct {
	TargetAllocation *float64 `json:"targetAllocation"`
}

// HandleSetTarget sets or clears a holding's target allocation percent
func (h *Handler) HandleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req targetAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, h.log, domain.NewValidationError("body", "invalid JSON body"))
		return
	}

	err := h.service.SetTargetAllocation(chi.URLParam(r, "portfolioID"), chi.URLParam(r, "symbol"), req.TargetAllocation)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Holdings []struct {
		Symbol           string  `json:"symbol"`
		Quantity         float64 `json:"quantity"`
		AverageCostBasis float64 `json:"averageCostBasis"`
	} `json:"holdings"`
}

// HandleImport bulk-imports holdings directly into the cache
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, h.log, domain.NewValidationError("body", "invalid JSON body"))
		return
	}

	rows := make([]holdings.ImportRow, 0, len(req.Holdings))
	for _, row := range req.Holdings {
		rows = append(rows, holdings.ImportRow{
			Symbol:           row.Symbol,
			Quantity:         row.Quantity,
			AverageCostBasis: row.AverageCostBasis,
		})
	}

	result, err := h.service.BulkImport(chi.URLParam(r, "portfolioID"), rows)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"imported": result.Imported,
		"failed":   result.Failed,
		"errors":   result.Errors,
	})
}

// HandleRepair rebuilds the holdings cache from the ledger
func (h *Handler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Repair(chi.URLParam(r, "portfolioID")); err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{"status": "repaired"})
}

func holdingJSON(h *holdings.Holding) map[string]interface{} {
	result := map[string]interface{}{
		"portfolioId":      h.PortfolioID,
		"symbol":           h.Symbol,
		"quantity":         h.Quantity,
		"averageCostBasis": h.AverageCostBasis,
		"totalCostBasis":   h.TotalCostBasis,
		"targetAllocation": h.TargetAllocation,
		"sector":           h.Sector,
		"updatedAt":        time.Unix(h.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
	if h.FirstPurchaseDate != nil {
		result["firstPurchaseDate"] = time.Unix(*h.FirstPurchaseDate, 0).UTC().Format(time.RFC3339)
	}
	if h.LastTransactionDate != nil {
		result["lastTransactionDate"] = time.Unix(*h.LastTransactionDate, 0).UTC().Format(time.RFC3339)
	}
	return result
}
