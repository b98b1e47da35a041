// Package handlers provides HTTP handlers for performance snapshots.
package handlers

import (
	"net/http"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/performance"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles performance HTTP requests
type Handler struct {
	recorder *performance.Recorder
	log      zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(recorder *performance.Recorder, log zerolog.Logger) *Handler {
	return &Handler{
		recorder: recorder,
		log:      log.With().Str("handler", "performance").Logger(),
	}
}

// HandleSnapshot records today's snapshot on demand
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.recorder.RecordSnapshot(r.Context(), chi.URLParam(r, "portfolioID"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusCreated, snapshotJSON(snapshot))
}

// HandleHistory returns the snapshot series, oldest first
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	snapshots, err := h.recorder.History(chi.URLParam(r, "portfolioID"), q.Get("from"), q.Get("to"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(snapshots))
	for i := range snapshots {
		result = append(result, snapshotJSON(&snapshots[i]))
	}

	response.JSON(w, h.log, http.StatusOK, result)
}

// HandleStats returns return statistics over the snapshot series
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	snapshots, err := h.recorder.History(chi.URLParam(r, "portfolioID"), q.Get("from"), q.Get("to"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	stats := performance.ComputeStats(snapshots)

	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"days":                    stats.Days,
		"meanDailyReturnPct":      stats.MeanDailyReturnPct,
		"dailyVolatilityPct":      stats.DailyVolatilityPct,
		"annualizedVolatilityPct": stats.AnnualizedVolatilityPct,
		"sharpeRatio":             stats.SharpeRatio,
		"bestDayPct":              stats.BestDayPct,
		"worstDayPct":             stats.WorstDayPct,
		"maxDrawdownPct":          stats.MaxDrawdownPct,
	})
}

func snapshotJSON(s *performance.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"portfolioId":         s.PortfolioID,
		"date":                s.Date,
		"totalEquity":         s.TotalEquity,
		"cashBalance":         s.CashBalance,
		"holdingsValue":       s.HoldingsValue,
		"dailyReturnPct":      s.DailyReturnPct,
		"cumulativeReturnPct": s.CumulativeReturnPct,
		"netDeposits":         s.NetDeposits,
		"sp500Close":          s.SP500Close,
		"nasdaqClose":         s.NasdaqClose,
	}
}
