// Package handlers provides HTTP handlers for the transaction ledger.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/ledger"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles ledger HTTP requests
type Handler struct {
	processor *ledger.Processor
	repo      *ledger.Repository
	log       zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(processor *ledger.Processor, repo *ledger.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		processor: processor,
		repo:      repo,
		log:       log.With().Str("handler", "ledger").Logger(),
	}
}

type addTransactionRequest struct {
	Symbol        string  `json:"symbol"`
	Type          string  `json:"type"`
	Quantity      float64 `json:"quantity"`
	PricePerShare float64 `json:"pricePerShare"`
	Amount        float64 `json:"amount"`
	Fees          float64 `json:"fees"`
	Date          string  `json:"date"`
	Notes         string  `json:"notes"`
	PredictionID  string  `json:"predictionId"`
}

// HandleAdd records a transaction against the portfolio's ledger
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, h.log, domain.NewValidationError("body", "invalid JSON body"))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	t, err := h.processor.AddTransaction(ledger.AddRequest{
		PortfolioID:   chi.URLParam(r, "portfolioID"),
		Symbol:        req.Symbol,
		Type:          req.Type,
		Quantity:      req.Quantity,
		PricePerShare: req.PricePerShare,
		Amount:        req.Amount,
		Fees:          req.Fees,
		Date:          date,
		Notes:         req.Notes,
		PredictionID:  req.PredictionID,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusCreated, transactionJSON(t))
}

// HandleList lists transactions, newest first, with optional filters
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.ListFilter{
		Type:   q.Get("type"),
		Symbol: q.Get("symbol"),
	}

	if from := q.Get("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			response.Error(w, h.log, err)
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			response.Error(w, h.log, err)
			return
		}
		filter.To = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			response.Error(w, h.log, domain.NewValidationError("limit", "limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}

	transactions, err := h.repo.List(chi.URLParam(r, "portfolioID"), filter)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(transactions))
	for i := range transactions {
		result = append(result, transactionJSON(&transactions[i]))
	}

	response.JSON(w, h.log, http.StatusOK, result)
}

// HandleSummary returns ledger aggregates by transaction type
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.Summary(chi.URLParam(r, "portfolioID"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"totalCount":       summary.TotalCount,
		"buyCount":         summary.BuyCount,
		"sellCount":        summary.SellCount,
		"totalBought":      summary.TotalBought,
		"totalSold":        summary.TotalSold,
		"totalDeposits":    summary.TotalDeposits,
		"totalWithdrawals": summary.TotalWithdrawals,
		"totalDividends":   summary.TotalDividends,
		"totalFees":        summary.TotalFees,
	})
}

// HandleCashBalance returns the ledger-derived cash balance
func (h *Handler) HandleCashBalance(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	cash, err := h.repo.CashBalance(portfolioID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	netDeposits, err := h.repo.NetDeposits(portfolioID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"cashBalance": cash,
		"netDeposits": netDeposits,
	})
}

// parseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates
func parseDate(val string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t, nil
	}
	return time.Time{}, domain.NewValidationError("date", "date must be RFC3339 or YYYY-MM-DD")
}

func transactionJSON(t *ledger.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"id":              t.ID,
		"portfolioId":     t.PortfolioID,
		"symbol":          t.Symbol,
		"type":            t.Type,
		"quantity":        t.Quantity,
		"pricePerShare":   t.PricePerShare,
		"fees":            t.Fees,
		"totalAmount":     t.TotalAmount,
		"transactionDate": time.Unix(t.TransactionDate, 0).UTC().Format(time.RFC3339),
		"notes":           t.Notes,
		"predictionId":    t.PredictionID,
		"createdAt":       time.Unix(t.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}
