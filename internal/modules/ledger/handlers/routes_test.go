package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/holdings"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/ledger"
	internaltesting "github.com/DavaStrava/AIStockPredictions-sub002/internal/testing"
)

func newTestRouter(t *testing.T) (*chi.Mux, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t)
	log := zerolog.Nop()

	repo := ledger.NewRepository(db.Conn(), log)
	holdingsRepo := holdings.NewRepository(db.Conn(), log)
	recalculator := holdings.NewRecalculator(holdingsRepo, nil, log)
	processor := ledger.NewProcessor(db.Conn(), repo, recalculator, log)

	internaltesting.SeedPortfolio(t, db, "p1")

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		NewHandler(processor, repo, log).RegisterRoutes(r)
	})

	return router, cleanup
}

func postTransaction(t *testing.T, router *chi.Mux, portfolioID string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/portfolios/"+portfolioID+"/transactions/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleAdd_Deposit(t *testing.T) {
	router, cleanup := newTestRouter(t)
	defer cleanup()

	rec := postTransaction(t, router, "p1", map[string]interface{}{
		"type":   "DEPOSIT",
		"amount": 10000,
		"date":   "2026-08-28",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DEPOSIT", body["type"])
	assert.InDelta(t, 10000.0, body["totalAmount"].(float64), 0.001)
	assert.NotEmpty(t, body["id"])
}

func TestHandleAdd_InsufficientFundsConflict(t *testing.T) {
	router, cleanup := newTestRouter(t)
	defer cleanup()

	rec := postTransaction(t, router, "p1", map[string]interface{}{
		"type":          "BUY",
		"symbol":        "AAPL",
		"quantity":      10,
		"pricePerShare": 150,
		"date":          "2026-08-28",
	})

	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_funds", body["code"])
}

func TestHandleAdd_ValidationBadRequest(t *testing.T) {
	router, cleanup := newTestRouter(t)
	defer cleanup()

	rec := postTransaction(t, router, "p1", map[string]interface{}{
		"type":   "TRANSFER",
		"amount": 100,
		"date":   "2026-08-28",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAdd_UnknownPortfolioNotFound(t *testing.T) {
	router, cleanup := newTestRouter(t)
	defer cleanup()

	rec := postTransaction(t, router, "missing", map[string]interface{}{
		"type":   "DEPOSIT",
		"amount": 100,
		"date":   "2026-08-28",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleList(t *testing.T) {
	router, cleanup := newTestRouter(t)
	defer cleanup()

	rec := postTransaction(t, router, "p1", map[string]interface{}{
		"type":   "DEPOSIT",
		"amount": 500,
		"date":   "2026-08-28",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/transactions/", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, req)

	require.Equal(t, http.StatusOK, listRec.Code)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &body))
	assert.Len(t, body, 1)
}

func TestHandleCashBalance(t *testing.T) {
	router, cleanup := newTestRouter(t)
	defer cleanup()

	rec := postTransaction(t, router, "p1", map[string]interface{}{
		"type":   "DEPOSIT",
		"amount": 500,
		"date":   "2026-08-28",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/cash", nil)
	cashRec := httptest.NewRecorder()
	router.ServeHTTP(cashRec, req)

	require.Equal(t, http.StatusOK, cashRec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(cashRec.Body.Bytes(), &body))
	assert.InDelta(t, 500.0, body["cashBalance"].(float64), 0.001)
	assert.InDelta(t, 500.0, body["netDeposits"].(float64), 0.001)
}
