// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/portfolio"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type createPortfolioRequest struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	IsDefault   bool   `json:"isDefault"`
}

type updatePortfolioRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Currency    *string `json:"currency"`
	IsDefault   *bool   `json:"isDefault"`
}

// HandleCreate creates a new portfolio
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, h.log, domain.NewValidationError("body", "invalid JSON body"))
		return
	}

	p, err := h.service.Create(portfolio.CreateRequest{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusCreated, portfolioJSON(p))
}

// HandleList lists the portfolios of a user
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		response.Error(w, h.log, domain.NewValidationError("userId", "userId query parameter is required"))
		return
	}

	portfolios, err := h.service.List(userID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(portfolios))
	for i := range portfolios {
		result = append(result, portfolioJSON(&portfolios[i]))
	}

	response.JSON(w, h.log, http.StatusOK, result)
}

// HandleGet returns one portfolio
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(chi.URLParam(r, "portfolioID"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, portfolioJSON(p))
}

// HandleUpdate updates a portfolio's mutable fields
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, h.log, domain.NewValidationError("body", "invalid JSON body"))
		return
	}

	p, err := h.service.Update(chi.URLParam(r, "portfolioID"), portfolio.UpdateRequest{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, portfolioJSON(p))
}

// HandleDelete deletes a portfolio and its dependent rows
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "portfolioID")); err != nil {
		response.Error(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func portfolioJSON(p *portfolio.Portfolio) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"userId":      p.UserID,
		"name":        p.Name,
		"description": p.Description,
		"currency":    p.Currency,
		"isDefault":   p.IsDefault,
		"createdAt":   time.Unix(p.CreatedAt, 0).UTC().Format(time.RFC3339),
		"updatedAt":   time.Unix(p.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
}
