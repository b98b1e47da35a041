package portfolio

import (
	"database/sql"
	"strings"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service orchestrates portfolio operations
type Service struct {
	db   *sql.DB
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(db *sql.DB, repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		db:   db,
		repo: repo,
		log:  log.With().Str("service", "portfolio").Logger(),
	}
}

// CreateRequest holds the inputs for creating a portfolio
type CreateRequest struct {
	UserID      string
	Name        string
	Description string
	Currency    string
	IsDefault   bool
}

// Create validates and creates a new portfolio
func (s *Service) Create(req CreateRequest) (*Portfolio, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, domain.NewValidationError("userId", "user id is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.NewValidationError("name", "portfolio name is required")
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	p := Portfolio{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Currency:    strings.ToUpper(req.Currency),
		IsDefault:   req.IsDefault,
	}

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		return s.repo.Create(tx, p)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(p.ID)
}

// Get returns a portfolio by id
func (s *Service) Get(id string) (*Portfolio, error) {
	return s.repo.GetByID(id)
}

// List returns all portfolios for a user
func (s *Service) List(userID string) ([]Portfolio, error) {
	return s.repo.ListByUser(userID)
}

// UpdateRequest holds the updatable fields of a portfolio.
// Nil pointers leave the current value unchanged.
type UpdateRequest struct {
	Name        *string
	Description *string
	Currency    *string
	IsDefault   *bool
}

// Update applies the requested changes to a portfolio
func (s *Service) Update(id string, req UpdateRequest) (*Portfolio, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, domain.NewValidationError("name", "portfolio name cannot be empty")
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	if req.Currency != nil {
		existing.Currency = strings.ToUpper(*req.Currency)
	}
	if req.IsDefault != nil {
		existing.IsDefault = *req.IsDefault
	}

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		return s.repo.Update(tx, *existing)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(id)
}

// Delete removes a portfolio and everything attached to it
func (s *Service) Delete(id string) error {
	return database.WithTransaction(s.db, func(tx *sql.Tx) error {
		return s.repo.Delete(tx, id)
	})
}
