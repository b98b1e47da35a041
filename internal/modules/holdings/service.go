package holdings

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/rs/zerolog"
)

// LedgerSymbols lists the distinct traded symbols in a portfolio's ledger.
// Defined here to avoid an import cycle with the ledger package.
type LedgerSymbols interface {
	Symbols(portfolioID string) ([]string, error)
}

// Service provides holdings operations that sit above the repository:
// target allocations, bulk import, and ledger reconciliation.
type Service struct {
	db           *sql.DB
	repo         *Repository
	recalculator *Recalculator
	ledger       LedgerSymbols
	log          zerolog.Logger
}

// NewService creates a new holdings service
func NewService(db *sql.DB, repo *Repository, recalculator *Recalculator, ledger LedgerSymbols, log zerolog.Logger) *Service {
	return &Service{
		db:           db,
		repo:         repo,
		recalculator: recalculator,
		ledger:       ledger,
		log:          log.With().Str("service", "holdings").Logger(),
	}
}

// GetAll returns all holdings for a portfolio
func (s *Service) GetAll(portfolioID string) ([]Holding, error) {
	return s.repo.GetAll(portfolioID)
}

// Get returns a single holding
func (s *Service) Get(portfolioID, symbol string) (*Holding, error) {
	return s.repo.Get(portfolioID, symbol)
}

// SetTargetAllocation sets or clears a holding's target allocation percent
func (s *Service) SetTargetAllocation(portfolioID, symbol string, target *float64) error {
	if target != nil && (*target < 0 || *target > 100) {
		return domain.NewValidationError("targetAllocation", "target allocation must be between 0 and 100")
	}
	return s.repo.UpdateTargetAllocation(portfolioID, symbol, target)
}

// ImportRow is one row of a bulk holdings import
type ImportRow struct {
	Symbol           string
	Quantity         float64
	AverageCostBasis float64
}

// ImportResult reports per-row success/failure counts for a bulk import
type ImportResult struct {
	Imported int
	Failed   int
	Errors   []string
}

// BulkImport writes holdings directly into the cache, bypassing the
// transaction ledger. Rows are validated individually; a bad row is counted
// and skipped without aborting the rest.
func (s *Service) BulkImport(portfolioID string, rows []ImportRow) (*ImportResult, error) {
	if err := s.portfolioExists(portfolioID); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	now := time.Now().Unix()

	for _, row := range rows {
		symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))

		if err := validateImportRow(symbol, row); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		h := Holding{
			PortfolioID:         portfolioID,
			Symbol:              symbol,
			Quantity:            row.Quantity,
			AverageCostBasis:    row.AverageCostBasis,
			TotalCostBasis:      row.Quantity * row.AverageCostBasis,
			Sector:              s.recalculator.lookupSector(symbol),
			LastTransactionDate: &now,
		}

		err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
			return s.repo.UpsertTx(tx, h)
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", symbol, err))
			continue
		}

		result.Imported++
	}

	s.log.Info().
		Str("portfolio_id", portfolioID).
		Int("imported", result.Imported).
		Int("failed", result.Failed).
		Msg("Bulk holdings import completed")

	return result, nil
}

func validateImportRow(symbol string, row ImportRow) error {
	if symbol == "" {
		return domain.NewValidationError("symbol", "symbol is required")
	}
	if row.Quantity <= 0 {
		return domain.NewValidationError("quantity", fmt.Sprintf("%s: quantity must be positive", symbol))
	}
	if row.AverageCostBasis < 0 {
		return domain.NewValidationError("averageCostBasis", fmt.Sprintf("%s: cost basis cannot be negative", symbol))
	}
	return nil
}

// Repair re-derives the entire holdings cache of a portfolio from its ledger.
// Safe to run at any time; the recomputation is idempotent.
func (s *Service) Repair(portfolioID string) error {
	if err := s.portfolioExists(portfolioID); err != nil {
		return err
	}

	symbols, err := s.ledger.Symbols(portfolioID)
	if err != nil {
		return err
	}

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		for _, symbol := range symbols {
			if err := s.recalculator.RecalculateTx(tx, portfolioID, symbol); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("portfolio_id", portfolioID).Int("symbols", len(symbols)).Msg("Holdings cache rebuilt from ledger")
	return nil
}

func (s *Service) portfolioExists(portfolioID string) error {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM portfolios WHERE id = ?`, portfolioID).Scan(&one)
	if err == sql.ErrNoRows {
		return domain.NewNotFoundError(fmt.Sprintf("portfolio %s not found", portfolioID))
	}
	if err != nil {
		return fmt.Errorf("failed to check portfolio existence: %w", err)
	}
	return nil
}
