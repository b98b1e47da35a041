// Package holdings maintains the holdings cache: a materialized view of
// current positions derived from the transaction ledger. Callers never write
// it directly; the recalculator owns every row.
package holdings

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/rs/zerolog"
)

// Holding is one cached position row
type Holding struct {
	PortfolioID         string
	Symbol              string
	Quantity            float64
	AverageCostBasis    float64
	TotalCostBasis      float64
	TargetAllocation    *float64 // percent of portfolio; nil means no target set
	Sector              string
	FirstPurchaseDate   *int64
	LastTransactionDate *int64
	UpdatedAt           int64
}

// Repository handles holdings cache database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new holdings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

const holdingColumns = `portfolio_id, symbol, quantity, average_cost_basis, total_cost_basis,
	target_allocation, sector, first_purchase_date, last_transaction_date, updated_at`

// GetAll returns all holdings for a portfolio, ordered by symbol
func (r *Repository) GetAll(portfolioID string) ([]Holding, error) {
	rows, err := r.db.Query(`
		SELECT `+holdingColumns+` FROM holdings
		WHERE portfolio_id = ? ORDER BY symbol`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]Holding, 0)
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, *h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// Get returns a single holding, or nil when the position does not exist
func (r *Repository) Get(portfolioID, symbol string) (*Holding, error) {
	row := r.db.QueryRow(`
		SELECT `+holdingColumns+` FROM holdings
		WHERE portfolio_id = ? AND symbol = ?`, portfolioID, strings.ToUpper(symbol))

	h, err := scanHolding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query holding: %w", err)
	}
	return h, nil
}

// UpsertTx writes a recomputed holding row inside the caller's transaction.
// The target allocation is caller-configured, not derived, so the upsert
// leaves it untouched; an unknown sector never overwrites a known one.
func (r *Repository) UpsertTx(tx *sql.Tx, h Holding) error {
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	h.UpdatedAt = time.Now().Unix()

	_, err := tx.Exec(`
		INSERT INTO holdings (portfolio_id, symbol, quantity, average_cost_basis, total_cost_basis,
			sector, first_purchase_date, last_transaction_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, symbol) DO UPDATE SET
			quantity = excluded.quantity,
			average_cost_basis = excluded.average_cost_basis,
			total_cost_basis = excluded.total_cost_basis,
			sector = COALESCE(excluded.sector, holdings.sector),
			first_purchase_date = excluded.first_purchase_date,
			last_transaction_date = excluded.last_transaction_date,
			updated_at = excluded.updated_at`,
		h.PortfolioID, h.Symbol, h.Quantity, h.AverageCostBasis, h.TotalCostBasis,
		nullString(h.Sector), nullInt64Ptr(h.FirstPurchaseDate), nullInt64Ptr(h.LastTransactionDate), h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// DeleteTx removes a holding row inside the caller's transaction
func (r *Repository) DeleteTx(tx *sql.Tx, portfolioID, symbol string) error {
	_, err := tx.Exec(`DELETE FROM holdings WHERE portfolio_id = ? AND symbol = ?`,
		portfolioID, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

// UpdateTargetAllocation sets or clears the target allocation percent
func (r *Repository) UpdateTargetAllocation(portfolioID, symbol string, target *float64) error {
	result, err := r.db.Exec(`
		UPDATE holdings SET target_allocation = ?, updated_at = ?
		WHERE portfolio_id = ? AND symbol = ?`,
		nullFloat64Ptr(target), time.Now().Unix(), portfolioID, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("failed to update target allocation: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("holding %s not found in portfolio %s", symbol, portfolioID))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(row rowScanner) (*Holding, error) {
	var h Holding
	var targetAllocation sql.NullFloat64
	var sector sql.NullString
	var firstPurchase, lastTransaction sql.NullInt64

	err := row.Scan(&h.PortfolioID, &h.Symbol, &h.Quantity, &h.AverageCostBasis, &h.TotalCostBasis,
		&targetAllocation, &sector, &firstPurchase, &lastTransaction, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if targetAllocation.Valid {
		h.TargetAllocation = &targetAllocation.Float64
	}
	if sector.Valid {
		h.Sector = sector.String
	}
	if firstPurchase.Valid {
		h.FirstPurchaseDate = &firstPurchase.Int64
	}
	if lastTransaction.Valid {
		h.LastTransactionDate = &lastTransaction.Int64
	}

	return &h, nil
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

func nullFloat64Ptr(val *float64) sql.NullFloat64 {
	if val == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *val, Valid: true}
}

func nullInt64Ptr(val *int64) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *val, Valid: true}
}
