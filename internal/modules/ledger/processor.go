package ledger

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HoldingsRecalculator replays the ledger for one (portfolio, symbol) pair and
// rewrites the holdings cache row. Defined here to avoid an import cycle with
// the holdings package.
type HoldingsRecalculator interface {
	RecalculateTx(tx *sql.Tx, portfolioID, symbol string) error
}

// Processor validates and commits transactions against the ledger, cash, and
// holdings invariants, inside one atomic unit of work.
type Processor struct {
	db           *sql.DB
	repo         *Repository
	recalculator HoldingsRecalculator
	log          zerolog.Logger
}

// NewProcessor creates a new transaction processor
func NewProcessor(db *sql.DB, repo *Repository, recalculator HoldingsRecalculator, log zerolog.Logger) *Processor {
	return &Processor{
		db:           db,
		repo:         repo,
		recalculator: recalculator,
		log:          log.With().Str("service", "transaction_processor").Logger(),
	}
}

// AddTransaction records a transaction in its own unit of work.
// All reads and writes either all commit or all roll back.
func (p *Processor) AddTransaction(req AddRequest) (*Transaction, error) {
	var result *Transaction
	err := database.WithTransaction(p.db, func(tx *sql.Tx) error {
		t, err := p.AddTransactionTx(tx, req)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddTransactionTx records a transaction inside a caller-owned transaction.
// The caller owns the commit boundary; this is the shape batch imports use so
// many ledger writes share one all-or-nothing commit. It never begins a
// nested transaction.
func (p *Processor) AddTransactionTx(tx *sql.Tx, req AddRequest) (*Transaction, error) {
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))

	gross, err := validate(req)
	if err != nil {
		return nil, err
	}

	if err := p.portfolioExistsTx(tx, req.PortfolioID); err != nil {
		return nil, err
	}

	// Invariant checks run inside the same unit of work as the insert, so a
	// concurrent transaction against the same portfolio cannot slip between
	// the check and the commit.
	if !req.SkipValidation {
		switch req.Type {
		case TypeBuy:
			required := gross + req.Fees
			available, err := p.repo.CashBalanceTx(tx, req.PortfolioID)
			if err != nil {
				return nil, err
			}
			if available < required {
				return nil, domain.NewInsufficientFundsError(required, available)
			}
		case TypeSell:
			held, err := p.repo.HeldQuantityTx(tx, req.PortfolioID, req.Symbol)
			if err != nil {
				return nil, err
			}
			if held < req.Quantity {
				return nil, domain.NewStateConflictError(fmt.Sprintf(
					"cannot sell %.4f shares of %s: only %.4f held", req.Quantity, req.Symbol, held))
			}
		}
	}

	t := Transaction{
		ID:              uuid.New().String(),
		PortfolioID:     req.PortfolioID,
		Symbol:          req.Symbol,
		Type:            req.Type,
		Quantity:        req.Quantity,
		PricePerShare:   req.PricePerShare,
		Fees:            req.Fees,
		TotalAmount:     normalizeAmount(req.Type, gross, req.Fees),
		TransactionDate: req.Date.Unix(),
		Notes:           req.Notes,
		PredictionID:    req.PredictionID,
		CreatedAt:       time.Now().Unix(),
	}

	if err := p.repo.InsertTx(tx, t); err != nil {
		return nil, err
	}

	// The holdings cache must reflect the ledger as of this commit. If the
	// recomputation fails the whole unit of work rolls back, so the ledger
	// never contains a transaction whose cache update failed.
	if t.Type == TypeBuy || t.Type == TypeSell {
		if err := p.recalculator.RecalculateTx(tx, t.PortfolioID, t.Symbol); err != nil {
			return nil, fmt.Errorf("failed to recalculate holding: %w", err)
		}
	}

	p.log.Info().
		Str("transaction_id", t.ID).
		Str("portfolio_id", t.PortfolioID).
		Str("type", t.Type).
		Str("symbol", t.Symbol).
		Float64("total_amount", t.TotalAmount).
		Msg("Transaction recorded")

	return &t, nil
}

// validate performs the pure input checks and returns the gross cash amount.
// Violations fail before any write occurs.
func validate(req AddRequest) (float64, error) {
	if strings.TrimSpace(req.PortfolioID) == "" {
		return 0, domain.NewValidationError("portfolioId", "portfolio id is required")
	}
	if !ValidTypes[req.Type] {
		return 0, domain.NewValidationError("type", fmt.Sprintf("invalid transaction type %q", req.Type))
	}
	if req.Date.IsZero() {
		return 0, domain.NewValidationError("date", "transaction date is required")
	}
	if req.Fees < 0 {
		return 0, domain.NewValidationError("fees", "fees cannot be negative")
	}

	gross := req.Amount
	switch req.Type {
	case TypeBuy, TypeSell:
		if req.Symbol == "" {
			return 0, domain.NewValidationError("symbol", fmt.Sprintf("%s requires a symbol", req.Type))
		}
		if req.Quantity <= 0 {
			return 0, domain.NewValidationError("quantity", fmt.Sprintf("%s requires a positive quantity", req.Type))
		}
		if req.PricePerShare <= 0 {
			return 0, domain.NewValidationError("pricePerShare", fmt.Sprintf("%s requires a positive price per share", req.Type))
		}
		gross = req.Quantity * req.PricePerShare
	}

	if gross <= 0 || math.IsNaN(gross) || math.IsInf(gross, 0) {
		return 0, domain.NewValidationError("amount", "amount must be a positive finite number")
	}

	return gross, nil
}

// normalizeAmount derives the signed cash-balance delta from the transaction
// type. BUY and WITHDRAW move cash out (fees added to the outflow); SELL,
// DEPOSIT, and DIVIDEND move cash in (fees subtracted from the inflow).
func normalizeAmount(txType string, gross, fees float64) float64 {
	switch txType {
	case TypeBuy, TypeWithdraw:
		return -(gross + fees)
	default:
		return gross - fees
	}
}

func (p *Processor) portfolioExistsTx(tx *sql.Tx, portfolioID string) error {
	var one int
	err := tx.QueryRow(`SELECT 1 FROM portfolios WHERE id = ?`, portfolioID).Scan(&one)
	if err == sql.ErrNoRows {
		return domain.NewNotFoundError(fmt.Sprintf("portfolio %s not found", portfolioID))
	}
	if err != nil {
		return fmt.Errorf("failed to check portfolio existence: %w", err)
	}
	return nil
}
