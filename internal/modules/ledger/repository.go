package ledger

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Repository handles ledger database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

const transactionColumns = `id, portfolio_id, symbol, type, quantity, price_per_share,
	fees, total_amount, transaction_date, notes, prediction_id, created_at`

// InsertTx appends a transaction to the ledger within the caller's transaction
func (r *Repository) InsertTx(tx *sql.Tx, t Transaction) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (id, portfolio_id, symbol, type, quantity, price_per_share,
			fees, total_amount, transaction_date, notes, prediction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PortfolioID, nullString(t.Symbol), t.Type,
		nullFloat64(t.Quantity), nullFloat64(t.PricePerShare),
		t.Fees, t.TotalAmount, t.TransactionDate,
		nullString(t.Notes), nullString(t.PredictionID), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetByID returns a single transaction
func (r *Repository) GetByID(id string) (*Transaction, error) {
	row := r.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return t, nil
}

// List returns transactions for a portfolio, newest first, with optional filters
func (r *Repository) List(portfolioID string, filter ListFilter) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE portfolio_id = ?`
	args := []interface{}{portfolioID}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, strings.ToUpper(filter.Type))
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, strings.ToUpper(filter.Symbol))
	}
	if !filter.From.IsZero() {
		query += " AND transaction_date >= ?"
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		query += " AND transaction_date <= ?"
		args = append(args, filter.To.Unix())
	}

	query += " ORDER BY transaction_date DESC, created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// CashBalance returns the sum of all committed total-amounts for a portfolio
func (r *Repository) CashBalance(portfolioID string) (float64, error) {
	return cashBalance(r.db, portfolioID)
}

// CashBalanceTx reads the cash balance inside a unit of work. Because SQLite
// serializes writers, a balance read inside a write transaction cannot race
// with a concurrent mutation of the same portfolio.
func (r *Repository) CashBalanceTx(tx *sql.Tx, portfolioID string) (float64, error) {
	return cashBalance(tx, portfolioID)
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func cashBalance(q queryer, portfolioID string) (float64, error) {
	var balance float64
	err := q.QueryRow(`
		SELECT COALESCE(SUM(total_amount), 0) FROM transactions WHERE portfolio_id = ?`,
		portfolioID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to query cash balance: %w", err)
	}
	return balance, nil
}

// HeldQuantityTx returns the net held quantity for a symbol inside a unit of work
func (r *Repository) HeldQuantityTx(tx *sql.Tx, portfolioID, symbol string) (float64, error) {
	var held float64
	err := tx.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN type = 'BUY' THEN quantity ELSE -quantity END), 0)
		FROM transactions
		WHERE portfolio_id = ? AND symbol = ? AND type IN ('BUY','SELL')`,
		portfolioID, strings.ToUpper(symbol),
	).Scan(&held)
	if err != nil {
		return 0, fmt.Errorf("failed to query held quantity: %w", err)
	}
	return held, nil
}

// NetDeposits returns cumulative external cash in: deposits plus dividends
// minus withdrawals. Read fresh from the ledger each time, never carried
// forward incrementally.
func (r *Repository) NetDeposits(portfolioID string) (float64, error) {
	var net float64
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(CASE
			WHEN type IN ('DEPOSIT','DIVIDEND') THEN ABS(total_amount)
			WHEN type = 'WITHDRAW' THEN -ABS(total_amount)
			ELSE 0 END), 0)
		FROM transactions WHERE portfolio_id = ?`,
		portfolioID,
	).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("failed to query net deposits: %w", err)
	}
	return net, nil
}

// Symbols returns the distinct traded symbols in a portfolio's ledger
func (r *Repository) Symbols(portfolioID string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT symbol FROM transactions
		WHERE portfolio_id = ? AND symbol IS NOT NULL AND type IN ('BUY','SELL')
		ORDER BY symbol`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// Summary aggregates the ledger by type
func (r *Repository) Summary(portfolioID string) (*Summary, error) {
	var s Summary
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'SELL' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN ABS(total_amount) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'SELL' THEN ABS(total_amount) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'DEPOSIT' THEN ABS(total_amount) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'WITHDRAW' THEN ABS(total_amount) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'DIVIDEND' THEN ABS(total_amount) ELSE 0 END), 0),
			COALESCE(SUM(fees), 0)
		FROM transactions WHERE portfolio_id = ?`,
		portfolioID,
	).Scan(&s.TotalCount, &s.BuyCount, &s.SellCount, &s.TotalBought, &s.TotalSold,
		&s.TotalDeposits, &s.TotalWithdrawals, &s.TotalDividends, &s.TotalFees)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger summary: %w", err)
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var t Transaction
	var symbol, notes, predictionID sql.NullString
	var quantity, pricePerShare sql.NullFloat64

	err := row.Scan(&t.ID, &t.PortfolioID, &symbol, &t.Type, &quantity, &pricePerShare,
		&t.Fees, &t.TotalAmount, &t.TransactionDate, &notes, &predictionID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if symbol.Valid {
		t.Symbol = symbol.String
	}
	if quantity.Valid {
		t.Quantity = quantity.Float64
	}
	if pricePerShare.Valid {
		t.PricePerShare = pricePerShare.Float64
	}
	if notes.Valid {
		t.Notes = notes.String
	}
	if predictionID.Valid {
		t.PredictionID = predictionID.String
	}

	return &t, nil
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

func nullFloat64(val float64) sql.NullFloat64 {
	if val == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: val, Valid: true}
}
