// Package performance records end-of-day portfolio snapshots and derives
// return statistics from them.
package performance

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is one end-of-day performance row. Date is a calendar day in
// YYYY-MM-DD form; (portfolio, date) is the natural key, so re-recording a
// day overwrites the earlier snapshot.
type Snapshot struct {
	PortfolioID         string
	Date                string
	TotalEquity         float64
	CashBalance         float64
	HoldingsValue       float64
	DailyReturnPct      *float64 // nil on the first snapshot
	CumulativeReturnPct *float64 // nil when net deposits are zero
	NetDeposits         float64
	SP500Close          *float64
	NasdaqClose         *float64
	CreatedAt           int64
}

// Repository handles daily performance database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new performance repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "performance").Logger(),
	}
}

const snapshotColumns = `portfolio_id, date, total_equity, cash_balance, holdings_value,
	daily_return_pct, cumulative_return_pct, net_deposits, sp500_close, nasdaq_close, created_at`

// Upsert writes a snapshot, replacing any earlier snapshot for the same day
func (r *Repository) Upsert(s Snapshot) error {
	s.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO daily_performance (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, date) DO UPDATE SET
			total_equity = excluded.total_equity,
			cash_balance = excluded.cash_balance,
			holdings_value = excluded.holdings_value,
			daily_return_pct = excluded.daily_return_pct,
			cumulative_return_pct = excluded.cumulative_return_pct,
			net_deposits = excluded.net_deposits,
			sp500_close = excluded.sp500_close,
			nasdaq_close = excluded.nasdaq_close,
			created_at = excluded.created_at`,
		s.PortfolioID, s.Date, s.TotalEquity, s.CashBalance, s.HoldingsValue,
		nullFloat64Ptr(s.DailyReturnPct), nullFloat64Ptr(s.CumulativeReturnPct),
		s.NetDeposits, nullFloat64Ptr(s.SP500Close), nullFloat64Ptr(s.NasdaqClose), s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert performance snapshot: %w", err)
	}
	return nil
}

// LatestBefore returns the most recent snapshot strictly before the given
// date, or nil when none exists
func (r *Repository) LatestBefore(portfolioID, date string) (*Snapshot, error) {
	row := r.db.QueryRow(`
		SELECT `+snapshotColumns+` FROM daily_performance
		WHERE portfolio_id = ? AND date < ?
		ORDER BY date DESC LIMIT 1`, portfolioID, date)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return s, nil
}

// History returns snapshots in ascending date order. Empty from/to leave that
// end of the range open.
func (r *Repository) History(portfolioID, from, to string) ([]Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM daily_performance WHERE portfolio_id = ?`
	args := []interface{}{portfolioID}

	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance history: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var s Snapshot
	var dailyReturn, cumulativeReturn, sp500, nasdaq sql.NullFloat64

	err := row.Scan(&s.PortfolioID, &s.Date, &s.TotalEquity, &s.CashBalance, &s.HoldingsValue,
		&dailyReturn, &cumulativeReturn, &s.NetDeposits, &sp500, &nasdaq, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	if dailyReturn.Valid {
		s.DailyReturnPct = &dailyReturn.Float64
	}
	if cumulativeReturn.Valid {
		s.CumulativeReturnPct = &cumulativeReturn.Float64
	}
	if sp500.Valid {
		s.SP500Close = &sp500.Float64
	}
	if nasdaq.Valid {
		s.NasdaqClose = &nasdaq.Float64
	}

	return &s, nil
}

func nullFloat64Ptr(val *float64) sql.NullFloat64 {
	if val == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *val, Valid: true}
}
