package database

import "fmt"

// schema is the single source of truth for the portfolio database layout.
// Everything lives in one database so a ledger insert and the holdings cache
// recomputation it triggers commit in one atomic unit of work.
const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT,
    currency    TEXT NOT NULL DEFAULT 'USD',
    is_default  INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_portfolios_user ON portfolios(user_id);

-- Append-only ledger. There are intentionally no UPDATE or DELETE paths for
-- this table outside of the portfolio cascade; corrections are offsetting rows.
CREATE TABLE IF NOT EXISTS transactions (
    id               TEXT PRIMARY KEY,
    portfolio_id     TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
    symbol           TEXT,
    type             TEXT NOT NULL CHECK (type IN ('BUY','SELL','DEPOSIT','WITHDRAW','DIVIDEND')),
    quantity         REAL,
    price_per_share  REAL,
    fees             REAL NOT NULL DEFAULT 0,
    total_amount     REAL NOT NULL,
    transaction_date INTEGER NOT NULL,
    notes            TEXT,
    prediction_id    TEXT,
    created_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_portfolio ON transactions(portfolio_id, transaction_date);
CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(portfolio_id, symbol);

-- Materialized view of current positions, derived from the ledger.
-- Never written directly by callers; the recalculator owns it.
CREATE TABLE IF NOT EXISTS holdings (
    portfolio_id          TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
    symbol                TEXT NOT NULL,
    quantity              REAL NOT NULL,
    average_cost_basis    REAL NOT NULL,
    total_cost_basis      REAL NOT NULL,
    target_allocation     REAL,
    sector                TEXT,
    first_purchase_date   INTEGER,
    last_transaction_date INTEGER,
    updated_at            INTEGER NOT NULL,
    PRIMARY KEY (portfolio_id, symbol)
);

CREATE TABLE IF NOT EXISTS daily_performance (
    portfolio_id          TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
    date                  TEXT NOT NULL,
    total_equity          REAL NOT NULL,
    cash_balance          REAL NOT NULL,
    holdings_value        REAL NOT NULL,
    daily_return_pct      REAL,
    cumulative_return_pct REAL,
    net_deposits          REAL NOT NULL,
    sp500_close           REAL,
    nasdaq_close          REAL,
    created_at            INTEGER NOT NULL,
    PRIMARY KEY (portfolio_id, date)
);
`

// Migrate applies the database schema. Idempotent: all statements use
// IF NOT EXISTS so it is safe to run on every startup.
func (db *DB) Migrate() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema: %w", err)
	}

	if _, err := tx.Exec(schema); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute schema for %s: %w", db.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema for %s: %w", db.name, err)
	}

	return nil
}
