package holdings

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/rs/zerolog"
)

const sectorLookupTimeout = 3 * time.Second

// Recalculator derives the holdings cache row for one (portfolio, symbol)
// pair from the full transaction history. A full replay, not incremental
// deltas: the recomputation has no state beyond the ledger itself, which
// makes it idempotent and the natural repair path if the cache goes stale.
type Recalculator struct {
	repo       *Repository
	marketData domain.MarketDataProvider
	log        zerolog.Logger
}

// NewRecalculator creates a new cost-basis recalculator
func NewRecalculator(repo *Repository, marketData domain.MarketDataProvider, log zerolog.Logger) *Recalculator {
	return &Recalculator{
		repo:       repo,
		marketData: marketData,
		log:        log.With().Str("service", "recalculator").Logger(),
	}
}

// RecalculateTx replays all BUY/SELL rows for the pair and upserts or deletes
// the cache row, inside the caller's transaction.
//
// The average cost basis is total historical buy cost divided by total bought
// quantity, across all buys regardless of interleaved sells. The cost pool is
// not reduced on sale, so this is not FIFO/LIFO accounting.
func (c *Recalculator) RecalculateTx(tx *sql.Tx, portfolioID, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var totalBought, totalSold, totalCost float64
	var firstBuy, lastTransaction sql.NullInt64

	err := tx.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'SELL' THEN quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN quantity * price_per_share ELSE 0 END), 0),
			MIN(CASE WHEN type = 'BUY' THEN transaction_date END),
			MAX(transaction_date)
		FROM transactions
		WHERE portfolio_id = ? AND symbol = ? AND type IN ('BUY','SELL')`,
		portfolioID, symbol,
	).Scan(&totalBought, &totalSold, &totalCost, &firstBuy, &lastTransaction)
	if err != nil {
		return fmt.Errorf("failed to aggregate ledger for %s: %w", symbol, err)
	}

	netQuantity := totalBought - totalSold

	// Position fully closed: the row must be absent, never zero or negative.
	if netQuantity <= 0 || totalBought <= 0 {
		if err := c.repo.DeleteTx(tx, portfolioID, symbol); err != nil {
			return err
		}
		c.log.Debug().Str("portfolio_id", portfolioID).Str("symbol", symbol).Msg("Position closed, cache row removed")
		return nil
	}

	avgCost := totalCost / totalBought
	if math.IsNaN(avgCost) || math.IsInf(avgCost, 0) {
		return fmt.Errorf("invalid average cost basis for %s: bought=%f cost=%f", symbol, totalBought, totalCost)
	}

	h := Holding{
		PortfolioID:      portfolioID,
		Symbol:           symbol,
		Quantity:         netQuantity,
		AverageCostBasis: avgCost,
		TotalCostBasis:   netQuantity * avgCost,
		Sector:           c.lookupSector(symbol),
	}
	if firstBuy.Valid {
		h.FirstPurchaseDate = &firstBuy.Int64
	}
	if lastTransaction.Valid {
		h.LastTransactionDate = &lastTransaction.Int64
	}

	if err := c.repo.UpsertTx(tx, h); err != nil {
		return err
	}

	c.log.Debug().
		Str("portfolio_id", portfolioID).
		Str("symbol", symbol).
		Float64("quantity", netQuantity).
		Float64("avg_cost", avgCost).
		Msg("Holding recalculated")

	return nil
}

// lookupSector fetches the company sector on a best-effort basis. A failed
// lookup returns "" and the upsert's COALESCE keeps whatever sector was
// already cached; it never fails the surrounding transaction.
func (c *Recalculator) lookupSector(symbol string) string {
	if c.marketData == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), sectorLookupTimeout)
	defer cancel()

	profile, err := c.marketData.GetCompanyProfile(ctx, symbol)
	if err != nil {
		c.log.Debug().Err(err).Str("symbol", symbol).Msg("Sector lookup failed, keeping cached sector")
		return ""
	}

	return profile.Sector
}
