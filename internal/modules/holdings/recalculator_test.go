package holdings

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	internaltesting "github.com/DavaStrava/AIStockPredictions-sub002/internal/testing"
)

const testPortfolio = "p1"

func newTestRecalculator(t *testing.T) (*Recalculator, *Repository, *database.DB, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t)
	log := zerolog.Nop()

	repo := NewRepository(db.Conn(), log)
	recalculator := NewRecalculator(repo, nil, log)

	internaltesting.SeedPortfolio(t, db, testPortfolio)

	return recalculator, repo, db, cleanup
}

var txSeq int

// seedTrade inserts a raw BUY/SELL ledger row
func seedTrade(t *testing.T, db *database.DB, txType, symbol string, qty, price float64, date int64) {
	t.Helper()
	txSeq++

	total := qty * price
	if txType == "BUY" {
		total = -total
	}

	_, err := db.Exec(`
		INSERT INTO transactions (id, portfolio_id, symbol, type, quantity, price_per_share,
			fees, total_amount, transaction_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		fmt.Sprintf("tx-%d", txSeq), testPortfolio, symbol, txType, qty, price, total, date, date)
	require.NoError(t, err)
}

func recalculate(t *testing.T, db *database.DB, recalculator *Recalculator, symbol string) {
	t.Helper()
	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		return recalculator.RecalculateTx(tx, testPortfolio, symbol)
	})
	require.NoError(t, err)
}

func TestRecalculateTx_Idempotent(t *testing.T) {
	recalculator, repo, db, cleanup := newTestRecalculator(t)
	defer cleanup()

	seedTrade(t, db, "BUY", "AAPL", 10, 150, 1000)
	seedTrade(t, db, "BUY", "AAPL", 10, 200, 2000)
	seedTrade(t, db, "SELL", "AAPL", 5, 180, 3000)

	recalculate(t, db, recalculator, "AAPL")

	first, err := repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Running the replay again must not change the derived position
	recalculate(t, db, recalculator, "AAPL")

	second, err := repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.InDelta(t, first.Quantity, second.Quantity, 0.0001)
	assert.InDelta(t, first.AverageCostBasis, second.AverageCostBasis, 0.0001)
	assert.InDelta(t, first.TotalCostBasis, second.TotalCostBasis, 0.0001)

	assert.InDelta(t, 15.0, second.Quantity, 0.001)
	assert.InDelta(t, 175.0, second.AverageCostBasis, 0.001) // 3500 cost pool / 20 bought
	assert.InDelta(t, 2625.0, second.TotalCostBasis, 0.001)
	require.NotNil(t, second.FirstPurchaseDate)
	assert.Equal(t, int64(1000), *second.FirstPurchaseDate)
	require.NotNil(t, second.LastTransactionDate)
	assert.Equal(t, int64(3000), *second.LastTransactionDate)
}

func TestRecalculateTx_ClosedPositionDeletesRow(t *testing.T) {
	recalculator, repo, db, cleanup := newTestRecalculator(t)
	defer cleanup()

	seedTrade(t, db, "BUY", "AAPL", 10, 150, 1000)
	recalculate(t, db, recalculator, "AAPL")

	h, err := repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, h)

	seedTrade(t, db, "SELL", "AAPL", 10, 175, 2000)
	recalculate(t, db, recalculator, "AAPL")

	h, err = repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestRecalculateTx_NoTradesIsNoop(t *testing.T) {
	recalculator, repo, db, cleanup := newTestRecalculator(t)
	defer cleanup()

	recalculate(t, db, recalculator, "AAPL")

	h, err := repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestUpsertTx_PreservesSectorAndTarget(t *testing.T) {
	recalculator, repo, db, cleanup := newTestRecalculator(t)
	defer cleanup()

	seedTrade(t, db, "BUY", "AAPL", 10, 150, 1000)
	recalculate(t, db, recalculator, "AAPL")

	// Simulate a successful sector lookup from an earlier pass
	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`UPDATE holdings SET sector = 'Technology' WHERE portfolio_id = ? AND symbol = 'AAPL'`, testPortfolio)
		return execErr
	})
	require.NoError(t, err)

	target := 60.0
	require.NoError(t, repo.UpdateTargetAllocation(testPortfolio, "AAPL", &target))

	// A recompute without market data must not erase either field
	seedTrade(t, db, "BUY", "AAPL", 5, 160, 2000)
	recalculate(t, db, recalculator, "AAPL")

	h, err := repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "Technology", h.Sector)
	require.NotNil(t, h.TargetAllocation)
	assert.InDelta(t, 60.0, *h.TargetAllocation, 0.001)
}

func TestUpdateTargetAllocation_NotFound(t *testing.T) {
	_, repo, _, cleanup := newTestRecalculator(t)
	defer cleanup()

	target := 50.0
	err := repo.UpdateTargetAllocation(testPortfolio, "MISSING", &target)
	require.Error(t, err)
}
