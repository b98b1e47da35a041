package holdings

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	internaltesting "github.com/DavaStrava/AIStockPredictions-sub002/internal/testing"
)

type stubLedgerSymbols struct {
	symbols []string
}

func (s stubLedgerSymbols) Symbols(portfolioID string) ([]string, error) {
	return s.symbols, nil
}

func newTestService(t *testing.T, ledger LedgerSymbols) (*Service, *Repository, *database.DB, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t)
	log := zerolog.Nop()

	repo := NewRepository(db.Conn(), log)
	recalculator := NewRecalculator(repo, nil, log)
	service := NewService(db.Conn(), repo, recalculator, ledger, log)

	internaltesting.SeedPortfolio(t, db, testPortfolio)

	return service, repo, db, cleanup
}

func TestBulkImport(t *testing.T) {
	service, repo, _, cleanup := newTestService(t, stubLedgerSymbols{})
	defer cleanup()

	result, err := service.BulkImport(testPortfolio, []ImportRow{
		{Symbol: "aapl", Quantity: 10, AverageCostBasis: 150},
		{Symbol: "MSFT", Quantity: 5, AverageCostBasis: 300},
		{Symbol: "", Quantity: 1, AverageCostBasis: 10},
		{Symbol: "BAD", Quantity: -1, AverageCostBasis: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, result.Errors, 2)

	h, err := repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.InDelta(t, 10.0, h.Quantity, 0.001)
	assert.InDelta(t, 1500.0, h.TotalCostBasis, 0.001)

	all, err := repo.GetAll(testPortfolio)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBulkImport_UnknownPortfolio(t *testing.T) {
	service, _, _, cleanup := newTestService(t, stubLedgerSymbols{})
	defer cleanup()

	_, err := service.BulkImport("missing", []ImportRow{{Symbol: "AAPL", Quantity: 1, AverageCostBasis: 1}})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestSetTargetAllocation_Validation(t *testing.T) {
	service, _, _, cleanup := newTestService(t, stubLedgerSymbols{})
	defer cleanup()

	bad := 150.0
	err := service.SetTargetAllocation(testPortfolio, "AAPL", &bad)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestRepair_RebuildsCacheFromLedger(t *testing.T) {
	service, repo, db, cleanup := newTestService(t, stubLedgerSymbols{symbols: []string{"AAPL", "MSFT"}})
	defer cleanup()

	seedTrade(t, db, "BUY", "AAPL", 10, 150, 1000)
	seedTrade(t, db, "BUY", "MSFT", 5, 300, 1000)
	seedTrade(t, db, "SELL", "MSFT", 5, 310, 2000)

	// Poison the cache with a stale row the ledger no longer supports
	_, err := db.Exec(`
		INSERT INTO holdings (portfolio_id, symbol, quantity, average_cost_basis, total_cost_basis, updated_at)
		VALUES (?, 'MSFT', 99, 1, 99, 0)`, testPortfolio)
	require.NoError(t, err)

	require.NoError(t, service.Repair(testPortfolio))

	aapl, err := repo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, aapl)
	assert.InDelta(t, 10.0, aapl.Quantity, 0.001)

	msft, err := repo.Get(testPortfolio, "MSFT")
	require.NoError(t, err)
	assert.Nil(t, msft)
}
