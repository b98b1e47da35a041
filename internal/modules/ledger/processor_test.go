package ledger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/holdings"
	internaltesting "github.com/DavaStrava/AIStockPredictions-sub002/internal/testing"
)

const testPortfolio = "p1"

type testEnv struct {
	proc         *Processor
	repo         *Repository
	holdingsRepo *holdings.Repository
	db           *database.DB
}

func newTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t)
	log := zerolog.Nop()

	repo := NewRepository(db.Conn(), log)
	holdingsRepo := holdings.NewRepository(db.Conn(), log)
	recalculator := holdings.NewRecalculator(holdingsRepo, nil, log)
	proc := NewProcessor(db.Conn(), repo, recalculator, log)

	internaltesting.SeedPortfolio(t, db, testPortfolio)

	return &testEnv{proc: proc, repo: repo, holdingsRepo: holdingsRepo, db: db}, cleanup
}

func (e *testEnv) deposit(t *testing.T, amount float64) {
	t.Helper()
	_, err := e.proc.AddTransaction(AddRequest{
		PortfolioID: testPortfolio,
		Type:        TypeDeposit,
		Amount:      amount,
		Date:        time.Now(),
	})
	require.NoError(t, err)
}

func (e *testEnv) buy(t *testing.T, symbol string, qty, price, fees float64) {
	t.Helper()
	_, err := e.proc.AddTransaction(AddRequest{
		PortfolioID:   testPortfolio,
		Symbol:        symbol,
		Type:          TypeBuy,
		Quantity:      qty,
		PricePerShare: price,
		Fees:          fees,
		Date:          time.Now(),
	})
	require.NoError(t, err)
}

func TestAddTransaction_DepositThenBuy(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 10000)
	env.buy(t, "AAPL", 10, 150, 5)

	cash, err := env.repo.CashBalance(testPortfolio)
	require.NoError(t, err)
	assert.InDelta(t, 8495.0, cash, 0.001)

	h, err := env.holdingsRepo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.InDelta(t, 10.0, h.Quantity, 0.001)
	assert.InDelta(t, 150.0, h.AverageCostBasis, 0.001)
	assert.InDelta(t, 1500.0, h.TotalCostBasis, 0.001)
}

func TestAddTransaction_InsufficientFundsRejectsAtomically(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 1000)

	_, err := env.proc.AddTransaction(AddRequest{
		PortfolioID:   testPortfolio,
		Symbol:        "AAPL",
		Type:          TypeBuy,
		Quantity:      10,
		PricePerShare: 150,
		Fees:          5,
		Date:          time.Now(),
	})
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientFunds(err))

	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.InDelta(t, 1505.0, domErr.Required, 0.001)
	assert.InDelta(t, 1000.0, domErr.Available, 0.001)

	// The rejected buy must leave no trace: no ledger row, no holding.
	transactions, err := env.repo.List(testPortfolio, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 1)

	h, err := env.holdingsRepo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestAddTransaction_OversellRejected(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 10000)
	env.buy(t, "AAPL", 10, 150, 0)

	_, err := env.proc.AddTransaction(AddRequest{
		PortfolioID:   testPortfolio,
		Symbol:        "AAPL",
		Type:          TypeSell,
		Quantity:      15,
		PricePerShare: 175,
		Date:          time.Now(),
	})
	require.Error(t, err)
	assert.True(t, domain.IsStateConflict(err))

	h, err := env.holdingsRepo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.InDelta(t, 10.0, h.Quantity, 0.001)
}

func TestAddTransaction_SellAllRemovesHolding(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 10000)
	env.buy(t, "AAPL", 10, 150, 5)

	_, err := env.proc.AddTransaction(AddRequest{
		PortfolioID:   testPortfolio,
		Symbol:        "AAPL",
		Type:          TypeSell,
		Quantity:      10,
		PricePerShare: 175,
		Fees:          2,
		Date:          time.Now(),
	})
	require.NoError(t, err)

	h, err := env.holdingsRepo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, h)

	// 10000 - (1500 + 5) + (1750 - 2)
	cash, err := env.repo.CashBalance(testPortfolio)
	require.NoError(t, err)
	assert.InDelta(t, 10243.0, cash, 0.001)
}

func TestAddTransaction_WeightedAverageCostBasis(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 10000)
	env.buy(t, "AAPL", 10, 150, 0)
	env.buy(t, "AAPL", 10, 200, 0)

	h, err := env.holdingsRepo.Get(testPortfolio, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.InDelta(t, 20.0, h.Quantity, 0.001)
	assert.InDelta(t, 175.0, h.AverageCostBasis, 0.001)
	assert.InDelta(t, 3500.0, h.TotalCostBasis, 0.001)
}

func TestAddTransaction_CashSigns(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 1000)

	_, err := env.proc.AddTransaction(AddRequest{
		PortfolioID: testPortfolio,
		Type:        TypeDividend,
		Symbol:      "AAPL",
		Amount:      50,
		Fees:        1,
		Date:        time.Now(),
	})
	require.NoError(t, err)

	_, err = env.proc.AddTransaction(AddRequest{
		PortfolioID: testPortfolio,
		Type:        TypeWithdraw,
		Amount:      100,
		Fees:        2,
		Date:        time.Now(),
	})
	require.NoError(t, err)

	cash, err := env.repo.CashBalance(testPortfolio)
	require.NoError(t, err)
	assert.InDelta(t, 947.0, cash, 0.001) // 1000 + 49 - 102

	net, err := env.repo.NetDeposits(testPortfolio)
	require.NoError(t, err)
	assert.InDelta(t, 948.0, net, 0.001) // 1000 + 50 - 102
}

func TestCashBalance_EqualsSumOfLedger(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 5000)
	env.buy(t, "AAPL", 5, 100, 1)
	env.buy(t, "MSFT", 3, 300, 1)

	transactions, err := env.repo.List(testPortfolio, ListFilter{})
	require.NoError(t, err)

	sum := 0.0
	for _, tx := range transactions {
		sum += tx.TotalAmount
	}

	cash, err := env.repo.CashBalance(testPortfolio)
	require.NoError(t, err)
	assert.InDelta(t, sum, cash, 0.001)
}

func TestAddTransaction_Validation(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 10000)

	now := time.Now()
	cases := []struct {
		name string
		req  AddRequest
	}{
		{"unknown type", AddRequest{PortfolioID: testPortfolio, Type: "TRANSFER", Amount: 100, Date: now}},
		{"buy without symbol", AddRequest{PortfolioID: testPortfolio, Type: TypeBuy, Quantity: 1, PricePerShare: 10, Date: now}},
		{"buy with zero quantity", AddRequest{PortfolioID: testPortfolio, Symbol: "AAPL", Type: TypeBuy, PricePerShare: 10, Date: now}},
		{"buy with zero price", AddRequest{PortfolioID: testPortfolio, Symbol: "AAPL", Type: TypeBuy, Quantity: 1, Date: now}},
		{"deposit with zero amount", AddRequest{PortfolioID: testPortfolio, Type: TypeDeposit, Date: now}},
		{"negative fees", AddRequest{PortfolioID: testPortfolio, Type: TypeDeposit, Amount: 100, Fees: -1, Date: now}},
		{"missing date", AddRequest{PortfolioID: testPortfolio, Type: TypeDeposit, Amount: 100}},
		{"missing portfolio", AddRequest{Type: TypeDeposit, Amount: 100, Date: now}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.proc.AddTransaction(tc.req)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}

	// Only the initial deposit should have committed
	transactions, err := env.repo.List(testPortfolio, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestAddTransaction_UnknownPortfolio(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	_, err := env.proc.AddTransaction(AddRequest{
		PortfolioID: "missing",
		Type:        TypeDeposit,
		Amount:      100,
		Date:        time.Now(),
	})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestAddTransaction_SkipValidationAllowsOverdraft(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	_, err := env.proc.AddTransaction(AddRequest{
		PortfolioID:    testPortfolio,
		Symbol:         "AAPL",
		Type:           TypeBuy,
		Quantity:       10,
		PricePerShare:  150,
		Date:           time.Now(),
		SkipValidation: true,
	})
	require.NoError(t, err)

	cash, err := env.repo.CashBalance(testPortfolio)
	require.NoError(t, err)
	assert.InDelta(t, -1500.0, cash, 0.001)
}

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		txType string
		gross  float64
		fees   float64
		want   float64
	}{
		{TypeBuy, 1500, 5, -1505},
		{TypeWithdraw, 100, 2, -102},
		{TypeSell, 1750, 2, 1748},
		{TypeDeposit, 1000, 0, 1000},
		{TypeDividend, 50, 1, 49},
	}

	for _, tc := range cases {
		assert.InDelta(t, tc.want, normalizeAmount(tc.txType, tc.gross, tc.fees), 0.001, tc.txType)
	}
}

func TestList_Filters(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 10000)
	env.buy(t, "AAPL", 5, 100, 0)
	env.buy(t, "MSFT", 2, 300, 0)

	byType, err := env.repo.List(testPortfolio, ListFilter{Type: "buy"})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	bySymbol, err := env.repo.List(testPortfolio, ListFilter{Symbol: "aapl"})
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "AAPL", bySymbol[0].Symbol)

	limited, err := env.repo.List(testPortfolio, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSummary(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	env.deposit(t, 10000)
	env.buy(t, "AAPL", 10, 150, 5)

	summary, err := env.repo.Summary(testPortfolio)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalCount)
	assert.Equal(t, int64(1), summary.BuyCount)
	assert.InDelta(t, 10000.0, summary.TotalDeposits, 0.001)
	assert.InDelta(t, 1505.0, summary.TotalBought, 0.001)
	assert.InDelta(t, 5.0, summary.TotalFees, 0.001)
}
