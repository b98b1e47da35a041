package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	internaltesting "github.com/DavaStrava/AIStockPredictions-sub002/internal/testing"
)

func newTestService(t *testing.T) (*Service, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t)
	log := zerolog.Nop()

	repo := NewRepository(db.Conn(), log)
	return NewService(db.Conn(), repo, log), cleanup
}

func TestCreate(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	p, err := service.Create(CreateRequest{UserID: "u1", Name: "Growth"})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "USD", p.Currency) // default
	assert.False(t, p.IsDefault)

	fetched, err := service.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, fetched.Name)
}

func TestCreate_Validation(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Create(CreateRequest{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = service.Create(CreateRequest{Name: "No owner"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCreate_DefaultFlagIsExclusive(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	first, err := service.Create(CreateRequest{UserID: "u1", Name: "First", IsDefault: true})
	require.NoError(t, err)

	second, err := service.Create(CreateRequest{UserID: "u1", Name: "Second", IsDefault: true})
	require.NoError(t, err)

	portfolios, err := service.List("u1")
	require.NoError(t, err)
	require.Len(t, portfolios, 2)

	// Default first in listing, and only one default
	assert.Equal(t, second.ID, portfolios[0].ID)
	assert.True(t, portfolios[0].IsDefault)
	assert.False(t, portfolios[1].IsDefault)

	refetched, err := service.Get(first.ID)
	require.NoError(t, err)
	assert.False(t, refetched.IsDefault)
}

func TestUpdate(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	p, err := service.Create(CreateRequest{UserID: "u1", Name: "Old name"})
	require.NoError(t, err)

	newName := "New name"
	updated, err := service.Update(p.ID, UpdateRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.Equal(t, p.Currency, updated.Currency) // untouched fields survive
}

func TestUpdate_NotFound(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	name := "x"
	_, err := service.Update("missing", UpdateRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestDelete_CascadesToDependents(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t)
	defer cleanup()

	log := zerolog.Nop()
	service := NewService(db.Conn(), NewRepository(db.Conn(), log), log)

	p, err := service.Create(CreateRequest{UserID: "u1", Name: "Doomed"})
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO transactions (id, portfolio_id, type, fees, total_amount, transaction_date, created_at)
		VALUES ('tx1', ?, 'DEPOSIT', 0, 1000, 0, 0)`, p.ID)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO holdings (portfolio_id, symbol, quantity, average_cost_basis, total_cost_basis, updated_at)
		VALUES (?, 'AAPL', 1, 1, 1, 0)`, p.ID)
	require.NoError(t, err)

	require.NoError(t, service.Delete(p.ID))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?`, p.ID).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM holdings WHERE portfolio_id = ?`, p.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestDelete_NotFound(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	err := service.Delete("missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}
