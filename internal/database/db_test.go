package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	internaltesting "github.com/DavaStrava/AIStockPredictions-sub002/internal/testing"
)

func countRows(t *testing.T, db *database.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestWithTransaction_Commit(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t)
	defer cleanup()

	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO portfolios (id, user_id, name, currency, is_default, created_at, updated_at)
			VALUES ('p1', 'u1', 'Committed', 'USD', 0, 0, 0)`)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, db, "portfolios"))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t)
	defer cleanup()

	boom := errors.New("boom")
	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO portfolios (id, user_id, name, currency, is_default, created_at, updated_at)
			VALUES ('p1', 'u1', 'Doomed', 'USD', 0, 0, 0)`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Zero(t, countRows(t, db, "portfolios"))
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t)
	defer cleanup()

	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO portfolios (id, user_id, name, currency, is_default, created_at, updated_at)
			VALUES ('p1', 'u1', 'Doomed', 'USD', 0, 0, 0)`)
		require.NoError(t, err)
		panic("mid-transaction failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	assert.Zero(t, countRows(t, db, "portfolios"))
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t)
	defer cleanup()

	// NewTestDB already migrated once
	require.NoError(t, db.Migrate())
	require.NoError(t, db.HealthCheck(context.Background()))
	require.NoError(t, db.QuickCheck(context.Background()))
}
