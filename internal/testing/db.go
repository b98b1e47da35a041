// Package testing provides testing utilities shared across packages.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a temp-file SQLite database with the full schema applied.
// Returns the database and an idempotent cleanup function. Temporary files
// rather than :memory: so the connection pool sees one shared database.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test_portfolio_*.db")
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			t.Logf("Warning: failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}

// SeedPortfolio inserts a bare portfolio row for tests that need a valid
// foreign key target
func SeedPortfolio(t *testing.T, db *database.DB, id string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO portfolios (id, user_id, name, currency, is_default, created_at, updated_at)
		VALUES (?, 'test-user', ?, 'USD', 0, 0, 0)`,
		id, fmt.Sprintf("Test Portfolio %s", id))
	if err != nil {
		t.Fatalf("Failed to seed portfolio %s: %v", id, err)
	}
}
