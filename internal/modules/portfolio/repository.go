// Package portfolio manages portfolio records and their lifecycle.
package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/rs/zerolog"
)

// Portfolio represents a user's portfolio
type Portfolio struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Currency    string
	IsDefault   bool
	CreatedAt   int64
	UpdatedAt   int64
}

// Repository handles portfolio database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

const portfolioColumns = `id, user_id, name, description, currency, is_default, created_at, updated_at`

// Create inserts a new portfolio. If the portfolio is marked default, any
// existing default for the same user is cleared in the same transaction.
func (r *Repository) Create(tx *sql.Tx, p Portfolio) error {
	now := time.Now().Unix()
	p.CreatedAt = now
	p.UpdatedAt = now

	if p.IsDefault {
		if err := r.clearDefault(tx, p.UserID); err != nil {
			return err
		}
	}

	_, err := tx.Exec(`
		INSERT INTO portfolios (id, user_id, name, description, currency, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, nullString(p.Description), p.Currency, boolToInt(p.IsDefault), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}

	r.log.Info().Str("portfolio_id", p.ID).Str("name", p.Name).Msg("Portfolio created")
	return nil
}

// GetByID returns a portfolio by id
func (r *Repository) GetByID(id string) (*Portfolio, error) {
	row := r.db.QueryRow(`SELECT `+portfolioColumns+` FROM portfolios WHERE id = ?`, id)

	p, err := scanPortfolio(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError(fmt.Sprintf("portfolio %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}

	return p, nil
}

// ListByUser returns all portfolios for a user, default first
func (r *Repository) ListByUser(userID string) ([]Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT `+portfolioColumns+` FROM portfolios
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// IDs returns the ids of every portfolio. Used by scheduled jobs that run
// per-portfolio work across all of them.
func (r *Repository) IDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM portfolios ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio ids: %w", err)
	}

	return ids, nil
}

// Update updates a portfolio's mutable fields. Setting is_default clears any
// other default for the owner inside the same transaction.
func (r *Repository) Update(tx *sql.Tx, p Portfolio) error {
	if p.IsDefault {
		if err := r.clearDefault(tx, p.UserID); err != nil {
			return err
		}
	}

	result, err := tx.Exec(`
		UPDATE portfolios
		SET name = ?, description = ?, currency = ?, is_default = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, nullString(p.Description), p.Currency, boolToInt(p.IsDefault), time.Now().Unix(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("portfolio %s not found", p.ID))
	}

	return nil
}

// Delete removes a portfolio. Transactions, holdings, and performance rows
// cascade via foreign keys.
func (r *Repository) Delete(tx *sql.Tx, id string) error {
	result, err := tx.Exec(`DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("portfolio %s not found", id))
	}

	r.log.Info().Str("portfolio_id", id).Msg("Portfolio deleted")
	return nil
}

// clearDefault clears the default flag on every portfolio of the user
func (r *Repository) clearDefault(tx *sql.Tx, userID string) error {
	if _, err := tx.Exec(`UPDATE portfolios SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear default portfolio: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPortfolio(row rowScanner) (*Portfolio, error) {
	var p Portfolio
	var description sql.NullString
	var isDefault int

	err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.Currency, &isDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = description.String
	}
	p.IsDefault = isDefault == 1

	return &p, nil
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
