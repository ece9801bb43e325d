package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetByID retrieves a portfolio by its primary key.
// Returns apperrors.ErrPortfolioNotFound if it does not exist.
func (r *PortfolioRepository) GetByID(ctx context.Context, id string) (model.Portfolio, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, portfolio_type, name, balance
		FROM portfolio WHERE id = ?`, id)

	var p model.Portfolio
	err := row.Scan(&p.ID, &p.UserID, &p.Type, &p.Name, &p.Balance)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}

	return p, nil
}

// ListByUser retrieves all portfolios of one user.
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string) ([]model.Portfolio, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, portfolio_type, name, balance
		FROM portfolio WHERE user_id = ? ORDER BY portfolio_type, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Type, &p.Name, &p.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetOrCreate finds the user's portfolio of the given category and name,
// creating it lazily with a zero balance on first need.
func (r *PortfolioRepository) GetOrCreate(ctx context.Context, userID, portfolioType, name string) (model.Portfolio, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, portfolio_type, name, balance
		FROM portfolio WHERE user_id = ? AND portfolio_type = ? AND name = ?`,
		userID, portfolioType, name)

	var p model.Portfolio
	err := row.Scan(&p.ID, &p.UserID, &p.Type, &p.Name, &p.Balance)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}

	p = model.Portfolio{
		ID:     uuid.New().String(),
		UserID: userID,
		Type:   portfolioType,
		Name:   name,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO portfolio (id, user_id, portfolio_type, name, balance)
		VALUES (?, ?, ?, ?, 0.0)`,
		p.ID, p.UserID, p.Type, p.Name)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	return p, nil
}
