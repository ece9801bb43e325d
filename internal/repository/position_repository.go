package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

// PositionRepository owns the current-state view of owned quantities and
// valuations. A position write and its portfolio balance adjustment run
// inside one database transaction: they succeed or fail together, so
// `portfolio.balance == sum(position.valuation)` holds after every step.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository creates a new PositionRepository with the provided database connection.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// GetPosition retrieves the position for a (portfolio, asset) pair.
// Returns apperrors.ErrPositionNotFound if no position exists yet.
func (r *PositionRepository) GetPosition(ctx context.Context, portfolioID, assetID string) (model.Position, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, portfolio_id, asset_id, quantity, valuation
		FROM position WHERE portfolio_id = ? AND asset_id = ?`,
		portfolioID, assetID)

	var p model.Position
	err := row.Scan(&p.ID, &p.PortfolioID, &p.AssetID, &p.Quantity, &p.Valuation)
	if err == sql.ErrNoRows {
		return model.Position{}, apperrors.ErrPositionNotFound
	}
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to scan position table results: %w", err)
	}

	return p, nil
}

// ListPositions retrieves all positions of one portfolio.
func (r *PositionRepository) ListPositions(ctx context.Context, portfolioID string) ([]model.Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, portfolio_id, asset_id, quantity, valuation
		FROM position WHERE portfolio_id = ?`,
		portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position table: %w", err)
	}
	defer rows.Close()

	positions := []model.Position{}
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ID, &p.PortfolioID, &p.AssetID, &p.Quantity, &p.Valuation); err != nil {
			return nil, fmt.Errorf("failed to scan position table results: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position table: %w", err)
	}

	return positions, nil
}

// ApplyDelta applies a signed quantity and valuation delta to the
// (portfolio, asset) position, creating it on first touch, and propagates
// the valuation delta into the portfolio's running balance. Both writes
// commit atomically.
func (r *PositionRepository) ApplyDelta(ctx context.Context, portfolioID, assetID string, quantityDelta, valuationDelta float64) (model.Position, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var p model.Position
	row := tx.QueryRowContext(ctx, `
		SELECT id, quantity, valuation FROM position
		WHERE portfolio_id = ? AND asset_id = ?`,
		portfolioID, assetID)

	err = row.Scan(&p.ID, &p.Quantity, &p.Valuation)
	switch {
	case err == sql.ErrNoRows:
		p = model.Position{
			ID:          uuid.New().String(),
			PortfolioID: portfolioID,
			AssetID:     assetID,
			Quantity:    quantityDelta,
			Valuation:   valuationDelta,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO position (id, portfolio_id, asset_id, quantity, valuation)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.PortfolioID, p.AssetID, p.Quantity, p.Valuation)
		if err != nil {
			return model.Position{}, fmt.Errorf("failed to insert position: %w", err)
		}
	case err != nil:
		return model.Position{}, fmt.Errorf("failed to scan position table results: %w", err)
	default:
		p.PortfolioID = portfolioID
		p.AssetID = assetID
		p.Quantity += quantityDelta
		p.Valuation += valuationDelta
		_, err = tx.ExecContext(ctx, `
			UPDATE position SET quantity = ?, valuation = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			p.Quantity, p.Valuation, p.ID)
		if err != nil {
			return model.Position{}, fmt.Errorf("failed to update position: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE portfolio SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		valuationDelta, portfolioID)
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to update portfolio balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to check portfolio update: %w", err)
	}
	if affected == 0 {
		return model.Position{}, apperrors.ErrPortfolioNotFound
	}

	if err := tx.Commit(); err != nil {
		return model.Position{}, fmt.Errorf("failed to commit position delta: %w", err)
	}

	return p, nil
}

// SetSnapshot sets a position to absolute quantity and valuation values,
// creating it on first touch, and re-derives the portfolio balance as the
// sum of its positions' valuations. Used by the exchange snapshot sync,
// where the exchange reports current state rather than deltas.
func (r *PositionRepository) SetSnapshot(ctx context.Context, portfolioID, assetID string, quantity, valuation float64) (model.Position, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var p model.Position
	row := tx.QueryRowContext(ctx, `
		SELECT id FROM position WHERE portfolio_id = ? AND asset_id = ?`,
		portfolioID, assetID)

	err = row.Scan(&p.ID)
	switch {
	case err == sql.ErrNoRows:
		p.ID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO position (id, portfolio_id, asset_id, quantity, valuation)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID, portfolioID, assetID, quantity, valuation)
		if err != nil {
			return model.Position{}, fmt.Errorf("failed to insert position: %w", err)
		}
	case err != nil:
		return model.Position{}, fmt.Errorf("failed to scan position table results: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE position SET quantity = ?, valuation = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			quantity, valuation, p.ID)
		if err != nil {
			return model.Position{}, fmt.Errorf("failed to update position: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE portfolio
		SET balance = (SELECT COALESCE(SUM(valuation), 0.0) FROM position WHERE portfolio_id = ?),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		portfolioID, portfolioID)
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to rebalance portfolio: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Position{}, fmt.Errorf("failed to commit position snapshot: %w", err)
	}

	p.PortfolioID = portfolioID
	p.AssetID = assetID
	p.Quantity = quantity
	p.Valuation = valuation
	return p, nil
}

// ListViews retrieves the portfolio's positions joined with asset display
// data, largest valuation first. Zero-quantity positions are filtered
// out; they linger after an asset is fully disposed of.
func (r *PositionRepository) ListViews(ctx context.Context, portfolioID string) ([]model.PositionView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.acronym, a.image, p.quantity, a.current_price, p.valuation
		FROM position p
		JOIN asset a ON a.id = p.asset_id
		WHERE p.portfolio_id = ? AND p.quantity != 0
		ORDER BY p.valuation DESC`,
		portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position table: %w", err)
	}
	defer rows.Close()

	views := []model.PositionView{}
	for rows.Next() {
		var v model.PositionView
		var image sql.NullString
		if err := rows.Scan(&v.Acronym, &image, &v.Quantity, &v.Price, &v.Valuation); err != nil {
			return nil, fmt.Errorf("failed to scan position table results: %w", err)
		}
		v.Image = image.String
		views = append(views, v)
	}

	return views, rows.Err()
}
