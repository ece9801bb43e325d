package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

// AssetRepository provides data access methods for the asset table.
// Assets are shared across users; the current price column is a cache
// owned by the price resolver.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, fullname, api_id_name, acronym, current_price, COALESCE(image, ''), COALESCE(price_updated_at, '')`

// GetByAcronym retrieves the canonical asset for an acronym.
// Returns apperrors.ErrAssetNotFound if no asset exists for it.
func (r *AssetRepository) GetByAcronym(ctx context.Context, acronym string) (model.Asset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM asset WHERE acronym = ? COLLATE NOCASE`, acronym)
	return scanAsset(row)
}

// GetByID retrieves an asset by its primary key.
func (r *AssetRepository) GetByID(ctx context.Context, id string) (model.Asset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM asset WHERE id = ?`, id)
	return scanAsset(row)
}

// List retrieves all assets ordered by acronym.
func (r *AssetRepository) List(ctx context.Context) ([]model.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM asset ORDER BY acronym ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// Create inserts a new canonical asset.
func (r *AssetRepository) Create(ctx context.Context, asset *model.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO asset (id, fullname, api_id_name, acronym, current_price, image, price_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.FullName, asset.APIIDName, asset.Acronym,
		asset.CurrentPrice, asset.Image, asset.PriceUpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	return nil
}

// UpdatePrice refreshes the cached current price and image of an asset.
// Last writer wins; staleness gating happens in the price resolver.
func (r *AssetRepository) UpdatePrice(ctx context.Context, id string, price float64, image string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE asset SET current_price = ?, image = CASE WHEN ? != '' THEN ? ELSE image END, price_updated_at = ?
		WHERE id = ?`,
		price, image, image, at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check asset update: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrAssetNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (model.Asset, error) {
	var asset model.Asset
	var updatedAtStr string

	err := row.Scan(
		&asset.ID,
		&asset.FullName,
		&asset.APIIDName,
		&asset.Acronym,
		&asset.CurrentPrice,
		&asset.Image,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to scan asset table results: %w", err)
	}

	if updatedAtStr != "" {
		asset.PriceUpdatedAt, err = ParseTime(updatedAtStr)
		if err != nil {
			return model.Asset{}, err
		}
	}

	return asset, nil
}
