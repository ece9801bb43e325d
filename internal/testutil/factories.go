package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/model"
)

// MakeID returns a fresh UUID string.
func MakeID() string {
	return uuid.New().String()
}

// AssetBuilder provides a fluent interface for creating test assets.
//
// Example usage:
//
//	asset := testutil.NewAsset("BTC").WithPrice(50000).Build(t, db)
type AssetBuilder struct {
	ID             string
	FullName       string
	APIIDName      string
	Acronym        string
	CurrentPrice   float64
	PriceUpdatedAt time.Time
}

// NewAsset creates an AssetBuilder with sensible defaults.
func NewAsset(acronym string) *AssetBuilder {
	return &AssetBuilder{
		ID:           MakeID(),
		FullName:     acronym + " Test Asset",
		APIIDName:    "test-" + acronym,
		Acronym:      acronym,
		CurrentPrice: 1.0,
	}
}

// WithPrice sets the cached current price.
func (b *AssetBuilder) WithPrice(price float64) *AssetBuilder {
	b.CurrentPrice = price
	return b
}

// WithAPIID sets the provider lookup key.
func (b *AssetBuilder) WithAPIID(id string) *AssetBuilder {
	b.APIIDName = id
	return b
}

// WithPriceUpdatedAt sets the price cache timestamp.
func (b *AssetBuilder) WithPriceUpdatedAt(at time.Time) *AssetBuilder {
	b.PriceUpdatedAt = at
	return b
}

// Build creates the asset in the database and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	var updatedAt any
	if !b.PriceUpdatedAt.IsZero() {
		updatedAt = b.PriceUpdatedAt.UTC().Format(time.RFC3339)
	}

	_, err := db.Exec(`
		INSERT INTO asset (id, fullname, api_id_name, acronym, current_price, price_updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.FullName, b.APIIDName, b.Acronym, b.CurrentPrice, updatedAt)
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{
		ID:             b.ID,
		FullName:       b.FullName,
		APIIDName:      b.APIIDName,
		Acronym:        b.Acronym,
		CurrentPrice:   b.CurrentPrice,
		PriceUpdatedAt: b.PriceUpdatedAt,
	}
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
type PortfolioBuilder struct {
	ID      string
	UserID  string
	Type    string
	Name    string
	Balance float64
}

// NewTestPortfolio creates a PortfolioBuilder with sensible defaults.
func NewTestPortfolio(userID string) *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:     MakeID(),
		UserID: userID,
		Type:   model.PortfolioTypeSpot,
		Name:   "Kraken",
	}
}

// Staking switches the portfolio to the staking category.
func (b *PortfolioBuilder) Staking() *PortfolioBuilder {
	b.Type = model.PortfolioTypeStaking
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithBalance sets the starting balance.
func (b *PortfolioBuilder) WithBalance(balance float64) *PortfolioBuilder {
	b.Balance = balance
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO portfolio (id, user_id, portfolio_type, name, balance)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Type, b.Name, b.Balance)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:      b.ID,
		UserID:  b.UserID,
		Type:    b.Type,
		Name:    b.Name,
		Balance: b.Balance,
	}
}

// CreatePosition inserts a position row directly.
func CreatePosition(t *testing.T, db *sql.DB, portfolioID, assetID string, quantity, valuation float64) model.Position {
	t.Helper()

	p := model.Position{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		AssetID:     assetID,
		Quantity:    quantity,
		Valuation:   valuation,
	}
	_, err := db.Exec(`
		INSERT INTO position (id, portfolio_id, asset_id, quantity, valuation)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.PortfolioID, p.AssetID, p.Quantity, p.Valuation)
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}
	return p
}

// CreateTransaction inserts a transaction row directly.
func CreateTransaction(t *testing.T, db *sql.DB, tx model.Transaction) model.Transaction {
	t.Helper()

	if tx.ID == "" {
		tx.ID = MakeID()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	var externalID any
	if tx.ExternalID != "" {
		externalID = tx.ExternalID
	}

	_, err := db.Exec(`
		INSERT INTO "transaction" (id, user_id, position_id, type, external_id, amount, value, fee, priced, date, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.PositionID, tx.Type, externalID,
		tx.Amount, tx.Value, tx.Fee, tx.Priced,
		tx.Date.UTC().Format(time.RFC3339), tx.Comment)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return tx
}
