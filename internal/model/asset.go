package model

import "time"

// Asset is the canonical identity of a fungible currency or token.
// Exchange-specific aliases (staked or locked variants such as ETH2.S)
// resolve onto one Asset through the normalizer's alias table.
type Asset struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	APIIDName      string    `json:"apiIdName"` // provider lookup key, e.g. "bitcoin"
	Acronym        string    `json:"acronym"`   // display symbol, e.g. "BTC"
	CurrentPrice   float64   `json:"currentPrice"`
	Image          string    `json:"image,omitempty"`
	PriceUpdatedAt time.Time `json:"priceUpdatedAt"`
}

// Position is the quantity and reference-currency valuation of one asset
// held within one portfolio. Scoped to exactly one (portfolio, asset) pair.
type Position struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	AssetID     string    `json:"assetId"`
	Quantity    float64   `json:"quantity"`
	Valuation   float64   `json:"valuation"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// PositionView is a position enriched with asset display data for the dashboard.
type PositionView struct {
	Acronym   string  `json:"acronym"`
	Image     string  `json:"img,omitempty"`
	Quantity  float64 `json:"amount"`
	Price     float64 `json:"price"`
	Valuation float64 `json:"ownedValue"`
}
