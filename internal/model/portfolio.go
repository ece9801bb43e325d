package model

import "time"

// Portfolio categories. Spot holds liquid balances, staking holds
// locked/earning balances. A user gets at most one portfolio per
// (category, name) pair, created lazily on first need.
const (
	PortfolioTypeSpot    = "spot"
	PortfolioTypeStaking = "staking"
)

// Portfolio is a named bucket of positions scoped to one user and one
// category. Balance is the sum of its positions' valuations in the
// reference currency and must never drift from that sum.
type Portfolio struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"portfolioType"`
	Name      string    `json:"name"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// PortfolioSummary is the dashboard view of one portfolio with its positions.
type PortfolioSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"portfolioType"`
	Balance   float64        `json:"balance"`
	Positions []PositionView `json:"positions"`
}

// DashboardSummary aggregates the per-user headline figures.
type DashboardSummary struct {
	SumBalance       float64        `json:"sumBalance"`
	SpotBalance      float64        `json:"spotBalance"`
	StakingBalance   float64        `json:"stakingBalance"`
	AssetCount       int            `json:"assetCount"`
	TransactionCount int            `json:"transactionCount"`
	FirstTransaction *time.Time     `json:"firstTransaction,omitempty"`
	LastTransaction  *time.Time     `json:"lastTransaction,omitempty"`
	SpotPositions    []PositionView `json:"spotPositions"`
	StakingPositions []PositionView `json:"stakingPositions"`
	LastTransactions []Transaction  `json:"lastTransactions"`
}
