package reconcile

import (
	"context"
	"time"

	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/pricing"
)

// AssetRepository resolves canonical assets. The engine holds no global
// state; repositories are injected and replaceable with in-memory fakes.
type AssetRepository interface {
	GetByAcronym(ctx context.Context, acronym string) (model.Asset, error)
}

// PortfolioRepository provides lazily created per-user portfolios.
type PortfolioRepository interface {
	GetOrCreate(ctx context.Context, userID, portfolioType, name string) (model.Portfolio, error)
}

// PositionLedger applies signed deltas to positions atomically with the
// owning portfolio's balance.
type PositionLedger interface {
	ApplyDelta(ctx context.Context, portfolioID, assetID string, quantityDelta, valuationDelta float64) (model.Position, error)
}

// TransactionRepository provides the dedup check and append-only writes.
type TransactionRepository interface {
	ExistsByExternalID(ctx context.Context, userID, externalID string) (bool, error)
	Insert(ctx context.Context, t *model.Transaction) error
}

// PriceResolver resolves current and historical prices and spot
// conversion rates.
type PriceResolver interface {
	ResolveCurrent(ctx context.Context, asset model.Asset) (pricing.Quote, error)
	ResolveHistorical(ctx context.Context, asset model.Asset, at time.Time) (float64, error)
	Convert(ctx context.Context, base, target model.Asset, amount float64) (float64, error)
}
