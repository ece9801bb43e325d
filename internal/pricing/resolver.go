// Package pricing resolves current and historical asset prices through a
// chain of fallible external providers. Every resolution returns either a
// price or an explicit unavailability error; callers inspect the outcome
// and degrade (keep the cached value, mark a transaction unpriced) and a
// provider failure is never fatal to a batch.
package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/coingecko"
	"github.com/kryptotracker/backend/internal/coinmarketcap"
	"github.com/kryptotracker/backend/internal/model"
)

// MarketDataAPI is the primary market-data provider (CoinGecko).
type MarketDataAPI interface {
	CurrentMarketData(ctx context.Context, id, currency string) (coingecko.MarketData, error)
	HistoricalPrice(ctx context.Context, id, currency string, at time.Time) (float64, error)
	SimplePrice(ctx context.Context, baseID, targetSymbol string) (float64, error)
}

// ScrapeAPI is the current-price fallback provider (CoinMarketCap scrape).
type ScrapeAPI interface {
	CoinData(ctx context.Context, slug string) (coinmarketcap.CoinData, error)
}

// HistoricalAPI is the historical-price fallback provider (CryptoCompare).
type HistoricalAPI interface {
	HistoricalPrice(ctx context.Context, symbol, currency string, at time.Time) (float64, error)
}

// AssetStore persists refreshed price caches.
type AssetStore interface {
	UpdatePrice(ctx context.Context, id string, price float64, image string, at time.Time) error
}

// Quote is a successfully resolved current price with provider metadata.
type Quote struct {
	Price  float64
	Name   string
	Symbol string
	Image  string
}

// Override adjusts provider behavior for one asset. ScrapeFirst reverses
// the provider order; ScrapeSlug replaces the scrape page slug when it
// differs from the asset's provider lookup key.
type Override struct {
	ScrapeFirst bool
	ScrapeSlug  string
}

// defaultOverrides carries the per-asset provider priorities. EthereumPoW
// is unreliable on the market-data API, so its price comes from the
// scrape provider under a different page slug.
var defaultOverrides = map[string]Override{
	"ETHW": {ScrapeFirst: true, ScrapeSlug: "ethereum-pow"},
}

// Resolver resolves prices with provider fallback and staleness gating.
type Resolver struct {
	market            MarketDataAPI
	scrape            ScrapeAPI
	historical        HistoricalAPI
	assets            AssetStore
	referenceCurrency string
	freshness         time.Duration
	overrides         map[string]Override
	now               func() time.Time
	log               zerolog.Logger
}

// NewResolver creates a Resolver over the given providers and asset store.
func NewResolver(
	market MarketDataAPI,
	scrape ScrapeAPI,
	historical HistoricalAPI,
	assets AssetStore,
	referenceCurrency string,
	freshness time.Duration,
	log zerolog.Logger,
) *Resolver {
	return &Resolver{
		market:            market,
		scrape:            scrape,
		historical:        historical,
		assets:            assets,
		referenceCurrency: strings.ToUpper(referenceCurrency),
		freshness:         freshness,
		overrides:         defaultOverrides,
		now:               time.Now,
		log:               log.With().Str("component", "pricing").Logger(),
	}
}

// ResolveCurrent returns the asset's current price in the reference
// currency, refreshing the cached value when it is stale. The reference
// currency itself resolves to a unit price with no network call. When
// every provider fails the cached value is kept and
// apperrors.ErrPriceUnavailable is returned.
func (r *Resolver) ResolveCurrent(ctx context.Context, asset model.Asset) (Quote, error) {
	if r.isReference(asset) {
		return Quote{Price: 1.0, Symbol: asset.Acronym}, nil
	}

	if r.fresh(asset) {
		return Quote{Price: asset.CurrentPrice, Symbol: asset.Acronym, Image: asset.Image}, nil
	}

	quote, err := r.fetchCurrent(ctx, asset)
	if err != nil {
		r.log.Warn().Str("asset", asset.Acronym).Err(err).Msg("all current-price sources failed, keeping cached value")
		return Quote{}, apperrors.ErrPriceUnavailable
	}

	if err := r.assets.UpdatePrice(ctx, asset.ID, quote.Price, quote.Image, r.now().UTC()); err != nil {
		r.log.Error().Str("asset", asset.Acronym).Err(err).Msg("failed to persist refreshed price")
	}

	return quote, nil
}

// fetchCurrent runs the provider chain in the order configured for the
// asset, inspecting each typed outcome before trying the next provider.
func (r *Resolver) fetchCurrent(ctx context.Context, asset model.Asset) (Quote, error) {
	override := r.overrides[asset.Acronym]

	if override.ScrapeFirst {
		if quote, err := r.fromScrape(ctx, asset, override); err == nil {
			return quote, nil
		}
		return r.fromMarket(ctx, asset)
	}

	if quote, err := r.fromMarket(ctx, asset); err == nil {
		return quote, nil
	}
	return r.fromScrape(ctx, asset, override)
}

func (r *Resolver) fromMarket(ctx context.Context, asset model.Asset) (Quote, error) {
	data, err := r.market.CurrentMarketData(ctx, asset.APIIDName, r.referenceCurrency)
	if err != nil {
		r.log.Debug().Str("asset", asset.Acronym).Err(err).Msg("market data provider failed")
		return Quote{}, err
	}
	return Quote{
		Price:  data.CurrentPrice,
		Name:   data.Name,
		Symbol: strings.ToUpper(data.Symbol),
		Image:  data.Image,
	}, nil
}

func (r *Resolver) fromScrape(ctx context.Context, asset model.Asset, override Override) (Quote, error) {
	slug := asset.APIIDName
	if override.ScrapeSlug != "" {
		slug = override.ScrapeSlug
	}

	data, err := r.scrape.CoinData(ctx, slug)
	if err != nil {
		r.log.Debug().Str("asset", asset.Acronym).Err(err).Msg("scrape provider failed")
		return Quote{}, err
	}
	return Quote{
		Price:  data.CurrentPrice,
		Name:   data.Name,
		Symbol: strings.ToUpper(data.Symbol),
		Image:  data.Image,
	}, nil
}

// ResolveHistorical returns the asset's price in the reference currency
// at a wall-clock instant, falling back from the primary provider's range
// query to the secondary provider's exact-timestamp lookup. Returns
// apperrors.ErrPriceUnavailable on total failure; the caller decides
// whether to substitute a manual price or persist the row unpriced.
// Never substitutes a nonzero guess.
func (r *Resolver) ResolveHistorical(ctx context.Context, asset model.Asset, at time.Time) (float64, error) {
	if r.isReference(asset) {
		return 1.0, nil
	}

	price, err := r.market.HistoricalPrice(ctx, asset.APIIDName, r.referenceCurrency, at)
	if err == nil {
		return price, nil
	}
	r.log.Debug().Str("asset", asset.Acronym).Time("at", at).Err(err).Msg("primary historical provider failed")

	price, err = r.historical.HistoricalPrice(ctx, asset.Acronym, r.referenceCurrency, at)
	if err == nil {
		return price, nil
	}
	r.log.Warn().Str("asset", asset.Acronym).Time("at", at).Err(err).Msg("all historical price sources failed")

	return 0, apperrors.ErrPriceUnavailable
}

// Convert converts an amount of the base asset into the target asset's
// unit via a spot-rate lookup. Returns
// apperrors.ErrConversionUnavailable when the rate cannot be determined;
// the caller falls back to a user-supplied price or fails the operation.
func (r *Resolver) Convert(ctx context.Context, base, target model.Asset, amount float64) (float64, error) {
	rate, err := r.market.SimplePrice(ctx, base.APIIDName, target.Acronym)
	if err != nil {
		r.log.Debug().
			Str("base", base.Acronym).
			Str("target", target.Acronym).
			Err(err).
			Msg("spot conversion rate lookup failed")
		return 0, apperrors.ErrConversionUnavailable
	}

	return rate * amount, nil
}

// RefreshAll refreshes the current price of every given asset. Lookups
// for different assets run in parallel with a bound; each asset's write
// stays serialized within its own refresh. Unavailable prices are skipped,
// not errors: the cached values simply stay in place.
func (r *Resolver) RefreshAll(ctx context.Context, assets []model.Asset) {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, asset := range assets {
		group.Go(func() error {
			if _, err := r.ResolveCurrent(ctx, asset); err != nil && !errors.Is(err, apperrors.ErrPriceUnavailable) {
				return err
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		r.log.Error().Err(err).Msg("price refresh aborted")
	}
}

// ReferenceCurrency returns the currency every valuation is expressed in.
func (r *Resolver) ReferenceCurrency() string {
	return r.referenceCurrency
}

func (r *Resolver) isReference(asset model.Asset) bool {
	return strings.EqualFold(asset.Acronym, r.referenceCurrency)
}

func (r *Resolver) fresh(asset model.Asset) bool {
	if asset.CurrentPrice == 0 || asset.PriceUpdatedAt.IsZero() {
		return false
	}
	return r.now().Sub(asset.PriceUpdatedAt) < r.freshness
}
