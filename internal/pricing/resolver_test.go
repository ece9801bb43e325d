package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/coingecko"
	"github.com/kryptotracker/backend/internal/coinmarketcap"
	"github.com/kryptotracker/backend/internal/model"
)

var errProviderDown = errors.New("provider down")

type fakeMarket struct {
	data       map[string]coingecko.MarketData
	historical map[string]float64
	rates      map[string]float64
	err        error
	calls      int
}

func (f *fakeMarket) CurrentMarketData(_ context.Context, id, _ string) (coingecko.MarketData, error) {
	f.calls++
	if f.err != nil {
		return coingecko.MarketData{}, f.err
	}
	d, ok := f.data[id]
	if !ok {
		return coingecko.MarketData{}, errProviderDown
	}
	return d, nil
}

func (f *fakeMarket) HistoricalPrice(_ context.Context, id, _ string, _ time.Time) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	p, ok := f.historical[id]
	if !ok {
		return 0, errProviderDown
	}
	return p, nil
}

func (f *fakeMarket) SimplePrice(_ context.Context, baseID, target string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	r, ok := f.rates[baseID+"/"+target]
	if !ok {
		return 0, errProviderDown
	}
	return r, nil
}

type fakeScrape struct {
	coins map[string]coinmarketcap.CoinData
	err   error
	calls int
}

func (f *fakeScrape) CoinData(_ context.Context, slug string) (coinmarketcap.CoinData, error) {
	f.calls++
	if f.err != nil {
		return coinmarketcap.CoinData{}, f.err
	}
	d, ok := f.coins[slug]
	if !ok {
		return coinmarketcap.CoinData{}, errProviderDown
	}
	return d, nil
}

type fakeHistorical struct {
	prices map[string]float64
	err    error
}

func (f *fakeHistorical) HistoricalPrice(_ context.Context, symbol, _ string, _ time.Time) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return 0, errProviderDown
	}
	return p, nil
}

type fakeStore struct {
	updates map[string]float64
}

func (f *fakeStore) UpdatePrice(_ context.Context, id string, price float64, _ string, _ time.Time) error {
	if f.updates == nil {
		f.updates = map[string]float64{}
	}
	f.updates[id] = price
	return nil
}

func newTestResolver(market *fakeMarket, scrape *fakeScrape, historical *fakeHistorical, store *fakeStore) *Resolver {
	r := NewResolver(market, scrape, historical, store, "EUR", 30*time.Minute, zerolog.Nop())
	r.now = func() time.Time { return time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestResolveCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("reference currency is a unit price without provider calls", func(t *testing.T) {
		market := &fakeMarket{}
		r := newTestResolver(market, &fakeScrape{}, &fakeHistorical{}, &fakeStore{})

		quote, err := r.ResolveCurrent(ctx, model.Asset{Acronym: "EUR"})

		require.NoError(t, err)
		assert.Equal(t, 1.0, quote.Price)
		assert.Zero(t, market.calls)
	})

	t.Run("fresh nonzero cache short-circuits the providers", func(t *testing.T) {
		market := &fakeMarket{}
		r := newTestResolver(market, &fakeScrape{}, &fakeHistorical{}, &fakeStore{})

		asset := model.Asset{
			Acronym:        "BTC",
			APIIDName:      "bitcoin",
			CurrentPrice:   25000,
			PriceUpdatedAt: time.Date(2023, 6, 1, 11, 45, 0, 0, time.UTC), // 15 min old
		}
		quote, err := r.ResolveCurrent(ctx, asset)

		require.NoError(t, err)
		assert.Equal(t, 25000.0, quote.Price)
		assert.Zero(t, market.calls)
	})

	t.Run("zero cached price is never considered fresh", func(t *testing.T) {
		market := &fakeMarket{data: map[string]coingecko.MarketData{
			"bitcoin": {CurrentPrice: 26000, Symbol: "btc"},
		}}
		store := &fakeStore{}
		r := newTestResolver(market, &fakeScrape{}, &fakeHistorical{}, store)

		asset := model.Asset{
			Acronym:        "BTC",
			APIIDName:      "bitcoin",
			CurrentPrice:   0,
			PriceUpdatedAt: time.Date(2023, 6, 1, 11, 55, 0, 0, time.UTC),
		}
		quote, err := r.ResolveCurrent(ctx, asset)

		require.NoError(t, err)
		assert.Equal(t, 26000.0, quote.Price)
		assert.Equal(t, 26000.0, store.updates[asset.ID])
	})

	t.Run("stale cache refreshes and persists", func(t *testing.T) {
		market := &fakeMarket{data: map[string]coingecko.MarketData{
			"bitcoin": {CurrentPrice: 27000, Symbol: "btc", Image: "btc.png"},
		}}
		store := &fakeStore{}
		r := newTestResolver(market, &fakeScrape{}, &fakeHistorical{}, store)

		asset := model.Asset{
			ID:             "a1",
			Acronym:        "BTC",
			APIIDName:      "bitcoin",
			CurrentPrice:   25000,
			PriceUpdatedAt: time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), // 2 h old
		}
		quote, err := r.ResolveCurrent(ctx, asset)

		require.NoError(t, err)
		assert.Equal(t, 27000.0, quote.Price)
		assert.Equal(t, 27000.0, store.updates["a1"])
	})

	t.Run("falls back to the scrape provider when market data fails", func(t *testing.T) {
		market := &fakeMarket{err: errProviderDown}
		scrape := &fakeScrape{coins: map[string]coinmarketcap.CoinData{
			"bitcoin": {CurrentPrice: 27500, Symbol: "btc"},
		}}
		r := newTestResolver(market, scrape, &fakeHistorical{}, &fakeStore{})

		quote, err := r.ResolveCurrent(ctx, model.Asset{Acronym: "BTC", APIIDName: "bitcoin"})

		require.NoError(t, err)
		assert.Equal(t, 27500.0, quote.Price)
		assert.Equal(t, 1, scrape.calls)
	})

	t.Run("scrape-first override reverses the provider order", func(t *testing.T) {
		market := &fakeMarket{data: map[string]coingecko.MarketData{
			"ethereum-pow-iou": {CurrentPrice: 3, Symbol: "ethw"},
		}}
		scrape := &fakeScrape{coins: map[string]coinmarketcap.CoinData{
			"ethereum-pow": {CurrentPrice: 2.5, Symbol: "ethw"},
		}}
		r := newTestResolver(market, scrape, &fakeHistorical{}, &fakeStore{})

		quote, err := r.ResolveCurrent(ctx, model.Asset{Acronym: "ETHW", APIIDName: "ethereum-pow-iou"})

		require.NoError(t, err)
		assert.Equal(t, 2.5, quote.Price)
		assert.Zero(t, market.calls)
	})

	t.Run("total failure keeps the cache and returns the sentinel", func(t *testing.T) {
		market := &fakeMarket{err: errProviderDown}
		scrape := &fakeScrape{err: errProviderDown}
		store := &fakeStore{}
		r := newTestResolver(market, scrape, &fakeHistorical{}, store)

		_, err := r.ResolveCurrent(ctx, model.Asset{Acronym: "BTC", APIIDName: "bitcoin"})

		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
		assert.Empty(t, store.updates)
	})
}

func TestResolveHistorical(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC)

	t.Run("primary provider answers", func(t *testing.T) {
		market := &fakeMarket{historical: map[string]float64{"bitcoin": 21000}}
		r := newTestResolver(market, &fakeScrape{}, &fakeHistorical{}, &fakeStore{})

		price, err := r.ResolveHistorical(ctx, model.Asset{Acronym: "BTC", APIIDName: "bitcoin"}, at)

		require.NoError(t, err)
		assert.Equal(t, 21000.0, price)
	})

	t.Run("secondary provider answers when the primary fails", func(t *testing.T) {
		market := &fakeMarket{err: errProviderDown}
		historical := &fakeHistorical{prices: map[string]float64{"BTC": 20500}}
		r := newTestResolver(market, &fakeScrape{}, historical, &fakeStore{})

		price, err := r.ResolveHistorical(ctx, model.Asset{Acronym: "BTC", APIIDName: "bitcoin"}, at)

		require.NoError(t, err)
		assert.Equal(t, 20500.0, price)
	})

	t.Run("total failure returns the sentinel, never a guess", func(t *testing.T) {
		r := newTestResolver(&fakeMarket{err: errProviderDown}, &fakeScrape{}, &fakeHistorical{err: errProviderDown}, &fakeStore{})

		price, err := r.ResolveHistorical(ctx, model.Asset{Acronym: "BTC", APIIDName: "bitcoin"}, at)

		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
		assert.Zero(t, price)
	})

	t.Run("reference currency is a unit price", func(t *testing.T) {
		r := newTestResolver(&fakeMarket{}, &fakeScrape{}, &fakeHistorical{}, &fakeStore{})

		price, err := r.ResolveHistorical(ctx, model.Asset{Acronym: "EUR"}, at)

		require.NoError(t, err)
		assert.Equal(t, 1.0, price)
	})
}

func TestConvert(t *testing.T) {
	ctx := context.Background()

	t.Run("converts through the spot rate", func(t *testing.T) {
		market := &fakeMarket{rates: map[string]float64{"bitcoin/ETH": 15}}
		r := newTestResolver(market, &fakeScrape{}, &fakeHistorical{}, &fakeStore{})

		amount, err := r.Convert(ctx,
			model.Asset{Acronym: "BTC", APIIDName: "bitcoin"},
			model.Asset{Acronym: "ETH", APIIDName: "ethereum"},
			0.5)

		require.NoError(t, err)
		assert.Equal(t, 7.5, amount)
	})

	t.Run("missing rate returns the conversion sentinel", func(t *testing.T) {
		r := newTestResolver(&fakeMarket{err: errProviderDown}, &fakeScrape{}, &fakeHistorical{}, &fakeStore{})

		_, err := r.Convert(ctx,
			model.Asset{Acronym: "BTC", APIIDName: "bitcoin"},
			model.Asset{Acronym: "ETH", APIIDName: "ethereum"},
			0.5)

		assert.ErrorIs(t, err, apperrors.ErrConversionUnavailable)
	})
}
