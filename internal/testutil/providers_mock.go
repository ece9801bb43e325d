package testutil

import (
	"context"
	"time"

	"github.com/kryptotracker/backend/internal/coingecko"
	"github.com/kryptotracker/backend/internal/coinmarketcap"
)

// MockMarketAPI is a mock implementation of pricing.MarketDataAPI.
// It returns predefined data instead of calling the provider.
type MockMarketAPI struct {
	// MarketData is returned from CurrentMarketData, keyed by provider id
	MarketData map[string]coingecko.MarketData
	// HistoricalPrices is returned from HistoricalPrice, keyed by provider id
	HistoricalPrices map[string]float64
	// Rates is returned from SimplePrice, keyed by "baseID/targetSymbol"
	Rates map[string]float64
	// Err, when set, is returned from every method
	Err error
	// CurrentCalls tracks CurrentMarketData invocations
	CurrentCalls int
}

// CurrentMarketData returns the configured market data for one id.
func (m *MockMarketAPI) CurrentMarketData(_ context.Context, id, _ string) (coingecko.MarketData, error) {
	m.CurrentCalls++
	if m.Err != nil {
		return coingecko.MarketData{}, m.Err
	}
	data, ok := m.MarketData[id]
	if !ok {
		return coingecko.MarketData{}, ErrMockNotFound
	}
	return data, nil
}

// HistoricalPrice returns the configured historical price for one id.
func (m *MockMarketAPI) HistoricalPrice(_ context.Context, id, _ string, _ time.Time) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	price, ok := m.HistoricalPrices[id]
	if !ok {
		return 0, ErrMockNotFound
	}
	return price, nil
}

// SimplePrice returns the configured conversion rate.
func (m *MockMarketAPI) SimplePrice(_ context.Context, baseID, targetSymbol string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	rate, ok := m.Rates[baseID+"/"+targetSymbol]
	if !ok {
		return 0, ErrMockNotFound
	}
	return rate, nil
}

// MockScrapeAPI is a mock implementation of pricing.ScrapeAPI.
type MockScrapeAPI struct {
	// Coins is returned from CoinData, keyed by page slug
	Coins map[string]coinmarketcap.CoinData
	// Err, when set, is returned from every call
	Err error
	// Calls tracks CoinData invocations
	Calls int
}

// CoinData returns the configured scrape data for one slug.
func (m *MockScrapeAPI) CoinData(_ context.Context, slug string) (coinmarketcap.CoinData, error) {
	m.Calls++
	if m.Err != nil {
		return coinmarketcap.CoinData{}, m.Err
	}
	data, ok := m.Coins[slug]
	if !ok {
		return coinmarketcap.CoinData{}, ErrMockNotFound
	}
	return data, nil
}

// MockHistoricalAPI is a mock implementation of pricing.HistoricalAPI.
type MockHistoricalAPI struct {
	// Prices is returned from HistoricalPrice, keyed by symbol
	Prices map[string]float64
	// Err, when set, is returned from every call
	Err error
}

// HistoricalPrice returns the configured price for one symbol.
func (m *MockHistoricalAPI) HistoricalPrice(_ context.Context, symbol, _ string, _ time.Time) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return 0, ErrMockNotFound
	}
	return price, nil
}
