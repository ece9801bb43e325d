package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const baseURL = "https://api.coingecko.com/api/v3"

// Client provides methods for fetching cryptocurrency market data from the
// CoinGecko API. It wraps an HTTP client and provides convenient methods
// for current prices, historical price windows, and spot conversion rates.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new CoinGecko client with default HTTP settings.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CurrentMarketData fetches current market data (price, name, symbol,
// image) for one coin, priced in the given reference currency.
//
// Parameters:
//   - id: CoinGecko coin id (e.g. "bitcoin")
//   - currency: reference currency code (e.g. "eur")
//
// Returns an error if the HTTP request fails, the payload is malformed,
// or the result set is empty.
func (c *Client) CurrentMarketData(ctx context.Context, id, currency string) (MarketData, error) {
	query := fmt.Sprintf(
		"%s/coins/markets?vs_currency=%s&ids=%s&order=market_cap_desc&per_page=250&page=1&sparkline=false",
		baseURL, strings.ToLower(currency), url.QueryEscape(id),
	)

	var results []MarketData
	if err := c.get(ctx, query, &results); err != nil {
		return MarketData{}, err
	}
	if len(results) == 0 {
		return MarketData{}, fmt.Errorf("no market data returned for %s", id)
	}

	return results[0], nil
}

// HistoricalPrice fetches the price of a coin at a wall-clock instant.
// The instant is widened into a ±5 minute range query against the
// market_chart/range endpoint and the first sample in range is taken.
//
// Returns an error if no sample falls inside the window.
func (c *Client) HistoricalPrice(ctx context.Context, id, currency string, at time.Time) (float64, error) {
	from := at.Add(-5 * time.Minute).Unix()
	to := at.Add(5 * time.Minute).Unix()
	query := fmt.Sprintf(
		"%s/coins/%s/market_chart/range?vs_currency=%s&from=%d&to=%d",
		baseURL, url.PathEscape(strings.ToLower(id)), strings.ToLower(currency), from, to,
	)

	var chart marketChartResponse
	if err := c.get(ctx, query, &chart); err != nil {
		return 0, err
	}
	if len(chart.Prices) == 0 {
		return 0, fmt.Errorf("no price samples for %s around %s", id, at.Format(time.RFC3339))
	}

	return chart.Prices[0][1], nil
}

// SimplePrice fetches the spot rate of one coin expressed in another
// coin's unit via the simple/price endpoint.
//
// Parameters:
//   - baseID: CoinGecko id of the coin to price (e.g. "bitcoin")
//   - targetSymbol: unit to price it in (e.g. "eth")
func (c *Client) SimplePrice(ctx context.Context, baseID, targetSymbol string) (float64, error) {
	query := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=%s",
		baseURL, url.QueryEscape(baseID), url.QueryEscape(strings.ToLower(targetSymbol)),
	)

	var result map[string]map[string]float64
	if err := c.get(ctx, query, &result); err != nil {
		return 0, err
	}

	rate, ok := result[baseID][strings.ToLower(targetSymbol)]
	if !ok {
		return 0, fmt.Errorf("no %s rate returned for %s", targetSymbol, baseID)
	}

	return rate, nil
}

// get executes a GET request and decodes the JSON response into out.
// Non-2xx statuses are errors so the resolver can fall through to the
// next provider.
func (c *Client) get(ctx context.Context, query string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode coingecko response: %w", err)
	}

	return nil
}
