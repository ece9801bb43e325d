// Package cryptocompare implements the secondary historical price
// provider, keyed by symbol and exact timestamp.
package cryptocompare

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

const baseURL = "https://min-api.cryptocompare.com/data"

// Client fetches historical prices from the CryptoCompare API.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new CryptoCompare client with default HTTP settings.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// HistoricalPrice fetches the price of a symbol in the given currency at
// an exact timestamp via the pricehistorical endpoint.
//
// Parameters:
//   - symbol: coin symbol (e.g. "BTC")
//   - currency: reference currency code (e.g. "EUR")
//   - at: the instant to price at
//
// Returns an error on HTTP failure, malformed payload, or a zero price
// (CryptoCompare reports unknown symbols as 0 rather than an error).
func (c *Client) HistoricalPrice(ctx context.Context, symbol, currency string, at time.Time) (float64, error) {
	symbol = strings.ToUpper(symbol)
	currency = strings.ToUpper(currency)
	query := fmt.Sprintf(
		"%s/pricehistorical?fsym=%s&tsyms=%s&ts=%d",
		baseURL, url.QueryEscape(symbol), url.QueryEscape(currency), at.Unix(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("cryptocompare returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var result map[string]map[string]float64
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, fmt.Errorf("failed to decode cryptocompare response: %w", err)
	}

	price, ok := result[symbol][currency]
	if !ok || price == 0 {
		return 0, fmt.Errorf("no %s price returned for %s at %d", currency, symbol, at.Unix())
	}

	return price, nil
}
