package kraken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiURL = "https://api.kraken.com"

// Client defines the interface for fetching account and market data from
// the Kraken exchange. This interface enables dependency injection and
// testing with mock implementations.
type Client interface {
	Balances(ctx context.Context, key, secret string) (map[string]string, error)
	EarnAllocations(ctx context.Context, key, secret, currency string) (EarnAllocationsResult, error)
	Ledgers(ctx context.Context, key, secret string, start int64) (LedgersResult, error)
	TradesHistory(ctx context.Context, key, secret string) (TradesHistoryResult, error)
	AssetPairs(ctx context.Context, pairs []string) (map[string]AssetPair, error)
}

// ExchangeClient provides methods for fetching data from the Kraken API.
// Private endpoints are signed per request with the caller's credential;
// the client itself holds no secrets.
type ExchangeClient struct {
	httpClient *http.Client
}

// NewExchangeClient creates a new Kraken client with default HTTP settings.
func NewExchangeClient() *ExchangeClient {
	return &ExchangeClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Balances fetches spot balances from the private Balance endpoint.
// Dust balances at or below 1e-5 are dropped.
func (c *ExchangeClient) Balances(ctx context.Context, key, secret string) (map[string]string, error) {
	result, err := c.private(ctx, "/0/private/Balance", url.Values{}, key, secret)
	if err != nil {
		return nil, err
	}

	var balances map[string]string
	if err := json.Unmarshal(result, &balances); err != nil {
		return nil, fmt.Errorf("failed to decode balances: %w", err)
	}

	for symbol, balance := range balances {
		quantity, err := strconv.ParseFloat(balance, 64)
		if err != nil || quantity <= 1e-5 {
			delete(balances, symbol)
		}
	}

	return balances, nil
}

// EarnAllocations fetches staking allocations from the private
// Earn/Allocations endpoint, converted into the given reference currency.
func (c *ExchangeClient) EarnAllocations(ctx context.Context, key, secret, currency string) (EarnAllocationsResult, error) {
	data := url.Values{}
	data.Set("converted_asset", strings.ToUpper(currency))
	data.Set("hide_zero_allocations", "true")

	result, err := c.private(ctx, "/0/private/Earn/Allocations", data, key, secret)
	if err != nil {
		return EarnAllocationsResult{}, err
	}

	var allocations EarnAllocationsResult
	if err := json.Unmarshal(result, &allocations); err != nil {
		return EarnAllocationsResult{}, fmt.Errorf("failed to decode earn allocations: %w", err)
	}

	return allocations, nil
}

// Ledgers fetches ledger entries from the private Ledgers endpoint.
// A start timestamp of 0 fetches the full history; anything else fetches
// entries after that unix timestamp, which supports incremental import.
func (c *ExchangeClient) Ledgers(ctx context.Context, key, secret string, start int64) (LedgersResult, error) {
	data := url.Values{}
	if start > 0 {
		data.Set("start", strconv.FormatInt(start, 10))
	}

	result, err := c.private(ctx, "/0/private/Ledgers", data, key, secret)
	if err != nil {
		return LedgersResult{}, err
	}

	var ledgers LedgersResult
	if err := json.Unmarshal(result, &ledgers); err != nil {
		return LedgersResult{}, fmt.Errorf("failed to decode ledgers: %w", err)
	}

	return ledgers, nil
}

// TradesHistory fetches trade fills from the private TradesHistory endpoint.
func (c *ExchangeClient) TradesHistory(ctx context.Context, key, secret string) (TradesHistoryResult, error) {
	result, err := c.private(ctx, "/0/private/TradesHistory", url.Values{}, key, secret)
	if err != nil {
		return TradesHistoryResult{}, err
	}

	var trades TradesHistoryResult
	if err := json.Unmarshal(result, &trades); err != nil {
		return TradesHistoryResult{}, fmt.Errorf("failed to decode trades history: %w", err)
	}

	return trades, nil
}

// AssetPairs fetches pair metadata (base and quote legs) for the given
// pair codes from the public AssetPairs endpoint.
func (c *ExchangeClient) AssetPairs(ctx context.Context, pairs []string) (map[string]AssetPair, error) {
	if len(pairs) == 0 {
		return map[string]AssetPair{}, nil
	}

	query := fmt.Sprintf("%s/0/public/AssetPairs?pair=%s", apiURL, url.QueryEscape(strings.Join(pairs, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	result, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	var assetPairs map[string]AssetPair
	if err := json.Unmarshal(result, &assetPairs); err != nil {
		return nil, fmt.Errorf("failed to decode asset pairs: %w", err)
	}

	return assetPairs, nil
}

// private executes a signed POST request against a private endpoint.
func (c *ExchangeClient) private(ctx context.Context, uriPath string, data url.Values, key, secret string) (json.RawMessage, error) {
	if key == "" || secret == "" {
		return nil, fmt.Errorf("missing API credentials")
	}

	data.Set("nonce", strconv.FormatInt(time.Now().UnixMilli()*1000, 10))

	signature, err := sign(uriPath, data, secret)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+uriPath, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("API-Key", key)
	req.Header.Set("API-Sign", signature)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return decodeEnvelope(body)
}

// decodeEnvelope unwraps Kraken's {error, result} envelope.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode kraken response: %w", err)
	}
	if len(envelope.Error) > 0 {
		return nil, fmt.Errorf("kraken error: %s", strings.Join(envelope.Error, "; "))
	}
	return envelope.Result, nil
}

// sign computes the API-Sign header: HMAC-SHA512 over the URI path and
// the SHA256 of nonce+postdata, keyed with the base64-decoded secret.
func sign(uriPath string, data url.Values, secret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("invalid API secret encoding: %w", err)
	}

	postData := data.Encode()
	digest := sha256.Sum256([]byte(data.Get("nonce") + postData))

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(uriPath))
	mac.Write(digest[:])

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
