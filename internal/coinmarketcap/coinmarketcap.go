// Package coinmarketcap scrapes current coin data from the CoinMarketCap
// currency pages. It is the fallback provider when the market-data API
// fails or is intentionally bypassed for an asset.
package coinmarketcap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const baseURL = "https://coinmarketcap.com/de/currencies"

// Known markup selectors on the currency page. The price class is
// generated and changes with site releases; keep it in one place.
const (
	priceSelector  = ".sc-f70bb44c-0.jxpCgO.base-text"
	imageSelector  = `[data-role="coin-logo"] img`
	nameSelector   = `[data-role="coin-name"]`
	symbolSelector = `[data-role="coin-symbol"]`
)

// CoinData holds the values extracted from a currency page.
type CoinData struct {
	Name         string
	Symbol       string
	CurrentPrice float64
	Image        string
}

// Client scrapes coin data from CoinMarketCap currency pages.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new scrape client with default HTTP settings.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CoinData fetches and parses the currency page for the given coin slug.
// Returns an error if the page cannot be fetched or any of the expected
// elements (price, name, symbol, image) is missing, so the caller can
// treat partial markup changes as provider failure.
func (c *Client) CoinData(ctx context.Context, slug string) (CoinData, error) {
	pageURL := fmt.Sprintf("%s/%s/", baseURL, url.PathEscape(strings.ToLower(slug)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return CoinData{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CoinData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CoinData{}, fmt.Errorf("coinmarketcap returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return CoinData{}, fmt.Errorf("failed to parse currency page: %w", err)
	}

	return parseCoinPage(doc)
}

func parseCoinPage(doc *goquery.Document) (CoinData, error) {
	priceElement := doc.Find(priceSelector).First()
	if priceElement.Length() == 0 {
		return CoinData{}, fmt.Errorf("price element not found")
	}

	price, err := parsePrice(priceElement.Text())
	if err != nil {
		return CoinData{}, err
	}

	imageElement := doc.Find(imageSelector).First()
	imageSrc, ok := imageElement.Attr("src")
	if !ok {
		return CoinData{}, fmt.Errorf("coin logo element not found")
	}

	nameElement := doc.Find(nameSelector).First()
	if nameElement.Length() == 0 {
		return CoinData{}, fmt.Errorf("coin name element not found")
	}
	// the page renders "Name-SYMBOL"; keep the name part
	name := strings.TrimSpace(strings.Split(nameElement.Text(), "-")[0])

	symbolElement := doc.Find(symbolSelector).First()
	if symbolElement.Length() == 0 {
		return CoinData{}, fmt.Errorf("coin symbol element not found")
	}

	return CoinData{
		Name:         name,
		Symbol:       strings.TrimSpace(symbolElement.Text()),
		CurrentPrice: price,
		Image:        imageSrc,
	}, nil
}

// parsePrice converts the page's localized price text ("€26,342.11") to a float.
func parsePrice(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "€", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	var price float64
	if _, err := fmt.Sscanf(cleaned, "%f", &price); err != nil {
		return 0, fmt.Errorf("could not parse price %q: %w", text, err)
	}

	return price, nil
}
