package coingecko

// MarketData represents one entry of the CoinGecko markets endpoint
// response. Only the fields the tracker consumes are mapped.
type MarketData struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	CurrentPrice float64 `json:"current_price"`
}

// marketChartResponse represents the market_chart/range endpoint response.
// Prices is a series of [unix milliseconds, price] pairs.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}
