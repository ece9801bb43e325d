package request

// ManualTransactionRequest is the payload for a hand-entered transaction.
type ManualTransactionRequest struct {
	Type          string  `json:"type"`
	AssetSymbol   string  `json:"assetSymbol"`
	CounterSymbol string  `json:"counterSymbol,omitempty"`
	Amount        float64 `json:"amount"`
	Fee           float64 `json:"fee,omitempty"`
	Date          string  `json:"date"`
	PortfolioName string  `json:"portfolioName,omitempty"`
	ManualPrice   float64 `json:"manualPrice,omitempty"`
}
