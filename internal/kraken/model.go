package kraken

import "encoding/json"

// apiResponse is the envelope every Kraken endpoint responds with.
// Result is decoded per endpoint after the error list is checked.
type apiResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// LedgerEntry represents one entry of the private Ledgers endpoint,
// keyed by an opaque ledger transaction id.
type LedgerEntry struct {
	RefID   string  `json:"refid"`
	Time    float64 `json:"time"` // unix seconds with fraction
	Type    string  `json:"type"`
	Subtype string  `json:"subtype"`
	Asset   string  `json:"asset"`
	Amount  string  `json:"amount"`
	Fee     string  `json:"fee"`
	Balance string  `json:"balance"`
}

// LedgersResult is the result payload of the Ledgers endpoint.
type LedgersResult struct {
	Ledger map[string]LedgerEntry `json:"ledger"`
	Count  int                    `json:"count"`
}

// TradeEntry represents one fill of the private TradesHistory endpoint.
type TradeEntry struct {
	OrderTxID string  `json:"ordertxid"`
	Pair      string  `json:"pair"`
	Time      float64 `json:"time"`
	Type      string  `json:"type"`
	Price     string  `json:"price"`
	Cost      string  `json:"cost"`
	Fee       string  `json:"fee"`
	Vol       string  `json:"vol"`
}

// TradesHistoryResult is the result payload of the TradesHistory endpoint.
type TradesHistoryResult struct {
	Trades map[string]TradeEntry `json:"trades"`
	Count  int                   `json:"count"`
}

// EarnAmount carries a staking allocation total in native units and
// converted into the requested reference currency.
type EarnAmount struct {
	Native    string `json:"native"`
	Converted string `json:"converted"`
}

// EarnAllocation is one allocated staking position.
type EarnAllocation struct {
	NativeAsset     string `json:"native_asset"`
	AmountAllocated struct {
		Total EarnAmount `json:"total"`
	} `json:"amount_allocated"`
}

// EarnAllocationsResult is the result payload of the Earn/Allocations endpoint.
type EarnAllocationsResult struct {
	Items []EarnAllocation `json:"items"`
}

// AssetPair is the exchange-provided metadata for one traded pair. Base
// and Quote carry Kraken's native symbols; splitting a pair code into its
// legs always goes through this table, never string heuristics.
type AssetPair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}
