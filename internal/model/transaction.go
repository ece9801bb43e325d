package model

import "time"

// Canonical transaction types. Exchange-native type strings map onto
// these through the normalizer's type alias table.
const (
	TxTypeReward     = "Reward"
	TxTypeBuy        = "Buy"
	TxTypeSell       = "Sell"
	TxTypeTrade      = "Trade"
	TxTypeSent       = "Sent"
	TxTypeDeposit    = "Deposit"
	TxTypeWithdrawal = "Withdrawal"
	TxTypeTransfer   = "Transfer"
)

// Transaction is an immutable historical record emitted by the
// reconciliation engine. ExternalID scoped to a user is the dedup key:
// a second row with the same id is a no-op on re-import. Priced reports
// whether a historical price was successfully resolved; unpriced
// transactions carry a best-effort value and can be backfilled later
// without duplicating the row.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	PositionID  string    `json:"positionId"`
	Type        string    `json:"type"`
	ExternalID  string    `json:"externalId,omitempty"`
	Amount      float64   `json:"amount"` // signed per type convention
	Value       float64   `json:"value"`  // reference currency at tx time
	Fee         float64   `json:"fee"`
	Priced      bool      `json:"priced"`
	Date        time.Time `json:"date"`
	Comment     string    `json:"comment,omitempty"`
	AssetSymbol string    `json:"assetSymbol,omitempty"` // enriched for responses
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}
