package reconcile

import "github.com/kryptotracker/backend/internal/model"

// UnresolvedRow captures a ledger row the engine could not apply,
// together with enough diagnostics to fix it by hand.
type UnresolvedRow struct {
	ExternalID string  `json:"external_id"`
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype,omitempty"`
	Symbol     string  `json:"symbol"`
	Amount     float64 `json:"amount"`
	Fee        float64 `json:"fee"`
	Balance    float64 `json:"balance"`
	Reason     string  `json:"reason"`
}

// Result summarizes one reconciliation pass over a batch of rows.
type Result struct {
	Created    []model.Transaction `json:"created"`
	Unresolved []UnresolvedRow     `json:"unresolved"`
	Skipped    int                 `json:"skipped"`
}
