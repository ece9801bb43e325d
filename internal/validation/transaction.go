package validation

import (
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/normalize"
)

// ValidateManualTransaction checks a hand-entered transaction before it
// reaches the reconciliation engine. Trades additionally need a counter
// symbol for the second leg.
func ValidateManualTransaction(txType, assetSymbol, counterSymbol string, amount float64) error {
	fields := map[string]string{}

	canonical := normalize.CanonicalType(txType)
	if !normalize.IsCanonicalType(canonical) {
		fields["type"] = "unknown transaction type"
	}
	if assetSymbol == "" {
		fields["assetSymbol"] = "asset symbol is required"
	}
	if amount == 0 {
		fields["amount"] = "amount must be nonzero"
	}
	if canonical == model.TxTypeTrade && counterSymbol == "" {
		fields["counterSymbol"] = "trades require a counter symbol"
	}

	if len(fields) > 0 {
		return &Error{Fields: fields}
	}
	return nil
}
