// Package normalize maps exchange-specific symbols, transaction types and
// payload shapes onto the tracker's canonical vocabulary. Alias tables are
// owned here and loaded once; nothing else in the system may translate
// exchange symbols.
package normalize

import (
	"strings"

	"github.com/kryptotracker/backend/internal/model"
)

// assetAliases maps Kraken asset codes (including staked .S, locked .M
// and X/Z-prefixed legacy variants) many-to-one onto canonical acronyms.
// Unknown symbols pass through unchanged and fail asset lookup downstream
// as a "not found" outcome.
var assetAliases = map[string]string{
	"ADA.S":     "ADA",
	"ALGO.S":    "ALGO",
	"ATOM.S":    "ATOM",
	"ATOM21.S":  "ATOM",
	"DOT.S":     "DOT",
	"DOT28.S":   "DOT",
	"ETH2":      "ETH",
	"ETH2.S":    "ETH",
	"FLOW.S":    "FLOW",
	"FLOW14.S":  "FLOW",
	"FLOWH.S":   "FLOW",
	"FLR.S":     "FLR",
	"GRT.S":     "GRT",
	"GRT28.S":   "GRT",
	"KAVA.S":    "KAVA",
	"KAVA21.S":  "KAVA",
	"KSM.S":     "KSM",
	"KSM07.S":   "KSM",
	"LUNA.S":    "LUNA",
	"MATIC.S":   "MATIC",
	"MATIC04.S": "MATIC",
	"MINA.S":    "MINA",
	"SCRT.S":    "SCRT",
	"SCRT21.S":  "SCRT",
	"SOL.S":     "SOL",
	"SOL03.S":   "SOL",
	"USDC.M":    "USDC",
	"USDT.M":    "USDT",
	"XBT.M":     "BTC",
	"TRX.S":     "TRX",
	"XBT":       "BTC",
	"XETC":      "ETC",
	"XETH":      "ETH",
	"XTZ.S":     "XTZ",
	"XLTC":      "LTC",
	"XMLN":      "MLN",
	"XREP":      "REP",
	"XXBT":      "BTC",
	"XXDG":      "XDG",
	"XXLM":      "XLM",
	"XXMR":      "XMR",
	"XXRP":      "XRP",
	"XZEC":      "ZEC",
	"ZAUD":      "AUD",
	"ZCAD":      "CAD",
	"ZEUR":      "EUR",
	"ZGBP":      "GBP",
	"ZJPY":      "JPY",
	"ZUSD":      "USD",
}

// typeAliases maps Kraken ledger/trade type strings onto the canonical
// taxonomy. Unmapped types pass through unchanged.
var typeAliases = map[string]string{
	"trade":      model.TxTypeTrade,
	"deposit":    model.TxTypeDeposit,
	"withdrawal": model.TxTypeSent,
	"staking":    model.TxTypeReward,
	"earn":       model.TxTypeReward,
	"buy":        model.TxTypeBuy,
	"sell":       model.TxTypeSell,
	"transfer":   model.TxTypeTransfer,
}

// canonicalTypes is the closed set the reconciliation engine understands.
var canonicalTypes = map[string]bool{
	model.TxTypeReward:     true,
	model.TxTypeBuy:        true,
	model.TxTypeSell:       true,
	model.TxTypeTrade:      true,
	model.TxTypeSent:       true,
	model.TxTypeDeposit:    true,
	model.TxTypeWithdrawal: true,
	model.TxTypeTransfer:   true,
}

// CanonicalSymbol resolves an exchange asset code to its canonical
// acronym. Unknown codes are returned unchanged.
func CanonicalSymbol(symbol string) string {
	if canonical, ok := assetAliases[strings.ToUpper(symbol)]; ok {
		return canonical
	}
	return strings.ToUpper(symbol)
}

// CanonicalType resolves an exchange transaction type to the canonical
// taxonomy. Unmapped types are returned unchanged.
func CanonicalType(txType string) string {
	if canonical, ok := typeAliases[strings.ToLower(txType)]; ok {
		return canonical
	}
	return txType
}

// IsCanonicalType reports whether t belongs to the canonical taxonomy.
func IsCanonicalType(t string) bool {
	return canonicalTypes[t]
}
