package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kryptotracker/backend/internal/kraken"
)

// StakingAllocation is one staking position reported by the exchange,
// with its quantity in native units and its reference-currency value.
type StakingAllocation struct {
	Symbol    string
	Quantity  float64
	Converted float64
}

// LedgerRows converts a Kraken ledger payload into normalized rows sorted
// by timestamp. Pure internal bookkeeping markers (subtype "migration")
// are dropped before they reach the reconciliation engine.
func LedgerRows(entries map[string]kraken.LedgerEntry) []Row {
	rows := make([]Row, 0, len(entries))
	for txID, entry := range entries {
		if entry.Subtype == "migration" {
			continue
		}

		sec, frac := int64(entry.Time), entry.Time-float64(int64(entry.Time))
		rows = append(rows, Row{
			ExternalID:  txID,
			RefID:       entry.RefID,
			Timestamp:   time.Unix(sec, int64(frac*1e9)).UTC(),
			Type:        CanonicalType(entry.Type),
			Subtype:     entry.Subtype,
			AssetSymbol: CanonicalSymbol(entry.Asset),
			Amount:      parseFloat(entry.Amount),
			Fee:         parseFloat(entry.Fee),
			Balance:     parseFloat(entry.Balance),
		})
	}

	SortRows(rows)
	return rows
}

// dustThreshold is the smallest balance worth tracking. Kraken reports
// residue like 3e-9 BTC after fee rounding.
const dustThreshold = 1e-5

// CleanBalances maps a Kraken balance payload onto canonical symbols.
// Staked (.S) and locked (.M) entries are removed because the staking
// allocation payload already reports them, the KFEE credit token is not
// an ownable asset, and dust below the threshold is dropped.
func CleanBalances(balances map[string]string) map[string]float64 {
	cleaned := make(map[string]float64, len(balances))
	for symbol, balance := range balances {
		if strings.HasSuffix(symbol, ".S") || strings.HasSuffix(symbol, ".M") || symbol == "KFEE" {
			continue
		}
		quantity := parseFloat(balance)
		if quantity <= dustThreshold {
			continue
		}
		cleaned[CanonicalSymbol(symbol)] = quantity
	}
	return cleaned
}

// StakingAllocations extracts the per-asset staking totals from an
// Earn/Allocations payload, with symbols mapped to canonical acronyms.
func StakingAllocations(items []kraken.EarnAllocation) []StakingAllocation {
	allocations := make([]StakingAllocation, 0, len(items))
	for _, item := range items {
		allocations = append(allocations, StakingAllocation{
			Symbol:    CanonicalSymbol(item.NativeAsset),
			Quantity:  parseFloat(item.AmountAllocated.Total.Native),
			Converted: parseFloat(item.AmountAllocated.Total.Converted),
		})
	}
	return allocations
}

// JoinTrades outer-joins ledger rows against trade fills sharing the same
// external id (the ledger refid references the fill's transaction id).
// Joined rows gain the traded pair split into canonical base and counter
// symbols using the exchange-provided pair metadata.
func JoinTrades(rows []Row, trades map[string]kraken.TradeEntry, pairs map[string]kraken.AssetPair) []Row {
	joined := make([]Row, len(rows))
	for i, row := range rows {
		trade, ok := trades[row.RefID]
		if !ok {
			joined[i] = row
			continue
		}

		row.Pair = trade.Pair
		row.Price = parseFloat(trade.Price)
		row.Cost = parseFloat(trade.Cost)
		if pair, ok := pairs[trade.Pair]; ok {
			base := CanonicalSymbol(pair.Base)
			quote := CanonicalSymbol(pair.Quote)
			// Both ledger legs of a fill share the same refid. Only the
			// base leg takes the fill's type and counter symbol; the quote
			// leg keeps its native signed amount so that the pair of rows
			// stays balanced.
			if row.AssetSymbol == base {
				row.CounterSymbol = quote
				if trade.Type != "" {
					row.Type = CanonicalType(trade.Type)
				}
			}
		}
		joined[i] = row
	}
	return joined
}

// PairCodes collects the distinct pair codes of all joined trade rows,
// for one batched AssetPairs metadata lookup.
func PairCodes(trades map[string]kraken.TradeEntry) []string {
	seen := make(map[string]bool)
	codes := make([]string, 0, len(trades))
	for _, trade := range trades {
		if trade.Pair == "" || seen[trade.Pair] {
			continue
		}
		seen[trade.Pair] = true
		codes = append(codes, trade.Pair)
	}
	return codes
}

func parseFloat(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		log.Warn().Str("value", s).Msg("unparseable numeric field in exchange data, using zero")
		return 0
	}
	return value
}
