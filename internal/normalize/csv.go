package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/kraken"
)

var ledgerColumns = []string{"txid", "refid", "time", "type", "subtype", "asset", "amount", "fee", "balance"}
var tradeColumns = []string{"txid", "ordertxid", "pair", "time", "type", "price", "cost", "fee", "vol"}

// ParseLedgersCSV parses a Kraken "ledgers" export into normalized rows
// sorted by timestamp. The header is schema-validated first: a file
// missing required columns is rejected wholesale with an error naming
// the missing pieces, before any row is processed.
func ParseLedgersCSV(r io.Reader) ([]Row, error) {
	records, index, err := readCSV(r, ledgerColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if record[index["subtype"]] == "migration" {
			continue
		}

		timestamp, err := parseCSVTime(record[index["time"]])
		if err != nil {
			return nil, fmt.Errorf("ledger row %s: %w", record[index["txid"]], err)
		}

		rows = append(rows, Row{
			ExternalID:  record[index["txid"]],
			RefID:       record[index["refid"]],
			Timestamp:   timestamp,
			Type:        CanonicalType(record[index["type"]]),
			Subtype:     record[index["subtype"]],
			AssetSymbol: CanonicalSymbol(record[index["asset"]]),
			Amount:      parseFloat(record[index["amount"]]),
			Fee:         parseFloat(record[index["fee"]]),
			Balance:     parseFloat(record[index["balance"]]),
		})
	}

	SortRows(rows)
	return rows, nil
}

// ParseTradesCSV parses a Kraken "trades" export into trade entries keyed
// by the fill's transaction id, the id ledger rows reference in their
// refid column. The header is schema-validated like the ledgers export.
func ParseTradesCSV(r io.Reader) (map[string]kraken.TradeEntry, error) {
	records, index, err := readCSV(r, tradeColumns)
	if err != nil {
		return nil, err
	}

	trades := make(map[string]kraken.TradeEntry, len(records))
	for _, record := range records {
		timestamp, err := parseCSVTime(record[index["time"]])
		if err != nil {
			return nil, fmt.Errorf("trade row %s: %w", record[index["txid"]], err)
		}

		trades[record[index["txid"]]] = kraken.TradeEntry{
			OrderTxID: record[index["ordertxid"]],
			Pair:      record[index["pair"]],
			Time:      float64(timestamp.Unix()),
			Type:      record[index["type"]],
			Price:     record[index["price"]],
			Cost:      record[index["cost"]],
			Fee:       record[index["fee"]],
			Vol:       record[index["vol"]],
		}
	}

	return trades, nil
}

// readCSV reads all records and validates that every required column is
// present, returning a column name -> position index.
func readCSV(r io.Reader, required []string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, apperrors.ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.Trim(name, `"`)))] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrMissingColumns, strings.Join(missing, ", "))
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV rows: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, apperrors.ErrEmptyFile
	}

	return records, index, nil
}

// parseCSVTime parses the export's timestamp column. Kraken writes
// "2006-01-02 15:04:05"; RFC3339 is accepted as a fallback.
func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q", s)
	}
	return t.UTC(), nil
}
