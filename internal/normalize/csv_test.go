package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

const ledgerExport = `"txid","refid","time","type","subtype","asset","amount","fee","balance"
"L2","T2","2023-02-01 10:00:00","staking","","ETH2.S","0.05","0","1.05"
"L1","T1","2023-01-15 09:30:00","deposit","","ZEUR","1000","0","1000"
"L3","T3","2023-03-01 12:00:00","transfer","migration","ETH","1.0","0","1.0"
`

const tradesExport = `"txid","ordertxid","pair","time","type","ordertype","price","cost","fee","vol"
"T9","O1","XXBTZEUR","2023-01-20 14:00:00","buy","limit","20000","2000","5","0.1"
`

// TestParseLedgersCSV tests the ledger export parser.
//
// WHY: Uploaded files are the main manual entry path into the system.
// Rows must come out canonical, sorted, and with internal bookkeeping
// markers stripped.
func TestParseLedgersCSV(t *testing.T) {
	t.Run("parses and sorts rows, drops migration markers", func(t *testing.T) {
		rows, err := ParseLedgersCSV(strings.NewReader(ledgerExport))
		if err != nil {
			t.Fatalf("ParseLedgersCSV failed: %v", err)
		}

		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows (migration dropped), got %d", len(rows))
		}

		// Chronological order regardless of file order
		if rows[0].ExternalID != "L1" || rows[1].ExternalID != "L2" {
			t.Errorf("Rows not sorted by timestamp: %s, %s", rows[0].ExternalID, rows[1].ExternalID)
		}

		if rows[0].Type != model.TxTypeDeposit || rows[0].AssetSymbol != "EUR" {
			t.Errorf("First row not canonical: type=%s asset=%s", rows[0].Type, rows[0].AssetSymbol)
		}
		if rows[1].Type != model.TxTypeReward || rows[1].AssetSymbol != "ETH" {
			t.Errorf("Staking row not canonical: type=%s asset=%s", rows[1].Type, rows[1].AssetSymbol)
		}
		if rows[0].Amount != 1000 {
			t.Errorf("Expected amount 1000, got %f", rows[0].Amount)
		}
	})

	t.Run("rejects file with missing columns and names them", func(t *testing.T) {
		_, err := ParseLedgersCSV(strings.NewReader("txid,time,type\nL1,2023-01-01 00:00:00,deposit\n"))
		if !errors.Is(err, apperrors.ErrMissingColumns) {
			t.Fatalf("Expected ErrMissingColumns, got %v", err)
		}
		for _, col := range []string{"refid", "asset", "amount"} {
			if !strings.Contains(err.Error(), col) {
				t.Errorf("Error should name missing column %q: %v", col, err)
			}
		}
	})

	t.Run("rejects empty file", func(t *testing.T) {
		_, err := ParseLedgersCSV(strings.NewReader(""))
		if !errors.Is(err, apperrors.ErrEmptyFile) {
			t.Fatalf("Expected ErrEmptyFile, got %v", err)
		}
	})

	t.Run("rejects header-only file", func(t *testing.T) {
		_, err := ParseLedgersCSV(strings.NewReader("txid,refid,time,type,subtype,asset,amount,fee,balance\n"))
		if !errors.Is(err, apperrors.ErrEmptyFile) {
			t.Fatalf("Expected ErrEmptyFile, got %v", err)
		}
	})
}

func TestParseTradesCSV(t *testing.T) {
	trades, err := ParseTradesCSV(strings.NewReader(tradesExport))
	if err != nil {
		t.Fatalf("ParseTradesCSV failed: %v", err)
	}

	fill, ok := trades["T9"]
	if !ok {
		t.Fatal("Expected fill keyed by txid T9")
	}
	if fill.Pair != "XXBTZEUR" || fill.Type != "buy" || fill.Price != "20000" {
		t.Errorf("Unexpected fill: %+v", fill)
	}
}
