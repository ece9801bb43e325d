package normalize

import (
	"testing"

	"github.com/kryptotracker/backend/internal/model"
)

// TestCanonicalSymbol tests the exchange symbol alias table.
//
// WHY: Every quantity in the system is keyed by canonical acronym. A
// staked variant that fails to collapse onto its base asset would split
// one holding across two assets.
func TestCanonicalSymbol(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"XXBT", "BTC"},
		{"XBT", "BTC"},
		{"XBT.M", "BTC"},
		{"ETH2.S", "ETH"},
		{"ETH2", "ETH"},
		{"XETH", "ETH"},
		{"ZEUR", "EUR"},
		{"ZUSD", "USD"},
		{"DOT28.S", "DOT"},
		{"ADA.S", "ADA"},
		{"eth2.s", "ETH"},  // case-insensitive
		{"PEPE", "PEPE"},   // unknown passes through
		{"sol", "SOL"},     // unknown, uppercased
	}

	for _, c := range cases {
		if got := CanonicalSymbol(c.in); got != c.want {
			t.Errorf("CanonicalSymbol(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestCanonicalType tests the transaction type alias table.
func TestCanonicalType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trade", model.TxTypeTrade},
		{"deposit", model.TxTypeDeposit},
		{"withdrawal", model.TxTypeSent},
		{"staking", model.TxTypeReward},
		{"earn", model.TxTypeReward},
		{"buy", model.TxTypeBuy},
		{"sell", model.TxTypeSell},
		{"transfer", model.TxTypeTransfer},
		{"Staking", model.TxTypeReward}, // case-insensitive
		{"airdrop", "airdrop"},          // unmapped passes through
	}

	for _, c := range cases {
		if got := CanonicalType(c.in); got != c.want {
			t.Errorf("CanonicalType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsCanonicalType(t *testing.T) {
	if !IsCanonicalType(model.TxTypeReward) {
		t.Error("Reward should be canonical")
	}
	if IsCanonicalType("airdrop") {
		t.Error("airdrop should not be canonical")
	}
	if IsCanonicalType("staking") {
		t.Error("exchange-native type strings are not canonical")
	}
}
