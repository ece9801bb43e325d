package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/kryptotracker/backend/internal/repository"
	"github.com/kryptotracker/backend/internal/testutil"
)

func portfolioBalance(t *testing.T, db *sql.DB, portfolioID string) float64 {
	t.Helper()

	var balance float64
	if err := db.QueryRow(`SELECT balance FROM portfolio WHERE id = ?`, portfolioID).Scan(&balance); err != nil {
		t.Fatalf("Failed to read portfolio balance: %v", err)
	}
	return balance
}

// TestPositionRepository_ApplyDelta tests the atomic position update.
//
// WHY: Every reconciled row funnels through ApplyDelta. The position
// write and the portfolio balance adjustment must commit together, or
// the balance drifts from the sum of valuations.
func TestPositionRepository_ApplyDelta(t *testing.T) {
	t.Run("creates position on first touch and adjusts balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPositionRepository(db)

		asset := testutil.NewAsset("BTC").Build(t, db)
		portfolio := testutil.NewTestPortfolio("u1").Build(t, db)

		p, err := repo.ApplyDelta(context.Background(), portfolio.ID, asset.ID, 0.5, 12500)
		if err != nil {
			t.Fatalf("ApplyDelta failed: %v", err)
		}

		if p.Quantity != 0.5 || p.Valuation != 12500 {
			t.Errorf("Expected quantity 0.5 valuation 12500, got %f %f", p.Quantity, p.Valuation)
		}
		if got := portfolioBalance(t, db, portfolio.ID); got != 12500 {
			t.Errorf("Expected balance 12500, got %f", got)
		}
	})

	t.Run("accumulates deltas on an existing position", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPositionRepository(db)

		asset := testutil.NewAsset("BTC").Build(t, db)
		portfolio := testutil.NewTestPortfolio("u1").Build(t, db)

		if _, err := repo.ApplyDelta(context.Background(), portfolio.ID, asset.ID, 1.0, 25000); err != nil {
			t.Fatalf("ApplyDelta failed: %v", err)
		}
		p, err := repo.ApplyDelta(context.Background(), portfolio.ID, asset.ID, -0.4, -10000)
		if err != nil {
			t.Fatalf("ApplyDelta failed: %v", err)
		}

		if p.Quantity != 0.6 {
			t.Errorf("Expected quantity 0.6, got %f", p.Quantity)
		}
		if got := portfolioBalance(t, db, portfolio.ID); got != 15000 {
			t.Errorf("Expected balance 15000, got %f", got)
		}
	})
}

// TestPositionRepository_SetSnapshot tests absolute overwrites from
// exchange-reported state.
func TestPositionRepository_SetSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPositionRepository(db)

	btc := testutil.NewAsset("BTC").Build(t, db)
	eth := testutil.NewAsset("ETH").Build(t, db)
	portfolio := testutil.NewTestPortfolio("u1").Build(t, db)

	if _, err := repo.SetSnapshot(context.Background(), portfolio.ID, btc.ID, 0.5, 15000); err != nil {
		t.Fatalf("SetSnapshot failed: %v", err)
	}
	if _, err := repo.SetSnapshot(context.Background(), portfolio.ID, eth.ID, 2, 4000); err != nil {
		t.Fatalf("SetSnapshot failed: %v", err)
	}

	// balance re-derived as the sum of all valuations
	if got := portfolioBalance(t, db, portfolio.ID); got != 19000 {
		t.Errorf("Expected balance 19000, got %f", got)
	}

	// overwriting replaces, never accumulates
	if _, err := repo.SetSnapshot(context.Background(), portfolio.ID, btc.ID, 0.2, 6000); err != nil {
		t.Fatalf("SetSnapshot failed: %v", err)
	}
	if got := portfolioBalance(t, db, portfolio.ID); got != 10000 {
		t.Errorf("Expected balance 10000 after overwrite, got %f", got)
	}

	p, err := repo.GetPosition(context.Background(), portfolio.ID, btc.ID)
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if p.Quantity != 0.2 {
		t.Errorf("Expected quantity 0.2, got %f", p.Quantity)
	}
}

func TestPositionRepository_ListViews(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPositionRepository(db)

	btc := testutil.NewAsset("BTC").WithPrice(30000).Build(t, db)
	eth := testutil.NewAsset("ETH").WithPrice(2000).Build(t, db)
	disposed := testutil.NewAsset("XRP").Build(t, db)
	portfolio := testutil.NewTestPortfolio("u1").Build(t, db)

	testutil.CreatePosition(t, db, portfolio.ID, btc.ID, 0.5, 15000)
	testutil.CreatePosition(t, db, portfolio.ID, eth.ID, 2, 4000)
	testutil.CreatePosition(t, db, portfolio.ID, disposed.ID, 0, 0)

	views, err := repo.ListViews(context.Background(), portfolio.ID)
	if err != nil {
		t.Fatalf("ListViews failed: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("Expected 2 views (zero-quantity filtered), got %d", len(views))
	}
	// largest valuation first
	if views[0].Acronym != "BTC" || views[1].Acronym != "ETH" {
		t.Errorf("Unexpected order: %s, %s", views[0].Acronym, views[1].Acronym)
	}
	if views[0].Price != 30000 || views[0].Valuation != 15000 {
		t.Errorf("Unexpected view: %+v", views[0])
	}
}
