package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/repository"
	"github.com/kryptotracker/backend/internal/testutil"
)

// TestTransactionRepository_Dedup tests the external id dedup machinery.
//
// WHY: Idempotent re-import rests entirely on the (user, external_id)
// uniqueness. A silent double insert would double positions downstream.
func TestTransactionRepository_Dedup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	asset := testutil.NewAsset("BTC").Build(t, db)
	portfolio := testutil.NewTestPortfolio("u1").Build(t, db)
	position := testutil.CreatePosition(t, db, portfolio.ID, asset.ID, 1, 25000)

	tx := model.Transaction{
		UserID:     "u1",
		PositionID: position.ID,
		Type:       model.TxTypeDeposit,
		ExternalID: "L1",
		Amount:     1,
		Value:      25000,
		Priced:     true,
		Date:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Insert(context.Background(), &tx); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	exists, err := repo.ExistsByExternalID(context.Background(), "u1", "L1")
	if err != nil {
		t.Fatalf("ExistsByExternalID failed: %v", err)
	}
	if !exists {
		t.Error("Expected L1 to exist")
	}

	// same external id for another user is not a duplicate
	exists, err = repo.ExistsByExternalID(context.Background(), "u2", "L1")
	if err != nil {
		t.Fatalf("ExistsByExternalID failed: %v", err)
	}
	if exists {
		t.Error("External ids are scoped per user")
	}

	// racing insert with the same id maps onto the duplicate sentinel
	dup := tx
	dup.ID = ""
	err = repo.Insert(context.Background(), &dup)
	if !errors.Is(err, apperrors.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry, got %v", err)
	}

	// transactions without an external id never collide
	manual1 := model.Transaction{UserID: "u1", PositionID: position.ID, Type: model.TxTypeBuy, Amount: 1, Date: time.Now().UTC()}
	manual2 := model.Transaction{UserID: "u1", PositionID: position.ID, Type: model.TxTypeBuy, Amount: 2, Date: time.Now().UTC()}
	if err := repo.Insert(context.Background(), &manual1); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.Insert(context.Background(), &manual2); err != nil {
		t.Fatalf("Insert of second manual transaction failed: %v", err)
	}
}

func TestTransactionRepository_ListByTypesAndRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	asset := testutil.NewAsset("ETH").Build(t, db)
	portfolio := testutil.NewTestPortfolio("u1").Staking().Build(t, db)
	position := testutil.CreatePosition(t, db, portfolio.ID, asset.ID, 1, 2000)

	dates := []time.Time{
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		testutil.CreateTransaction(t, db, model.Transaction{
			UserID:     "u1",
			PositionID: position.ID,
			Type:       model.TxTypeReward,
			ExternalID: testutil.MakeID(),
			Amount:     0.01,
			Value:      float64(10 * (i + 1)),
			Date:       d,
		})
	}
	testutil.CreateTransaction(t, db, model.Transaction{
		UserID: "u1", PositionID: position.ID, Type: model.TxTypeSell,
		ExternalID: testutil.MakeID(), Amount: -1, Value: -100,
		Date: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
	})

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)

	rewards, err := repo.ListByTypesAndRange(context.Background(), "u1", []string{model.TxTypeReward}, start, end)
	if err != nil {
		t.Fatalf("ListByTypesAndRange failed: %v", err)
	}
	if len(rewards) != 2 {
		t.Fatalf("Expected 2 rewards in 2023, got %d", len(rewards))
	}
	// chronological order
	if !rewards[0].Date.Before(rewards[1].Date) {
		t.Error("Expected chronological order")
	}
	if rewards[0].AssetSymbol != "ETH" {
		t.Errorf("Expected enriched acronym ETH, got %s", rewards[0].AssetSymbol)
	}
}

func TestTransactionRepository_LatestDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	types := []string{model.TxTypeDeposit, model.TxTypeReward}

	// zero value when nothing imported yet
	latest, err := repo.LatestDate(context.Background(), "u1", types)
	if err != nil {
		t.Fatalf("LatestDate failed: %v", err)
	}
	if !latest.IsZero() {
		t.Errorf("Expected zero time, got %v", latest)
	}

	asset := testutil.NewAsset("BTC").Build(t, db)
	portfolio := testutil.NewTestPortfolio("u1").Build(t, db)
	position := testutil.CreatePosition(t, db, portfolio.ID, asset.ID, 1, 25000)

	newest := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	testutil.CreateTransaction(t, db, model.Transaction{
		UserID: "u1", PositionID: position.ID, Type: model.TxTypeDeposit,
		ExternalID: "L1", Amount: 1, Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	testutil.CreateTransaction(t, db, model.Transaction{
		UserID: "u1", PositionID: position.ID, Type: model.TxTypeReward,
		ExternalID: "L2", Amount: 0.1, Date: newest,
	})

	latest, err = repo.LatestDate(context.Background(), "u1", types)
	if err != nil {
		t.Fatalf("LatestDate failed: %v", err)
	}
	if !latest.Equal(newest) {
		t.Errorf("Expected %v, got %v", newest, latest)
	}
}

// TestTransactionRepository_LatestDateQueryFailure tests that a failed
// watermark query is an error, not a silent restart from the epoch.
func TestTransactionRepository_LatestDateQueryFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	db.Close()

	_, err := repo.LatestDate(context.Background(), "u1", []string{model.TxTypeDeposit})
	if err == nil {
		t.Fatal("Expected error from closed database")
	}
}

func TestTransactionRepository_Stats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	count, first, last, err := repo.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if count != 0 || first != nil || last != nil {
		t.Errorf("Expected empty stats, got %d %v %v", count, first, last)
	}

	asset := testutil.NewAsset("BTC").Build(t, db)
	portfolio := testutil.NewTestPortfolio("u1").Build(t, db)
	position := testutil.CreatePosition(t, db, portfolio.ID, asset.ID, 1, 25000)

	testutil.CreateTransaction(t, db, model.Transaction{
		UserID: "u1", PositionID: position.ID, Type: model.TxTypeDeposit,
		ExternalID: "L1", Amount: 1, Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	count, first, last, err = repo.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if count != 1 || first == nil || last == nil {
		t.Fatalf("Expected 1 transaction with dates, got %d %v %v", count, first, last)
	}
}
