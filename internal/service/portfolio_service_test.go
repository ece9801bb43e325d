package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/testutil"
)

func TestPortfolioSummaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)

	btc := testutil.NewAsset("BTC").WithPrice(25000).Build(t, db)
	spot := testutil.NewTestPortfolio("u1").WithBalance(12500).Build(t, db)
	testutil.CreatePosition(t, db, spot.ID, btc.ID, 0.5, 12500)

	// another user's portfolio must not leak in
	testutil.NewTestPortfolio("u2").Build(t, db)

	summaries, err := svc.Summaries(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, spot.ID, summaries[0].ID)
	assert.Equal(t, model.PortfolioTypeSpot, summaries[0].Type)
	require.Len(t, summaries[0].Positions, 1)
	assert.Equal(t, "BTC", summaries[0].Positions[0].Acronym)
}

func TestPortfolioSummaryNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)

	_, err := svc.Summary(context.Background(), testutil.MakeID())
	assert.True(t, errors.Is(err, apperrors.ErrPortfolioNotFound))
}

// TestDashboard tests the headline aggregation across spot and staking
// portfolios.
func TestDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)

	btc := testutil.NewAsset("BTC").WithPrice(25000).Build(t, db)
	eth := testutil.NewAsset("ETH").WithPrice(2000).Build(t, db)

	spot := testutil.NewTestPortfolio("u1").WithBalance(12500).Build(t, db)
	staking := testutil.NewTestPortfolio("u1").Staking().WithBalance(4000).Build(t, db)

	testutil.CreatePosition(t, db, spot.ID, btc.ID, 0.5, 12500)
	testutil.CreatePosition(t, db, staking.ID, eth.ID, 2, 4000)

	position := testutil.CreatePosition(t, db, spot.ID, eth.ID, 1, 2000)
	for i := 0; i < 3; i++ {
		testutil.CreateTransaction(t, db, model.Transaction{
			UserID: "u1", PositionID: position.ID, Type: model.TxTypeDeposit,
			ExternalID: testutil.MakeID(), Amount: 1, Value: 2000,
			Date: time.Date(2023, 6, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}

	summary, err := svc.Dashboard(context.Background(), "u1")
	require.NoError(t, err)

	assert.InDelta(t, 16500, summary.SumBalance, 1e-9)
	assert.InDelta(t, 12500, summary.SpotBalance, 1e-9)
	assert.InDelta(t, 4000, summary.StakingBalance, 1e-9)
	assert.Equal(t, 2, summary.AssetCount, "ETH held in two portfolios counts once")
	assert.Len(t, summary.SpotPositions, 2)
	assert.Len(t, summary.StakingPositions, 1)

	assert.Equal(t, 3, summary.TransactionCount)
	require.NotNil(t, summary.FirstTransaction)
	require.NotNil(t, summary.LastTransaction)
	assert.True(t, summary.FirstTransaction.Before(*summary.LastTransaction))
	require.Len(t, summary.LastTransactions, 3)
	// recent activity lists newest first
	assert.True(t, summary.LastTransactions[0].Date.After(summary.LastTransactions[2].Date))
}

// TestPortfolioServiceQueryFailures tests that storage failures surface
// as the catalog sentinels rather than raw driver errors.
func TestPortfolioServiceQueryFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)
	db.Close()

	_, err := svc.Summaries(context.Background(), "u1")
	assert.True(t, errors.Is(err, apperrors.ErrFailedToRetrievePortfolios))

	_, err = svc.Dashboard(context.Background(), "u1")
	assert.True(t, errors.Is(err, apperrors.ErrFailedToRetrievePortfolios))

	_, err = svc.Transactions(context.Background(), "u1")
	assert.True(t, errors.Is(err, apperrors.ErrFailedToRetrieveTransactions))
}

func TestDashboardEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)

	summary, err := svc.Dashboard(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, summary.SumBalance)
	assert.Zero(t, summary.AssetCount)
	assert.Empty(t, summary.SpotPositions)
	assert.Empty(t, summary.LastTransactions)
}
