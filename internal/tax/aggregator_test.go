package tax_test

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

// TestAggregateTotals tests the period fold over a small transaction
// history.
//
// WHY: Reward income and disposal proceeds feed a tax declaration.
// Wrong totals here are not a display bug, they are a filing error.
func TestAggregateTotals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	agg := testutil.NewTestAggregator(t, db)

	asset := testutil.NewAsset("ETH").Build(t, db)
	portfolio := testutil.NewTestPortfolio("u1").Staking().Build(t, db)
	position := testutil.CreatePosition(t, db, portfolio.ID, asset.ID, 1, 2000)

	seed := []model.Transaction{
		{Type: model.TxTypeReward, Amount: 0.01, Value: 18, Fee: 0.5,
			Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Type: model.TxTypeReward, Amount: 0.02, Value: 40, Fee: 1,
			Date: time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)},
		// disposals carry negative values under the outflow sign convention
		{Type: model.TxTypeSell, Amount: -0.5, Value: -900, Fee: 2,
			Date: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{Type: model.TxTypeTrade, Amount: -0.1, Value: -180, Fee: 0.3,
			Date: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)},
		// outside the period, must not count
		{Type: model.TxTypeReward, Amount: 1, Value: 999,
			Date: time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC)},
		// deposits are not taxable events
		{Type: model.TxTypeDeposit, Amount: 1, Value: 2000,
			Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tx := range seed {
		tx.UserID = "u1"
		tx.PositionID = position.ID
		tx.ExternalID = testutil.MakeID()
		testutil.CreateTransaction(t, db, tx)
	}

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)

	summary, err := agg.Aggregate(context.Background(), "u1", start, end)
	require.NoError(t, err)

	assert.InDelta(t, 58.0, summary.Report.RewardTotal, 1e-9)
	assert.InDelta(t, 1.5, summary.Report.RewardFeeTotal, 1e-9)
	assert.InDelta(t, 1080.0, summary.Report.TradeTotal, 1e-9, "proceeds are absolute values")
	assert.InDelta(t, 2.3, summary.Report.TradeFeeTotal, 1e-9)
	assert.Len(t, summary.RewardItems, 2)
	assert.Len(t, summary.TradeItems, 2)
	assert.False(t, summary.Report.GeneratedAt.IsZero())
}

// TestAggregatePersists tests that generated reports are stored and
// retrievable per user.
func TestAggregatePersists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	agg := testutil.NewTestAggregator(t, db)

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	summary, err := agg.Aggregate(context.Background(), "u1", start, end)
	require.NoError(t, err)

	reports, err := agg.Reports(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, summary.Report.ID, reports[0].ID)

	got, err := agg.Report(context.Background(), "u1", summary.Report.ID)
	require.NoError(t, err)
	assert.True(t, got.PeriodStart.Equal(start))
	assert.True(t, got.PeriodEnd.Equal(end))

	// report ids are scoped per user
	_, err = agg.Report(context.Background(), "u2", summary.Report.ID)
	assert.True(t, errors.Is(err, apperrors.ErrTaxReportNotFound))
}

func TestAggregateInvalidRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	agg := testutil.NewTestAggregator(t, db)

	start := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := agg.Aggregate(context.Background(), "u1", start, end)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidDateRange))
}

func TestAggregateQueryFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	agg := testutil.NewTestAggregator(t, db)
	db.Close()

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	_, err := agg.Aggregate(context.Background(), "u1", start, end)
	assert.True(t, errors.Is(err, apperrors.ErrFailedToAggregate))
}

// TestAggregateEmptyPeriod tests that an empty period yields a zero
// report rather than an error. Regenerating over a quiet year is valid.
func TestAggregateEmptyPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	agg := testutil.NewTestAggregator(t, db)

	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)

	summary, err := agg.Aggregate(context.Background(), "u1", start, end)
	require.NoError(t, err)
	assert.Zero(t, summary.Report.RewardTotal)
	assert.Zero(t, summary.Report.TradeTotal)
	assert.Empty(t, summary.RewardItems)
	assert.Empty(t, summary.TradeItems)
}
