// Package tax folds transaction history into taxable aggregates for a
// reporting period. The fold is pure: reports are derived artifacts and
// can be regenerated from history at any time.
package tax

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

// TransactionSource lists the transactions feeding a report.
type TransactionSource interface {
	ListByTypesAndRange(ctx context.Context, userID string, types []string, start, end time.Time) ([]model.Transaction, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	Insert(ctx context.Context, report *model.TaxReport) error
	ListByUser(ctx context.Context, userID string) ([]model.TaxReport, error)
	GetByID(ctx context.Context, userID, id string) (model.TaxReport, error)
}

// Summary is the aggregate outcome of one reporting period, with the
// individual transactions that produced each total.
type Summary struct {
	Report      model.TaxReport     `json:"report"`
	RewardItems []model.Transaction `json:"rewardItems"`
	TradeItems  []model.Transaction `json:"tradeItems"`
}

// Aggregator computes and persists tax reports.
type Aggregator struct {
	transactions TransactionSource
	reports      ReportStore
	log          zerolog.Logger
}

// NewAggregator creates an Aggregator over the given stores.
func NewAggregator(transactions TransactionSource, reports ReportStore, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		transactions: transactions,
		reports:      reports,
		log:          log.With().Str("component", "tax").Logger(),
	}
}

// Aggregate folds the user's rewards and disposals within [start, end]
// into period totals and persists the resulting report. Reward income is
// the sum of reward transaction values; disposal proceeds are the
// absolute values of sells and trades. Fees accumulate separately per
// category.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, start, end time.Time) (Summary, error) {
	if end.Before(start) {
		return Summary{}, apperrors.ErrInvalidDateRange
	}

	rewards, err := a.transactions.ListByTypesAndRange(ctx, userID, []string{model.TxTypeReward}, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: listing rewards: %v", apperrors.ErrFailedToAggregate, err)
	}

	disposals, err := a.transactions.ListByTypesAndRange(ctx, userID, []string{model.TxTypeSell, model.TxTypeTrade}, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: listing disposals: %v", apperrors.ErrFailedToAggregate, err)
	}

	report := model.TaxReport{
		ID:          uuid.New().String(),
		UserID:      userID,
		PeriodStart: start,
		PeriodEnd:   end,
		GeneratedAt: time.Now().UTC(),
	}

	for _, t := range rewards {
		report.RewardTotal += t.Value
		report.RewardFeeTotal += t.Fee
	}
	for _, t := range disposals {
		report.TradeTotal += abs(t.Value)
		report.TradeFeeTotal += t.Fee
	}

	if err := a.reports.Insert(ctx, &report); err != nil {
		return Summary{}, fmt.Errorf("persisting tax report: %w", err)
	}

	a.log.Info().
		Str("user", userID).
		Time("start", start).
		Time("end", end).
		Float64("reward_total", report.RewardTotal).
		Float64("trade_total", report.TradeTotal).
		Msg("tax report generated")

	return Summary{Report: report, RewardItems: rewards, TradeItems: disposals}, nil
}

// Reports returns the user's previously generated reports.
func (a *Aggregator) Reports(ctx context.Context, userID string) ([]model.TaxReport, error) {
	return a.reports.ListByUser(ctx, userID)
}

// Report returns one generated report by id.
func (a *Aggregator) Report(ctx context.Context, userID, id string) (model.TaxReport, error) {
	return a.reports.GetByID(ctx, userID, id)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
