// Package reconcile replays normalized exchange rows against the position
// ledger. The engine is deterministic: rows are replayed in chronological
// order, every row either produces exactly one transaction, is skipped as
// a known duplicate, or lands in the unresolved list with a reason. A
// re-import of the same batch is a no-op.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/normalize"
)

// Options configures one reconciliation pass.
type Options struct {
	UserID        string
	PortfolioName string  // portfolio display name, e.g. the exchange name
	SourceLabel   string  // provenance tag woven into the comment
	ManualPrice   float64 // unit price override for unpriceable rows, 0 = unset
}

// Engine applies normalized rows to positions and emits transactions.
type Engine struct {
	assets       AssetRepository
	portfolios   PortfolioRepository
	ledger       PositionLedger
	transactions TransactionRepository
	prices       PriceResolver
	log          zerolog.Logger
}

// NewEngine creates an Engine over the given repositories and resolver.
func NewEngine(
	assets AssetRepository,
	portfolios PortfolioRepository,
	ledger PositionLedger,
	transactions TransactionRepository,
	prices PriceResolver,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		assets:       assets,
		portfolios:   portfolios,
		ledger:       ledger,
		transactions: transactions,
		prices:       prices,
		log:          log.With().Str("component", "reconcile").Logger(),
	}
}

// Reconcile replays the batch in timestamp order. Rows that cannot be
// applied for data reasons (unknown asset, missing conversion rate) are
// collected in Result.Unresolved; infrastructure failures abort the batch
// with an error. Rows whose external id was seen before are skipped.
func (e *Engine) Reconcile(ctx context.Context, rows []normalize.Row, opts Options) (Result, error) {
	normalize.SortRows(rows)

	result := Result{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := e.processRow(ctx, row, opts, &result); err != nil {
			return result, err
		}
	}

	e.log.Info().
		Str("user", opts.UserID).
		Int("created", len(result.Created)).
		Int("unresolved", len(result.Unresolved)).
		Int("skipped", result.Skipped).
		Msg("reconciliation pass complete")

	return result, nil
}

func (e *Engine) processRow(ctx context.Context, row normalize.Row, opts Options, result *Result) error {
	if row.ExternalID != "" {
		exists, err := e.transactions.ExistsByExternalID(ctx, opts.UserID, row.ExternalID)
		if err != nil {
			return fmt.Errorf("checking for duplicate %s: %w", row.ExternalID, err)
		}
		if exists {
			result.Skipped++
			return nil
		}
	}

	if !normalize.IsCanonicalType(row.Type) {
		result.Unresolved = append(result.Unresolved, unresolved(row, "unknown transaction type"))
		return nil
	}

	asset, err := e.assets.GetByAcronym(ctx, row.AssetSymbol)
	if errors.Is(err, apperrors.ErrAssetNotFound) {
		result.Unresolved = append(result.Unresolved, unresolved(row, "asset not tracked"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolving asset %s: %w", row.AssetSymbol, err)
	}

	portfolio, err := e.portfolios.GetOrCreate(ctx, opts.UserID, portfolioTypeFor(row), opts.PortfolioName)
	if err != nil {
		return fmt.Errorf("resolving portfolio: %w", err)
	}

	if row.Type == model.TxTypeTrade && row.CounterSymbol != "" {
		return e.applyTrade(ctx, row, asset, portfolio, opts, result)
	}

	amount := signedAmount(row)

	value, priced := e.resolveValue(ctx, row, asset, amount, opts)
	currentPrice := e.currentPrice(ctx, asset)

	position, err := e.ledger.ApplyDelta(ctx, portfolio.ID, asset.ID, amount, amount*currentPrice)
	if err != nil {
		return fmt.Errorf("applying %s of %g %s: %w", row.Type, amount, asset.Acronym, err)
	}

	tx := e.buildTransaction(row, opts, portfolio, position, amount, value, currentPrice, priced)
	if err := e.insert(ctx, &tx, result); err != nil {
		return err
	}
	return nil
}

// applyTrade converts the source leg into the counter asset and updates
// both positions. A single transaction is emitted, keyed to the source
// leg. The target quantity comes from the live conversion rate; when that
// is unavailable and the caller supplied a manual unit price the rate is
// derived from the two current prices instead.
func (e *Engine) applyTrade(ctx context.Context, row normalize.Row, source model.Asset, portfolio model.Portfolio, opts Options, result *Result) error {
	target, err := e.assets.GetByAcronym(ctx, row.CounterSymbol)
	if errors.Is(err, apperrors.ErrAssetNotFound) {
		result.Unresolved = append(result.Unresolved, unresolved(row, fmt.Sprintf("counter asset %s not tracked", row.CounterSymbol)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolving counter asset %s: %w", row.CounterSymbol, err)
	}

	sourceAmount := -math.Abs(row.Amount)
	quantity := math.Abs(row.Amount)

	targetAmount, err := e.prices.Convert(ctx, source, target, quantity)
	if errors.Is(err, apperrors.ErrConversionUnavailable) {
		targetAmount, err = e.manualConversion(ctx, target, quantity, opts)
	}
	if err != nil {
		result.Unresolved = append(result.Unresolved, unresolved(row, "conversion rate unavailable, manual price required"))
		return nil
	}

	sourcePrice := e.currentPrice(ctx, source)
	targetPrice := e.currentPrice(ctx, target)

	value, priced := e.resolveValue(ctx, row, source, sourceAmount, opts)

	position, err := e.ledger.ApplyDelta(ctx, portfolio.ID, source.ID, sourceAmount, sourceAmount*sourcePrice)
	if err != nil {
		return fmt.Errorf("applying trade source leg %s: %w", source.Acronym, err)
	}
	if _, err := e.ledger.ApplyDelta(ctx, portfolio.ID, target.ID, targetAmount, targetAmount*targetPrice); err != nil {
		return fmt.Errorf("applying trade target leg %s: %w", target.Acronym, err)
	}

	tx := e.buildTransaction(row, opts, portfolio, position, sourceAmount, value, sourcePrice, priced)
	tx.Comment = fmt.Sprintf("%s-%s: %g %s for %g %s", portfolio.Name, sourceLabel(opts), quantity, source.Acronym, targetAmount, target.Acronym)
	return e.insert(ctx, &tx, result)
}

// manualConversion derives the target quantity when no live rate exists:
// the manual unit price of the source, divided by the target's current
// price, yields the rate.
func (e *Engine) manualConversion(ctx context.Context, target model.Asset, quantity float64, opts Options) (float64, error) {
	if opts.ManualPrice == 0 {
		return 0, apperrors.ErrManualPriceRequired
	}
	targetPrice := e.currentPrice(ctx, target)
	if targetPrice == 0 {
		return 0, apperrors.ErrManualPriceRequired
	}
	return (opts.ManualPrice / targetPrice) * quantity, nil
}

// resolveValue prices the row in the reference currency. Reference assets
// are their own value; otherwise the historical price at the row's
// timestamp is used, then the manual price, then the cached current
// price with the priced flag cleared so the row can be backfilled later.
func (e *Engine) resolveValue(ctx context.Context, row normalize.Row, asset model.Asset, amount float64, opts Options) (float64, bool) {
	price, err := e.prices.ResolveHistorical(ctx, asset, row.Timestamp)
	if err == nil {
		return amount * price, true
	}

	if opts.ManualPrice != 0 {
		return amount * opts.ManualPrice, true
	}

	e.log.Warn().
		Str("asset", asset.Acronym).
		Str("external_id", row.ExternalID).
		Time("at", row.Timestamp).
		Msg("historical price unavailable, persisting unpriced")
	return amount * asset.CurrentPrice, false
}

// currentPrice returns the freshest current price for valuation deltas,
// falling back to the cached value when every provider fails.
func (e *Engine) currentPrice(ctx context.Context, asset model.Asset) float64 {
	quote, err := e.prices.ResolveCurrent(ctx, asset)
	if err != nil {
		return asset.CurrentPrice
	}
	return quote.Price
}

func (e *Engine) buildTransaction(row normalize.Row, opts Options, portfolio model.Portfolio, position model.Position, amount, value, currentPrice float64, priced bool) model.Transaction {
	fee := 0.0
	if row.Fee != 0 {
		fee = math.Abs(row.Fee) * currentPrice
	}

	date := row.Timestamp
	if date.IsZero() {
		date = time.Now().UTC()
	}

	return model.Transaction{
		ID:         uuid.New().String(),
		UserID:     opts.UserID,
		PositionID: position.ID,
		Type:       row.Type,
		ExternalID: row.ExternalID,
		Amount:     amount,
		Value:      value,
		Fee:        fee,
		Priced:     priced,
		Date:       date,
		Comment:    fmt.Sprintf("%s-%s: %g %s", portfolio.Name, sourceLabel(opts), amount, row.AssetSymbol),
	}
}

func (e *Engine) insert(ctx context.Context, tx *model.Transaction, result *Result) error {
	err := e.transactions.Insert(ctx, tx)
	if errors.Is(err, apperrors.ErrDuplicateEntry) {
		result.Skipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("inserting transaction %s: %w", tx.ExternalID, err)
	}
	result.Created = append(result.Created, *tx)
	return nil
}

// signedAmount enforces the sign convention: outflow types carry negative
// amounts regardless of how the source reported them, inflow types
// positive. Transfers keep the sign the source gave them, both legs of a
// portfolio move arrive as separate rows.
func signedAmount(row normalize.Row) float64 {
	switch row.Type {
	case model.TxTypeSell, model.TxTypeSent, model.TxTypeWithdrawal:
		return -math.Abs(row.Amount)
	case model.TxTypeReward, model.TxTypeBuy, model.TxTypeDeposit:
		return math.Abs(row.Amount)
	default:
		return row.Amount
	}
}

// portfolioTypeFor routes a row to the spot or staking portfolio. Rewards
// accrue on the staking side; transfer rows name their own side in the
// subtype prefix (stakingfromspot lands on staking, spottostaking on
// spot). Everything else is spot activity.
func portfolioTypeFor(row normalize.Row) string {
	if row.Type == model.TxTypeReward {
		return model.PortfolioTypeStaking
	}
	if row.Type == model.TxTypeTransfer && strings.HasPrefix(strings.ToLower(row.Subtype), "staking") {
		return model.PortfolioTypeStaking
	}
	return model.PortfolioTypeSpot
}

func sourceLabel(opts Options) string {
	if opts.SourceLabel != "" {
		return opts.SourceLabel
	}
	return "API-Import"
}

func unresolved(row normalize.Row, reason string) UnresolvedRow {
	return UnresolvedRow{
		ExternalID: row.ExternalID,
		Type:       row.Type,
		Subtype:    row.Subtype,
		Symbol:     row.AssetSymbol,
		Amount:     row.Amount,
		Fee:        row.Fee,
		Balance:    row.Balance,
		Reason:     reason,
	}
}
