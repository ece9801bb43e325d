package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/kraken"
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/normalize"
	"github.com/kryptotracker/backend/internal/pricing"
	"github.com/kryptotracker/backend/internal/reconcile"
	"github.com/kryptotracker/backend/internal/repository"
)

// ImportService pulls exchange history into the position ledger, either
// from the exchange API or from uploaded CSV exports, and handles
// one-off manual entries through the same reconciliation path.
type ImportService struct {
	credentials  *repository.CredentialRepository
	transactions *repository.TransactionRepository
	assets       *repository.AssetRepository
	portfolios   *repository.PortfolioRepository
	positions    *repository.PositionRepository
	exchange     kraken.Client
	engine       *reconcile.Engine
	prices       *pricing.Resolver
	log          zerolog.Logger
}

// NewImportService creates a new ImportService.
func NewImportService(
	credentials *repository.CredentialRepository,
	transactions *repository.TransactionRepository,
	assets *repository.AssetRepository,
	portfolios *repository.PortfolioRepository,
	positions *repository.PositionRepository,
	exchange kraken.Client,
	engine *reconcile.Engine,
	prices *pricing.Resolver,
	log zerolog.Logger,
) *ImportService {
	return &ImportService{
		credentials:  credentials,
		transactions: transactions,
		assets:       assets,
		portfolios:   portfolios,
		positions:    positions,
		exchange:     exchange,
		engine:       engine,
		prices:       prices,
		log:          log.With().Str("component", "import").Logger(),
	}
}

// importableTypes are the canonical types an exchange ledger can produce,
// used to find the incremental import watermark.
var importableTypes = []string{
	model.TxTypeReward,
	model.TxTypeBuy,
	model.TxTypeSell,
	model.TxTypeTrade,
	model.TxTypeSent,
	model.TxTypeDeposit,
	model.TxTypeWithdrawal,
	model.TxTypeTransfer,
}

// ImportFromExchange pulls the user's ledger history from the exchange
// API and reconciles it. Pulls are incremental: only entries newer than
// the latest imported transaction are requested, and the dedup check
// makes overlap at the boundary harmless.
func (s *ImportService) ImportFromExchange(ctx context.Context, userID, exchange string, manualPrice float64) (reconcile.Result, error) {
	cred, err := s.credentials.Get(ctx, userID, exchange)
	if err != nil {
		return reconcile.Result{}, err
	}

	watermark, err := s.transactions.LatestDate(ctx, userID, importableTypes)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("determining import watermark: %w", err)
	}
	var start int64
	if !watermark.IsZero() {
		start = watermark.Unix()
	}

	ledgers, err := s.exchange.Ledgers(ctx, cred.APIKey, cred.APISecret, start)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToImport, err)
	}

	history, err := s.exchange.TradesHistory(ctx, cred.APIKey, cred.APISecret)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToImport, err)
	}

	rows := normalize.LedgerRows(ledgers.Ledger)
	rows, err = s.joinTrades(ctx, rows, history.Trades)
	if err != nil {
		return reconcile.Result{}, err
	}

	s.log.Info().
		Str("user", userID).
		Str("exchange", exchange).
		Int("rows", len(rows)).
		Time("watermark", watermark).
		Msg("reconciling exchange ledger pull")

	return s.engine.Reconcile(ctx, rows, reconcile.Options{
		UserID:        userID,
		PortfolioName: displayName(exchange),
		SourceLabel:   "API-Import",
		ManualPrice:   manualPrice,
	})
}

// ImportCSV reconciles uploaded ledger and trade export files. The trades
// reader is optional; without it trade rows keep their ledger-native
// signed amounts and no pair metadata is attached.
func (s *ImportService) ImportCSV(ctx context.Context, userID, exchange string, ledgers, trades io.Reader, manualPrice float64) (reconcile.Result, error) {
	rows, err := normalize.ParseLedgersCSV(ledgers)
	if err != nil {
		return reconcile.Result{}, err
	}

	if trades != nil {
		fills, err := normalize.ParseTradesCSV(trades)
		if err != nil {
			return reconcile.Result{}, err
		}
		rows, err = s.joinTrades(ctx, rows, fills)
		if err != nil {
			return reconcile.Result{}, err
		}
	}

	s.log.Info().
		Str("user", userID).
		Int("rows", len(rows)).
		Msg("reconciling uploaded ledger export")

	return s.engine.Reconcile(ctx, rows, reconcile.Options{
		UserID:        userID,
		PortfolioName: displayName(exchange),
		SourceLabel:   "CSV-Import",
		ManualPrice:   manualPrice,
	})
}

// ManualEntry is a user-entered transaction outside any exchange feed.
type ManualEntry struct {
	Type          string    `json:"type"`
	AssetSymbol   string    `json:"assetSymbol"`
	CounterSymbol string    `json:"counterSymbol,omitempty"`
	Amount        float64   `json:"amount"`
	Fee           float64   `json:"fee"`
	Date          time.Time `json:"date"`
	PortfolioName string    `json:"portfolioName"`
	ManualPrice   float64   `json:"manualPrice,omitempty"`
}

// ImportManual runs a single hand-entered row through the reconciliation
// engine so it gets the same pricing, sign and dedup treatment as
// exchange data.
func (s *ImportService) ImportManual(ctx context.Context, userID string, entry ManualEntry) (reconcile.Result, error) {
	txType := normalize.CanonicalType(entry.Type)
	if !normalize.IsCanonicalType(txType) {
		return reconcile.Result{}, apperrors.ErrUnknownTransactionType
	}

	name := entry.PortfolioName
	if name == "" {
		name = "Manual"
	}

	row := normalize.Row{
		Timestamp:     entry.Date,
		Type:          txType,
		AssetSymbol:   normalize.CanonicalSymbol(strings.ToUpper(entry.AssetSymbol)),
		CounterSymbol: normalize.CanonicalSymbol(strings.ToUpper(entry.CounterSymbol)),
		Amount:        entry.Amount,
		Fee:           entry.Fee,
	}

	return s.engine.Reconcile(ctx, []normalize.Row{row}, reconcile.Options{
		UserID:        userID,
		PortfolioName: name,
		SourceLabel:   "Manual",
		ManualPrice:   entry.ManualPrice,
	})
}

// SyncSnapshots overwrites spot and staking positions with the balances
// the exchange currently reports. Snapshots are authoritative for
// quantity; valuations come from the price resolver.
func (s *ImportService) SyncSnapshots(ctx context.Context, userID, exchange string) error {
	cred, err := s.credentials.Get(ctx, userID, exchange)
	if err != nil {
		return err
	}

	balances, err := s.exchange.Balances(ctx, cred.APIKey, cred.APISecret)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveBalances, err)
	}

	spot, err := s.portfolios.GetOrCreate(ctx, userID, model.PortfolioTypeSpot, displayName(exchange))
	if err != nil {
		return err
	}
	for symbol, quantity := range normalize.CleanBalances(balances) {
		if err := s.snapshotPosition(ctx, spot.ID, symbol, quantity, 0); err != nil {
			return err
		}
	}

	allocations, err := s.exchange.EarnAllocations(ctx, cred.APIKey, cred.APISecret, s.prices.ReferenceCurrency())
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveStaking, err)
	}

	staking, err := s.portfolios.GetOrCreate(ctx, userID, model.PortfolioTypeStaking, displayName(exchange))
	if err != nil {
		return err
	}
	for _, allocation := range normalize.StakingAllocations(allocations.Items) {
		if err := s.snapshotPosition(ctx, staking.ID, allocation.Symbol, allocation.Quantity, allocation.Converted); err != nil {
			return err
		}
	}

	s.log.Info().Str("user", userID).Str("exchange", exchange).Msg("exchange snapshots synced")
	return nil
}

// snapshotPosition sets one position to an absolute quantity. A nonzero
// converted value from the exchange wins over a locally priced valuation.
func (s *ImportService) snapshotPosition(ctx context.Context, portfolioID, symbol string, quantity, converted float64) error {
	asset, err := s.assets.GetByAcronym(ctx, symbol)
	if err != nil {
		s.log.Warn().Str("symbol", symbol).Err(err).Msg("skipping snapshot for untracked asset")
		return nil
	}

	valuation := converted
	if valuation == 0 {
		quote, err := s.prices.ResolveCurrent(ctx, asset)
		if err != nil {
			valuation = quantity * asset.CurrentPrice
		} else {
			valuation = quantity * quote.Price
		}
	}

	if _, err := s.positions.SetSnapshot(ctx, portfolioID, asset.ID, quantity, valuation); err != nil {
		return fmt.Errorf("snapshotting %s: %w", symbol, err)
	}
	return nil
}

// Stats reports import bookkeeping figures for the dashboard.
func (s *ImportService) Stats(ctx context.Context, userID string) (int, *time.Time, *time.Time, error) {
	return s.transactions.Stats(ctx, userID)
}

func (s *ImportService) joinTrades(ctx context.Context, rows []normalize.Row, fills map[string]kraken.TradeEntry) ([]normalize.Row, error) {
	if len(fills) == 0 {
		return rows, nil
	}

	pairs, err := s.exchange.AssetPairs(ctx, normalize.PairCodes(fills))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePairs, err)
	}
	return normalize.JoinTrades(rows, fills, pairs), nil
}

func displayName(exchange string) string {
	if exchange == "" {
		return "Kraken"
	}
	return strings.ToUpper(exchange[:1]) + strings.ToLower(exchange[1:])
}
