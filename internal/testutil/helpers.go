package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/kraken"
	"github.com/kryptotracker/backend/internal/pricing"
	"github.com/kryptotracker/backend/internal/reconcile"
	"github.com/kryptotracker/backend/internal/repository"
	"github.com/kryptotracker/backend/internal/service"
	"github.com/kryptotracker/backend/internal/tax"
)

// TestFernetKey is a throwaway fernet key for credential tests.
const TestFernetKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

// NewTestResolver builds a pricing resolver over mock providers and the
// real asset store, with EUR reference and a 30 minute freshness window.
func NewTestResolver(t *testing.T, db *sql.DB, market *MockMarketAPI, scrape *MockScrapeAPI, historical *MockHistoricalAPI) *pricing.Resolver {
	t.Helper()

	return pricing.NewResolver(
		market,
		scrape,
		historical,
		repository.NewAssetRepository(db),
		"EUR",
		30*time.Minute,
		zerolog.Nop(),
	)
}

// NewTestEngine builds a reconciliation engine over the real repositories.
func NewTestEngine(t *testing.T, db *sql.DB, resolver *pricing.Resolver) *reconcile.Engine {
	t.Helper()

	return reconcile.NewEngine(
		repository.NewAssetRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewPositionRepository(db),
		repository.NewTransactionRepository(db),
		resolver,
		zerolog.Nop(),
	)
}

// NewTestImportService builds an import service over a mock exchange
// client and the given engine.
func NewTestImportService(t *testing.T, db *sql.DB, exchange kraken.Client, engine *reconcile.Engine, resolver *pricing.Resolver) *service.ImportService {
	t.Helper()

	credentialRepo, err := repository.NewCredentialRepository(db, TestFernetKey)
	if err != nil {
		t.Fatalf("Failed to create credential repository: %v", err)
	}

	return service.NewImportService(
		credentialRepo,
		repository.NewTransactionRepository(db),
		repository.NewAssetRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewPositionRepository(db),
		exchange,
		engine,
		resolver,
		zerolog.Nop(),
	)
}

// NewTestPortfolioService builds a portfolio service over the real repositories.
func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewPositionRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewAssetRepository(db),
		zerolog.Nop(),
	)
}

// NewTestAggregator builds a tax aggregator over the real repositories.
func NewTestAggregator(t *testing.T, db *sql.DB) *tax.Aggregator {
	t.Helper()

	return tax.NewAggregator(
		repository.NewTransactionRepository(db),
		repository.NewTaxReportRepository(db),
		zerolog.Nop(),
	)
}
