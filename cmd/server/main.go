package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/api"
	"github.com/kryptotracker/backend/internal/coingecko"
	"github.com/kryptotracker/backend/internal/coinmarketcap"
	"github.com/kryptotracker/backend/internal/config"
	"github.com/kryptotracker/backend/internal/cryptocompare"
	"github.com/kryptotracker/backend/internal/database"
	"github.com/kryptotracker/backend/internal/kraken"
	"github.com/kryptotracker/backend/internal/pricing"
	"github.com/kryptotracker/backend/internal/reconcile"
	"github.com/kryptotracker/backend/internal/repository"
	"github.com/kryptotracker/backend/internal/service"
	"github.com/kryptotracker/backend/internal/tax"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Open database connection and apply pending migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Create repositories
	assetRepo := repository.NewAssetRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	taxReportRepo := repository.NewTaxReportRepository(db)
	credentialRepo, err := repository.NewCredentialRepository(db, cfg.Exchange.FernetKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize credential store")
	}

	// External providers
	geckoClient := coingecko.NewClient()
	scrapeClient := coinmarketcap.NewClient()
	compareClient := cryptocompare.NewClient()
	exchangeClient := kraken.NewExchangeClient()

	resolver := pricing.NewResolver(
		geckoClient,
		scrapeClient,
		compareClient,
		assetRepo,
		cfg.Pricing.ReferenceCurrency,
		cfg.Pricing.Freshness,
		log,
	)

	engine := reconcile.NewEngine(
		assetRepo,
		portfolioRepo,
		positionRepo,
		transactionRepo,
		resolver,
		log,
	)

	// Create services
	importService := service.NewImportService(
		credentialRepo,
		transactionRepo,
		assetRepo,
		portfolioRepo,
		positionRepo,
		exchangeClient,
		engine,
		resolver,
		log,
	)
	portfolioService := service.NewPortfolioService(
		portfolioRepo,
		positionRepo,
		transactionRepo,
		assetRepo,
		log,
	)
	aggregator := tax.NewAggregator(transactionRepo, taxReportRepo, log)

	// Background sync
	syncService := service.NewSyncService(assetRepo, credentialRepo, resolver, importService, log)
	if err := syncService.Start(cfg.Exchange.SyncSchedule); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Exchange.SyncSchedule).Msg("failed to schedule background sync")
	}
	defer syncService.Stop()

	// Create router
	router := api.NewRouter(api.Dependencies{
		DB:          db,
		Portfolios:  portfolioService,
		Imports:     importService,
		Tax:         aggregator,
		Credentials: credentialRepo,
		Log:         log,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
