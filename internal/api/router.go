package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/api/handlers"
	custommiddleware "github.com/kryptotracker/backend/internal/api/middleware"
	"github.com/kryptotracker/backend/internal/config"
	"github.com/kryptotracker/backend/internal/repository"
	"github.com/kryptotracker/backend/internal/service"
	"github.com/kryptotracker/backend/internal/tax"
)

// Dependencies bundles everything the router wires into handlers.
type Dependencies struct {
	DB          *sql.DB
	Portfolios  *service.PortfolioService
	Imports     *service.ImportService
	Tax         *tax.Aggregator
	Credentials *repository.CredentialRepository
	Log         zerolog.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(deps.Log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(deps.DB)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(deps.Portfolios)
			r.Get("/", portfolioHandler.Portfolios)
			r.Get("/dashboard", portfolioHandler.Dashboard)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.Portfolio)
			})
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(deps.Portfolios, deps.Imports)
			r.Get("/", transactionHandler.Transactions)
			r.Post("/", transactionHandler.Create)
		})

		r.Route("/asset", func(r chi.Router) {
			assetHandler := handlers.NewAssetHandler(deps.Portfolios)
			r.Get("/", assetHandler.Assets)
			r.Post("/", assetHandler.Create)
		})

		r.Route("/import", func(r chi.Router) {
			importHandler := handlers.NewImportHandler(deps.Imports)
			r.Post("/exchange", importHandler.FromExchange)
			r.Post("/csv", importHandler.FromCSV)
			r.Post("/snapshot", importHandler.SyncSnapshots)
		})

		r.Route("/tax", func(r chi.Router) {
			taxHandler := handlers.NewTaxHandler(deps.Tax)
			r.Get("/", taxHandler.Reports)
			r.Post("/", taxHandler.Generate)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", taxHandler.Report)
			})
		})

		r.Route("/credential", func(r chi.Router) {
			credentialHandler := handlers.NewCredentialHandler(deps.Credentials)
			r.Post("/", credentialHandler.Upsert)
			r.Delete("/{exchange}", credentialHandler.Delete)
		})
	})

	return r
}
