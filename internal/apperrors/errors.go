package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrAssetNotFound indicates that a symbol has no canonical asset mapping.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrPositionNotFound indicates that no position exists for a portfolio/asset pair.
	ErrPositionNotFound = errors.New("position not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrCredentialNotFound indicates that no exchange credential is configured.
	ErrCredentialNotFound = errors.New("exchange credential not found")

	// ErrTaxReportNotFound indicates that a tax report with the given ID does not exist.
	ErrTaxReportNotFound = errors.New("tax report not found")
)

// Pricing errors. Price unavailability is an explicit typed outcome:
// callers inspect it and degrade (skip a refresh, mark a transaction
// unpriced), never crash.
var (
	// ErrPriceUnavailable indicates that every price source in the fallback
	// chain failed for the requested asset or instant.
	ErrPriceUnavailable = errors.New("price unavailable from all sources")

	// ErrConversionUnavailable indicates that a cross-asset spot rate could
	// not be determined and no manual price was supplied.
	ErrConversionUnavailable = errors.New("conversion rate unavailable")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrUnknownTransactionType indicates a type outside the canonical taxonomy.
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrManualPriceRequired indicates that a trade conversion failed and the
	// row needs a user-supplied price to proceed.
	ErrManualPriceRequired = errors.New("manual price required to value this trade")
)

// Input errors represent malformed upload files. These reject a file
// before any row processing.
var (
	// ErrMissingColumns indicates that an uploaded export lacks required columns.
	ErrMissingColumns = errors.New("export file is missing required columns")

	// ErrEmptyFile indicates that an uploaded export contains no data rows.
	ErrEmptyFile = errors.New("export file contains no rows")
)

// Operation failure errors represent system-level failures when retrieving
// or processing data.
var (
	ErrFailedToRetrievePortfolios   = errors.New("failed to retrieve portfolios")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrievePositions    = errors.New("failed to retrieve positions")
	ErrFailedToRetrieveBalances     = errors.New("failed to retrieve exchange balances")
	ErrFailedToRetrieveStaking      = errors.New("failed to retrieve staking allocations")
	ErrFailedToRetrievePairs        = errors.New("failed to retrieve traded pair metadata")
	ErrFailedToImport               = errors.New("import failed")
	ErrFailedToAggregate            = errors.New("failed to aggregate tax figures")
)
