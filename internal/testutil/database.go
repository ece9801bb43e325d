package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE asset (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			fullname VARCHAR(255) NOT NULL,
			api_id_name VARCHAR(255) NOT NULL,
			acronym VARCHAR(100) NOT NULL UNIQUE,
			current_price FLOAT DEFAULT 0.0 NOT NULL,
			image TEXT,
			price_updated_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE portfolio (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			portfolio_type VARCHAR(10) NOT NULL,
			name VARCHAR(50) NOT NULL,
			balance FLOAT DEFAULT 0.0 NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT unique_user_portfolio UNIQUE (user_id, portfolio_type, name)
		);

		CREATE TABLE position (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			asset_id VARCHAR(36) NOT NULL,
			quantity FLOAT DEFAULT 0.0 NOT NULL,
			valuation FLOAT DEFAULT 0.0 NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			FOREIGN KEY(asset_id) REFERENCES asset(id),
			CONSTRAINT unique_portfolio_asset UNIQUE (portfolio_id, asset_id)
		);

		CREATE TABLE "transaction" (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			position_id VARCHAR(36) NOT NULL,
			type VARCHAR(20) NOT NULL,
			external_id VARCHAR(255),
			amount FLOAT NOT NULL,
			value FLOAT NOT NULL,
			fee FLOAT DEFAULT 0.0 NOT NULL,
			priced BOOLEAN DEFAULT TRUE NOT NULL,
			date DATETIME NOT NULL,
			comment TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(position_id) REFERENCES position(id) ON DELETE CASCADE,
			CONSTRAINT unique_user_external_id UNIQUE (user_id, external_id)
		);

		CREATE TABLE exchange_credential (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			exchange VARCHAR(50) NOT NULL,
			api_key VARCHAR(255) NOT NULL,
			api_secret TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT unique_user_exchange UNIQUE (user_id, exchange)
		);

		CREATE TABLE tax_report (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			period_start DATE NOT NULL,
			period_end DATE NOT NULL,
			reward_total FLOAT NOT NULL,
			reward_fee_total FLOAT NOT NULL,
			trade_total FLOAT NOT NULL,
			trade_fee_total FLOAT NOT NULL,
			generated_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}
