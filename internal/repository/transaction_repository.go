package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction
// table. Transactions are append-only: corrections are new transactions,
// never mutations of existing rows.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// ExistsByExternalID reports whether the user already has a transaction
// with the given external id. This is the dedup check that makes
// re-imports idempotent.
func (r *TransactionRepository) ExistsByExternalID(ctx context.Context, userID, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM "transaction" WHERE user_id = ? AND external_id = ?`,
		userID, externalID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query transaction table: %w", err)
	}

	return count > 0, nil
}

// Insert appends a new transaction record.
func (r *TransactionRepository) Insert(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	var externalID any
	if t.ExternalID != "" {
		externalID = t.ExternalID
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO "transaction" (id, user_id, position_id, type, external_id, amount, value, fee, priced, date, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.PositionID, t.Type, externalID,
		t.Amount, t.Value, t.Fee, t.Priced,
		t.Date.UTC().Format(time.RFC3339), t.Comment,
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return apperrors.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

const transactionSelect = `
	SELECT t.id, t.user_id, t.position_id, t.type, COALESCE(t.external_id, ''),
	       t.amount, t.value, t.fee, t.priced, t.date, COALESCE(t.comment, ''), a.acronym
	FROM "transaction" t
	JOIN position p ON t.position_id = p.id
	JOIN asset a ON p.asset_id = a.id
`

// ListByUser retrieves all transactions of one user in chronological
// order, enriched with the position's asset acronym.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	return r.queryTransactions(ctx,
		transactionSelect+` WHERE t.user_id = ? ORDER BY t.date ASC`, userID)
}

// ListRecent retrieves the user's most recent transactions, newest first.
func (r *TransactionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	return r.queryTransactions(ctx,
		transactionSelect+` WHERE t.user_id = ? ORDER BY t.date DESC LIMIT ?`, userID, limit)
}

// ListByTypesAndRange retrieves the user's transactions of the given
// canonical types inside an inclusive date range, in chronological order.
func (r *TransactionRepository) ListByTypesAndRange(ctx context.Context, userID string, types []string, start, end time.Time) ([]model.Transaction, error) {
	if len(types) == 0 {
		return []model.Transaction{}, nil
	}

	placeholders := make([]string, len(types))
	args := make([]any, 0, len(types)+3)
	args = append(args, userID)
	for i, t := range types {
		placeholders[i] = "?"
		args = append(args, t)
	}
	args = append(args, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))

	query := transactionSelect + `
		WHERE t.user_id = ?
		AND t.type IN (` + strings.Join(placeholders, ",") + `)
		AND t.date >= ? AND t.date <= ?
		ORDER BY t.date ASC`

	return r.queryTransactions(ctx, query, args...)
}

// LatestDate returns the date of the user's newest transaction among the
// given types, used as the incremental import watermark. Returns the zero
// time when no transaction exists.
func (r *TransactionRepository) LatestDate(ctx context.Context, userID string, types []string) (time.Time, error) {
	if len(types) == 0 {
		return time.Time{}, nil
	}

	placeholders := make([]string, len(types))
	args := make([]any, 0, len(types)+1)
	args = append(args, userID)
	for i, t := range types {
		placeholders[i] = "?"
		args = append(args, t)
	}

	var dateStr sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM "transaction"
		WHERE user_id = ? AND type IN (`+strings.Join(placeholders, ",")+`)`,
		args...).Scan(&dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query transaction table: %w", err)
	}
	if !dateStr.Valid {
		return time.Time{}, nil
	}

	return ParseTime(dateStr.String)
}

// Stats returns the transaction count and the first and last transaction
// dates for one user. Dates are nil when the user has no transactions.
func (r *TransactionRepository) Stats(ctx context.Context, userID string) (int, *time.Time, *time.Time, error) {
	var count int
	var firstStr, lastStr sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(date), MAX(date) FROM "transaction" WHERE user_id = ?`,
		userID).Scan(&count, &firstStr, &lastStr)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to query transaction table: %w", err)
	}

	var first, last *time.Time
	if firstStr.Valid {
		t, err := ParseTime(firstStr.String)
		if err != nil {
			return 0, nil, nil, err
		}
		first = &t
	}
	if lastStr.Valid {
		t, err := ParseTime(lastStr.String)
		if err != nil {
			return 0, nil, nil, err
		}
		last = &t
	}

	return count, first, last, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var dateStr string

		err := rows.Scan(
			&t.ID, &t.UserID, &t.PositionID, &t.Type, &t.ExternalID,
			&t.Amount, &t.Value, &t.Fee, &t.Priced, &dateStr, &t.Comment, &t.AssetSymbol,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}
