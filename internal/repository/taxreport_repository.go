package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

// TaxReportRepository provides data access methods for generated tax
// reports. Reports are derived artifacts and can be regenerated at any
// time from transaction history.
type TaxReportRepository struct {
	db *sql.DB
}

// NewTaxReportRepository creates a new TaxReportRepository with the provided database connection.
func NewTaxReportRepository(db *sql.DB) *TaxReportRepository {
	return &TaxReportRepository{db: db}
}

// Insert stores a generated report.
func (r *TaxReportRepository) Insert(ctx context.Context, report *model.TaxReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tax_report (id, user_id, period_start, period_end, reward_total, reward_fee_total, trade_total, trade_fee_total, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.UserID,
		report.PeriodStart.UTC().Format("2006-01-02"), report.PeriodEnd.UTC().Format("2006-01-02"),
		report.RewardTotal, report.RewardFeeTotal, report.TradeTotal, report.TradeFeeTotal,
		report.GeneratedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tax report: %w", err)
	}

	return nil
}

// ListByUser retrieves all of one user's generated reports, newest first.
func (r *TaxReportRepository) ListByUser(ctx context.Context, userID string) ([]model.TaxReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, period_start, period_end, reward_total, reward_fee_total, trade_total, trade_fee_total, generated_at
		FROM tax_report WHERE user_id = ? ORDER BY generated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax_report table: %w", err)
	}
	defer rows.Close()

	reports := []model.TaxReport{}
	for rows.Next() {
		report, err := scanTaxReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tax_report table: %w", err)
	}

	return reports, nil
}

// GetByID retrieves one of the user's generated reports.
func (r *TaxReportRepository) GetByID(ctx context.Context, userID, id string) (model.TaxReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, period_start, period_end, reward_total, reward_fee_total, trade_total, trade_fee_total, generated_at
		FROM tax_report WHERE user_id = ? AND id = ?`, userID, id)

	report, err := scanTaxReport(row)
	if err == sql.ErrNoRows {
		return model.TaxReport{}, apperrors.ErrTaxReportNotFound
	}
	return report, err
}

func scanTaxReport(row rowScanner) (model.TaxReport, error) {
	var report model.TaxReport
	var startStr, endStr, generatedStr string

	err := row.Scan(
		&report.ID, &report.UserID, &startStr, &endStr,
		&report.RewardTotal, &report.RewardFeeTotal,
		&report.TradeTotal, &report.TradeFeeTotal,
		&generatedStr,
	)
	if err == sql.ErrNoRows {
		return model.TaxReport{}, apperrors.ErrTaxReportNotFound
	}
	if err != nil {
		return model.TaxReport{}, fmt.Errorf("failed to scan tax_report table results: %w", err)
	}

	if report.PeriodStart, err = ParseTime(startStr); err != nil {
		return model.TaxReport{}, err
	}
	if report.PeriodEnd, err = ParseTime(endStr); err != nil {
		return model.TaxReport{}, err
	}
	if report.GeneratedAt, err = ParseTime(generatedStr); err != nil {
		return model.TaxReport{}, err
	}

	return report, nil
}
