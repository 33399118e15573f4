// Package store persists portfolio reports and per-applicant results.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"sort"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const upsertReportQuery = `
INSERT INTO portfolio_reports
    (batch_id, batch_name, status, records_seen, total_records, failed_records, average_score, report, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (batch_id) DO UPDATE SET
    batch_name = EXCLUDED.batch_name,
    status = EXCLUDED.status,
    records_seen = EXCLUDED.records_seen,
    total_records = EXCLUDED.total_records,
    failed_records = EXCLUDED.failed_records,
    average_score = EXCLUDED.average_score,
    report = EXCLUDED.report,
    created_at = EXCLUDED.created_at`

const selectReportQuery = `SELECT report FROM portfolio_reports WHERE batch_id = $1`

// ReportRepository stores reports in PostgreSQL. The full report is kept as
// JSONB next to the columns used for filtering.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnsureSchema applies the embedded migrations in file-name order. Every
// migration is idempotent.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		body, err := migrations.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := r.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Save inserts the report or replaces the stored copy for the same batch.
func (r *ReportRepository) Save(ctx context.Context, report *models.PortfolioReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.NewParseError(err)
	}

	_, err = r.db.ExecContext(ctx, upsertReportQuery,
		report.BatchID,
		report.BatchName,
		string(report.Status),
		report.RecordsSeen,
		report.TotalRecords,
		report.FailedRecords,
		report.AverageScore,
		string(raw), // lib/pq sends []byte as bytea, which jsonb rejects
		report.CreatedAt,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// Get loads a report by batch id. A missing batch is REPORT_NOT_FOUND.
func (r *ReportRepository) Get(ctx context.Context, batchID string) (*models.PortfolioReport, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, selectReportQuery, batchID).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewReportNotFoundError(batchID)
		}
		return nil, errors.NewQueryExecutionFailedError("select_report", err)
	}

	var report models.PortfolioReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, errors.NewParseError(err)
	}
	return &report, nil
}
