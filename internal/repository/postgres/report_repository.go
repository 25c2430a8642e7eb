// Package postgres provides PostgreSQL-backed implementations of repository interfaces.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/nadmax/pulse/internal/report"
	"github.com/nadmax/pulse/internal/repository"
	"go.uber.org/zap"
)

type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func Open(connectionString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewReportRepository(db *sql.DB, logger *zap.Logger) *ReportRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportRepository{db: db, logger: logger}
}

const reportColumns = `
	id, user_id, type, status, period_start, period_end,
	COALESCE(pdf_url, ''), COALESCE(ai_digest, ''), COALESCE(error_msg, ''),
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*report.Report, error) {
	var r report.Report
	if err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Type,
		&r.Status,
		&r.PeriodStart,
		&r.PeriodEnd,
		&r.PDFURL,
		&r.AIDigest,
		&r.ErrorMsg,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *ReportRepository) CreateReport(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (
			id, user_id, type, status, period_start, period_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		rep.ID,
		rep.UserID,
		rep.Type,
		rep.Status,
		rep.PeriodStart,
		rep.PeriodEnd,
		rep.CreatedAt,
		rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", rep.ID, err)
	}

	return nil
}

func (r *ReportRepository) GetReport(ctx context.Context, reportID string) (*report.Report, error) {
	query := `SELECT` + reportColumns + ` FROM reports WHERE id = $1`

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, reportID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", reportID, err)
	}

	return rep, nil
}

func (r *ReportRepository) ListReports(ctx context.Context, userID string, filter report.Filter) ([]*report.Report, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT` + reportColumns + ` FROM reports WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close rows", zap.Error(err))
		}
	}()

	reports := make([]*report.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func (r *ReportRepository) MarkProcessing(ctx context.Context, reportID string) error {
	query := `
		UPDATE reports
		SET status = 'PROCESSING',
		    updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, reportID)
}

func (r *ReportRepository) CompleteReport(ctx context.Context, reportID, pdfURL, digest string) error {
	query := `
		UPDATE reports
		SET status = 'DONE',
		    pdf_url = $1,
		    ai_digest = $2,
		    error_msg = NULL,
		    updated_at = NOW()
		WHERE id = $3
	`
	return r.exec(ctx, query, pdfURL, digest, reportID)
}

func (r *ReportRepository) FailReport(ctx context.Context, reportID, reason string) error {
	query := `
		UPDATE reports
		SET status = 'FAILED',
		    error_msg = $1,
		    updated_at = NOW()
		WHERE id = $2
	`
	return r.exec(ctx, query, reason, reportID)
}

func (r *ReportRepository) ResetReport(ctx context.Context, reportID string, staleBefore time.Time) error {
	query := `
		UPDATE reports
		SET status = 'PENDING',
		    error_msg = NULL,
		    pdf_url = NULL,
		    updated_at = NOW()
		WHERE id = $1
		  AND (status IN ('DONE', 'FAILED')
		       OR (status = 'PROCESSING' AND updated_at < $2))
	`
	err := r.exec(ctx, query, reportID, staleBefore)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.ErrConflict
	}
	return err
}

func (r *ReportRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ReportRepository) LatestDigest(ctx context.Context, userID string) (*report.Digest, error) {
	query := `
		SELECT id, user_id, content, created_at
		FROM digests
		WHERE user_id = $1 AND content <> ''
		ORDER BY created_at DESC
		LIMIT 1
	`

	var d report.Digest
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&d.ID, &d.UserID, &d.Content, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest digest: %w", err)
	}

	return &d, nil
}

func (r *ReportRepository) SaveDigest(ctx context.Context, d *report.Digest) error {
	query := `
		INSERT INTO digests (id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.UserID, d.Content, d.CreatedAt)

	return err
}

func (r *ReportRepository) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}

	return email, err
}

func (r *ReportRepository) Close() error {
	return r.db.Close()
}
