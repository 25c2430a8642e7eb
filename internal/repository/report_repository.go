// Package repository defines report persistence and provides a call-recording mock for tests.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nadmax/pulse/internal/report"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update finds the row in another state.
	ErrConflict = errors.New("record state conflict")
)

type ReportRepository interface {
	CreateReport(ctx context.Context, r *report.Report) error
	GetReport(ctx context.Context, reportID string) (*report.Report, error)
	ListReports(ctx context.Context, userID string, filter report.Filter) ([]*report.Report, error)
	MarkProcessing(ctx context.Context, reportID string) error
	CompleteReport(ctx context.Context, reportID, pdfURL, digest string) error
	FailReport(ctx context.Context, reportID, reason string) error
	// ResetReport moves a DONE or FAILED report, or a PROCESSING report last updated
	// before staleBefore, back to PENDING. Any other state yields ErrConflict.
	ResetReport(ctx context.Context, reportID string, staleBefore time.Time) error
	LatestDigest(ctx context.Context, userID string) (*report.Digest, error)
	SaveDigest(ctx context.Context, d *report.Digest) error
	UserEmail(ctx context.Context, userID string) (string, error)
	Close() error
}
