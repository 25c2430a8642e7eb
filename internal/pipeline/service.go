// Package pipeline orchestrates report creation, background generation, delivery and
// retries on top of the job queue, the analytics provider and report persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nadmax/pulse/internal/analytics"
	"github.com/nadmax/pulse/internal/cache"
	"github.com/nadmax/pulse/internal/correlation"
	"github.com/nadmax/pulse/internal/job"
	"github.com/nadmax/pulse/internal/notify"
	"github.com/nadmax/pulse/internal/pdf"
	"github.com/nadmax/pulse/internal/report"
	"github.com/nadmax/pulse/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultCacheTTL = 60 * time.Second
	// DefaultStaleAfter is how long a PROCESSING report must sit untouched before it can be retried.
	DefaultStaleAfter = 15 * time.Minute
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrReportInFlight = errors.New("report generation already pending or processing")
	ErrReportNotReady = errors.New("report document not available")
	ErrInvalidUser    = errors.New("user id is required")
)

type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload map[string]any) (string, error)
}

type Renderer interface {
	Render(ctx context.Context, p pdf.Payload) []byte
}

type FileStore interface {
	Save(ctx context.Context, reportID string, data []byte) (string, error)
	Open(location string) ([]byte, error)
}

type Deps struct {
	Reports    repository.ReportRepository
	Analytics  analytics.Provider
	Renderer   Renderer
	Files      FileStore
	Mailer     notify.Mailer
	Cache      cache.Cache
	Jobs       Enqueuer
	Logger     *zap.Logger
	// StaleAfter defaults to DefaultStaleAfter.
	StaleAfter time.Duration
}

type Service struct {
	reports    repository.ReportRepository
	analytics  analytics.Provider
	renderer   Renderer
	files      FileStore
	mailer     notify.Mailer
	cache      cache.Cache
	jobs       Enqueuer
	logger     *zap.Logger
	cacheTTL   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewService(deps Deps, cacheTTL time.Duration) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemoryCache()
	}
	if deps.Mailer == nil {
		deps.Mailer = notify.NewLogMailer(deps.Logger)
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if deps.StaleAfter <= 0 {
		deps.StaleAfter = DefaultStaleAfter
	}

	return &Service{
		reports:    deps.Reports,
		analytics:  deps.Analytics,
		renderer:   deps.Renderer,
		files:      deps.Files,
		mailer:     deps.Mailer,
		cache:      deps.Cache,
		jobs:       deps.Jobs,
		logger:     deps.Logger,
		cacheTTL:   cacheTTL,
		staleAfter: deps.StaleAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateReport records a PENDING report for the trailing period and queues its generation.
func (s *Service) CreateReport(ctx context.Context, userID string, t report.Type) (*report.Report, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if _, err := report.ParseType(string(t)); err != nil {
		return nil, err
	}

	now := s.now()
	start, end := report.Period(t, now)
	rep := &report.Report{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        t,
		Status:      report.StatusPending,
		PeriodStart: start,
		PeriodEnd:   end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.reports.CreateReport(ctx, rep); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	s.invalidate(ctx, userID)

	if err := s.enqueueGeneration(ctx, rep); err != nil {
		return nil, err
	}

	s.logger.Info("report queued",
		zap.String("report_id", rep.ID),
		zap.String("user_id", userID),
		zap.String("type", string(t)))
	return rep, nil
}

func (s *Service) enqueueGeneration(ctx context.Context, rep *report.Report) error {
	payload := ReportJobPayload{ReportID: rep.ID, UserID: rep.UserID}
	if _, err := s.jobs.Enqueue(ctx, job.GenerateReport, payload.Map()); err != nil {
		reason := fmt.Sprintf("failed to queue generation: %v", err)
		if ferr := s.reports.FailReport(context.WithoutCancel(ctx), rep.ID, reason); ferr != nil {
			s.logger.Error("failed to mark report failed", zap.String("report_id", rep.ID), zap.Error(ferr))
		}
		s.invalidate(ctx, rep.UserID)
		return fmt.Errorf("failed to queue report %s: %w", rep.ID, err)
	}
	return nil
}

// RetryReport resets a DONE, FAILED or stale PROCESSING report to PENDING and queues
// exactly one new generation. The reset is conditional, so of several concurrent
// retries only one succeeds.
func (s *Service) RetryReport(ctx context.Context, reportID, userID string) (*report.Report, error) {
	rep, err := s.GetReport(ctx, reportID, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !rep.Retryable(now, s.staleAfter) {
		return nil, ErrReportInFlight
	}

	err = s.reports.ResetReport(ctx, reportID, now.Add(-s.staleAfter))
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrReportInFlight
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset report %s: %w", reportID, err)
	}
	if rep.Status == report.StatusProcessing {
		s.logger.Warn("retrying stale report", zap.String("report_id", reportID), zap.Time("updated_at", rep.UpdatedAt))
	}
	rep.Status = report.StatusPending
	rep.ErrorMsg = ""
	rep.PDFURL = ""
	rep.UpdatedAt = now
	s.invalidate(ctx, userID)

	if err := s.enqueueGeneration(ctx, rep); err != nil {
		return nil, err
	}

	s.logger.Info("report retry queued", zap.String("report_id", reportID), zap.String("user_id", userID))
	return rep, nil
}

// GetReport returns the report when it exists and belongs to userID.
func (s *Service) GetReport(ctx context.Context, reportID, userID string) (*report.Report, error) {
	rep, err := s.reports.GetReport(ctx, reportID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	if rep.UserID != userID {
		return nil, ErrReportNotFound
	}
	return rep, nil
}

func (s *Service) ListReports(ctx context.Context, userID string, filter report.Filter) ([]*report.Report, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}

	return cache.Wrap(ctx, s.cache, listCacheKey(userID, filter), s.cacheTTL,
		func(ctx context.Context) ([]*report.Report, error) {
			return s.reports.ListReports(ctx, userID, filter)
		})
}

// OpenReportPDF loads the stored document of a DONE report.
func (s *Service) OpenReportPDF(ctx context.Context, reportID, userID string) ([]byte, error) {
	rep, err := s.GetReport(ctx, reportID, userID)
	if err != nil {
		return nil, err
	}
	if rep.Status != report.StatusDone || rep.PDFURL == "" {
		return nil, ErrReportNotReady
	}

	data, err := s.files.Open(rep.PDFURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportNotReady, err)
	}
	return data, nil
}

// RequestDigest queues a refresh of the user's standing digest.
func (s *Service) RequestDigest(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUser
	}
	return s.jobs.Enqueue(ctx, job.GenerateDigest, map[string]any{"userId": userID})
}

// AnalyzeCorrelation correlates daily YouTube views with web sessions over the trailing period.
func (s *Service) AnalyzeCorrelation(ctx context.Context, userID string, t report.Type, maxLagDays int) (correlation.Result, error) {
	if userID == "" {
		return correlation.Result{}, ErrInvalidUser
	}

	start, end := report.Period(t, s.now())
	points, err := s.analytics.TimeSeries(ctx, userID, analytics.Period{Start: start, End: end})
	if err != nil {
		return correlation.Result{}, fmt.Errorf("failed to load time series: %w", err)
	}

	return correlation.Analyze(points, maxLagDays), nil
}

func listCacheKey(userID string, filter report.Filter) string {
	t, status := string(filter.Type), string(filter.Status)
	if t == "" {
		t = "all"
	}
	if status == "" {
		status = "all"
	}
	return fmt.Sprintf("reports:%s:%s:%s", userID, t, status)
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.DeletePattern(context.WithoutCancel(ctx), "reports:"+userID+":*"); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("user_id", userID), zap.Error(err))
	}
}
