package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nadmax/pulse/internal/analytics"
	"github.com/nadmax/pulse/internal/digest"
	"github.com/nadmax/pulse/internal/job"
	"github.com/nadmax/pulse/internal/metrics"
	"github.com/nadmax/pulse/internal/pdf"
	"github.com/nadmax/pulse/internal/report"
	"github.com/nadmax/pulse/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// ProcessReportGeneration handles report:generate. Failures while building the report are
// stored on the report as FAILED and do not fail the job; only an unusable payload or
// an unreadable report record is returned as an error.
func (s *Service) ProcessReportGeneration(ctx context.Context, payload map[string]any) error {
	p, err := parseReportPayload(payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	log := s.logger.With(zap.String("report_id", p.ReportID), zap.String("user_id", p.UserID))

	rep, err := s.reports.GetReport(ctx, p.ReportID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("report no longer exists, skipping generation")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load report %s: %w", p.ReportID, err)
	}
	if rep.UserID != p.UserID {
		log.Warn("report owner mismatch, skipping generation")
		return nil
	}

	if err := s.generate(ctx, rep); err != nil {
		log.Error("report generation failed", zap.Error(err))

		bg := context.WithoutCancel(ctx)
		if ferr := s.reports.FailReport(bg, rep.ID, err.Error()); ferr != nil {
			log.Error("failed to mark report failed", zap.Error(ferr))
		}
		s.invalidate(bg, rep.UserID)
		metrics.RecordReport(string(rep.Type), "failed")
		return nil
	}

	metrics.RecordReport(string(rep.Type), "done")
	log.Info("report generated")
	return nil
}

func (s *Service) generate(ctx context.Context, rep *report.Report) error {
	if err := s.reports.MarkProcessing(ctx, rep.ID); err != nil {
		return fmt.Errorf("failed to mark report processing: %w", err)
	}
	s.invalidate(ctx, rep.UserID)

	period := analytics.Period{Start: rep.PeriodStart, End: rep.PeriodEnd}

	var (
		wg       sync.WaitGroup
		overview analytics.Overview
		youtube  analytics.YouTubeStats
		ga4Stats analytics.GA4Stats
		ovErr    error
		ytErr    error
		ga4Err   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		defer recoverFetch(&ovErr, "overview")
		overview, ovErr = s.analytics.Overview(ctx, rep.UserID, period)
	}()
	go func() {
		defer wg.Done()
		defer recoverFetch(&ytErr, "YouTube stats")
		youtube, ytErr = s.analytics.YouTubeStats(ctx, rep.UserID, period)
	}()
	go func() {
		defer wg.Done()
		defer recoverFetch(&ga4Err, "GA4 stats")
		ga4Stats, ga4Err = s.analytics.GA4Stats(ctx, rep.UserID, period)
	}()
	wg.Wait()

	var ga4 *analytics.GA4Stats
	switch {
	case ga4Err == nil:
		ga4 = &ga4Stats
	case !errors.Is(ga4Err, analytics.ErrNoData):
		s.logger.Warn("GA4 stats unavailable", zap.String("report_id", rep.ID), zap.Error(ga4Err))
	}

	if ovErr != nil {
		return fmt.Errorf("failed to load overview: %w", ovErr)
	}
	if ytErr != nil {
		return fmt.Errorf("failed to load YouTube stats: %w", ytErr)
	}

	text := s.standingDigest(ctx, rep.UserID)
	if text == "" {
		text = digest.GenerateHeuristic(digestInput(rep.Type, overview))
	}

	doc := s.renderer.Render(ctx, pdf.Payload{
		Title:       rep.Type.Title(),
		PeriodLabel: report.PeriodLabel(rep.PeriodStart, rep.PeriodEnd),
		GeneratedAt: s.now(),
		KPIs:        buildKPIs(overview, youtube, ga4),
		Digest:      text,
	})

	location, err := s.files.Save(ctx, rep.ID, doc)
	if err != nil {
		return fmt.Errorf("failed to store report document: %w", err)
	}

	if err := s.reports.CompleteReport(ctx, rep.ID, location, text); err != nil {
		return fmt.Errorf("failed to complete report: %w", err)
	}
	s.invalidate(ctx, rep.UserID)

	payload := ReportJobPayload{ReportID: rep.ID, UserID: rep.UserID}
	if _, err := s.jobs.Enqueue(ctx, job.SendReportEmail, payload.Map()); err != nil {
		s.logger.Error("failed to queue report email", zap.String("report_id", rep.ID), zap.Error(err))
	}

	return nil
}

func (s *Service) standingDigest(ctx context.Context, userID string) string {
	d, err := s.reports.LatestDigest(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to load standing digest", zap.String("user_id", userID), zap.Error(err))
		}
		return ""
	}
	return d.Content
}

// recoverFetch turns a panic in an analytics fetch goroutine into an error.
func recoverFetch(errp *error, source string) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("%s fetch panicked: %v", source, r)
	}
}

func digestInput(t report.Type, ov analytics.Overview) digest.Input {
	period := digest.Weekly
	if t == report.Monthly {
		period = digest.Monthly
	}

	return digest.Input{
		Period:            period,
		YoutubeViews:      ov.YoutubeViews,
		YoutubeViewsDelta: ov.YoutubeViewsDelta,
		WebSessions:       ov.WebSessions,
		WebSessionsDelta:  ov.WebSessionsDelta,
		PulseScore:        ov.PulseScore,
		PulseScoreDelta:   ov.PulseScoreDelta,
	}
}

func buildKPIs(ov analytics.Overview, yt analytics.YouTubeStats, ga4 *analytics.GA4Stats) []pdf.KPI {
	newUsers := "n/a"
	if ga4 != nil {
		newUsers = printer.Sprintf("%d", ga4.NewUsers)
	}

	return []pdf.KPI{
		{Label: "YouTube views", Value: printer.Sprintf("%d", ov.YoutubeViews)},
		{Label: "Subscribers gained", Value: printer.Sprintf("%d", ov.SubscribersGained)},
		{Label: "Avg. retention", Value: fmt.Sprintf("%.1f%%", yt.AverageRetention)},
		{Label: "Web sessions", Value: printer.Sprintf("%d", ov.WebSessions)},
		{Label: "New users", Value: newUsers},
		{Label: "Pulse Score", Value: fmt.Sprintf("%d", ov.PulseScore)},
	}
}
