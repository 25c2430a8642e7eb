package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nadmax/pulse/internal/notify"
	"github.com/nadmax/pulse/internal/report"
	"github.com/nadmax/pulse/internal/repository"
	"go.uber.org/zap"
)

// ProcessReportEmail handles report:send-email. Delivery errors are logged, not retried.
func (s *Service) ProcessReportEmail(ctx context.Context, payload map[string]any) error {
	p, err := parseReportPayload(payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	rep, err := s.reports.GetReport(ctx, p.ReportID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load report %s: %w", p.ReportID, err)
	}
	if rep.UserID != p.UserID || rep.Status != report.StatusDone {
		s.logger.Debug("report not deliverable, skipping email",
			zap.String("report_id", rep.ID),
			zap.String("status", string(rep.Status)))
		return nil
	}

	if err := s.mailer.SendReportReadyEmail(ctx, notify.ReportReadyEmail{
		UserID:     rep.UserID,
		ReportID:   rep.ID,
		ReportType: string(rep.Type),
	}); err != nil {
		s.logger.Error("failed to send report email",
			zap.String("report_id", rep.ID),
			zap.String("user_id", rep.UserID),
			zap.Error(err))
	}

	return nil
}
