package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nadmax/pulse/internal/analytics"
	"github.com/nadmax/pulse/internal/digest"
	"github.com/nadmax/pulse/internal/job"
	"github.com/nadmax/pulse/internal/report"
	"go.uber.org/zap"
)

// ProcessDigestGeneration handles digest:generate by composing a digest for the trailing
// week and storing it as the user's standing digest.
func (s *Service) ProcessDigestGeneration(ctx context.Context, payload map[string]any) error {
	userID, ok := job.PayloadString(payload, "userId")
	if !ok {
		return errors.New("invalid payload: missing required field: userId")
	}

	start, end := report.Period(report.Weekly, s.now())
	ov, err := s.analytics.Overview(ctx, userID, analytics.Period{Start: start, End: end})
	if err != nil {
		return fmt.Errorf("failed to load overview for %s: %w", userID, err)
	}

	d := &report.Digest{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   digest.GenerateHeuristic(digestInput(report.Weekly, ov)),
		CreatedAt: s.now(),
	}
	if err := s.reports.SaveDigest(ctx, d); err != nil {
		return fmt.Errorf("failed to save digest: %w", err)
	}

	s.logger.Info("standing digest refreshed", zap.String("user_id", userID), zap.String("digest_id", d.ID))
	return nil
}
