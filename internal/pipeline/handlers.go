package pipeline

import (
	"context"
	"errors"

	"github.com/nadmax/pulse/internal/job"
	"github.com/nadmax/pulse/internal/queue"
)

type ReportJobPayload struct {
	ReportID string
	UserID   string
}

func (p ReportJobPayload) Map() map[string]any {
	return map[string]any{"reportId": p.ReportID, "userId": p.UserID}
}

func parseReportPayload(payload map[string]any) (ReportJobPayload, error) {
	reportID, ok := job.PayloadString(payload, "reportId")
	if !ok {
		return ReportJobPayload{}, errors.New("missing required field: reportId")
	}

	userID, ok := job.PayloadString(payload, "userId")
	if !ok {
		return ReportJobPayload{}, errors.New("missing required field: userId")
	}

	return ReportJobPayload{ReportID: reportID, UserID: userID}, nil
}

type HandlerRegistry interface {
	RegisterHandler(name string, handler queue.HandlerFunc)
}

// RegisterHandlers binds the pipeline's job handlers to the queue.
func (s *Service) RegisterHandlers(r HandlerRegistry) {
	r.RegisterHandler(job.GenerateReport, func(ctx context.Context, payload map[string]any) error {
		return s.ProcessReportGeneration(ctx, payload)
	})
	r.RegisterHandler(job.SendReportEmail, func(ctx context.Context, payload map[string]any) error {
		return s.ProcessReportEmail(ctx, payload)
	})
	r.RegisterHandler(job.GenerateDigest, func(ctx context.Context, payload map[string]any) error {
		return s.ProcessDigestGeneration(ctx, payload)
	})
}
