// Package api exposes the report pipeline, job status, analytics and dashboard over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nadmax/pulse/internal/correlation"
	"github.com/nadmax/pulse/internal/dashboard"
	"github.com/nadmax/pulse/internal/httputil"
	"github.com/nadmax/pulse/internal/job"
	"github.com/nadmax/pulse/internal/pipeline"
	"github.com/nadmax/pulse/internal/pulse"
	"github.com/nadmax/pulse/internal/queue"
	"github.com/nadmax/pulse/internal/report"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	userHeader      = "X-User-ID"
	maxBodyBytes    = 1 << 20
	maxLagDaysLimit = 30
)

type ReportService interface {
	CreateReport(ctx context.Context, userID string, t report.Type) (*report.Report, error)
	RetryReport(ctx context.Context, reportID, userID string) (*report.Report, error)
	GetReport(ctx context.Context, reportID, userID string) (*report.Report, error)
	ListReports(ctx context.Context, userID string, filter report.Filter) ([]*report.Report, error)
	OpenReportPDF(ctx context.Context, reportID, userID string) ([]byte, error)
	RequestDigest(ctx context.Context, userID string) (string, error)
	AnalyzeCorrelation(ctx context.Context, userID string, t report.Type, maxLagDays int) (correlation.Result, error)
}

type Jobs interface {
	dashboard.JobSource
	GetStatus(ctx context.Context, id string) (*job.Job, error)
	Cancel(id string) error
}

type API struct {
	reports ReportService
	jobs    Jobs
	logger  *zap.Logger
	mux     *http.ServeMux
}

type CreateReportRequest struct {
	Type string `json:"type"`
}

type PulseScoreRequest struct {
	YouTube pulse.YouTube `json:"youtube"`
	GA4     pulse.GA4     `json:"ga4"`
}

type PulseScoreResponse struct {
	Score     int                `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

func NewAPI(reports ReportService, jobs Jobs, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}

	api := &API{
		reports: reports,
		jobs:    jobs,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.mux.HandleFunc("POST /api/reports", a.createReport)
	a.mux.HandleFunc("GET /api/reports", a.listReports)
	a.mux.HandleFunc("GET /api/reports/{id}", a.getReport)
	a.mux.HandleFunc("POST /api/reports/{id}/retry", a.retryReport)
	a.mux.HandleFunc("GET /api/reports/{id}/pdf", a.downloadReport)

	a.mux.HandleFunc("GET /api/jobs/{id}", a.getJob)
	a.mux.HandleFunc("DELETE /api/jobs/{id}", a.cancelJob)
	a.mux.HandleFunc("GET /api/analytics/correlation", a.correlation)
	a.mux.HandleFunc("POST /api/pulse-score", a.pulseScore)
	a.mux.HandleFunc("POST /api/digests", a.requestDigest)

	dash := dashboard.NewDashboard(a.jobs)
	a.mux.HandleFunc("GET /api/dashboard/stats", dash.GetStats)
	a.mux.HandleFunc("GET /api/dashboard/history", dash.GetRecentJobs)

	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	a.mux.Handle("GET /metrics", promhttp.Handler())
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) createReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := a.decode(w, r, &req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	t, err := report.ParseType(req.Type)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := a.reports.CreateReport(r.Context(), userID, t)
	if err != nil {
		a.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, rep, http.StatusCreated)
}

func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var filter report.Filter
	q := r.URL.Query()
	if v := q.Get("type"); v != "" {
		t, err := report.ParseType(v)
		if err != nil {
			httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Type = t
	}
	if v := q.Get("status"); v != "" {
		s, err := report.ParseStatus(v)
		if err != nil {
			httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Status = s
	}

	reports, err := a.reports.ListReports(r.Context(), userID, filter)
	if err != nil {
		a.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, reports, http.StatusOK)
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rep, err := a.reports.GetReport(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, rep, http.StatusOK)
}

func (a *API) retryReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rep, err := a.reports.RetryReport(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, rep, http.StatusAccepted)
}

func (a *API) downloadReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	doc, err := a.reports.OpenReportPDF(r.Context(), id, userID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pulse-report-%s.pdf"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	if _, err := w.Write(doc); err != nil {
		a.logger.Warn("failed to write report document", zap.String("report_id", id), zap.Error(err))
	}
}

// getJob only exposes jobs whose payload belongs to the caller.
func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	j, ok := a.ownedJob(w, r)
	if !ok {
		return
	}

	httputil.WriteJSON(w, j, http.StatusOK)
}

// cancelJob cancels a running job. The job then fails with context.Canceled.
func (a *API) cancelJob(w http.ResponseWriter, r *http.Request) {
	j, ok := a.ownedJob(w, r)
	if !ok {
		return
	}

	if err := a.jobs.Cancel(j.ID); err != nil {
		a.writeError(w, err)
		return
	}

	a.logger.Info("job cancelled", zap.String("job_id", j.ID), zap.String("job_name", j.Name))
	httputil.WriteJSON(w, map[string]string{"job_id": j.ID, "status": "cancelling"}, http.StatusAccepted)
}

func (a *API) ownedJob(w http.ResponseWriter, r *http.Request) (*job.Job, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}

	j, err := a.jobs.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return nil, false
	}
	if owner, _ := job.PayloadString(j.Payload, "userId"); owner != userID {
		httputil.WriteJSONError(w, "Job not found", http.StatusNotFound)
		return nil, false
	}
	return j, true
}

func (a *API) correlation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var t report.Type
	switch q.Get("period") {
	case "", "7d":
		t = report.Weekly
	case "30d":
		t = report.Monthly
	default:
		httputil.WriteJSONError(w, "period must be 7d or 30d", http.StatusBadRequest)
		return
	}

	maxLag := correlation.DefaultMaxLagDays
	if v := q.Get("maxLag"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxLagDaysLimit {
			httputil.WriteJSONError(w, fmt.Sprintf("maxLag must be an integer between 0 and %d", maxLagDaysLimit), http.StatusBadRequest)
			return
		}
		maxLag = n
	}

	res, err := a.reports.AnalyzeCorrelation(r.Context(), userID, t, maxLag)
	if err != nil {
		a.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, res, http.StatusOK)
}

func (a *API) pulseScore(w http.ResponseWriter, r *http.Request) {
	var req PulseScoreRequest
	if err := a.decode(w, r, &req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validatePulseInput(req); err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	httputil.WriteJSON(w, PulseScoreResponse{
		Score:     pulse.Compute(req.YouTube, req.GA4),
		Breakdown: pulse.Breakdown(req.YouTube, req.GA4),
	}, http.StatusOK)
}

func validatePulseInput(req PulseScoreRequest) error {
	yt, ga := req.YouTube, req.GA4
	if yt.SubscribersGained < 0 || yt.Views < 0 || yt.WatchTimeMinutes < 0 {
		return errors.New("youtube metrics must be non-negative")
	}
	if ga.NewUsers < 0 || ga.Sessions < 0 {
		return errors.New("ga4 metrics must be non-negative")
	}
	if ga.BounceRate < 0 || ga.BounceRate > 1 {
		return errors.New("ga4 bounce_rate must be between 0 and 1")
	}
	return nil
}

func (a *API) requestDigest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	jobID, err := a.reports.RequestDigest(r.Context(), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, map[string]string{"job_id": jobID}, http.StatusAccepted)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		httputil.WriteJSONError(w, userHeader+" header is required", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() {
		if err := body.Close(); err != nil {
			a.logger.Warn("failed to close request body", zap.Error(err))
		}
	}()

	return json.NewDecoder(body).Decode(v)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrReportNotFound):
		httputil.WriteJSONError(w, "Report not found", http.StatusNotFound)
	case errors.Is(err, pipeline.ErrReportNotReady):
		httputil.WriteJSONError(w, "Report document not available", http.StatusNotFound)
	case errors.Is(err, queue.ErrJobNotFound):
		httputil.WriteJSONError(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, pipeline.ErrReportInFlight), errors.Is(err, queue.ErrJobNotRunning):
		httputil.WriteJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, pipeline.ErrInvalidUser):
		httputil.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, queue.ErrQueueClosed):
		httputil.WriteJSONError(w, "Service is shutting down", http.StatusServiceUnavailable)
	default:
		a.logger.Error("request failed", zap.Error(err))
		httputil.WriteJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
