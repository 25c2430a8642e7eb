// Package metrics provides Prometheus metrics for the job queue, the report pipeline and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"job"},
	)
	JobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_jobs_completed_total",
			Help: "Total number of jobs completed successfully",
		},
		[]string{"job"},
	)
	JobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_jobs_failed_total",
			Help: "Total number of jobs that failed",
		},
		[]string{"job"},
	)
	JobsCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_jobs_cancelled_total",
			Help: "Total number of jobs cancelled while running",
		},
		[]string{"job"},
	)
	JobsInStore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_jobs_in_store",
			Help: "Current number of job records by status",
		},
		[]string{"status", "job"},
	)
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_job_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"job", "status"},
	)
	JobWaitTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_job_wait_time_seconds",
			Help:    "Time jobs spend waiting before a worker picks them up",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"job"},
	)
	ReportsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_reports_total",
			Help: "Total number of report generations by type and outcome",
		},
		[]string{"type", "outcome"},
	)
	PDFRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_pdf_renders_total",
			Help: "Total number of PDF renders by renderer tier",
		},
		[]string{"tier"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_queue_depth",
			Help: "Current number of jobs waiting for a worker",
		},
	)
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_workers_active",
			Help: "Number of workers currently running a job",
		},
	)
)

func RecordJobEnqueued(name string) {
	JobsEnqueued.WithLabelValues(name).Inc()
}

func RecordJobCompleted(name string, duration time.Duration) {
	JobsCompleted.WithLabelValues(name).Inc()
	JobDuration.WithLabelValues(name, "completed").Observe(duration.Seconds())
}

func RecordJobFailed(name string, duration time.Duration) {
	JobsFailed.WithLabelValues(name).Inc()
	JobDuration.WithLabelValues(name, "failed").Observe(duration.Seconds())
}

func RecordJobCancelled(name string) {
	JobsCancelled.WithLabelValues(name).Inc()
}

func RecordJobWaitTime(name string, waitTime time.Duration) {
	JobWaitTime.WithLabelValues(name).Observe(waitTime.Seconds())
}

func RecordReport(reportType, outcome string) {
	ReportsProcessed.WithLabelValues(reportType, outcome).Inc()
}

func RecordPDFRender(tier string) {
	PDFRenders.WithLabelValues(tier).Inc()
}

func UpdateJobGauges(jobsByStatus map[string]map[string]int) {
	JobsInStore.Reset()
	for status, nameMap := range jobsByStatus {
		for name, count := range nameMap {
			JobsInStore.WithLabelValues(status, name).Set(float64(count))
		}
	}
}

func UpdateQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

func UpdateActiveWorkers(count int) {
	WorkersActive.Set(float64(count))
}

func IncActiveWorkers() {
	WorkersActive.Inc()
}

func DecActiveWorkers() {
	WorkersActive.Dec()
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
