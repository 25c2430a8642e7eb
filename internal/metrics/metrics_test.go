package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJobEnqueued(t *testing.T) {
	JobsEnqueued.Reset()

	for _, name := range []string{"report:generate", "report:send-email", "digest:generate"} {
		t.Run(name, func(t *testing.T) {
			RecordJobEnqueued(name)

			metric := getCounterValue(t, JobsEnqueued, name)
			assert.Equal(t, 1.0, metric, "counter should be incremented")
		})
	}
}

func TestRecordJobCompleted(t *testing.T) {
	JobsCompleted.Reset()
	JobDuration.Reset()

	RecordJobCompleted("report:generate", 2*time.Second)

	assert.Equal(t, 1.0, getCounterValue(t, JobsCompleted, "report:generate"))
	assert.Equal(t, 2.0, getHistogramSum(t, JobDuration, "report:generate", "completed"))
}

func TestRecordJobFailed(t *testing.T) {
	JobsFailed.Reset()
	JobDuration.Reset()

	RecordJobFailed("report:send-email", 500*time.Millisecond)

	assert.Equal(t, 1.0, getCounterValue(t, JobsFailed, "report:send-email"))
	assert.Equal(t, 0.5, getHistogramSum(t, JobDuration, "report:send-email", "failed"))
}

func TestRecordJobCancelled(t *testing.T) {
	JobsCancelled.Reset()

	RecordJobCancelled("report:generate")

	assert.Equal(t, 1.0, getCounterValue(t, JobsCancelled, "report:generate"))
}

func TestRecordJobWaitTime(t *testing.T) {
	JobWaitTime.Reset()

	waits := []time.Duration{10 * time.Millisecond, time.Second, time.Minute}
	for i, w := range waits {
		RecordJobWaitTime("wait-test", w)

		metric := getHistogramMetric(t, JobWaitTime, "wait-test")
		assert.Equal(t, uint64(i+1), metric.Histogram.GetSampleCount())
	}
}

func TestRecordReport(t *testing.T) {
	ReportsProcessed.Reset()

	RecordReport("WEEKLY", "done")
	RecordReport("WEEKLY", "done")
	RecordReport("MONTHLY", "failed")

	assert.Equal(t, 2.0, getCounterValue(t, ReportsProcessed, "WEEKLY", "done"))
	assert.Equal(t, 1.0, getCounterValue(t, ReportsProcessed, "MONTHLY", "failed"))
}

func TestRecordPDFRender(t *testing.T) {
	PDFRenders.Reset()

	RecordPDFRender("fallback")

	assert.Equal(t, 1.0, getCounterValue(t, PDFRenders, "fallback"))
}

func TestUpdateJobGauges_Reset(t *testing.T) {
	JobsInStore.Reset()

	UpdateJobGauges(map[string]map[string]int{
		"waiting": {"report:generate": 5},
	})
	UpdateJobGauges(map[string]map[string]int{
		"completed": {"report:generate": 3},
	})

	assert.Equal(t, 3.0, getGaugeValue(t, JobsInStore, "completed", "report:generate"))
	assert.Equal(t, 0.0, getGaugeValue(t, JobsInStore, "waiting", "report:generate"))
}

func TestUpdateQueueDepth(t *testing.T) {
	for _, depth := range []int{0, 10, 100} {
		UpdateQueueDepth(depth)

		metric := &dto.Metric{}
		require.NoError(t, QueueDepth.Write(metric))
		assert.Equal(t, float64(depth), metric.Gauge.GetValue())
	}
}

func TestActiveWorkers(t *testing.T) {
	UpdateActiveWorkers(0)
	IncActiveWorkers()
	IncActiveWorkers()
	DecActiveWorkers()

	metric := &dto.Metric{}
	require.NoError(t, WorkersActive.Write(metric))
	assert.Equal(t, 1.0, metric.Gauge.GetValue())
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	tests := []struct {
		name     string
		method   string
		endpoint string
		status   string
		duration time.Duration
	}{
		{"successful GET", "GET", "/api/reports", "200", 50 * time.Millisecond},
		{"conflict", "POST", "/api/reports/{id}/retry", "409", 20 * time.Millisecond},
		{"not found", "GET", "/unknown", "404", 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordHTTPRequest(tt.method, tt.endpoint, tt.status, tt.duration)

			assert.Greater(t, getCounterValue(t, HTTPRequestsTotal, tt.method, tt.endpoint, tt.status), 0.0)
			assert.Greater(t, getHistogramSum(t, HTTPRequestDuration, tt.method, tt.endpoint), 0.0)
		})
	}
}

func getCounterValue(t *testing.T, counter *prometheus.CounterVec, labels ...string) float64 {
	metric := &dto.Metric{}
	c, err := counter.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)

	require.NoError(t, c.Write(metric))
	return metric.Counter.GetValue()
}

func getGaugeValue(t *testing.T, gauge *prometheus.GaugeVec, labels ...string) float64 {
	metric := &dto.Metric{}
	g, err := gauge.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)

	require.NoError(t, g.Write(metric))
	return metric.Gauge.GetValue()
}

func getHistogramSum(t *testing.T, histogram *prometheus.HistogramVec, labels ...string) float64 {
	return getHistogramMetric(t, histogram, labels...).Histogram.GetSampleSum()
}

func getHistogramMetric(t *testing.T, histogram *prometheus.HistogramVec, labels ...string) *dto.Metric {
	metric := &dto.Metric{}
	observer, err := histogram.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)

	h := observer.(prometheus.Histogram)
	require.NoError(t, h.Write(metric))
	return metric
}
