// Package dashboard implements the monitoring endpoints for queue metrics and job status.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/nadmax/pulse/internal/httputil"
	"github.com/nadmax/pulse/internal/job"
)

// JobSource is the read side of the job queue.
type JobSource interface {
	List(ctx context.Context) ([]*job.Job, error)
	Depth() int
	Workers() int
}

type Dashboard struct {
	jobs JobSource
	now  func() time.Time
}

type Stats struct {
	TotalJobs       int            `json:"total_jobs"`
	WaitingJobs     int            `json:"waiting_jobs"`
	ActiveJobs      int            `json:"active_jobs"`
	CompletedJobs   int            `json:"completed_jobs"`
	FailedJobs      int            `json:"failed_jobs"`
	JobsByName      map[string]int `json:"jobs_by_name"`
	QueueDepth      int            `json:"queue_depth"`
	Workers         int            `json:"workers"`
	AverageWaitTime string         `json:"average_wait_time"`
	LastUpdated     time.Time      `json:"last_updated"`
}

type JobHistory struct {
	JobID        string     `json:"job_id"`
	Name         string     `json:"name"`
	Status       job.Status `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	Duration     string     `json:"duration"`
}

func NewDashboard(jobs JobSource) *Dashboard {
	return &Dashboard{jobs: jobs, now: time.Now}
}

// Collect tallies the retained job records.
func (d *Dashboard) Collect(ctx context.Context) (Stats, error) {
	jobs, err := d.jobs.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalJobs:   len(jobs),
		JobsByName:  make(map[string]int),
		QueueDepth:  d.jobs.Depth(),
		Workers:     d.jobs.Workers(),
		LastUpdated: d.now().UTC(),
	}

	var totalWaitTime time.Duration
	waitCount := 0

	for _, j := range jobs {
		switch j.Status {
		case job.StatusWaiting:
			stats.WaitingJobs++
		case job.StatusActive:
			stats.ActiveJobs++
		case job.StatusCompleted:
			stats.CompletedJobs++
		case job.StatusFailed:
			stats.FailedJobs++
		}

		stats.JobsByName[j.Name]++

		if j.StartedAt != nil {
			totalWaitTime += j.StartedAt.Sub(j.CreatedAt)
			waitCount++
		}
	}

	if waitCount > 0 {
		avgWait := totalWaitTime / time.Duration(waitCount)
		stats.AverageWaitTime = avgWait.Round(time.Millisecond).String()
	} else {
		stats.AverageWaitTime = "N/A"
	}

	return stats, nil
}

func (d *Dashboard) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := d.Collect(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, stats, http.StatusOK)
}

// GetRecentJobs lists jobs that finished within the last 24 hours.
func (d *Dashboard) GetRecentJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := d.jobs.List(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cutoff := d.now().Add(-24 * time.Hour)
	history := []JobHistory{}

	for _, j := range jobs {
		if j.CompletedAt == nil {
			continue
		}
		if j.CompletedAt.Before(cutoff) {
			continue
		}

		var duration string
		if j.StartedAt != nil {
			duration = j.CompletedAt.Sub(*j.StartedAt).Round(time.Millisecond).String()
		}

		history = append(history, JobHistory{
			JobID:        j.ID,
			Name:         j.Name,
			Status:       j.Status,
			ErrorMessage: j.ErrorMessage,
			CreatedAt:    j.CreatedAt,
			CompletedAt:  j.CompletedAt,
			Duration:     duration,
		})
	}

	httputil.WriteJSON(w, history, http.StatusOK)
}
