// Package analytics exposes per-user YouTube and GA4 aggregates over a reporting period.
package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/nadmax/pulse/internal/correlation"
)

var ErrNoData = errors.New("no analytics data for period")

type (
	Period struct {
		Start time.Time
		End   time.Time
	}

	Overview struct {
		YoutubeViews      int64   `json:"youtube_views"`
		YoutubeViewsDelta float64 `json:"youtube_views_delta"`
		SubscribersGained int64   `json:"subscribers_gained"`
		WebSessions       int64   `json:"web_sessions"`
		WebSessionsDelta  float64 `json:"web_sessions_delta"`
		PulseScore        int     `json:"pulse_score"`
		PulseScoreDelta   int     `json:"pulse_score_delta"`
	}

	// YouTubeStats totals a period. AverageRetention is the mean daily average view percentage (0-100).
	YouTubeStats struct {
		Views             int64   `json:"views"`
		SubscribersGained int64   `json:"subscribers_gained"`
		WatchTimeMinutes  int64   `json:"watch_time_minutes"`
		AverageRetention  float64 `json:"average_retention"`
	}

	GA4Stats struct {
		Sessions   int64   `json:"sessions"`
		NewUsers   int64   `json:"new_users"`
		BounceRate float64 `json:"bounce_rate"`
	}
)

type Provider interface {
	Overview(ctx context.Context, userID string, p Period) (Overview, error)
	YouTubeStats(ctx context.Context, userID string, p Period) (YouTubeStats, error)
	GA4Stats(ctx context.Context, userID string, p Period) (GA4Stats, error)
	TimeSeries(ctx context.Context, userID string, p Period) ([]correlation.Point, error)
}

// Days counts the calendar days covered by the period, inclusive.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Previous is the period of equal length ending just before p starts.
func (p Period) Previous() Period {
	return Period{
		Start: p.Start.AddDate(0, 0, -p.Days()),
		End:   p.Start.Add(-time.Millisecond),
	}
}

// PercentChange is the change from previous to current in percent, rounded to one decimal.
// Growth from zero counts as 100%.
func PercentChange(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}

	change := float64(current-previous) / float64(previous) * 100
	return math.Round(change*10) / 10
}
