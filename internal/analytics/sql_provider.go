package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nadmax/pulse/internal/correlation"
	"github.com/nadmax/pulse/internal/pulse"
	"go.uber.org/zap"
)

// SQLProvider reads daily per-channel rows from the channel_daily_metrics table.
type SQLProvider struct {
	db     *sql.DB
	logger *zap.Logger
}

type totals struct {
	youtube YouTubeStats
	ga4     GA4Stats
	ga4Days int
}

func NewSQLProvider(db *sql.DB, logger *zap.Logger) *SQLProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLProvider{db: db, logger: logger}
}

func (p *SQLProvider) totals(ctx context.Context, userID string, period Period) (totals, error) {
	query := `
		SELECT
			COALESCE(SUM(youtube_views), 0),
			COALESCE(SUM(subscribers_gained), 0),
			COALESCE(SUM(watch_time_minutes), 0),
			COALESCE(AVG(average_retention), 0),
			COALESCE(SUM(web_sessions) FILTER (WHERE ga4_connected), 0),
			COALESCE(SUM(new_users) FILTER (WHERE ga4_connected), 0),
			COALESCE(AVG(bounce_rate) FILTER (WHERE ga4_connected), 0),
			COUNT(*) FILTER (WHERE ga4_connected)
		FROM channel_daily_metrics
		WHERE user_id = $1 AND day BETWEEN $2 AND $3
	`

	var t totals
	err := p.db.QueryRowContext(ctx, query, userID, period.Start, period.End).Scan(
		&t.youtube.Views,
		&t.youtube.SubscribersGained,
		&t.youtube.WatchTimeMinutes,
		&t.youtube.AverageRetention,
		&t.ga4.Sessions,
		&t.ga4.NewUsers,
		&t.ga4.BounceRate,
		&t.ga4Days,
	)
	if err != nil {
		return totals{}, fmt.Errorf("failed to aggregate metrics for %s: %w", userID, err)
	}

	return t, nil
}

func (t totals) pulseScore() int {
	yt := pulse.YouTube{
		SubscribersGained: t.youtube.SubscribersGained,
		Views:             t.youtube.Views,
		WatchTimeMinutes:  t.youtube.WatchTimeMinutes,
	}

	var ga pulse.GA4
	if t.ga4Days > 0 {
		ga = pulse.GA4{NewUsers: t.ga4.NewUsers, BounceRate: t.ga4.BounceRate, Sessions: t.ga4.Sessions}
	}

	return pulse.Compute(yt, ga)
}

func (p *SQLProvider) Overview(ctx context.Context, userID string, period Period) (Overview, error) {
	current, err := p.totals(ctx, userID, period)
	if err != nil {
		return Overview{}, err
	}

	previous, err := p.totals(ctx, userID, period.Previous())
	if err != nil {
		return Overview{}, err
	}

	score, prevScore := current.pulseScore(), previous.pulseScore()

	return Overview{
		YoutubeViews:      current.youtube.Views,
		YoutubeViewsDelta: PercentChange(current.youtube.Views, previous.youtube.Views),
		SubscribersGained: current.youtube.SubscribersGained,
		WebSessions:       current.ga4.Sessions,
		WebSessionsDelta:  PercentChange(current.ga4.Sessions, previous.ga4.Sessions),
		PulseScore:        score,
		PulseScoreDelta:   score - prevScore,
	}, nil
}

func (p *SQLProvider) YouTubeStats(ctx context.Context, userID string, period Period) (YouTubeStats, error) {
	t, err := p.totals(ctx, userID, period)
	if err != nil {
		return YouTubeStats{}, err
	}
	return t.youtube, nil
}

func (p *SQLProvider) GA4Stats(ctx context.Context, userID string, period Period) (GA4Stats, error) {
	t, err := p.totals(ctx, userID, period)
	if err != nil {
		return GA4Stats{}, err
	}
	if t.ga4Days == 0 {
		return GA4Stats{}, ErrNoData
	}
	return t.ga4, nil
}

func (p *SQLProvider) TimeSeries(ctx context.Context, userID string, period Period) ([]correlation.Point, error) {
	query := `
		SELECT day, youtube_views, COALESCE(web_sessions, 0)
		FROM channel_daily_metrics
		WHERE user_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day ASC
	`

	rows, err := p.db.QueryContext(ctx, query, userID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load time series for %s: %w", userID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			p.logger.Warn("failed to close rows", zap.Error(err))
		}
	}()

	points := make([]correlation.Point, 0, period.Days())
	for rows.Next() {
		var pt correlation.Point
		if err := rows.Scan(&pt.Date, &pt.YoutubeViews, &pt.WebSessions); err != nil {
			return nil, err
		}
		points = append(points, pt)
	}

	return points, rows.Err()
}
