package analytics

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nadmax/pulse/internal/pulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ Provider = (*SQLProvider)(nil)

var totalsColumns = []string{
	"youtube_views", "subscribers_gained", "watch_time_minutes", "average_retention",
	"web_sessions", "new_users", "bounce_rate", "ga4_days",
}

func setupProvider(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SQLProvider) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewSQLProvider(db, zap.NewNop())
}

func TestOverview(t *testing.T) {
	db, mock, provider := setupProvider(t)
	defer func() { _ = db.Close() }()

	period := weekEnding(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	prev := period.Previous()

	mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
		WithArgs("u1", period.Start, period.End).
		WillReturnRows(sqlmock.NewRows(totalsColumns).AddRow(28400, 120, 60000, 42.5, 9120, 800, 0.4, 7))
	mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
		WithArgs("u1", prev.Start, prev.End).
		WillReturnRows(sqlmock.NewRows(totalsColumns).AddRow(25244, 100, 50000, 40.0, 9421, 700, 0.5, 7))

	ov, err := provider.Overview(context.Background(), "u1", period)
	require.NoError(t, err)

	wantScore := pulse.Compute(
		pulse.YouTube{SubscribersGained: 120, Views: 28400, WatchTimeMinutes: 60000},
		pulse.GA4{NewUsers: 800, BounceRate: 0.4, Sessions: 9120},
	)
	wantPrev := pulse.Compute(
		pulse.YouTube{SubscribersGained: 100, Views: 25244, WatchTimeMinutes: 50000},
		pulse.GA4{NewUsers: 700, BounceRate: 0.5, Sessions: 9421},
	)

	assert.Equal(t, int64(28400), ov.YoutubeViews)
	assert.Equal(t, 12.5, ov.YoutubeViewsDelta)
	assert.Equal(t, int64(120), ov.SubscribersGained)
	assert.Equal(t, int64(9120), ov.WebSessions)
	assert.Equal(t, -3.2, ov.WebSessionsDelta)
	assert.Equal(t, wantScore, ov.PulseScore)
	assert.Equal(t, wantScore-wantPrev, ov.PulseScoreDelta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverview_WithoutGA4IgnoresBounceRate(t *testing.T) {
	db, mock, provider := setupProvider(t)
	defer func() { _ = db.Close() }()

	period := weekEnding(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
		WillReturnRows(sqlmock.NewRows(totalsColumns).AddRow(0, 0, 0, 0, 0, 0, 0, 0))
	mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
		WillReturnRows(sqlmock.NewRows(totalsColumns).AddRow(0, 0, 0, 0, 0, 0, 0, 0))

	ov, err := provider.Overview(context.Background(), "u1", period)
	require.NoError(t, err)
	assert.Equal(t, 0, ov.PulseScore)
	assert.Equal(t, 0, ov.PulseScoreDelta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverview_QueryError(t *testing.T) {
	db, mock, provider := setupProvider(t)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
		WillReturnError(errors.New("connection reset"))

	_, err := provider.Overview(context.Background(), "u1", weekEnding(time.Now().UTC()))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to aggregate metrics for u1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestYouTubeStats(t *testing.T) {
	db, mock, provider := setupProvider(t)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
		WillReturnRows(sqlmock.NewRows(totalsColumns).AddRow(28400, 120, 60000, 42.5, 0, 0, 0, 0))

	yt, err := provider.YouTubeStats(context.Background(), "u1", weekEnding(time.Now().UTC()))
	require.NoError(t, err)
	assert.Equal(t, YouTubeStats{Views: 28400, SubscribersGained: 120, WatchTimeMinutes: 60000, AverageRetention: 42.5}, yt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGA4Stats(t *testing.T) {
	db, mock, provider := setupProvider(t)
	defer func() { _ = db.Close() }()
	period := weekEnding(time.Now().UTC())

	t.Run("connected", func(t *testing.T) {
		mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
			WillReturnRows(sqlmock.NewRows(totalsColumns).AddRow(100, 1, 10, 0.3, 9120, 800, 0.4, 7))

		ga, err := provider.GA4Stats(context.Background(), "u1", period)
		require.NoError(t, err)
		assert.Equal(t, GA4Stats{Sessions: 9120, NewUsers: 800, BounceRate: 0.4}, ga)
	})

	t.Run("not connected", func(t *testing.T) {
		mock.ExpectQuery("SELECT.*FROM channel_daily_metrics").
			WillReturnRows(sqlmock.NewRows(totalsColumns).AddRow(100, 1, 10, 0.3, 0, 0, 0, 0))

		_, err := provider.GA4Stats(context.Background(), "u1", period)
		assert.True(t, errors.Is(err, ErrNoData))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries(t *testing.T) {
	db, mock, provider := setupProvider(t)
	defer func() { _ = db.Close() }()

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	period := weekEnding(day.AddDate(0, 0, 6))

	mock.ExpectQuery("SELECT day, youtube_views, COALESCE\\(web_sessions, 0\\)").
		WithArgs("u1", period.Start, period.End).
		WillReturnRows(sqlmock.NewRows([]string{"day", "youtube_views", "web_sessions"}).
			AddRow(day, 100, 80).
			AddRow(day.AddDate(0, 0, 1), 200, 170).
			AddRow(day.AddDate(0, 0, 2), 300, 260))

	points, err := provider.TimeSeries(context.Background(), "u1", period)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, day, points[0].Date)
	assert.Equal(t, int64(300), points[2].YoutubeViews)
	assert.Equal(t, int64(260), points[2].WebSessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
