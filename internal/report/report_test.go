package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_Weekly(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 42, 7, 0, time.UTC)

	start, end := Period(Weekly, now)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, time.UTC), end)
}

func TestPeriod_Monthly(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 1, 0, time.UTC)

	start, end := Period(Monthly, now)

	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, time.UTC), end)
}

func TestPeriod_UsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	now := time.Date(2024, 3, 10, 20, 0, 0, 0, loc)

	start, end := Period(Weekly, now)

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 11, end.Day())
}

func TestParseType(t *testing.T) {
	for _, in := range []string{"weekly", "WEEKLY", " Weekly "} {
		typ, err := ParseType(in)
		require.NoError(t, err)
		assert.Equal(t, Weekly, typ)
	}

	typ, err := ParseType("monthly")
	require.NoError(t, err)
	assert.Equal(t, Monthly, typ)

	_, err = ParseType("daily")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("done")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, st)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestRetryable(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Minute)
	stale := now.Add(-time.Hour)

	tests := []struct {
		status    Status
		updatedAt time.Time
		want      bool
	}{
		{StatusDone, recent, true},
		{StatusFailed, recent, true},
		{StatusPending, stale, false},
		{StatusProcessing, recent, false},
		{StatusProcessing, stale, true},
	}

	for _, tt := range tests {
		r := &Report{Status: tt.status, UpdatedAt: tt.updatedAt}
		assert.Equal(t, tt.want, r.Retryable(now, 15*time.Minute), "%s updated %s", tt.status, tt.updatedAt)
	}
}

func TestPeriodLabel(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "Mar 4 – Mar 10, 2024", PeriodLabel(start, end))

	start = time.Date(2023, 12, 27, 0, 0, 0, 0, time.UTC)
	end = time.Date(2024, 1, 2, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "Dec 27, 2023 – Jan 2, 2024", PeriodLabel(start, end))
}

func TestTitleAndDays(t *testing.T) {
	assert.Equal(t, 7, Weekly.Days())
	assert.Equal(t, 30, Monthly.Days())
	assert.Equal(t, "Weekly Pulse Report", Weekly.Title())
	assert.Equal(t, "Monthly Pulse Report", Monthly.Title())
}
