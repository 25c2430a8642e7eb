package correlation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func series(yt, web []int64) []Point {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	points := make([]Point, len(yt))
	for i := range yt {
		points[i] = Point{
			Date:         start.AddDate(0, 0, i),
			YoutubeViews: yt[i],
			WebSessions:  web[i],
		}
	}
	return points
}

func TestCompute_FlatSeriesIsZero(t *testing.T) {
	tests := []struct {
		name string
		yt   []int64
		web  []int64
	}{
		{"both constant", []int64{5, 5, 5, 5}, []int64{9, 9, 9, 9}},
		{"youtube constant", []int64{3, 3, 3}, []int64{1, 2, 3}},
		{"web constant", []int64{1, 2, 3}, []int64{7, 7, 7}},
		{"all zeros", []int64{0, 0, 0}, []int64{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0.0, Compute(series(tt.yt, tt.web)))
		})
	}
}

func TestCompute_TooFewSamples(t *testing.T) {
	assert.Equal(t, 0.0, Compute(nil))
	assert.Equal(t, 0.0, Compute(series([]int64{10}, []int64{20})))
}

func TestCompute_LinearSeries(t *testing.T) {
	yt := []int64{100, 220, 310, 480, 560, 700, 910}
	web := make([]int64, len(yt))
	for i, v := range yt {
		web[i] = int64(math.Round(0.85 * float64(v)))
	}

	score := Compute(series(yt, web))

	assert.Greater(t, score, 0.8)
	assert.Equal(t, score, Compute(series(yt, web)))
}

func TestCompute_InverseSeries(t *testing.T) {
	score := Compute(series([]int64{1, 2, 3, 4}, []int64{40, 30, 20, 10}))

	assert.Equal(t, -1.0, score)
}

func TestCompute_ThreePointScenario(t *testing.T) {
	points := series([]int64{100, 200, 300}, []int64{80, 170, 260})

	score := Compute(points)

	assert.Greater(t, score, 0.8)
	assert.InDelta(t, 1.0, score, 0.005)

	best := FindBestLag(points, 7)
	assert.Equal(t, 0, best.LagDays)
	assert.Equal(t, score, best.Score)
}

func TestComputeForLag_ShiftsWebSessions(t *testing.T) {
	yt := []int64{10, 50, 20, 80, 30, 90, 40, 70, 15, 60}
	web := []int64{5, 5, 20, 100, 40, 160, 60, 180, 80, 140}
	points := series(yt, web)

	assert.Equal(t, 1.0, ComputeForLag(points, 2))
	assert.Equal(t, 0.748, ComputeForLag(points, 0))
	assert.Equal(t, 0.0, ComputeForLag(points, 10))
	assert.Equal(t, 0.0, ComputeForLag(points, -9))
}

func TestFindBestLag_LeadingIndicator(t *testing.T) {
	yt := []int64{10, 50, 20, 80, 30, 90, 40, 70, 15, 60}
	web := []int64{5, 5, 20, 100, 40, 160, 60, 180, 80, 140}

	best := FindBestLag(series(yt, web), DefaultMaxLagDays)

	assert.Equal(t, Lag{LagDays: 2, Score: 1.0}, best)
}

func TestFindBestLag_TiePrefersSmallerLag(t *testing.T) {
	// lag -3 scores -0.866 and lag +2 scores 0.866; -3 is scanned first.
	points := series([]int64{4, 4, 1, 3, 0, 0}, []int64{3, 5, 4, 3, 2, 3})

	assert.Equal(t, -0.866, ComputeForLag(points, -3))
	assert.Equal(t, 0.866, ComputeForLag(points, 2))

	best := FindBestLag(points, DefaultMaxLagDays)

	assert.Equal(t, 2, best.LagDays)
	assert.Equal(t, 0.866, best.Score)
}

func TestFindBestLag_TieWithZeroLagKeepsZero(t *testing.T) {
	points := series([]int64{1, 2, 1, 2, 1, 2}, []int64{2, 1, 2, 1, 2, 1})

	best := FindBestLag(points, 3)

	assert.Equal(t, 0, best.LagDays)
	assert.Equal(t, -1.0, best.Score)
}

func TestFindBestLag_NegativeMaxUsesDefault(t *testing.T) {
	points := series([]int64{100, 200, 300}, []int64{80, 170, 260})

	assert.Equal(t, FindBestLag(points, DefaultMaxLagDays), FindBestLag(points, -1))
}

func TestFindBestLag_ZeroMaxChecksOnlyLagZero(t *testing.T) {
	yt := []int64{10, 50, 20, 80, 30, 90, 40, 70, 15, 60}
	web := []int64{5, 5, 20, 100, 40, 160, 60, 180, 80, 140}

	best := FindBestLag(series(yt, web), 0)

	assert.Equal(t, Lag{LagDays: 0, Score: 0.748}, best)
}

func TestFindBestLag_EmptySeries(t *testing.T) {
	assert.Equal(t, Lag{}, FindBestLag(nil, 7))
}

func TestBuildInsight(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		lag      int
		contains string
	}{
		{"weak positive", 0.19, 3, "weak correlation"},
		{"weak negative", -0.199, 0, "weak correlation"},
		{"zero", 0, 0, "weak correlation"},
		{"youtube leads", 0.5, 3, "leading indicator"},
		{"youtube leads one day", 0.5, 1, "about 1 day later"},
		{"web leads", 0.2, -2, "Web traffic leads YouTube"},
		{"together", 0.9, 0, "move together"},
		{"inverse same day", -0.6, 0, "Inverse correlation: days with more"},
		{"inverse lagged", -0.6, 4, "about 4 days later"},
		{"inverse web first", -0.3, -5, "rising web sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, BuildInsight(tt.score, tt.lag), tt.contains)
		})
	}
}

func TestBuildInsight_Deterministic(t *testing.T) {
	assert.Equal(t, BuildInsight(0.42, 2), BuildInsight(0.42, 2))
}

func TestAnalyze(t *testing.T) {
	yt := []int64{10, 50, 20, 80, 30, 90, 40, 70, 15, 60}
	web := []int64{5, 5, 20, 100, 40, 160, 60, 180, 80, 140}

	result := Analyze(series(yt, web), 7)

	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 2, result.LagDays)
	assert.Equal(t, BuildInsight(1.0, 2), result.Insight)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.123, round3(0.12345))
	assert.Equal(t, -0.124, round3(-0.12351))
	assert.Equal(t, 1.0, round3(0.9996))
}
