// Package correlation measures how YouTube views and web sessions move together,
// optionally shifting one series against the other to find a leading channel.
package correlation

import (
	"fmt"
	"math"
	"time"
)

const DefaultMaxLagDays = 7

const weakThreshold = 0.2

type (
	Point struct {
		Date         time.Time `json:"date"`
		YoutubeViews int64     `json:"youtube_views"`
		WebSessions  int64     `json:"web_sessions"`
	}

	Lag struct {
		LagDays int     `json:"lag_days"`
		Score   float64 `json:"score"`
	}

	Result struct {
		Score   float64 `json:"score"`
		LagDays int     `json:"lag_days"`
		Insight string  `json:"insight"`
	}
)

func Compute(points []Point) float64 {
	return ComputeForLag(points, 0)
}

// ComputeForLag pairs points[i].YoutubeViews with points[i+lagDays].WebSessions and returns
// the Pearson coefficient rounded to 3 decimals. Fewer than two pairs or a flat series
// yields 0.
func ComputeForLag(points []Point, lagDays int) float64 {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for i := range points {
		j := i + lagDays
		if j < 0 || j >= len(points) {
			continue
		}
		xs = append(xs, float64(points[i].YoutubeViews))
		ys = append(ys, float64(points[j].WebSessions))
	}

	if len(xs) < 2 {
		return 0
	}

	return round3(pearson(xs, ys))
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var num, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		num += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	den := math.Sqrt(varX * varY)
	if den == 0 {
		return 0
	}
	return num / den
}

// FindBestLag scans -maxLagDays..+maxLagDays for the lag with the largest absolute score.
// Ties go to the lag closest to zero. Zero checks lag 0 only; a negative max uses
// DefaultMaxLagDays.
func FindBestLag(points []Point, maxLagDays int) Lag {
	if maxLagDays < 0 {
		maxLagDays = DefaultMaxLagDays
	}

	best := Lag{LagDays: 0, Score: ComputeForLag(points, 0)}
	for lag := -maxLagDays; lag <= maxLagDays; lag++ {
		score := ComputeForLag(points, lag)
		a, b := math.Abs(score), math.Abs(best.Score)
		if a > b || (a == b && absInt(lag) < absInt(best.LagDays)) {
			best = Lag{LagDays: lag, Score: score}
		}
	}

	best.Score = round3(best.Score)
	return best
}

func BuildInsight(score float64, lagDays int) string {
	if math.Abs(score) < weakThreshold {
		return "YouTube views and web sessions show only a weak correlation right now; neither channel reliably predicts the other."
	}

	if score > 0 {
		switch {
		case lagDays > 0:
			return fmt.Sprintf("YouTube is a leading indicator: spikes in views tend to show up in web sessions about %s later.", days(lagDays))
		case lagDays < 0:
			return fmt.Sprintf("Web traffic leads YouTube: rises in web sessions tend to precede YouTube views by about %s.", days(-lagDays))
		default:
			return "YouTube views and web sessions move together on the same days."
		}
	}

	switch {
	case lagDays > 0:
		return fmt.Sprintf("Inverse correlation: when YouTube views rise, web sessions tend to fall about %s later.", days(lagDays))
	case lagDays < 0:
		return fmt.Sprintf("Inverse correlation: rising web sessions tend to be followed by lower YouTube views about %s later.", days(-lagDays))
	default:
		return "Inverse correlation: days with more YouTube views tend to have fewer web sessions."
	}
}

// Analyze combines FindBestLag and BuildInsight.
func Analyze(points []Point, maxLagDays int) Result {
	best := FindBestLag(points, maxLagDays)
	return Result{
		Score:   best.Score,
		LagDays: best.LagDays,
		Insight: BuildInsight(best.Score, best.LagDays),
	}
}

// round3 matches half-up rounding at 3 decimals.
func round3(v float64) float64 {
	return math.Floor(v*1000+0.5) / 1000
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
