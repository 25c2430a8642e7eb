// Package pulse computes the Pulse Score, a weighted composite of YouTube and GA4 metrics.
package pulse

import "math"

type (
	YouTube struct {
		SubscribersGained int64 `json:"subscribers_gained"`
		Views             int64 `json:"views"`
		WatchTimeMinutes  int64 `json:"watch_time_minutes"`
	}

	GA4 struct {
		NewUsers   int64   `json:"new_users"`
		BounceRate float64 `json:"bounce_rate"`
		Sessions   int64   `json:"sessions"`
	}
)

const (
	ComponentYTGrowth     = "yt_growth"
	ComponentYTEngagement = "yt_engagement"
	ComponentYTReach      = "yt_reach"
	ComponentGAGrowth     = "ga_growth"
	ComponentGAEngagement = "ga_engagement"
	ComponentGAReach      = "ga_reach"
)

const (
	wYTGrowth     = 0.25
	wYTEngagement = 0.20
	wYTReach      = 0.20
	wGAGrowth     = 0.15
	wGAEngagement = 0.10
	wGAReach      = 0.10
)

// Weights maps each component to its share of the composite. The shares sum to 1.
var Weights = map[string]float64{
	ComponentYTGrowth:     wYTGrowth,
	ComponentYTEngagement: wYTEngagement,
	ComponentYTReach:      wYTReach,
	ComponentGAGrowth:     wGAGrowth,
	ComponentGAEngagement: wGAEngagement,
	ComponentGAReach:      wGAReach,
}

// Normalize compresses a non-negative metric into [0,1], saturating around one million.
func Normalize(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Min(1, math.Log10(v+1)/6)
}

// Breakdown returns each weighted component of the score.
// YouTube engagement is watch minutes per view and is deliberately left unnormalized.
func Breakdown(yt YouTube, ga GA4) map[string]float64 {
	var ytEngagement float64
	if yt.Views > 0 {
		ytEngagement = float64(yt.WatchTimeMinutes) / float64(yt.Views)
	}

	var gaEngagement float64
	if ga.Sessions > 0 {
		gaEngagement = 1 - ga.BounceRate
	}

	return map[string]float64{
		ComponentYTGrowth:     wYTGrowth * Normalize(float64(yt.SubscribersGained)),
		ComponentYTEngagement: wYTEngagement * ytEngagement,
		ComponentYTReach:      wYTReach * Normalize(float64(yt.Views)),
		ComponentGAGrowth:     wGAGrowth * Normalize(float64(ga.NewUsers)),
		ComponentGAEngagement: wGAEngagement * gaEngagement,
		ComponentGAReach:      wGAReach * Normalize(float64(ga.Sessions)),
	}
}

func Compute(yt YouTube, ga GA4) int {
	breakdown := Breakdown(yt, ga)

	// fixed order keeps the float sum reproducible
	total := breakdown[ComponentYTGrowth] +
		breakdown[ComponentYTEngagement] +
		breakdown[ComponentYTReach] +
		breakdown[ComponentGAGrowth] +
		breakdown[ComponentGAEngagement] +
		breakdown[ComponentGAReach]

	return int(math.Round(total * 1000))
}
