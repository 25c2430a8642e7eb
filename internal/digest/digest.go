// Package digest writes the short narrative summary attached to reports. The default
// composer is template based and makes no external calls.
package digest

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Input carries period totals and their percentage change versus the previous period.
// PulseScoreDelta is an absolute point change.
type Input struct {
	Period            Period
	YoutubeViews      int64
	YoutubeViewsDelta float64
	WebSessions       int64
	WebSessionsDelta  float64
	PulseScore        int
	PulseScoreDelta   int
}

const (
	actionRetention = "Recommended action: publish retention-focused content such as series and follow-ups to win back returning viewers and visitors."
	actionHooks     = "Recommended action: rework video hooks and formats in the first 30 seconds to recover YouTube views."
	actionLanding   = "Recommended action: tighten landing pages and calls to action so YouTube viewers turn into web sessions."
	actionMomentum  = "Recommended action: keep the current publishing cadence and double down on the formats that are working to reinforce the momentum."
)

var printer = message.NewPrinter(language.English)

func GenerateHeuristic(in Input) string {
	return strings.Join([]string{
		metricsSentence(in),
		pulseSentence(in),
		Action(in.YoutubeViewsDelta, in.WebSessionsDelta),
	}, " ")
}

// Action picks exactly one recommendation from the signs of the two channel deltas.
func Action(youtubeDelta, sessionsDelta float64) string {
	switch {
	case youtubeDelta < 0 && sessionsDelta < 0:
		return actionRetention
	case youtubeDelta < 0:
		return actionHooks
	case sessionsDelta < 0:
		return actionLanding
	default:
		return actionMomentum
	}
}

func metricsSentence(in Input) string {
	scope := "This week"
	if in.Period == Monthly {
		scope = "This month"
	}

	return printer.Sprintf("%s YouTube views %s to %d and web sessions %s to %d, %s.",
		scope,
		trend(in.YoutubeViewsDelta),
		in.YoutubeViews,
		trend(in.WebSessionsDelta),
		in.WebSessions,
		strongest(in.YoutubeViewsDelta, in.WebSessionsDelta),
	)
}

func pulseSentence(in Input) string {
	previous := "the previous week"
	if in.Period == Monthly {
		previous = "the previous month"
	}

	if in.PulseScoreDelta == 0 {
		return printer.Sprintf("Your Pulse Score is %d, unchanged from %s.", in.PulseScore, previous)
	}
	sign, delta := "+", in.PulseScoreDelta
	if delta < 0 {
		sign, delta = "-", -delta
	}
	return printer.Sprintf("Your Pulse Score is %d (%s%d vs %s).", in.PulseScore, sign, delta, previous)
}

func trend(delta float64) string {
	switch {
	case delta > 0:
		return printer.Sprintf("rose %.1f%%", delta)
	case delta < 0:
		return printer.Sprintf("fell %.1f%%", math.Abs(delta))
	default:
		return "held steady"
	}
}

func strongest(youtubeDelta, sessionsDelta float64) string {
	yt, web := math.Abs(youtubeDelta), math.Abs(sessionsDelta)
	switch {
	case yt == 0 && web == 0:
		return "with neither channel moving"
	case yt >= web:
		return "with YouTube the stronger mover"
	default:
		return "with web traffic the stronger mover"
	}
}
