package pdf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() Payload {
	return Payload{
		Title:       "Weekly Pulse Report",
		PeriodLabel: "Mar 4 – Mar 10, 2024",
		GeneratedAt: time.Date(2024, 3, 11, 8, 30, 0, 0, time.UTC),
		KPIs: []KPI{
			{Label: "YouTube views", Value: "28,400"},
			{Label: "Pulse Score", Value: "642"},
		},
		Digest: "Views rose this week.",
	}
}

func TestLines_Layout(t *testing.T) {
	lines := Lines(samplePayload())

	assert.Equal(t, []string{
		"Weekly Pulse Report",
		"Period: Mar 4 - Mar 10, 2024",
		"Generated: 2024-03-11 08:30 UTC",
		"",
		"Key metrics",
		"  YouTube views: 28,400",
		"  Pulse Score: 642",
		"",
		"Summary",
		"Views rose this week.",
	}, lines)
}

func TestLines_WrapsDigest(t *testing.T) {
	p := samplePayload()
	p.Digest = strings.Repeat("engagement ", 30)

	lines := Lines(p)
	digest := lines[len(lines)-4:]

	for _, line := range digest {
		assert.LessOrEqual(t, len(line), wrapWidth)
		assert.False(t, strings.HasSuffix(line, " "))
	}
	assert.Equal(t, "Summary", lines[len(lines)-5])
}

func TestLines_CapsDigestLines(t *testing.T) {
	p := samplePayload()
	p.KPIs = nil
	p.Digest = strings.Repeat("word ", 2000)

	lines := Lines(p)

	require.Equal(t, "Summary", lines[6])
	assert.Len(t, lines[7:], maxDigestLines)
}

func TestWrap_SplitsLongWords(t *testing.T) {
	long := strings.Repeat("x", 120)

	lines := wrap("start "+long+" end", 50)

	assert.Equal(t, []string{"start", strings.Repeat("x", 50), strings.Repeat("x", 50), strings.Repeat("x", 20) + " end"}, lines)
}

func TestWrap_Empty(t *testing.T) {
	assert.Empty(t, wrap("   ", 95))
}
