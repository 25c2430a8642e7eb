// Package pdf renders report payloads to PDF. A headless browser produces the styled
// document when one is available; otherwise a minimal single-page PDF 1.4 is written by hand.
package pdf

import (
	"strings"
	"time"
)

const (
	wrapWidth       = 95
	maxDigestLines  = 40
	generatedLayout = "2006-01-02 15:04 UTC"
)

type (
	KPI struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}

	Payload struct {
		Title       string    `json:"title"`
		PeriodLabel string    `json:"period_label"`
		GeneratedAt time.Time `json:"generated_at"`
		KPIs        []KPI     `json:"kpis"`
		Digest      string    `json:"digest"`
	}
)

// Lines lays the payload out as the left-aligned text lines of the fallback document.
func Lines(p Payload) []string {
	lines := []string{
		Sanitize(p.Title),
		"Period: " + Sanitize(p.PeriodLabel),
		"Generated: " + p.GeneratedAt.UTC().Format(generatedLayout),
		"",
		"Key metrics",
	}
	for _, kpi := range p.KPIs {
		lines = append(lines, "  "+Sanitize(kpi.Label)+": "+Sanitize(kpi.Value))
	}

	lines = append(lines, "", "Summary")
	digest := wrap(Sanitize(p.Digest), wrapWidth)
	if len(digest) > maxDigestLines {
		digest = digest[:maxDigestLines]
	}

	return append(lines, digest...)
}

func wrap(text string, width int) []string {
	var lines []string
	var current strings.Builder

	for _, word := range strings.Fields(text) {
		for len(word) > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}

		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= width:
			current.WriteByte(' ')
			current.WriteString(word)
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
