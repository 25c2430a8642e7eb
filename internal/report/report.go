// Package report defines the periodic report record, its lifecycle, and the reporting periods.
package report

import (
	"fmt"
	"strings"
	"time"
)

type (
	Type   string
	Status string

	Report struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		Type        Type      `json:"type"`
		Status      Status    `json:"status"`
		PeriodStart time.Time `json:"period_start"`
		PeriodEnd   time.Time `json:"period_end"`
		PDFURL      string    `json:"pdf_url,omitempty"`
		AIDigest    string    `json:"ai_digest,omitempty"`
		ErrorMsg    string    `json:"error_msg,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// Digest is a standing narrative summary kept per user and reused by report generation.
	Digest struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Filter narrows a report listing. Empty fields match everything.
	Filter struct {
		Type   Type
		Status Status
	}
)

const (
	Weekly  Type = "WEEKLY"
	Monthly Type = "MONTHLY"
)

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case Weekly, Monthly:
		return t, nil
	default:
		return "", fmt.Errorf("invalid report type %q", s)
	}
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("invalid report status %q", s)
	}
}

// Days is the length of the reporting window.
func (t Type) Days() int {
	if t == Monthly {
		return 30
	}
	return 7
}

func (t Type) Title() string {
	if t == Monthly {
		return "Monthly Pulse Report"
	}
	return "Weekly Pulse Report"
}

// Retryable reports whether the report may be reset for another generation.
// A PROCESSING report qualifies once it has not been touched for staleAfter.
func (r *Report) Retryable(now time.Time, staleAfter time.Duration) bool {
	switch r.Status {
	case StatusDone, StatusFailed:
		return true
	case StatusProcessing:
		return r.UpdatedAt.Before(now.Add(-staleAfter))
	default:
		return false
	}
}

// Period returns the trailing window of t.Days() whole UTC days ending on the day of now.
func Period(t Type, now time.Time) (start, end time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start = today.AddDate(0, 0, -(t.Days() - 1))
	end = today.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// PeriodLabel formats a window as "Mar 4 – Mar 10, 2024", adding the start year when it differs.
func PeriodLabel(start, end time.Time) string {
	start, end = start.UTC(), end.UTC()
	if start.Year() != end.Year() {
		return start.Format("Jan 2, 2006") + " – " + end.Format("Jan 2, 2006")
	}
	return start.Format("Jan 2") + " – " + end.Format("Jan 2, 2006")
}
