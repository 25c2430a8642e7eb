package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nadmax/pulse/internal/report"
)

type MockReportRepository struct {
	mu                  sync.Mutex
	GetReportCalls      []string
	CreateReportCalls   []*report.Report
	ListReportsCalls    []ListReportsCall
	MarkProcessingCalls []string
	CompleteReportCalls []CompleteReportCall
	FailReportCalls     []FailReportCall
	ResetReportCalls    []string
	SaveDigestCalls     []*report.Digest
	Reports             map[string]*report.Report
	Digests             map[string][]*report.Digest
	Emails              map[string]string
	CreateReportError   error
	GetReportError      error
	ListReportsError    error
	MarkProcessingError error
	CompleteReportError error
	FailReportError     error
	ResetReportError    error
	LatestDigestError   error
	SaveDigestError     error
	UserEmailError      error
}

type ListReportsCall struct {
	UserID string
	Filter report.Filter
}

type CompleteReportCall struct {
	ReportID string
	PDFURL   string
	Digest   string
}

type FailReportCall struct {
	ReportID string
	Reason   string
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{
		Reports: make(map[string]*report.Report),
		Digests: make(map[string][]*report.Digest),
		Emails:  make(map[string]string),
	}
}

func (m *MockReportRepository) CreateReport(ctx context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateReportCalls = append(m.CreateReportCalls, r)

	if m.CreateReportError != nil {
		return m.CreateReportError
	}

	reportCopy := *r
	m.Reports[r.ID] = &reportCopy
	return nil
}

func (m *MockReportRepository) GetReport(ctx context.Context, reportID string) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetReportCalls = append(m.GetReportCalls, reportID)

	if m.GetReportError != nil {
		return nil, m.GetReportError
	}

	r, exists := m.Reports[reportID]
	if !exists {
		return nil, ErrNotFound
	}

	reportCopy := *r
	return &reportCopy, nil
}

func (m *MockReportRepository) ListReports(ctx context.Context, userID string, filter report.Filter) ([]*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListReportsCalls = append(m.ListReportsCalls, ListReportsCall{UserID: userID, Filter: filter})

	if m.ListReportsError != nil {
		return nil, m.ListReportsError
	}

	reports := make([]*report.Report, 0)
	for _, r := range m.Reports {
		if r.UserID != userID {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		reportCopy := *r
		reports = append(reports, &reportCopy)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (m *MockReportRepository) MarkProcessing(ctx context.Context, reportID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MarkProcessingCalls = append(m.MarkProcessingCalls, reportID)

	if m.MarkProcessingError != nil {
		return m.MarkProcessingError
	}

	return m.update(reportID, func(r *report.Report) {
		r.Status = report.StatusProcessing
	})
}

func (m *MockReportRepository) CompleteReport(ctx context.Context, reportID, pdfURL, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteReportCalls = append(m.CompleteReportCalls, CompleteReportCall{
		ReportID: reportID,
		PDFURL:   pdfURL,
		Digest:   digest,
	})

	if m.CompleteReportError != nil {
		return m.CompleteReportError
	}

	return m.update(reportID, func(r *report.Report) {
		r.Status = report.StatusDone
		r.PDFURL = pdfURL
		r.AIDigest = digest
		r.ErrorMsg = ""
	})
}

func (m *MockReportRepository) FailReport(ctx context.Context, reportID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailReportCalls = append(m.FailReportCalls, FailReportCall{ReportID: reportID, Reason: reason})

	if m.FailReportError != nil {
		return m.FailReportError
	}

	return m.update(reportID, func(r *report.Report) {
		r.Status = report.StatusFailed
		r.ErrorMsg = reason
	})
}

func (m *MockReportRepository) ResetReport(ctx context.Context, reportID string, staleBefore time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResetReportCalls = append(m.ResetReportCalls, reportID)

	if m.ResetReportError != nil {
		return m.ResetReportError
	}

	r, exists := m.Reports[reportID]
	if !exists {
		return ErrNotFound
	}
	switch {
	case r.Status == report.StatusDone, r.Status == report.StatusFailed:
	case r.Status == report.StatusProcessing && r.UpdatedAt.Before(staleBefore):
	default:
		return ErrConflict
	}

	return m.update(reportID, func(r *report.Report) {
		r.Status = report.StatusPending
		r.ErrorMsg = ""
		r.PDFURL = ""
	})
}

func (m *MockReportRepository) update(reportID string, apply func(*report.Report)) error {
	r, exists := m.Reports[reportID]
	if !exists {
		return ErrNotFound
	}

	apply(r)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockReportRepository) LatestDigest(ctx context.Context, userID string) (*report.Digest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LatestDigestError != nil {
		return nil, m.LatestDigestError
	}

	digests := m.Digests[userID]
	if len(digests) == 0 {
		return nil, ErrNotFound
	}

	digestCopy := *digests[len(digests)-1]
	return &digestCopy, nil
}

func (m *MockReportRepository) SaveDigest(ctx context.Context, d *report.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveDigestCalls = append(m.SaveDigestCalls, d)

	if m.SaveDigestError != nil {
		return m.SaveDigestError
	}

	digestCopy := *d
	m.Digests[d.UserID] = append(m.Digests[d.UserID], &digestCopy)
	return nil
}

func (m *MockReportRepository) UserEmail(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UserEmailError != nil {
		return "", m.UserEmailError
	}

	email, exists := m.Emails[userID]
	if !exists {
		return "", ErrNotFound
	}
	return email, nil
}

func (m *MockReportRepository) Close() error {
	return nil
}

// Report returns a copy of the stored report, or nil.
func (m *MockReportRepository) Report(reportID string) *report.Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.Reports[reportID]
	if !exists {
		return nil
	}
	reportCopy := *r
	return &reportCopy
}

func (m *MockReportRepository) GetCompleteReportCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CompleteReportCalls)
}

func (m *MockReportRepository) GetFailReportCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FailReportCalls)
}

func (m *MockReportRepository) GetResetReportCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ResetReportCalls)
}

func (m *MockReportRepository) GetListReportsCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ListReportsCalls)
}
