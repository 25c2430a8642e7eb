package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/nadmax/pulse/internal/repository"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent     []*mail.SGMailV3
	response *rest.Response
	err      error
}

func (f *fakeSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func setupMailer(t *testing.T, sender *fakeSender) (*SendGridMailer, *repository.MockReportRepository) {
	t.Helper()
	users := repository.NewMockReportRepository()
	users.Emails["u1"] = "ada@example.com"

	m := newSendGridMailer(sender, Config{
		FromName:    "Pulse",
		FromAddress: "reports@pulse.example",
		BaseURL:     "https://app.pulse.example/",
	}, users, zap.NewNop())
	return m, users
}

func TestSendReportReadyEmail(t *testing.T) {
	sender := &fakeSender{response: &rest.Response{StatusCode: 202}}
	m, _ := setupMailer(t, sender)

	err := m.SendReportReadyEmail(context.Background(), ReportReadyEmail{UserID: "u1", ReportID: "r1", ReportType: "WEEKLY"})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	email := sender.sent[0]
	assert.Equal(t, "Your weekly Pulse report is ready", email.Subject)
	assert.Equal(t, "reports@pulse.example", email.From.Address)
	require.Len(t, email.Personalizations, 1)
	assert.Equal(t, "ada@example.com", email.Personalizations[0].To[0].Address)

	require.Len(t, email.Content, 2)
	assert.Contains(t, email.Content[0].Value, "https://app.pulse.example/reports/r1")
	assert.Contains(t, email.Content[1].Value, `href="https://app.pulse.example/reports/r1"`)
}

func TestSendReportReadyEmail_UnknownUser(t *testing.T) {
	sender := &fakeSender{response: &rest.Response{StatusCode: 202}}
	m, _ := setupMailer(t, sender)

	err := m.SendReportReadyEmail(context.Background(), ReportReadyEmail{UserID: "ghost", ReportID: "r1", ReportType: "WEEKLY"})

	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.Empty(t, sender.sent)
}

func TestSendReportReadyEmail_ProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		sender *fakeSender
		want   string
	}{
		{"transport error", &fakeSender{err: errors.New("dial tcp: timeout")}, "sendgrid error"},
		{"rejected", &fakeSender{response: &rest.Response{StatusCode: 401, Body: "unauthorized"}}, "sendgrid returned status 401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := setupMailer(t, tt.sender)

			err := m.SendReportReadyEmail(context.Background(), ReportReadyEmail{UserID: "u1", ReportID: "r1", ReportType: "MONTHLY"})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLogMailer(t *testing.T) {
	var m Mailer = NewLogMailer(zap.NewNop())

	assert.NoError(t, m.SendReportReadyEmail(context.Background(), ReportReadyEmail{UserID: "u1", ReportID: "r1"}))
}
