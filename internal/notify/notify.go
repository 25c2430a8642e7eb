// Package notify sends report-ready emails through SendGrid.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type ReportReadyEmail struct {
	UserID     string
	ReportID   string
	ReportType string
}

type Mailer interface {
	SendReportReadyEmail(ctx context.Context, msg ReportReadyEmail) error
}

// UserDirectory resolves a user's email address.
type UserDirectory interface {
	UserEmail(ctx context.Context, userID string) (string, error)
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
	BaseURL     string
}

type SendGridMailer struct {
	client  sender
	users   UserDirectory
	from    *mail.Email
	baseURL string
	logger  *zap.Logger
}

var htmlBody = template.Must(template.New("report-ready").Parse(
	`<p>Your {{.Kind}} Pulse report is ready.</p>` +
		`<p><a href="{{.Link}}">Open the report</a></p>` +
		`<p style="color:#616e7c;font-size:12px">Report {{.ReportID}}</p>`))

func NewSendGridMailer(cfg Config, users UserDirectory, logger *zap.Logger) *SendGridMailer {
	return newSendGridMailer(sendgrid.NewSendClient(cfg.APIKey), cfg, users, logger)
}

func newSendGridMailer(client sender, cfg Config, users UserDirectory, logger *zap.Logger) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{
		client:  client,
		users:   users,
		from:    mail.NewEmail(cfg.FromName, cfg.FromAddress),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

func (m *SendGridMailer) SendReportReadyEmail(ctx context.Context, msg ReportReadyEmail) error {
	address, err := m.users.UserEmail(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve email for user %s: %w", msg.UserID, err)
	}

	kind := strings.ToLower(msg.ReportType)
	link := fmt.Sprintf("%s/reports/%s", m.baseURL, msg.ReportID)
	subject := fmt.Sprintf("Your %s Pulse report is ready", kind)
	plain := fmt.Sprintf("Your %s Pulse report is ready.\n\nOpen it here: %s\n", kind, link)

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, map[string]string{
		"Kind":     kind,
		"Link":     link,
		"ReportID": msg.ReportID,
	}); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	email := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", address), plain, html.String())
	response, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	m.logger.Info("report email sent",
		zap.String("report_id", msg.ReportID),
		zap.String("user_id", msg.UserID),
		zap.Int("status", response.StatusCode))
	return nil
}

// LogMailer only logs. It stands in when no SendGrid key is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendReportReadyEmail(_ context.Context, msg ReportReadyEmail) error {
	m.logger.Info("report email skipped, mailer not configured",
		zap.String("report_id", msg.ReportID),
		zap.String("user_id", msg.UserID))
	return nil
}
