package email

import (
	"context"
	"net/http"
	"time"

	"portal_backend/platform/config"
)

// CustomerWelcome is the hand-off email sent to a freshly converted customer.
// It never carries the portal secret.
type CustomerWelcome struct {
	ToEmail         string
	CustomerName    string
	EngagementTitle string
	LoginEmail      string
	PortalBaseURL   string
}

// ConversionAttention alerts operations about a conversion that left a lead behind.
type ConversionAttention struct {
	ToEmail         string
	LeadID          string
	CustomerID      string
	CredentialEmail string
	Reason          string
}

type Sender interface {
	SendCustomerWelcomeEmail(ctx context.Context, welcome CustomerWelcome) error
	SendConversionAttentionEmail(ctx context.Context, alert ConversionAttention) error
}

type NoopSender struct{}

func (NoopSender) SendCustomerWelcomeEmail(ctx context.Context, welcome CustomerWelcome) error {
	return nil
}

func (NoopSender) SendConversionAttentionEmail(ctx context.Context, alert ConversionAttention) error {
	return nil
}

// NewSender picks Brevo when an API key is configured, then SMTP, and falls
// back to NoopSender when email is disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	if cfg.GetBrevoAPIKey() != "" {
		return &BrevoSender{
			apiKey:    cfg.GetBrevoAPIKey(),
			fromName:  cfg.GetEmailFromName(),
			fromEmail: cfg.GetEmailFromAddress(),
			endpoint:  brevoEndpoint,
			client:    &http.Client{Timeout: 10 * time.Second},
		}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
