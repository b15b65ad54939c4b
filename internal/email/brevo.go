package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	endpoint  string
	client    *http.Client
}

type brevoRecipient struct {
	Email string `json:"email"`
}

type brevoEmailRequest struct {
	Sender struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"sender"`
	To          []brevoRecipient `json:"to"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
}

func (b *BrevoSender) SendCustomerWelcomeEmail(ctx context.Context, welcome CustomerWelcome) error {
	msg, err := customerWelcomeMessage(welcome)
	if err != nil {
		return err
	}
	return b.send(ctx, welcome.ToEmail, msg)
}

func (b *BrevoSender) SendConversionAttentionEmail(ctx context.Context, alert ConversionAttention) error {
	msg, err := conversionAttentionMessage(alert)
	if err != nil {
		return err
	}
	return b.send(ctx, alert.ToEmail, msg)
}

func (b *BrevoSender) send(ctx context.Context, toEmail string, msg message) error {
	payload := brevoEmailRequest{
		To:          []brevoRecipient{{Email: toEmail}},
		Subject:     msg.subject,
		HTMLContent: msg.html,
	}
	payload.Sender.Name = b.fromName
	payload.Sender.Email = b.fromEmail

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
