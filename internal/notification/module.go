// Package notification sends follow-up messages in response to conversion
// events. Domain modules only publish events; they never know about email
// providers, templates or queues.
package notification

import (
	"context"
	"fmt"

	"portal_backend/internal/email"
	"portal_backend/internal/events"
	"portal_backend/internal/scheduler"
	"portal_backend/platform/config"
	"portal_backend/platform/logger"

	"github.com/google/uuid"
)

const reasonAbandonedWithRecords = "conversion abandoned after customer %s was created (state %s)"

// Module routes conversion events to the background queue. When no queue is
// configured the messages are sent inline.
type Module struct {
	queue  scheduler.ConversionNotifier
	sender email.Sender
	cfg    config.NotificationConfig
	log    *logger.Logger
}

// New creates the notification module. queue may be nil.
func New(queue scheduler.ConversionNotifier, sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{queue: queue, sender: sender, cfg: cfg, log: log}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes the module to the conversion events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.CustomerConverted{}.EventName(), m)
	bus.Subscribe(events.ConversionNeedsAttention{}.EventName(), m)
	bus.Subscribe(events.ConversionAbandoned{}.EventName(), m)
	bus.Subscribe(events.LeadCreated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.CustomerConverted:
		return m.handleCustomerConverted(ctx, e)
	case events.ConversionNeedsAttention:
		return m.handleNeedsAttention(ctx, e)
	case events.ConversionAbandoned:
		return m.handleAbandoned(ctx, e)
	case events.LeadCreated:
		m.log.Info("lead captured", "leadId", e.LeadID, "serviceCategory", e.ServiceCategory)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleCustomerConverted(ctx context.Context, e events.CustomerConverted) error {
	if e.CredentialEmail == "" {
		return nil
	}

	payload := scheduler.WelcomeEmailPayload{
		SessionID:       e.SessionID.String(),
		CustomerID:      e.CustomerID.String(),
		ToEmail:         e.CredentialEmail,
		CustomerName:    e.CustomerName,
		EngagementTitle: e.EngagementTitle,
	}

	if m.queue != nil {
		return m.queue.EnqueueWelcomeEmail(ctx, payload)
	}

	return m.sender.SendCustomerWelcomeEmail(ctx, email.CustomerWelcome{
		ToEmail:         payload.ToEmail,
		CustomerName:    payload.CustomerName,
		EngagementTitle: payload.EngagementTitle,
		LoginEmail:      payload.ToEmail,
		PortalBaseURL:   m.cfg.GetAppBaseURL(),
	})
}

func (m *Module) handleNeedsAttention(ctx context.Context, e events.ConversionNeedsAttention) error {
	m.log.Error("conversion needs attention",
		"sessionId", e.SessionID,
		"leadId", e.LeadID,
		"customerId", e.CustomerID,
		"reason", e.Reason,
	)

	return m.alert(ctx, scheduler.AttentionAlertPayload{
		SessionID:       e.SessionID.String(),
		LeadID:          e.LeadID.String(),
		CustomerID:      e.CustomerID.String(),
		CredentialEmail: e.CredentialEmail,
		Reason:          e.Reason,
	})
}

// Abandoning before anything was written needs no follow-up. Otherwise the
// customer record is orphaned and someone has to decide what to do with it.
func (m *Module) handleAbandoned(ctx context.Context, e events.ConversionAbandoned) error {
	if e.CustomerID == uuid.Nil {
		return nil
	}

	m.log.Warn("conversion abandoned with committed records",
		"sessionId", e.SessionID,
		"leadId", e.LeadID,
		"customerId", e.CustomerID,
		"state", e.State,
		"credentialIssued", e.CredentialIssued,
	)

	reason := fmt.Sprintf(reasonAbandonedWithRecords, e.CustomerID, e.State)
	if e.Reason != "" {
		reason += ": " + e.Reason
	}

	return m.alert(ctx, scheduler.AttentionAlertPayload{
		SessionID:  e.SessionID.String(),
		LeadID:     e.LeadID.String(),
		CustomerID: e.CustomerID.String(),
		Reason:     reason,
	})
}

func (m *Module) alert(ctx context.Context, payload scheduler.AttentionAlertPayload) error {
	if m.queue != nil {
		return m.queue.EnqueueAttentionAlert(ctx, payload)
	}

	to := m.cfg.GetOpsAlertEmail()
	if to == "" {
		return nil
	}
	return m.sender.SendConversionAttentionEmail(ctx, email.ConversionAttention{
		ToEmail:         to,
		LeadID:          payload.LeadID,
		CustomerID:      payload.CustomerID,
		CredentialEmail: payload.CredentialEmail,
		Reason:          payload.Reason,
	})
}
