// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is captured.
type LeadCreated struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ServiceCategory string    `json:"serviceCategory"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// =============================================================================
// Conversion Domain Events
// =============================================================================

// CustomerConverted is published when an operator closes a completed
// conversion. It is the only signal that the conversion is final.
type CustomerConverted struct {
	BaseEvent
	SessionID       uuid.UUID `json:"sessionId"`
	LeadID          uuid.UUID `json:"leadId"`
	CustomerID      uuid.UUID `json:"customerId"`
	EngagementID    uuid.UUID `json:"engagementId"`
	CustomerName    string    `json:"customerName"`
	CredentialEmail string    `json:"credentialEmail"`
	EngagementTitle string    `json:"engagementTitle"`
}

func (e CustomerConverted) EventName() string { return "conversion.customer.converted" }

// ConversionNeedsAttention is published when the credential was issued but
// the lead could not be retired. The lead is now a latent duplicate.
type ConversionNeedsAttention struct {
	BaseEvent
	SessionID       uuid.UUID `json:"sessionId"`
	LeadID          uuid.UUID `json:"leadId"`
	CustomerID      uuid.UUID `json:"customerId"`
	CredentialEmail string    `json:"credentialEmail"`
	Reason          string    `json:"reason"`
}

func (e ConversionNeedsAttention) EventName() string { return "conversion.needs_attention" }

// ConversionAbandoned is published when a session is dropped after records
// were already committed. CustomerID is uuid.Nil when nothing was written.
type ConversionAbandoned struct {
	BaseEvent
	SessionID        uuid.UUID `json:"sessionId"`
	LeadID           uuid.UUID `json:"leadId"`
	CustomerID       uuid.UUID `json:"customerId"`
	State            string    `json:"state"`
	CredentialIssued bool      `json:"credentialIssued"`
	Reason           string    `json:"reason"`
}

func (e ConversionAbandoned) EventName() string { return "conversion.abandoned" }
