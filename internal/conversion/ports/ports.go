// Package ports defines the interfaces the conversion pipeline needs from
// other bounded contexts. Implementations live in internal/adapters.
package ports

import (
	"context"
	"errors"
	"time"

	"portal_backend/internal/conversion/domain"

	"github.com/google/uuid"
)

// ErrLeadNotFound is returned by lead lookups and deletes for a missing lead.
var ErrLeadNotFound = errors.New("lead not found")

// ErrEmailAlreadyRegistered is returned by CreateCredential for a taken email.
var ErrEmailAlreadyRegistered = errors.New("email already registered")

// RecordStore writes the structured records touched by a conversion.
type RecordStore interface {
	InsertCustomer(ctx context.Context, customer domain.NewCustomer) (domain.Customer, error)
	InsertEngagement(ctx context.Context, engagement domain.NewEngagement) (domain.Engagement, error)
	// DeleteLead returns ErrLeadNotFound when the lead is already gone.
	DeleteLead(ctx context.Context, leadID uuid.UUID) error
}

// LeadReader loads the lead a conversion starts from.
type LeadReader interface {
	GetLead(ctx context.Context, leadID uuid.UUID) (domain.Lead, error)
}

// CredentialStore provisions portal logins. Only a hash of secret is kept.
type CredentialStore interface {
	CreateCredential(ctx context.Context, email, secret string, grant domain.Grant) (domain.Credential, error)
}

// LeadLocker keeps a single open conversion per lead across operators and
// API instances. owner identifies the holder, ttl bounds a crashed holder.
type LeadLocker interface {
	Acquire(ctx context.Context, leadID uuid.UUID, owner string, ttl time.Duration) (bool, error)
	Refresh(ctx context.Context, leadID uuid.UUID, owner string, ttl time.Duration) error
	Release(ctx context.Context, leadID uuid.UUID, owner string) error
}
