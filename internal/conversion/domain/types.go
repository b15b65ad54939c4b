// Package domain holds the pure types and rules of the lead conversion pipeline.
// Nothing here performs I/O.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the position of a conversion session in the wizard.
type State string

const (
	StateCollectingEngagement State = "collecting_engagement"
	StateCollectingCredential State = "collecting_credential"
	StateCompleted            State = "completed"
)

// EngagementStatusPending is forced on every engagement created by a conversion.
const EngagementStatusPending = "pending"

// RoleCustomer is the only role a conversion grants.
const RoleCustomer = "customer"

// Lead is the snapshot of the lead taken when the session was opened.
type Lead struct {
	ID              uuid.UUID
	FirstName       string
	LastName        *string
	Email           string
	Phone           *string
	Company         *string
	City            *string
	ServiceCategory string
	Description     *string
	Status          string
}

// FullName joins first and last name, skipping missing parts.
func (l Lead) FullName() string {
	parts := make([]string, 0, 2)
	if first := strings.TrimSpace(l.FirstName); first != "" {
		parts = append(parts, first)
	}
	if l.LastName != nil {
		if last := strings.TrimSpace(*l.LastName); last != "" {
			parts = append(parts, last)
		}
	}
	return strings.Join(parts, " ")
}

// Customer is a record created from a lead. It keeps no reference to the lead.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     *string
	Company   *string
	City      *string
	CreatedAt time.Time
}

// NewCustomer carries the fields written by InsertCustomer.
type NewCustomer struct {
	Name    string
	Email   string
	Phone   *string
	Company *string
	City    *string
}

// Engagement is the unit of work owned by exactly one customer.
type Engagement struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	Title         string
	Description   string
	Status        string
	StartDate     time.Time
	TargetEndDate time.Time
	BudgetCents   *int64
	CreatedAt     time.Time
}

// NewEngagement carries the fields written by InsertEngagement.
type NewEngagement struct {
	CustomerID    uuid.UUID
	Title         string
	Description   string
	Status        string
	StartDate     time.Time
	TargetEndDate time.Time
	BudgetCents   *int64
}

// Grant is embedded in a credential and scopes it to one customer.
type Grant struct {
	Role       string
	CustomerID uuid.UUID
}

// Credential is an issued portal login. The secret is never part of it.
type Credential struct {
	ID        uuid.UUID
	Email     string
	Grant     Grant
	CreatedAt time.Time
}

// EngagementInput is what the operator submits on the first wizard step.
type EngagementInput struct {
	Title         string    `json:"title" validate:"required,min=5"`
	Description   string    `json:"description" validate:"required,min=10"`
	StartDate     time.Time `json:"startDate" validate:"required"`
	TargetEndDate time.Time `json:"targetEndDate" validate:"required"`
	BudgetCents   *int64    `json:"budgetCents,omitempty" validate:"omitempty,gte=0"`
}

// Normalize trims the free-text fields.
func (in EngagementInput) Normalize() EngagementInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// CredentialInput is what the operator submits on the second wizard step.
// The minimum password length is configured and checked by the orchestrator.
type CredentialInput struct {
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
}

// Normalize trims and lowercases the login email. Passwords are left as typed.
func (in CredentialInput) Normalize() CredentialInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// IssuedCredential is the one-time hand-off pair shown on completion.
type IssuedCredential struct {
	Email  string
	Secret string
}

// Snapshot is a read-only copy of a session for the presentation layer.
type Snapshot struct {
	SessionID  uuid.UUID
	State      State
	Lead       Lead
	Defaults   EngagementDefaults
	Customer   *Customer
	Engagement *Engagement
	// Credential is set once the login exists, even if lead retirement failed.
	Credential *Credential
	// Issued is only set in StateCompleted and until the session is closed.
	Issued    *IssuedCredential
	LastError *ConversionError
	Busy      bool
	Closed    bool
}
