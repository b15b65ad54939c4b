package transport

import (
	"time"

	"portal_backend/internal/conversion/domain"
)

// DateLayout is the wire format for engagement dates.
const DateLayout = "2006-01-02"

// Request DTOs
type StartConversionRequest struct {
	LeadID string `json:"leadId" validate:"required,uuid"`
}

type SubmitEngagementRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartDate     string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	TargetEndDate string `json:"targetEndDate" validate:"omitempty,datetime=2006-01-02"`
	BudgetCents   *int64 `json:"budgetCents,omitempty"`
}

type SubmitCredentialRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// Response DTOs
type LeadSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone,omitempty"`
	Company         *string `json:"company,omitempty"`
	City            *string `json:"city,omitempty"`
	ServiceCategory string  `json:"serviceCategory"`
	Status          string  `json:"status"`
}

type EngagementDefaults struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CustomerResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	City    *string `json:"city"`
}

type EngagementResponse struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customerId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	StartDate     string `json:"startDate"`
	TargetEndDate string `json:"targetEndDate"`
	BudgetCents   *int64 `json:"budgetCents"`
}

type CredentialResponse struct {
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	CustomerID string    `json:"customerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IssuedCredentialResponse is only ever returned while the session is completed and open.
type IssuedCredentialResponse struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ErrorDetails struct {
	Kind      string            `json:"kind"`
	Severity  string            `json:"severity"`
	Step      string            `json:"step,omitempty"`
	Retryable bool              `json:"retryable"`
	Fields    map[string]string `json:"fields,omitempty"`
}

type SessionResponse struct {
	ID                string                    `json:"id"`
	State             string                    `json:"state"`
	Lead              LeadSummary               `json:"lead"`
	Defaults          EngagementDefaults        `json:"defaults"`
	DefaultLoginEmail string                    `json:"defaultLoginEmail"`
	Customer          *CustomerResponse         `json:"customer,omitempty"`
	Engagement        *EngagementResponse       `json:"engagement,omitempty"`
	Credential        *CredentialResponse       `json:"credential,omitempty"`
	IssuedCredential  *IssuedCredentialResponse `json:"issuedCredential,omitempty"`
	LastError         *ErrorDetails             `json:"lastError,omitempty"`
	Busy              bool                      `json:"busy"`
	Closed            bool                      `json:"closed"`
}

// ConversionErrorDetails is attached to error responses so the wizard can
// redisplay the current step alongside the failure.
type ConversionErrorDetails struct {
	ErrorDetails
	Session *SessionResponse `json:"session,omitempty"`
}

type CloseResponse struct {
	CustomerID string          `json:"customerId"`
	Session    SessionResponse `json:"session"`
}

type GeneratedSecretResponse struct {
	Password string `json:"password"`
}

// Mappers

func ToEngagementInput(req SubmitEngagementRequest) domain.EngagementInput {
	return domain.EngagementInput{
		Title:         req.Title,
		Description:   req.Description,
		StartDate:     parseDate(req.StartDate),
		TargetEndDate: parseDate(req.TargetEndDate),
		BudgetCents:   req.BudgetCents,
	}
}

func ToCredentialInput(req SubmitCredentialRequest) domain.CredentialInput {
	return domain.CredentialInput{
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	}
}

// parseDate returns the zero time for empty input. Callers validate the layout first.
func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func ToErrorDetails(err *domain.ConversionError) ErrorDetails {
	return ErrorDetails{
		Kind:      string(err.Kind),
		Severity:  string(err.Severity()),
		Step:      err.Step,
		Retryable: err.Retryable(),
		Fields:    err.Fields,
	}
}

func ToSessionResponse(snap domain.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:    snap.SessionID.String(),
		State: string(snap.State),
		Lead: LeadSummary{
			ID:              snap.Lead.ID.String(),
			Name:            snap.Lead.FullName(),
			Email:           snap.Lead.Email,
			Phone:           snap.Lead.Phone,
			Company:         snap.Lead.Company,
			City:            snap.Lead.City,
			ServiceCategory: snap.Lead.ServiceCategory,
			Status:          snap.Lead.Status,
		},
		Defaults: EngagementDefaults{
			Title:       snap.Defaults.Title,
			Description: snap.Defaults.Description,
		},
		DefaultLoginEmail: snap.Lead.Email,
		Busy:              snap.Busy,
		Closed:            snap.Closed,
	}

	if c := snap.Customer; c != nil {
		resp.Customer = &CustomerResponse{
			ID:      c.ID.String(),
			Name:    c.Name,
			Email:   c.Email,
			Phone:   c.Phone,
			Company: c.Company,
			City:    c.City,
		}
	}
	if e := snap.Engagement; e != nil {
		resp.Engagement = &EngagementResponse{
			ID:            e.ID.String(),
			CustomerID:    e.CustomerID.String(),
			Title:         e.Title,
			Description:   e.Description,
			Status:        e.Status,
			StartDate:     e.StartDate.Format(DateLayout),
			TargetEndDate: e.TargetEndDate.Format(DateLayout),
			BudgetCents:   e.BudgetCents,
		}
	}
	if c := snap.Credential; c != nil {
		resp.Credential = &CredentialResponse{
			Email:      c.Email,
			Role:       c.Grant.Role,
			CustomerID: c.Grant.CustomerID.String(),
			CreatedAt:  c.CreatedAt,
		}
	}
	if i := snap.Issued; i != nil {
		resp.IssuedCredential = &IssuedCredentialResponse{Email: i.Email, Password: i.Secret}
	}
	if snap.LastError != nil {
		details := ToErrorDetails(snap.LastError)
		resp.LastError = &details
	}
	return resp
}
