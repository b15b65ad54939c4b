package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies conversion failures for the presentation layer.
type ErrorKind string

const (
	KindValidation                   ErrorKind = "validation"
	KindCustomerCreationFailed       ErrorKind = "customer_creation_failed"
	KindEngagementCreationFailed     ErrorKind = "engagement_creation_failed"
	KindCredentialEmailTaken         ErrorKind = "credential_email_taken"
	KindCredentialProvisioningFailed ErrorKind = "credential_provisioning_failed"
	KindLeadRetirementFailed         ErrorKind = "lead_retirement_failed"
	KindInvalidState                 ErrorKind = "invalid_state"
	KindBusy                         ErrorKind = "busy"
	KindSessionNotFound              ErrorKind = "session_not_found"
)

// Severity tells the operator whether manual follow-up is required.
type Severity string

const (
	SeverityNormal Severity = "normal"
	SeverityHigh   Severity = "high"
)

// Wizard steps a failure can be attached to.
const (
	StepEngagement = "engagement"
	StepCredential = "credential"
	StepClose      = "close"
)

// ConversionError is the typed result of a failed transition.
type ConversionError struct {
	Kind    ErrorKind
	Step    string
	Message string
	// Fields maps a JSON field name to the rule it failed. Validation only.
	Fields map[string]string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Severity is high only when the stores were left in a state that needs a human.
func (e *ConversionError) Severity() Severity {
	if e.Kind == KindLeadRetirementFailed {
		return SeverityHigh
	}
	return SeverityNormal
}

// Retryable reports whether resubmitting the same step can succeed without
// operator changes to the input.
func (e *ConversionError) Retryable() bool {
	switch e.Kind {
	case KindCustomerCreationFailed, KindEngagementCreationFailed, KindCredentialProvisioningFailed, KindBusy:
		return true
	default:
		return false
	}
}

// NewError builds a ConversionError.
func NewError(kind ErrorKind, step, message string, err error) *ConversionError {
	return &ConversionError{Kind: kind, Step: step, Message: message, Err: err}
}

// ValidationError builds a validation failure with per-field rules.
func ValidationError(step string, fields map[string]string) *ConversionError {
	return &ConversionError{Kind: KindValidation, Step: step, Message: "validation failed", Fields: fields}
}

// KindOf returns the conversion error kind in err's chain, or "".
func KindOf(err error) ErrorKind {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Kind
	}
	return ""
}
