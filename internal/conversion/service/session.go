package service

import (
	"sync"
	"time"

	"portal_backend/internal/conversion/domain"

	"github.com/google/uuid"
)

// Session is one open conversion wizard. It is held in memory only.
// All fields are guarded by mu; inFlight serialises transitions.
type Session struct {
	mu sync.Mutex

	id         uuid.UUID
	operatorID uuid.UUID
	lead       domain.Lead
	defaults   domain.EngagementDefaults
	state      domain.State
	customer   *domain.Customer
	engagement *domain.Engagement
	credential *domain.Credential
	secret     string
	lastErr    *domain.ConversionError
	inFlight   bool
	closed     bool
	lastActive time.Time
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// LeadID returns the id of the lead being converted.
func (s *Session) LeadID() uuid.UUID { return s.lead.ID }

// OperatorID returns the operator that opened the session.
func (s *Session) OperatorID() uuid.UUID { return s.operatorID }

// HasCustomer reports whether this session already produced a customer.
// A resubmitted engagement step never creates a second one.
func (s *Session) HasCustomer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer != nil
}

// LastActive returns the time of the last operator interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// begin claims the session for one transition.
func (s *Session) begin(now time.Time, step string) *domain.ConversionError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return domain.NewError(domain.KindBusy, step, "a submission is already in progress", nil)
	}
	if s.closed {
		return domain.NewError(domain.KindInvalidState, step, "conversion session is closed", nil)
	}
	s.inFlight = true
	s.lastActive = now
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// fail records err as the session's last error and returns it.
func (s *Session) fail(err *domain.ConversionError) *domain.ConversionError {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func (s *Session) snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID: s.id,
		State:     s.state,
		Lead:      s.lead,
		Defaults:  s.defaults,
		Busy:      s.inFlight,
		Closed:    s.closed,
	}
	if s.customer != nil {
		c := *s.customer
		snap.Customer = &c
	}
	if s.engagement != nil {
		e := *s.engagement
		snap.Engagement = &e
	}
	if s.credential != nil {
		c := *s.credential
		snap.Credential = &c
	}
	if s.state == domain.StateCompleted && !s.closed && s.secret != "" {
		snap.Issued = &domain.IssuedCredential{Email: s.credential.Email, Secret: s.secret}
	}
	if s.lastErr != nil {
		e := *s.lastErr
		snap.LastError = &e
	}
	return snap
}
