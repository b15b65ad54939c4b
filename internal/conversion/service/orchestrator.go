// Package service implements the lead conversion pipeline: the per-session
// state machine, the session registry and the application service used by
// the HTTP handler.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"
	"unicode/utf8"

	"portal_backend/internal/conversion/domain"
	"portal_backend/internal/conversion/ports"
	"portal_backend/internal/events"
	"portal_backend/platform/logger"
	"portal_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	stepCustomer       = "customer"
	stepEngagement     = "engagement"
	stepCredential     = "credential"
	stepLeadRetirement = "lead_retirement"
	stepClose          = "close"

	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordBytes = 72
)

// Orchestrator sequences the writes of a conversion. It never rolls back:
// each committed write is kept on the session so a retry resumes after it.
type Orchestrator struct {
	records           ports.RecordStore
	credentials       ports.CredentialStore
	eventBus          events.Bus
	val               *validator.Validator
	log               *logger.Logger
	minPasswordLength int
	now               func() time.Time
}

// NewOrchestrator creates an orchestrator. minPasswordLength below 8 is raised to 8.
func NewOrchestrator(records ports.RecordStore, credentials ports.CredentialStore, eventBus events.Bus, val *validator.Validator, log *logger.Logger, minPasswordLength int) *Orchestrator {
	if minPasswordLength < 8 {
		minPasswordLength = 8
	}
	return &Orchestrator{
		records:           records,
		credentials:       credentials,
		eventBus:          eventBus,
		val:               val,
		log:               log,
		minPasswordLength: minPasswordLength,
		now:               time.Now,
	}
}

// StartConversion opens a session for lead in StateCollectingEngagement.
func (o *Orchestrator) StartConversion(lead domain.Lead, operatorID uuid.UUID) *Session {
	return &Session{
		id:         uuid.New(),
		operatorID: operatorID,
		lead:       lead,
		defaults:   domain.DefaultEngagementFields(lead),
		state:      domain.StateCollectingEngagement,
		lastActive: o.now(),
	}
}

// GetState returns a snapshot of the session.
func (o *Orchestrator) GetState(s *Session) domain.Snapshot {
	return s.snapshot()
}

// HasCustomer reports whether the session already produced a customer.
func (o *Orchestrator) HasCustomer(s *Session) bool {
	return s.HasCustomer()
}

// SubmitEngagement creates the customer and the engagement, then advances
// to StateCollectingCredential. Once past this step it is a no-op.
func (o *Orchestrator) SubmitEngagement(ctx context.Context, s *Session, in domain.EngagementInput) (domain.Snapshot, error) {
	if convErr := s.begin(o.now(), domain.StepEngagement); convErr != nil {
		return s.snapshot(), convErr
	}
	defer s.end()

	s.mu.Lock()
	state := s.state
	customer := s.customer
	lead := s.lead
	s.mu.Unlock()

	if state != domain.StateCollectingEngagement {
		return s.snapshot(), nil
	}

	in = in.Normalize()
	if fields := o.validate(in); fields != nil {
		return s.snapshot(), s.fail(domain.ValidationError(domain.StepEngagement, fields))
	}

	log := o.log.WithContext(ctx)

	if customer == nil {
		created, err := o.records.InsertCustomer(ctx, domain.CustomerFromLead(lead))
		if err != nil {
			convErr := domain.NewError(domain.KindCustomerCreationFailed, domain.StepEngagement, "customer could not be created", err)
			log.ConversionStep(s.id.String(), lead.ID.String(), stepCustomer, string(convErr.Kind), err)
			return s.snapshot(), s.fail(convErr)
		}
		customer = &created

		s.mu.Lock()
		s.customer = customer
		s.mu.Unlock()
		log.ConversionStep(s.id.String(), lead.ID.String(), stepCustomer, "", nil)
	}

	engagement, err := o.records.InsertEngagement(ctx, domain.NewEngagement{
		CustomerID:    customer.ID,
		Title:         in.Title,
		Description:   in.Description,
		Status:        domain.EngagementStatusPending,
		StartDate:     in.StartDate,
		TargetEndDate: in.TargetEndDate,
		BudgetCents:   in.BudgetCents,
	})
	if err != nil {
		convErr := domain.NewError(domain.KindEngagementCreationFailed, domain.StepEngagement, "engagement could not be created", err)
		log.ConversionStep(s.id.String(), lead.ID.String(), stepEngagement, string(convErr.Kind), err)
		return s.snapshot(), s.fail(convErr)
	}

	s.mu.Lock()
	s.engagement = &engagement
	s.state = domain.StateCollectingCredential
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.ConversionStep(s.id.String(), lead.ID.String(), stepEngagement, "", nil)
	return snap, nil
}

// SubmitCredential provisions the portal login and then retires the lead.
// When the lead delete fails after the login exists, the login is kept and a
// later submission only retries the delete.
func (o *Orchestrator) SubmitCredential(ctx context.Context, s *Session, in domain.CredentialInput) (domain.Snapshot, error) {
	if convErr := s.begin(o.now(), domain.StepCredential); convErr != nil {
		return s.snapshot(), convErr
	}
	defer s.end()

	s.mu.Lock()
	state := s.state
	customer := s.customer
	credential := s.credential
	lead := s.lead
	s.mu.Unlock()

	switch {
	case state == domain.StateCompleted:
		return s.snapshot(), nil
	case state != domain.StateCollectingCredential || customer == nil:
		return s.snapshot(), s.fail(domain.NewError(domain.KindInvalidState, domain.StepCredential, "engagement step has not completed", nil))
	}

	log := o.log.WithContext(ctx)

	if credential == nil {
		in = in.Normalize()
		if fields := o.validateCredential(in); fields != nil {
			return s.snapshot(), s.fail(domain.ValidationError(domain.StepCredential, fields))
		}

		created, err := o.credentials.CreateCredential(ctx, in.Email, in.Password, domain.Grant{
			Role:       domain.RoleCustomer,
			CustomerID: customer.ID,
		})
		if err != nil {
			var convErr *domain.ConversionError
			if errors.Is(err, ports.ErrEmailAlreadyRegistered) {
				convErr = domain.NewError(domain.KindCredentialEmailTaken, domain.StepCredential, "a portal login already exists for this email", err)
			} else {
				convErr = domain.NewError(domain.KindCredentialProvisioningFailed, domain.StepCredential, "portal login could not be created", err)
			}
			log.ConversionStep(s.id.String(), lead.ID.String(), stepCredential, string(convErr.Kind), err)
			return s.snapshot(), s.fail(convErr)
		}

		s.mu.Lock()
		s.credential = &created
		s.secret = in.Password
		s.mu.Unlock()
		credential = &created
		log.ConversionStep(s.id.String(), lead.ID.String(), stepCredential, "", nil)
	}

	if err := o.records.DeleteLead(ctx, lead.ID); err != nil && !errors.Is(err, ports.ErrLeadNotFound) {
		convErr := domain.NewError(domain.KindLeadRetirementFailed, domain.StepCredential,
			"portal login was created but the lead could not be removed; remove the lead manually", err)
		log.Error("conversion lead retirement failed",
			"session_id", s.id.String(),
			"lead_id", lead.ID.String(),
			"customer_id", customer.ID.String(),
			"error", err,
		)
		o.publish(ctx, events.ConversionNeedsAttention{
			BaseEvent:       events.NewBaseEvent(),
			SessionID:       s.id,
			LeadID:          lead.ID,
			CustomerID:      customer.ID,
			CredentialEmail: credential.Email,
			Reason:          string(convErr.Kind),
		})
		return s.snapshot(), s.fail(convErr)
	}

	s.mu.Lock()
	s.state = domain.StateCompleted
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.ConversionStep(s.id.String(), lead.ID.String(), stepLeadRetirement, "", nil)
	return snap, nil
}

// Close finalises a completed session, forgets the plaintext secret and
// announces the conversion.
func (o *Orchestrator) Close(ctx context.Context, s *Session) (domain.Snapshot, error) {
	if convErr := s.begin(o.now(), domain.StepClose); convErr != nil {
		return s.snapshot(), convErr
	}
	defer s.end()

	s.mu.Lock()
	if s.state != domain.StateCompleted {
		s.mu.Unlock()
		return s.snapshot(), domain.NewError(domain.KindInvalidState, domain.StepClose, "conversion is not completed", nil)
	}
	event := o.convertedEventLocked(s)
	s.closed = true
	s.secret = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	o.publish(ctx, event)
	o.log.WithContext(ctx).ConversionStep(s.id.String(), s.lead.ID.String(), stepClose, "", nil)
	return snap, nil
}

// Abandon discards the session. Committed records are left in place. A
// completed session is finalised as if it had been closed. A session with a
// submission in flight cannot be abandoned until that submission returns.
func (o *Orchestrator) Abandon(ctx context.Context, s *Session, reason string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.inFlight {
		s.mu.Unlock()
		return domain.NewError(domain.KindBusy, "", "a submission is in progress; wait for it to finish", nil)
	}
	s.closed = true
	s.secret = ""

	var event events.Event
	switch {
	case s.state == domain.StateCompleted:
		event = o.convertedEventLocked(s)
	case s.customer != nil:
		event = events.ConversionAbandoned{
			BaseEvent:        events.NewBaseEvent(),
			SessionID:        s.id,
			LeadID:           s.lead.ID,
			CustomerID:       s.customer.ID,
			State:            string(s.state),
			CredentialIssued: s.credential != nil,
			Reason:           reason,
		}
	}
	state := s.state
	s.mu.Unlock()

	if event != nil {
		o.publish(ctx, event)
	}
	o.log.WithContext(ctx).Info("conversion session abandoned",
		"session_id", s.id.String(),
		"lead_id", s.lead.ID.String(),
		"state", string(state),
		"reason", reason,
	)
	return nil
}

func (o *Orchestrator) convertedEventLocked(s *Session) events.CustomerConverted {
	return events.CustomerConverted{
		BaseEvent:       events.NewBaseEvent(),
		SessionID:       s.id,
		LeadID:          s.lead.ID,
		CustomerID:      s.customer.ID,
		EngagementID:    s.engagement.ID,
		CustomerName:    s.customer.Name,
		CredentialEmail: s.credential.Email,
		EngagementTitle: s.engagement.Title,
	}
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.eventBus == nil {
		return
	}
	o.eventBus.Publish(ctx, event)
}

func (o *Orchestrator) validate(in any) map[string]string {
	if err := o.val.Struct(in); err != nil {
		if fields := validator.FieldErrors(err); fields != nil {
			return fields
		}
		return map[string]string{"_": err.Error()}
	}
	return nil
}

func (o *Orchestrator) validateCredential(in domain.CredentialInput) map[string]string {
	fields := o.validate(in)
	rule := ""
	switch {
	case utf8.RuneCountInString(in.Password) < o.minPasswordLength:
		rule = "min=" + strconv.Itoa(o.minPasswordLength)
	case len(in.Password) > maxPasswordBytes:
		rule = "max=" + strconv.Itoa(maxPasswordBytes)
	}
	if rule != "" {
		if fields == nil {
			fields = make(map[string]string)
		}
		if _, exists := fields["password"]; !exists {
			fields["password"] = rule
		}
	}
	return fields
}
