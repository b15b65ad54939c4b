package service

import (
	"context"
	"errors"
	"time"

	"portal_backend/internal/conversion/domain"
	"portal_backend/internal/conversion/ports"
	"portal_backend/platform/apperr"
	"portal_backend/platform/config"
	"portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgLeadNotFound    = "lead not found"
	msgLeadLocked      = "lead is being converted by another operator"
	msgLockUnavailable = "lead lock unavailable"

	abandonReasonOperator = "operator"
	abandonReasonExpired  = "expired"
	abandonReasonShutdown = "shutdown"
)

// Service is the entry point used by the HTTP handler. It owns the session
// registry and the per-lead locks around the Orchestrator.
type Service struct {
	orch     *Orchestrator
	registry *Registry
	leads    ports.LeadReader
	locker   ports.LeadLocker
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// New creates the conversion service.
func New(orch *Orchestrator, registry *Registry, leads ports.LeadReader, locker ports.LeadLocker, cfg config.ConversionConfig, log *logger.Logger) *Service {
	return &Service{
		orch:     orch,
		registry: registry,
		leads:    leads,
		locker:   locker,
		ttl:      cfg.GetConversionSessionTTL(),
		log:      log,
		now:      time.Now,
	}
}

// Start opens a conversion session for a lead. An operator reopening their
// own open session gets it back instead of a new one.
func (s *Service) Start(ctx context.Context, leadID, operatorID uuid.UUID) (domain.Snapshot, error) {
	if existing, ok := s.registry.ForLead(leadID); ok {
		if existing.OperatorID() != operatorID {
			return domain.Snapshot{}, apperr.Locked(msgLeadLocked)
		}
		s.touch(ctx, existing)
		return s.orch.GetState(existing), nil
	}

	lead, err := s.leads.GetLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, ports.ErrLeadNotFound) {
			return domain.Snapshot{}, apperr.NotFound(msgLeadNotFound)
		}
		return domain.Snapshot{}, err
	}

	session := s.orch.StartConversion(lead, operatorID)
	acquired, err := s.locker.Acquire(ctx, leadID, session.ID().String(), s.ttl)
	if err != nil {
		return domain.Snapshot{}, apperr.Wrap(apperr.KindUnavailable, msgLockUnavailable, err)
	}
	if !acquired {
		return domain.Snapshot{}, apperr.Locked(msgLeadLocked)
	}

	if existing, stored := s.registry.PutIfAbsent(session); !stored {
		if err := s.locker.Release(ctx, leadID, session.ID().String()); err != nil {
			s.log.WithContext(ctx).Warn("lead lock release failed", "lead_id", leadID.String(), "error", err)
		}
		if existing.OperatorID() != operatorID {
			return domain.Snapshot{}, apperr.Locked(msgLeadLocked)
		}
		s.touch(ctx, existing)
		return s.orch.GetState(existing), nil
	}

	s.log.WithContext(ctx).Info("conversion session started",
		"session_id", session.ID().String(),
		"lead_id", leadID.String(),
	)
	return s.orch.GetState(session), nil
}

// Get returns the current snapshot of a session.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (domain.Snapshot, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return s.orch.GetState(session), nil
}

// SubmitEngagement runs the engagement step for a session.
func (s *Service) SubmitEngagement(ctx context.Context, sessionID uuid.UUID, in domain.EngagementInput) (domain.Snapshot, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s.touch(ctx, session)
	return s.orch.SubmitEngagement(ctx, session, in)
}

// SubmitCredential runs the credential step for a session.
func (s *Service) SubmitCredential(ctx context.Context, sessionID uuid.UUID, in domain.CredentialInput) (domain.Snapshot, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s.touch(ctx, session)
	return s.orch.SubmitCredential(ctx, session, in)
}

// Close finalises a completed session and releases its lead lock.
func (s *Service) Close(ctx context.Context, sessionID uuid.UUID) (domain.Snapshot, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap, err := s.orch.Close(ctx, session)
	if err != nil {
		return snap, err
	}
	s.discard(ctx, session)
	return snap, nil
}

// Abandon drops a session at any state. Committed records are kept.
func (s *Service) Abandon(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := s.orch.Abandon(ctx, session, abandonReasonOperator); err != nil {
		return err
	}
	s.discard(ctx, session)
	return nil
}

// GenerateSecret returns a fresh portal password suggestion.
func (s *Service) GenerateSecret() (string, error) {
	return domain.GenerateSecret()
}

// Sweep abandons sessions idle for longer than the session TTL. Sessions with
// a submission in flight are left for the next sweep.
func (s *Service) Sweep(ctx context.Context) int {
	return s.abandonAll(ctx, s.registry.Expired(s.now().Add(-s.ttl)), abandonReasonExpired)
}

// Drain abandons every open session. Sessions live in memory only, so this
// runs on shutdown to release lead locks and report committed records.
func (s *Service) Drain(ctx context.Context) int {
	return s.abandonAll(ctx, s.registry.All(), abandonReasonShutdown)
}

func (s *Service) abandonAll(ctx context.Context, sessions []*Session, reason string) int {
	abandoned := 0
	for _, session := range sessions {
		if err := s.orch.Abandon(ctx, session, reason); err != nil {
			s.log.WithContext(ctx).Warn("conversion session not abandoned",
				"session_id", session.ID().String(),
				"reason", reason,
				"error", err,
			)
			continue
		}
		s.discard(ctx, session)
		abandoned++
	}
	return abandoned
}

// RunJanitor sweeps expired sessions until ctx is cancelled.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				s.log.Info("expired conversion sessions abandoned", "count", n)
			}
		}
	}
}

func (s *Service) lookup(sessionID uuid.UUID) (*Session, error) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, domain.NewError(domain.KindSessionNotFound, "", "conversion session not found", nil)
	}
	return session, nil
}

func (s *Service) touch(ctx context.Context, session *Session) {
	if err := s.locker.Refresh(ctx, session.LeadID(), session.ID().String(), s.ttl); err != nil {
		s.log.WithContext(ctx).Warn("lead lock refresh failed",
			"session_id", session.ID().String(),
			"lead_id", session.LeadID().String(),
			"error", err,
		)
	}
}

func (s *Service) discard(ctx context.Context, session *Session) {
	s.registry.Remove(session.ID())
	if err := s.locker.Release(ctx, session.LeadID(), session.ID().String()); err != nil {
		s.log.WithContext(ctx).Warn("lead lock release failed",
			"session_id", session.ID().String(),
			"lead_id", session.LeadID().String(),
			"error", err,
		)
	}
}
