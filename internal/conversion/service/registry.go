package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry indexes open sessions by id and by lead.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	byLead   map[uuid.UUID]uuid.UUID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		byLead:   make(map[uuid.UUID]uuid.UUID),
	}
}

// PutIfAbsent stores s unless its lead already has an open session, in which
// case that session is returned with false.
func (r *Registry) PutIfAbsent(s *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byLead[s.LeadID()]; ok {
		if existing, ok := r.sessions[id]; ok {
			return existing, false
		}
	}
	r.sessions[s.ID()] = s
	r.byLead[s.LeadID()] = s.ID()
	return s, true
}

// Get returns the session with the given id.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// ForLead returns the open session for a lead, if any.
func (r *Registry) ForLead(leadID uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byLead[leadID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops the session. Removing an unknown id is a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	if current, ok := r.byLead[s.LeadID()]; ok && current == id {
		delete(r.byLead, s.LeadID())
	}
}

// Expired returns sessions idle since before cutoff.
func (r *Registry) Expired(cutoff time.Time) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// All returns every open session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
