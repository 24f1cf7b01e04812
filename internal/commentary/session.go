package commentary

import (
	"context"
	"sync"
	"sync/atomic"
)

// Session allows a single request in flight per reader.
type Session struct {
	ID       string
	o        *Orchestrator
	registry *Sessions
	inFlight atomic.Bool
}

// NewSession creates a session bound to o.
func (o *Orchestrator) NewSession(id string) *Session {
	return &Session{ID: id, o: o}
}

// Analyze runs the orchestrator unless a previous call on this session has
// not returned yet, in which case it returns ErrInProgress without doing any work.
func (s *Session) Analyze(ctx context.Context, sel Selection) (*Outcome, error) {
	if !s.acquire() {
		return nil, ErrInProgress
	}
	defer s.release()

	return s.o.Analyze(ctx, sel)
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

func (s *Session) acquire() bool {
	r := s.registry
	if r == nil {
		return s.inFlight.CompareAndSwap(false, true)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[s.ID]; ok && cur.Busy() {
		return false
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	r.sessions[s.ID] = s
	return true
}

func (s *Session) release() {
	r := s.registry
	if r == nil {
		s.inFlight.Store(false)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s.inFlight.Store(false)
	if r.sessions[s.ID] == s {
		delete(r.sessions, s.ID)
	}
}

// Sessions hands out sessions by reader id. Only sessions with a request in
// flight are retained; an idle reader costs nothing.
type Sessions struct {
	mu       sync.Mutex
	o        *Orchestrator
	sessions map[string]*Session
}

// NewSessions creates an empty session registry for o.
func NewSessions(o *Orchestrator) *Sessions {
	return &Sessions{o: o, sessions: make(map[string]*Session)}
}

// Get returns the in-flight session for id, or a fresh idle one.
func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	return &Session{ID: id, o: r.o, registry: r}
}

// Busy reports whether id has a request in flight.
func (r *Sessions) Busy(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return ok && s.Busy()
}

// Len returns the number of sessions with a request in flight.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
