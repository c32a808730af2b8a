package analysis

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-insight/internal/metrics"
)

// ErrSessionNotFound is returned for unknown or closed sessions.
var ErrSessionNotFound = errors.New("analysis session not found")

// Registry keeps the open analysis sessions, keyed by ID.
type Registry struct {
	analyzer Analyzer
	interval time.Duration
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates a Registry. Sessions reveal at interval and expire after ttl
// without use (ttl <= 0 disables expiry).
func NewRegistry(analyzer Analyzer, interval, ttl time.Duration) *Registry {
	return &Registry{
		analyzer: analyzer,
		interval: interval,
		ttl:      ttl,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create opens a new session.
func (r *Registry) Create() *Session {
	s := NewSession(r.analyzer, r.interval)

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SetSessions(n)
	return s
}

// Get returns the session with the given ID and marks it used.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete closes and removes a session.
func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	metrics.SetSessions(n)
	return nil
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL. Sessions with a request in
// flight are kept.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	var expired []*Session

	r.mu.Lock()
	for id, s := range r.sessions {
		idle, pending := s.idleSince(now)
		if pending || idle < r.ttl {
			continue
		}
		expired = append(expired, s)
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		log.Printf("INFO: expired %d idle analysis sessions", len(expired))
	}
	metrics.SetSessions(n)
	return len(expired)
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	metrics.SetSessions(0)
}
