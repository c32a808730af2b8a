package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-insight/internal/reveal"
)

// ErrSuperseded is returned by Run when a newer Run started before this one resolved.
var ErrSuperseded = errors.New("analysis superseded by a newer request")

// View is what a client renders for a session.
type View struct {
	ID      string `json:"id"`
	Attempt uint64 `json:"attempt"`
	Pending bool   `json:"pending"`
	Error   string `json:"error,omitempty"`
	Closed  bool   `json:"closed,omitempty"`
	reveal.Snapshot
}

// Settled reports whether nothing more will change until the next Run.
func (v View) Settled() bool {
	if v.Closed {
		return true
	}
	if v.Attempt == 0 || v.Pending {
		return false
	}
	return v.Error != "" || v.State != reveal.StateRevealing
}

// Session owns one reveal and the error message of the latest analysis attempt.
type Session struct {
	ID uuid.UUID

	analyzer Analyzer
	reveal   *reveal.Engine

	mu       sync.Mutex
	attempt  uint64
	pending  bool
	errMsg   string
	closed   bool
	lastUsed time.Time
}

// NewSession creates an idle session.
func NewSession(analyzer Analyzer, interval time.Duration) *Session {
	return &Session{
		ID:       uuid.New(),
		analyzer: analyzer,
		reveal:   reveal.NewEngine(interval),
		lastUsed: time.Now(),
	}
}

// Run starts a new analysis attempt. The previous reveal and error are cleared
// before the request is issued. On success the narrative starts revealing; on
// failure the error message is recorded and the reveal stays empty.
func (s *Session) Run(ctx context.Context, req Request) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.attempt++
	attempt := s.attempt
	s.pending = true
	s.errMsg = ""
	s.lastUsed = time.Now()
	s.reveal.Reset()
	s.mu.Unlock()

	narrative, err := s.analyzer.Analyze(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || attempt != s.attempt {
		return ErrSuperseded
	}
	s.pending = false
	s.lastUsed = time.Now()

	if err != nil {
		s.errMsg = err.Error()
		if s.errMsg == "" {
			s.errMsg = DefaultTransportMessage
		}
		return err
	}

	s.reveal.Start(narrative)
	return nil
}

// View returns the current state of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		ID:       s.ID.String(),
		Attempt:  s.attempt,
		Pending:  s.pending,
		Error:    s.errMsg,
		Closed:   s.closed,
		Snapshot: s.reveal.Snapshot(),
	}
}

// Advance reveals one character by hand (used when the session has no ticker).
func (s *Session) Advance() bool {
	return s.reveal.Advance()
}

// Close tears the session down; no tick fires after it returns.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.attempt++
	s.pending = false
	s.mu.Unlock()

	s.reveal.Stop()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed), s.pending
}
