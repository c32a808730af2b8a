package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weather-insight/internal/reveal"
)

// stubAnalyzer answers with a fixed narrative or error.
type stubAnalyzer struct {
	narrative string
	err       error
}

func (s stubAnalyzer) Analyze(ctx context.Context, req Request) (string, error) {
	return s.narrative, s.err
}

// gatedAnalyzer blocks every call until a reply is sent on its channel.
type gatedAnalyzer struct {
	started chan struct{}
	replies chan string
}

func newGatedAnalyzer() *gatedAnalyzer {
	return &gatedAnalyzer{started: make(chan struct{}, 4), replies: make(chan string)}
}

func (g *gatedAnalyzer) Analyze(ctx context.Context, req Request) (string, error) {
	g.started <- struct{}{}
	select {
	case r := <-g.replies:
		return r, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func advanceAll(s *Session) {
	for s.Advance() {
	}
}

func TestSessionRunRevealsNarrative(t *testing.T) {
	s := NewSession(stubAnalyzer{narrative: "Hello\nWorld"}, 0)

	if err := s.Run(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := s.View()
	if v.State != reveal.StateRevealing || v.Revealed != "" || v.Length != len("Hello\nWorld") {
		t.Fatalf("unexpected view after run: %+v", v)
	}
	if v.Settled() {
		t.Fatalf("expected revealing session not to be settled")
	}

	advanceAll(s)
	v = s.View()
	if v.Revealed != "Hello\nWorld" || v.State != reveal.StateComplete {
		t.Fatalf("expected full reveal, got %+v", v)
	}
	if !v.Settled() {
		t.Fatalf("expected completed session to be settled")
	}
}

func TestSessionRunFailureLeavesRevealEmpty(t *testing.T) {
	failure := &Failure{Kind: KindRequestFailed, Message: "quota exceeded"}
	s := NewSession(stubAnalyzer{err: failure}, 0)

	err := s.Run(context.Background(), Request{})
	if !errors.Is(err, failure) {
		t.Fatalf("expected failure to be returned, got %v", err)
	}

	v := s.View()
	if v.Error != "quota exceeded" {
		t.Fatalf("expected error message, got %q", v.Error)
	}
	if v.Revealed != "" || v.State != reveal.StateIdle {
		t.Fatalf("expected empty reveal, got %+v", v)
	}
	if s.Advance() {
		t.Fatalf("expected nothing to advance")
	}
	if !v.Settled() {
		t.Fatalf("expected failed session to be settled")
	}
}

func TestSessionRunClearsPreviousState(t *testing.T) {
	s := NewSession(stubAnalyzer{err: &Failure{Kind: KindTransport, Message: "boom"}}, 0)
	_ = s.Run(context.Background(), Request{})

	s.analyzer = stubAnalyzer{narrative: "Rain"}
	if err := s.Run(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := s.View(); v.Error != "" || v.Attempt != 2 {
		t.Fatalf("expected cleared error on attempt 2, got %+v", v)
	}
}

func TestSessionNewRunCancelsRunningReveal(t *testing.T) {
	gate := newGatedAnalyzer()
	s := NewSession(gate, 0)

	go func() { _ = s.Run(context.Background(), Request{}) }()
	<-gate.started
	gate.replies <- "aaaaaaaa"
	waitFor(t, func() bool { return s.View().State == reveal.StateRevealing })
	s.Advance()
	s.Advance()

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), Request{}) }()
	<-gate.started

	// While the second request is in flight the first reveal is gone.
	v := s.View()
	if !v.Pending || v.Revealed != "" || v.State != reveal.StateIdle {
		t.Fatalf("expected cleared pending view, got %+v", v)
	}
	if s.Advance() {
		t.Fatalf("expected no reveal to advance while pending")
	}

	gate.replies <- "bbbb"
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	advanceAll(s)
	if got := s.View().Revealed; got != "bbbb" {
		t.Fatalf("expected only the new narrative, got %q", got)
	}
}

func TestSessionSupersededRunDoesNotStart(t *testing.T) {
	gate := newGatedAnalyzer()
	s := NewSession(gate, 0)

	first := make(chan error, 1)
	go func() { first <- s.Run(context.Background(), Request{}) }()
	<-gate.started

	second := make(chan error, 1)
	go func() { second <- s.Run(context.Background(), Request{}) }()
	<-gate.started

	gate.replies <- "stale"
	gate.replies <- "fresh"

	errs := []error{<-first, <-second}
	var superseded, ok int
	for _, err := range errs {
		switch {
		case errors.Is(err, ErrSuperseded):
			superseded++
		case err == nil:
			ok++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if superseded != 1 || ok != 1 {
		t.Fatalf("expected one superseded and one successful run, got %v", errs)
	}

	advanceAll(s)
	v := s.View()
	if v.Attempt != 2 || v.Pending {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Revealed != "stale" && v.Revealed != "fresh" {
		t.Fatalf("unexpected narrative %q", v.Revealed)
	}
	if strings.Contains(v.Revealed, "stale") && strings.Contains(v.Revealed, "fresh") {
		t.Fatalf("narratives were mixed: %q", v.Revealed)
	}
}

func TestSessionClose(t *testing.T) {
	s := NewSession(stubAnalyzer{narrative: "long narrative"}, time.Millisecond)
	if err := s.Run(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Close()
	cursor := s.View().Cursor
	time.Sleep(20 * time.Millisecond)

	v := s.View()
	if v.Cursor != cursor {
		t.Fatalf("expected no ticks after close, cursor moved %d -> %d", cursor, v.Cursor)
	}
	if !v.Closed || !v.Settled() {
		t.Fatalf("expected closed settled view, got %+v", v)
	}
	if err := s.Run(context.Background(), Request{}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after close, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
