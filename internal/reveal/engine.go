// Package reveal implements the typewriter-style reveal of a narrative, one
// character per tick.
package reveal

import (
	"sync"
	"time"

	"github.com/i474232898/weather-insight/internal/metrics"
)

// DefaultInterval is the delay between two revealed characters.
const DefaultInterval = 50 * time.Millisecond

// State is the lifecycle position of a reveal.
type State string

const (
	StateIdle      State = "idle"
	StateRevealing State = "revealing"
	StateComplete  State = "complete"
)

// Snapshot is a copy of the reveal state. Cursor and Length count characters (runes).
type Snapshot struct {
	Revealed string `json:"revealed"`
	Cursor   int    `json:"cursor"`
	Length   int    `json:"length"`
	State    State  `json:"state"`
}

// Engine reveals a source string one rune per tick.
//
// Invariant: 0 <= cursor <= len(source) and the revealed text is source[:cursor].
// Every tick checks the generation it was started for under the lock, so a tick
// belonging to a reset or replaced reveal never writes.
type Engine struct {
	interval time.Duration

	mu         sync.Mutex
	source     []rune
	cursor     int
	generation uint64
	stop       chan struct{}
	done       chan struct{}
}

// NewEngine creates an idle Engine. With interval <= 0 no ticker is started and the
// caller drives the reveal with Advance.
func NewEngine(interval time.Duration) *Engine {
	return &Engine{interval: interval}
}

// Start replaces any reveal in progress with source and begins ticking.
// An empty source leaves the engine idle.
func (e *Engine) Start(source string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	if source == "" {
		return
	}

	e.source = []rune(source)
	if e.interval <= 0 {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	e.stop, e.done = stop, done
	go e.run(e.generation, stop, done)
}

// Reset cancels ticking and clears the state back to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

// Stop cancels ticking and waits for the ticker goroutine to exit. The revealed
// text is kept; use it on teardown.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.generation++
	done := e.cancelLocked()
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Advance reveals the next character of the current source. It reports whether a
// character was revealed.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advanceLocked()
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Revealed: string(e.source[:e.cursor]),
		Cursor:   e.cursor,
		Length:   len(e.source),
		State:    e.stateLocked(),
	}
}

func (e *Engine) stateLocked() State {
	switch {
	case len(e.source) == 0:
		return StateIdle
	case e.cursor < len(e.source):
		return StateRevealing
	default:
		return StateComplete
	}
}

func (e *Engine) resetLocked() {
	e.generation++
	e.cancelLocked()
	e.source = nil
	e.cursor = 0
}

// cancelLocked signals the running ticker (if any) to exit and returns its done channel.
func (e *Engine) cancelLocked() chan struct{} {
	if e.stop == nil {
		return nil
	}
	close(e.stop)
	done := e.done
	e.stop, e.done = nil, nil
	return done
}

func (e *Engine) advanceLocked() bool {
	if e.cursor >= len(e.source) {
		return false
	}
	e.cursor++
	metrics.IncRevealTick()
	return true
}

func (e *Engine) run(generation uint64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		if e.generation != generation {
			e.mu.Unlock()
			return
		}
		e.advanceLocked()
		finished := e.cursor >= len(e.source)
		if finished {
			// Release the ticker slot; a later Reset has nothing to cancel.
			e.stop, e.done = nil, nil
		}
		e.mu.Unlock()

		if finished {
			return
		}
	}
}
