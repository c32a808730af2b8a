package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	ErrCircuitOpen  = errors.New("circuit breaker open")
	ErrNoHTTPClient = errors.New("http client not configured")
)

// StatusError reports a non-2xx response. The response is still returned to the
// caller alongside it so an error payload can be decoded.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// Guard runs outbound requests through a circuit breaker. Every call is a single
// attempt; nothing is retried.
type Guard struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker

	// statusTrips makes 429 and 5xx responses count against the breaker.
	statusTrips bool
}

// Option configures a Guard.
type Option func(*Guard)

// TransportFailuresOnly keeps error-status responses out of the breaker. Use it
// when the upstream reports user-facing failures through its status and body, so
// a run of those never blocks the next attempt.
func TransportFailuresOnly() Option {
	return func(g *Guard) {
		g.statusTrips = false
	}
}

// NewGuard creates a Guard named after the upstream it protects.
func NewGuard(name string, client *http.Client, opts ...Option) *Guard {
	g := &Guard{
		client:      client,
		statusTrips: true,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: g.isSuccessful,
	})
	return g
}

// isSuccessful tells the breaker which outcomes count as failures.
func (g *Guard) isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && !g.statusTrips
}

// Do executes the request built by buildRequest.
//
// A nil error means a 2xx response. A *StatusError comes with a non-nil response
// whose body the caller must close. Any other error comes with a nil response.
// Transport errors count against the breaker; so do 429 and 5xx unless the Guard
// was built with TransportFailuresOnly.
func (g *Guard) Do(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if g == nil || g.client == nil {
		return nil, ErrNoHTTPClient
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	_, err = g.circuit.Execute(func() (interface{}, error) {
		r, execErr := g.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		resp = r

		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
			return nil, &StatusError{Code: r.StatusCode}
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if resp == nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &StatusError{Code: resp.StatusCode}
	}
	return resp, nil
}

// State exposes the breaker state for health reporting.
func (g *Guard) State() string {
	if g == nil || g.circuit == nil {
		return "unknown"
	}
	return g.circuit.State().String()
}
