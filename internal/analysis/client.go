package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/i474232898/weather-insight/internal/metrics"
	"github.com/i474232898/weather-insight/internal/upstream"
)

const (
	// DefaultRequestFailedMessage is used when the endpoint rejects a request without saying why.
	DefaultRequestFailedMessage = "AI analysis request failed"
	// DefaultTransportMessage is used when a transport error carries no message.
	DefaultTransportMessage = "an error occurred during AI analysis"
)

// Kind classifies a Failure. Both kinds are shown to users the same way.
type Kind string

const (
	KindRequestFailed Kind = "request_failed"
	KindTransport     Kind = "transport"
)

// Failure is the error returned by Analyze. Error() is the user-facing message.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind Kind, err error, fallback string) *Failure {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = fallback
	}
	return &Failure{Kind: kind, Message: msg, Err: err}
}

// Request is the payload forwarded verbatim to the analysis endpoint.
type Request struct {
	Data           json.RawMessage `json:"data"`
	PredictedUsage json.RawMessage `json:"predictedUsage"`
}

// Analyzer produces a sanitized narrative for a request.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// Client calls the AI analysis endpoint (POST /api/ai-analysis).
type Client struct {
	endpoint string
	guard    *upstream.Guard
	passes   []Pass
}

// NewClient creates a Client that posts to endpoint. Error statuses from the
// endpoint never open the breaker, so every re-trigger reaches it.
func NewClient(httpClient *http.Client, endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		guard:    upstream.NewGuard("ai-analysis", httpClient, upstream.TransportFailuresOnly()),
		passes:   DefaultPasses,
	}
}

// Analyze makes exactly one request. Every error it returns is a *Failure.
func (c *Client) Analyze(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	narrative, err := c.analyze(ctx, req)

	result := metrics.ResultSuccess
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			result = string(f.Kind)
		} else {
			result = metrics.ResultError
		}
	}
	metrics.ObserveAnalysis(result, time.Since(start))

	return narrative, err
}

func (c *Client) analyze(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", newFailure(KindTransport, fmt.Errorf("encode analysis request: %w", err), DefaultTransportMessage)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	}

	resp, err := c.guard.Do(ctx, buildRequest)
	if resp != nil {
		defer resp.Body.Close()
	}

	var statusErr *upstream.StatusError
	switch {
	case errors.As(err, &statusErr) && resp != nil:
		return "", &Failure{
			Kind:    KindRequestFailed,
			Message: decodeErrorMessage(resp.Body),
			Err:     err,
		}
	case err != nil:
		return "", newFailure(KindTransport, err, DefaultTransportMessage)
	}

	var payload struct {
		Analysis *string `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", newFailure(KindTransport, err, DefaultTransportMessage)
	}
	if payload.Analysis == nil {
		return "", nil
	}

	return Apply(*payload.Analysis, c.passes...), nil
}

// decodeErrorMessage reads {"error": "..."} from an error response, falling back
// to the generic message.
func decodeErrorMessage(r io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil || payload.Error == "" {
		return DefaultRequestFailedMessage
	}
	return payload.Error
}
