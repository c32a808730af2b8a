package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/i474232898/weather-insight/internal/upstream"
	"github.com/i474232898/weather-insight/internal/weather"
)

// HTTPSource reads the weather log from the JSON feed (GET /db/weather.json).
type HTTPSource struct {
	name  string
	url   string
	guard *upstream.Guard
}

func NewHTTPSource(client *http.Client, url string) *HTTPSource {
	return &HTTPSource{
		name:  "weather-feed",
		url:   url,
		guard: upstream.NewGuard("weather-feed", client),
	}
}

func (s *HTTPSource) Name() string {
	return s.name
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]weather.Record, error) {
	if s.url == "" {
		return nil, fmt.Errorf("weather feed url is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := s.guard.Do(ctx, buildRequest)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, resp.Body)
		}
		return nil, err
	}

	var payload struct {
		Weather []weather.Record `json:"weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather feed: %w", err)
	}

	if payload.Weather == nil {
		payload.Weather = []weather.Record{}
	}
	return payload.Weather, nil
}
