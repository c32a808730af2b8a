// Package narrator generates the weather/usage narrative served at
// POST /api/ai-analysis, backed by an OpenAI or Anthropic model.
package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Input is the dataset the narrative is written about.
type Input struct {
	Data           json.RawMessage `json:"data"`
	PredictedUsage json.RawMessage `json:"predictedUsage"`
}

// Provider writes a narrative for an Input.
type Provider interface {
	Name() string
	Narrate(ctx context.Context, input Input) (string, error)
}

// New builds the provider selected by name.
func New(name, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("narrator %s: api key is not configured", name)
	}

	switch strings.ToLower(name) {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown narrator provider %q", name)
	}
}

func formatUserPrompt(input Input) string {
	var sb strings.Builder
	sb.WriteString("Weather and usage data:\n")
	sb.Write(rawOrNull(input.Data))
	sb.WriteString("\n\nPredicted usage:\n")
	sb.Write(rawOrNull(input.PredictedUsage))
	sb.WriteString("\n")
	return sb.String()
}

func rawOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}

// cleanResponse strips a surrounding markdown fence some models add.
func cleanResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```markdown")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
