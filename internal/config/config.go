package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-insight/internal/reveal"
	"github.com/i474232898/weather-insight/internal/weather"
)

var validate = validator.New()

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// Weather log source: the JSON feed, or Postgres when WeatherDatabaseURL is set.
	WeatherStoreURL    string `validate:"omitempty,url"`
	WeatherDatabaseURL string

	// StoreRefreshInterval reloads the log periodically (0 = load once at startup).
	StoreRefreshInterval time.Duration `validate:"gte=0"`

	// Window derivation.
	TodayOffset        time.Duration
	WindowCalendarDiff bool

	// AI analysis endpoint consumed by analysis sessions.
	AIAnalysisURL     string        `validate:"required,url"`
	AIAnalysisTimeout time.Duration `validate:"gt=0"`

	// HTTPTimeout bounds the other outbound calls (the weather feed).
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Reveal cadence and session lifetime.
	RevealInterval       time.Duration `validate:"gt=0"`
	SessionTTL           time.Duration `validate:"gte=0"`
	SessionSweepInterval time.Duration `validate:"gte=0"`

	// Optional built-in narrator behind POST /api/ai-analysis.
	NarratorProvider string `validate:"omitempty,oneof=openai anthropic"`
	NarratorAPIKey   string
	NarratorModel    string
	NarratorTimeout  time.Duration `validate:"gt=0"`

	// StaticDir serves a local copy of /db/weather.json when set.
	StaticDir string

	AllowOrigins string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.WeatherStoreURL = getenvDefault("WEATHER_STORE_URL", "http://localhost:"+cfg.Port+"/db/weather.json")
	cfg.WeatherDatabaseURL = os.Getenv("WEATHER_DATABASE_URL")
	cfg.AIAnalysisURL = getenvDefault("AI_ANALYSIS_URL", "http://localhost:"+cfg.Port+"/api/ai-analysis")
	cfg.WindowCalendarDiff = getenvBool("WINDOW_CALENDAR_DIFF", false)
	cfg.StaticDir = os.Getenv("STATIC_DIR")
	cfg.AllowOrigins = getenvDefault("ALLOW_ORIGINS", "*")

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"STORE_REFRESH_INTERVAL", "0", &cfg.StoreRefreshInterval},
		{"TIMEZONE_OFFSET", weather.DefaultTodayOffset.String(), &cfg.TodayOffset},
		{"HTTP_TIMEOUT", "30s", &cfg.HTTPTimeout},
		{"AI_ANALYSIS_TIMEOUT", "90s", &cfg.AIAnalysisTimeout},
		{"NARRATOR_TIMEOUT", "60s", &cfg.NarratorTimeout},
		{"REVEAL_INTERVAL", reveal.DefaultInterval.String(), &cfg.RevealInterval},
		{"SESSION_TTL", "30m", &cfg.SessionTTL},
		{"SESSION_SWEEP_INTERVAL", "5m", &cfg.SessionSweepInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	cfg.NarratorProvider = strings.ToLower(os.Getenv("NARRATOR_PROVIDER"))
	cfg.NarratorModel = os.Getenv("NARRATOR_MODEL")
	switch cfg.NarratorProvider {
	case "openai":
		cfg.NarratorAPIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		cfg.NarratorAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.WeatherStoreURL == "" && c.WeatherDatabaseURL == "" {
		return fmt.Errorf("invalid config: one of WEATHER_STORE_URL or WEATHER_DATABASE_URL is required")
	}
	if c.NarratorProvider != "" && c.NarratorAPIKey == "" {
		return fmt.Errorf("invalid config: NARRATOR_PROVIDER=%s requires its API key", c.NarratorProvider)
	}
	// Sessions may call this process's own narrator; the caller must outwait it.
	if c.NarratorProvider != "" && c.AIAnalysisTimeout <= c.NarratorTimeout {
		return fmt.Errorf("invalid config: AI_ANALYSIS_TIMEOUT (%s) must exceed NARRATOR_TIMEOUT (%s)", c.AIAnalysisTimeout, c.NarratorTimeout)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
