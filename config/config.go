package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	ModelProvider   string
	Model           string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	DatabaseURL     string
	TripDataFile    string
	RateLimitDelay  time.Duration
	MaxToolRounds   int
	Verbose         bool
}

// Load reads .env if present and assembles the configuration from the
// environment. Required credentials are validated by the entrypoints.
func Load() *Config {
	godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ModelProvider:   getEnv("MODEL_PROVIDER", "openai"),
		Model:           os.Getenv("MODEL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		DatabaseURL:     os.Getenv("DB_URL"),
		TripDataFile:    getEnv("TRIP_DATA_FILE", "data/trip_history.json"),
		RateLimitDelay:  getEnvDuration("API_RATE_LIMIT_DELAY", 500*time.Millisecond),
		MaxToolRounds:   getEnvInt("MAX_TOOL_ROUNDS", 0),
		Verbose:         getEnvBool("VERBOSE", true),
	}

	if cfg.Model == "" {
		switch cfg.ModelProvider {
		case "anthropic":
			cfg.Model = "claude-sonnet-4-20250514"
		default:
			cfg.Model = "gpt-4o-mini"
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvDuration reads a delay expressed in seconds, e.g. "0.5" for half a
// second.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
