package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("MODEL", "")
	t.Setenv("API_RATE_LIMIT_DELAY", "")
	t.Setenv("MAX_TOOL_ROUNDS", "")
	t.Setenv("VERBOSE", "")
	t.Setenv("TRIP_DATA_FILE", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("unexpected default port: %q", cfg.Port)
	}
	if cfg.ModelProvider != "openai" {
		t.Errorf("unexpected default provider: %q", cfg.ModelProvider)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("unexpected default model: %q", cfg.Model)
	}
	if cfg.RateLimitDelay != 500*time.Millisecond {
		t.Errorf("unexpected default rate limit delay: %v", cfg.RateLimitDelay)
	}
	if cfg.MaxToolRounds != 0 {
		t.Errorf("unexpected default round cap: %d", cfg.MaxToolRounds)
	}
	if !cfg.Verbose {
		t.Error("verbose should default to true")
	}
	if cfg.TripDataFile != "data/trip_history.json" {
		t.Errorf("unexpected default trip data file: %q", cfg.TripDataFile)
	}
}

func TestLoadAnthropicDefaultModel(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "anthropic")
	t.Setenv("MODEL", "")

	cfg := Load()
	if cfg.Model != "claude-sonnet-4-20250514" {
		t.Errorf("unexpected default model: %q", cfg.Model)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"0.5", 500 * time.Millisecond},
		{"2", 2 * time.Second},
		{"0", 0},
		{"-1", time.Second},
		{"nonsense", time.Second},
		{"", time.Second},
	}

	for _, tt := range tests {
		t.Setenv("TEST_DELAY", tt.value)
		if got := getEnvDuration("TEST_DELAY", time.Second); got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "7")
	if got := getEnvInt("TEST_INT", 3); got != 7 {
		t.Errorf("getEnvInt = %d, want 7", got)
	}

	t.Setenv("TEST_INT", "not a number")
	if got := getEnvInt("TEST_INT", 3); got != 3 {
		t.Errorf("getEnvInt fallback = %d, want 3", got)
	}
}
