// Package config loads agent configuration from the environment, with .env
// file support. Environment variables take precedence over .env values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms/openai"

	"agentic"
)

// Config is the runtime configuration for an agent process.
type Config struct {
	// Model is the OpenRouter model identifier, e.g. "openai/gpt-4o".
	Model string

	// APIKey authenticates against the provider.
	APIKey string

	// BaseURL is the OpenAI-compatible endpoint.
	BaseURL string

	// Temperature is the sampling temperature, 0.0 to 2.0.
	Temperature float64

	// MaxTokens caps each completion.
	MaxTokens int

	// MaxTurns caps the agent loop.
	MaxTurns int
}

// Load reads configuration from the environment, first merging in a .env
// file when one exists at the given path ("" means "./.env"). Missing or
// out-of-range values return an error naming the offending variable.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// Absence of a .env file is fine; the environment may carry everything.
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Model:       os.Getenv("OPENROUTER_MODEL"),
		APIKey:      os.Getenv("OPENROUTER_API_KEY"),
		BaseURL:     envOr("OPENROUTER_BASE_URL", agentic.DefaultBaseURL),
		Temperature: 0.0,
		MaxTokens:   1000,
		MaxTurns:    10,
	}

	var err error
	if cfg.Temperature, err = envFloat("OPENROUTER_TEMPERATURE", cfg.Temperature); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = envInt("OPENROUTER_MAX_TOKENS", cfg.MaxTokens); err != nil {
		return nil, err
	}
	if cfg.MaxTurns, err = envInt("MAX_TURNS", cfg.MaxTurns); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Model == "" {
		return fmt.Errorf("OPENROUTER_MODEL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("OPENROUTER_TEMPERATURE must be between 0.0 and 2.0, got %v", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("OPENROUTER_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("MAX_TURNS must be positive, got %d", c.MaxTurns)
	}
	return nil
}

// NewLLM constructs the provider client described by the configuration.
func (c *Config) NewLLM() (*agentic.LLM, error) {
	client, err := openai.New(
		openai.WithBaseURL(c.BaseURL),
		openai.WithToken(c.APIKey),
		openai.WithModel(c.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating provider client: %w", err)
	}
	return agentic.NewLLM(client, c.Model).
		WithTemperature(c.Temperature).
		WithMaxTokens(c.MaxTokens), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
