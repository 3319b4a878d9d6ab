package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// apiKeyEnv names the variable holding each provider's key.
var apiKeyEnv = map[string]string{
	ProviderAnthropic:  "ADAPTEST_ANTHROPIC_API_KEY",
	ProviderOpenAI:     "ADAPTEST_OPENAI_API_KEY",
	ProviderGemini:     "ADAPTEST_GEMINI_API_KEY",
	ProviderOpenRouter: "ADAPTEST_OPENROUTER_API_KEY",
}

// ConfigFromEnv builds a Config from ADAPTEST_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	vars := []struct {
		key string
		dst *string
	}{
		{"ADAPTEST_LLM_PROVIDER", &cfg.Provider},
		{apiKeyEnv[ProviderAnthropic], &cfg.Anthropic.APIKey},
		{"ADAPTEST_ANTHROPIC_MODEL", &cfg.Anthropic.Model},
		{apiKeyEnv[ProviderOpenAI], &cfg.OpenAI.APIKey},
		{"ADAPTEST_OPENAI_MODEL", &cfg.OpenAI.Model},
		{"ADAPTEST_OPENAI_BASE_URL", &cfg.OpenAI.BaseURL},
		{apiKeyEnv[ProviderGemini], &cfg.Gemini.APIKey},
		{"ADAPTEST_GEMINI_MODEL", &cfg.Gemini.Model},
		{apiKeyEnv[ProviderOpenRouter], &cfg.OpenRouter.APIKey},
		{"ADAPTEST_OPENROUTER_MODEL", &cfg.OpenRouter.Model},
	}
	for _, v := range vars {
		if s := os.Getenv(v.key); s != "" {
			*v.dst = s
		}
	}
	if d, err := time.ParseDuration(os.Getenv("ADAPTEST_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// DiscoverConfig probes the vendors' standard API key variables in priority
// order (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for the
// first one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	probes := []struct {
		env      string
		provider string
		dst      *string
	}{
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini.APIKey},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI.APIKey},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic.APIKey},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter.APIKey},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			*p.dst = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", apiKeyEnv[c.Provider], c.Provider)
	}
	return nil
}
