package mathtex

import (
	"fmt"
	"strings"
	"time"
)

// Model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Model request defaults.
const (
	DefaultModel       = "claude-sonnet-4-20250514"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultMaxTokens   = 1000
	MaxMaxTokens       = 64000

	defaultRequestTimeout = 60 * time.Second
)

// LLMConfig selects and configures the model endpoint.
type LLMConfig struct {
	Provider  string        // "anthropic" (default) or "openai"
	Model     string        // empty = provider default
	MaxTokens int           // 0 = DefaultMaxTokens
	APIKey    string        // required for anthropic
	BaseURL   string        // empty = provider default endpoint
	Timeout   time.Duration // per request, 0 = 60s
}

// withDefaults returns a copy with empty fields filled in.
func (c LLMConfig) withDefaults() LLMConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderAnthropic
	}
	if c.Model == "" {
		c.Model = DefaultModel
		if c.Provider == ProviderOpenAI {
			c.Model = DefaultOpenAIModel
		}
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultRequestTimeout
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c LLMConfig) Validate() error {
	c = c.withDefaults()

	switch c.Provider {
	case ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("%w: %s requires an API key", ErrMissingAPIKey, c.Provider)
		}
	case ProviderOpenAI:
		// Self-hosted OpenAI-compatible servers often run without a key.
		if c.APIKey == "" && c.BaseURL == "" {
			return fmt.Errorf("%w: %s requires an API key unless a base URL is set", ErrMissingAPIKey, c.Provider)
		}
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)", ErrUnknownProvider, c.Provider, ProviderAnthropic, ProviderOpenAI)
	}

	if c.MaxTokens < 1 || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidMaxTokens, c.MaxTokens, MaxMaxTokens)
	}
	return nil
}

// NewCompleter builds the Completer for cfg.Provider.
func NewCompleter(cfg LLMConfig) (Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAICompleter(cfg), nil
	default:
		return newAnthropicCompleter(cfg), nil
	}
}
