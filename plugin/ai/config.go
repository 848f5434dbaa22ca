package ai

import (
	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/internal/profile"
)

// LLMConfig is the generation backend configuration.
type LLMConfig struct {
	Provider    string // openai, deepseek, ollama
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	// SystemPrompt is prepended to every conversation.
	SystemPrompt string
}

const defaultSystemPrompt = "You are a helpful assistant. Answer in the language the user writes in."

// NewConfigFromProfile builds the LLM configuration from the server profile.
func NewConfigFromProfile(p *profile.Profile) *LLMConfig {
	cfg := &LLMConfig{
		Provider:     p.AIProvider,
		APIKey:       p.AIAPIKey,
		BaseURL:      p.AIBaseURL,
		Model:        p.AIModel,
		MaxTokens:    p.AIMaxTokens,
		Temperature:  p.AITemperature,
		SystemPrompt: p.AISystemPrompt,
	}

	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	switch cfg.Provider {
	case "deepseek":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.deepseek.com"
		}
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434/v1"
		}
	}

	return cfg
}

// Validate checks that the configuration can drive a provider.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "deepseek":
		if c.APIKey == "" {
			return errors.Errorf("api key is required for provider %s", c.Provider)
		}
	case "ollama":
		if c.BaseURL == "" {
			return errors.New("base url is required for provider ollama")
		}
	default:
		return errors.Errorf("unsupported LLM provider: %s", c.Provider)
	}
	return nil
}
