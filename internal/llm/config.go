// Package llm provides the generative model client used for structured extraction.
// The rest of the system treats the model as text in, text out.
package llm

import (
	"os"
	"strings"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap extraction over long, noisy input (scraped websites)
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction that needs some judgement (resumes, job prompts)
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for tasks that need more reasoning
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the only provider wired today.
const ProviderGemini Provider = "gemini"

// DefaultTemperature keeps extraction output close to deterministic.
const DefaultTemperature float32 = 0.1

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// ConfigFromEnv returns DefaultConfig with per-tier overrides from
// LLM_MODEL_LITE, LLM_MODEL_STANDARD and LLM_MODEL_ADVANCED.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		key := "LLM_MODEL_" + strings.ToUpper(string(tier))
		if model := strings.TrimSpace(os.Getenv(key)); model != "" {
			cfg = cfg.WithModel(tier, model)
		}
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
