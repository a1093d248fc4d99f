// Package config loads service configuration from a JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/trade-hire/internal/llm"
)

// DefaultPort is used when neither the config file nor PORT sets one.
const DefaultPort = 8080

// DefaultMaxUploadMB bounds resume uploads.
const DefaultMaxUploadMB = 10

// Config is the service configuration. Every field is optional in the file;
// missing values fall back to the environment and then to defaults.
type Config struct {
	Port        int               `json:"port,omitempty"`
	APIKey      string            `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string            `json:"database_url,omitempty"` // PostgreSQL connection URL
	UseBrowser  bool              `json:"use_browser,omitempty"`  // headless render for thin websites
	Verbose     bool              `json:"verbose,omitempty"`
	MaxUploadMB int               `json:"max_upload_mb,omitempty"`
	Models      map[string]string `json:"models,omitempty"` // tier -> model name

	// AllowPrivateFetch lets the server fetch websites on loopback and private networks.
	AllowPrivateFetch bool `json:"allow_private_fetch,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads GEMINI_API_KEY, DATABASE_URL, PORT, USE_BROWSER, VERBOSE, ALLOW_PRIVATE_FETCH
// and MAX_UPLOAD_MB.
// Malformed numbers and booleans are ignored.
func FromEnv() Config {
	cfg := Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	if n, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = n
	}
	if n, err := strconv.Atoi(os.Getenv("MAX_UPLOAD_MB")); err == nil {
		cfg.MaxUploadMB = n
	}
	if b, err := strconv.ParseBool(os.Getenv("USE_BROWSER")); err == nil {
		cfg.UseBrowser = b
	}
	if b, err := strconv.ParseBool(os.Getenv("VERBOSE")); err == nil {
		cfg.Verbose = b
	}
	if b, err := strconv.ParseBool(os.Getenv("ALLOW_PRIVATE_FETCH")); err == nil {
		cfg.AllowPrivateFetch = b
	}
	return cfg
}

// Validate checks that the configuration has usable values.
// Required values such as the API key are checked by the command that needs them.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}
	if c.MaxUploadMB < 0 {
		return fmt.Errorf("config error: 'max_upload_mb' must be non-negative")
	}
	for tier, model := range c.Models {
		switch llm.ModelTier(tier) {
		case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
		if strings.TrimSpace(model) == "" {
			return fmt.Errorf("config error: empty model name for tier %q", tier)
		}
	}
	return nil
}

// MergeWithDefaults returns a copy with zero-valued fields filled from defaults.
// Booleans are OR-ed since false cannot be told apart from unset.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.MaxUploadMB == 0 {
		result.MaxUploadMB = defaults.MaxUploadMB
	}
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose
	result.AllowPrivateFetch = result.AllowPrivateFetch || defaults.AllowPrivateFetch

	if len(defaults.Models) > 0 {
		models := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			models[k] = v
		}
		for k, v := range result.Models {
			models[k] = v
		}
		result.Models = models
	}

	if result.Port == 0 {
		result.Port = DefaultPort
	}
	if result.MaxUploadMB == 0 {
		result.MaxUploadMB = DefaultMaxUploadMB
	}
	return result
}

// Load resolves the effective configuration: the file at path (if any) over the environment.
func Load(path string) (Config, error) {
	env := FromEnv()
	file := &Config{}
	if path != "" {
		var err error
		if file, err = LoadConfig(path); err != nil {
			return Config{}, err
		}
	}
	cfg := file.MergeWithDefaults(env)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LLMConfig returns the model configuration: LLM_MODEL_* environment overrides,
// then per-tier models from the config file.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.ConfigFromEnv()
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	return cfg
}

// MaxUploadBytes returns the upload bound in bytes.
func (c *Config) MaxUploadBytes() int64 {
	mb := c.MaxUploadMB
	if mb <= 0 {
		mb = DefaultMaxUploadMB
	}
	return int64(mb) << 20
}
