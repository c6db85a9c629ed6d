// Package config loads and manages blackbird configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (BLACKBIRD_ENDPOINT, OPENAI_API_KEY, LLM_ENDPOINT, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/blackbird/config.yaml
//
// Load is the only place environment variables are read; the resulting
// Config value is built once at process start and passed explicitly into
// the provider registry.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed providers_default.yaml
var defaultProvidersYAML []byte

// ProviderDefaults holds the built-in defaults for one provider.
type ProviderDefaults struct {
	Endpoint     string `yaml:"endpoint"`
	Tier         string `yaml:"tier"`
	DefaultModel string `yaml:"default_model"`
}

// loadProviderDefaults parses the embedded defaults.
func loadProviderDefaults() map[string]ProviderDefaults {
	defs := make(map[string]ProviderDefaults)
	_ = yaml.Unmarshal(defaultProvidersYAML, &defs)
	return defs
}

// ProviderConfig holds configuration for a single provider.
type ProviderConfig struct {
	// APIKey authenticates against the provider, where required.
	APIKey string `yaml:"api_key"`

	// Endpoint is the base URL. Required for blackbird and custom;
	// optional override for openai-compatible and ollama.
	Endpoint string `yaml:"endpoint"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Tier selects the hosted service tier (blackbird only).
	Tier string `yaml:"tier"`

	// Enabled opts the provider in even without credentials (ollama only).
	Enabled bool `yaml:"enabled"`
}

// Config is the complete configuration for blackbird.
type Config struct {
	// Provider forces a specific provider instead of priority-order
	// credential detection (e.g. "blackbird", "openai", "ollama").
	Provider string `yaml:"provider"`

	// Model overrides the selected provider's model.
	Model string `yaml:"model"`

	// DataDir is the root for the app library and per-app storage.
	// Empty = ~/.local/share/blackbird.
	DataDir string `yaml:"data_dir"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// DefaultConfig returns the default configuration, seeded with the
// embedded provider defaults.
func DefaultConfig() *Config {
	cfg := &Config{Providers: make(map[string]*ProviderConfig)}
	for name, d := range loadProviderDefaults() {
		cfg.Providers[name] = &ProviderConfig{
			Endpoint: d.Endpoint,
			Tier:     d.Tier,
			Model:    d.DefaultModel,
		}
	}
	// The blackbird endpoint is account-specific and must come from the
	// user; the embedded defaults only carry tier and model.
	if pc := cfg.Providers["blackbird"]; pc != nil {
		pc.Endpoint = ""
	}
	return cfg
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "blackbird", "config.yaml")
		}
	}

	// Read config file (use defaults if not found).
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	applyEnvOverrides(cfg)

	return cfg, nil
}

// GetProviderConfig returns the config for the named provider, or an empty
// config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok && pc != nil {
		return pc
	}
	return &ProviderConfig{}
}

// ResolveDataDir returns the storage root for the library and app data.
func (c *Config) ResolveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "blackbird")
	}
	return filepath.Join("cache", "blackbird")
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	ensure := func(name string) *ProviderConfig {
		if cfg.Providers[name] == nil {
			cfg.Providers[name] = &ProviderConfig{}
		}
		return cfg.Providers[name]
	}

	// Blackbird hosted endpoint (first-party).
	if v := os.Getenv("BLACKBIRD_ENDPOINT"); v != "" {
		ensure("blackbird").Endpoint = v
	}
	if v := os.Getenv("BLACKBIRD_API_KEY"); v != "" {
		ensure("blackbird").APIKey = v
	}
	if v := os.Getenv("BLACKBIRD_TIER"); v != "" {
		ensure("blackbird").Tier = v
	}
	if v := os.Getenv("BLACKBIRD_MODEL"); v != "" {
		ensure("blackbird").Model = v
	}

	// OpenAI-compatible.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		ensure("openai").APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		ensure("openai").Endpoint = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		ensure("openai").Model = v
	}

	// Anthropic.
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		ensure("anthropic").APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
		ensure("anthropic").Model = v
	}

	// Custom buffered endpoint.
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		ensure("custom").Endpoint = v
	}

	// Local ollama (opt-in).
	if v := os.Getenv("LLM_USE_OLLAMA"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			ensure("ollama").Enabled = true
		}
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		ensure("ollama").Model = v
	}

	// Global overrides.
	if v := os.Getenv("BLACKBIRD_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("BLACKBIRD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
}
