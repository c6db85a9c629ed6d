package provider

import (
	"errors"
	"testing"

	"github.com/blackbird-ai/blackbird/internal/config"
)

func cfgWith(providers map[string]*config.ProviderConfig) *config.Config {
	return &config.Config{Providers: providers}
}

func TestResolve_PriorityOrder(t *testing.T) {
	tests := []struct {
		name      string
		providers map[string]*config.ProviderConfig
		want      string
	}{
		{
			name: "blackbird wins over everything",
			providers: map[string]*config.ProviderConfig{
				"blackbird": {Endpoint: "https://api.example.com/chat"},
				"openai":    {APIKey: "sk-test"},
				"anthropic": {APIKey: "sk-ant"},
				"custom":    {Endpoint: "https://llm.internal/v1"},
				"ollama":    {Enabled: true},
			},
			want: "blackbird",
		},
		{
			name: "openai before anthropic",
			providers: map[string]*config.ProviderConfig{
				"openai":    {APIKey: "sk-test"},
				"anthropic": {APIKey: "sk-ant"},
				"ollama":    {Enabled: true},
			},
			want: "openai",
		},
		{
			name: "anthropic before custom",
			providers: map[string]*config.ProviderConfig{
				"anthropic": {APIKey: "sk-ant"},
				"custom":    {Endpoint: "https://llm.internal/v1"},
			},
			want: "anthropic",
		},
		{
			name: "custom before ollama",
			providers: map[string]*config.ProviderConfig{
				"custom": {Endpoint: "https://llm.internal/v1"},
				"ollama": {Enabled: true},
			},
			want: "custom",
		},
		{
			name: "ollama last",
			providers: map[string]*config.ProviderConfig{
				"ollama": {Enabled: true},
			},
			want: "ollama",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Resolve(cfgWith(tt.providers))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Resolve() = %q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestResolve_IncompleteEntriesSkipped(t *testing.T) {
	// An entry with a model but no credentials does not qualify.
	cfg := cfgWith(map[string]*config.ProviderConfig{
		"blackbird": {Tier: "ultra", Model: "gpt-oss-120b"}, // no endpoint
		"openai":    {Model: "gpt-4o"},                      // no api key
		"ollama":    {Enabled: true},
	})
	p, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Resolve() = %q, want %q", p.Name(), "ollama")
	}
}

func TestResolve_NothingConfigured(t *testing.T) {
	_, err := Resolve(cfgWith(nil))
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Resolve() error = %v, want *ConfigurationError", err)
	}
}

func TestResolve_ForcedProvider(t *testing.T) {
	cfg := cfgWith(map[string]*config.ProviderConfig{
		"blackbird": {Endpoint: "https://api.example.com/chat"},
		"ollama":    {Enabled: true},
	})
	cfg.Provider = "ollama"

	p, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Resolve() = %q, want %q", p.Name(), "ollama")
	}
}

func TestResolve_ForcedProviderNotConfigured(t *testing.T) {
	cfg := cfgWith(map[string]*config.ProviderConfig{
		"ollama": {Enabled: true},
	})
	cfg.Provider = "openai" // forced, but no key

	_, err := Resolve(cfg)
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Resolve() error = %v, want *ConfigurationError", err)
	}
}

func TestResolve_OllamaDisabledByDefault(t *testing.T) {
	// Endpoint and model alone do not opt the local provider in.
	cfg := cfgWith(map[string]*config.ProviderConfig{
		"ollama": {Endpoint: "http://127.0.0.1:11434/api/chat", Model: "gpt-oss:20b"},
	})
	_, err := Resolve(cfg)
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Resolve() error = %v, want *ConfigurationError", err)
	}
}
