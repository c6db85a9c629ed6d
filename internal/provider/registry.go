package provider

import (
	"fmt"

	"github.com/blackbird-ai/blackbird/internal/config"
)

// Resolve selects exactly one provider from the configuration, once per
// process. Priority order: the first-party hosted endpoint, then each
// third-party-compatible provider, then the local-network provider.
// cfg.Provider forces a specific entry instead of priority detection.
//
// When nothing is configured Resolve returns a *ConfigurationError; callers
// on read-only paths (browsing the library) never call Resolve.
func Resolve(cfg *config.Config) (Provider, error) {
	model := func(pc *config.ProviderConfig) string {
		if cfg.Model != "" {
			return cfg.Model
		}
		return pc.Model
	}

	build := func(name string) (Provider, bool) {
		pc := cfg.GetProviderConfig(name)
		switch name {
		case "blackbird":
			if pc.Endpoint == "" {
				return nil, false
			}
			return NewBlackbirdProvider(pc.Endpoint, pc.APIKey, pc.Tier, model(pc)), true
		case "openai":
			if pc.APIKey == "" {
				return nil, false
			}
			return NewOpenAIProvider(pc.APIKey, pc.Endpoint, model(pc)), true
		case "anthropic":
			if pc.APIKey == "" {
				return nil, false
			}
			return NewAnthropicProvider(pc.APIKey, model(pc)), true
		case "custom":
			if pc.Endpoint == "" {
				return nil, false
			}
			return NewCustomProvider(pc.Endpoint), true
		case "ollama":
			if !pc.Enabled {
				return nil, false
			}
			return NewOllamaProvider(pc.Endpoint, model(pc)), true
		default:
			return nil, false
		}
	}

	if cfg.Provider != "" {
		if p, ok := build(cfg.Provider); ok {
			return p, nil
		}
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("provider %q is selected but not configured", cfg.Provider),
		}
	}

	for _, name := range []string{"blackbird", "openai", "anthropic", "custom", "ollama"} {
		if p, ok := build(name); ok {
			return p, nil
		}
	}

	return nil, &ConfigurationError{
		Reason: "set BLACKBIRD_ENDPOINT, OPENAI_API_KEY, ANTHROPIC_API_KEY, LLM_ENDPOINT, or LLM_USE_OLLAMA=true",
	}
}
