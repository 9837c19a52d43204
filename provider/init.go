package provider

import (
	"fmt"

	"chatcli/config"
)

// FromConfig creates the provider selected by the application configuration.
//
// This function is the single entry point for provider initialization at
// startup. It handles:
//   - Mapping the configured provider ID to a provider type
//   - Resolving the API key (flag, config file, credential store, env var)
//   - Using the Ollama host for the Ollama provider
//
// OpenRouter accepts a missing key here; the first model call then fails
// with 401 and the engine tells the user which variable to set.
//
// Example:
//
//	cfg, _ := config.Load()
//	p, err := provider.FromConfig(cfg)
func FromConfig(cfg *config.Config) (Provider, error) {
	providerType := MapProviderIDToType(cfg.Provider)

	pc := Config{
		Type:    providerType,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}

	if providerType == ProviderTypeOllama {
		if pc.BaseURL == "" {
			pc.BaseURL = cfg.OllamaHost
		}
	} else {
		pc.APIKey = cfg.ResolveAPIKey()
	}

	p, err := NewProvider(pc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", cfg.Provider, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Initialized provider: %s (type: %s, model: %s)", cfg.Provider, providerType, p.GetModel())
	}
	return p, nil
}
