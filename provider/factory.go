package provider

import (
	"fmt"
)

// NewProvider creates a provider based on configuration.
//
// This is the centralized factory function for creating any provider type.
// It dispatches to the appropriate provider constructor based on the
// Config.Type field.
//
// Supported provider types:
//   - ProviderTypeOpenRouter: OpenRouter (OpenAI-compatible, default)
//   - ProviderTypeOpenAI: OpenAI API
//   - ProviderTypeAnthropic: Anthropic API
//   - ProviderTypeOllama: Local Ollama server
//
// Returns an error if:
//   - The provider type is unknown
//   - The provider-specific constructor fails (e.g., missing API key)
//
// Example (OpenRouter):
//
//	cfg := provider.Config{
//	    Type:   provider.ProviderTypeOpenRouter,
//	    Model:  "deepseek/deepseek-chat-v3-0324",
//	    APIKey: "sk-or-...",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Example (Ollama):
//
//	cfg := provider.Config{
//	    Type:    provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "qwen3-coder",
//	}
//	p, err := provider.NewProvider(cfg)
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Type {
	case ProviderTypeOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model)
	case ProviderTypeOpenRouter:
		return NewOpenRouterProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderTypeOpenAI:
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderTypeAnthropic:
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// MapProviderIDToType converts config provider ID to factory ProviderType.
//
// This handles the mapping between user-facing provider IDs (from config
// and the --provider flag) and internal ProviderType constants used by the
// factory.
//
// Mappings:
//   - "ollama" → ProviderTypeOllama
//   - "openrouter" → ProviderTypeOpenRouter
//   - "openai" → ProviderTypeOpenAI
//   - "anthropic" → ProviderTypeAnthropic
//
// For unknown IDs, returns the ID cast as ProviderType (factory will error).
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "ollama":
		return ProviderTypeOllama
	case "openrouter":
		return ProviderTypeOpenRouter
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	default:
		// Fallback: pass ID as-is (factory will return error)
		return ProviderType(id)
	}
}
