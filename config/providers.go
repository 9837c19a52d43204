package config

// Known provider identifiers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

// KnownProviders lists provider IDs in display order.
var KnownProviders = []string{ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic, ProviderOllama}

// ProviderDisplayName returns the display name for a provider
func ProviderDisplayName(providerID string) string {
	switch providerID {
	case ProviderOllama:
		return "Ollama"
	case ProviderOpenRouter:
		return "OpenRouter"
	case ProviderAnthropic:
		return "Anthropic"
	case ProviderOpenAI:
		return "OpenAI"
	default:
		return providerID
	}
}

// ProviderDefaultBaseURL returns the default base URL for a provider
func ProviderDefaultBaseURL(providerID string) string {
	switch providerID {
	case ProviderOpenRouter:
		return "https://openrouter.ai/api/v1"
	case ProviderAnthropic:
		return "https://api.anthropic.com"
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderOllama:
		return "http://localhost:11434"
	default:
		return ""
	}
}

// ProviderAPIKeyEnv names the environment variable consulted for a provider's key.
func ProviderAPIKeyEnv(providerID string) string {
	switch providerID {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// IsKnownProvider reports whether id is one of KnownProviders.
func IsKnownProvider(id string) bool {
	for _, p := range KnownProviders {
		if p == id {
			return true
		}
	}
	return false
}
