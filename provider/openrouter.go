package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"chatcli/config"
)

// OpenRouterProvider implements the Provider interface using OpenAI's official Go SDK.
// It connects to OpenRouter's API which is OpenAI-compatible.
type OpenRouterProvider struct {
	client  openai.Client
	model   string
	baseURL string
	apiKey  string
}

// NewOpenRouterProvider creates a new OpenRouter provider instance.
//
// Parameters:
//   - baseURL: OpenRouter API base URL (default: "https://openrouter.ai/api/v1")
//   - apiKey: OpenRouter API key (may be empty; calls then fail with 401)
//   - model: Initial model to use (can be changed with SetModel)
//
// Requests carry an X-Title header so usage shows up under chat-cli in the
// OpenRouter dashboard.
func NewOpenRouterProvider(baseURL, apiKey, model string) (*OpenRouterProvider, error) {
	if baseURL == "" {
		baseURL = config.ProviderDefaultBaseURL(config.ProviderOpenRouter)
	}
	if apiKey == "" && config.DebugLog != nil {
		config.DebugLog.Printf("[OpenRouter] No API key configured")
	}
	if model == "" {
		model = config.DefaultModel
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHeader("X-Title", "chat-cli"),
	)

	return &OpenRouterProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// ChatWithTools implements Provider.ChatWithTools with streaming support.
func (p *OpenRouterProvider) ChatWithTools(ctx context.Context, req Request, callback StreamCallback) (*Response, error) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[OpenRouter] Model '%s': %d messages, %d tools", p.model, len(req.Messages), len(req.Tools))
	}

	params := buildOpenAIParams(p.model, req)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	return consumeOpenAIStream("OpenRouter", stream, callback)
}

// ListModels implements Provider.ListModels with prefix stripping.
func (p *OpenRouterProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	modelsPage, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenRouter models: %w", wrapError("OpenRouter", err))
	}

	result := make([]ModelInfo, 0, len(modelsPage.Data))
	for _, m := range modelsPage.Data {
		result = append(result, ModelInfo{
			Name:         stripProviderPrefix(m.ID), // Display: "deepseek-chat-v3-0324"
			InternalName: m.ID,                      // API: "deepseek/deepseek-chat-v3-0324"
			Provider:     string(ProviderTypeOpenRouter),
		})
	}

	return result, nil
}

// GetModel implements Provider.GetModel.
// Returns the full model name with vendor prefix for API calls.
// Example: "deepseek/deepseek-chat-v3-0324"
func (p *OpenRouterProvider) GetModel() string {
	return p.model
}

// GetDisplayName implements Provider.GetDisplayName.
// Returns the model name with vendor prefix stripped for UI display.
// Example: "deepseek/deepseek-chat-v3-0324" → "deepseek-chat-v3-0324"
func (p *OpenRouterProvider) GetDisplayName() string {
	return stripProviderPrefix(p.model)
}

// SetModel implements Provider.SetModel.
func (p *OpenRouterProvider) SetModel(model string) {
	p.model = model
}

// Ping implements Provider.Ping by attempting to list models.
func (p *OpenRouterProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("OpenRouter ping failed: %w", wrapError("OpenRouter", err))
	}
	return nil
}

// stripProviderPrefix removes vendor prefixes from OpenRouter model names.
// "meta-llama/llama-3.2-90b-instruct" → "llama-3.2-90b-instruct"
// "anthropic/claude-sonnet-4" → "claude-sonnet-4"
func stripProviderPrefix(modelName string) string {
	if idx := strings.Index(modelName, "/"); idx != -1 {
		return modelName[idx+1:]
	}
	return modelName
}
