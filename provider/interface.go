// Package provider defines the abstract interface for LLM providers.
//
// chat-cli talks to several model backends (OpenRouter, OpenAI, Anthropic,
// Ollama) through a common Provider interface. The engine only ever sees
// provider-agnostic types from the message package; every provider converts
// them to its SDK's wire types and back.
//
// # Streaming Contract
//
// ChatWithTools issues exactly one streaming model call. Text deltas are
// delivered through the StreamCallback as they arrive. When the stream ends
// the provider returns a Response holding the full text, every tool call the
// model requested (with its call id), the normalized finish reason and token
// usage. If the stream fails the provider returns an error and the partial
// text is discarded by the caller.
//
// # Architecture
//
//   - provider.Provider defines the contract (interface)
//   - provider.OpenRouterProvider / OpenAIProvider use openai-go
//   - provider.AnthropicProvider uses anthropic-sdk-go
//   - provider.OllamaProvider wraps the ollama package client
//   - provider.NewProvider() factory creates providers from config
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:   provider.ProviderTypeOpenRouter,
//	    Model:  "deepseek/deepseek-chat-v3-0324",
//	    APIKey: os.Getenv("OPENROUTER_API_KEY"),
//	})
//	if err != nil {
//	    // handle error
//	}
//	resp, err := p.ChatWithTools(ctx, provider.Request{Messages: msgs}, func(chunk string) {
//	    fmt.Print(chunk)
//	})
package provider

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatcli/message"
)

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama
}

// StreamCallback receives each text delta of a streaming response.
type StreamCallback func(chunk string)

// Provider is the streaming model transport used by the engine.
type Provider interface {
	// ChatWithTools performs one streaming call. The returned Response is
	// only valid when err is nil.
	ChatWithTools(ctx context.Context, req Request, callback StreamCallback) (*Response, error)

	// ListModels returns the models available from this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the full model name used for API calls.
	GetModel() string

	// GetDisplayName returns the model name for UI display.
	GetDisplayName() string

	// SetModel changes the active model for subsequent calls.
	SetModel(model string)

	// Ping checks that the provider is reachable and the credentials work.
	Ping(ctx context.Context) error
}

// Request is one model call. Messages should already be projected with
// message.ForModel.
type Request struct {
	Messages    []message.Message
	Tools       []mcptypes.Tool
	Temperature float64
	MaxTokens   int
}

// Response is the completed result of one streaming call.
type Response struct {
	Text         string
	ToolCalls    []message.ToolCall
	FinishReason FinishReason
	Usage        Usage
}

// Usage reports token counts as returned by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	Name         string // Display name (stripped for OpenRouter)
	Size         int64
	Provider     string // Provider ID: "ollama", "openrouter", "openai", "anthropic"
	InternalName string // Full API name (e.g., "deepseek/deepseek-chat-v3-0324" for OpenRouter)
}

// FinishReason is the model's terminal signal for a step.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content-filter"
	FinishToolCalls     FinishReason = "tool-calls"
	FinishError         FinishReason = "error"
	FinishOther         FinishReason = "other"
)

// finalize normalizes the finish reason: a response carrying tool calls
// always finishes with tool-calls, and an empty reason becomes stop.
func (r *Response) finalize() *Response {
	switch {
	case len(r.ToolCalls) > 0:
		r.FinishReason = FinishToolCalls
	case r.FinishReason == "":
		r.FinishReason = FinishStop
	case r.FinishReason == FinishToolCalls:
		// Claimed tool calls but none parsed.
		r.FinishReason = FinishOther
	}
	if r.Usage.TotalTokens == 0 {
		r.Usage.TotalTokens = r.Usage.PromptTokens + r.Usage.CompletionTokens
	}
	return r
}
