package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"chatcli/config"
	"chatcli/mcp"
	"chatcli/message"
	"chatcli/ollama"
)

// OllamaProvider wraps the ollama.Client to implement the Provider interface.
//
// This provider handles all type conversions between chat-cli's
// provider-agnostic types and Ollama's API types. Ollama does not assign ids
// to tool calls, so each returned call gets a fresh uuid.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL (e.g., "http://localhost:11434").
//     If empty, defaults to "http://localhost:11434".
//   - model: The model name to use (e.g., "llama3.1:latest").
//     If empty, defaults to "llama3.1:latest".
//
// Returns an error if the baseURL is invalid.
//
// Example:
//
//	provider, err := NewOllamaProvider("http://localhost:11434", "qwen3-coder")
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{
		client: client,
	}, nil
}

// ChatWithTools implements Provider.ChatWithTools with type conversions.
//
// This method handles all necessary type conversions:
//   - Converts message.Message to api.Message
//   - Converts mcptypes.Tool to api.Tool
//   - Converts api.ToolCall back to message.ToolCall with a synthesized id
//
// Temperature and MaxTokens map to the "temperature" and "num_predict"
// model options.
func (p *OllamaProvider) ChatWithTools(ctx context.Context, req Request, callback StreamCallback) (*Response, error) {
	if len(req.Tools) > 0 && !p.client.SupportsToolCalling() && config.DebugLog != nil {
		config.DebugLog.Printf("[Ollama] Model '%s' is not known to support tool calling; sending %d tools anyway", p.client.GetModel(), len(req.Tools))
	}

	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	result, err := p.client.ChatWithTools(ctx,
		ConvertToOllamaMessages(req.Messages),
		mcp.ConvertMCPToolsToOllama(req.Tools),
		options,
		callback,
	)
	if err != nil {
		return nil, wrapError("Ollama", err)
	}

	resp := &Response{
		Text:         result.Content,
		FinishReason: mapOllamaDoneReason(result.DoneReason),
		Usage: Usage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
		},
	}
	for _, call := range result.ToolCalls {
		args := map[string]any(call.Function.Arguments)
		if args == nil {
			args = map[string]any{}
		}
		resp.ToolCalls = append(resp.ToolCalls, message.ToolCall{
			ID:   "call_" + uuid.NewString(),
			Name: call.Function.Name,
			Args: args,
		})
	}

	return resp.finalize(), nil
}

// ListModels implements Provider.ListModels.
//
// Returns all models installed on the Ollama server.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ModelInfo, len(models))
	for i, m := range models {
		result[i] = ModelInfo{
			Name:         m.Name,
			InternalName: m.Name, // Ollama uses the same name for display and API
			Size:         m.Size,
			Provider:     string(ProviderTypeOllama),
		}
	}
	return result, nil
}

// GetModel implements Provider.GetModel (direct passthrough).
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// GetDisplayName implements Provider.GetDisplayName.
//
// For Ollama, the display name is the same as the model name (no vendor prefix).
func (p *OllamaProvider) GetDisplayName() string {
	return p.client.GetModel()
}

// SetModel implements Provider.SetModel (direct passthrough).
func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

// Ping implements Provider.Ping (direct passthrough).
//
// Checks if the Ollama server is reachable by listing models with a
// five second timeout.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func mapOllamaDoneReason(reason string) FinishReason {
	switch reason {
	case "":
		return ""
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	default:
		return FinishOther
	}
}
