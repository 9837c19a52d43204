package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"

	"chatcli/config"
	"chatcli/mcp"
	"chatcli/message"
)

// OpenAIProvider implements the Provider interface using OpenAI's official API.
// It uses the official OpenAI Go SDK for direct OpenAI API access.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
	apiKey  string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: Initial model to use (default: "gpt-4o-mini")
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = config.ProviderDefaultBaseURL(config.ProviderOpenAI)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// ChatWithTools implements Provider.ChatWithTools with streaming support.
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, req Request, callback StreamCallback) (*Response, error) {
	params := buildOpenAIParams(p.model, req)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	return consumeOpenAIStream("OpenAI", stream, callback)
}

// ListModels implements Provider.ListModels.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenAI models: %w", wrapError("OpenAI", err))
	}

	result := make([]ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, ModelInfo{
			Name:         m.ID,
			InternalName: m.ID,
			Provider:     string(ProviderTypeOpenAI),
		})
	}
	return result, nil
}

// GetModel implements Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// GetDisplayName implements Provider.GetDisplayName.
func (p *OpenAIProvider) GetDisplayName() string {
	return p.model
}

// SetModel implements Provider.SetModel.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Ping implements Provider.Ping by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", wrapError("OpenAI", err))
	}
	return nil
}

// buildOpenAIParams builds the chat completion request shared by the OpenAI
// and OpenRouter providers.
func buildOpenAIParams(model string, req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(req.Messages),
		Model:    openai.ChatModel(model),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToOpenAIFormat(req.Tools)
	}
	return params
}

// consumeOpenAIStream drains a chat completion stream, forwarding content
// deltas to callback, and assembles the final Response from the accumulator.
func consumeOpenAIStream(name string, stream *ssestream.Stream[openai.ChatCompletionChunk], callback StreamCallback) (*Response, error) {
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	resp := &Response{}
	var finish string

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if chunk.Usage.TotalTokens > 0 {
			resp.Usage = Usage{
				PromptTokens:     int(chunk.Usage.PromptTokens),
				CompletionTokens: int(chunk.Usage.CompletionTokens),
				TotalTokens:      int(chunk.Usage.TotalTokens),
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if fr := chunk.Choices[0].FinishReason; fr != "" {
			finish = fr
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if callback != nil {
				callback(content)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, wrapError(name, err)
	}

	if len(acc.Choices) > 0 {
		msg := acc.Choices[0].Message
		resp.Text = msg.Content
		for _, tc := range msg.ToolCalls {
			if tc.Function.Name == "" {
				continue
			}
			args, err := ParseToolArguments(tc.Function.Name, tc.Function.Arguments)
			if err != nil {
				return nil, err
			}
			id := tc.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			resp.ToolCalls = append(resp.ToolCalls, message.ToolCall{
				ID:   id,
				Name: tc.Function.Name,
				Args: args,
			})
		}
	}
	resp.FinishReason = mapOpenAIFinishReason(finish)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[%s] Stream finished: reason=%q tool_calls=%d tokens=%d", name, finish, len(resp.ToolCalls), resp.Usage.TotalTokens)
	}

	return resp.finalize(), nil
}

func mapOpenAIFinishReason(reason string) FinishReason {
	switch reason {
	case "":
		return ""
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	case "tool_calls", "function_call":
		return FinishToolCalls
	case "content_filter":
		return FinishContentFilter
	case "error":
		return FinishError
	default:
		return FinishOther
	}
}
