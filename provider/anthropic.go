package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"chatcli/config"
	"chatcli/mcp"
	"chatcli/message"
)

const anthropicDefaultMaxTokens = 4096

// AnthropicProvider implements the Provider interface using Anthropic's official API.
// It uses the official Anthropic Go SDK for direct Claude API access.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
	apiKey  string
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: Initial model to use (default: "claude-sonnet-4-5-20250929")
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, model string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = config.ProviderDefaultBaseURL(config.ProviderAnthropic)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		anthropicModel = anthropic.Model(model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// ChatWithTools implements Provider.ChatWithTools with streaming support.
func (p *AnthropicProvider) ChatWithTools(ctx context.Context, req Request, callback StreamCallback) (*Response, error) {
	messages, system := convertToAnthropicMessages(req.Messages)

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToAnthropicFormat(req.Tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, fmt.Errorf("error accumulating message: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if callback != nil {
					callback(deltaVariant.Text)
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, wrapError("Anthropic", err)
	}

	resp := &Response{
		FinishReason: mapAnthropicStopReason(msg.StopReason),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			args, err := ParseToolArguments(variant.Name, string(variant.Input))
			if err != nil {
				return nil, err
			}
			resp.ToolCalls = append(resp.ToolCalls, message.ToolCall{
				ID:   variant.ID,
				Name: variant.Name,
				Args: args,
			})
		}
	}
	resp.Text = text.String()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Anthropic] Stream finished: stop_reason=%q tool_calls=%d", msg.StopReason, len(resp.ToolCalls))
	}

	return resp.finalize(), nil
}

// ListModels implements Provider.ListModels.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	// Curated list of Claude models known to the SDK version in use.
	models := []anthropic.Model{
		anthropic.ModelClaudeSonnet4_5_20250929,
		anthropic.ModelClaude3_5Haiku20241022,
		anthropic.ModelClaude_3_Opus_20240229,
		anthropic.ModelClaude_3_Haiku_20240307,
	}

	result := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		modelStr := string(m)
		result = append(result, ModelInfo{
			Name:         modelStr,
			InternalName: modelStr,
			Provider:     string(ProviderTypeAnthropic),
		})
	}

	return result, nil
}

// GetModel implements Provider.GetModel.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// GetDisplayName implements Provider.GetDisplayName.
func (p *AnthropicProvider) GetDisplayName() string {
	return string(p.model)
}

// SetModel implements Provider.SetModel.
func (p *AnthropicProvider) SetModel(model string) {
	p.model = anthropic.Model(model)
}

// Ping implements Provider.Ping by attempting to create a minimal request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	// No health endpoint; a one-token request checks key and connectivity.
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", wrapError("Anthropic", err))
	}
	return nil
}

// convertToAnthropicMessages converts chat-cli messages to Anthropic format.
// Returns the message array and the system blocks.
//
// Tool results travel in user messages as tool_result blocks. Consecutive
// messages with the same role are merged since the API requires the roles to
// alternate.
func convertToAnthropicMessages(messages []message.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))

	push := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			if msg.Text != "" {
				systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Text})
			}

		case message.RoleUser:
			if msg.Text != "" {
				push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Text)})
			}

		case message.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Text))
			}
			for _, call := range msg.ToolCalls() {
				args := call.Args
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, args, call.Name))
			}
			push(anthropic.MessageParamRoleAssistant, blocks)

		case message.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, part := range msg.Parts {
				if part.Type != message.PartToolResult {
					continue
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolCallID, ResultText(part.Result), false))
			}
			push(anthropic.MessageParamRoleUser, blocks)
		}
	}

	return out, systemBlocks
}

func mapAnthropicStopReason(reason anthropic.StopReason) FinishReason {
	switch reason {
	case "":
		return ""
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, anthropic.StopReasonPauseTurn:
		return FinishStop
	case anthropic.StopReasonMaxTokens:
		return FinishLength
	case anthropic.StopReasonToolUse:
		return FinishToolCalls
	case anthropic.StopReasonRefusal:
		return FinishContentFilter
	default:
		return FinishOther
	}
}
