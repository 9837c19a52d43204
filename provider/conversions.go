package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"chatcli/config"
	"chatcli/message"
	"chatcli/tools"
)

// ResultText serializes a tool result for the model. Strings pass through
// unchanged; everything else is encoded as JSON.
func ResultText(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprint(result)
	}
	return string(data)
}

// ParseToolArguments parses the JSON arguments of a tool call into a map.
//
// Models occasionally emit slightly broken JSON (trailing commas, single
// quotes, unterminated strings). Arguments that fail to decode are passed
// through json-repair once before giving up; a call whose arguments still
// cannot be decoded yields a *tools.ArgumentError.
//
// Example:
//
//	args, err := ParseToolArguments("Glob", `{"pattern": "*.md",}`)
//	// args == map[string]any{"pattern": "*.md"}
func ParseToolArguments(toolName, argsJSON string) (map[string]any, error) {
	if strings.TrimSpace(argsJSON) == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	err := json.Unmarshal([]byte(argsJSON), &args)
	if err == nil {
		if args == nil {
			args = map[string]any{}
		}
		return args, nil
	}

	repaired, repairErr := jsonrepair.RepairJSON(argsJSON)
	if repairErr == nil {
		args = nil
		if json.Unmarshal([]byte(repaired), &args) == nil && args != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Provider] Repaired malformed arguments for %s", toolName)
			}
			return args, nil
		}
	}

	return nil, &tools.ArgumentError{
		Tool:   toolName,
		Reason: fmt.Sprintf("invalid JSON arguments: %v", err),
	}
}

// ConvertToOpenAIMessages converts chat-cli messages to the OpenAI chat format.
//
// Assistant tool-call entries become assistant messages with tool_calls, and
// every tool-result part becomes its own tool message keyed by call id. gui
// entries should already have been removed with message.ForModel.
func ConvertToOpenAIMessages(messages []message.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text))
		case message.RoleUser:
			result = append(result, openai.UserMessage(msg.Text))
		case message.RoleAssistant:
			calls := msg.ToolCalls()
			if len(calls) == 0 {
				result = append(result, openai.AssistantMessage(msg.Text))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Text != "" {
				assistant.Content.OfString = openai.String(msg.Text)
			}
			for _, call := range calls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: argumentsJSON(call.Args),
						},
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case message.RoleTool:
			for _, part := range msg.Parts {
				if part.Type != message.PartToolResult {
					continue
				}
				result = append(result, openai.ToolMessage(ResultText(part.Result), part.ToolCallID))
			}
		}
	}

	return result
}

// ConvertToOllamaMessages converts chat-cli messages to Ollama api.Message.
//
// Ollama has no tool-call ids on the wire; tool results are sent back in
// call order as "tool" role messages.
func ConvertToOllamaMessages(messages []message.Message) []api.Message {
	result := make([]api.Message, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem, message.RoleUser:
			result = append(result, api.Message{Role: string(msg.Role), Content: msg.Text})
		case message.RoleAssistant:
			result = append(result, api.Message{
				Role:      string(message.RoleAssistant),
				Content:   msg.Text,
				ToolCalls: ConvertFromProviderToolCalls(msg.ToolCalls()),
			})
		case message.RoleTool:
			for _, part := range msg.Parts {
				if part.Type != message.PartToolResult {
					continue
				}
				result = append(result, api.Message{Role: "tool", Content: ResultText(part.Result)})
			}
		}
	}

	return result
}

// ConvertFromProviderToolCalls converts message.ToolCall to Ollama api.ToolCall.
//
// Returns nil if the input is nil or empty.
func ConvertFromProviderToolCalls(calls []message.ToolCall) []api.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(calls))
	for i, call := range calls {
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      call.Name,
				Arguments: call.Args,
			},
		}
	}
	return result
}

func argumentsJSON(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
