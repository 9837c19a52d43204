package testutil

import (
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatcli/message"
)

// TestMessages returns a sample conversation for testing
func TestMessages() []message.Message {
	return []message.Message{
		{
			Role:      message.RoleUser,
			Text:      "Hello, how are you?",
			Timestamp: time.Now(),
		},
		{
			Role:      message.RoleAssistant,
			Text:      "I'm doing well, thank you!",
			Timestamp: time.Now(),
		},
		{
			Role:      message.RoleUser,
			Text:      "Can you help me with a task?",
			Timestamp: time.Now(),
		},
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []message.Message {
	return []message.Message{message.User(content)}
}

// ToolRoundTrip returns a conversation in which the assistant called Glob
// and received one result.
func ToolRoundTrip() []message.Message {
	call := message.ToolCall{ID: "call_1", Name: "Glob", Args: map[string]any{"pattern": "*.md"}}
	return []message.Message{
		message.System("You are a test assistant."),
		message.User("list files matching *.md"),
		message.AssistantToolCalls([]message.ToolCall{call}),
		message.ToolResults(message.ToolResult(call, map[string]any{"files": []string{"README.md"}}, "*.md", "- README.md")),
		message.Assistant("Found README.md"),
	}
}

// TestMCPTools returns sample MCP tools for testing
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city and state, e.g. San Francisco, CA",
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "calculate",
			Description: "Perform a mathematical calculation",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "The mathematical expression to evaluate",
					},
				},
				Required: []string{"expression"},
			},
		},
	}
}

// SystemMessage returns a system message for testing
func SystemMessage(content string) message.Message {
	return message.System(content)
}
