package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

func todoWriteTool() mcptypes.Tool {
	return mcptypes.NewTool("TodoWrite",
		mcptypes.WithDescription("Replace the todo list"),
		mcptypes.WithString("status",
			mcptypes.Required(),
			mcptypes.Enum("pending", "in_progress", "completed"),
			mcptypes.Description("Item status"),
		),
		mcptypes.WithString("content", mcptypes.Required()),
	)
}

func TestConvertMCPToolsToOllama(t *testing.T) {
	tests := []struct {
		name     string
		input    []mcptypes.Tool
		expected int
		validate func(t *testing.T, result []api.Tool)
	}{
		{
			name:     "empty tools",
			input:    []mcptypes.Tool{},
			expected: 0,
		},
		{
			name: "tool without properties",
			input: []mcptypes.Tool{
				{Name: "TodoRead", Description: "Read the todo list"},
			},
			expected: 1,
			validate: func(t *testing.T, result []api.Tool) {
				if result[0].Type != "function" {
					t.Errorf("expected type 'function', got %q", result[0].Type)
				}
				if result[0].Function.Name != "TodoRead" {
					t.Errorf("expected name 'TodoRead', got %q", result[0].Function.Name)
				}
				if result[0].Function.Parameters.Type != "object" {
					t.Errorf("empty schema type should default to object, got %q", result[0].Function.Parameters.Type)
				}
			},
		},
		{
			name:     "string enum built with mcp.Enum",
			input:    []mcptypes.Tool{todoWriteTool()},
			expected: 1,
			validate: func(t *testing.T, result []api.Tool) {
				params := result[0].Function.Parameters
				if len(params.Required) != 2 {
					t.Errorf("expected 2 required fields, got %d", len(params.Required))
				}
				status, ok := params.Properties["status"]
				if !ok {
					t.Fatal("status property not found")
				}
				if len(status.Enum) != 3 || status.Enum[1] != "in_progress" {
					t.Errorf("enum not carried over: %v", status.Enum)
				}
				if status.Description != "Item status" {
					t.Errorf("description mismatch: %q", status.Description)
				}
			},
		},
		{
			name: "multiple tools keep order",
			input: []mcptypes.Tool{
				{Name: "Read", InputSchema: mcptypes.ToolInputSchema{Type: "object"}},
				{Name: "Write", InputSchema: mcptypes.ToolInputSchema{Type: "object"}},
			},
			expected: 2,
			validate: func(t *testing.T, result []api.Tool) {
				if result[0].Function.Name != "Read" || result[1].Function.Name != "Write" {
					t.Errorf("order mismatch: %s, %s", result[0].Function.Name, result[1].Function.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertMCPToolsToOllama(tt.input)
			if len(result) != tt.expected {
				t.Fatalf("expected %d tools, got %d", tt.expected, len(result))
			}
			if tt.validate != nil {
				tt.validate(t, result)
			}
		})
	}
}

func TestConvertPropertyValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		validate func(t *testing.T, result api.ToolProperty)
	}{
		{
			name: "string type",
			input: map[string]any{
				"type":        "string",
				"description": "Absolute file path",
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 1 || result.Type[0] != "string" {
					t.Errorf("expected type [string], got %v", result.Type)
				}
				if result.Description != "Absolute file path" {
					t.Errorf("description mismatch")
				}
			},
		},
		{
			name: "union type",
			input: map[string]any{
				"type": []any{"string", "number"},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 2 {
					t.Errorf("expected 2 types, got %d", len(result.Type))
				}
			},
		},
		{
			name: "enum as []any",
			input: map[string]any{
				"type": "string",
				"enum": []any{"pending", "completed"},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Enum) != 2 {
					t.Errorf("expected 2 enum values, got %d", len(result.Enum))
				}
			},
		},
		{
			name: "enum as []string",
			input: map[string]any{
				"type": "string",
				"enum": []string{"low", "medium", "high"},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Enum) != 3 || result.Enum[2] != "high" {
					t.Errorf("got enum %v", result.Enum)
				}
			},
		},
		{
			name: "array with items",
			input: map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if result.Items == nil {
					t.Error("expected items to be set")
				}
			},
		},
		{
			name: "anyOf",
			input: map[string]any{
				"anyOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "integer"},
				},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.AnyOf) != 2 {
					t.Errorf("expected 2 anyOf options, got %d", len(result.AnyOf))
				}
			},
		},
		{
			name: "struct schema round-trips through JSON",
			input: struct {
				Type string `json:"type"`
			}{Type: "boolean"},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 1 || result.Type[0] != "boolean" {
					t.Errorf("got type %v", result.Type)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, convertPropertyValue(tt.input))
		})
	}
}

func TestConvertMCPToolsToOpenAIFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    []mcptypes.Tool
		validate func(t *testing.T, result []openai.ChatCompletionToolUnionParam)
	}{
		{
			name:  "nil for no tools",
			input: nil,
			validate: func(t *testing.T, result []openai.ChatCompletionToolUnionParam) {
				if result != nil {
					t.Errorf("expected nil, got %d tools", len(result))
				}
			},
		},
		{
			name:  "function definition",
			input: []mcptypes.Tool{todoWriteTool()},
			validate: func(t *testing.T, result []openai.ChatCompletionToolUnionParam) {
				fn := result[0].OfFunction
				if fn == nil {
					t.Fatal("expected a function tool")
				}
				if fn.Function.Name != "TodoWrite" {
					t.Errorf("name: got %q", fn.Function.Name)
				}
				if fn.Function.Parameters["type"] != "object" {
					t.Errorf("type: got %v", fn.Function.Parameters["type"])
				}
				if _, ok := fn.Function.Parameters["required"]; !ok {
					t.Error("required missing")
				}
			},
		},
		{
			name:  "properties never null",
			input: []mcptypes.Tool{{Name: "TodoRead"}},
			validate: func(t *testing.T, result []openai.ChatCompletionToolUnionParam) {
				props, ok := result[0].OfFunction.Function.Parameters["properties"].(map[string]any)
				if !ok || props == nil {
					t.Errorf("properties: got %#v", result[0].OfFunction.Function.Parameters["properties"])
				}
				if _, ok := result[0].OfFunction.Function.Parameters["required"]; ok {
					t.Error("required should be omitted when empty")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, ConvertMCPToolsToOpenAIFormat(tt.input))
		})
	}
}

func TestConvertMCPToolsToAnthropicFormat(t *testing.T) {
	result := ConvertMCPToolsToAnthropicFormat([]mcptypes.Tool{todoWriteTool(), {Name: "TodoRead"}})
	if len(result) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result))
	}

	write := result[0].OfTool
	if write == nil || write.Name != "TodoWrite" {
		t.Fatalf("got %+v", result[0])
	}
	if write.Description.Value != "Replace the todo list" {
		t.Errorf("description: got %+v", write.Description)
	}
	if len(write.InputSchema.Required) != 2 {
		t.Errorf("required: got %v", write.InputSchema.Required)
	}

	read := result[1].OfTool
	if read.InputSchema.Properties == nil {
		t.Error("properties should default to an empty object")
	}
}
