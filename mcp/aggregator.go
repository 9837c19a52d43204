package mcp

import (
	"context"
	"encoding/json"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// toolSeparator joins server and tool names. Dots and slashes are rejected
// by some providers' function-name rules, double underscore is not.
const toolSeparator = "__"

// ToolName namespaces a server tool for the registry.
func ToolName(server, tool string) string {
	return server + toolSeparator + tool
}

// ParseToolName splits a namespaced name back into server and tool. Names
// without a separator return an empty server.
func ParseToolName(namespacedName string) (string, string) {
	idx := strings.Index(namespacedName, toolSeparator)
	if idx == -1 {
		return "", namespacedName
	}
	return namespacedName[:idx], namespacedName[idx+len(toolSeparator):]
}

type ToolAggregator struct {
	processManager *ProcessManager
}

func NewToolAggregator(pm *ProcessManager) *ToolAggregator {
	return &ToolAggregator{
		processManager: pm,
	}
}

// ExecuteTool calls tool on server.
func (ta *ToolAggregator) ExecuteTool(ctx context.Context, server, tool string, args map[string]any) (*mcptypes.CallToolResult, error) {
	client, err := ta.processManager.GetClient(server)
	if err != nil {
		return nil, err
	}

	return client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      tool,
			Arguments: args,
		},
	})
}

// convertCallResult flattens an MCP result into the payload the model sees.
func convertCallResult(res *mcptypes.CallToolResult) CallResult {
	if res == nil {
		return CallResult{Success: true}
	}

	var parts []string
	for _, c := range res.Content {
		if text, ok := mcptypes.AsTextContent(c); ok {
			parts = append(parts, text.Text)
		}
	}
	content := strings.Join(parts, "\n")

	if content == "" && res.StructuredContent != nil {
		if data, err := json.Marshal(res.StructuredContent); err == nil {
			content = string(data)
		}
	}

	if res.IsError {
		return CallResult{Success: false, Error: content}
	}
	return CallResult{Success: true, Content: content}
}
