package mcp

import (
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ServerProcess is one running stdio MCP server.
type ServerProcess struct {
	Name    string
	Command string
	Args    []string
	Process *exec.Cmd
	Client  *client.Client
	Tools   []mcptypes.Tool
	Running bool
}

// ServerStatus is what /mcp and `chat-cli tools` report per configured server.
type ServerStatus struct {
	Name    string
	Command string
	Running bool
	Gated   bool
	Tools   []string
	Err     error
}

// CallResult is the tool result handed back to the model for an MCP call.
type CallResult struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}
