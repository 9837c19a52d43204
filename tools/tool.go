// Package tools holds the tool registry the engine dispatches model tool
// calls through, and the built-in tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatcli/config"
	"chatcli/message"
)

// Context is what a running tool can see of its caller.
type Context struct {
	Config  *config.Config
	WorkDir string
	// Emit appends an entry to the caller's log ahead of the tool result.
	Emit func(message.Message)
}

func (c Context) emit(m message.Message) {
	if c.Emit != nil {
		c.Emit(m)
	}
}

// Description is the human-facing rendering of one tool execution.
type Description struct {
	Title string
	Text  string
}

type ExecuteFunc func(ctx context.Context, args map[string]any, tctx Context) (any, error)

type DescribeFunc func(args map[string]any, result any) Description

// Tool bundles a tool's schema, executor and describer.
type Tool struct {
	Definition mcptypes.Tool
	Execute    ExecuteFunc
	Describe   DescribeFunc
	// Sensitive tools always require approval unless auto-accept is on.
	Sensitive bool
}

// New starts a tool from its schema and executor. The describer defaults to
// the tool name and a JSON dump of the result.
func New(def mcptypes.Tool, exec ExecuteFunc) *Tool {
	return &Tool{Definition: def, Execute: exec}
}

func (t *Tool) WithDescriber(fn DescribeFunc) *Tool {
	t.Describe = fn
	return t
}

// Gated marks the tool as requiring approval.
func (t *Tool) Gated() *Tool {
	t.Sensitive = true
	return t
}

func (t *Tool) Name() string {
	return t.Definition.Name
}

func (t *Tool) describe(args map[string]any, result any) Description {
	if t.Describe != nil {
		return t.Describe(args, result)
	}
	return defaultDescription(t.Name(), result)
}

func defaultDescription(name string, result any) Description {
	text := ""
	switch r := result.(type) {
	case nil:
	case string:
		text = r
	default:
		if data, err := json.Marshal(r); err == nil {
			text = string(data)
		} else {
			text = fmt.Sprintf("%v", r)
		}
	}
	return Description{Title: name, Text: truncateLines(text, 5)}
}

// Failure is the payload returned to the model when an executor reports an
// error instead of a structured result.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func failure(format string, args ...any) Failure {
	return Failure{Success: false, Error: fmt.Sprintf(format, args...)}
}
