// Package message defines the conversation log shared by the engine and the
// terminal frontend, and the projections derived from it.
package message

import (
	"maps"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	// RoleGUI entries are shown to the user and never sent to the model.
	RoleGUI Role = "gui"
)

type PartType string

const (
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
	PartInfo       PartType = "info"
)

// Info kinds used by gui entries.
const (
	InfoFinishReason = "finishReason"
	InfoUsage        = "usage"
	InfoMaxStep      = "maxStep"
	InfoTask         = "task"
	InfoError        = "error"
	InfoNotice       = "notice"
)

// Part is one typed element of a structured message. Which fields are set
// depends on Type:
//
//	tool-call:   ToolCallID, ToolName, Args
//	tool-result: ToolCallID, ToolName, Result, Title, Text
//	info:        Kind, Text
type Part struct {
	Type       PartType       `json:"type"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolName   string         `json:"toolName,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Result     any            `json:"result,omitempty"`
	Title      string         `json:"title,omitempty"`
	Text       string         `json:"text,omitempty"`
	Kind       string         `json:"kind,omitempty"`
}

// Message is a single log entry. Plain entries carry Text; structured
// entries carry Parts.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text,omitempty"`
	Parts     []Part    `json:"parts,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

func System(text string) Message {
	return Message{Role: RoleSystem, Text: text, Timestamp: time.Now()}
}

func User(text string) Message {
	return Message{Role: RoleUser, Text: text, Timestamp: time.Now()}
}

func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Text: text, Timestamp: time.Now()}
}

// AssistantToolCalls builds the assistant entry listing the calls of one step.
func AssistantToolCalls(calls []ToolCall) Message {
	parts := make([]Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, Part{
			Type:       PartToolCall,
			ToolCallID: c.ID,
			ToolName:   c.Name,
			Args:       c.Args,
		})
	}
	return Message{Role: RoleAssistant, Parts: parts, Timestamp: time.Now()}
}

// ToolResult builds a tool-result part for call.
func ToolResult(call ToolCall, result any, title, text string) Part {
	return Part{
		Type:       PartToolResult,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Result:     result,
		Title:      title,
		Text:       text,
	}
}

func ToolResults(parts ...Part) Message {
	return Message{Role: RoleTool, Parts: parts, Timestamp: time.Now()}
}

// Info builds a gui-only annotation.
func Info(kind, text string) Message {
	return Message{
		Role:      RoleGUI,
		Parts:     []Part{{Type: PartInfo, Kind: kind, Text: text}},
		Timestamp: time.Now(),
	}
}

// ToolCalls returns the tool-call parts of m in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if p.Type == PartToolCall {
			calls = append(calls, ToolCall{ID: p.ToolCallID, Name: p.ToolName, Args: p.Args})
		}
	}
	return calls
}

// HasToolCalls reports whether m is an assistant tool-call entry.
func (m Message) HasToolCalls() bool {
	for _, p := range m.Parts {
		if p.Type == PartToolCall {
			return true
		}
	}
	return false
}

// InfoKind returns the kind of the first info part, or "".
func (m Message) InfoKind() string {
	for _, p := range m.Parts {
		if p.Type == PartInfo {
			return p.Kind
		}
	}
	return ""
}

// clone copies the part slice and argument maps so later edits to the
// caller's values cannot reach entries already in a log.
func (m Message) clone() Message {
	if m.Parts == nil {
		return m
	}
	parts := make([]Part, len(m.Parts))
	copy(parts, m.Parts)
	for i := range parts {
		if parts[i].Args != nil {
			parts[i].Args = maps.Clone(parts[i].Args)
		}
	}
	m.Parts = parts
	return m
}
