package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

type TodoItem struct {
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Status   TodoStatus `json:"status"`
	Priority string     `json:"priority"`
}

// TodoList is the process-wide todo list. Every write replaces it wholesale.
type TodoList struct {
	mu    sync.Mutex
	items []TodoItem
}

func NewTodoList() *TodoList {
	return &TodoList{}
}

// Replace swaps in items and returns a copy of the new list.
func (l *TodoList) Replace(items []TodoItem) []TodoItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]TodoItem(nil), items...)
	return append([]TodoItem(nil), l.items...)
}

func (l *TodoList) Items() []TodoItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]TodoItem(nil), l.items...)
}

type TodoResult struct {
	NewTodos []TodoItem `json:"newTodos"`
}

const todoDescription = `Create and manage a structured task list for the current session.
Use it for multi-step work (three or more steps) to track progress:
- Mark a task in_progress before starting it; keep only one in_progress at a time.
- Mark tasks completed as soon as they are done.
- Always send the complete list; it replaces the previous one.`

// NewTodoTool returns the WriteTodo tool backed by list.
func NewTodoTool(list *TodoList) *Tool {
	def := mcp.NewTool("WriteTodo",
		mcp.WithDescription(todoDescription),
		mcp.WithArray("todos",
			mcp.Required(),
			mcp.Description("The updated todo list"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content":  map[string]any{"type": "string", "minLength": 1},
					"status":   map[string]any{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
					"priority": map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
					"id":       map[string]any{"type": "string"},
				},
				"required": []string{"content", "status", "priority", "id"},
			}),
		),
	)

	exec := func(_ context.Context, args map[string]any, _ Context) (any, error) {
		items, err := parseTodos(args["todos"])
		if err != nil {
			return nil, err
		}
		return TodoResult{NewTodos: list.Replace(items)}, nil
	}
	return New(def, exec).WithDescriber(describeTodos)
}

func parseTodos(v any) ([]TodoItem, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("todos must be an array")
	}

	items := make([]TodoItem, 0, len(raw))
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("todo %d must be an object", i)
		}
		item := TodoItem{
			ID:       stringArg(m, "id"),
			Content:  strings.TrimSpace(stringArg(m, "content")),
			Status:   TodoStatus(stringArg(m, "status")),
			Priority: stringArg(m, "priority"),
		}
		if item.Content == "" {
			return nil, fmt.Errorf("todo %d has empty content", i)
		}
		switch item.Status {
		case TodoPending, TodoInProgress, TodoCompleted:
		case "":
			item.Status = TodoPending
		default:
			return nil, fmt.Errorf("todo %d has invalid status %q", i, item.Status)
		}
		switch item.Priority {
		case "high", "medium", "low":
		default:
			item.Priority = "medium"
		}
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		items = append(items, item)
	}
	return items, nil
}

// RenderTodos formats items as a checklist: pending "[ ]", in progress
// "[-]" in bold, completed "[x]" struck through.
func RenderTodos(items []TodoItem) string {
	var b strings.Builder
	for _, t := range items {
		switch t.Status {
		case TodoCompleted:
			fmt.Fprintf(&b, "- [x]: ~~%s~~\n", t.Content)
		case TodoInProgress:
			fmt.Fprintf(&b, "- [-]: **%s**\n", t.Content)
		default:
			fmt.Fprintf(&b, "- [ ]: %s\n", t.Content)
		}
	}
	return b.String()
}

// TodoSummary is "<completed>/<total> completed", or "<total> todos" when
// nothing is done yet.
func TodoSummary(items []TodoItem) string {
	done := 0
	for _, t := range items {
		if t.Status == TodoCompleted {
			done++
		}
	}
	if done > 0 {
		return fmt.Sprintf("%d/%d completed", done, len(items))
	}
	return fmt.Sprintf("%d todos", len(items))
}

func describeTodos(_ map[string]any, result any) Description {
	r, ok := result.(TodoResult)
	if !ok {
		return defaultDescription("WriteTodo", result)
	}
	return Description{Title: TodoSummary(r.NewTodos), Text: RenderTodos(r.NewTodos)}
}
