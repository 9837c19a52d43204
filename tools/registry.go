package tools

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatcli/config"
)

// ErrUnknownTool is returned for names absent from the registry.
var ErrUnknownTool = errors.New("unknown tool")

// Registry maps tool names to tools, preserving registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds t. A name already present is rejected so built-ins cannot
// be shadowed by external tools.
func (r *Registry) Register(t *Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Tools] registered %s (sensitive=%v)", name, t.Sensitive)
	}
	return nil
}

func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Schema returns the parameter schema of name.
func (r *Registry) Schema(name string) (mcptypes.Tool, error) {
	t, ok := r.Get(name)
	if !ok {
		return mcptypes.Tool{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Definition, nil
}

// Validate checks args against the tool's schema.
func (r *Registry) Validate(name string, args map[string]any) error {
	t, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return validateArgs(t.Definition, args)
}

// Execute validates args and runs the tool. Only registry-level problems
// (unknown tool, invalid arguments) come back as errors; executor errors and
// panics are folded into a Failure result so the model can see them.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, tctx Context) (result any, err error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err := validateArgs(t.Definition, args); err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Tools] %s panicked: %v\n%s", name, p, debug.Stack())
			}
			result, err = failure("tool %s crashed: %v", name, p), nil
		}
	}()

	res, execErr := t.Execute(ctx, args, tctx)
	if execErr != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Tools] %s failed: %v", name, execErr)
		}
		return failure("%v", execErr), nil
	}
	return res, nil
}

// Describe renders a finished call for display.
func (r *Registry) Describe(name string, args map[string]any, result any) Description {
	t, ok := r.Get(name)
	if !ok {
		return defaultDescription(name, result)
	}
	return t.describe(args, result)
}

// IsSensitive reports whether name was registered as a gated tool.
func (r *Registry) IsSensitive(name string) bool {
	t, ok := r.Get(name)
	return ok && t.Sensitive
}

// Names lists tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions lists tool schemas in registration order.
func (r *Registry) Definitions() []mcptypes.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Definition)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Without returns a new registry sharing every tool except the named ones.
func (r *Registry) Without(names ...string) *Registry {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewRegistry()
	for _, name := range r.order {
		if skip[name] {
			continue
		}
		out.tools[name] = r.tools[name]
		out.order = append(out.order, name)
	}
	return out
}
