// Package commands implements slash commands typed at the prompt.
//
// Built-in commands act on the running session. External commands are
// markdown files whose body becomes a user message, with $ARGUMENTS replaced
// by whatever followed the command name.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"chatcli/config"
	"chatcli/mcp"
	"chatcli/message"
	"chatcli/provider"
	"chatcli/tools"
)

// Session is the part of the engine that built-ins act on.
type Session interface {
	Reset(system string) error
	ToggleAutoAccept() bool
	Registry() *tools.Registry
}

// ServerLister reports MCP server status for /mcp.
type ServerLister interface {
	Status() []mcp.ServerStatus
}

// Env is what a command runs against. Only Session is required; the
// commands that need a missing field report it instead of failing.
type Env struct {
	Session  Session
	Provider provider.Provider
	Config   *config.Config
	MCP      ServerLister
	// SystemPrompt builds the system entry /clear resets the log to.
	SystemPrompt func() string
}

// Result is what the caller does after a command ran. Exactly one of
// Output and Submit is normally set.
type Result struct {
	// Output is shown to the user as a gui notice.
	Output string
	// Submit is handed to the engine as the next turn.
	Submit *message.Message
}

// Notice wraps Output as a gui entry for the log.
func (r Result) Notice() message.Message {
	return message.Info(message.InfoNotice, r.Output)
}

type Handler func(ctx context.Context, env *Env, args string) (Result, error)

type Source int

const (
	SourceBuiltin Source = iota
	SourceExternal
)

type Command struct {
	Name         string
	Description  string
	ArgumentHint string
	Source       Source
	// Path is the markdown file an external command was loaded from.
	Path string

	handler Handler
}

// Registry holds the built-in and external commands. Built-ins shadow
// external commands of the same name.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]*Command
	external map[string]*Command
}

func NewRegistry() *Registry {
	r := &Registry{
		builtins: make(map[string]*Command),
		external: make(map[string]*Command),
	}
	registerBuiltins(r)
	return r
}

func (r *Registry) addBuiltin(name, description, hint string, h Handler) {
	r.builtins[name] = &Command{
		Name:         name,
		Description:  description,
		ArgumentHint: hint,
		Source:       SourceBuiltin,
		handler:      h,
	}
}

// SetExternal replaces every external command.
func (r *Registry) SetExternal(cmds []*Command) {
	external := make(map[string]*Command, len(cmds))
	for _, c := range cmds {
		if _, ok := external[c.Name]; ok {
			continue
		}
		external[c.Name] = c
	}

	r.mu.Lock()
	r.external = external
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.builtins[name]; ok {
		return c, true
	}
	c, ok := r.external[name]
	return c, ok
}

// All returns every visible command sorted by name.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Command, 0, len(r.builtins)+len(r.external))
	for _, c := range r.builtins {
		out = append(out, c)
	}
	for name, c := range r.external {
		if _, shadowed := r.builtins[name]; shadowed {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsCommand reports whether input should be dispatched as a command.
func IsCommand(input string) bool {
	input = strings.TrimSpace(input)
	return strings.HasPrefix(input, "/") && len(input) > 1
}

// Parse splits "/name rest of line" into the command name (with its slash)
// and the trimmed arguments.
func Parse(input string) (name, args string) {
	input = strings.TrimSpace(input)
	name, args, _ = strings.Cut(input, " ")
	return name, strings.TrimSpace(args)
}

// Run executes the command named at the start of input.
func (r *Registry) Run(ctx context.Context, env *Env, input string) (Result, error) {
	name, args := Parse(input)
	c, ok := r.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("unknown command: %s (type /help for the list)", name)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Commands] running %s (args=%q)", name, args)
	}

	if c.handler == nil {
		return Result{}, fmt.Errorf("command %s has no handler", name)
	}
	return c.handler(ctx, env, args)
}
