// Package mcp runs external tool servers over stdio and bridges their tools
// into the tool registry. It also converts tool schemas to each provider's
// wire format.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"chatcli/config"
	"chatcli/tools"
)

// maxParallelStarts bounds how many servers boot at once.
const maxParallelStarts = 4

type callFunc func(ctx context.Context, server, tool string, args map[string]any) (*mcptypes.CallToolResult, error)

// Manager owns the configured MCP servers for one session.
type Manager struct {
	processManager *ProcessManager
	aggregator     *ToolAggregator

	mu         sync.RWMutex
	servers    map[string]config.MCPServerConfig
	discovered map[string][]mcptypes.Tool
	errs       map[string]error

	call callFunc
}

func NewManager() *Manager {
	pm := NewProcessManager()
	m := &Manager{
		processManager: pm,
		aggregator:     NewToolAggregator(pm),
		servers:        make(map[string]config.MCPServerConfig),
		discovered:     make(map[string][]mcptypes.Tool),
		errs:           make(map[string]error),
	}
	m.call = m.aggregator.ExecuteTool
	return m
}

// Start launches every enabled server. A server that fails to start is
// recorded in Status and does not stop the others.
func (m *Manager) Start(ctx context.Context, servers map[string]config.MCPServerConfig) {
	m.mu.Lock()
	for name, cfg := range servers {
		m.servers[name] = cfg
	}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelStarts)

	for name, cfg := range servers {
		if cfg.Disabled {
			continue
		}
		g.Go(func() error {
			err := m.processManager.StartServer(gctx, name, cfg)

			m.mu.Lock()
			defer m.mu.Unlock()
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("[MCP] %v", err)
				}
				m.errs[name] = err
				return nil
			}
			delete(m.errs, name)
			m.discovered[name], _ = m.processManager.GetTools(name)
			return nil
		})
	}

	// Per-server failures are recorded above, so Wait never reports one.
	_ = g.Wait()
}

// Register adds every discovered tool to r as <server>__<tool>. Tools from
// gated servers require approval. Name conflicts are logged and skipped.
func (m *Manager) Register(r *tools.Registry) int {
	m.mu.RLock()
	names := make([]string, 0, len(m.discovered))
	for name := range m.discovered {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	count := 0
	for _, server := range names {
		m.mu.RLock()
		gated := m.servers[server].Gated
		defs := m.discovered[server]
		m.mu.RUnlock()

		for _, def := range defs {
			t := m.bridge(server, def)
			if gated {
				t.Gated()
			}
			if err := r.Register(t); err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("[MCP] skipping %s: %v", t.Name(), err)
				}
				continue
			}
			count++
		}
	}
	return count
}

func (m *Manager) bridge(server string, def mcptypes.Tool) *tools.Tool {
	original := def.Name
	def.Name = ToolName(server, original)
	if def.Description == "" {
		def.Description = fmt.Sprintf("%s tool from the %s server", original, server)
	}

	return tools.New(def, func(ctx context.Context, args map[string]any, _ tools.Context) (any, error) {
		res, err := m.call(ctx, server, original, args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name, err)
		}
		return convertCallResult(res), nil
	}).WithDescriber(func(args map[string]any, result any) tools.Description {
		d := tools.Description{Title: fmt.Sprintf("%s (%s)", original, server)}
		if r, ok := result.(CallResult); ok {
			if r.Success {
				d.Text = r.Content
			} else {
				d.Text = r.Error
			}
		}
		return d
	})
}

// Status reports every configured server, sorted by name.
func (m *Manager) Status() []ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ServerStatus, 0, len(m.servers))
	for name, cfg := range m.servers {
		st := ServerStatus{
			Name:    name,
			Command: cfg.Command,
			Gated:   cfg.Gated,
			Err:     m.errs[name],
		}
		if defs, ok := m.discovered[name]; ok {
			st.Running = true
			for _, d := range defs {
				st.Tools = append(st.Tools, d.Name)
			}
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown stops all running servers.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.discovered = make(map[string][]mcptypes.Tool)
	m.mu.Unlock()

	return m.processManager.Shutdown(ctx)
}
