package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"chatcli/config"
)

const closeTimeout = time.Second

type ProcessManager struct {
	processes map[string]*ServerProcess
	mu        sync.RWMutex
}

func NewProcessManager() *ProcessManager {
	return &ProcessManager{
		processes: make(map[string]*ServerProcess),
	}
}

// StartServer launches a stdio MCP server, initializes it and caches its
// tool list.
func (pm *ProcessManager) StartServer(ctx context.Context, name string, cfg config.MCPServerConfig) error {
	pm.mu.RLock()
	if proc := pm.processes[name]; proc != nil && proc.Running {
		pm.mu.RUnlock()
		return fmt.Errorf("server %s already running", name)
	}
	pm.mu.RUnlock()

	if cfg.Command == "" {
		return fmt.Errorf("server %s has no command", name)
	}

	mcpClient, cmd, err := pm.createLocalClient(name, cfg)
	if err != nil {
		return fmt.Errorf("failed to start server %s: %w", name, err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: mcptypes.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "chat-cli",
				Version: "1.0.0",
			},
		},
	}

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		pm.kill(name, mcpClient, cmd)
		return fmt.Errorf("failed to initialize server %s: %w", name, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		pm.kill(name, mcpClient, cmd)
		return fmt.Errorf("failed to list tools for %s: %w", name, err)
	}

	pm.mu.Lock()
	pm.processes[name] = &ServerProcess{
		Name:    name,
		Command: cfg.Command,
		Args:    cfg.Args,
		Process: cmd,
		Client:  mcpClient,
		Tools:   toolsResult.Tools,
		Running: true,
	}
	pm.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Server '%s' started with %d tools", name, len(toolsResult.Tools))
	}
	return nil
}

// StopServer closes the client and kills the process.
func (pm *ProcessManager) StopServer(ctx context.Context, name string) error {
	pm.mu.Lock()
	proc, exists := pm.processes[name]
	if !exists {
		pm.mu.Unlock()
		return fmt.Errorf("server %s not found", name)
	}
	proc.Running = false
	delete(pm.processes, name)
	pm.mu.Unlock()

	pm.kill(name, proc.Client, proc.Process)
	return nil
}

// kill closes the client with a short timeout, then kills the process if it
// is still around.
func (pm *ProcessManager) kill(name string, c *client.Client, cmd *exec.Cmd) {
	if c != nil {
		closeDone := make(chan error, 1)
		go func() {
			closeDone <- c.Close()
		}()

		select {
		case err := <-closeDone:
			if err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Error closing client for '%s': %v", name, err)
			}
		case <-time.After(closeTimeout):
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Close timeout for '%s'", name)
			}
		}
	}

	if cmd != nil && cmd.Process != nil && cmd.ProcessState == nil {
		if err := cmd.Process.Kill(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Error killing process for '%s': %v", name, err)
		}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Server '%s' stopped", name)
	}
}

func (pm *ProcessManager) GetClient(name string) (*client.Client, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	proc, exists := pm.processes[name]
	if !exists || !proc.Running || proc.Client == nil {
		return nil, fmt.Errorf("server %s not running", name)
	}

	return proc.Client, nil
}

func (pm *ProcessManager) GetTools(name string) ([]mcptypes.Tool, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	proc, exists := pm.processes[name]
	if !exists || !proc.Running {
		return nil, fmt.Errorf("server %s not running", name)
	}

	return proc.Tools, nil
}

// Running returns the names of running servers, sorted.
func (pm *ProcessManager) Running() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.processes))
	for name, proc := range pm.processes {
		if proc.Running {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Shutdown stops every server in parallel.
func (pm *ProcessManager) Shutdown(ctx context.Context) error {
	pm.mu.RLock()
	names := make([]string, 0, len(pm.processes))
	for name := range pm.processes {
		names = append(names, name)
	}
	pm.mu.RUnlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Shutdown: stopping %d servers", len(names))
	}

	var g errgroup.Group
	for _, name := range names {
		g.Go(func() error {
			return pm.StopServer(ctx, name)
		})
	}
	return g.Wait()
}

// createLocalClient starts the server process over stdio. The command is
// captured so it can be killed if close hangs.
func (pm *ProcessManager) createLocalClient(name string, cfg config.MCPServerConfig) (*client.Client, *exec.Cmd, error) {
	env := configToEnv(cfg.Env)
	var capturedCmd *exec.Cmd

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Starting '%s': %s %v", name, cfg.Command, cfg.Args)
	}

	// The process must outlive the start context, so it is not bound to it.
	cmdFunc := func(_ context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.Command(command, args...)
		cmd.Env = env
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		config.ExpandPath(cfg.Command),
		env,
		cfg.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, nil, err
	}

	if capturedCmd != nil && capturedCmd.Process != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Started '%s' with PID %d", name, capturedCmd.Process.Pid)
	}

	return mcpClient, capturedCmd, nil
}

func configToEnv(envMap map[string]string) []string {
	// Keep PATH and the rest of the parent environment.
	env := os.Environ()

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, envMap[k]))
	}

	return env
}
