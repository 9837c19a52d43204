// Package main is the chat-cli entry point: an interactive coding agent in
// the terminal, or a single non-interactive turn when given a prompt.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"chatcli/config"
	"chatcli/engine"
	"chatcli/mcp"
	"chatcli/prompt"
	"chatcli/provider"
	"chatcli/tools"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

const mcpShutdownTimeout = 5 * time.Second

func main() {
	// Variables already in the environment win over .env.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chat-cli"),
		kong.Description("A terminal coding agent."),
		kong.UsageOnError(),
		kong.Vars(kongVars()),
		kong.Bind(&cli.Globals),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

// loadConfig reads config.toml and the environment, then applies flags.
func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	g.apply(cfg)
	config.InitDebugLog(cfg.DataDir())
	return cfg, nil
}

// agent is everything a session needs before an engine is built.
type agent struct {
	cfg      *config.Config
	workDir  string
	provider provider.Provider
	registry *tools.Registry
	gate     *engine.Gate
	mcp      *mcp.Manager
	// notices are shown once when the session starts.
	notices []string
}

// newAgent resolves the provider, loads the prompt documents and fills the
// tool registry. With startMCP set the configured MCP servers are launched
// and their tools registered; the caller must call close.
func newAgent(ctx context.Context, g *Globals, startMCP bool) (*agent, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	p, err := provider.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &agent{cfg: cfg, workDir: workDir, provider: p}

	loaded, err := prompt.Load(workDir)
	if err != nil {
		a.notices = append(a.notices, err.Error())
	}
	a.notices = append(a.notices, loaded...)

	a.registry = tools.NewRegistry()
	if err := tools.RegisterBuiltins(a.registry, tools.NewTodoList()); err != nil {
		return nil, err
	}
	task := engine.NewTaskTool(engine.TaskOptions{
		Provider:     p,
		Registry:     a.registry,
		Config:       cfg,
		SystemPrompt: func() string { return prompt.System(true) },
		MaxSteps:     cfg.MaxSteps,
	})
	if err := a.registry.Register(task); err != nil {
		return nil, err
	}

	if startMCP && len(cfg.MCPServers) > 0 {
		a.mcp = mcp.NewManager()
		a.mcp.Start(ctx, cfg.MCPServers)
		a.mcp.Register(a.registry)
		for _, s := range a.mcp.Status() {
			if s.Err != nil {
				a.notices = append(a.notices, fmt.Sprintf("MCP server %s failed to start: %v", s.Name, s.Err))
			}
		}
	}

	a.gate = engine.NewGate(a.registry, cfg.GatedTools...)
	return a, nil
}

func (a *agent) close() {
	if a.mcp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mcpShutdownTimeout)
	defer cancel()
	if err := a.mcp.Shutdown(ctx); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] shutdown: %v", err)
	}
}
