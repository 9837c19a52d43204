package main

import (
	"github.com/alecthomas/kong"

	"chatcli/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Globals `embed:""`

	Chat     ChatCmd     `cmd:"" default:"withargs" help:"Start an interactive session, or run one turn when a prompt is given"`
	Config   ConfigCmd   `cmd:"" help:"Show the resolved configuration"`
	Tools    ToolsCmd    `cmd:"" help:"List the tools available to the model"`
	Models   ModelsCmd   `cmd:"" help:"List models offered by the provider"`
	Auth     AuthCmd     `cmd:"" help:"Manage stored API keys"`
	Sessions SessionsCmd `cmd:"" help:"Inspect saved sessions"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// Globals override the config file and environment for every command.
type Globals struct {
	Provider    string   `short:"p" help:"Model provider: openrouter, openai, anthropic or ollama"`
	Model       string   `short:"m" help:"Model identifier"`
	Temperature *float64 `help:"Sampling temperature"`
	MaxTokens   int      `help:"Maximum tokens per model response"`
	MaxSteps    int      `help:"Model calls allowed per turn before asking to continue"`
	APIKey      string   `name:"api-key" help:"API key for the provider"`
	BaseURL     string   `name:"base-url" help:"Override the provider endpoint"`
}

// apply copies every flag that was set onto cfg.
func (g *Globals) apply(cfg *config.Config) {
	if g.Provider != "" {
		cfg.Provider = g.Provider
	}
	if g.Model != "" {
		cfg.Model = g.Model
	}
	if g.Temperature != nil {
		cfg.Temperature = *g.Temperature
	}
	if g.MaxTokens > 0 {
		cfg.MaxTokens = g.MaxTokens
	}
	if g.MaxSteps > 0 {
		cfg.MaxSteps = g.MaxSteps
	}
	if g.APIKey != "" {
		cfg.APIKey = g.APIKey
	}
	if g.BaseURL != "" {
		cfg.BaseURL = g.BaseURL
	}
}

// ChatCmd runs the interactive UI, or a single turn when Prompt is given.
type ChatCmd struct {
	Prompt   []string `arg:"" optional:"" help:"Prompt to run without the interactive UI"`
	Yes      bool     `short:"y" help:"Accept gated tool calls when running a single prompt"`
	Continue bool     `short:"c" help:"Resume the most recent session"`
	Quiet    bool     `short:"q" help:"Print only the final reply when running a single prompt"`
}

// ConfigCmd prints the resolved configuration with keys masked.
type ConfigCmd struct{}

// ToolsCmd lists registered tools.
type ToolsCmd struct {
	MCP bool `name:"mcp" help:"Also start configured MCP servers and list their tools"`
}

// ModelsCmd lists models, optionally filtered.
type ModelsCmd struct {
	Query string `arg:"" optional:"" help:"Fuzzy filter for model names"`
	Use   bool   `help:"Save the best match as the default model in config.toml"`
}

// AuthCmd manages the credential store.
type AuthCmd struct {
	Set    AuthSetCmd    `cmd:"" help:"Store an API key for a provider"`
	Delete AuthDeleteCmd `cmd:"" help:"Remove the stored key for a provider"`
	List   AuthListCmd   `cmd:"" help:"List providers with a stored key"`
}

type AuthSetCmd struct {
	Provider string `arg:"" help:"Provider id"`
	Key      string `arg:"" optional:"" help:"API key (read from stdin when omitted)"`
	Check    bool   `help:"Verify the key with the provider before storing it"`
}

type AuthDeleteCmd struct {
	Provider string `arg:"" help:"Provider id"`
}

type AuthListCmd struct{}

// SessionsCmd inspects saved transcripts.
type SessionsCmd struct {
	List   SessionsListCmd   `cmd:"" default:"1" help:"List saved sessions, newest first"`
	Show   SessionsShowCmd   `cmd:"" help:"Print a session transcript"`
	Delete SessionsDeleteCmd `cmd:"" help:"Delete a session"`
	Search SessionsSearchCmd `cmd:"" help:"Search every session for text"`
}

type SessionsListCmd struct{}

type SessionsShowCmd struct {
	ID string `arg:"" help:"Session id or unique prefix"`
}

type SessionsDeleteCmd struct {
	ID string `arg:"" help:"Session id or unique prefix"`
}

type SessionsSearchCmd struct {
	Query string `arg:"" help:"Text to search for"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
