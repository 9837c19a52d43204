package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"chatcli/config"
	"chatcli/message"
	"chatcli/provider"
)

const initPrompt = `Please complete the following task directly, without asking for confirmation each time.

Create a chat-cli.md markdown file for this project that includes:
- Project overview
- Architecture
- Key Components
- Development and build commands
- Technical Details
- Other Notes

Ensure the format is clear.`

const rule = "--------------------------------------"

var errNoSession = errors.New("no active session")

func registerBuiltins(r *Registry) {
	r.addBuiltin("/init", "init project", "", initCommand)
	r.addBuiltin("/clear", "clear session", "", clearCommand)
	r.addBuiltin("/config", "show config", "", configCommand)
	r.addBuiltin("/tools", "list built-in tools", "", toolsCommand)
	r.addBuiltin("/mcp", "Manage MCP servers", "", mcpCommand)
	r.addBuiltin("/model", "show or switch the model", "[query]", modelCommand)
	r.addBuiltin("/auto", "toggle auto-accept of gated tools", "", autoCommand)
	r.addBuiltin("/help", "show help", "", func(_ context.Context, _ *Env, _ string) (Result, error) {
		return Result{Output: r.Help()}, nil
	})
}

// Help renders the command list shown by /help.
func (r *Registry) Help() string {
	var b strings.Builder
	b.WriteString("Chat-CLI\n\nInteractive Mode Commands:\n")
	for _, c := range r.All() {
		name := c.Name
		if c.ArgumentHint != "" {
			name += " " + c.ArgumentHint
		}
		fmt.Fprintf(&b, "  %s - %s\n", name, c.Description)
	}
	b.WriteString("\nKeys: shift+tab toggles auto-accept, ctrl+c cancels or quits, ctrl+y copies the last answer")
	return b.String()
}

func initCommand(_ context.Context, _ *Env, _ string) (Result, error) {
	msg := message.User(initPrompt)
	return Result{Submit: &msg}, nil
}

func clearCommand(_ context.Context, env *Env, _ string) (Result, error) {
	if env.Session == nil {
		return Result{}, errNoSession
	}
	system := ""
	if env.SystemPrompt != nil {
		system = env.SystemPrompt()
	}
	if err := env.Session.Reset(system); err != nil {
		return Result{}, err
	}
	return Result{Output: "cleared"}, nil
}

// configView is the printable subset of the runtime configuration.
type configView struct {
	Provider      string   `toml:"provider"`
	Model         string   `toml:"model"`
	Temperature   float64  `toml:"temperature"`
	MaxTokens     int      `toml:"max_tokens"`
	MaxSteps      int      `toml:"max_steps"`
	APIKey        string   `toml:"api_key"`
	BaseURL       string   `toml:"base_url,omitempty"`
	DataDirectory string   `toml:"data_directory"`
	GatedTools    []string `toml:"gated_tools,omitempty"`
	CommandsDirs  []string `toml:"commands_dirs,omitempty"`
	MCPServers    []string `toml:"mcp_servers,omitempty"`
}

// FormatConfig renders cfg as TOML with the API key masked.
func FormatConfig(cfg *config.Config) (string, error) {
	view := configView{
		Provider:      cfg.Provider,
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		MaxSteps:      cfg.MaxSteps,
		APIKey:        maskKey(cfg.ResolveAPIKey()),
		BaseURL:       cfg.BaseURL,
		DataDirectory: cfg.DataDir(),
		GatedTools:    cfg.GatedTools,
		CommandsDirs:  cfg.CommandsDirs,
	}
	for name := range cfg.MCPServers {
		view.MCPServers = append(view.MCPServers, name)
	}
	sort.Strings(view.MCPServers)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(view); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "****" + key[len(key)-4:]
	}
}

func configCommand(_ context.Context, env *Env, _ string) (Result, error) {
	if env.Config == nil {
		return Result{Output: "No configuration loaded."}, nil
	}
	out, err := FormatConfig(env.Config)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: rule + "\nConfig:\n" + out + "\n" + rule}, nil
}

func toolsCommand(_ context.Context, env *Env, _ string) (Result, error) {
	if env.Session == nil {
		return Result{}, errNoSession
	}
	var b strings.Builder
	b.WriteString(rule + "\nTools:\n")
	for _, name := range env.Session.Registry().Names() {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString(rule)
	return Result{Output: b.String()}, nil
}

func mcpCommand(_ context.Context, env *Env, _ string) (Result, error) {
	if env.MCP == nil {
		return Result{Output: "No MCP servers configured."}, nil
	}
	status := env.MCP.Status()
	if len(status) == 0 {
		return Result{Output: "No MCP servers configured."}, nil
	}

	var b strings.Builder
	b.WriteString(rule + "\nMcp Tools:\n")
	for _, s := range status {
		state := "stopped"
		switch {
		case s.Err != nil:
			state = "error: " + s.Err.Error()
		case s.Running:
			state = fmt.Sprintf("running, %d tools", len(s.Tools))
		}
		if s.Gated {
			state += ", gated"
		}
		fmt.Fprintf(&b, "%s (%s)\n", s.Name, state)
		for _, t := range s.Tools {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	b.WriteString(rule)
	return Result{Output: b.String()}, nil
}

const maxModelsListed = 20

func modelCommand(ctx context.Context, env *Env, args string) (Result, error) {
	if env.Provider == nil {
		return Result{}, errors.New("no provider configured")
	}
	current := fmt.Sprintf("Current model: %s (%s)", env.Provider.GetModel(), env.Provider.GetDisplayName())
	if args == "" {
		return Result{Output: current}, nil
	}

	models, err := provider.FetchModels(ctx, env.Provider, args)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		return Result{}, fmt.Errorf("no model matches %q", args)
	}

	chosen := models[0].InternalName
	if chosen == "" {
		chosen = models[0].Name
	}
	env.Provider.SetModel(chosen)
	if env.Config != nil {
		env.Config.Model = chosen
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Switched to %s", chosen)
	if len(models) > 1 {
		b.WriteString("\nOther matches:")
		for i, m := range models[1:] {
			if i == maxModelsListed {
				fmt.Fprintf(&b, "\n  ... (%d more)", len(models)-1-maxModelsListed)
				break
			}
			fmt.Fprintf(&b, "\n  %s", m.InternalName)
		}
	}
	return Result{Output: b.String()}, nil
}

func autoCommand(_ context.Context, env *Env, _ string) (Result, error) {
	if env.Session == nil {
		return Result{}, errNoSession
	}
	if env.Session.ToggleAutoAccept() {
		return Result{Output: "auto-accept on: gated tools run without asking"}, nil
	}
	return Result{Output: "auto-accept off"}, nil
}
