package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"chatcli/commands"
	"chatcli/config"
	"chatcli/engine"
	"chatcli/message"
	"chatcli/prompt"
	"chatcli/storage"
	"chatcli/ui"
)

func (c *ChatCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAgent(ctx, g, true)
	if err != nil {
		return err
	}
	defer a.close()

	if len(c.Prompt) > 0 {
		return c.runOnce(ctx, a, strings.Join(c.Prompt, " "))
	}
	// The UI handles ctrl+c itself.
	stop()
	return c.runInteractive(a)
}

// runOnce runs a single turn and prints the transcript. Gated calls are
// accepted with --yes and declined otherwise.
func (c *ChatCmd) runOnce(ctx context.Context, a *agent, text string) error {
	eng := engine.New(engine.Options{
		Provider: a.provider,
		Registry: a.registry,
		Gate:     a.gate,
		Log:      message.NewLog(message.System(prompt.System(true))),
		Config:   a.cfg,
		WorkDir:  a.workDir,
	})

	out, err := eng.Submit(ctx, text)
	for err == nil && out.State == engine.StateAwaitingApproval {
		d := engine.Decline
		if c.Yes {
			d = engine.Accept
		}
		out, err = eng.Resolve(ctx, d)
	}
	if err != nil {
		return err
	}

	entries := eng.Log().Snapshot()
	if c.Quiet {
		fmt.Println(message.LastAssistantText(entries))
	} else {
		printTranscript(os.Stdout, message.ForDisplay(entries))
	}

	if out.State == engine.StateFailed {
		return fmt.Errorf("turn failed")
	}
	return nil
}

func (c *ChatCmd) runInteractive(a *agent) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, err := storage.NewSessionStorage(a.cfg.DataDir())
	if err != nil {
		return err
	}

	history, err := storage.NewPromptHistory(a.cfg.DataDir())
	if err != nil {
		// Recall is optional; the session still runs without it.
		a.notices = append(a.notices, fmt.Sprintf("Prompt history unavailable: %v", err))
		history = nil
	} else {
		defer history.Close()
	}

	session, log := c.openSession(sessions, a)

	bridge := ui.NewBridge()
	eng := engine.New(engine.Options{
		Provider: a.provider,
		Registry: a.registry,
		Gate:     a.gate,
		Log:      log,
		Config:   a.cfg,
		WorkDir:  a.workDir,
		OnChunk:  bridge.OnChunk,
		OnChange: bridge.OnChange,
	})

	cmds := commands.NewRegistry()
	dirs := commands.Dirs(a.cfg)
	if _, errs := cmds.LoadExternal(dirs); len(errs) > 0 {
		for _, e := range errs {
			a.notices = append(a.notices, e.Error())
		}
	}
	go func() {
		err := cmds.Watch(ctx, dirs, func(loaded int, errs []error) {
			if err := bridge.Deliver(ctx, ui.CommandsReloadedMsg{Loaded: loaded, Errs: errs}); err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[Commands] reload of %d commands not shown: %v", loaded, err)
			}
		})
		if err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Commands] watch stopped: %v", err)
		}
	}()

	env := &commands.Env{
		Session:      eng,
		Provider:     a.provider,
		Config:       a.cfg,
		SystemPrompt: func() string { return prompt.System(true) },
	}
	if a.mcp != nil {
		env.MCP = a.mcp
	}

	view := ui.NewAppView(ui.Options{
		Engine:   eng,
		Commands: cmds,
		Env:      env,
		Bridge:   bridge,
		History:  history,
		Sessions: sessions,
		Session:  session,
		Config:   a.cfg,
		WorkDir:  a.workDir,
		Notices:  a.notices,
	})

	p := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// openSession starts a fresh session, or with --continue resumes the last
// one with its system entry replaced by the current prompt.
func (c *ChatCmd) openSession(sessions *storage.SessionStorage, a *agent) (*storage.Session, *message.Log) {
	system := message.System(prompt.System(true))
	fresh := &storage.Session{Provider: a.cfg.Provider, Model: a.cfg.Model, WorkDir: a.workDir}

	if !c.Continue {
		return fresh, message.NewLog(system)
	}

	id, err := sessions.LoadCurrentSessionID()
	if err != nil || id == "" {
		a.notices = append(a.notices, "No previous session to continue.")
		return fresh, message.NewLog(system)
	}
	s, err := sessions.Load(id)
	if err != nil {
		a.notices = append(a.notices, fmt.Sprintf("Could not load session %s: %v", id, err))
		return fresh, message.NewLog(system)
	}

	entries := []message.Message{system}
	for _, m := range s.Messages {
		if m.Role != message.RoleSystem {
			entries = append(entries, m)
		}
	}
	a.notices = append(a.notices, fmt.Sprintf("Continuing session %q", s.Name))
	return s, message.NewLog(entries...)
}

// printTranscript writes the display projection as plain text.
func printTranscript(w io.Writer, entries []message.Message) {
	for _, m := range entries {
		switch m.Role {
		case message.RoleUser:
			fmt.Fprintf(w, "> %s\n\n", m.Text)
		case message.RoleAssistant:
			if m.HasToolCalls() {
				for _, call := range m.ToolCalls() {
					fmt.Fprintf(w, "* %s\n", call.Name)
				}
				continue
			}
			fmt.Fprintf(w, "%s\n\n", m.Text)
		case message.RoleTool:
			for _, p := range m.Parts {
				if p.Type != message.PartToolResult {
					continue
				}
				fmt.Fprintf(w, "  %s\n", p.Title)
				if p.Text != "" {
					for _, line := range strings.Split(strings.TrimRight(p.Text, "\n"), "\n") {
						fmt.Fprintf(w, "    %s\n", line)
					}
				}
			}
			fmt.Fprintln(w)
		case message.RoleGUI:
			for _, p := range m.Parts {
				if p.Type == message.PartInfo {
					fmt.Fprintf(w, "[%s] %s\n", p.Kind, p.Text)
				}
			}
		}
	}
}
