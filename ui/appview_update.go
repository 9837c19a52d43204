package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"chatcli/commands"
	"chatcli/config"
	"chatcli/engine"
	"chatcli/message"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.refresh()
		return a, nil

	case bridgeMsg:
		next, cmd := a.Update(msg.inner)
		a = next.(AppView)
		return a, tea.Batch(cmd, a.bridge.listen())

	case chunkMsg:
		if !a.busy {
			return a, nil
		}
		a.streamText = msg.text
		a.streamTokens = msg.tokens
		a.refresh()
		return a, nil

	case logChangedMsg:
		// A new entry replaces whatever was streaming.
		a.streamText = ""
		a.refresh()
		return a, nil

	case CommandsReloadedMsg:
		a.status = fmt.Sprintf("reloaded %d custom commands", msg.Loaded)
		for _, err := range msg.Errs {
			a.engine.Log().Append(message.Info(message.InfoError, err.Error()))
		}
		return a, nil

	case turnDoneMsg:
		return a.handleTurnDone(msg), nil

	case commandDoneMsg:
		return a.handleCommandDone(msg)

	case clipboardMsg:
		if msg.err != nil {
			a.status = "copy failed: " + msg.err.Error()
		} else {
			a.status = "copied last response"
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.pending != nil {
		return a.handleApprovalKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		if a.busy {
			a.engine.Cancel()
			a.status = "cancelled"
			return a, nil
		}
		return a, tea.Quit

	case "shift+tab":
		if a.engine.ToggleAutoAccept() {
			a.status = "auto-accept on"
		} else {
			a.status = "auto-accept off"
		}
		return a, nil

	case "ctrl+y":
		text := message.LastAssistantText(a.engine.Log().Snapshot())
		return a, func() tea.Msg {
			return clipboardMsg{err: clipboard.WriteAll(text)}
		}

	case "tab":
		a.complete()
		return a, nil

	case "up":
		if a.textarea.Line() == 0 {
			a.recallPrev()
			return a, nil
		}

	case "down":
		if a.textarea.Line() == a.textarea.LineCount()-1 && a.recallIdx >= 0 {
			a.recallNext()
			return a, nil
		}

	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case "enter":
		return a.submit(a.input())
	}

	a.completions = nil
	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleApprovalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var d engine.Decision
	switch msg.String() {
	case "y", "enter", "1":
		d = engine.Accept
	case "a", "2":
		d = engine.AcceptAndEnableAuto
	case "n", "esc", "3":
		d = engine.Decline
	case "ctrl+c":
		return a, tea.Quit
	default:
		return a, nil
	}

	a.pending = nil
	a.busy = true
	a.status = ""
	a.refresh()
	return a, a.resolve(d)
}

// submit handles the enter key. Busy turns ignore input.
func (a AppView) submit(text string) (tea.Model, tea.Cmd) {
	if a.busy {
		a.status = "still working, ctrl+c to cancel"
		return a, nil
	}

	if text == "" {
		// An empty line after the step budget ran out continues the turn.
		if last, ok := a.engine.Log().Last(); ok && last.InfoKind() == message.InfoMaxStep {
			a.busy = true
			return a, a.run(func(ctx context.Context) (engine.Outcome, error) {
				return a.engine.Run(ctx)
			})
		}
		return a, nil
	}

	a.textarea.Reset()
	a.remember(text)
	a.status = ""

	if commands.IsCommand(text) {
		return a, a.runCommand(text)
	}

	a.busy = true
	a.refresh()
	return a, a.run(func(ctx context.Context) (engine.Outcome, error) {
		return a.engine.Submit(ctx, text)
	})
}

func (a AppView) run(fn func(context.Context) (engine.Outcome, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := fn(context.Background())
		return turnDoneMsg{out: out, err: err}
	}
}

func (a AppView) resolve(d engine.Decision) tea.Cmd {
	return a.run(func(ctx context.Context) (engine.Outcome, error) {
		return a.engine.Resolve(ctx, d)
	})
}

func (a AppView) runCommand(input string) tea.Cmd {
	reg, env := a.commands, a.env
	return func() tea.Msg {
		res, err := reg.Run(context.Background(), env, input)
		return commandDoneMsg{input: input, result: res, err: err}
	}
}

func (a AppView) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	log := a.engine.Log()
	if msg.err != nil {
		log.Append(message.Info(message.InfoError, msg.err.Error()))
		return a, nil
	}
	if msg.result.Output != "" {
		log.Append(msg.result.Notice())
	}
	if msg.result.Submit == nil {
		return a, nil
	}

	submit := *msg.result.Submit
	a.busy = true
	a.refresh()
	return a, a.run(func(ctx context.Context) (engine.Outcome, error) {
		return a.engine.SubmitMessage(ctx, submit)
	})
}

func (a AppView) handleTurnDone(msg turnDoneMsg) AppView {
	a.busy = false
	a.streamText = ""
	a.streamTokens = 0

	switch {
	case errors.Is(msg.err, engine.ErrBusy):
		a.status = "a turn is already running"
	case msg.err != nil:
		a.engine.Log().Append(message.Info(message.InfoError, msg.err.Error()))
	}

	if msg.out.State == engine.StateAwaitingApproval && msg.out.Pending != nil {
		a.pending = msg.out.Pending
	}

	a.saveSession()
	a.refresh()
	return a
}

func (a AppView) saveSession() {
	if a.sessions == nil || a.session == nil {
		return
	}

	a.session.Messages = a.engine.Log().Snapshot()
	if a.env.Provider != nil {
		a.session.Model = a.env.Provider.GetModel()
	}
	if err := a.sessions.Save(a.session); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] failed to save session: %v", err)
		}
		return
	}
	_ = a.sessions.SaveCurrentSessionID(a.session.ID)
}

func (a *AppView) remember(text string) {
	a.recallIdx = -1
	a.draft = ""
	if n := len(a.recall); n == 0 || a.recall[n-1] != text {
		a.recall = append(a.recall, text)
	}
	if a.history != nil {
		if err := a.history.Add(text, a.workDir); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] failed to record history: %v", err)
		}
	}
}

func (a *AppView) recallPrev() {
	if len(a.recall) == 0 {
		return
	}
	switch {
	case a.recallIdx < 0:
		a.draft = a.textarea.Value()
		a.recallIdx = len(a.recall) - 1
	case a.recallIdx > 0:
		a.recallIdx--
	}
	a.textarea.SetValue(a.recall[a.recallIdx])
}

func (a *AppView) recallNext() {
	a.recallIdx++
	if a.recallIdx >= len(a.recall) {
		a.recallIdx = -1
		a.textarea.SetValue(a.draft)
		return
	}
	a.textarea.SetValue(a.recall[a.recallIdx])
}

// complete replaces the input with the next matching command name.
func (a *AppView) complete() {
	if a.completions == nil {
		a.completions = a.commands.Complete(a.input())
		a.completeIdx = -1
	}
	if len(a.completions) == 0 {
		a.completions = nil
		return
	}

	a.completeIdx = (a.completeIdx + 1) % len(a.completions)
	c := a.completions[a.completeIdx]
	a.textarea.SetValue(c.Name + " ")
	a.status = c.Description
}
