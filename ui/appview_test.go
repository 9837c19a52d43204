package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"chatcli/commands"
	"chatcli/config"
	"chatcli/engine"
	"chatcli/message"
	"chatcli/provider/testutil"
	"chatcli/tools"
)

func newTestView(t *testing.T, steps ...testutil.Step) (AppView, *testutil.ScriptedProvider) {
	t.Helper()

	r := tools.NewRegistry()
	if err := tools.RegisterBuiltins(r, tools.NewTodoList()); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	p := testutil.NewScriptedProvider(steps...)
	cfg := &config.Config{Provider: config.ProviderOpenRouter, Temperature: 0.7}
	e := engine.New(engine.Options{
		Provider: p,
		Registry: r,
		Log:      message.NewLog(message.System("system")),
		Config:   cfg,
		WorkDir:  t.TempDir(),
	})

	a := NewAppView(Options{
		Engine:   e,
		Commands: commands.NewRegistry(),
		Env:      &commands.Env{Session: e, Provider: p, Config: cfg, SystemPrompt: func() string { return "system" }},
		Bridge:   NewBridge(),
		Config:   cfg,
	})
	next, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(AppView), p
}

// press feeds a key and runs the command it returns, synchronously, until
// the view settles.
func press(t *testing.T, a AppView, k tea.KeyMsg) AppView {
	t.Helper()
	next, cmd := a.Update(k)
	a = next.(AppView)
	for cmd != nil {
		msg := cmd()
		next, cmd = a.Update(msg)
		a = next.(AppView)
	}
	return a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestAppViewSubmit(t *testing.T) {
	a, _ := newTestView(t, testutil.TextStep("hello back"))

	a.textarea.SetValue("hello")
	a = press(t, a, enter)

	if a.busy {
		t.Error("view still busy after the turn finished")
	}
	entries := a.engine.Log().Snapshot()
	if got := message.LastAssistantText(entries); got != "hello back" {
		t.Errorf("last assistant text = %q, want %q", got, "hello back")
	}
	if a.textarea.Value() != "" {
		t.Errorf("input not cleared: %q", a.textarea.Value())
	}
	if len(a.recall) != 1 || a.recall[0] != "hello" {
		t.Errorf("recall = %v", a.recall)
	}
	if !strings.Contains(a.renderTranscript(), "hello back") {
		t.Error("transcript does not show the reply")
	}
}

func TestAppViewApproval(t *testing.T) {
	tests := []struct {
		name     string
		key      tea.KeyMsg
		validate func(t *testing.T, a AppView, path string)
	}{
		{
			name: "accept writes the file",
			key:  runes("y"),
			validate: func(t *testing.T, a AppView, path string) {
				if _, err := os.Stat(path); err != nil {
					t.Errorf("file not written: %v", err)
				}
				if a.engine.AutoAccept() {
					t.Error("auto-accept enabled by a plain accept")
				}
			},
		},
		{
			name: "accept and enable auto",
			key:  runes("a"),
			validate: func(t *testing.T, a AppView, path string) {
				if _, err := os.Stat(path); err != nil {
					t.Errorf("file not written: %v", err)
				}
				if !a.engine.AutoAccept() {
					t.Error("auto-accept not enabled")
				}
			},
		},
		{
			name: "decline leaves the file alone",
			key:  tea.KeyMsg{Type: tea.KeyEsc},
			validate: func(t *testing.T, a AppView, path string) {
				if _, err := os.Stat(path); !os.IsNotExist(err) {
					t.Errorf("file exists after decline: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			a, _ := newTestView(t,
				testutil.ToolCallStep("call_1", "WriteFile", map[string]any{"path": path, "content": "hi\n"}),
				testutil.TextStep("done"),
			)

			a.textarea.SetValue("write it")
			a = press(t, a, enter)

			if a.pending == nil || a.pending.Name != "WriteFile" {
				t.Fatalf("pending = %+v, want WriteFile", a.pending)
			}
			if !strings.Contains(a.View(), "Permission required") {
				t.Error("approval box not shown")
			}

			a = press(t, a, tt.key)
			if a.pending != nil {
				t.Errorf("still pending after %s", tt.key)
			}
			if got := a.engine.State(); got != engine.StateDone {
				t.Errorf("state = %s, want done", got)
			}
			tt.validate(t, a, path)
		})
	}
}

func TestAppViewCommand(t *testing.T) {
	a, _ := newTestView(t)

	a.textarea.SetValue("/tools")
	a = press(t, a, enter)

	last, ok := a.engine.Log().Last()
	if !ok || last.InfoKind() != message.InfoNotice {
		t.Fatalf("last entry = %+v, want a notice", last)
	}
	if !strings.Contains(last.Parts[0].Text, "ReadFile") {
		t.Errorf("tools output missing ReadFile: %q", last.Parts[0].Text)
	}
}

func TestRecall(t *testing.T) {
	a, _ := newTestView(t)
	a.recall = []string{"first", "second"}
	a.textarea.SetValue("draft")

	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}

	steps := []struct {
		key  tea.KeyMsg
		want string
	}{
		{up, "second"},
		{up, "first"},
		{up, "first"},
		{down, "second"},
		{down, "draft"},
	}
	for i, s := range steps {
		a = press(t, a, s.key)
		if got := a.textarea.Value(); got != s.want {
			t.Fatalf("step %d: input = %q, want %q", i, got, s.want)
		}
	}
}

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"empty", nil, "()"},
		{"sorted keys", map[string]any{"b": "2", "a": 1}, "(a: 1, b: 2)"},
		{"newlines flattened", map[string]any{"cmd": "ls\npwd"}, "(cmd: ls pwd)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatArgs(tt.args, 100); got != tt.want {
				t.Errorf("formatArgs = %q, want %q", got, tt.want)
			}
		})
	}

	long := formatArgs(map[string]any{"content": strings.Repeat("x", 500)}, 100)
	if !strings.HasSuffix(long, "…)") {
		t.Errorf("long args not truncated: %q", long)
	}
}

func TestClipLines(t *testing.T) {
	in := "1\n2\n3\n4\n5"
	if got := clipLines(in, 10); got != in {
		t.Errorf("short input changed: %q", got)
	}
	if got := clipLines(in, 2); got != "1\n2\n… +3 lines" {
		t.Errorf("clipLines = %q", got)
	}
	if got := clipLines("\n", 2); got != "" {
		t.Errorf("blank input = %q", got)
	}
}

func TestRenderCache(t *testing.T) {
	c := newRenderCache()
	c.put(1, 80, "text", "rendered")

	if got, ok := c.get(1, 80, "text"); !ok || got != "rendered" {
		t.Errorf("get = %q, %v", got, ok)
	}
	if _, ok := c.get(1, 60, "text"); ok {
		t.Error("hit after width change")
	}
	if _, ok := c.get(1, 80, "other"); ok {
		t.Error("hit after text change")
	}
}

func TestBridgeDeliverWaitsForRoom(t *testing.T) {
	b := NewBridge()
	for i := 0; i < bridgeBuffer; i++ {
		b.OnChange(nil)
	}

	reload := CommandsReloadedMsg{Loaded: 1, Errs: []error{errors.New("bad.md: missing body")}}
	done := make(chan error, 1)
	go func() { done <- b.Deliver(context.Background(), reload) }()

	var got []tea.Msg
	for i := 0; i <= bridgeBuffer; i++ {
		got = append(got, b.listen()().(bridgeMsg).inner)
	}
	if err := <-done; err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	last, ok := got[len(got)-1].(CommandsReloadedMsg)
	if !ok || len(last.Errs) != 1 {
		t.Errorf("reload event lost, last event %T", got[len(got)-1])
	}

	for i := 0; i < bridgeBuffer; i++ {
		b.OnChange(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Deliver(ctx, reload); !errors.Is(err, context.Canceled) {
		t.Errorf("Deliver on a full bridge after cancel: got %v", err)
	}
}

func TestBridgeDoesNotBlock(t *testing.T) {
	b := NewBridge()
	for i := 0; i < bridgeBuffer+10; i++ {
		b.OnChange(nil)
	}
	msg := b.listen()()
	if _, ok := msg.(bridgeMsg); !ok {
		t.Fatalf("listen returned %T", msg)
	}
}
