// Package ui is the interactive terminal frontend: a scrolling transcript of
// the conversation log, a status line while the model streams, an approval
// prompt for gated tool calls and the input box.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatcli/commands"
	"chatcli/config"
	"chatcli/engine"
	"chatcli/message"
	"chatcli/storage"
)

const historyLimit = 500

// Options wires the AppView to the session. Engine, Commands and Bridge
// are required; History and Sessions may be nil.
type Options struct {
	Engine   *engine.Engine
	Commands *commands.Registry
	Env      *commands.Env
	Bridge   *Bridge
	History  *storage.PromptHistory
	Sessions *storage.SessionStorage
	// Session is the record the transcript is saved into after each turn.
	Session *storage.Session
	Config  *config.Config
	WorkDir string
	// Notices are shown once at startup (loaded documents, MCP failures).
	Notices []string
}

type AppView struct {
	engine   *engine.Engine
	commands *commands.Registry
	env      *commands.Env
	bridge   *Bridge
	history  *storage.PromptHistory
	sessions *storage.SessionStorage
	session  *storage.Session
	cfg      *config.Config
	workDir  string

	// UI Components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	// Turn state
	busy         bool
	streamText   string
	streamTokens int
	pending      *message.ToolCall
	status       string

	// Input recall
	recall    []string
	recallIdx int
	draft     string

	// Tab completion
	completions []*commands.Command
	completeIdx int

	cache *renderCache
}

func NewAppView(opts Options) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type a message or /help"
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Enter submits; alt+enter inserts a newline.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = AssistantStyle

	env := opts.Env
	if env == nil {
		env = &commands.Env{Session: opts.Engine, Config: opts.Config}
	}

	a := AppView{
		engine:    opts.Engine,
		commands:  opts.Commands,
		env:       env,
		bridge:    opts.Bridge,
		history:   opts.History,
		sessions:  opts.Sessions,
		session:   opts.Session,
		cfg:       opts.Config,
		workDir:   opts.WorkDir,
		viewport:  viewport.New(0, 0),
		textarea:  ta,
		spinner:   sp,
		recallIdx: -1,
		cache:     newRenderCache(),
	}

	if a.history != nil {
		recent, err := a.history.Recent(historyLimit)
		if err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] history unavailable: %v", err)
		}
		a.recall = recent
	}

	for _, n := range opts.Notices {
		a.engine.Log().Append(message.Info(message.InfoNotice, n))
	}

	return a
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, a.spinner.Tick}
	if a.bridge != nil {
		cmds = append(cmds, a.bridge.listen())
	}
	return tea.Batch(cmds...)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading chat-cli..."
	}

	sections := []string{a.viewport.View()}
	if a.pending != nil {
		sections = append(sections, a.renderApproval())
	}
	sections = append(sections, a.renderStatus(), a.textarea.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// layout sizes the viewport to whatever the other sections leave.
func (a *AppView) layout() {
	a.textarea.SetWidth(a.width)

	used := a.textarea.Height() + 1
	if a.pending != nil {
		used += lipgloss.Height(a.renderApproval())
	}
	h := a.height - used
	if h < 1 {
		h = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = h
}

func (a *AppView) refresh() {
	atBottom := a.viewport.AtBottom() || a.busy
	a.layout()
	a.viewport.SetContent(a.renderTranscript())
	if atBottom {
		a.viewport.GotoBottom()
	}
}

func (a AppView) input() string {
	return strings.TrimSpace(a.textarea.Value())
}
