package ui

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"chatcli/message"
)

// Pre-compiled regex patterns for better performance
var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
)

const (
	codeBar         = "┃"
	maxArgsWidth    = 60
	maxResultLines  = 12
	transcriptInset = 2
)

// renderCache keeps rendered markdown for entries already in the log.
// Entries never change once appended, so index, width and text identify
// a rendering.
type renderCache struct {
	entries map[int]cachedRender
}

type cachedRender struct {
	width    int
	text     string
	rendered string
}

func newRenderCache() *renderCache {
	return &renderCache{entries: make(map[int]cachedRender)}
}

func (c *renderCache) get(idx, width int, text string) (string, bool) {
	e, ok := c.entries[idx]
	if !ok || e.width != width || e.text != text {
		return "", false
	}
	return e.rendered, true
}

func (c *renderCache) put(idx, width int, text, rendered string) {
	c.entries[idx] = cachedRender{width: width, text: text, rendered: rendered}
}

func (a AppView) renderTranscript() string {
	entries := message.ForDisplay(a.engine.Log().Snapshot())
	if len(entries) == 0 && !a.busy {
		return DimStyle.Render("No messages yet. Type a message or /help.")
	}

	width := a.contentWidth()
	var b strings.Builder
	for i, m := range entries {
		switch m.Role {
		case message.RoleUser:
			b.WriteString(renderUser(m.Text, width))
		case message.RoleAssistant:
			if m.HasToolCalls() {
				b.WriteString(renderToolCalls(m.ToolCalls(), width))
				continue
			}
			b.WriteString(a.renderAssistant(i, m.Text, width))
		case message.RoleTool:
			b.WriteString(renderToolResults(m.Parts, width))
		case message.RoleGUI:
			b.WriteString(renderInfo(m, width))
		}
	}

	if a.busy && a.streamText != "" {
		// Streaming text stays plain until the entry lands in the log.
		b.WriteString(AssistantStyle.Render("●") + "\n")
		b.WriteString(indent.String(wordwrap.String(a.streamText, width), transcriptInset))
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (a AppView) contentWidth() int {
	w := a.width - 2*transcriptInset
	if w < 20 {
		return 20
	}
	return w
}

func renderUser(text string, width int) string {
	bar := UserStyle.Render(codeBar)
	var b strings.Builder
	for _, line := range strings.Split(wordwrap.String(text, width-2), "\n") {
		fmt.Fprintf(&b, "%s %s\n", bar, line)
	}
	b.WriteString("\n")
	return b.String()
}

func (a AppView) renderAssistant(idx int, text string, width int) string {
	rendered, ok := a.cache.get(idx, width, text)
	if !ok {
		rendered = renderMarkdown(text, width)
		a.cache.put(idx, width, text, rendered)
	}
	return AssistantStyle.Render("●") + "\n" + rendered + "\n"
}

// renderMarkdown renders text with go-term-markdown. Autolink is disabled so
// URLs stay plain text and the terminal can detect them.
func renderMarkdown(text string, width int) string {
	text = mdLinkRegex.ReplaceAllString(text, "$2")

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, transcriptInset)
	doc := p.Parse([]byte(text))
	rendered := string(gomarkdown.Render(doc, r))

	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = colorURLs(rendered)
	return strings.TrimRight(rendered, "\n") + "\n"
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		// Code block lines carry the bar prefix.
		if !strings.Contains(line, codeBar) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

func renderToolCalls(calls []message.ToolCall, width int) string {
	var b strings.Builder
	for _, c := range calls {
		fmt.Fprintf(&b, "%s %s%s\n", ToolStyle.Render("⏺"), ToolStyle.Render(c.Name), DimStyle.Render(formatArgs(c.Args, width)))
	}
	return b.String()
}

// formatArgs renders tool arguments as a single truncated line.
func formatArgs(args map[string]any, width int) string {
	if len(args) == 0 {
		return "()"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+argValue(args[k]))
	}
	line := strings.Join(parts, ", ")
	line = strings.ReplaceAll(line, "\n", " ")

	limit := maxArgsWidth
	if width-10 < limit {
		limit = width - 10
	}
	return "(" + runewidth.Truncate(line, limit, "…") + ")"
}

func argValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return "null"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func renderToolResults(parts []message.Part, width int) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Type != message.PartToolResult {
			continue
		}
		title := p.Title
		if title == "" {
			title = p.ToolName
		}
		fmt.Fprintf(&b, "  %s %s\n", DimStyle.Render("⎿"), title)
		if body := clipLines(p.Text, maxResultLines); body != "" {
			wrapped := wordwrap.String(body, width-4)
			b.WriteString(DimStyle.Render(indent.String(wrapped, 4)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// clipLines keeps the first n lines of s and notes how many were dropped.
func clipLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n… +%d lines", len(lines)-n)
}

func renderInfo(m message.Message, width int) string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type != message.PartInfo {
			continue
		}
		text := wordwrap.String(p.Text, width)
		switch p.Kind {
		case message.InfoError:
			b.WriteString(ErrorStyle.Render("Error: " + text))
		case message.InfoMaxStep:
			b.WriteString(WarningStyle.Render(text) + DimStyle.Render("  (press enter to continue)"))
		case message.InfoTask:
			b.WriteString(ToolStyle.Render("Task ") + DimStyle.Render(text))
		default:
			b.WriteString(DimStyle.Render(text))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (a AppView) renderStatus() string {
	var parts []string
	if a.busy {
		s := a.spinner.View() + " working"
		if a.streamTokens > 0 {
			s += fmt.Sprintf(" ~%d tokens", a.streamTokens)
		}
		parts = append(parts, s+" (ctrl+c to cancel)")
	}
	if a.env != nil && a.env.Provider != nil {
		parts = append(parts, a.env.Provider.GetModel())
	}
	if a.engine.AutoAccept() {
		parts = append(parts, AutoOnStyle.Render("auto-accept on"))
	}
	if a.status != "" {
		parts = append(parts, a.status)
	}
	return StatusStyle.Render(strings.Join(parts, " · "))
}

// renderApproval shows the pending gated call and the three choices.
func (a AppView) renderApproval() string {
	call := a.pending
	if call == nil {
		return ""
	}

	desc := a.engine.Registry().Describe(call.Name, call.Args, nil)
	width := a.contentWidth()

	var b strings.Builder
	b.WriteString(WarningStyle.Render("Permission required") + "\n")
	fmt.Fprintf(&b, "%s%s\n", ToolStyle.Render(call.Name), DimStyle.Render(formatArgs(call.Args, width)))
	if desc.Title != "" {
		b.WriteString(wordwrap.String(desc.Title, width) + "\n")
	}
	if body := clipLines(approvalPreview(*call), maxResultLines); body != "" {
		b.WriteString(DimStyle.Render(indent.String(wordwrap.String(body, width-2), 2)) + "\n")
	}
	b.WriteString("\n" + FormatFooter("y", "Accept", "a", "Accept + auto", "n", "Decline"))

	return approvalBox.Width(width).Render(b.String())
}

// approvalPreview shows what a gated call is about to change.
func approvalPreview(call message.ToolCall) string {
	str := func(k string) string {
		v, _ := call.Args[k].(string)
		return v
	}

	switch call.Name {
	case "UpdateFile":
		var b strings.Builder
		for _, l := range strings.Split(str("oldString"), "\n") {
			b.WriteString("- " + l + "\n")
		}
		for _, l := range strings.Split(str("newString"), "\n") {
			b.WriteString("+ " + l + "\n")
		}
		return b.String()
	case "WriteFile":
		return str("content")
	default:
		return ""
	}
}
