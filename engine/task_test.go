package engine

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"chatcli/message"
	"chatcli/provider/testutil"
	"chatcli/tools"
)

func addTaskTool(t *testing.T, f *fixture) {
	t.Helper()
	err := f.registry.Register(NewTaskTool(TaskOptions{
		Provider:     f.provider,
		Registry:     f.registry,
		SystemPrompt: func() string { return "sub-agent system" },
	}))
	if err != nil {
		t.Fatal(err)
	}
}

func TestTaskTool(t *testing.T) {
	f := newFixture(t, Options{},
		// parent
		testutil.ToolCallStep("call_task", "Task", map[string]any{"prompt": "find the config loader"}),
		// sub-agent: a gated tool runs inline, then it answers
		testutil.ToolCallStep("sub_1", "Deploy", map[string]any{"target": "staging"}),
		testutil.TextStep("config is loaded in config/config.go"),
		// parent again
		testutil.TextStep("The loader lives in config/config.go."),
	)
	addTaskTool(t, f)

	out, err := f.engine.Submit(context.Background(), "where is the config loaded?")
	if err != nil {
		t.Fatal(err)
	}
	if out.State != StateDone {
		t.Fatalf("sub-agent calls must never suspend the parent, got %s", out.State)
	}
	if f.rec.count() != 1 {
		t.Errorf("gated tool inside the task ran %d times, want 1", f.rec.count())
	}

	parent := f.engine.Log().Snapshot()
	var taskNotices, taskResults int
	for _, m := range parent {
		if m.InfoKind() == message.InfoTask {
			taskNotices++
			if m.Parts[0].Text != "task(find the config loader) created" {
				t.Errorf("notice: %q", m.Parts[0].Text)
			}
		}
		for _, p := range m.Parts {
			if p.Type == message.PartToolResult && p.ToolCallID == "call_task" {
				taskResults++
				res, ok := p.Result.(TaskResult)
				if !ok || res.Text != "config is loaded in config/config.go" || res.Error != "" {
					t.Errorf("task result: %#v", p.Result)
				}
				if p.Title != "find the config loader" {
					t.Errorf("task title: %q", p.Title)
				}
			}
			if p.ToolCallID == "sub_1" {
				t.Error("sub-agent entries leaked into the parent log")
			}
		}
	}
	if taskNotices != 1 || taskResults != 1 {
		t.Errorf("parent log: %d task notices, %d task results", taskNotices, taskResults)
	}

	reqs := f.provider.Requests()
	if len(reqs) != 4 {
		t.Fatalf("model calls: got %d, want 4", len(reqs))
	}

	for _, req := range reqs[1:3] {
		sub := req.Messages
		if sub[0].Role != message.RoleSystem || sub[0].Text != "sub-agent system" {
			t.Errorf("sub-agent log must start with its own system entry: %+v", sub[0])
		}
		if sub[1].Role != message.RoleUser || sub[1].Text != "find the config loader" {
			t.Errorf("sub-agent user entry: %+v", sub[1])
		}
		for _, m := range sub {
			if m.Text == "where is the config loaded?" || m.Text == "You are a test assistant." {
				t.Errorf("parent entry in the sub-agent log: %q", m.Text)
			}
		}
		for _, def := range req.Tools {
			if def.Name == TaskToolName {
				t.Error("the sub-agent must not be offered the Task tool")
			}
		}
	}

	if !slices.ContainsFunc(reqs[0].Tools, func(d mcp.Tool) bool { return d.Name == TaskToolName }) {
		t.Error("the parent should be offered the Task tool")
	}
}

func TestTaskToolSubAgentFailure(t *testing.T) {
	f := newFixture(t, Options{},
		testutil.ToolCallStep("call_task", "Task", map[string]any{"prompt": "summarize"}),
		testutil.Step{Err: errors.New("upstream timeout")},
		testutil.TextStep("The sub-agent failed."),
	)
	addTaskTool(t, f)

	if _, err := f.engine.Submit(context.Background(), "go"); err != nil {
		t.Fatal(err)
	}

	for _, m := range f.engine.Log().Snapshot() {
		for _, p := range m.Parts {
			if p.ToolCallID != "call_task" || p.Type != message.PartToolResult {
				continue
			}
			res := p.Result.(TaskResult)
			if res.Text != "Unknown error: upstream timeout" {
				t.Errorf("task text: %q", res.Text)
			}
		}
	}
}

func TestDescribeTask(t *testing.T) {
	tests := []struct {
		name   string
		result any
		want   string
	}{
		{name: "text", result: TaskResult{Text: "found it"}, want: "found it"},
		{name: "error", result: TaskResult{Error: "Failed to run task: boom"}, want: "Failed to run task: boom"},
		{name: "registry failure", result: tools.Failure{Error: "tool Task crashed"}, want: "tool Task crashed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := describeTask(map[string]any{"prompt": "look around"}, tt.result)
			if d.Title != "look around" || d.Text != tt.want {
				t.Errorf("got %+v", d)
			}
		})
	}
}
