package engine

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"chatcli/config"
	"chatcli/message"
	"chatcli/provider"
	"chatcli/tools"
)

const TaskToolName = "Task"

const taskDescription = `Launch a new agent that has access to the following tools: Bash, Glob, Grep, LS, ReadFile, UpdateFile, WriteFile, Fetch, WriteTodo.
When you are searching for a keyword or file and are not confident that you will find the right match in the first few tries, use the Task tool to perform the search for you.

When to use the Task tool:
- If you are searching for a keyword like "config" or "logger", or for questions like "which file does X?", the Task tool is strongly recommended

When NOT to use the Task tool:
- If you want to read a specific file path, use the ReadFile or Glob tool instead, to find the match more quickly
- If you are searching for a specific class definition like "class Foo", use the Glob tool instead
- If you are searching for code within a specific file or set of 2-3 files, use the ReadFile tool instead
- Writing code and running bash commands (use other tools for that)

Note:
- When the agent is done, it will return a single message back to you. The result returned by the agent is not visible to the user. To show the user the result, send a text message back to the user with a concise summary of the result.
- The agent's outputs should generally be trusted
- Clearly tell the agent whether you expect it to write code or just to do research (search, file reads, web fetches, etc.), since it is not aware of the user's intent`

// TaskOptions configures the sub-agent tool. Registry is the registry the
// tool is registered into; the nested engine gets it minus the Task tool.
type TaskOptions struct {
	Provider     provider.Provider
	Registry     *tools.Registry
	Config       *config.Config
	SystemPrompt func() string
	MaxSteps     int
}

// TaskResult is what the parent model receives from a sub-agent.
type TaskResult struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewTaskTool builds the sub-agent tool.
func NewTaskTool(opts TaskOptions) *tools.Tool {
	def := mcp.NewTool(TaskToolName,
		mcp.WithDescription(taskDescription),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The task for the agent to perform")),
	)

	return tools.New(def, func(ctx context.Context, args map[string]any, tctx tools.Context) (any, error) {
		prompt, _ := args["prompt"].(string)
		return runTask(ctx, opts, prompt, tctx), nil
	}).WithDescriber(describeTask)
}

func runTask(ctx context.Context, opts TaskOptions, prompt string, tctx tools.Context) TaskResult {
	if tctx.Emit != nil {
		tctx.Emit(message.Info(message.InfoTask, fmt.Sprintf("task(%s) created", prompt)))
	}

	system := ""
	if opts.SystemPrompt != nil {
		system = opts.SystemPrompt()
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = tctx.Config
	}

	registry := tools.NewRegistry()
	if opts.Registry != nil {
		registry = opts.Registry.Without(TaskToolName)
	}

	sub := New(Options{
		Provider: opts.Provider,
		Registry: registry,
		Log:      message.NewLog(message.System(system), message.User(prompt)),
		Config:   cfg,
		MaxSteps: opts.MaxSteps,
		IsTask:   true,
		WorkDir:  tctx.WorkDir,
	})

	ctx, span := tracer.Start(ctx, "engine.task")
	span.SetAttributes(attribute.String("task.prompt", truncate(prompt, 200)))
	defer span.End()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Engine] task started: %s", truncate(prompt, 80))
	}

	out, err := sub.Run(ctx)
	span.SetAttributes(attribute.String("engine.state", out.State.String()))
	if err != nil {
		span.RecordError(err)
		return TaskResult{Error: fmt.Sprintf("Failed to run task: %v", err)}
	}

	text := message.LastAssistantText(sub.Log().Snapshot())
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Engine] task finished (%s), %d bytes of output", out.State, len(text))
	}
	return TaskResult{Text: text}
}

func describeTask(args map[string]any, result any) tools.Description {
	prompt, _ := args["prompt"].(string)
	d := tools.Description{Title: prompt}
	switch r := result.(type) {
	case TaskResult:
		if r.Error != "" {
			d.Text = r.Error
		} else {
			d.Text = r.Text
		}
	case tools.Failure:
		d.Text = r.Error
	}
	return d
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
