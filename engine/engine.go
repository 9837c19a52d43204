// Package engine drives the model through a multi-step, tool-using turn.
//
// A turn is a loop of steps. Each step sends the whole log to the provider,
// appends what came back, and runs the requested tools. Calls to gated tools
// suspend the turn until the caller resolves them. The Task tool runs a
// nested engine on a private log with approvals disabled.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"chatcli/config"
	"chatcli/message"
	"chatcli/provider"
	"chatcli/tools"
)

const (
	DefaultMaxSteps = 100

	maxStepText = "reach max step, continue?"
)

type State int

const (
	StateIdle State = iota
	StateStreaming
	StateAwaitingApproval
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateAwaitingApproval:
		return "awaiting-approval"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether a turn is in flight or suspended.
func (s State) Busy() bool {
	return s == StateStreaming || s == StateAwaitingApproval
}

// ChunkFunc receives each streamed token, the text accumulated so far in the
// step, and a rough token estimate of that text.
type ChunkFunc func(token, accumulated string, estimatedTokens int)

// Outcome is where a call into the engine left the turn.
type Outcome struct {
	State State
	// Pending is the call waiting for approval, set only in
	// StateAwaitingApproval.
	Pending *message.ToolCall
}

// Options is everything one engine needs. Log, Provider and Registry are
// required.
type Options struct {
	Provider provider.Provider
	Registry *tools.Registry
	// Gate defaults to NewGate(Registry). Ignored when IsTask is set.
	Gate     *Gate
	Log      *message.Log
	Config   *config.Config
	MaxSteps int
	// IsTask runs every call inline with no approval.
	IsTask  bool
	WorkDir string

	OnChunk  ChunkFunc
	OnChange func([]message.Message)
}

// pendingCall is a gated call plus the calls of the same step after it.
type pendingCall struct {
	call message.ToolCall
	rest []message.ToolCall
}

type Engine struct {
	provider provider.Provider
	registry *tools.Registry
	gate     *Gate
	log      *message.Log
	cfg      *config.Config
	maxSteps int
	isTask   bool
	workDir  string
	onChunk  ChunkFunc

	mu      sync.Mutex
	state   State
	pending *pendingCall
	cancel  context.CancelFunc

	// steps counts model calls in the current turn. Resolve continues the
	// count; only Submit and Run start it again.
	steps int
}

func New(opts Options) *Engine {
	e := &Engine{
		provider: opts.Provider,
		registry: opts.Registry,
		gate:     opts.Gate,
		log:      opts.Log,
		cfg:      opts.Config,
		maxSteps: opts.MaxSteps,
		isTask:   opts.IsTask,
		workDir:  opts.WorkDir,
		onChunk:  opts.OnChunk,
	}

	if e.registry == nil {
		e.registry = tools.NewRegistry()
	}
	if e.gate == nil {
		e.gate = NewGate(e.registry)
	}
	if e.log == nil {
		e.log = message.NewLog()
	}
	if e.maxSteps <= 0 && e.cfg != nil {
		e.maxSteps = e.cfg.MaxSteps
	}
	if e.maxSteps <= 0 {
		e.maxSteps = DefaultMaxSteps
	}
	if e.workDir == "" {
		e.workDir, _ = os.Getwd()
	}
	if opts.OnChange != nil {
		e.log.Subscribe(opts.OnChange)
	}

	return e
}

// Submit appends a user entry and runs a turn.
func (e *Engine) Submit(ctx context.Context, text string) (Outcome, error) {
	return e.SubmitMessage(ctx, message.User(text))
}

// SubmitMessage appends msg and runs a turn. Commands use it to submit
// prebuilt entries.
func (e *Engine) SubmitMessage(ctx context.Context, msg message.Message) (Outcome, error) {
	ctx, err := e.begin(ctx)
	if err != nil {
		return e.Outcome(), err
	}
	e.log.Append(msg)

	ctx, span := e.startRunSpan(ctx, "submit")
	out := e.loop(ctx)
	endRunSpan(span, out)
	return out, nil
}

// Run starts a turn on the log as it stands, for example to continue after
// the step budget ran out.
func (e *Engine) Run(ctx context.Context) (Outcome, error) {
	ctx, err := e.begin(ctx)
	if err != nil {
		return e.Outcome(), err
	}

	ctx, span := e.startRunSpan(ctx, "run")
	out := e.loop(ctx)
	endRunSpan(span, out)
	return out, nil
}

// Resolve answers the pending approval and resumes the turn.
func (e *Engine) Resolve(ctx context.Context, d Decision) (Outcome, error) {
	e.mu.Lock()
	if e.state != StateAwaitingApproval || e.pending == nil {
		e.mu.Unlock()
		return e.Outcome(), ErrNoPendingApproval
	}
	p := e.pending
	e.pending = nil
	ctx = e.startLocked(ctx)
	e.mu.Unlock()

	ctx, span := e.startRunSpan(ctx, "resolve")
	out := e.resolve(ctx, p, d)
	endRunSpan(span, out)
	return out, nil
}

func (e *Engine) resolve(ctx context.Context, p *pendingCall, d Decision) Outcome {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Engine] %s %s (%s)", d, p.call.Name, p.call.ID)
	}

	switch d {
	case AcceptAndEnableAuto:
		e.gate.SetAutoAccept(true)
		fallthrough
	case Accept:
		part, err := e.execute(ctx, p.call)
		if err != nil {
			e.log.Append(e.dispatchFailure(err))
			return e.finish(StateFailed)
		}
		e.log.Append(message.ToolResults(part))
	default:
		e.log.Append(message.Assistant(fmt.Sprintf("Tool call %s was declined by user.", p.call.Name)))
	}

	if out, stop := e.dispatch(ctx, p.rest); stop {
		return out
	}
	return e.loop(ctx)
}

// Cancel aborts the in-flight model call. Text streamed so far is dropped
// and the log is left as it was before the call. Running tools are not
// interrupted.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pending returns the call waiting for approval.
func (e *Engine) Pending() (message.ToolCall, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return message.ToolCall{}, false
	}
	return e.pending.call, true
}

func (e *Engine) Outcome() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcomeLocked()
}

func (e *Engine) outcomeLocked() Outcome {
	out := Outcome{State: e.state}
	if e.pending != nil {
		call := e.pending.call
		out.Pending = &call
	}
	return out
}

func (e *Engine) AutoAccept() bool       { return e.gate.AutoAccept() }
func (e *Engine) SetAutoAccept(on bool)  { e.gate.SetAutoAccept(on) }
func (e *Engine) ToggleAutoAccept() bool { return e.gate.ToggleAutoAccept() }

func (e *Engine) Log() *message.Log        { return e.log }
func (e *Engine) Registry() *tools.Registry { return e.registry }

// Reset replaces the log with a single system entry.
func (e *Engine) Reset(system string) error {
	e.mu.Lock()
	if e.state.Busy() {
		e.mu.Unlock()
		return ErrBusy
	}
	e.state = StateIdle
	e.mu.Unlock()

	// Observers may call back into the engine.
	e.log.Reset(system)
	return nil
}

func (e *Engine) begin(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Busy() {
		return ctx, ErrBusy
	}
	e.steps = 0
	return e.startLocked(ctx), nil
}

func (e *Engine) startLocked(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	e.state = StateStreaming
	e.cancel = cancel
	return ctx
}

func (e *Engine) finish(s State) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	return e.outcomeLocked()
}

func (e *Engine) suspend(call message.ToolCall, rest []message.ToolCall) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateAwaitingApproval
	e.pending = &pendingCall{call: call, rest: rest}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Engine] awaiting approval for %s (%s)", call.Name, call.ID)
	}
	return e.outcomeLocked()
}

func (e *Engine) loop(ctx context.Context) Outcome {
	for e.steps < e.maxSteps {
		index := e.steps
		e.steps++
		out, stop := e.step(ctx, index)
		if stop {
			return out
		}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Engine] step budget of %d exhausted", e.maxSteps)
	}
	e.log.Append(message.Info(message.InfoMaxStep, maxStepText))
	return e.finish(StateDone)
}

// step runs one model call and its tool calls. stop is false when the model
// asked for tools and every call was answered.
func (e *Engine) step(ctx context.Context, index int) (out Outcome, stop bool) {
	ctx, span := startStepSpan(ctx, index)

	req := provider.Request{
		Messages: message.ForModel(e.log.Snapshot()),
		Tools:    e.registry.Definitions(),
	}
	if e.cfg != nil {
		req.Temperature = e.cfg.Temperature
		req.MaxTokens = e.cfg.MaxTokens
	}

	var acc strings.Builder
	resp, err := e.provider.ChatWithTools(ctx, req, func(chunk string) {
		acc.WriteString(chunk)
		if e.onChunk != nil {
			text := acc.String()
			e.onChunk(chunk, text, estimateTokens(text))
		}
	})

	if ctx.Err() != nil {
		endStepSpan(span, "", 0, ctx.Err())
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Engine] step %d cancelled, dropped %d streamed bytes", index, acc.Len())
		}
		return e.finish(StateIdle), true
	}
	if err != nil {
		endStepSpan(span, provider.FinishError, 0, err)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Engine] step %d failed: %v", index, err)
		}
		e.log.Append(message.Assistant(failureText(err, e.cfg)))
		return e.finish(StateFailed), true
	}
	endStepSpan(span, resp.FinishReason, len(resp.ToolCalls), nil)

	var entries []message.Message
	if resp.Text != "" {
		entries = append(entries, message.Assistant(resp.Text))
	}
	if len(resp.ToolCalls) > 0 {
		entries = append(entries, message.AssistantToolCalls(resp.ToolCalls))
	}
	if config.Debug {
		entries = append(entries,
			message.Info(message.InfoFinishReason, string(resp.FinishReason)),
			message.Info(message.InfoUsage, fmt.Sprintf("prompt %d, completion %d, total %d",
				resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)),
		)
	}
	e.log.Append(entries...)

	if out, stop := e.dispatch(ctx, resp.ToolCalls); stop {
		return out, true
	}

	if resp.FinishReason != provider.FinishToolCalls {
		return e.finish(StateDone), true
	}
	return Outcome{}, false
}

// dispatch runs calls in order. Results gathered before a gated call are
// logged, then the turn suspends on that call with the rest kept for after
// the decision. Arguments are validated first, so an approval is never
// asked for a call the registry would reject. stop is true when the turn
// suspended or failed.
func (e *Engine) dispatch(ctx context.Context, calls []message.ToolCall) (out Outcome, stop bool) {
	var results []message.Part
	flush := func() {
		if len(results) > 0 {
			e.log.Append(message.ToolResults(results...))
			results = nil
		}
	}

	for i, call := range calls {
		if err := e.registry.Validate(call.Name, call.Args); err != nil {
			flush()
			e.log.Append(e.dispatchFailure(err))
			return e.finish(StateFailed), true
		}
		if !e.isTask && e.gate.IsGated(call.Name) {
			flush()
			return e.suspend(call, calls[i+1:]), true
		}

		part, err := e.execute(ctx, call)
		if err != nil {
			flush()
			e.log.Append(e.dispatchFailure(err))
			return e.finish(StateFailed), true
		}
		results = append(results, part)
	}

	flush()
	return Outcome{}, false
}

// dispatchFailure is logged when the registry rejects a call outright.
func (e *Engine) dispatchFailure(err error) message.Message {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Engine] dispatch failed: %v", err)
	}
	var argErr *tools.ArgumentError
	if errors.As(err, &argErr) {
		return message.Assistant(argErr.Error())
	}
	return message.Info(message.InfoError, toolFailureText(err))
}

// execute runs one call to completion. Cancelling the turn does not reach
// the tool.
func (e *Engine) execute(ctx context.Context, call message.ToolCall) (message.Part, error) {
	ctx, span := startToolSpan(context.WithoutCancel(ctx), call)

	result, err := e.registry.Execute(ctx, call.Name, call.Args, e.toolContext())
	endToolSpan(span, err)
	if err != nil {
		return message.Part{}, err
	}

	d := e.registry.Describe(call.Name, call.Args, result)
	return message.ToolResult(call, result, d.Title, d.Text), nil
}

func (e *Engine) toolContext() tools.Context {
	return tools.Context{
		Config:  e.cfg,
		WorkDir: e.workDir,
		Emit:    func(m message.Message) { e.log.Append(m) },
	}
}

func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
