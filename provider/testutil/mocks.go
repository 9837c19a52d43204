package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chatcli/message"
	"chatcli/provider"
)

// MockProvider implements provider.Provider interface for testing
type MockProvider struct {
	// Configurable responses
	ChatWithToolsFunc func(ctx context.Context, req provider.Request, callback provider.StreamCallback) (*provider.Response, error)
	ListModelsFunc    func(ctx context.Context) ([]provider.ModelInfo, error)
	PingFunc          func(ctx context.Context) error

	// State
	currentModel string
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		currentModel: modelName,
	}
	mock.ChatWithToolsFunc = mock.defaultChatWithTools
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

func (m *MockProvider) defaultChatWithTools(ctx context.Context, req provider.Request, callback provider.StreamCallback) (*provider.Response, error) {
	text := "Mock response"
	if len(req.Tools) > 0 {
		text = "Mock response with tools"
	}
	if callback != nil {
		callback(text)
	}
	return &provider.Response{Text: text, FinishReason: provider.FinishStop}, nil
}

func (m *MockProvider) defaultListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{
		{Name: "mock-model-1", InternalName: "mock/mock-model-1", Size: 1000},
		{Name: "mock-model-2", InternalName: "mock/mock-model-2", Size: 2000},
	}, nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) ChatWithTools(ctx context.Context, req provider.Request, callback provider.StreamCallback) (*provider.Response, error) {
	return m.ChatWithToolsFunc(ctx, req, callback)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) GetDisplayName() string {
	// Mock provider returns same value as GetModel (no prefix stripping)
	return m.currentModel
}

func (m *MockProvider) SetModel(model string) {
	m.currentModel = model
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// Step is one canned model response replayed by ScriptedProvider.
type Step struct {
	// Chunks are streamed to the callback in order; Text is used when empty.
	Chunks       []string
	Text         string
	ToolCalls    []message.ToolCall
	FinishReason provider.FinishReason
	Err          error

	// Block makes the call wait for context cancellation after streaming
	// Chunks, then fail with the context error.
	Block bool
}

// ScriptedProvider replays a queue of Steps, one per ChatWithTools call, and
// records every request. When the script runs out, Fallback is used if set;
// otherwise the call fails.
type ScriptedProvider struct {
	MockProvider

	mu       sync.Mutex
	steps    []Step
	requests []provider.Request
	Fallback *Step
}

// NewScriptedProvider creates a provider that answers with steps in order.
func NewScriptedProvider(steps ...Step) *ScriptedProvider {
	s := &ScriptedProvider{steps: steps}
	s.MockProvider = *NewMockProvider("scripted-model")
	return s
}

// Push appends steps to the script.
func (s *ScriptedProvider) Push(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, steps...)
}

// Requests returns a copy of every request received so far.
func (s *ScriptedProvider) Requests() []provider.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]provider.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls reports how many model calls were made.
func (s *ScriptedProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *ScriptedProvider) ChatWithTools(ctx context.Context, req provider.Request, callback provider.StreamCallback) (*provider.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	var step Step
	switch {
	case len(s.steps) > 0:
		step = s.steps[0]
		s.steps = s.steps[1:]
	case s.Fallback != nil:
		step = *s.Fallback
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("scripted provider: no response left for call %d", len(s.requests))
	}
	s.mu.Unlock()

	chunks := step.Chunks
	if len(chunks) == 0 && step.Text != "" {
		chunks = []string{step.Text}
	}
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if callback != nil {
			callback(c)
		}
	}

	if step.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if step.Err != nil {
		return nil, step.Err
	}

	finish := step.FinishReason
	if finish == "" {
		finish = provider.FinishStop
		if len(step.ToolCalls) > 0 {
			finish = provider.FinishToolCalls
		}
	}
	return &provider.Response{
		Text:         strings.Join(chunks, ""),
		ToolCalls:    step.ToolCalls,
		FinishReason: finish,
	}, nil
}

// ToolCallStep is a Step requesting a single tool call.
func ToolCallStep(id, name string, args map[string]any) Step {
	return Step{ToolCalls: []message.ToolCall{{ID: id, Name: name, Args: args}}}
}

// TextStep is a Step answering with plain text.
func TextStep(text string) Step {
	return Step{Text: text}
}
