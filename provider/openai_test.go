package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatcli/message"
)

// sseChunk renders one chat.completion.chunk event.
func sseChunk(t *testing.T, delta map[string]any, finish string) string {
	t.Helper()
	choice := map[string]any{"index": 0, "delta": delta}
	if finish != "" {
		choice["finish_reason"] = finish
	}
	data, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "test-model",
		"choices": []any{choice},
	})
	if err != nil {
		t.Fatal(err)
	}
	return "data: " + string(data) + "\n\n"
}

func TestOpenRouterStreaming(t *testing.T) {
	tests := []struct {
		name     string
		events   func(t *testing.T) []string
		validate func(t *testing.T, resp *Response, chunks []string, err error)
	}{
		{
			name: "text response",
			events: func(t *testing.T) []string {
				return []string{
					sseChunk(t, map[string]any{"role": "assistant", "content": "Hel"}, ""),
					sseChunk(t, map[string]any{"content": "lo"}, ""),
					sseChunk(t, map[string]any{}, "stop"),
				}
			},
			validate: func(t *testing.T, resp *Response, chunks []string, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if strings.Join(chunks, "") != "Hello" || resp.Text != "Hello" {
					t.Errorf("got chunks %v, text %q", chunks, resp.Text)
				}
				if resp.FinishReason != FinishStop {
					t.Errorf("finish reason: got %q", resp.FinishReason)
				}
			},
		},
		{
			name: "tool call response",
			events: func(t *testing.T) []string {
				return []string{
					sseChunk(t, map[string]any{"role": "assistant", "tool_calls": []any{map[string]any{
						"index": 0, "id": "call_abc", "type": "function",
						"function": map[string]any{"name": "Glob", "arguments": `{"pattern":`},
					}}}, ""),
					sseChunk(t, map[string]any{"tool_calls": []any{map[string]any{
						"index": 0, "function": map[string]any{"arguments": ` "*.md"}`},
					}}}, ""),
					sseChunk(t, map[string]any{}, "tool_calls"),
				}
			},
			validate: func(t *testing.T, resp *Response, chunks []string, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if resp.FinishReason != FinishToolCalls {
					t.Errorf("finish reason: got %q", resp.FinishReason)
				}
				want := message.ToolCall{ID: "call_abc", Name: "Glob", Args: map[string]any{"pattern": "*.md"}}
				if len(resp.ToolCalls) != 1 {
					t.Fatalf("tool calls: got %+v", resp.ToolCalls)
				}
				got := resp.ToolCalls[0]
				if got.ID != want.ID || got.Name != want.Name || got.Args["pattern"] != "*.md" {
					t.Errorf("tool call: got %+v, want %+v", got, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTitle string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotTitle = r.Header.Get("X-Title")
				_, _ = io.Copy(io.Discard, r.Body)
				w.Header().Set("Content-Type", "text/event-stream")
				for _, ev := range tt.events(t) {
					fmt.Fprint(w, ev)
				}
				fmt.Fprint(w, "data: [DONE]\n\n")
			}))
			defer server.Close()

			p, err := NewOpenRouterProvider(server.URL, "test-key", "test/model")
			if err != nil {
				t.Fatalf("NewOpenRouterProvider: %v", err)
			}

			var chunks []string
			resp, err := p.ChatWithTools(context.Background(), Request{
				Messages: []message.Message{message.User("hi")},
			}, func(c string) { chunks = append(chunks, c) })
			tt.validate(t, resp, chunks, err)

			if gotTitle != "chat-cli" {
				t.Errorf("X-Title header: got %q", gotTitle)
			}
		})
	}
}

func TestOpenRouterUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"No auth credentials found","code":401}}`)
	}))
	defer server.Close()

	p, err := NewOpenRouterProvider(server.URL, "", "test/model")
	if err != nil {
		t.Fatalf("NewOpenRouterProvider: %v", err)
	}

	_, err = p.ChatWithTools(context.Background(), Request{
		Messages: []message.Message{message.User("hi")},
	}, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsUnauthorized(err) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}
