package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatcli/message"
)

// TestOllamaProviderImplementsInterface is a compile-time check that OllamaProvider
// implements the Provider interface.
func TestOllamaProviderImplementsInterface(t *testing.T) {
	var _ Provider = (*OllamaProvider)(nil)
	var _ Provider = (*OpenRouterProvider)(nil)
	var _ Provider = (*OpenAIProvider)(nil)
	var _ Provider = (*AnthropicProvider)(nil)
}

func TestOllamaProviderChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []string{
			`{"model":"qwen3","message":{"role":"assistant","content":"Look"},"done":false}`,
			`{"model":"qwen3","message":{"role":"assistant","content":"ing"},"done":false}`,
			`{"model":"qwen3","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"Glob","arguments":{"pattern":"*.md"}}}]},"done":false}`,
			`{"model":"qwen3","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":12,"eval_count":5}`,
		}
		fmt.Fprint(w, strings.Join(lines, "\n")+"\n")
	}))
	defer server.Close()

	p, err := NewOllamaProvider(server.URL, "qwen3")
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}

	var chunks []string
	resp, err := p.ChatWithTools(context.Background(), Request{
		Messages: []message.Message{message.User("find markdown")},
	}, func(c string) { chunks = append(chunks, c) })
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}

	if resp.Text != "Looking" || len(chunks) != 2 {
		t.Errorf("got text %q, chunks %v", resp.Text, chunks)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("tool calls: got %+v", resp.ToolCalls)
	}
	call := resp.ToolCalls[0]
	if call.Name != "Glob" || call.Args["pattern"] != "*.md" {
		t.Errorf("tool call: got %+v", call)
	}
	if !strings.HasPrefix(call.ID, "call_") {
		t.Errorf("tool call id should be synthesized, got %q", call.ID)
	}
	// done_reason "stop" is overridden because tool calls are present.
	if resp.FinishReason != FinishToolCalls {
		t.Errorf("finish reason: got %q", resp.FinishReason)
	}
	if resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 5 || resp.Usage.TotalTokens != 17 {
		t.Errorf("usage: got %+v", resp.Usage)
	}
}
