package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		model    string
		validate func(t *testing.T, c *Client)
	}{
		{
			name: "defaults",
			validate: func(t *testing.T, c *Client) {
				if c.BaseURL() != DefaultHost || c.GetModel() != DefaultModel {
					t.Errorf("got %s %s", c.BaseURL(), c.GetModel())
				}
			},
		},
		{
			name:    "bare host gets a scheme",
			baseURL: "127.0.0.1:11434",
			model:   "qwen3",
			validate: func(t *testing.T, c *Client) {
				if c.BaseURL() != "http://127.0.0.1:11434" {
					t.Errorf("BaseURL = %s", c.BaseURL())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL, tt.model)
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			tt.validate(t, c)
		})
	}
}

func TestModelSupportsToolCalling(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"qwen3-coder:30b", true},
		{"llama3.1:latest", true},
		{"Llama3.2", true},
		{"llama3:8b", false},
		{"llama3-gradient", false},
		{"codellama:7b", false},
		{"gemma2", false},
		{"something-new", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := ModelSupportsToolCalling(tt.model); got != tt.want {
				t.Errorf("ModelSupportsToolCalling(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"models":[{"name":"qwen3:latest","size":100},{"name":"llama3.1:8b","size":200}]}`)
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "qwen3")
	if err != nil {
		t.Fatal(err)
	}

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0].Name != "qwen3:latest" || models[1].Size != 200 {
		t.Errorf("models = %+v", models)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestChatWithTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"model":"qwen3","message":{"role":"assistant","content":"Hi"},"done":false}`)
		fmt.Fprintln(w, `{"model":"qwen3","message":{"role":"assistant","content":" there"},"done":false}`)
		fmt.Fprintln(w, `{"model":"qwen3","message":{"role":"assistant","content":""},"done":true,"done_reason":"length","prompt_eval_count":7,"eval_count":3}`)
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "qwen3")
	if err != nil {
		t.Fatal(err)
	}

	var chunks []string
	res, err := c.ChatWithTools(context.Background(), nil, nil, nil, func(s string) { chunks = append(chunks, s) })
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if res.Content != "Hi there" || len(chunks) != 2 {
		t.Errorf("content %q, chunks %v", res.Content, chunks)
	}
	if res.DoneReason != "length" || res.PromptEvalCount != 7 || res.EvalCount != 3 {
		t.Errorf("result = %+v", res)
	}
}
