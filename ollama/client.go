package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3.1:latest"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

// ChatResult is the accumulated outcome of one streamed chat call.
type ChatResult struct {
	Content         string
	ToolCalls       []api.ToolCall
	DoneReason      string
	PromptEvalCount int
	EvalCount       int
}

// Model is one locally installed model.
type Model struct {
	Name string
	Size int64
}

// NewClient creates a client for the Ollama server at baseURL. A bare
// host:port (as OLLAMA_HOST is often written) gets an http scheme.
func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultHost
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if model == "" {
		model = DefaultModel
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(parsedURL, http.DefaultClient)

	return &Client{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// ChatWithTools streams a chat request with optional tool definitions.
// onChunk receives each content delta; tool calls and the done reason are
// gathered into the returned ChatResult.
func (c *Client) ChatWithTools(ctx context.Context, messages []api.Message, tools []api.Tool, options map[string]any, onChunk func(string)) (*ChatResult, error) {
	stream := true
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
		Stream:   &stream,
		Options:  options,
	}

	result := &ChatResult{}
	var content strings.Builder

	respFunc := func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			content.WriteString(resp.Message.Content)
			if onChunk != nil {
				onChunk(resp.Message.Content)
			}
		}
		result.ToolCalls = append(result.ToolCalls, resp.Message.ToolCalls...)
		if resp.Done {
			result.DoneReason = resp.DoneReason
			result.PromptEvalCount = resp.PromptEvalCount
			result.EvalCount = resp.EvalCount
		}
		return nil
	}

	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return nil, err
	}

	result.Content = content.String()
	return result, nil
}

func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]Model, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = Model{Name: m.Name, Size: m.Size}
	}

	return models, nil
}

func (c *Client) SetModel(model string) {
	c.model = model
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}

// toolCallingModels tracks which model families support tool calling.
// Curated from Ollama documentation and community testing.
var toolCallingModels = map[string]bool{
	"qwen":      true, // qwen2.5-coder, qwen3-coder
	"llama3.1":  true,
	"llama3.2":  true,
	"llama3.3":  true,
	"mistral":   true, // mistral, mistral-nemo
	"command-r": true,
	"nemotron":  true,
	"granite3":  true,
	"gpt-oss":   true,

	"llama3-gradient": false,
	"llama3":          false, // original llama3, not 3.1+
	"phi":             false,
	"gemma":           false,
	"codellama":       false,
	"deepseek":        false,
}

// orderedPrefixes is checked most specific first so "llama3.2" is not
// matched as generic "llama3".
var orderedPrefixes = []string{
	"llama3.3", "llama3.2", "llama3.1",
	"llama3-gradient",
	"command-r", "qwen", "mistral", "nemotron", "granite3", "gpt-oss",
	"codellama",
	"llama3",
	"deepseek", "phi", "gemma",
}

// SupportsToolCalling reports whether the current model is known to support
// Ollama's tool calling API.
func (c *Client) SupportsToolCalling() bool {
	return ModelSupportsToolCalling(c.model)
}

// ModelSupportsToolCalling checks a model name against the capability table.
// Unknown models are assumed to lack tool support.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)

	for _, prefix := range orderedPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			if supported, exists := toolCallingModels[prefix]; exists {
				return supported
			}
		}
	}

	return false
}
