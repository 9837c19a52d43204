package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"chatcli/config"
)

const (
	fetchUserAgent = "Mozilla/5.0 (compatible; ChatCLI/1.0)"
	fetchTimeout   = 30 * time.Second
	maxFetchBytes  = 5 << 20
	maxFetchChars  = 100_000
)

type FetchResult struct {
	URL     string `json:"url"`
	Size    int    `json:"size"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// fetchClient is replaced in tests.
var fetchClient = &http.Client{Timeout: fetchTimeout}

func NewFetchTool() *Tool {
	def := mcp.NewTool("Fetch",
		mcp.WithDescription("Fetch a URL and return its visible text content with markup, scripts and styles removed"),
		mcp.WithString("url", mcp.Required(), mcp.Description("The http or https URL to fetch")),
	)
	return New(def, executeFetch).WithDescriber(describeFetch)
}

func executeFetch(ctx context.Context, args map[string]any, _ Context) (any, error) {
	raw := strings.TrimSpace(stringArg(args, "url"))

	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return FetchResult{URL: raw, Size: 0, Content: "Invalid URL format"}, nil
	}

	content, err := fetchText(ctx, u.String())
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Tools] fetch %s failed: %v", raw, err)
		}
		return FetchResult{URL: raw, Size: 0, Content: "Failed to fetch url", Error: err.Error()}, nil
	}

	if len(content) > maxFetchChars {
		content = content[:maxFetchChars]
	}
	return FetchResult{URL: raw, Size: len(content), Content: content}, nil
}

func fetchText(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := fetchClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "html") || looksLikeHTML(body) {
		title, text := extractHTML(string(body))
		if title != "" {
			text = "# " + strings.TrimSpace(title) + "\n\n" + text
		}
		return text, nil
	}
	return strings.TrimSpace(string(body)), nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func describeFetch(args map[string]any, result any) Description {
	target := stringArg(args, "url")
	r, ok := result.(FetchResult)
	if !ok {
		return defaultDescription(target, result)
	}
	if r.Size == 0 {
		return Description{Title: target, Text: r.Content}
	}
	return Description{Title: target, Text: fmt.Sprintf("Fetched %d characters from %s", r.Size, target)}
}
