package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

type ReadFileResult struct {
	Success    bool   `json:"success"`
	Text       string `json:"text"`
	LineCount  int    `json:"lineCount,omitempty"`
	TotalLines int    `json:"totalLines,omitempty"`
}

type WriteFileResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Lines   int    `json:"lines,omitempty"`
}

// UpdateFileResult reports an UpdateFile call. Replaced is false when
// oldString was not found; the file is then left untouched and the call
// still succeeds.
type UpdateFileResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Replaced bool   `json:"replaced"`
}

func NewReadFileTool() *Tool {
	def := mcp.NewTool("ReadFile",
		mcp.WithDescription("Read a file from the local filesystem with optional line range support"),
		mcp.WithString("path", mcp.Required(), mcp.Description("The path to the file to read")),
		mcp.WithNumber("offset", mcp.Description("The line number to start reading from (1-indexed)")),
		mcp.WithNumber("limit", mcp.Description("The maximum number of lines to read")),
	)
	return New(def, executeReadFile).WithDescriber(describeReadFile)
}

func executeReadFile(_ context.Context, args map[string]any, tctx Context) (any, error) {
	path := resolvePath(tctx, stringArg(args, "path"))

	data, err := os.ReadFile(path)
	if err != nil {
		return ReadFileResult{Success: false, Text: fmt.Sprintf("Failed to read file: %v", err)}, nil
	}

	lines := strings.Split(string(data), "\n")
	start := 0
	if offset := intArg(args, "offset", 0); offset > 0 {
		start = min(offset-1, len(lines))
	}
	end := len(lines)
	if limit := intArg(args, "limit", 0); limit > 0 {
		end = min(start+limit, len(lines))
	}

	selected := lines[start:end]
	return ReadFileResult{
		Success:    true,
		Text:       strings.Join(selected, "\n"),
		LineCount:  len(selected),
		TotalLines: len(lines),
	}, nil
}

func describeReadFile(args map[string]any, result any) Description {
	path := stringArg(args, "path")
	title := path
	offset, limit := intArg(args, "offset", 0), intArg(args, "limit", 0)
	if offset > 0 {
		title += fmt.Sprintf(", %d", offset)
	}
	if limit > 0 {
		title += fmt.Sprintf(", %d", limit)
	}

	r, ok := result.(ReadFileResult)
	if !ok {
		return defaultDescription(title, result)
	}
	if !r.Success {
		return Description{Title: title, Text: r.Text}
	}
	count := "all"
	if limit > 0 {
		count = fmt.Sprint(limit)
	}
	return Description{Title: title, Text: fmt.Sprintf("Read %s lines from %s", count, path)}
}

func NewWriteFileTool() *Tool {
	def := mcp.NewTool("WriteFile",
		mcp.WithDescription("Write content to a file on the local filesystem, replacing it entirely"),
		mcp.WithString("path", mcp.Required(), mcp.Description("The path to the file to write")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The content to write to the file")),
	)
	return New(def, executeWriteFile).WithDescriber(describeWriteFile).Gated()
}

func executeWriteFile(_ context.Context, args map[string]any, tctx Context) (any, error) {
	path := resolvePath(tctx, stringArg(args, "path"))
	content := stringArg(args, "content")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return WriteFileResult{Success: false, Message: fmt.Sprintf("Failed to write file: %v", err)}, nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return WriteFileResult{Success: false, Message: fmt.Sprintf("Failed to write file: %v", err)}, nil
	}

	return WriteFileResult{
		Success: true,
		Message: fmt.Sprintf("File written successfully to %s", path),
		Lines:   strings.Count(content, "\n") + 1,
	}, nil
}

func describeWriteFile(args map[string]any, result any) Description {
	path := stringArg(args, "path")
	r, ok := result.(WriteFileResult)
	if !ok {
		return defaultDescription(path, result)
	}
	if !r.Success {
		return Description{Title: path, Text: r.Message}
	}
	return Description{Title: path, Text: fmt.Sprintf("Wrote %d lines to %s", r.Lines, path)}
}

func NewUpdateFileTool() *Tool {
	def := mcp.NewTool("UpdateFile",
		mcp.WithDescription("Replace the first occurrence of oldString with newString in a file"),
		mcp.WithString("path", mcp.Required(), mcp.Description("The path to the file to update")),
		mcp.WithString("oldString", mcp.Required(), mcp.Description("The exact text to replace")),
		mcp.WithString("newString", mcp.Required(), mcp.Description("The replacement text")),
	)
	return New(def, executeUpdateFile).WithDescriber(describeUpdateFile).Gated()
}

func executeUpdateFile(_ context.Context, args map[string]any, tctx Context) (any, error) {
	path := resolvePath(tctx, stringArg(args, "path"))
	oldString := stringArg(args, "oldString")
	newString := stringArg(args, "newString")

	info, err := os.Stat(path)
	if err != nil {
		return UpdateFileResult{Success: false, Message: fmt.Sprintf("Failed to update file: %v", err)}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return UpdateFileResult{Success: false, Message: fmt.Sprintf("Failed to update file: %v", err)}, nil
	}

	content := string(data)
	if oldString == "" || !strings.Contains(content, oldString) {
		return UpdateFileResult{
			Success:  true,
			Message:  fmt.Sprintf("No match for oldString in %s; file left unchanged", path),
			Replaced: false,
		}, nil
	}

	updated := strings.Replace(content, oldString, newString, 1)
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return UpdateFileResult{Success: false, Message: fmt.Sprintf("Failed to update file: %v", err)}, nil
	}

	return UpdateFileResult{
		Success:  true,
		Message:  fmt.Sprintf("File updated successfully at %s", path),
		Replaced: true,
	}, nil
}

func describeUpdateFile(args map[string]any, result any) Description {
	path := stringArg(args, "path")
	r, ok := result.(UpdateFileResult)
	if !ok {
		return defaultDescription(path, result)
	}
	if !r.Success || !r.Replaced {
		return Description{Title: path, Text: r.Message}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Updated %s", path)
	for _, l := range strings.Split(stringArg(args, "oldString"), "\n") {
		b.WriteString("\n- " + l)
	}
	for _, l := range strings.Split(stringArg(args, "newString"), "\n") {
		b.WriteString("\n+ " + l)
	}
	return Description{Title: path, Text: b.String()}
}
