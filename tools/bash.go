package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultBashTimeout = 30 * time.Second

const bashDescription = `Execute a shell command and return its output and exit status.

Before executing the command:
- If the command will create directories or files, first use LS to verify the parent directory exists.
- Quote file paths that contain spaces with double quotes.

Usage notes:
- Avoid search commands like "find" and "grep"; use Grep and Glob instead.
- Avoid "cat", "head", "tail" and "ls"; use ReadFile and LS instead.
- Use WriteFile and UpdateFile to change files.
- Combine related commands with && to save steps, e.g. "git status && git diff HEAD".
- Never push to a remote repository unless the user explicitly asks.`

// BashResult is returned to the model for every Bash call.
type BashResult struct {
	Command  string `json:"command"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	Success  bool   `json:"success"`
}

func NewBashTool() *Tool {
	def := mcp.NewTool("Bash",
		mcp.WithDescription(bashDescription),
		mcp.WithString("command", mcp.Required(), mcp.Description("The shell command to execute")),
		mcp.WithNumber("timeout", mcp.Description("Timeout in milliseconds (default: 30000)")),
	)
	return New(def, executeBash).WithDescriber(describeBash).Gated()
}

func executeBash(ctx context.Context, args map[string]any, tctx Context) (any, error) {
	command := stringArg(args, "command")
	timeout := defaultBashTimeout
	if ms := intArg(args, "timeout", 0); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shell(), "-c", command)
	cmd.Dir = workDir(tctx)
	cmd.Env = os.Environ()
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := BashResult{
		Command: command,
		Stdout:  strings.TrimSpace(stdout.String()),
		Stderr:  strings.TrimSpace(stderr.String()),
		Success: err == nil,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.Stderr = joinNonEmpty(result.Stderr, fmt.Sprintf("command timed out after %s", timeout))
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = 1
		result.Stderr = joinNonEmpty(result.Stderr, err.Error())
	}

	return result, nil
}

func describeBash(args map[string]any, result any) Description {
	d := Description{Title: stringArg(args, "command")}
	r, ok := result.(BashResult)
	if !ok {
		return defaultDescription(d.Title, result)
	}
	if !r.Success {
		d.Text = fmt.Sprintf("Command failed (exit code: %d)", r.ExitCode)
		return d
	}
	out := r.Stdout
	if out == "" {
		out = r.Stderr
	}
	d.Text = truncateLines(out, 5)
	return d
}

func shell() string {
	if path, err := exec.LookPath("bash"); err == nil {
		return path
	}
	return "sh"
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}
