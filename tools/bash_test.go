package tools

import (
	"context"
	"strings"
	"testing"
)

func TestExecuteBash(t *testing.T) {
	dir := t.TempDir()
	tctx := Context{WorkDir: dir}

	tests := []struct {
		name     string
		args     map[string]any
		validate func(t *testing.T, r BashResult)
	}{
		{
			name: "stdout captured and trimmed",
			args: map[string]any{"command": "echo hello"},
			validate: func(t *testing.T, r BashResult) {
				if !r.Success || r.ExitCode != 0 || r.Stdout != "hello" {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name: "runs in work dir",
			args: map[string]any{"command": "pwd"},
			validate: func(t *testing.T, r BashResult) {
				if !strings.HasSuffix(r.Stdout, strings.TrimPrefix(dir, "/private")) {
					t.Errorf("pwd = %q, want %q", r.Stdout, dir)
				}
			},
		},
		{
			name: "non-zero exit is a normal result",
			args: map[string]any{"command": "echo oops >&2; exit 3"},
			validate: func(t *testing.T, r BashResult) {
				if r.Success || r.ExitCode != 3 || r.Stderr != "oops" {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name: "timeout",
			args: map[string]any{"command": "sleep 5", "timeout": float64(100)},
			validate: func(t *testing.T, r BashResult) {
				if r.Success || !strings.Contains(r.Stderr, "timed out") {
					t.Errorf("result = %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := executeBash(context.Background(), tt.args, tctx)
			if err != nil {
				t.Fatalf("executeBash() error = %v", err)
			}
			tt.validate(t, res.(BashResult))
		})
	}
}

func TestDescribeBash(t *testing.T) {
	args := map[string]any{"command": "seq 7"}

	d := describeBash(args, BashResult{Success: true, Stdout: "1\n2\n\n3\n4\n5\n6\n7"})
	if d.Title != "seq 7" {
		t.Errorf("Title = %q", d.Title)
	}
	if d.Text != "1\n2\n3\n4\n5\n... (2 more lines)" {
		t.Errorf("Text = %q", d.Text)
	}

	d = describeBash(args, BashResult{Success: false, ExitCode: 2})
	if d.Text != "Command failed (exit code: 2)" {
		t.Errorf("failure Text = %q", d.Text)
	}
}
