package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "one\ntwo\nthree\nfour")
	tctx := Context{WorkDir: dir}

	tests := []struct {
		name     string
		args     map[string]any
		validate func(t *testing.T, r ReadFileResult)
	}{
		{
			name: "whole file",
			args: map[string]any{"path": path},
			validate: func(t *testing.T, r ReadFileResult) {
				if !r.Success || r.TotalLines != 4 || r.LineCount != 4 {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name: "offset and limit are 1-indexed",
			args: map[string]any{"path": "a.txt", "offset": float64(2), "limit": float64(2)},
			validate: func(t *testing.T, r ReadFileResult) {
				if r.Text != "two\nthree" || r.LineCount != 2 || r.TotalLines != 4 {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name: "offset past end",
			args: map[string]any{"path": path, "offset": float64(10)},
			validate: func(t *testing.T, r ReadFileResult) {
				if !r.Success || r.Text != "" || r.LineCount != 0 {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name: "missing file is a structured failure",
			args: map[string]any{"path": "missing.txt"},
			validate: func(t *testing.T, r ReadFileResult) {
				if r.Success || r.Text == "" {
					t.Errorf("result = %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := executeReadFile(context.Background(), tt.args, tctx)
			if err != nil {
				t.Fatal(err)
			}
			tt.validate(t, res.(ReadFileResult))
		})
	}
}

func TestDescribeReadFile(t *testing.T) {
	d := describeReadFile(map[string]any{"path": "a.go", "offset": float64(3), "limit": float64(10)}, ReadFileResult{Success: true})
	if d.Title != "a.go, 3, 10" || d.Text != "Read 10 lines from a.go" {
		t.Errorf("Describe() = %+v", d)
	}
	d = describeReadFile(map[string]any{"path": "a.go"}, ReadFileResult{Success: true})
	if d.Text != "Read all lines from a.go" {
		t.Errorf("Describe() = %+v", d)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	tctx := Context{WorkDir: dir}

	res, err := executeWriteFile(context.Background(), map[string]any{"path": "sub/new.txt", "content": "a\nb"}, tctx)
	if err != nil {
		t.Fatal(err)
	}
	r := res.(WriteFileResult)
	if !r.Success || r.Lines != 2 {
		t.Errorf("result = %+v", r)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sub", "new.txt"))
	if err != nil || string(data) != "a\nb" {
		t.Errorf("file content = %q, %v", data, err)
	}

	d := describeWriteFile(map[string]any{"path": "sub/new.txt"}, r)
	if d.Text != "Wrote 2 lines to sub/new.txt" {
		t.Errorf("Describe() = %+v", d)
	}
}

func TestUpdateFile(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		args        map[string]any
		wantContent string
		validate    func(t *testing.T, r UpdateFileResult)
	}{
		{
			name:        "replaces first occurrence only",
			content:     "foo bar foo",
			args:        map[string]any{"oldString": "foo", "newString": "baz"},
			wantContent: "baz bar foo",
			validate: func(t *testing.T, r UpdateFileResult) {
				if !r.Success || !r.Replaced {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name:        "absent oldString succeeds as a no-op",
			content:     "hello",
			args:        map[string]any{"oldString": "missing", "newString": "x"},
			wantContent: "hello",
			validate: func(t *testing.T, r UpdateFileResult) {
				if !r.Success || r.Replaced {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name:        "empty newString deletes",
			content:     "keep drop keep",
			args:        map[string]any{"oldString": " drop", "newString": ""},
			wantContent: "keep keep",
			validate: func(t *testing.T, r UpdateFileResult) {
				if !r.Replaced {
					t.Errorf("result = %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeTemp(t, dir, "f.txt", tt.content)
			tt.args["path"] = path

			res, err := executeUpdateFile(context.Background(), tt.args, Context{WorkDir: dir})
			if err != nil {
				t.Fatal(err)
			}
			tt.validate(t, res.(UpdateFileResult))

			data, _ := os.ReadFile(path)
			if string(data) != tt.wantContent {
				t.Errorf("content = %q, want %q", data, tt.wantContent)
			}
		})
	}
}

func TestUpdateFileMissing(t *testing.T) {
	dir := t.TempDir()
	res, err := executeUpdateFile(context.Background(), map[string]any{
		"path": "nope.txt", "oldString": "a", "newString": "b",
	}, Context{WorkDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if r := res.(UpdateFileResult); r.Success {
		t.Errorf("expected failure for missing file, got %+v", r)
	}
}
