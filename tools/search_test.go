package tools

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func searchFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTemp(t, dir, "README.md", "# Project\nTODO: write docs\n")
	writeTemp(t, dir, "main.go", "package main\n// todo: tests\n")
	writeTemp(t, dir, "docs/guide.md", "guide\n")
	writeTemp(t, dir, "node_modules/pkg/index.js", "// TODO hidden\n")
	writeTemp(t, dir, ".git/config", "todo\n")
	writeTemp(t, dir, "dist/bundle.js", "TODO built\n")
	writeTemp(t, dir, ".gitignore", "dist/\n")
	return dir
}

func TestGrep(t *testing.T) {
	dir := searchFixture(t)

	res, err := executeGrep(context.Background(), map[string]any{"pattern": "todo"}, Context{WorkDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	r := res.(GrepResult)
	if r.Error != "" {
		t.Fatalf("unexpected error %q", r.Error)
	}

	var files []string
	for _, m := range r.List {
		files = append(files, m.FilePath)
	}
	want := []string{"README.md", "main.go"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("matched files = %v, want %v", files, want)
	}
	if r.List[0].Line != 2 || r.List[0].Match != "TODO: write docs" {
		t.Errorf("first match = %+v", r.List[0])
	}

	d := describeGrep(map[string]any{"pattern": "todo"}, r)
	if !strings.HasPrefix(d.Text, "- README.md:2: TODO: write docs") {
		t.Errorf("Describe().Text = %q", d.Text)
	}
}

func TestGrepNoMatchesAndBadPattern(t *testing.T) {
	dir := searchFixture(t)

	res, _ := executeGrep(context.Background(), map[string]any{"pattern": "zzz-nothing"}, Context{WorkDir: dir})
	d := describeGrep(map[string]any{"pattern": "zzz-nothing"}, res)
	if d.Text != "No matches found for: zzz-nothing" {
		t.Errorf("Text = %q", d.Text)
	}

	res, _ = executeGrep(context.Background(), map[string]any{"pattern": "("}, Context{WorkDir: dir})
	if r := res.(GrepResult); r.Error == "" {
		t.Error("expected error for invalid regexp")
	}
}

func TestGlob(t *testing.T) {
	dir := searchFixture(t)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.md", []string{"README.md"}},
		{"**/*.md", []string{"README.md", "docs/guide.md"}},
		{"**/*.js", []string{}},
		{"dist/*.js", []string{}},
		{"missing/*.txt", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			res, err := executeGlob(context.Background(), map[string]any{"pattern": tt.pattern}, Context{WorkDir: dir})
			if err != nil {
				t.Fatal(err)
			}
			r := res.(FilesResult)
			if !reflect.DeepEqual(r.Files, tt.want) {
				t.Errorf("Files = %v, want %v", r.Files, tt.want)
			}
		})
	}
}

func TestDescribeGlob(t *testing.T) {
	d := describeGlob(map[string]any{"pattern": "*.md"}, FilesResult{Files: []string{"README.md"}})
	if d.Text != "The files matching the pattern \"*.md\" are:\n- README.md" {
		t.Errorf("Text = %q", d.Text)
	}
}

func TestLS(t *testing.T) {
	dir := searchFixture(t)

	res, err := executeLS(context.Background(), map[string]any{"path": dir}, Context{WorkDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	r := res.(FilesResult)

	got := make(map[string]bool)
	for _, f := range r.Files {
		rel, _ := filepath.Rel(dir, f)
		got[filepath.ToSlash(rel)] = true
	}
	for _, want := range []string{"README.md", "main.go", "docs", "docs/guide.md", ".gitignore"} {
		if !got[want] {
			t.Errorf("LS missing %s (got %v)", want, r.Files)
		}
	}
	for _, hidden := range []string{"node_modules", ".git", "dist", "dist/bundle.js"} {
		if got[hidden] {
			t.Errorf("LS should skip %s", hidden)
		}
	}

	res, _ = executeLS(context.Background(), map[string]any{"path": "does-not-exist"}, Context{WorkDir: dir})
	if r := res.(FilesResult); r.Error == "" {
		t.Error("expected error for missing directory")
	}
}
