package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	docs := Docs{Global: "prefer tabs", Project: "run make test"}

	tests := []struct {
		name     string
		docs     Docs
		custom   bool
		validate func(t *testing.T, got string)
	}{
		{
			name:   "plain template",
			docs:   docs,
			custom: false,
			validate: func(t *testing.T, got string) {
				if got != systemTemplate {
					t.Error("documents must not be appended without custom")
				}
			},
		},
		{
			name:   "both documents",
			docs:   docs,
			custom: true,
			validate: func(t *testing.T, got string) {
				g := strings.Index(got, "## Global Config\n\n<doc>prefer tabs</doc>\n")
				p := strings.Index(got, "## Project config\n\n<doc>run make test</doc>\n")
				if g < 0 || p < 0 || g > p {
					t.Errorf("documents missing or out of order:\n%s", got[len(systemTemplate):])
				}
			},
		},
		{
			name:   "project only",
			docs:   Docs{Project: "x"},
			custom: true,
			validate: func(t *testing.T, got string) {
				if strings.Contains(got, "Global Config") {
					t.Error("empty global document rendered")
				}
				if !strings.HasSuffix(got, "<doc>x</doc>\n") {
					t.Error("project document missing")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, Build(tt.docs, tt.custom))
		})
	}
}

func TestLoad(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)

	if err := os.WriteFile(filepath.Join(work, "chat-cli.md"), []byte("project notes"), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(work)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0] != "Loaded project config: ./chat-cli.md" {
		t.Errorf("loaded: %v", loaded)
	}

	got := System(true)
	if !strings.Contains(got, "<doc>project notes</doc>") || strings.Contains(got, "Global Config") {
		t.Errorf("unexpected documents in prompt")
	}
	if !strings.Contains(System(false), "You are an interactive CLI agent") {
		t.Error("template missing")
	}
}

func TestReadDocsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	d, err := ReadDocs(filepath.Join(dir, "nope.md"), "")
	if err != nil {
		t.Fatal(err)
	}
	if d.Global != "" || d.Project != "" {
		t.Errorf("got %+v", d)
	}
}
