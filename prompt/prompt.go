// Package prompt assembles the system prompt from the built-in template and
// the optional user (~/.chat-cli.md) and project (./chat-cli.md) documents.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"chatcli/config"
)

// Docs holds the prompt documents found on disk.
type Docs struct {
	Global      string
	GlobalPath  string
	Project     string
	ProjectPath string
}

var (
	mu      sync.RWMutex
	current Docs
)

// ReadDocs reads both documents. A missing file leaves its field empty.
func ReadDocs(globalPath, projectPath string) (Docs, error) {
	d := Docs{GlobalPath: globalPath, ProjectPath: projectPath}

	var err error
	if d.Global, err = readOptional(globalPath); err != nil {
		return d, err
	}
	if d.Project, err = readOptional(projectPath); err != nil {
		return d, err
	}
	return d, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Load reads the global and project documents for workDir and makes them
// the ones System uses. It returns a line per document that was loaded.
func Load(workDir string) ([]string, error) {
	d, err := ReadDocs(config.GetGlobalPromptDocPath(), config.GetProjectPromptDocPath(workDir))
	if err != nil {
		return nil, err
	}

	mu.Lock()
	current = d
	mu.Unlock()

	var loaded []string
	if d.Global != "" {
		loaded = append(loaded, "Loaded global config: ~/.chat-cli.md")
	}
	if d.Project != "" {
		loaded = append(loaded, "Loaded project config: ./chat-cli.md")
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Prompt] global=%d bytes project=%d bytes", len(d.Global), len(d.Project))
	}
	return loaded, nil
}

// System returns the system prompt. With custom set, the loaded documents
// are appended.
func System(custom bool) string {
	mu.RLock()
	d := current
	mu.RUnlock()
	return Build(d, custom)
}

func Build(d Docs, custom bool) string {
	if !custom {
		return systemTemplate
	}

	var b strings.Builder
	b.WriteString(systemTemplate)
	if d.Global != "" {
		fmt.Fprintf(&b, "## Global Config\n\n<doc>%s</doc>\n", d.Global)
	}
	if d.Project != "" {
		fmt.Fprintf(&b, "## Project config\n\n<doc>%s</doc>\n", d.Project)
	}
	return b.String()
}
