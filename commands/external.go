package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"chatcli/config"
	"chatcli/message"
)

const argumentsPlaceholder = "$ARGUMENTS"

// frontMatter is the optional YAML header of a command file.
type frontMatter struct {
	Description  string `yaml:"description"`
	ArgumentHint string `yaml:"argument-hint"`
}

// Dirs returns the external command directories in load order: the user
// directory first, then the configured extras.
func Dirs(cfg *config.Config) []string {
	dirs := []string{config.GetCommandsDir()}
	if cfg == nil {
		return dirs
	}
	for _, d := range cfg.CommandsDirs {
		if d = config.ExpandPath(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// LoadDir reads every *.md file in dir, skipping files that fail to parse.
// A missing directory yields nothing.
func LoadDir(dir string) ([]*Command, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read commands directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var (
		cmds []*Command
		errs []error
	)
	for _, name := range names {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read command %s: %w", path, err))
			continue
		}
		c, err := ParseCommand("/"+strings.TrimSuffix(name, ".md"), string(content))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse command %s: %w", path, err))
			continue
		}
		c.Path = path
		cmds = append(cmds, c)
	}
	return cmds, errors.Join(errs...)
}

// LoadExternal loads the command directories in order; the first definition
// of a name wins. Unreadable files are reported and skipped.
func (r *Registry) LoadExternal(dirs []string) (int, []error) {
	var (
		all  []*Command
		errs []error
		seen = make(map[string]bool)
	)
	for _, dir := range dirs {
		cmds, err := LoadDir(dir)
		if err != nil {
			errs = append(errs, err)
		}
		for _, c := range cmds {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			all = append(all, c)

			if config.DebugLog != nil {
				config.DebugLog.Printf("[Commands] Loaded external command: %s (%s)", c.Name, dir)
			}
		}
	}
	r.SetExternal(all)
	return len(all), errs
}

// ParseCommand builds an external command from the file content. The
// description comes from YAML front matter when present, otherwise from the
// first line with any leading "#" removed.
func ParseCommand(name, content string) (*Command, error) {
	body := content
	var fm frontMatter

	if header, rest, ok := splitFrontMatter(content); ok {
		if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
			return nil, fmt.Errorf("invalid front matter: %w", err)
		}
		body = rest
	}

	description := strings.TrimSpace(fm.Description)
	if description == "" {
		first, _, _ := strings.Cut(strings.TrimLeft(body, "\n"), "\n")
		description = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(first), "#"))
	}
	if description == "" {
		description = "Custom command: " + name
	}

	template := body
	return &Command{
		Name:         name,
		Description:  description,
		ArgumentHint: fm.ArgumentHint,
		Source:       SourceExternal,
		handler: func(_ context.Context, _ *Env, args string) (Result, error) {
			msg := message.User(Expand(template, args))
			return Result{Submit: &msg}, nil
		},
	}, nil
}

// Expand substitutes args for every $ARGUMENTS in template.
func Expand(template, args string) string {
	return strings.TrimSpace(strings.ReplaceAll(template, argumentsPlaceholder, args))
}

func splitFrontMatter(content string) (header, body string, ok bool) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", content, false
	}

	lines := strings.SplitAfter(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], ""), strings.Join(lines[i+1:], ""), true
		}
	}
	return "", content, false
}
