package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	maxGrepMatches = 200
	maxGlobResults = 1000
	maxLineLength  = 300
)

type GrepMatch struct {
	FilePath string `json:"filePath"`
	Line     int    `json:"line"`
	Match    string `json:"match"`
}

type GrepResult struct {
	Pattern   string      `json:"pattern"`
	List      []GrepMatch `json:"list"`
	Truncated bool        `json:"truncated,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type FilesResult struct {
	Files     []string `json:"files"`
	Truncated bool     `json:"truncated,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func NewGrepTool() *Tool {
	def := mcp.NewTool("Grep",
		mcp.WithDescription(`Search file contents for a regular expression.
- case-insensitive
- returns file paths with line numbers
- skips .git, node_modules and anything listed in .gitignore`),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("The regular expression to search for")),
	)
	return New(def, executeGrep).WithDescriber(describeGrep)
}

func executeGrep(ctx context.Context, args map[string]any, tctx Context) (any, error) {
	pattern := stringArg(args, "pattern")
	result := GrepResult{Pattern: pattern, List: []GrepMatch{}}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		result.Error = fmt.Sprintf("Invalid pattern: %v", err)
		return result, nil
	}

	root := workDir(tctx)
	ignore := LoadIgnorePolicy(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, _ := filepath.Rel(root, path)
		if ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		matches, err := grepFile(path, re)
		if err != nil {
			return nil
		}
		for _, m := range matches {
			m.FilePath = filepath.ToSlash(rel)
			result.List = append(result.List, m)
			if len(result.List) >= maxGrepMatches {
				result.Truncated = true
				return fs.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil {
		result.Error = fmt.Sprintf("Error executing grep: %v", walkErr)
	}

	return result, nil
}

// grepFile returns the matching lines of a text file; binary files yield nothing.
func grepFile(path string, re *regexp.Regexp) ([]GrepMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	head, _ := reader.Peek(8000)
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, nil
	}

	var out []GrepMatch
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if re.MatchString(text) {
			if len(text) > maxLineLength {
				text = text[:maxLineLength] + "..."
			}
			out = append(out, GrepMatch{Line: line, Match: strings.TrimSpace(text)})
		}
	}
	return out, scanner.Err()
}

func describeGrep(args map[string]any, result any) Description {
	pattern := stringArg(args, "pattern")
	r, ok := result.(GrepResult)
	if !ok {
		return defaultDescription(pattern, result)
	}
	switch {
	case r.Error != "":
		return Description{Title: pattern, Text: r.Error}
	case len(r.List) == 0:
		return Description{Title: pattern, Text: "No matches found for: " + pattern}
	}
	items := make([]string, 0, len(r.List))
	for _, m := range r.List {
		items = append(items, fmt.Sprintf("%s:%d: %s", m.FilePath, m.Line, m.Match))
	}
	return Description{Title: pattern, Text: bulletList(items)}
}

func NewGlobTool() *Tool {
	def := mcp.NewTool("Glob",
		mcp.WithDescription("Find files matching a glob pattern (** matches any number of directories), skipping node_modules, .git and anything ignored by .gitignore"),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("The glob pattern to match files, e.g. **/*.go")),
	)
	return New(def, executeGlob).WithDescriber(describeGlob)
}

func executeGlob(ctx context.Context, args map[string]any, tctx Context) (any, error) {
	pattern := filepath.ToSlash(stringArg(args, "pattern"))
	base := workDir(tctx)

	files, truncated, err := globFiles(ctx, base, pattern, LoadIgnorePolicy(base))
	if err != nil {
		return FilesResult{Files: []string{}, Error: fmt.Sprintf("Failed to glob files: %v", err)}, nil
	}
	return FilesResult{Files: files, Truncated: truncated}, nil
}

func describeGlob(args map[string]any, result any) Description {
	pattern := stringArg(args, "pattern")
	r, ok := result.(FilesResult)
	if !ok {
		return defaultDescription(pattern, result)
	}
	if r.Error != "" {
		return Description{Title: pattern, Text: r.Error}
	}
	return Description{
		Title: pattern,
		Text:  fmt.Sprintf("The files matching the pattern %q are:\n%s", pattern, bulletList(r.Files)),
	}
}

func NewLSTool() *Tool {
	def := mcp.NewTool("LS",
		mcp.WithDescription("Lists files and subdirectories under a path, skipping anything ignored by .gitignore. Defaults to the working directory."),
		mcp.WithString("path", mcp.Description("The directory to list, preferably absolute")),
	)
	return New(def, executeLS).WithDescriber(describeLS)
}

func executeLS(ctx context.Context, args map[string]any, tctx Context) (any, error) {
	dir := resolvePath(tctx, stringArg(args, "path"))
	info, err := os.Stat(dir)
	if err != nil {
		return FilesResult{Files: []string{}, Error: fmt.Sprintf("Failed to ls: %v", err)}, nil
	}
	if !info.IsDir() {
		return FilesResult{Files: []string{dir}}, nil
	}

	pattern := filepath.ToSlash(dir)
	pattern = strings.TrimSuffix(pattern, "/") + "/**"
	files, truncated, err := globFiles(ctx, workDir(tctx), pattern, LoadIgnorePolicy(workDir(tctx)))
	if err != nil {
		return FilesResult{Files: []string{}, Error: fmt.Sprintf("Failed to ls: %v", err)}, nil
	}
	return FilesResult{Files: files, Truncated: truncated}, nil
}

func describeLS(args map[string]any, result any) Description {
	path := stringArg(args, "path")
	if path == "" {
		path = "."
	}
	r, ok := result.(FilesResult)
	if !ok {
		return defaultDescription(path, result)
	}
	if r.Error != "" {
		return Description{Title: path, Text: r.Error}
	}
	return Description{
		Title: path,
		Text:  fmt.Sprintf("The files in %s are:\n%s", path, bulletList(r.Files)),
	}
}

// globFiles walks from the static prefix of pattern and returns matching
// paths in sorted order. Relative patterns resolve against base and yield
// base-relative results. Ignore patterns are matched against paths relative
// to base.
func globFiles(ctx context.Context, base, pattern string, ignore *IgnorePolicy) ([]string, bool, error) {
	abs := filepath.IsAbs(filepath.FromSlash(pattern))
	full := pattern
	if !abs {
		full = filepath.ToSlash(filepath.Join(base, filepath.FromSlash(pattern)))
		if strings.HasSuffix(pattern, "/**") && !strings.HasSuffix(full, "/**") {
			full += "/**"
		}
	}
	root, _ := globRoot(full)
	if root == "" {
		root = "."
	}
	if _, err := os.Stat(filepath.FromSlash(root)); err != nil {
		if os.IsNotExist(err) {
			return []string{}, false, nil
		}
		return nil, false, err
	}

	recursive := strings.Contains(full, "**")
	maxDepth := strings.Count(full, "/")

	var files []string
	truncated := false
	err := filepath.WalkDir(filepath.FromSlash(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slash := filepath.ToSlash(p)
		if rel, relErr := filepath.Rel(base, p); relErr == nil && !strings.HasPrefix(rel, "..") && ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if slash == strings.TrimSuffix(root, "/") || slash == root {
			return nil
		}
		if matchGlob(full, slash) {
			out := slash
			if !abs {
				if rel, relErr := filepath.Rel(base, p); relErr == nil {
					out = filepath.ToSlash(rel)
				}
			}
			files = append(files, out)
			if len(files) >= maxGlobResults {
				truncated = true
				return fs.SkipAll
			}
		}
		if d.IsDir() && !recursive && strings.Count(slash, "/") >= maxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	sort.Strings(files)
	if files == nil {
		files = []string{}
	}
	return files, truncated, nil
}
