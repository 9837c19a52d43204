package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func workDir(tctx Context) string {
	if tctx.WorkDir != "" {
		return tctx.WorkDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// resolvePath makes p absolute relative to the tool's working directory.
func resolvePath(tctx Context, p string) string {
	if p == "" {
		return workDir(tctx)
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workDir(tctx), p)
}

// truncateLines keeps the first n non-empty lines of s and notes how many
// were dropped.
func truncateLines(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-n)
}

func bulletList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
