package tools

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"chatcli/config"
)

// DefaultIgnore is always excluded from searches and listings.
var DefaultIgnore = []string{"node_modules/**", ".git/**"}

// IgnorePolicy decides which paths searches and listings skip.
type IgnorePolicy struct {
	patterns []string
}

// LoadIgnorePolicy combines DefaultIgnore with the patterns of dir/.gitignore.
func LoadIgnorePolicy(dir string) *IgnorePolicy {
	return &IgnorePolicy{patterns: append(append([]string{}, DefaultIgnore...), gitignorePatterns(dir)...)}
}

// Match reports whether rel, a slash-separated path relative to the
// project root, is ignored.
func (p *IgnorePolicy) Match(rel string) bool {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	if rel == "" || rel == "." {
		return false
	}
	for _, pat := range p.patterns {
		if matchGlob(pat, rel) {
			return true
		}
	}
	return false
}

func gitignorePatterns(dir string) []string {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if pat := convertGitignoreLine(scanner.Text()); pat != "" {
			out = append(out, pat)
		}
	}
	if err := scanner.Err(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Tools] could not read .gitignore: %v", err)
	}
	return out
}

// convertGitignoreLine turns one .gitignore line into a glob pattern:
//
//	dir/    -> dir/**
//	name    -> **/name/**
//	/rooted -> rooted
//	*.log   -> *.log
//
// Comments, blank lines and negations yield "".
func convertGitignoreLine(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, "!"):
		return ""
	case strings.HasSuffix(line, "/"):
		return strings.TrimPrefix(line, "/") + "**"
	case !strings.Contains(line, "/") && !strings.HasPrefix(line, "*"):
		return "**/" + line + "/**"
	case strings.HasPrefix(line, "/"):
		return line[1:]
	default:
		return line
	}
}

// matchGlob matches a slash-separated name against pattern, where a "**"
// segment spans zero or more path segments and other segments follow
// path.Match.
func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			pat = pat[1:]
			if len(pat) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(pat, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		ok, err := path.Match(pat[0], segs[0])
		if err != nil || !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

// globRoot splits pattern into the longest leading directory without glob
// metacharacters and the remainder.
func globRoot(pattern string) (root, rest string) {
	segs := strings.Split(pattern, "/")
	i := 0
	for ; i < len(segs)-1; i++ {
		if strings.ContainsAny(segs[i], "*?[") {
			break
		}
	}
	root = strings.Join(segs[:i], "/")
	if root == "" && strings.HasPrefix(pattern, "/") {
		root = "/"
	}
	return root, strings.Join(segs[i:], "/")
}
