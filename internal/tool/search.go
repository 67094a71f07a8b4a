package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const searchDescription = `Searches file contents with ripgrep.

Usage:
- Supports full regex syntax (e.g., "log.*Error", "function\\s+\\w+")
- Filter files with the include parameter (e.g., "*.go", "**/*.tsx")
- Returns matching lines as path:line: content`

// searchResultLimit caps how many matches are fed back to the model.
const searchResultLimit = 20

// CodeSearchTool searches file contents under the project root via ripgrep.
type CodeSearchTool struct {
	rootDir string
}

// NewCodeSearchTool creates the content search tool rooted at rootDir.
func NewCodeSearchTool(rootDir string) *CodeSearchTool {
	return &CodeSearchTool{rootDir: rootDir}
}

// CodeSearchInput is the search tool's input.
type CodeSearchInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
	Include string `json:"include,omitempty"`
}

func (t *CodeSearchTool) ID() string          { return "code_search" }
func (t *CodeSearchTool) Description() string { return searchDescription }

func (t *CodeSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "description": "The regex pattern to search for in file contents"},
			"path": {"type": "string", "description": "Directory to search in, relative to the project root. Defaults to the whole project."},
			"include": {"type": "string", "description": "File pattern to include in the search (e.g. \"*.go\", \"*.{ts,tsx}\")"}
		},
		"required": ["pattern"]
	}`)
}

func (t *CodeSearchTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in CodeSearchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if in.Pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	searchPath := t.rootDir
	if in.Path != "" {
		resolved, err := resolvePath(t.rootDir, in.Path)
		if err != nil {
			return "", err
		}
		searchPath = resolved
	}

	if _, err := exec.LookPath("rg"); err != nil {
		return "", fmt.Errorf("ripgrep (rg) is not installed or not on PATH")
	}

	args := []string{
		"--line-number",
		"--with-filename",
		"--color=never",
	}
	if in.Include != "" {
		args = append(args, "--glob", in.Include)
	}
	args = append(args, in.Pattern, searchPath)

	// rg exits non-zero when nothing matches; empty output covers that.
	output, _ := exec.CommandContext(ctx, "rg", args...).Output()
	return formatSearchResults(t.rootDir, string(output)), nil
}

// searchMatch is one parsed ripgrep hit.
type searchMatch struct {
	file    string
	line    int
	content string
}

// formatSearchResults parses ripgrep's file:line:content output, rewrites
// file paths relative to the project root, and truncates to the match limit.
func formatSearchResults(rootDir, raw string) string {
	var matches []searchMatch
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		lineNum, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		file := parts[0]
		if rel, err := filepath.Rel(rootDir, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = filepath.ToSlash(rel)
		}
		matches = append(matches, searchMatch{file: file, line: lineNum, content: parts[2]})
	}

	if len(matches) == 0 {
		return "No matches found."
	}

	truncated := len(matches) > searchResultLimit
	if truncated {
		matches = matches[:searchResultLimit]
	}

	var sb strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&sb, "%s:%d: %s\n", m.file, m.line, m.content)
	}
	if truncated {
		fmt.Fprintf(&sb, "\n(showing the first %d matches; narrow the pattern for more)", searchResultLimit)
	}
	return sb.String()
}
