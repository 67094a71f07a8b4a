package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultIgnorePatterns filters out directories that only add noise to an
// agent's view of a project.
var defaultIgnorePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/dist/**",
	"**/build/**",
	"**/.mypy_cache/**",
	"**/.pytest_cache/**",
}

// explorer is shared state for the codebase navigation tools.
type explorer struct {
	rootDir string
	ignore  []string
}

func newExplorer(rootDir string) *explorer {
	return &explorer{rootDir: rootDir, ignore: defaultIgnorePatterns}
}

func (e *explorer) isIgnored(path string) bool {
	rel, err := filepath.Rel(e.rootDir, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range e.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// Match directories themselves, not only their contents.
		if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), rel); ok {
			return true
		}
	}
	return false
}

// StructureTool lists the project layout as an indented tree.
type StructureTool struct {
	*explorer
}

// NewStructureTool creates the directory structure tool rooted at rootDir.
func NewStructureTool(rootDir string) *StructureTool {
	return &StructureTool{explorer: newExplorer(rootDir)}
}

func (t *StructureTool) ID() string { return "discover_structure" }

func (t *StructureTool) Description() string {
	return "Lists files and directories recursively up to a given depth. Helps understand project layout."
}

func (t *StructureTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"maxDepth": {
				"type": "integer",
				"description": "Maximum directory depth to descend (default: 3)"
			}
		}
	}`)
}

func (t *StructureTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		MaxDepth int `json:"maxDepth"`
	}
	_ = json.Unmarshal(input, &in)
	if in.MaxDepth <= 0 {
		in.MaxDepth = 3
	}

	var b strings.Builder
	b.WriteString(filepath.Base(t.rootDir) + "/\n")
	if err := t.writeTree(&b, t.rootDir, 1, in.MaxDepth); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (t *StructureTool) writeTree(b *strings.Builder, dir string, depth, maxDepth int) error {
	if depth > maxDepth {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(b, "%s(unreadable: %v)\n", strings.Repeat("  ", depth), err)
		return nil
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if t.isIgnored(path) {
			continue
		}
		indent := strings.Repeat("  ", depth)
		if entry.IsDir() {
			fmt.Fprintf(b, "%s%s/\n", indent, entry.Name())
			if err := t.writeTree(b, path, depth+1, maxDepth); err != nil {
				return err
			}
		} else {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			fmt.Fprintf(b, "%s%s (%.2f KB)\n", indent, entry.Name(), float64(info.Size())/1024)
		}
	}
	return nil
}

// FragmentTool reads a line range from a file.
type FragmentTool struct {
	*explorer
}

// NewFragmentTool creates the file fragment reader rooted at rootDir.
func NewFragmentTool(rootDir string) *FragmentTool {
	return &FragmentTool{explorer: newExplorer(rootDir)}
}

func (t *FragmentTool) ID() string { return "read_file_fragment" }

func (t *FragmentTool) Description() string {
	return "Reads a specific line range from a file, 1-based and inclusive."
}

func (t *FragmentTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "File path relative to the project root"},
			"start": {"type": "integer", "description": "First line to read (1-based)"},
			"end": {"type": "integer", "description": "Last line to read (inclusive)"}
		},
		"required": ["path", "start", "end"]
	}`)
}

func (t *FragmentTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Path  string `json:"path"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if in.Start < 1 || in.End < in.Start {
		return "", fmt.Errorf("invalid line range %d:%d", in.Start, in.End)
	}

	fullPath, err := resolvePath(t.rootDir, in.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", in.Path, err)
	}

	lines := strings.Split(string(data), "\n")
	if in.Start > len(lines) {
		return "", fmt.Errorf("file %s has only %d lines", in.Path, len(lines))
	}
	end := in.End
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[in.Start-1:end], "\n"), nil
}

// FindTool searches files by name pattern.
type FindTool struct {
	*explorer
}

// NewFindTool creates the file finder rooted at rootDir.
func NewFindTool(rootDir string) *FindTool {
	return &FindTool{explorer: newExplorer(rootDir)}
}

const findResultLimit = 30

func (t *FindTool) ID() string { return "find_files" }

func (t *FindTool) Description() string {
	return "Finds files by name. Accepts a doublestar glob (e.g. '**/*_test.go') or a plain substring. Returns paths relative to the project root."
}

func (t *FindTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "description": "Glob pattern or substring to match file paths against"}
		},
		"required": ["pattern"]
	}`)
}

func (t *FindTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Pattern string `json:"pattern"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if in.Pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	isGlob := strings.ContainsAny(in.Pattern, "*?[{")

	var matches []string
	err := filepath.WalkDir(t.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if t.isIgnored(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || len(matches) >= findResultLimit {
			return nil
		}
		rel, err := filepath.Rel(t.rootDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if isGlob {
			if ok, _ := doublestar.Match(in.Pattern, rel); ok {
				matches = append(matches, rel)
			}
		} else if strings.Contains(strings.ToLower(rel), strings.ToLower(in.Pattern)) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "No matches found for the given pattern.", nil
	}
	return strings.Join(matches, "\n"), nil
}
