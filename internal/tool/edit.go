package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const editDescription = `Edits a file with line-based operations.

Operations:
  - replace: replace lines start..end (1-based, inclusive) with content
  - insert: insert content before line start
  - delete: remove lines start..end

Read the exact lines first (read_file_fragment) and never guess line numbers.`

// EditTool applies line-based edits to files under the project root.
type EditTool struct {
	rootDir string
}

// NewEditTool creates the file editor rooted at rootDir.
func NewEditTool(rootDir string) *EditTool {
	return &EditTool{rootDir: rootDir}
}

// EditInput is the editor's input.
type EditInput struct {
	Path      string `json:"path"`
	Operation string `json:"operation"`
	Start     int    `json:"start"`
	End       int    `json:"end,omitempty"`
	Content   string `json:"content,omitempty"`
}

func (t *EditTool) ID() string          { return "edit_file" }
func (t *EditTool) Description() string { return editDescription }

func (t *EditTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "File path relative to the project root"},
			"operation": {"type": "string", "description": "One of: replace, insert, delete"},
			"start": {"type": "integer", "description": "First line of the operation (1-based)"},
			"end": {"type": "integer", "description": "Last line, inclusive (replace and delete)"},
			"content": {"type": "string", "description": "Replacement or inserted text"}
		},
		"required": ["path", "operation", "start"]
	}`)
}

func (t *EditTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in EditInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	fullPath, err := resolvePath(t.rootDir, in.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", in.Path, err)
	}
	before := string(data)

	after, err := applyEdit(before, in)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, []byte(after), info.Mode()); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", in.Path, err)
	}

	return fmt.Sprintf("Edited %s\n%s", in.Path, unifiedDiff(in.Path, before, after)), nil
}

// applyEdit performs the line operation on the file content. Lines are
// 1-based and ranges inclusive, matching what read_file_fragment shows.
func applyEdit(content string, in EditInput) (string, error) {
	lines := strings.Split(content, "\n")

	if in.Start < 1 || in.Start > len(lines)+1 {
		return "", fmt.Errorf("line %d is out of range (file has %d lines)", in.Start, len(lines))
	}
	end := in.End
	if end == 0 {
		end = in.Start
	}
	if end < in.Start || end > len(lines) {
		if in.Operation != "insert" {
			return "", fmt.Errorf("invalid line range %d:%d (file has %d lines)", in.Start, end, len(lines))
		}
	}

	switch in.Operation {
	case "replace":
		replacement := strings.Split(in.Content, "\n")
		out := make([]string, 0, len(lines)-(end-in.Start+1)+len(replacement))
		out = append(out, lines[:in.Start-1]...)
		out = append(out, replacement...)
		out = append(out, lines[end:]...)
		return strings.Join(out, "\n"), nil
	case "insert":
		inserted := strings.Split(in.Content, "\n")
		out := make([]string, 0, len(lines)+len(inserted))
		out = append(out, lines[:in.Start-1]...)
		out = append(out, inserted...)
		out = append(out, lines[in.Start-1:]...)
		return strings.Join(out, "\n"), nil
	case "delete":
		out := make([]string, 0, len(lines)-(end-in.Start+1))
		out = append(out, lines[:in.Start-1]...)
		out = append(out, lines[end:]...)
		return strings.Join(out, "\n"), nil
	default:
		return "", fmt.Errorf("unknown operation %q", in.Operation)
	}
}

// unifiedDiff renders a compact patch of the change for the model to verify
// its edit landed where intended.
func unifiedDiff(path, before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	patches := dmp.PatchMake(before, diffs)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", path, path)
	sb.WriteString(dmp.PatchToText(patches))
	return sb.String()
}
