package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSearchResults(t *testing.T) {
	raw := "/work/project/main.go:3:func main() {}\n" +
		"/work/project/internal/api/handler.go:12:\tlog.Error(\"boom\")\n"

	out := formatSearchResults("/work/project", raw)
	assert.Contains(t, out, "main.go:3: func main() {}")
	assert.Contains(t, out, "internal/api/handler.go:12: \tlog.Error(\"boom\")")
}

func TestFormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, "No matches found.", formatSearchResults("/work/project", ""))
}

func TestFormatSearchResults_SkipsMalformedLines(t *testing.T) {
	raw := "garbage without separators\n/work/project/a.go:notanumber:x\n/work/project/a.go:7:ok\n"

	out := formatSearchResults("/work/project", raw)
	assert.Equal(t, "a.go:7: ok\n", out)
}

func TestFormatSearchResults_TruncatesAtLimit(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= searchResultLimit+5; i++ {
		fmt.Fprintf(&sb, "/work/project/a.go:%d:line %d\n", i, i)
	}

	out := formatSearchResults("/work/project", sb.String())
	assert.Contains(t, out, fmt.Sprintf("a.go:%d: line %d", searchResultLimit, searchResultLimit))
	assert.NotContains(t, out, fmt.Sprintf("a.go:%d:", searchResultLimit+1))
	assert.Contains(t, out, fmt.Sprintf("showing the first %d matches", searchResultLimit))
}

func TestCodeSearchTool_RequiresPattern(t *testing.T) {
	_, err := NewCodeSearchTool(t.TempDir()).Execute(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern is required")
}

func TestCodeSearchTool_RejectsPathOutsideRoot(t *testing.T) {
	_, err := NewCodeSearchTool(t.TempDir()).Execute(context.Background(), json.RawMessage(
		`{"pattern": "x", "path": "../.."}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the project root")
}

func TestCodeSearchTool_FindsMatches(t *testing.T) {
	if _, err := exec.LookPath("rg"); err != nil {
		t.Skip("ripgrep not installed")
	}
	dir := writeProject(t)

	out := runTool(t, NewCodeSearchTool(dir), `{"pattern": "func Handle", "include": "*.go"}`)
	assert.Contains(t, out, "internal/api/handler.go:3: func Handle() {}")
	assert.NotContains(t, out, "handler.py")
}

func TestCodeSearchTool_NoMatches(t *testing.T) {
	if _, err := exec.LookPath("rg"); err != nil {
		t.Skip("ripgrep not installed")
	}
	dir := writeProject(t)

	out := runTool(t, NewCodeSearchTool(dir), `{"pattern": "definitely_not_present_anywhere"}`)
	assert.Equal(t, "No matches found.", out)
}
