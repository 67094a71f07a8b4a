package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"main.go":                      "package main\n\nfunc main() {}\n",
		"internal/api/handler.go":      "package api\n\nfunc Handle() {}\n",
		"internal/api/handler.py":      "def handle():\n    pass\n",
		"node_modules/pkg/x.js":        "ignored",
		".git/HEAD":                    "ref: refs/heads/main",
		"docs/readme.md":               "# Readme\n",
		"__pycache__/handler.pyc":      "bytecode",
		"internal/api/handler_test.go": "package api\n",
	}
	for path, content := range files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func runTool(t *testing.T, tool Tool, input string) string {
	t.Helper()
	out, err := tool.Execute(context.Background(), json.RawMessage(input))
	require.NoError(t, err)
	return out
}

func TestStructureTool(t *testing.T) {
	dir := writeProject(t)
	out := runTool(t, NewStructureTool(dir), `{}`)

	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "internal/")
	assert.Contains(t, out, "handler.go")
	assert.NotContains(t, out, "node_modules")
	assert.NotContains(t, out, ".git")
	assert.NotContains(t, out, "__pycache__")
}

func TestStructureTool_MaxDepth(t *testing.T) {
	dir := writeProject(t)
	out := runTool(t, NewStructureTool(dir), `{"maxDepth": 1}`)

	assert.Contains(t, out, "internal/")
	assert.NotContains(t, out, "handler.go", "depth 1 must not descend into internal/")
}

func TestFragmentTool(t *testing.T) {
	dir := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lines.txt"),
		[]byte("one\ntwo\nthree\nfour\nfive"), 0o644))

	out := runTool(t, NewFragmentTool(dir), `{"path": "lines.txt", "start": 2, "end": 4}`)
	assert.Equal(t, "two\nthree\nfour", out)
}

func TestFragmentTool_EndPastEOF(t *testing.T) {
	dir := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lines.txt"),
		[]byte("one\ntwo"), 0o644))

	out := runTool(t, NewFragmentTool(dir), `{"path": "lines.txt", "start": 1, "end": 99}`)
	assert.Equal(t, "one\ntwo", out)
}

func TestFragmentTool_InvalidRange(t *testing.T) {
	dir := writeProject(t)
	_, err := NewFragmentTool(dir).Execute(context.Background(),
		json.RawMessage(`{"path": "main.go", "start": 5, "end": 2}`))
	assert.Error(t, err)
}

func TestFindTool_Glob(t *testing.T) {
	dir := writeProject(t)
	out := runTool(t, NewFindTool(dir), `{"pattern": "**/*_test.go"}`)
	assert.Equal(t, "internal/api/handler_test.go", out)
}

func TestFindTool_Substring(t *testing.T) {
	dir := writeProject(t)
	out := runTool(t, NewFindTool(dir), `{"pattern": "Handler"}`)

	assert.Contains(t, out, "internal/api/handler.go")
	assert.Contains(t, out, "internal/api/handler.py")
	assert.NotContains(t, out, "node_modules", "ignored directories are pruned")
}

func TestFindTool_NoMatches(t *testing.T) {
	dir := writeProject(t)
	out := runTool(t, NewFindTool(dir), `{"pattern": "zzz-nothing"}`)
	assert.Contains(t, out, "No matches")
}
