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

func editFixture(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir, path
}

func TestEditTool_Replace(t *testing.T) {
	dir, path := editFixture(t, "one\ntwo\nthree\nfour\n")

	out, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "sample.txt", "operation": "replace", "start": 2, "end": 3, "content": "TWO\nTHREE"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Edited sample.txt")
	assert.Contains(t, out, "--- sample.txt")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\nTWO\nTHREE\nfour\n", string(data))
}

func TestEditTool_ReplaceSingleLine(t *testing.T) {
	dir, path := editFixture(t, "one\ntwo\nthree\n")

	// end omitted defaults to start.
	_, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "sample.txt", "operation": "replace", "start": 2, "content": "TWO"}`))
	require.NoError(t, err)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "one\nTWO\nthree\n", string(data))
}

func TestEditTool_Insert(t *testing.T) {
	dir, path := editFixture(t, "one\nthree\n")

	_, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "sample.txt", "operation": "insert", "start": 2, "content": "two"}`))
	require.NoError(t, err)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "one\ntwo\nthree\n", string(data))
}

func TestEditTool_Delete(t *testing.T) {
	dir, path := editFixture(t, "one\ntwo\nthree\n")

	_, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "sample.txt", "operation": "delete", "start": 2, "end": 2}`))
	require.NoError(t, err)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "one\nthree\n", string(data))
}

func TestEditTool_OutOfRange(t *testing.T) {
	dir, _ := editFixture(t, "one\n")

	_, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "sample.txt", "operation": "replace", "start": 50, "content": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestEditTool_UnknownOperation(t *testing.T) {
	dir, _ := editFixture(t, "one\n")

	_, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "sample.txt", "operation": "append", "start": 1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestEditTool_RejectsPathOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	outside := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep out\n"), 0o644))
	dir := filepath.Join(parent, "project")
	require.NoError(t, os.Mkdir(dir, 0o755))

	_, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "../secret.txt", "operation": "replace", "start": 1, "content": "owned"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the project root")

	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "keep out\n", string(data))
}

func TestEditTool_PreservesFileMode(t *testing.T) {
	dir, path := editFixture(t, "#!/bin/sh\necho hi\n")
	require.NoError(t, os.Chmod(path, 0o755))

	_, err := NewEditTool(dir).Execute(context.Background(), json.RawMessage(
		`{"path": "sample.txt", "operation": "replace", "start": 2, "content": "echo bye"}`))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}
