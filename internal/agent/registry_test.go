package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_HasBuiltIns(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"simple", "chef", "travel", "news", "developer", "github-pr-reviewer", "travel-coordinator"} {
		assert.True(t, r.Exists(name), "built-in agent %s should be registered", name)
	}

	chef, err := r.Get("chef")
	require.NoError(t, err)
	assert.True(t, chef.BuiltIn)
	assert.Equal(t, []string{"tavily"}, chef.Servers)

	simple, err := r.Get("simple")
	require.NoError(t, err)
	assert.Empty(t, simple.Servers, "the simple agent has no MCP access")

	dev, err := r.Get("developer")
	require.NoError(t, err)
	assert.True(t, dev.UseDevTools)

	reviewer, err := r.Get("github-pr-reviewer")
	require.NoError(t, err)
	assert.True(t, reviewer.UseGitHubTools)
	assert.Empty(t, reviewer.Servers, "the reviewer works through local GitHub tools only")

	trip, err := r.Get("travel-coordinator")
	require.NoError(t, err)
	require.Len(t, trip.Stages, 3)
	assert.Equal(t, "flight-specialist", trip.Stages[0].Name)
	assert.Equal(t, []string{"kiwi-com-flight-search", "webfetch"}, trip.Servers)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent not found")
}

func TestRegistry_Register_OverwritesWithWarning(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Agent{Name: "chef", Prompt: "be terse"}))

	chef, err := r.Get("chef")
	require.NoError(t, err)
	assert.Equal(t, "be terse", chef.Prompt)
}

func TestRegistry_Register_StrictRejectsDuplicates(t *testing.T) {
	r := NewRegistry(WithStrictDuplicates())
	err := r.Register(&Agent{Name: "chef", Prompt: "be terse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	// The original stays untouched.
	chef, err := r.Get("chef")
	require.NoError(t, err)
	assert.NotEqual(t, "be terse", chef.Prompt)
}

func TestRegistry_Register_RequiresName(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&Agent{Prompt: "nameless"}))
}

func TestRegistry_ApplyOverrides_MergesOntoBuiltIn(t *testing.T) {
	r := NewRegistry()
	original, err := r.Get("travel")
	require.NoError(t, err)

	r.ApplyOverrides(map[string]*Agent{
		"travel": {Model: "anthropic/claude-sonnet-4-20250514"},
	})

	merged, err := r.Get("travel")
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", merged.Model)
	assert.Equal(t, original.Prompt, merged.Prompt, "unset override fields keep the built-in value")
	assert.Equal(t, original.Servers, merged.Servers)
	assert.False(t, merged.BuiltIn, "an overridden agent is no longer built-in")
}

func TestRegistry_ApplyOverrides_KeepsStages(t *testing.T) {
	r := NewRegistry()
	r.ApplyOverrides(map[string]*Agent{
		"travel-coordinator": {Model: "openai/gpt-4o"},
	})

	merged, err := r.Get("travel-coordinator")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", merged.Model)
	assert.Len(t, merged.Stages, 3, "an unset override keeps the built-in pipeline")
}

func TestRegistry_ApplyOverrides_CreatesUnknown(t *testing.T) {
	r := NewRegistry()
	r.ApplyOverrides(map[string]*Agent{
		"researcher": {Prompt: "dig deep", Servers: []string{"tavily"}},
	})

	a, err := r.Get("researcher")
	require.NoError(t, err)
	assert.Equal(t, "researcher", a.Name)
	assert.Equal(t, []string{"tavily"}, a.Servers)
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poet.yaml")
	data := []byte("description: Writes verse\nprompt: You answer only in haiku.\nservers: [tavily]\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadFile(path))

	a, err := r.Get("poet")
	require.NoError(t, err)
	assert.Equal(t, "poet", a.Name, "name defaults to the file name")
	assert.Equal(t, "You answer only in haiku.", a.Prompt)
	assert.Equal(t, []string{"tavily"}, a.Servers)
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"),
		[]byte("prompt: first\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.yml"),
		[]byte("prompt: second\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"),
		[]byte("prompt: [unclosed\n"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(dir), "invalid files are skipped, not fatal")

	assert.True(t, r.Exists("one"))
	assert.True(t, r.Exists("two"))
	assert.False(t, r.Exists("notes"))
	assert.False(t, r.Exists("broken"))
}

func TestRegistry_LoadDir_Missing(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.LoadDir(filepath.Join(t.TempDir(), "does-not-exist")))
}

func TestBuiltInAgents_FreshCopies(t *testing.T) {
	first := BuiltInAgents()
	first[0].Prompt = "mutated"

	second := BuiltInAgents()
	assert.NotEqual(t, "mutated", second[0].Prompt, "callers must not share state")
}
