package tool

import (
	"fmt"
	"sort"
	"sync"

	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/agentrun-ai/agentrun/internal/logging"
)

// Registry manages tool registration and lookup. Each composition root
// constructs its own registry; there is no process-wide instance.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	strict bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStrictDuplicates makes Register report an error when a tool ID is
// already taken instead of warning and overwriting.
func WithStrictDuplicates() RegistryOption {
	return func(r *Registry) { r.strict = true }
}

// NewRegistry creates an empty tool registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool. Duplicate IDs overwrite with a warning unless the
// registry is strict, in which case an error is returned.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[t.ID()]; ok {
		if r.strict {
			return fmt.Errorf("tool %q is already registered", existing.ID())
		}
		logging.Warn().Str("tool", t.ID()).Msg("duplicate tool registration, overwriting")
	}
	r.tools[t.ID()] = t
	return nil
}

// Get retrieves a tool by ID.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// List returns all registered tools sorted by ID.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].ID() < tools[j].ID() })
	return tools
}

// EinoTools returns all tools adapted for binding to an Eino chat model.
func (r *Registry) EinoTools() []einotool.BaseTool {
	tools := r.List()
	out := make([]einotool.BaseTool, len(tools))
	for i, t := range tools {
		out[i] = EinoTool(t)
	}
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
