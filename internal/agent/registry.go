package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/agentrun-ai/agentrun/internal/logging"
)

// Registry maps agent names to their configurations. Registries are built
// explicitly by the composition root; there is no process-wide instance, so
// tests construct one per test.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	strict bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStrictDuplicates makes Register report an error on duplicate names
// instead of warning and overwriting.
func WithStrictDuplicates() RegistryOption {
	return func(r *Registry) { r.strict = true }
}

// NewRegistry creates a registry pre-populated with the built-in agents.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{agents: make(map[string]*Agent)}
	for _, opt := range opts {
		opt(r)
	}
	for _, a := range BuiltInAgents() {
		r.agents[a.Name] = a
	}
	return r
}

// Register adds an agent. A duplicate name overwrites the existing entry
// with a warning, or returns an error when the registry is strict.
func (r *Registry) Register(a *Agent) error {
	if a.Name == "" {
		return fmt.Errorf("agent has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[a.Name]; ok {
		if r.strict {
			return fmt.Errorf("agent %q is already registered", a.Name)
		}
		logging.Warn().Str("agent", a.Name).Msg("duplicate agent registration, overwriting")
	}
	r.agents[a.Name] = a
	return nil
}

// Get retrieves an agent by name.
func (r *Registry) Get(name string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("agent not found: %s", name)
	}
	return a, nil
}

// Exists checks whether an agent is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[name]
	return ok
}

// Names returns all agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered agents sorted by name.
func (r *Registry) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// ApplyOverrides merges user-supplied agent configurations onto existing
// entries at the field level; unknown names create new agents.
func (r *Registry) ApplyOverrides(overrides map[string]*Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, over := range overrides {
		if over == nil {
			continue
		}
		if base, ok := r.agents[name]; ok {
			merged := base.merge(over)
			merged.Name = name
			r.agents[name] = merged
			continue
		}
		created := over.Clone()
		created.Name = name
		r.agents[name] = created
	}
}

// LoadFile reads one YAML agent definition and registers it, merging onto a
// built-in of the same name when present.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read agent file %s: %w", path, err)
	}

	var a Agent
	if err := yaml.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("failed to parse agent file %s: %w", path, err)
	}
	if a.Name == "" {
		a.Name = trimExt(filepath.Base(path))
	}

	r.ApplyOverrides(map[string]*Agent{a.Name: &a})
	logging.Debug().Str("agent", a.Name).Str("file", path).Msg("loaded agent definition")
	return nil
}

// LoadDir loads every .yaml/.yml agent definition in dir. A missing
// directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			logging.Warn().Str("file", entry.Name()).Err(err).Msg("skipping invalid agent file")
		}
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
