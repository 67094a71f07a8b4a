// Package agent defines agent configurations, their registry, and the run
// loop that drives a chat model against local and MCP-provided tools.
package agent

// Agent is one named agent configuration. Servers restricts which MCP
// servers from the resolved catalog the agent may use; an empty list means
// no MCP access.
type Agent struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Servers     []string `json:"servers,omitempty" yaml:"servers,omitempty"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	BuiltIn     bool     `json:"builtIn" yaml:"-"`

	// UseDevTools equips the agent with the local codebase toolset
	// (structure, outline, fragment reader, find, search, edit, webfetch).
	UseDevTools bool `json:"devTools,omitempty" yaml:"devTools,omitempty"`

	// UseGitHubTools equips the agent with the GitHub pull request toolset.
	// Requires GITHUB_TOKEN at run time.
	UseGitHubTools bool `json:"githubTools,omitempty" yaml:"githubTools,omitempty"`

	// Stages turns the agent into a sequential pipeline: each stage runs as
	// its own conversation over the shared toolset and later stages receive
	// the reports produced before them. Prompt is unused when Stages is set.
	Stages []Stage `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// Stage is one step of a staged agent.
type Stage struct {
	Name   string `json:"name" yaml:"name"`
	Prompt string `json:"prompt" yaml:"prompt"`

	// Instruction is appended to the composed input to tell the stage what
	// to produce from the user request and the earlier reports.
	Instruction string `json:"instruction,omitempty" yaml:"instruction,omitempty"`
}

// Clone returns a copy safe to modify without touching the original.
func (a *Agent) Clone() *Agent {
	out := *a
	if a.Servers != nil {
		out.Servers = append([]string(nil), a.Servers...)
	}
	if a.Stages != nil {
		out.Stages = append([]Stage(nil), a.Stages...)
	}
	return &out
}

// merge applies non-zero fields of over onto a copy of a.
func (a *Agent) merge(over *Agent) *Agent {
	out := a.Clone()
	if over.Description != "" {
		out.Description = over.Description
	}
	if over.Prompt != "" {
		out.Prompt = over.Prompt
	}
	if over.Servers != nil {
		out.Servers = append([]string(nil), over.Servers...)
	}
	if over.Model != "" {
		out.Model = over.Model
	}
	if over.Temperature > 0 {
		out.Temperature = over.Temperature
	}
	if over.UseDevTools {
		out.UseDevTools = true
	}
	if over.UseGitHubTools {
		out.UseGitHubTools = true
	}
	if over.Stages != nil {
		out.Stages = append([]Stage(nil), over.Stages...)
	}
	out.BuiltIn = false
	return out
}
