// Package mcp acquires tools from remote MCP servers for agent runs.
//
// The package is organised around three pieces: a resolved server catalog
// (catalog.go), a session layer over the official MCP Go SDK (session.go),
// and the Provider (provider.go) which opens sessions, aggregates the tools
// they expose, and guarantees teardown of whatever it opened.
package mcp

import "encoding/json"

// Transport identifies how a server is reached.
type Transport string

const (
	TransportSSE       Transport = "sse"
	TransportHTTP      Transport = "http" // streamable HTTP
	TransportStdio     Transport = "stdio"
	TransportWebsocket Transport = "websocket"
)

// ServerConfig describes one remote tool server. Values resolved from the
// environment (API keys in headers or URL query parameters) are filled in by
// ResolveCatalog; the static defaults never carry secrets.
type ServerConfig struct {
	Transport Transport         `json:"transport" yaml:"transport"`
	URL       string            `json:"url,omitempty" yaml:"url,omitempty"`
	Command   []string          `json:"command,omitempty" yaml:"command,omitempty"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Timeout   int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	Enabled   *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the server should be contacted. Servers are
// enabled unless explicitly disabled.
func (c ServerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// clone returns a deep copy so resolution never aliases the defaults.
func (c ServerConfig) clone() ServerConfig {
	out := c
	if c.Command != nil {
		out.Command = append([]string(nil), c.Command...)
	}
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	if c.Env != nil {
		out.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			out.Env[k] = v
		}
	}
	if c.Enabled != nil {
		v := *c.Enabled
		out.Enabled = &v
	}
	return out
}

// Catalog maps server names to their resolved configurations. A resolved
// catalog is read-only; many providers may share one.
type Catalog map[string]ServerConfig

// Subset returns a catalog restricted to the named servers. Unknown names
// are ignored so agent definitions can reference servers that were removed
// from the defaults.
func (c Catalog) Subset(names []string) Catalog {
	out := make(Catalog, len(names))
	for _, name := range names {
		if cfg, ok := c[name]; ok {
			out[name] = cfg
		}
	}
	return out
}

// Tool is the metadata of one remote tool as reported by its server.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}
