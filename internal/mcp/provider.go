package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentrun-ai/agentrun/internal/event"
	"github.com/agentrun-ai/agentrun/internal/logging"
)

// defaultConnectTimeout bounds one server's connect-plus-discovery so a
// single unresponsive remote cannot stall the whole acquisition.
const defaultConnectTimeout = 15 * time.Second

// Provider acquires tools from the servers in its catalog. It supports two
// modes: GetTools connects once, caches the union of tools and keeps the
// sessions open for the provider's lifetime; OpenScope acquires sessions for
// the duration of a scope and guarantees their release on every exit path.
//
// A Provider owns its sessions exclusively. Construct one per logical run
// rather than sharing an instance between overlapping scopes. The catalog it
// was built from is read-only and may be shared freely.
type Provider struct {
	catalog Catalog
	dialer  Dialer
	timeout time.Duration

	mu       sync.Mutex
	cached   []*ToolHandle
	sessions []namedSession // held open by GetTools
}

type namedSession struct {
	name    string
	session Session
}

// Option configures a Provider.
type Option func(*Provider)

// WithDialer replaces the SDK-backed dialer, primarily for tests.
func WithDialer(d Dialer) Option {
	return func(p *Provider) { p.dialer = d }
}

// WithConnectTimeout sets the per-server connection timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// New creates a Provider over the given catalog.
func New(catalog Catalog, opts ...Option) *Provider {
	p := &Provider{
		catalog: catalog,
		dialer:  NewSDKDialer(),
		timeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// serverNames returns the catalog's enabled servers in a stable order so
// sequential acquisition and its failure reporting are deterministic.
func (p *Provider) serverNames() []string {
	names := make([]string, 0, len(p.catalog))
	for name, cfg := range p.catalog {
		if cfg.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// connectTimeout returns the effective timeout for one server.
func (p *Provider) connectTimeout(cfg ServerConfig) time.Duration {
	if cfg.Timeout > 0 {
		return time.Duration(cfg.Timeout) * time.Millisecond
	}
	return p.timeout
}

// open dials one server and discovers its tools within the per-server
// timeout. Every failure comes back as a *ConnectionError; a timeout carries
// a timeout-flavored cause so the operator can tell it apart in diagnostics.
func (p *Provider) open(ctx context.Context, name string, cfg ServerConfig) (Session, []*ToolHandle, error) {
	timeout := p.connectTimeout(cfg)
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := p.dialer.Dial(dialCtx, name, cfg)
	if err != nil {
		if dialCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = fmt.Errorf("connection timed out after %s: %w", timeout, err)
		}
		return nil, nil, connErr(name, err)
	}

	tools, err := session.Tools(dialCtx)
	if err != nil {
		closeSession(name, session)
		if dialCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = fmt.Errorf("tool discovery timed out after %s: %w", timeout, err)
		}
		return nil, nil, connErr(name, fmt.Errorf("failed to list tools: %w", err))
	}

	handles := make([]*ToolHandle, len(tools))
	for i, t := range tools {
		handles[i] = newToolHandle(name, t, session)
	}

	logging.Info().Str("server", name).Int("tools", len(tools)).Msg("loaded tools from MCP server")
	event.Publish(event.ServerConnected, event.ServerData{Server: name, Tools: len(tools)})
	return session, handles, nil
}

// GetTools connects to every server in the catalog and returns the union of
// their tools. Acquisition is best-effort: a server that fails to connect is
// logged and skipped, never fatal. The result is cached and the sessions
// stay open until Close; later calls return the cached set without touching
// the network, even if a server has since become unreachable.
func (p *Provider) GetTools(ctx context.Context) ([]*ToolHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return p.cached, nil
	}

	handles := make([]*ToolHandle, 0)
	for _, name := range p.serverNames() {
		if err := ctx.Err(); err != nil {
			p.releaseLocked()
			return nil, err
		}
		session, tools, err := p.open(ctx, name, p.catalog[name])
		if err != nil {
			logging.Error().Str("server", name).Err(err).Msg("skipping unreachable MCP server")
			event.Publish(event.ServerFailed, event.ServerData{Server: name, Err: err.Error()})
			continue
		}
		p.sessions = append(p.sessions, namedSession{name, session})
		handles = append(handles, tools...)
	}

	p.cached = handles
	return p.cached, nil
}

// Close releases the sessions held open by GetTools. Close failures are
// logged and swallowed.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.cached = nil
}

func (p *Provider) releaseLocked() {
	for i := len(p.sessions) - 1; i >= 0; i-- {
		closeSession(p.sessions[i].name, p.sessions[i].session)
	}
	p.sessions = nil
}

// ScopeOption configures one OpenScope call.
type ScopeOption func(*scopeOptions)

type scopeOptions struct {
	failFast bool
}

// WithFailFast controls the scope's failure policy. When true (the default)
// the first server that fails to connect aborts the acquisition: sessions
// opened so far are closed and the ConnectionError propagates. When false,
// failed servers are logged and skipped and the scope yields whatever subset
// connected, possibly nothing.
func WithFailFast(failFast bool) ScopeOption {
	return func(o *scopeOptions) { o.failFast = failFast }
}

// OpenScope opens one session per catalog server and returns the aggregated
// tools as a scope. The caller must Close the scope; every session that was
// opened is then closed exactly once, regardless of how the caller's work
// ended.
//
// Sessions are opened sequentially, in catalog order, on the calling
// goroutine: the goroutine that opens a session is the one that closes it,
// which is the only discipline the underlying transports are guaranteed to
// support. Each open is bounded by the per-server connection timeout.
// Cancellation of ctx mid-acquisition closes whatever was already opened and
// returns the context's error.
func (p *Provider) OpenScope(ctx context.Context, opts ...ScopeOption) (*ToolScope, error) {
	options := scopeOptions{failFast: true}
	for _, opt := range opts {
		opt(&options)
	}

	scope := &ToolScope{}
	for _, name := range p.serverNames() {
		if err := ctx.Err(); err != nil {
			scope.Close()
			return nil, err
		}

		logging.Debug().Str("server", name).Msg("connecting to MCP server")
		session, tools, err := p.open(ctx, name, p.catalog[name])
		if err != nil {
			event.Publish(event.ServerFailed, event.ServerData{Server: name, Err: err.Error()})
			if ctx.Err() != nil {
				// The caller's deadline or cancellation, not this
				// server's fault. Surface it as such.
				scope.Close()
				return nil, ctx.Err()
			}
			if options.failFast {
				scope.Close()
				return nil, err
			}
			logging.Error().Str("server", name).Err(err).Msg("failed to connect to MCP server")
			continue
		}

		scope.sessions = append(scope.sessions, namedSession{name, session})
		scope.tools = append(scope.tools, tools...)
	}

	return scope, nil
}

// ToolScope is a bounded lifetime for acquired sessions. Tools returned by
// Tools are valid until Close; calling one afterwards fails because its
// session is gone.
type ToolScope struct {
	sessions []namedSession
	tools    []*ToolHandle
	once     sync.Once
}

// Tools returns the aggregated tool handles in acquisition order.
func (s *ToolScope) Tools() []*ToolHandle {
	return s.tools
}

// Close releases every session the scope opened, in reverse acquisition
// order. It is idempotent, and close-time failures are logged and swallowed
// so they can never mask the outcome of the caller's work.
func (s *ToolScope) Close() {
	s.once.Do(func() {
		for i := len(s.sessions) - 1; i >= 0; i-- {
			closeSession(s.sessions[i].name, s.sessions[i].session)
		}
		s.sessions = nil
	})
}

// ToolHandle is a callable reference to one remote tool. The handle stays
// bound to the session that discovered it; once that session closes, calls
// fail.
type ToolHandle struct {
	name        string
	rawName     string
	server      string
	description string
	inputSchema json.RawMessage
	session     Session
}

func newToolHandle(server string, t Tool, session Session) *ToolHandle {
	return &ToolHandle{
		name:        sanitizeName(server) + "_" + sanitizeName(t.Name),
		rawName:     t.Name,
		server:      server,
		description: t.Description,
		inputSchema: t.InputSchema,
		session:     session,
	}
}

// Name is the handle's name, prefixed with its server so tools from
// different servers cannot collide.
func (h *ToolHandle) Name() string { return h.name }

// Server is the name of the server that exposes this tool.
func (h *ToolHandle) Server() string { return h.server }

// Description is the server-provided tool description.
func (h *ToolHandle) Description() string { return h.description }

// InputSchema is the JSON Schema of the tool's arguments.
func (h *ToolHandle) InputSchema() json.RawMessage { return h.inputSchema }

// Call invokes the remote tool through the owning session.
func (h *ToolHandle) Call(ctx context.Context, args json.RawMessage) (string, error) {
	out, err := h.session.Call(ctx, h.rawName, args)
	if err != nil {
		return "", fmt.Errorf("tool %s on server %s: %w", h.rawName, h.server, err)
	}
	return out, nil
}

// ErrSessionClosed is returned by fake and test sessions after Close; real
// SDK sessions return their own transport-level error.
var ErrSessionClosed = errors.New("session closed")

// sanitizeName replaces anything outside [a-zA-Z0-9] with underscores so the
// combined names are valid tool identifiers for every model provider.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
