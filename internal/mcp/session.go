package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentrun-ai/agentrun/internal/logging"
)

// Session is one open logical connection to a single tool server. A session
// is owned by the Provider that dialed it and is never shared across scopes.
type Session interface {
	// Tools issues the protocol tool-discovery call.
	Tools(ctx context.Context) ([]Tool, error)
	// Call invokes a tool by its server-side name.
	Call(ctx context.Context, tool string, args json.RawMessage) (string, error)
	// Close tears the connection down. Close errors are advisory; the
	// Provider logs and swallows them.
	Close() error
}

// Dialer opens sessions. The Provider accepts any Dialer so tests can
// substitute fakes for the SDK-backed implementation.
type Dialer interface {
	Dial(ctx context.Context, name string, cfg ServerConfig) (Session, error)
}

// sdkDialer dials servers through the official MCP Go SDK.
type sdkDialer struct {
	client *sdkmcp.Client
}

// NewSDKDialer returns the production Dialer backed by the MCP SDK.
func NewSDKDialer() Dialer {
	return &sdkDialer{
		client: sdkmcp.NewClient(&sdkmcp.Implementation{
			Name:    "agentrun",
			Version: "1.0.0",
		}, nil),
	}
}

func (d *sdkDialer) Dial(ctx context.Context, name string, cfg ServerConfig) (Session, error) {
	switch cfg.Transport {
	case TransportHTTP, TransportSSE:
		return d.dialRemote(ctx, cfg)
	case TransportStdio:
		return d.dialStdio(ctx, cfg)
	case TransportWebsocket:
		return nil, fmt.Errorf("websocket transport is not supported by the MCP SDK")
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// dialRemote tries streamable HTTP first, then falls back to SSE. When both
// fail the returned error joins both causes so the operator can tell a bad
// URL from a network outage.
func (d *sdkDialer) dialRemote(ctx context.Context, cfg ServerConfig) (Session, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote server has no URL")
	}
	httpClient := httpClientWithHeaders(cfg.Headers)

	candidates := []struct {
		name      string
		transport sdkmcp.Transport
	}{
		{"streamable", &sdkmcp.StreamableClientTransport{Endpoint: cfg.URL, HTTPClient: httpClient}},
		{"sse", &sdkmcp.SSEClientTransport{Endpoint: cfg.URL, HTTPClient: httpClient}},
	}
	if cfg.Transport == TransportSSE {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}

	var attempts []error
	for _, c := range candidates {
		session, err := d.client.Connect(ctx, c.transport, nil)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s transport: %w", c.name, err))
			continue
		}
		return &sdkSession{session: session}, nil
	}
	return nil, errors.Join(attempts...)
}

func (d *sdkDialer) dialStdio(ctx context.Context, cfg ServerConfig) (Session, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("stdio server has no command")
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	session, err := d.client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, err
	}
	return &sdkSession{session: session}, nil
}

type sdkSession struct {
	session *sdkmcp.ClientSession
}

func (s *sdkSession) Tools(ctx context.Context) ([]Tool, error) {
	result, err := s.session.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}
	tools := make([]Tool, len(result.Tools))
	for i, t := range result.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			schema = nil
		}
		tools[i] = Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}
	return tools, nil
}

func (s *sdkSession) Call(ctx context.Context, tool string, args json.RawMessage) (string, error) {
	var argsMap map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argsMap); err != nil {
			return "", fmt.Errorf("failed to parse arguments: %w", err)
		}
	}

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      tool,
		Arguments: argsMap,
	})
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			output.WriteString(text.Text)
		}
	}
	if result.IsError {
		if output.Len() > 0 {
			return "", fmt.Errorf("tool error: %s", output.String())
		}
		return "", fmt.Errorf("tool execution failed")
	}
	return output.String(), nil
}

func (s *sdkSession) Close() error {
	return s.session.Close()
}

// closeSession closes a session, logging and swallowing any close error so a
// teardown failure can never mask the result of a scope that succeeded.
func closeSession(name string, s Session) {
	if err := s.Close(); err != nil {
		logging.Warn().Str("server", name).Err(err).Msg("failed to close MCP session")
	}
}

// httpClientWithHeaders returns an http.Client that injects the configured
// headers on every request. Per-request deadlines come from contexts, so the
// client itself has no global timeout.
func httpClientWithHeaders(headers map[string]string) *http.Client {
	client := &http.Client{}
	if len(headers) == 0 {
		return client
	}
	client.Transport = &headerRoundTripper{headers: headers, next: http.DefaultTransport}
	return client
}

type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	for k, v := range h.headers {
		cloned.Header.Set(k, v)
	}
	return h.next.RoundTrip(cloned)
}
