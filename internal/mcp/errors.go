package mcp

import "fmt"

// ConnectionError is the single error type raised at the acquisition
// boundary. Every connect-time failure, whatever the transport produced, is
// wrapped into one of these so callers have exactly one type to special-case.
// Cause may itself join several errors when multiple transports were tried
// for a single server.
type ConnectionError struct {
	Server string
	Cause  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to MCP server %q: %v", e.Server, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// connErr wraps err unless it already is a ConnectionError for this server.
func connErr(server string, err error) *ConnectionError {
	if ce, ok := err.(*ConnectionError); ok && ce.Server == server {
		return ce
	}
	return &ConnectionError{Server: server, Cause: err}
}
