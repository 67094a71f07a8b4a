package mcp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionError_Message(t *testing.T) {
	err := &ConnectionError{Server: "tavily", Cause: errors.New("connection refused")}
	assert.Equal(t, `failed to connect to MCP server "tavily": connection refused`, err.Error())
}

func TestConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ConnectionError{Server: "tavily", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestConnectionError_GroupedCauses(t *testing.T) {
	// A single server attempt may try several transports; the causes are
	// joined and each stays reachable through the wrapper.
	streamable := errors.New("streamable: 404 not found")
	sse := errors.New("sse: connection reset")
	err := &ConnectionError{Server: "webfetch", Cause: errors.Join(streamable, sse)}

	assert.ErrorIs(t, err, streamable)
	assert.ErrorIs(t, err, sse)
	assert.Contains(t, err.Error(), "404 not found")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestConnErr_NoDoubleWrap(t *testing.T) {
	inner := connErr("alpha", errors.New("boom"))
	outer := connErr("alpha", inner)
	assert.Same(t, inner, outer)

	// A different server still gets its own wrapper.
	other := connErr("beta", inner)
	require.NotSame(t, inner, other)
	assert.Equal(t, "beta", other.Server)
}
