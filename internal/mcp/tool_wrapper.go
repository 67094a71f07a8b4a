package mcp

import (
	"context"
	"encoding/json"

	"github.com/agentrun-ai/agentrun/internal/tool"
)

// WrapTool adapts a ToolHandle to the local tool interface so remote tools
// can be registered alongside local ones. The wrapped tool is only valid
// while the handle's session is open.
func WrapTool(h *ToolHandle) tool.Tool {
	return &handleTool{handle: h}
}

// WrapTools adapts a slice of handles.
func WrapTools(handles []*ToolHandle) []tool.Tool {
	out := make([]tool.Tool, len(handles))
	for i, h := range handles {
		out[i] = WrapTool(h)
	}
	return out
}

type handleTool struct {
	handle *ToolHandle
}

func (t *handleTool) ID() string                  { return t.handle.Name() }
func (t *handleTool) Description() string         { return t.handle.Description() }
func (t *handleTool) Parameters() json.RawMessage { return t.handle.InputSchema() }

func (t *handleTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	return t.handle.Call(ctx, input)
}
