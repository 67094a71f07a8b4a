// Package tool provides the local tool framework for agent runs.
package tool

import (
	"context"
	"encoding/json"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Tool is a callable exposed to the model, local or remote.
type Tool interface {
	// ID returns the tool identifier.
	ID() string

	// Description returns the tool description.
	Description() string

	// Parameters returns the JSON Schema for tool parameters.
	Parameters() json.RawMessage

	// Execute runs the tool and returns its textual output.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// EinoTool adapts a Tool to Eino's InvokableTool interface so it can be
// bound to a chat model.
func EinoTool(t Tool) einotool.InvokableTool {
	return &einoWrapper{tool: t}
}

type einoWrapper struct {
	tool Tool
}

func (w *einoWrapper) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        w.tool.ID(),
		Desc:        w.tool.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(ParseJSONSchemaToParams(w.tool.Parameters())),
	}, nil
}

func (w *einoWrapper) InvokableRun(ctx context.Context, argsJSON string, opts ...einotool.Option) (string, error) {
	return w.tool.Execute(ctx, json.RawMessage(argsJSON))
}

// ParseJSONSchemaToParams converts a JSON Schema object into Eino parameter
// info. Only the flat object shape emitted by tool authors and MCP servers
// is understood; anything else yields nil.
func ParseJSONSchemaToParams(schemaJSON json.RawMessage) map[string]*schema.ParameterInfo {
	var js struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schemaJSON, &js); err != nil {
		return nil
	}

	required := make(map[string]bool, len(js.Required))
	for _, r := range js.Required {
		required[r] = true
	}

	params := make(map[string]*schema.ParameterInfo, len(js.Properties))
	for name, prop := range js.Properties {
		paramType := schema.String
		switch prop.Type {
		case "integer":
			paramType = schema.Integer
		case "number":
			paramType = schema.Number
		case "boolean":
			paramType = schema.Boolean
		case "array":
			paramType = schema.Array
		case "object":
			paramType = schema.Object
		}
		params[name] = &schema.ParameterInfo{
			Type:     paramType,
			Desc:     prop.Description,
			Required: required[name],
		}
	}
	return params
}

// BaseTool is a function-backed Tool implementation.
type BaseTool struct {
	id          string
	description string
	parameters  json.RawMessage
	execute     func(ctx context.Context, input json.RawMessage) (string, error)
}

// NewBaseTool creates a tool from a function.
func NewBaseTool(id, description string, params json.RawMessage, execute func(context.Context, json.RawMessage) (string, error)) *BaseTool {
	return &BaseTool{id: id, description: description, parameters: params, execute: execute}
}

func (t *BaseTool) ID() string                  { return t.id }
func (t *BaseTool) Description() string         { return t.description }
func (t *BaseTool) Parameters() json.RawMessage { return t.parameters }

func (t *BaseTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	return t.execute(ctx, input)
}
