// Package demo provides a small MCP server used to exercise the stdio
// transport end to end without network access.
package demo

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentrun-ai/agentrun/internal/tool"
)

// NewServer creates the demo MCP server.
func NewServer() *server.MCPServer {
	s := server.NewMCPServer(
		"demo",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	echoTool := mcp.NewTool("echo",
		mcp.WithDescription("Echoes the given text back to the caller"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to echo"),
		),
	)
	s.AddTool(echoTool, echoHandler)

	weatherTool := mcp.NewTool("weather",
		mcp.WithDescription("Returns a deterministic mock forecast for a city"),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City name"),
		),
	)
	s.AddTool(weatherTool, weatherHandler)

	calcTool := mcp.NewTool("calculate",
		mcp.WithDescription("Evaluates a mathematical expression"),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("Arithmetic expression, e.g. \"(2 + 3) * 4\""),
		),
	)
	s.AddTool(calcTool, calculateHandler)

	return s
}

func calculateHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression, ok := request.GetArguments()["expression"].(string)
	if !ok || strings.TrimSpace(expression) == "" {
		return mcp.NewToolResultError("expression argument is required"), nil
	}
	result, err := tool.Evaluate(expression)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func echoHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, ok := request.GetArguments()["text"].(string)
	if !ok {
		return mcp.NewToolResultError("text argument is required"), nil
	}
	return mcp.NewToolResultText(text), nil
}

var conditions = []string{"clear", "partly cloudy", "overcast", "light rain", "windy"}

// weatherHandler derives a stable forecast from the city name so test
// assertions stay reproducible.
func weatherHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city, ok := request.GetArguments()["city"].(string)
	if !ok || strings.TrimSpace(city) == "" {
		return mcp.NewToolResultError("city argument is required"), nil
	}

	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))
	sum := h.Sum32()

	temp := int(sum%35) - 5 // -5..29 C
	cond := conditions[int(sum/7)%len(conditions)]
	return mcp.NewToolResultText(fmt.Sprintf("%s: %d C, %s", city, temp, cond)), nil
}
