// Command demo-mcp runs the demo MCP server over stdio.
// It is used for exercising the MCP client integration locally.
package main

import (
	"log"

	"github.com/agentrun-ai/agentrun/pkg/mcpserver/demo"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	s := demo.NewServer()
	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}
