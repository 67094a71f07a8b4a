// Package main provides the entry point for the agentrun CLI.
package main

import (
	"fmt"
	"os"

	"github.com/agentrun-ai/agentrun/cmd/agentrun/commands"
	"github.com/joho/godotenv"
)

func main() {
	// Best effort: a missing .env is not an error.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
