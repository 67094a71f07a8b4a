// Package commands provides the CLI commands for agentrun.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/agentrun-ai/agentrun/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs bool
	logLevel  string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "agentrun",
	Short: "agentrun - registry-driven LLM agents with MCP tools",
	Long: `agentrun runs LLM agents that acquire their tools dynamically from
MCP (Model Context Protocol) servers.

Run 'agentrun list' to see the available agents, 'agentrun servers' to
inspect the MCP server catalog, and 'agentrun run' to execute an agent.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand, show help
		cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Output: logOutput(),
			File:   logFile,
			Pretty: printLogs,
		})
	},
}

func logOutput() io.Writer {
	if printLogs {
		return os.Stderr
	}
	return io.Discard
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to file")

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("agentrun %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serversCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}
