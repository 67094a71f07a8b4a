package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentrun-ai/agentrun/internal/agent"
	"github.com/agentrun-ai/agentrun/internal/config"
)

var listDir string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := GetWorkDir(listDir)
		if err != nil {
			return err
		}
		cfg, err := config.Load(workDir)
		if err != nil {
			return err
		}

		registry := agent.NewRegistry()
		registry.ApplyOverrides(cfg.Agents)
		if cfg.AgentsDir != "" {
			if err := registry.LoadDir(cfg.AgentsDir); err != nil {
				return err
			}
		}

		for _, a := range registry.List() {
			servers := "none"
			if len(a.Servers) > 0 {
				servers = strings.Join(a.Servers, ", ")
			}
			fmt.Printf("%-12s %s\n", a.Name, a.Description)
			fmt.Printf("%-12s servers: %s\n", "", servers)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listDir, "directory", "", "Working directory")
}
