package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentrun-ai/agentrun/internal/config"
	"github.com/agentrun-ai/agentrun/internal/mcp"
)

var serversDir string

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Show the resolved MCP server catalog",
	Long: `Show the resolved MCP server catalog: the built-in defaults merged
with any configuration overrides, with credentials resolved from the
environment. Header values are not printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := GetWorkDir(serversDir)
		if err != nil {
			return err
		}
		cfg, err := config.Load(workDir)
		if err != nil {
			return err
		}

		catalog := mcp.ResolveCatalog(cfg.MCP)
		names := make([]string, 0, len(catalog))
		for name := range catalog {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			sc := catalog[name]
			state := "enabled"
			if !sc.IsEnabled() {
				state = "disabled"
			}
			target := sc.URL
			if sc.Transport == mcp.TransportStdio {
				target = strings.Join(sc.Command, " ")
			}
			fmt.Printf("%-24s %-9s %-8s %s\n", name, sc.Transport, state, redactQuery(target))
		}
		return nil
	},
}

// redactQuery hides query string values so resolved secrets never land in
// terminal output.
func redactQuery(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i] + "?..."
	}
	return target
}

func init() {
	serversCmd.Flags().StringVar(&serversDir, "directory", "", "Working directory")
}
