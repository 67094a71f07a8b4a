package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/cobra"

	"github.com/agentrun-ai/agentrun/internal/agent"
	"github.com/agentrun-ai/agentrun/internal/config"
	"github.com/agentrun-ai/agentrun/internal/mcp"
	"github.com/agentrun-ai/agentrun/internal/provider"
	"github.com/agentrun-ai/agentrun/internal/tool"
)

// defaultRunTimeout bounds a whole agent run, connection setup included.
const defaultRunTimeout = 90 * time.Second

var (
	runAgentName string
	runModel     string
	runDir       string
	runTimeout   time.Duration
	runFailFast  bool
)

var runCmd = &cobra.Command{
	Use:   "run [input...]",
	Short: "Run an agent with the given input",
	Long: `Run an agent with the given input. The agent's MCP servers are
connected for the duration of the run and torn down afterwards.

Examples:
  agentrun run "What is the capital of France?"
  agentrun run --agent chef "Dinner ideas with salmon and fennel"
  agentrun run --agent travel --timeout 3m "Flights Prague to Lisbon in October"`,
	RunE: runAgent,
}

func init() {
	runCmd.Flags().StringVarP(&runAgentName, "agent", "a", "simple", "Agent to run")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use (provider/model format)")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Working directory")
	runCmd.Flags().DurationVarP(&runTimeout, "timeout", "t", defaultRunTimeout, "Whole-run timeout")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", true, "Abort if any of the agent's MCP servers is unreachable")
}

func runAgent(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input required. Usage: agentrun run \"your question\"")
	}

	workDir, err := GetWorkDir(runDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}
	if runModel != "" {
		cfg.Model = runModel
	}

	registry := agent.NewRegistry()
	registry.ApplyOverrides(cfg.Agents)
	if cfg.AgentsDir != "" {
		if err := registry.LoadDir(cfg.AgentsDir); err != nil {
			return err
		}
	}

	a, err := registry.Get(runAgentName)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.Names(), ", "))
	}

	// One deadline covers connection setup, tool discovery, and the model
	// loop. Connection failures keep their own error shape so they can be
	// told apart from the run simply taking too long.
	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	chatModel, err := provider.NewChatModel(ctx, provider.Config{Model: modelFor(cfg, a)})
	if err != nil {
		return err
	}

	var tools []tool.Tool
	if a.UseDevTools {
		tools = append(tools, tool.DeveloperTools(workDir)...)
	}
	if a.UseGitHubTools {
		tools = append(tools, tool.GitHubTools()...)
	}

	if len(a.Servers) > 0 {
		catalog := mcp.ResolveCatalog(cfg.MCP).Subset(a.Servers)
		prov := mcp.New(catalog)
		scope, err := prov.OpenScope(ctx, mcp.WithFailFast(runFailFast))
		if err != nil {
			return describeConnectError(err)
		}
		defer scope.Close()
		tools = append(tools, mcp.WrapTools(scope.Tools())...)
	}

	result, err := runWith(ctx, chatModel, a, tools, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return fmt.Errorf("run timed out after %s (raise with --timeout)", runTimeout)
		}
		return err
	}

	fmt.Println(result)
	return nil
}

// runWith dispatches to the staged pipeline when the agent defines stages,
// otherwise to the plain run loop.
func runWith(ctx context.Context, chatModel model.ToolCallingChatModel, a *agent.Agent, tools []tool.Tool, input string) (string, error) {
	if len(a.Stages) > 0 {
		return agent.NewCoordinator(chatModel, a, tools).Run(ctx, input)
	}
	return agent.NewRunner(chatModel, a, tools).Run(ctx, input)
}

// modelFor picks the model reference, per-agent override first.
func modelFor(cfg *config.Config, a *agent.Agent) string {
	if a.Model != "" {
		return a.Model
	}
	return cfg.Model
}

// serverHints maps server names to setup advice shown alongside connection
// failures.
var serverHints = map[string]string{
	"tavily":   "set TAVILY_API_KEY in the environment or in a .env file",
	"tinyfish": "set TINYFISH_API_KEY in the environment or in a .env file",
	"webfetch": "the public webfetch endpoint is rate limited; retry in a moment",
}

// describeConnectError turns an OpenScope failure into an actionable CLI
// error. Cancellation passes through untouched.
func describeConnectError(err error) error {
	var connErr *mcp.ConnectionError
	if !errors.As(err, &connErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("run timed out after %s while connecting to MCP servers (raise with --timeout)", runTimeout)
		}
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "could not connect to MCP server %q:\n", connErr.Server)
	for _, line := range strings.Split(connErr.Cause.Error(), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if hint, ok := serverHints[connErr.Server]; ok {
		fmt.Fprintf(&b, "hint: %s\n", hint)
	}
	b.WriteString("use --fail-fast=false to run with whatever servers are reachable")
	return errors.New(b.String())
}
