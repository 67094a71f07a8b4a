package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/agentrun-ai/agentrun/internal/logging"
	"github.com/agentrun-ai/agentrun/internal/tool"
)

// Coordinator runs a staged agent. Every stage is a full Runner loop with
// its own system prompt; the composed input of each stage carries the user
// request plus the reports of all earlier stages, and the last stage's
// answer is the result.
type Coordinator struct {
	chatModel model.ToolCallingChatModel
	agent     *Agent
	tools     []tool.Tool
}

// NewCoordinator creates a coordinator for one staged agent invocation. The
// toolset is shared by all stages.
func NewCoordinator(chatModel model.ToolCallingChatModel, a *Agent, tools []tool.Tool) *Coordinator {
	return &Coordinator{chatModel: chatModel, agent: a, tools: tools}
}

// Run executes the stages in order and returns the final stage's output.
func (c *Coordinator) Run(ctx context.Context, input string) (string, error) {
	if len(c.agent.Stages) == 0 {
		return "", fmt.Errorf("agent %s has no stages", c.agent.Name)
	}

	logger := logging.Logger.With().Str("agent", c.agent.Name).Logger()

	type report struct {
		stage  string
		output string
	}
	var reports []report
	var result string

	for _, stage := range c.agent.Stages {
		stageAgent := c.agent.Clone()
		stageAgent.Name = c.agent.Name + ":" + stage.Name
		stageAgent.Prompt = stage.Prompt
		stageAgent.Stages = nil

		var sb strings.Builder
		fmt.Fprintf(&sb, "User request:\n%s", input)
		for _, r := range reports {
			fmt.Fprintf(&sb, "\n\n%s report:\n%s", r.stage, r.output)
		}
		if stage.Instruction != "" {
			fmt.Fprintf(&sb, "\n\n%s", stage.Instruction)
		}

		logger.Info().Str("stage", stage.Name).Msg("running pipeline stage")
		output, err := NewRunner(c.chatModel, stageAgent, c.tools).Run(ctx, sb.String())
		if err != nil {
			return "", fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		reports = append(reports, report{stage: stage.Name, output: output})
		result = output
	}

	return result, nil
}
