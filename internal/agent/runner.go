package agent

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/agentrun-ai/agentrun/internal/event"
	"github.com/agentrun-ai/agentrun/internal/logging"
	"github.com/agentrun-ai/agentrun/internal/tool"
)

// maxSteps bounds the generate/tool-call loop so a confused model cannot
// spin forever.
const maxSteps = 25

// modelRetries is the number of additional attempts after a transient model
// API failure.
const modelRetries = 2

// Runner drives one agent against a chat model and a toolset.
type Runner struct {
	chatModel model.ToolCallingChatModel
	agent     *Agent
	tools     map[string]tool.Tool
	order     []tool.Tool
}

// NewRunner creates a runner for one agent invocation. The tool slice is the
// union of the agent's local tools and whatever MCP tools were acquired for
// this run.
func NewRunner(chatModel model.ToolCallingChatModel, a *Agent, tools []tool.Tool) *Runner {
	byID := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		byID[t.ID()] = t
	}
	return &Runner{chatModel: chatModel, agent: a, tools: byID, order: tools}
}

// Run executes the generate → tool-call → append loop until the model stops
// requesting tools or the step limit is reached. The returned string is the
// model's final text.
func (r *Runner) Run(ctx context.Context, input string) (string, error) {
	runID := ulid.Make().String()
	logger := logging.Logger.With().Str("run", runID).Str("agent", r.agent.Name).Logger()
	logger.Info().Int("tools", len(r.order)).Msg("starting agent run")
	event.Publish(event.RunStarted, event.RunData{RunID: runID, Agent: r.agent.Name})

	result, err := r.loop(ctx, input, logger)

	data := event.RunData{RunID: runID, Agent: r.agent.Name}
	if err != nil {
		data.Err = err.Error()
	}
	event.Publish(event.RunFinished, data)
	return result, err
}

func (r *Runner) loop(ctx context.Context, input string, logger zerolog.Logger) (string, error) {
	chatModel := r.chatModel
	if len(r.order) > 0 {
		infos, err := r.toolInfos(ctx)
		if err != nil {
			return "", err
		}
		chatModel, err = chatModel.WithTools(infos)
		if err != nil {
			return "", fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	var opts []model.Option
	if r.agent.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(r.agent.Temperature)))
	}

	messages := []*schema.Message{
		schema.SystemMessage(r.agent.Prompt),
		schema.UserMessage(input),
	}

	for step := 0; step < maxSteps; step++ {
		resp, err := r.generate(ctx, chatModel, messages, opts)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		messages = append(messages, resp)

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		for _, tc := range resp.ToolCalls {
			output := r.callTool(ctx, tc, logger)
			messages = append(messages, schema.ToolMessage(output, tc.ID))
		}
	}

	return "", fmt.Errorf("agent %s exceeded %d steps without a final answer", r.agent.Name, maxSteps)
}

// generate calls the model with exponential backoff around transient
// failures. Context cancellation stops the retries.
func (r *Runner) generate(ctx context.Context, chatModel model.ToolCallingChatModel, messages []*schema.Message, opts []model.Option) (*schema.Message, error) {
	var resp *schema.Message
	operation := func() error {
		var err error
		resp, err = chatModel.Generate(ctx, messages, opts...)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), modelRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

// callTool executes one requested tool. Tool failures are reported back to
// the model as tool output rather than aborting the run, so the model can
// recover or try another tool.
func (r *Runner) callTool(ctx context.Context, tc schema.ToolCall, logger zerolog.Logger) string {
	name := tc.Function.Name
	t, ok := r.tools[name]
	if !ok {
		logger.Warn().Str("tool", name).Msg("model requested unknown tool")
		return fmt.Sprintf("Error: unknown tool %q", name)
	}

	logger.Debug().Str("tool", name).Msg("executing tool")
	output, err := t.Execute(ctx, []byte(tc.Function.Arguments))
	if err != nil {
		logger.Error().Str("tool", name).Err(err).Msg("tool execution failed")
		return fmt.Sprintf("Error: %v", err)
	}
	return output
}

func (r *Runner) toolInfos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, t := range r.order {
		info, err := tool.EinoTool(t).Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.ID(), err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
