// Package provider constructs chat models through the Eino framework.
package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config selects and parameterizes the chat model backing an agent run.
type Config struct {
	// Model in "provider/model" form (e.g. "openai/gpt-4o",
	// "anthropic/claude-sonnet-4-20250514"). A bare model name defaults to
	// the openai provider.
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 4096
)

// NewChatModel builds a tool-calling chat model from the configuration,
// falling back to environment variables for credentials. When no model is
// configured, the provider is picked from whichever API key is present.
func NewChatModel(ctx context.Context, cfg Config) (model.ToolCallingChatModel, error) {
	providerID, modelID := splitModel(cfg.Model)
	if providerID == "" {
		switch {
		case os.Getenv("OPENAI_API_KEY") != "":
			providerID = "openai"
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			providerID = "anthropic"
		default:
			return nil, fmt.Errorf("no model configured and neither OPENAI_API_KEY nor ANTHROPIC_API_KEY is set")
		}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	switch providerID {
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		if modelID == "" {
			modelID = envOr("OPENAI_MODEL_NAME", defaultOpenAIModel)
		}
		mc := &openai.ChatModelConfig{
			APIKey:              apiKey,
			Model:               modelID,
			MaxCompletionTokens: &maxTokens,
		}
		if cfg.BaseURL != "" {
			mc.BaseURL = cfg.BaseURL
		}
		chatModel, err := openai.NewChatModel(ctx, mc)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
		}
		return chatModel, nil

	case "anthropic":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		if modelID == "" {
			modelID = envOr("ANTHROPIC_MODEL_NAME", defaultAnthropicModel)
		}
		mc := &claude.Config{
			APIKey:    apiKey,
			Model:     modelID,
			MaxTokens: maxTokens,
		}
		if cfg.BaseURL != "" {
			mc.BaseURL = &cfg.BaseURL
		}
		chatModel, err := claude.NewChatModel(ctx, mc)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude model: %w", err)
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("unknown model provider %q", providerID)
	}
}

// splitModel splits a "provider/model" reference. Bare names map to
// ("", name) and the provider is resolved from the environment.
func splitModel(ref string) (providerID, modelID string) {
	if ref == "" {
		return "", ""
	}
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "", ref
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
