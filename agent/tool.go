package agent

import (
	"context"
	"errors"
	"fmt"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
)

// ToolArgs is the default argument type for agent tools.
type ToolArgs struct {
	Query string `json:"query" jsonschema:"description=The query or task for the agent"`
}

// ToolOption configures an agent tool.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description  string
	maxTurns     int
	agentOptions []Option
}

// WithToolDescription sets the description the model sees.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) {
		c.description = desc
	}
}

// WithToolMaxTurns sets the turn limit of the sub-agent. Default is 5.
func WithToolMaxTurns(n int) ToolOption {
	return func(c *toolConfig) {
		c.maxTurns = n
	}
}

// WithToolAgentOptions passes options through to the sub-agent's runs.
func WithToolAgentOptions(opts ...Option) ToolOption {
	return func(c *toolConfig) {
		c.agentOptions = append(c.agentOptions, opts...)
	}
}

func applyToolOptions(description string, opts []ToolOption) *toolConfig {
	cfg := &toolConfig{description: description, maxTurns: 5}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// AsTool wraps an agent as a tool so one agent can delegate to another.
// The tool takes ToolArgs and returns the sub-agent's final text.
//
//	research := agent.New(c, researchTools)
//	registry.Add(agent.AsTool("research", research,
//	    agent.WithToolDescription("Delegate research to a specialist"),
//	    agent.WithToolMaxTurns(5),
//	))
func AsTool(name string, a *Agent, opts ...ToolOption) tool.Tool {
	return AsToolFunc(name, a, fmt.Sprintf("Invoke the %s agent", name),
		func(args ToolArgs) []ai.Message {
			return []ai.Message{ai.NewUserMessage(args.Query)}
		}, opts...)
}

// AsToolFunc wraps an agent as a tool with typed arguments. toMessages
// builds the sub-agent's input from the decoded arguments.
func AsToolFunc[T any](name string, a *Agent, description string, toMessages func(args T) []ai.Message, opts ...ToolOption) tool.Tool {
	cfg := applyToolOptions(description, opts)
	runOpts := append([]Option{WithMaxTurns(cfg.maxTurns)}, cfg.agentOptions...)

	return tool.Func(name, cfg.description, func(ctx context.Context, args T) (string, error) {
		res, err := a.Run(ctx, toMessages(args), runOpts...)
		if err != nil {
			return "", fmt.Errorf("agent %s: %w", name, err)
		}
		if res.Response == nil {
			return "", errors.New("agent returned no response")
		}
		return res.Text(), nil
	})
}
