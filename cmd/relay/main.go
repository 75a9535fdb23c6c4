// Command relay sends a prompt to a model with a few demo tools and streams
// the answer to stdout. Tool activity is logged to stderr.
//
// Configuration is via environment variables (a .env file is loaded if
// present):
//
//	RELAY_MODEL        - Model, e.g. anthropic/claude-sonnet-4-5 (default depends on keys)
//	RELAY_MAX_TURNS    - Max backend calls per run (default: 8)
//	RELAY_MAX_COST     - Stop once the run has cost this much USD (default: off)
//	RELAY_TIMEOUT      - Run timeout (default: 2m)
//	RELAY_LOG_LEVEL    - debug, info, warn or error (default: info)
//	RELAY_FILES_ROOT   - Let the model read files under this directory (default: off)
//	RELAY_HTTP_HOSTS   - Comma-separated hosts the model may fetch from (default: off)
//	OPENROUTER_API_KEY - Send every model through OpenRouter
//	ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY
//	VERTEX_PROJECT, VERTEX_LOCATION - Use Vertex AI for Google models
//
// Usage:
//
//	go run ./cmd/relay "What's the weather in Paris?"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/agent"
	"github.com/spetersoncode/relay/stop"
	"github.com/spetersoncode/relay/tool"
)

const defaultPrompt = "What's the weather in Paris and Tokyo, and what is 17 times 23?"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	prompt := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if prompt == "" {
		prompt = defaultPrompt
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, prompt); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, logger *slog.Logger, prompt string) error {
	c := cfg.Client(logger)

	opts := []agent.Option{
		agent.WithMaxTurns(cfg.MaxTurns),
		agent.WithTimeout(cfg.Timeout),
		agent.WithLogger(logger),
	}
	if cfg.MaxCost > 0 {
		opts = append(opts, agent.WithStopWhen(stop.MaxCost(cfg.MaxCost)))
	}

	registry := demoTools()
	if cfg.FilesRoot != "" {
		files, closeFiles, err := tool.FileTools(cfg.FilesRoot)
		if err != nil {
			return err
		}
		defer closeFiles()
		registry.Add(files...)
	}
	if len(cfg.HTTPHosts) > 0 {
		registry.Add(tool.HTTPGet(tool.WithAllowedHosts(cfg.HTTPHosts...)))
	}

	res := c.CallModel(ctx, registry, []ai.Message{ai.NewUserMessage(prompt)}, opts...)
	defer res.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for r, err := range res.ToolResultStream(gctx) {
			if err != nil {
				return nil
			}
			tr := r.ToToolResult()
			logger.Info("tool finished", "tool", r.ToolName, "call_id", r.ToolCallID, "error", tr.IsError, "output", tr.Content)
		}
		return nil
	})
	g.Go(func() error {
		for delta, err := range res.TextStream(gctx) {
			if err != nil {
				return err
			}
			fmt.Print(delta)
		}
		fmt.Println()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out, err := res.Orchestration(ctx)
	if err != nil {
		return err
	}
	logger.Info("run finished",
		"termination", out.Termination,
		"turns", out.Turns(),
		"tokens", out.TotalUsage.Total(),
		"cost_usd", out.TotalUsage.Cost,
	)
	return nil
}
