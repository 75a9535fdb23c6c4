// Command aguiserver exposes relay over the AG-UI protocol with Server-Sent
// Events, for frontends such as CopilotKit.
//
// Configuration is via environment variables (a .env file is loaded if
// present):
//
//	AGUI_PORT         - Server port (default: 8000)
//	AGUI_LOG_LEVEL    - debug, info, warn or error (default: info)
//	RELAY_MODEL       - Model, e.g. openai/gpt-5-mini (required)
//	RELAY_MAX_TURNS   - Max backend calls per run (default: 10)
//	RELAY_TIMEOUT     - Run timeout (default: 2m)
//	OPENROUTER_API_KEY, ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY
//
// Usage:
//
//	RELAY_MODEL=anthropic/claude-sonnet-4-5 go run ./cmd/aguiserver
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/relay/client"
	"github.com/spetersoncode/relay/tool"
)

// Config holds the server configuration.
type Config struct {
	Port     string
	LogLevel slog.Level
	Model    string
	MaxTurns int
	Timeout  time.Duration
	APIKeys  client.APIKeys
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:     getEnvOrDefault("AGUI_PORT", "8000"),
		Model:    os.Getenv("RELAY_MODEL"),
		MaxTurns: 10,
		Timeout:  2 * time.Minute,
		APIKeys: client.APIKeys{
			OpenRouter: os.Getenv("OPENROUTER_API_KEY"),
			Anthropic:  os.Getenv("ANTHROPIC_API_KEY"),
			OpenAI:     os.Getenv("OPENAI_API_KEY"),
			Google:     os.Getenv("GOOGLE_API_KEY"),
		},
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvOrDefault("AGUI_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("AGUI_LOG_LEVEL: %w", err)
	}
	if v := os.Getenv("RELAY_MAX_TURNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("RELAY_MAX_TURNS must be a positive integer, got %q", v)
		}
		cfg.MaxTurns = n
	}
	if v := os.Getenv("RELAY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("RELAY_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if cfg.Model == "" {
		return nil, errors.New("RELAY_MODEL is required")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	c := client.New(client.Config{
		APIKeys:      cfg.APIKeys,
		DefaultModel: cfg.Model,
		Logger:       logger,
	})

	registry := tool.NewRegistry().Add(
		tool.Func("current_time", "Get the current time in RFC 3339 format",
			func(ctx context.Context, _ struct{}) (string, error) {
				return time.Now().Format(time.RFC3339), nil
			}),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/agent", corsMiddleware(NewAgentHandler(c, registry, cfg)))
	mux.HandleFunc("/health", healthHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("AG-UI server starting", "port", cfg.Port, "model", cfg.Model,
		"endpoint", "POST /api/agent")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
