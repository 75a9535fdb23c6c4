package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/relay/client"
	"github.com/spetersoncode/relay/model"
)

// Config holds the command configuration loaded from environment variables.
type Config struct {
	Model    string
	LogLevel slog.Level

	APIKeys client.APIKeys

	// Vertex AI (uses ADC for auth)
	VertexProject  string
	VertexLocation string

	// FilesRoot, when set, gives the model read-only access to a directory.
	FilesRoot string

	// HTTPHosts, when set, lets the model fetch URLs on these hosts.
	HTTPHosts []string

	MaxTurns int
	MaxCost  float64
	Timeout  time.Duration
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Model: getEnvOrDefault("RELAY_MODEL", ""),
		APIKeys: client.APIKeys{
			OpenRouter: os.Getenv("OPENROUTER_API_KEY"),
			Anthropic:  os.Getenv("ANTHROPIC_API_KEY"),
			OpenAI:     os.Getenv("OPENAI_API_KEY"),
			Google:     os.Getenv("GOOGLE_API_KEY"),
		},
		VertexProject:  os.Getenv("VERTEX_PROJECT"),
		VertexLocation: os.Getenv("VERTEX_LOCATION"),
		FilesRoot:      os.Getenv("RELAY_FILES_ROOT"),
		HTTPHosts:      splitList(os.Getenv("RELAY_HTTP_HOSTS")),
		MaxTurns:       getEnvIntOrDefault("RELAY_MAX_TURNS", 8),
		MaxCost:        getEnvFloatOrDefault("RELAY_MAX_COST", 0),
		Timeout:        getEnvDurationOrDefault("RELAY_TIMEOUT", 2*time.Minute),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvOrDefault("RELAY_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("RELAY_LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that at least one backend can be reached.
func (c *Config) Validate() error {
	k := c.APIKeys
	if k.OpenRouter == "" && k.Anthropic == "" && k.OpenAI == "" && k.Google == "" && c.VertexProject == "" {
		return fmt.Errorf("set OPENROUTER_API_KEY, ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY or VERTEX_PROJECT")
	}
	if (c.VertexProject == "") != (c.VertexLocation == "") {
		return fmt.Errorf("VERTEX_PROJECT and VERTEX_LOCATION must be set together")
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("RELAY_MAX_TURNS must be positive, got %d", c.MaxTurns)
	}
	return nil
}

// Client builds the unified client.
func (c *Config) Client(logger *slog.Logger) *client.Client {
	cfg := client.Config{
		APIKeys:      c.APIKeys,
		DefaultModel: c.Model,
		Logger:       logger,
	}
	if c.VertexProject != "" {
		cfg.Vertex = &client.Vertex{Project: c.VertexProject, Location: c.VertexLocation}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultModel(c.APIKeys)
	}
	return client.New(cfg)
}

func defaultModel(k client.APIKeys) string {
	switch {
	case k.OpenRouter != "", k.OpenAI != "":
		return model.DefaultGPTModel.Qualified()
	case k.Anthropic != "":
		return model.DefaultClaudeModel.Qualified()
	default:
		return model.DefaultGeminiModel.Qualified()
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
