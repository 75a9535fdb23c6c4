package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name     string
	version  string
	execOpts []tool.ExecutorOption
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithExecutorOptions configures how served tools are executed, e.g. their
// timeout.
func WithExecutorOptions(opts ...tool.ExecutorOption) ServerOption {
	return func(c *serverConfig) {
		c.execOpts = append(c.execOpts, opts...)
	}
}

// NewServer creates an MCP server that exposes the executable tools of
// registry. Manual tools are skipped. Calls run through a tool.Executor,
// so failures and panics reach the client as error results.
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "relay-mcp-server",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(cfg.name, cfg.version, server.WithToolCapabilities(true))
	exec := tool.NewExecutor(registry, cfg.execOpts...)

	for _, name := range registry.Names() {
		t, ok := registry.Find(name)
		if !ok || !t.HasExecute() {
			continue
		}
		s.AddTool(ToMCPTool(t.Definition()), handler(exec, name))
	}
	return s
}

func handler(exec *tool.Executor, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
			}
			args = string(data)
		}

		res := exec.Execute(ctx, ai.ToolCall{
			ID:        "mcp_" + uuid.NewString(),
			Name:      name,
			Arguments: args,
		})
		return toCallToolResult(res.ToToolResult()), nil
	}
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(registry *tool.Registry, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(registry, opts...))
}
