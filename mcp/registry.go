package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
)

// ErrRemoteTool is returned when an MCP server reports a tool failure.
type ErrRemoteTool struct {
	Name    string
	Message string
}

func (e *ErrRemoteTool) Error() string {
	return fmt.Sprintf("remote tool %s: %s", e.Name, e.Message)
}

// RemoteRegistry provides access to tools from an MCP server.
//
// RemoteRegistry is safe for concurrent use. The tool list is cached
// locally and can be refreshed with [RemoteRegistry.Refresh].
type RemoteRegistry struct {
	client *client.Client
	mu     sync.RWMutex
	defs   map[string]ai.Tool
}

// NewRemoteRegistry creates a RemoteRegistry connected to an MCP server via stdio.
// The command is the path to the MCP server executable, and args are passed to it.
func NewRemoteRegistry(ctx context.Context, command string, env []string, args ...string) (*RemoteRegistry, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	return NewRemoteRegistryFromClient(ctx, c)
}

// NewRemoteRegistrySSE creates a RemoteRegistry connected to an MCP server via SSE.
func NewRemoteRegistrySSE(ctx context.Context, baseURL string) (*RemoteRegistry, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSE MCP client: %w", err)
	}
	return NewRemoteRegistryFromClient(ctx, c)
}

// NewRemoteRegistryFromClient creates a RemoteRegistry from an existing MCP
// client. The client is started, initialized and asked for its tools.
func NewRemoteRegistryFromClient(ctx context.Context, c *client.Client) (*RemoteRegistry, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "relay-mcp-client",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	r := &RemoteRegistry{client: c, defs: map[string]ai.Tool{}}
	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return r, nil
}

// Close closes the connection to the MCP server.
func (r *RemoteRegistry) Close() error {
	return r.client.Close()
}

// Refresh fetches the current list of tools from the MCP server.
func (r *RemoteRegistry) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[string]ai.Tool, len(result.Tools))
	for _, t := range result.Tools {
		r.defs[t.Name] = FromMCPTool(t)
	}
	return nil
}

// Names returns the sorted names of all available tools.
func (r *RemoteRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of available tools.
func (r *RemoteRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Tool returns the named remote tool.
func (r *RemoteRegistry) Tool(name string) (tool.Tool, bool) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return tool.New(def, func(ctx context.Context, args json.RawMessage) (any, error) {
		return r.Execute(ctx, name, args)
	}), true
}

// Tools returns every remote tool, sorted by name.
func (r *RemoteRegistry) Tools() []tool.Tool {
	names := r.Names()
	tools := make([]tool.Tool, 0, len(names))
	for _, name := range names {
		if t, ok := r.Tool(name); ok {
			tools = append(tools, t)
		}
	}
	return tools
}

// RegisterInto registers every remote tool with registry. It stops at the
// first name conflict.
func (r *RemoteRegistry) RegisterInto(registry *tool.Registry) error {
	for _, t := range r.Tools() {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Execute calls a tool on the remote MCP server. A failure reported by the
// server is returned as *ErrRemoteTool.
func (r *RemoteRegistry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	result, err := r.client.CallTool(ctx, callRequest(name, args))
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	text := resultText(result)
	if result.IsError {
		return "", &ErrRemoteTool{Name: name, Message: text}
	}
	return text, nil
}
