// Package mcp connects relay tools with the Model Context Protocol.
//
// The integration runs both ways:
//
//   - Server: NewServer exposes the executable tools of a tool.Registry to
//     MCP clients such as desktop assistants.
//   - Client: RemoteRegistry connects to an MCP server and exposes each of
//     its tools as a tool.Tool, ready to register with an agent.
//
// Consuming a server:
//
//	remote, err := mcp.NewRemoteRegistry(ctx, "./my-mcp-server", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer remote.Close()
//
//	registry := tool.NewRegistry()
//	if err := remote.RegisterInto(registry); err != nil {
//	    log.Fatal(err)
//	}
//	res, err := agent.New(c, registry).Run(ctx, msgs)
//
// Serving a registry over stdio:
//
//	if err := mcp.ServeStdio(registry); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/relay"
)

// ToMCPTool converts a tool definition to an MCP Tool.
// The definition's JSON schema is used as the MCP Tool's RawInputSchema.
func ToMCPTool(t ai.Tool) mcp.Tool {
	schema := t.Parameters
	if len(schema) == 0 {
		schema = json.RawMessage(`{"type":"object"}`)
	}
	return mcp.NewToolWithRawSchema(t.Name, t.Description, schema)
}

// FromMCPTool converts an MCP Tool to a tool definition.
// It extracts the JSON schema from either RawInputSchema or InputSchema.
func FromMCPTool(t mcp.Tool) ai.Tool {
	var schema json.RawMessage
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else if data, err := json.Marshal(t.InputSchema); err == nil {
		schema = data
	}

	return ai.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

// callRequest builds an MCP CallToolRequest from raw JSON arguments.
func callRequest(name string, args json.RawMessage) mcp.CallToolRequest {
	var decoded any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &decoded); err != nil {
			decoded = string(args)
		}
	}

	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: decoded,
		},
	}
}

// resultText flattens an MCP CallToolResult into text. Non-text content
// and structured content are JSON-encoded.
func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}

	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}

// toCallToolResult renders a tool outcome for an MCP client.
func toCallToolResult(tr ai.ToolResult) *mcp.CallToolResult {
	if tr.IsError {
		return mcp.NewToolResultError(tr.Content)
	}
	return mcp.NewToolResultText(tr.Content)
}
