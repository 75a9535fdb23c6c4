// Command mcp serves relay tools to MCP clients over stdio.
//
// With arguments, it instead connects to the MCP server they name, lists its
// tools and calls the first one with empty arguments, to check that remote
// tools load into a relay registry:
//
//	go run ./cmd/mcp                      # serve
//	go run ./cmd/mcp -- go run ./cmd/mcp  # probe a server
//
// Configuration for Claude Desktop:
//
//	{
//	    "mcpServers": {
//	        "relay-tools": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/relay"
//	        }
//	    }
//	}
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spetersoncode/relay/mcp"
	"github.com/spetersoncode/relay/tool"
)

func main() {
	// stdout carries the protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		if err := probe(context.Background(), logger, args[0], args[1:]); err != nil {
			logger.Error("probe failed", "error", err)
			os.Exit(1)
		}
		return
	}

	registry := tool.NewRegistry().Add(
		tool.Func("echo", "Echo back the input text", echoHandler),
		tool.Func("time", "Get the current time", timeHandler),
		tool.Func("calculate", "Perform basic arithmetic", calculateHandler),
	)

	if err := mcp.ServeStdio(registry,
		mcp.WithName("relay-mcp-example"),
		mcp.WithVersion("1.0.0"),
		mcp.WithExecutorOptions(tool.WithHandlerTimeout(30*time.Second), tool.WithLogger(logger)),
	); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func probe(ctx context.Context, logger *slog.Logger, command string, args []string) error {
	remote, err := mcp.NewRemoteRegistry(ctx, command, os.Environ(), args...)
	if err != nil {
		return err
	}
	defer remote.Close()

	registry := tool.NewRegistry()
	if err := remote.RegisterInto(registry); err != nil {
		return err
	}
	logger.Info("loaded remote tools", "count", registry.Len(), "names", registry.Names())

	names := registry.Names()
	if len(names) == 0 {
		return nil
	}
	t, _ := registry.Find(names[0])
	out, err := t.Execute(ctx, []byte(`{}`))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// EchoArgs are the arguments for the echo tool.
type EchoArgs struct {
	Text string `json:"text" jsonschema:"description=The text to echo back"`
}

func echoHandler(ctx context.Context, args EchoArgs) (string, error) {
	return args.Text, nil
}

// TimeArgs are the arguments for the time tool.
type TimeArgs struct {
	Format string `json:"format,omitempty" jsonschema:"enum=rfc3339,enum=unix,enum=human"`
}

func timeHandler(ctx context.Context, args TimeArgs) (string, error) {
	now := time.Now()
	switch strings.ToLower(args.Format) {
	case "rfc3339":
		return now.Format(time.RFC3339), nil
	case "unix":
		return fmt.Sprintf("%d", now.Unix()), nil
	default:
		return now.Format("Monday, January 2, 2006 at 3:04 PM MST"), nil
	}
}

// CalculateArgs are the arguments for the calculate tool.
type CalculateArgs struct {
	Operation string  `json:"operation" jsonschema:"enum=add,enum=subtract,enum=multiply,enum=divide"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
}

func calculateHandler(ctx context.Context, args CalculateArgs) (string, error) {
	var result float64
	switch args.Operation {
	case "add":
		result = args.A + args.B
	case "subtract":
		result = args.A - args.B
	case "multiply":
		result = args.A * args.B
	case "divide":
		if args.B == 0 {
			return "", fmt.Errorf("cannot divide by zero")
		}
		result = args.A / args.B
	default:
		return "", fmt.Errorf("unknown operation: %s", args.Operation)
	}
	return fmt.Sprintf("%.6g", result), nil
}
