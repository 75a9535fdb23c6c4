package tool

import (
	"context"
	"encoding/json"

	ai "github.com/spetersoncode/relay"
)

// Tool is a capability the model may invoke.
type Tool interface {
	// Definition returns what the model is told about the tool.
	Definition() ai.Tool
	// HasExecute reports whether the tool can run locally. Manual tools
	// return false and their calls are returned to the caller.
	HasExecute() bool
	// Execute runs the tool with the raw JSON arguments from the model.
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// Handler executes a tool call from its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// TypedHandler executes a tool call with decoded arguments.
type TypedHandler[T, R any] func(ctx context.Context, args T) (R, error)

type funcTool struct {
	def     ai.Tool
	handler Handler
}

func (t *funcTool) Definition() ai.Tool { return t.def }

func (t *funcTool) HasExecute() bool { return t.handler != nil }

func (t *funcTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	if t.handler == nil {
		return nil, &ErrNoExecute{Name: t.def.Name}
	}
	return t.handler(ctx, args)
}

// New creates a tool from a definition and a raw handler. A nil handler
// makes the tool manual.
func New(def ai.Tool, h Handler) Tool {
	return &funcTool{def: def, handler: h}
}

// Manual creates a tool the model can call but that is never executed locally.
func Manual(def ai.Tool) Tool {
	return &funcTool{def: def}
}

// Func creates a tool whose parameter schema is derived from T. Arguments
// that do not decode into T fail with ErrInvalidArguments.
func Func[T, R any](name, description string, fn TypedHandler[T, R]) Tool {
	def := ai.Tool{
		Name:        name,
		Description: description,
		Parameters:  MustSchemaFor[T](),
	}
	return &funcTool{def: def, handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args T
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &ErrInvalidArguments{Name: name, Err: err}
		}
		return fn(ctx, args)
	}}
}

// ManualFunc creates a manual tool whose parameter schema is derived from T.
func ManualFunc[T any](name, description string) Tool {
	return Manual(ai.Tool{
		Name:        name,
		Description: description,
		Parameters:  MustSchemaFor[T](),
	})
}
