package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	ai "github.com/spetersoncode/relay"
)

// DefaultHandlerTimeout bounds a single tool execution.
const DefaultHandlerTimeout = 30 * time.Second

// Executor runs tool calls against a registry.
type Executor struct {
	registry       *Registry
	handlerTimeout time.Duration
	maxConcurrency int
	logger         *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithHandlerTimeout bounds each tool execution. Zero disables the bound.
func WithHandlerTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.handlerTimeout = d
	}
}

// WithMaxConcurrency caps how many calls of one batch run at once. Zero
// or less means every call in the batch runs concurrently.
func WithMaxConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxConcurrency = n
	}
}

// WithLogger sets the logger used for execution diagnostics.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates an executor over registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry:       registry,
		handlerTimeout: DefaultHandlerTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanExecute reports whether at least one call targets a registered tool
// with an execute function.
func (e *Executor) CanExecute(calls []ai.ToolCall) bool {
	for _, c := range calls {
		if t, ok := e.registry.Find(c.Name); ok && t.HasExecute() {
			return true
		}
	}
	return false
}

// ExecuteAll runs every call concurrently and returns exactly one result per
// call, in call order. Failures are reported in the results; ExecuteAll
// itself never fails.
func (e *Executor) ExecuteAll(ctx context.Context, calls []ai.ToolCall) []ai.ToolExecutionResult {
	results := make([]ai.ToolExecutionResult, len(calls))
	var g errgroup.Group
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}
	for i, call := range calls {
		g.Go(func() error {
			results[i] = e.Execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Execute runs a single call. Unknown tools, manual tools, invalid
// arguments, handler errors and panics all produce a failed result.
func (e *Executor) Execute(ctx context.Context, call ai.ToolCall) (res ai.ToolExecutionResult) {
	res = ai.ToolExecutionResult{ToolCallID: call.ID, ToolName: call.Name}

	t, ok := e.registry.Find(call.Name)
	if !ok {
		res.Err = &ErrToolNotFound{Name: call.Name}
		e.logger.Warn("tool call for unknown tool", "tool", call.Name, "call_id", call.ID)
		return res
	}
	if !t.HasExecute() {
		res.Err = &ErrNoExecute{Name: call.Name}
		return res
	}
	args := call.RawArguments()
	if !json.Valid(args) {
		res.Err = &ErrInvalidArguments{Name: call.Name, Err: errors.New("arguments are not valid JSON")}
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = &ErrToolExecution{Name: call.Name, Err: err}
		return res
	}

	if e.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.handlerTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Result = nil
			res.Err = &ErrToolExecution{Name: call.Name, Err: fmt.Errorf("panic: %v", r)}
			e.logger.Error("tool panicked", "tool", call.Name, "call_id", call.ID, "panic", r)
		}
	}()

	out, err := t.Execute(ctx, args)
	if err != nil {
		var invalid *ErrInvalidArguments
		if errors.As(err, &invalid) {
			res.Err = invalid
		} else {
			res.Err = &ErrToolExecution{Name: call.Name, Err: err}
		}
		e.logger.Debug("tool failed", "tool", call.Name, "call_id", call.ID, "error", err)
		return res
	}
	res.Result = out
	return res
}
