package tool

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delayArgs struct {
	Delay int `json:"delay"`
}

// delayed returns a tool that sleeps for the requested milliseconds and then
// echoes its own name, so completion order differs from call order.
func delayed(name string) Tool {
	return Func(name, "sleeps", func(ctx context.Context, args delayArgs) (string, error) {
		select {
		case <-time.After(time.Duration(args.Delay) * time.Millisecond):
			return name, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func TestExecuteAllPreservesCallOrder(t *testing.T) {
	r := NewRegistry().Add(delayed("a"), delayed("b"), delayed("c"))
	exec := NewExecutor(r)

	calls := []ai.ToolCall{
		{ID: "1", Name: "a", Arguments: `{"delay":30}`},
		{ID: "2", Name: "b", Arguments: `{"delay":1}`},
		{ID: "3", Name: "c", Arguments: `{"delay":15}`},
	}
	results := exec.ExecuteAll(context.Background(), calls)

	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, calls[i].ID, res.ToolCallID)
		assert.Equal(t, calls[i].Name, res.ToolName)
		assert.Equal(t, calls[i].Name, res.Result)
		assert.True(t, res.Success())
	}
}

func TestExecuteAllRunsConcurrently(t *testing.T) {
	r := NewRegistry().Add(delayed("slow"))
	calls := make([]ai.ToolCall, 5)
	for i := range calls {
		calls[i] = ai.ToolCall{ID: string(rune('a' + i)), Name: "slow", Arguments: `{"delay":50}`}
	}

	start := time.Now()
	NewExecutor(r).ExecuteAll(context.Background(), calls)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestExecuteAllConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	counted := New(ai.Tool{Name: "counted"}, func(ctx context.Context, _ json.RawMessage) (any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return "ok", nil
	})
	r := NewRegistry().Add(counted)

	calls := make([]ai.ToolCall, 8)
	for i := range calls {
		calls[i] = ai.ToolCall{ID: string(rune('a' + i)), Name: "counted"}
	}
	results := NewExecutor(r, WithMaxConcurrency(2)).ExecuteAll(context.Background(), calls)

	assert.Len(t, results, 8)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExecuteFailures(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry().Add(
		New(ai.Tool{Name: "fails"}, func(context.Context, json.RawMessage) (any, error) { return nil, boom }),
		New(ai.Tool{Name: "panics"}, func(context.Context, json.RawMessage) (any, error) { panic("kaboom") }),
		Manual(ai.Tool{Name: "manual"}),
		searchTool(),
	)
	exec := NewExecutor(r)
	ctx := context.Background()

	t.Run("unknown tool", func(t *testing.T) {
		res := exec.Execute(ctx, ai.ToolCall{ID: "1", Name: "nope"})
		var nf *ErrToolNotFound
		require.ErrorAs(t, res.Err, &nf)
		assert.Equal(t, "nope", nf.Name)
		assert.Equal(t, "1", res.ToolCallID)
		assert.True(t, res.ToToolResult().IsError)
	})

	t.Run("handler error", func(t *testing.T) {
		res := exec.Execute(ctx, ai.ToolCall{ID: "2", Name: "fails"})
		var execErr *ErrToolExecution
		require.ErrorAs(t, res.Err, &execErr)
		assert.ErrorIs(t, res.Err, boom)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		res := exec.Execute(ctx, ai.ToolCall{ID: "3", Name: "panics"})
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "kaboom")
	})

	t.Run("manual tool", func(t *testing.T) {
		res := exec.Execute(ctx, ai.ToolCall{ID: "4", Name: "manual"})
		var noExec *ErrNoExecute
		assert.ErrorAs(t, res.Err, &noExec)
	})

	t.Run("malformed json", func(t *testing.T) {
		res := exec.Execute(ctx, ai.ToolCall{ID: "5", Name: "search", Arguments: `{"query":`})
		var invalid *ErrInvalidArguments
		assert.ErrorAs(t, res.Err, &invalid)
	})

	t.Run("wrong argument types", func(t *testing.T) {
		res := exec.Execute(ctx, ai.ToolCall{ID: "6", Name: "search", Arguments: `{"query":1}`})
		var invalid *ErrInvalidArguments
		assert.ErrorAs(t, res.Err, &invalid)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		res := exec.Execute(cctx, ai.ToolCall{ID: "7", Name: "search", Arguments: `{"query":"x"}`})
		assert.ErrorIs(t, res.Err, context.Canceled)
	})

	t.Run("mixed batch keeps one result per call", func(t *testing.T) {
		calls := []ai.ToolCall{
			{ID: "a", Name: "search", Arguments: `{"query":"go"}`},
			{ID: "b", Name: "nope"},
			{ID: "c", Name: "fails"},
		}
		results := exec.ExecuteAll(ctx, calls)
		require.Len(t, results, 3)
		assert.Equal(t, "result: go", results[0].Result)
		assert.Error(t, results[1].Err)
		assert.Error(t, results[2].Err)
	})
}

func TestHandlerTimeout(t *testing.T) {
	r := NewRegistry().Add(delayed("slow"))
	exec := NewExecutor(r, WithHandlerTimeout(10*time.Millisecond))
	res := exec.Execute(context.Background(), ai.ToolCall{ID: "1", Name: "slow", Arguments: `{"delay":1000}`})
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestCanExecute(t *testing.T) {
	r := NewRegistry().Add(searchTool(), Manual(ai.Tool{Name: "manual"}))
	exec := NewExecutor(r)
	assert.True(t, exec.CanExecute([]ai.ToolCall{{Name: "manual"}, {Name: "search"}}))
	assert.False(t, exec.CanExecute([]ai.ToolCall{{Name: "manual"}, {Name: "unknown"}}))
	assert.False(t, exec.CanExecute(nil))
}
