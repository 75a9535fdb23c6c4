package stop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepsWith(calls ...[]string) []ai.Step {
	steps := make([]ai.Step, len(calls))
	for i, names := range calls {
		var tc []ai.ToolCall
		for _, n := range names {
			tc = append(tc, ai.ToolCall{ID: n, Name: n})
		}
		steps[i] = ai.Step{Index: i, Response: &ai.Response{}, ToolCalls: tc}
	}
	return steps
}

func shouldStop(t *testing.T, c Condition, steps []ai.Step) bool {
	t.Helper()
	stop, err := c.ShouldStop(context.Background(), steps)
	require.NoError(t, err)
	return stop
}

func TestStepCountIs(t *testing.T) {
	c := StepCountIs(3)
	assert.False(t, shouldStop(t, c, nil))
	assert.False(t, shouldStop(t, c, stepsWith(nil, nil)))
	assert.True(t, shouldStop(t, c, stepsWith(nil, nil, nil)))
	assert.True(t, shouldStop(t, c, stepsWith(nil, nil, nil, nil)))
}

func TestHasToolCall(t *testing.T) {
	c := HasToolCall("finalize", "done")
	assert.False(t, shouldStop(t, c, stepsWith([]string{"search"})))
	assert.True(t, shouldStop(t, c, stepsWith([]string{"search"}, []string{"lookup", "finalize"})))
	assert.True(t, shouldStop(t, c, stepsWith([]string{"done"})))
}

func TestUsageConditions(t *testing.T) {
	steps := []ai.Step{
		{Response: &ai.Response{Usage: ai.Usage{InputTokens: 40, OutputTokens: 10, Cost: 0.02}}},
		{Response: &ai.Response{Usage: ai.Usage{InputTokens: 30, OutputTokens: 20, Cost: 0.03}}},
	}
	assert.True(t, shouldStop(t, MaxTokensUsed(100), steps))
	assert.False(t, shouldStop(t, MaxTokensUsed(101), steps))
	assert.True(t, shouldStop(t, MaxCost(0.05), steps))
	assert.False(t, shouldStop(t, MaxCost(0.06), steps))
}

func TestLastStepConditions(t *testing.T) {
	steps := []ai.Step{
		{Response: &ai.Response{FinishReason: "tool_calls", Status: ai.StatusCompleted}},
		{Response: &ai.Response{FinishReason: "length", Status: ai.StatusIncomplete}},
	}
	assert.True(t, shouldStop(t, FinishReasonIs("length"), steps))
	assert.False(t, shouldStop(t, FinishReasonIs("tool_calls"), steps))
	assert.True(t, shouldStop(t, StatusIs(ai.StatusIncomplete), steps))
	assert.False(t, shouldStop(t, StatusIs(ai.StatusCompleted), nil))
}

func TestEmptyGroupsNeverStop(t *testing.T) {
	steps := stepsWith(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	assert.False(t, shouldStop(t, Any(), steps))
	assert.False(t, shouldStop(t, All(), steps))
}

func TestAnyAll(t *testing.T) {
	yes := Func(func([]ai.Step) bool { return true })
	no := Func(func([]ai.Step) bool { return false })

	assert.True(t, shouldStop(t, Any(no, yes), nil))
	assert.False(t, shouldStop(t, Any(no, no), nil))
	assert.True(t, shouldStop(t, All(yes, yes), nil))
	assert.False(t, shouldStop(t, All(yes, no), nil))

	t.Run("nested groups", func(t *testing.T) {
		assert.True(t, shouldStop(t, Any(Any(no, no), Any(no, yes)), nil))
		assert.False(t, shouldStop(t, Any(All(yes, no), Any()), nil))
		assert.True(t, shouldStop(t, All(Any(no, yes), yes), nil))
	})

	t.Run("finalize on second turn", func(t *testing.T) {
		c := Any(StepCountIs(3), HasToolCall("finalize"))
		assert.False(t, shouldStop(t, c, stepsWith([]string{"search"})))
		assert.True(t, shouldStop(t, c, stepsWith([]string{"search"}, []string{"finalize"})))
	})
}

func TestConditionErrors(t *testing.T) {
	boom := errors.New("predicate failed")
	failing := FuncErr(func(context.Context, []ai.Step) (bool, error) { return false, boom })
	yes := Func(func([]ai.Step) bool { return true })

	_, err := Any(yes, failing).ShouldStop(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	_, err = All(failing).ShouldStop(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestAnyEvaluatesMembersConcurrently(t *testing.T) {
	var running atomic.Int32
	var peak atomic.Int32
	slow := FuncErr(func(ctx context.Context, _ []ai.Step) (bool, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return false, nil
	})

	stop, err := Any(slow, slow, slow).ShouldStop(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, stop)
	assert.Greater(t, peak.Load(), int32(1))
}
