package agent

import (
	"context"
	"testing"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decision struct {
	approved bool
	reason   string
}

// waitAsync runs the broker's approver for call in a goroutine and blocks
// until the call is registered as pending.
func waitAsync(t *testing.T, b *ApprovalBroker, ctx context.Context, call ai.ToolCall) <-chan decision {
	t.Helper()
	out := make(chan decision, 1)
	go func() {
		ok, reason := b.Approver()(ctx, call)
		out <- decision{ok, reason}
	}()
	require.Eventually(t, func() bool {
		return len(b.Pending()) > 0
	}, time.Second, time.Millisecond)
	return out
}

func TestApprovalBroker(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		b := NewApprovalBroker()
		out := waitAsync(t, b, context.Background(), ai.ToolCall{ID: "call-1", Name: "delete"})

		require.NoError(t, b.Decide(Approve("call-1")))
		d := <-out
		assert.True(t, d.approved)
		assert.Empty(t, d.reason)
		assert.Empty(t, b.Pending())
	})

	t.Run("reject", func(t *testing.T) {
		b := NewApprovalBroker()
		out := waitAsync(t, b, context.Background(), ai.ToolCall{ID: "call-2", Name: "delete"})

		require.NoError(t, b.Decide(Reject("call-2", "too risky")))
		d := <-out
		assert.False(t, d.approved)
		assert.Equal(t, "too risky", d.reason)
	})

	t.Run("timeout", func(t *testing.T) {
		b := NewApprovalBroker(WithApprovalTimeout(10 * time.Millisecond))
		ok, reason := b.Approver()(context.Background(), ai.ToolCall{ID: "call-3"})
		assert.False(t, ok)
		assert.Equal(t, "approval timed out", reason)
	})

	t.Run("context cancelled", func(t *testing.T) {
		b := NewApprovalBroker()
		ctx, cancel := context.WithCancel(context.Background())
		out := waitAsync(t, b, ctx, ai.ToolCall{ID: "call-4"})
		cancel()
		assert.False(t, (<-out).approved)
	})

	t.Run("decide without pending call", func(t *testing.T) {
		b := NewApprovalBroker()
		assert.Error(t, b.Decide(Approve("unknown")))
	})

	t.Run("on submit", func(t *testing.T) {
		submitted := make(chan ai.ToolCall, 1)
		var b *ApprovalBroker
	b = NewApprovalBroker(WithOnSubmit(func(call ai.ToolCall) {
			submitted <- call
		}))
		out := waitAsync(t, b, context.Background(), ai.ToolCall{ID: "call-5", Name: "deploy"})

		assert.Equal(t, "deploy", (<-submitted).Name)
		require.NoError(t, b.Decide(Approve("call-5")))
		assert.True(t, (<-out).approved)
	})
}

func TestApprovalBrokerInRun(t *testing.T) {
	c := &scriptedClient{script: []func(context.Context) (*ai.Response, error){
		reply(callResponse(call("call-deploy", "deploy", `{"text":"v2"}`))),
		reply(textResponse("deployed")),
	}}
	a := New(c, tool.NewRegistry().Add(echoTool("deploy")))

	var b *ApprovalBroker
	b = NewApprovalBroker(WithOnSubmit(func(call ai.ToolCall) {
		go func() { _ = b.Decide(Approve(call.ID)) }()
	}))

	res, err := a.Run(context.Background(), []ai.Message{ai.NewUserMessage("ship it")},
		WithApprovalRequired("deploy"),
		WithApprover(b.Approver()),
	)
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, res.Termination)
	require.Len(t, res.ToolResults, 1)
	assert.Equal(t, "v2", res.ToolResults[0].Result)
}

func TestParam(t *testing.T) {
	var unset Param[int]
	assert.False(t, unset.IsSet())
	assert.Equal(t, 0, unset.Resolve(TurnContext{Turn: 3}))

	assert.Equal(t, 7, Static(7).Resolve(TurnContext{Turn: 3}))

	p := Dynamic(func(tc TurnContext) int { return tc.Turn * 2 })
	assert.True(t, p.IsSet())
	assert.Equal(t, 2, p.Resolve(TurnContext{Turn: 1}))
	assert.Equal(t, 6, p.Resolve(TurnContext{Turn: 3}))
}
