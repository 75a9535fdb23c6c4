package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseAccessors(t *testing.T) {
	resp := &Response{
		ID:     "resp-1",
		Status: StatusCompleted,
		Output: []OutputItem{
			ReasoningOutput("thinking..."),
			TextOutput("Hello, "),
			FunctionCallOutput(ToolCall{ID: "call-1", Name: "lookup", Arguments: `{"q":"x"}`}),
			{Type: OutputMessage, Text: "world"},
			FunctionCallOutput(ToolCall{ID: "call-2", Name: "finalize"}),
		},
	}

	assert.Equal(t, "Hello, world", resp.Text())
	assert.Equal(t, "thinking...", resp.Reasoning())

	calls := resp.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "finalize", calls[1].Name)
	assert.True(t, resp.HasToolCalls())

	msg := resp.Message()
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "resp-1", msg.ID)
	assert.Equal(t, "Hello, world", msg.Content)
	assert.Equal(t, "thinking...", msg.Reasoning)
	assert.Len(t, msg.ToolCalls, 2)
}

func TestNilResponse(t *testing.T) {
	var resp *Response
	assert.Empty(t, resp.Text())
	assert.Empty(t, resp.Reasoning())
	assert.Nil(t, resp.ToolCalls())
	assert.False(t, resp.HasToolCalls())
	assert.Equal(t, RoleAssistant, resp.Message().Role)
}

func TestUsage(t *testing.T) {
	t.Run("total falls back to input plus output", func(t *testing.T) {
		assert.Equal(t, 30, Usage{InputTokens: 10, OutputTokens: 20}.Total())
		assert.Equal(t, 42, Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 42}.Total())
	})

	t.Run("add sums every field", func(t *testing.T) {
		sum := Usage{InputTokens: 1, OutputTokens: 2, Cost: 0.5}.Add(Usage{InputTokens: 3, OutputTokens: 4, TotalTokens: 9, Cost: 0.25})
		assert.Equal(t, 4, sum.InputTokens)
		assert.Equal(t, 6, sum.OutputTokens)
		assert.Equal(t, 12, sum.TotalTokens)
		assert.InDelta(t, 0.75, sum.Cost, 1e-9)
	})
}
