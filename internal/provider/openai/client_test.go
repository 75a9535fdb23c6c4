package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "anthropic/claude-sonnet-4-5",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "Checking.",
      "reasoning": "The user wants the weather.",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "get_weather", "arguments": "{\"city\":\"Paris\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15, "cost": 0.0012}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]ClientOption{
		WithBaseURL(srv.URL + "/"),
		WithRequestOptions(option.WithMaxRetries(0)),
	}, opts...)
	return New("test-key", opts...)
}

func TestChat(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON)
	})

	resp, err := c.Chat(context.Background(),
		[]ai.Message{ai.NewSystemMessage("be brief"), ai.NewUserMessage("weather in Paris?")},
		ai.WithModel("anthropic/claude-sonnet-4-5"),
		ai.WithTemperature(0.2),
		ai.WithTools([]ai.Tool{{Name: "get_weather", Description: "weather", Parameters: json.RawMessage(`{"type":"object"}`)}}),
		ai.WithToolChoice(ai.ToolChoiceAuto),
	)
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-sonnet-4-5", body["model"])
	assert.Equal(t, 0.2, body["temperature"])
	assert.Equal(t, "auto", body["tool_choice"])
	assert.Len(t, body["messages"], 2)
	assert.Len(t, body["tools"], 1)

	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, "Checking.", resp.Text())
	assert.Equal(t, "The user wants the weather.", resp.Reasoning())
	require.Len(t, resp.ToolCalls(), 1)
	assert.Equal(t, "get_weather", resp.ToolCalls()[0].Name)
	assert.JSONEq(t, `{"city":"Paris"}`, resp.ToolCalls()[0].Arguments)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, ai.StatusCompleted, resp.Status)
	assert.Equal(t, 15, resp.Usage.Total())
	assert.InDelta(t, 0.0012, resp.Usage.Cost, 1e-9)
}

func TestChatConversationRoundTrip(t *testing.T) {
	var body struct {
		Messages []map[string]any `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON)
	})

	call := ai.ToolCall{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Paris"}`}
	history := []ai.Message{
		ai.NewUserMessage("weather?"),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{call}},
		ai.NewToolResultMessage(
			ai.ToolResult{ToolCallID: "call_1", Content: "sunny"},
		),
	}
	_, err := c.Chat(context.Background(), history)
	require.NoError(t, err)

	require.Len(t, body.Messages, 3)
	assert.Equal(t, "assistant", body.Messages[1]["role"])
	assert.Equal(t, "tool", body.Messages[2]["role"])
	assert.Equal(t, "call_1", body.Messages[2]["tool_call_id"])
}

func TestChatErrorCategorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	})

	_, err := c.Chat(context.Background(), []ai.Message{ai.NewUserMessage("hi")})
	require.Error(t, err)
	assert.True(t, ai.IsTransient(err))
	assert.Equal(t, http.StatusTooManyRequests, ai.StatusCodeOf(err))
	assert.Equal(t, "2s", ai.RetryAfterOf(err).String())
}

func sse(chunks ...string) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString("data: " + c + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func TestChatStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sse(
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-5-mini","choices":[{"index":0,"delta":{"role":"assistant","reasoning":"hmm"}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-5-mini","choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-5-mini","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-5-mini","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-5-mini","choices":[],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`,
		))
	})

	ch, err := c.ChatStream(context.Background(), []ai.Message{ai.NewUserMessage("hi")})
	require.NoError(t, err)

	var types []event.Type
	var deltas []string
	var resp *ai.Response
	for e := range ch {
		types = append(types, e.Type)
		switch e.Type {
		case event.MessageDelta:
			deltas = append(deltas, e.Delta)
		case event.MessageEnd:
			resp = e.Response
		}
	}

	assert.Equal(t, []event.Type{
		event.MessageStart,
		event.ReasoningStart, event.ReasoningDelta, event.ReasoningEnd,
		event.MessageDelta, event.MessageDelta,
		event.MessageEnd,
	}, types)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	require.NotNil(t, resp)
	assert.Equal(t, "Hello", resp.Text())
	assert.Equal(t, "hmm", resp.Reasoning())
	assert.Equal(t, 5, resp.Usage.Total())
	assert.Greater(t, resp.Usage.Cost, 0.0, "cost derived from the model catalogue")
}

func TestChatStreamToolCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sse(
			`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_9","type":"function","function":{"name":"lookup","arguments":""}}]}}]}`,
			`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"q\":"}}]}}]}`,
			`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"go\"}"}}]}}]}`,
			`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		))
	})

	ch, err := c.ChatStream(context.Background(), []ai.Message{ai.NewUserMessage("look it up")})
	require.NoError(t, err)

	var args string
	var ended []ai.ToolCall
	var resp *ai.Response
	for e := range ch {
		switch e.Type {
		case event.ToolCallStart:
			assert.Equal(t, "lookup", e.ToolCall.Name)
		case event.ToolCallArgs:
			assert.Equal(t, "call_9", e.ToolCall.ID)
			args += e.Delta
		case event.ToolCallEnd:
			ended = append(ended, *e.ToolCall)
		case event.MessageEnd:
			resp = e.Response
		}
	}
	assert.Equal(t, `{"q":"go"}`, args)
	require.Len(t, ended, 1)
	assert.Equal(t, `{"q":"go"}`, ended[0].Arguments)
	require.NotNil(t, resp)
	assert.True(t, resp.HasToolCalls())
}

func TestChatStreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	})

	ch, err := c.ChatStream(context.Background(), []ai.Message{ai.NewUserMessage("hi")})
	require.NoError(t, err)
	_, err = event.Collect(context.Background(), ch)
	require.Error(t, err)
	assert.True(t, ai.IsPermanent(err))
}
