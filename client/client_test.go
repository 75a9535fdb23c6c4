package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records the options of every request it serves.
type fakeBackend struct {
	mu      sync.Mutex
	options []*ai.Options
	err     error
}

func (f *fakeBackend) record(opts []ai.Option) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options = append(f.options, ai.ApplyOptions(opts...))
}

func (f *fakeBackend) last() *ai.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.options[len(f.options)-1]
}

func fakeResponse() *ai.Response {
	return &ai.Response{
		ID:     "resp-1",
		Status: ai.StatusCompleted,
		Output: []ai.OutputItem{ai.TextOutput("hi there")},
		Usage:  ai.Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3},
	}
}

func (f *fakeBackend) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	f.record(opts)
	if f.err != nil {
		return nil, f.err
	}
	return fakeResponse(), nil
}

func (f *fakeBackend) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	f.record(opts)
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan event.Event, 4)
	ch <- event.Event{Type: event.MessageStart, MessageID: "resp-1"}
	ch <- event.Event{Type: event.MessageDelta, MessageID: "resp-1", Delta: "hi "}
	ch <- event.Event{Type: event.MessageDelta, MessageID: "resp-1", Delta: "there"}
	ch <- event.Event{Type: event.MessageEnd, MessageID: "resp-1", Response: fakeResponse()}
	close(ch)
	return ch, nil
}

func userMessages() []ai.Message {
	return []ai.Message{ai.NewUserMessage("hello")}
}

func TestErrors(t *testing.T) {
	t.Run("missing key with model", func(t *testing.T) {
		err := &ErrMissingAPIKey{Provider: ai.ProviderAnthropic, Model: "claude-sonnet"}
		assert.Equal(t, `no API key configured for anthropic (required by model "claude-sonnet")`, err.Error())
	})

	t.Run("missing key without model", func(t *testing.T) {
		err := &ErrMissingAPIKey{Provider: ai.ProviderOpenAI}
		assert.Equal(t, "no API key configured for openai", err.Error())
	})

	t.Run("no model", func(t *testing.T) {
		err := &ErrNoModel{Operation: "chat"}
		assert.Contains(t, err.Error(), "no model specified for chat")
	})
}

func TestRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("provider prefix selects backend with bare model", func(t *testing.T) {
		anthropic, openai := &fakeBackend{}, &fakeBackend{}
		c := New(Config{},
			WithBackend(ai.ProviderAnthropic, anthropic),
			WithBackend(ai.ProviderOpenAI, openai),
		)

		_, err := c.Chat(ctx, userMessages(), ai.WithModel("anthropic/claude-sonnet-4-5"))
		require.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-5", anthropic.last().Model)

		_, err = c.Chat(ctx, userMessages(), ai.WithModel("openai/gpt-5-mini"))
		require.NoError(t, err)
		assert.Equal(t, "gpt-5-mini", openai.last().Model)
	})

	t.Run("catalogue model without prefix", func(t *testing.T) {
		google := &fakeBackend{}
		c := New(Config{}, WithBackend(ai.ProviderGoogle, google))

		_, err := c.Chat(ctx, userMessages(), ai.WithModel("gemini-2.5-flash"))
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.5-flash", google.last().Model)
	})

	t.Run("default model", func(t *testing.T) {
		anthropic := &fakeBackend{}
		c := New(Config{DefaultModel: "anthropic/claude-haiku-4-5"}, WithBackend(ai.ProviderAnthropic, anthropic))

		_, err := c.Chat(ctx, userMessages())
		require.NoError(t, err)
		assert.Equal(t, "claude-haiku-4-5", anthropic.last().Model)
	})

	t.Run("router receives qualified identifiers", func(t *testing.T) {
		router := &fakeBackend{}
		c := New(Config{APIKeys: APIKeys{OpenRouter: "key"}}, WithBackend(ai.ProviderOpenRouter, router))

		_, err := c.Chat(ctx, userMessages(), ai.WithModel("claude-sonnet-4-5"))
		require.NoError(t, err)
		assert.Equal(t, "anthropic/claude-sonnet-4-5", router.last().Model)

		_, err = c.Chat(ctx, userMessages(), ai.WithModel("meta-llama/llama-4-maverick"))
		require.NoError(t, err)
		assert.Equal(t, "meta-llama/llama-4-maverick", router.last().Model)
	})

	t.Run("no model", func(t *testing.T) {
		c := New(Config{})
		_, err := c.Chat(ctx, userMessages())
		var noModel *ErrNoModel
		require.ErrorAs(t, err, &noModel)
		assert.Equal(t, "chat", noModel.Operation)
	})

	t.Run("unknown provider", func(t *testing.T) {
		c := New(Config{})
		_, err := c.ChatStream(ctx, userMessages(), ai.WithModel("mystery-model"))
		var unknown *ErrUnknownProvider
		require.ErrorAs(t, err, &unknown)

		_, err = c.Chat(ctx, userMessages(), ai.WithModel("acme/model-1"))
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("missing key", func(t *testing.T) {
		c := New(Config{APIKeys: APIKeys{Anthropic: "key"}})
		_, err := c.Chat(ctx, userMessages(), ai.WithModel("openai/gpt-5"))
		var missing *ErrMissingAPIKey
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, ai.ProviderOpenAI, missing.Provider)
		assert.Equal(t, "openai/gpt-5", missing.Model)
	})

	t.Run("providers are created lazily", func(t *testing.T) {
		c := New(Config{APIKeys: APIKeys{Anthropic: "key", OpenAI: "key"}})
		b1, err := c.backend(ctx, ai.ProviderAnthropic, "")
		require.NoError(t, err)
		b2, err := c.backend(ctx, ai.ProviderAnthropic, "")
		require.NoError(t, err)
		assert.Same(t, b1, b2)
		assert.Len(t, c.backends, 1)
	})
}

func TestDefaultChatOptions(t *testing.T) {
	backend := &fakeBackend{}
	c := New(Config{DefaultModel: "openai/gpt-5"},
		WithBackend(ai.ProviderOpenAI, backend),
		WithDefaultTemperature(0.3),
		WithDefaultMaxTokens(256),
	)

	_, err := c.Chat(context.Background(), userMessages())
	require.NoError(t, err)
	require.NotNil(t, backend.last().Temperature)
	assert.Equal(t, 0.3, *backend.last().Temperature)
	assert.Equal(t, 256, backend.last().MaxTokens)

	_, err = c.Chat(context.Background(), userMessages(), ai.WithTemperature(0.9))
	require.NoError(t, err)
	assert.Equal(t, 0.9, *backend.last().Temperature)
	assert.Equal(t, 256, backend.last().MaxTokens)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("chat", func(t *testing.T) {
		events := make(chan Event, 10)
		c := New(Config{DefaultModel: "openai/gpt-5", Events: events},
			WithBackend(ai.ProviderOpenAI, &fakeBackend{}))

		_, err := c.Chat(ctx, userMessages())
		require.NoError(t, err)

		start, done := <-events, <-events
		assert.Equal(t, EventRequestStart, start.Type)
		assert.Equal(t, EventRequestComplete, done.Type)
		assert.Equal(t, ai.ProviderOpenAI, done.Provider)
		assert.Equal(t, "gpt-5", done.Model)
		require.NotNil(t, done.Usage)
		assert.Equal(t, 3, done.Usage.TotalTokens)
	})

	t.Run("chat error", func(t *testing.T) {
		events := make(chan Event, 10)
		boom := errors.New("boom")
		c := New(Config{DefaultModel: "openai/gpt-5", Events: events},
			WithBackend(ai.ProviderOpenAI, &fakeBackend{err: boom}))

		_, err := c.Chat(ctx, userMessages())
		require.ErrorIs(t, err, boom)
		<-events
		failed := <-events
		assert.Equal(t, EventRequestError, failed.Type)
		assert.ErrorIs(t, failed.Error, boom)
	})

	t.Run("stream completes after drain", func(t *testing.T) {
		events := make(chan Event, 10)
		c := New(Config{DefaultModel: "openai/gpt-5", Events: events},
			WithBackend(ai.ProviderOpenAI, &fakeBackend{}))

		ch, err := c.ChatStream(ctx, userMessages())
		require.NoError(t, err)
		resp, err := event.Collect(ctx, ch)
		require.NoError(t, err)
		assert.Equal(t, "hi there", resp.Text())

		assert.Equal(t, EventRequestStart, (<-events).Type)
		done := <-events
		assert.Equal(t, EventRequestComplete, done.Type)
		assert.Equal(t, "chat_stream", done.Operation)
		require.NotNil(t, done.Usage)
	})
}

func TestCallModel(t *testing.T) {
	backend := &fakeBackend{}
	c := New(Config{DefaultModel: "openai/gpt-5"}, WithBackend(ai.ProviderOpenAI, backend))

	res := c.CallModel(context.Background(), nil, userMessages())
	var text string
	for delta, err := range res.TextStream(context.Background()) {
		require.NoError(t, err)
		text += delta
	}
	assert.Equal(t, "hi there", text)

	resp, err := res.Response(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "resp-1", resp.ID)
	assert.Len(t, backend.options, 1, "views and accessors share one backend call")
}

func TestRun(t *testing.T) {
	c := New(Config{DefaultModel: "openai/gpt-5"}, WithBackend(ai.ProviderOpenAI, &fakeBackend{}))

	res, err := c.Run(context.Background(), nil, userMessages())
	require.NoError(t, err)
	assert.Equal(t, "hi there", res.Text())
	assert.Len(t, res.Steps, 1)
}
