// Package chat defines the backend interface the rest of relay is written
// against. Provider adapters and the routing client implement it, and the
// agent loop and result facade consume it.
package chat

import (
	"context"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/event"
)

// Client sends a conversation to a model backend.
type Client interface {
	// Chat sends a conversation and returns the complete response.
	Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error)

	// ChatStream sends a conversation and returns a channel of events. The
	// channel is closed when the response is complete. Failures after the
	// stream has started arrive as a final RunError event.
	ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error)
}

// ClientFunc adapts a blocking function into a Client whose stream replays
// the complete response.
type ClientFunc func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error)

// Chat calls f.
func (f ClientFunc) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return f(ctx, messages, opts...)
}

// ChatStream calls f and replays its response as events.
func (f ClientFunc) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	resp, err := f(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	events := event.Replay(resp, 0)
	ch := make(chan event.Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch, nil
}
