package event

import (
	"context"
	"errors"

	ai "github.com/spetersoncode/relay"
)

// ErrIncomplete is returned by Collect when a stream ends without a MessageEnd.
var ErrIncomplete = errors.New("event: stream ended without a complete message")

// Replay renders a complete response as the event sequence a streaming
// backend would have produced for it: reasoning, text, tool calls and a
// closing MessageEnd.
func Replay(resp *ai.Response, step int) []Event {
	if resp == nil {
		return nil
	}
	id := resp.ID
	if id == "" {
		id = ai.GenerateMessageID()
	}
	events := []Event{{Type: MessageStart, MessageID: id, Step: step}}
	if r := resp.Reasoning(); r != "" {
		events = append(events,
			Event{Type: ReasoningStart, MessageID: id, Step: step},
			Event{Type: ReasoningDelta, MessageID: id, Delta: r, Step: step},
			Event{Type: ReasoningEnd, MessageID: id, Step: step},
		)
	}
	if text := resp.Text(); text != "" {
		events = append(events, Event{Type: MessageDelta, MessageID: id, Delta: text, Step: step})
	}
	events = append(events, toolCallEvents(resp, id, step)...)
	return append(events, Event{Type: MessageEnd, MessageID: id, Response: resp, Step: step})
}

func toolCallEvents(resp *ai.Response, id string, step int) []Event {
	var events []Event
	for _, call := range resp.ToolCalls() {
		events = append(events,
			Event{Type: ToolCallStart, MessageID: id, ToolCall: &ai.ToolCall{ID: call.ID, Name: call.Name}, Step: step},
			Event{Type: ToolCallArgs, MessageID: id, ToolCall: &ai.ToolCall{ID: call.ID, Name: call.Name}, Delta: call.Arguments, Step: step},
			Event{Type: ToolCallEnd, MessageID: id, ToolCall: &call, Step: step},
		)
	}
	return events
}

// ToolResults renders execution results as ToolCallResult events.
func ToolResults(results []ai.ToolExecutionResult, step int) []Event {
	events := make([]Event, len(results))
	for i := range results {
		r := results[i]
		events[i] = Event{
			Type:       ToolCallResult,
			ToolCall:   &ai.ToolCall{ID: r.ToolCallID, Name: r.ToolName},
			ToolResult: &r,
			Step:       step,
		}
	}
	return events
}

// Collect drains a backend stream and returns the response carried by its
// MessageEnd event. A RunError event aborts collection with its error.
func Collect(ctx context.Context, ch <-chan Event) (*ai.Response, error) {
	return Forward(ctx, ch, nil)
}

// Forward is Collect that also passes every received event to fn, in order,
// before inspecting it. A nil fn is ignored.
func Forward(ctx context.Context, ch <-chan Event, fn func(Event)) (*ai.Response, error) {
	var resp *ai.Response
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case e, ok := <-ch:
			if !ok {
				if resp == nil {
					return nil, ErrIncomplete
				}
				return resp, nil
			}
			if fn != nil {
				fn(e)
			}
			switch e.Type {
			case RunError:
				if e.Error != nil {
					return nil, e.Error
				}
			case MessageEnd:
				if e.Response != nil {
					resp = e.Response
				}
			}
		}
	}
}
