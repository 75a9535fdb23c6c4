// Package event defines the provider-neutral stream events emitted by chat
// backends and the orchestration loop. The event types map 1:1 onto the
// AG-UI protocol (see the agui package).
package event

import (
	"context"
	"encoding/json"
	"time"

	ai "github.com/spetersoncode/relay"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	RunStart Type = "run_start"
	RunEnd   Type = "run_end"
	// RunError carries an unrecoverable error. It is always the last event
	// of a backend stream.
	RunError Type = "run_error"
)

// Step lifecycle events, emitted by the orchestration loop once per turn.
const (
	StepStart Type = "step_start"
	StepEnd   Type = "step_end"
)

// Message lifecycle events
const (
	MessageStart Type = "message_start"
	// MessageDelta carries an incremental text fragment.
	MessageDelta Type = "message_delta"
	// MessageEnd carries the complete response.
	MessageEnd Type = "message_end"
)

// Reasoning events carry the model's reasoning text, when the backend exposes it.
const (
	ReasoningStart Type = "reasoning_start"
	ReasoningDelta Type = "reasoning_delta"
	ReasoningEnd   Type = "reasoning_end"
)

// Tool call lifecycle events
const (
	ToolCallStart Type = "tool_call_start"
	// ToolCallArgs carries an argument fragment in Delta.
	ToolCallArgs Type = "tool_call_args"
	// ToolCallEnd carries the complete call, arguments included.
	ToolCallEnd Type = "tool_call_end"
	// ToolCallResult carries the outcome of an executed tool call.
	ToolCallResult Type = "tool_call_result"
)

// Event is an observable occurrence in a response stream.
type Event struct {
	Type Type

	// MessageID correlates Start/Delta/End events of one message.
	MessageID string

	// Delta holds streamed text, reasoning or argument fragments.
	Delta string

	// Response is the complete response on MessageEnd.
	Response *ai.Response

	// ToolCall is set on tool call events.
	ToolCall *ai.ToolCall

	// ToolResult is set on ToolCallResult.
	ToolResult *ai.ToolExecutionResult

	// Step is the 1-indexed loop turn, zero for single-shot streams.
	Step int

	// Error is set on RunError.
	Error error

	// Message holds extra context such as a termination reason.
	Message string

	// PendingToolCalls lists calls left unexecuted when a run ends.
	PendingToolCalls []ai.ToolCall

	// Raw is the unparsed backend payload, when the provider keeps it.
	Raw json.RawMessage

	Timestamp time.Time
}

var knownTypes = map[Type]bool{
	RunStart: true, RunEnd: true, RunError: true,
	StepStart: true, StepEnd: true,
	MessageStart: true, MessageDelta: true, MessageEnd: true,
	ReasoningStart: true, ReasoningDelta: true, ReasoningEnd: true,
	ToolCallStart: true, ToolCallArgs: true, ToolCallEnd: true, ToolCallResult: true,
}

// Valid reports whether the event is well formed: a known type carrying the
// payload that type requires. Consumers skip invalid events.
func (e Event) Valid() bool {
	if !knownTypes[e.Type] {
		return false
	}
	switch e.Type {
	case MessageEnd:
		return e.Response != nil
	case RunError:
		return e.Error != nil
	case ToolCallStart, ToolCallArgs, ToolCallEnd:
		return e.ToolCall != nil && e.ToolCall.ID != ""
	case ToolCallResult:
		return e.ToolResult != nil && e.ToolResult.ToolCallID != ""
	}
	return true
}

// Emit sends an event to an observer channel without blocking. Events are
// dropped when the channel is full or nil.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case ch <- e:
	default:
	}
}

// Send delivers an event on a producer channel, blocking until it is received
// or ctx is done. It reports whether the event was delivered.
func Send(ctx context.Context, ch chan<- Event, e Event) bool {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
