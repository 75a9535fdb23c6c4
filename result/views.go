package result

import (
	"context"
	"iter"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/event"
)

// view maps the validated events of a fresh consumer through pick.
func view[T any](r *Result, ctx context.Context, pick func(event.Event) (T, bool)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for e, err := range r.events(ctx, true) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if v, ok := pick(e); ok {
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}

// TextStream yields text fragments as they arrive.
func (r *Result) TextStream(ctx context.Context) iter.Seq2[string, error] {
	return view(r, ctx, func(e event.Event) (string, bool) {
		return e.Delta, e.Type == event.MessageDelta && e.Delta != ""
	})
}

// ReasoningStream yields reasoning fragments as they arrive.
func (r *Result) ReasoningStream(ctx context.Context) iter.Seq2[string, error] {
	return view(r, ctx, func(e event.Event) (string, bool) {
		return e.Delta, e.Type == event.ReasoningDelta && e.Delta != ""
	})
}

// ToolCallStream yields each complete tool call once, in the order the
// calls completed.
func (r *Result) ToolCallStream(ctx context.Context) iter.Seq2[ai.ToolCall, error] {
	return func(yield func(ai.ToolCall, error) bool) {
		seen := make(map[string]bool)
		calls := view(r, ctx, func(e event.Event) (ai.ToolCall, bool) {
			if e.Type != event.ToolCallEnd || seen[e.ToolCall.ID] {
				return ai.ToolCall{}, false
			}
			seen[e.ToolCall.ID] = true
			return *e.ToolCall, true
		})
		for c, err := range calls {
			if !yield(c, err) {
				return
			}
		}
	}
}

// ToolResultStream yields tool execution results as each turn's tools finish.
func (r *Result) ToolResultStream(ctx context.Context) iter.Seq2[ai.ToolExecutionResult, error] {
	return view(r, ctx, func(e event.Event) (ai.ToolExecutionResult, bool) {
		if e.Type != event.ToolCallResult {
			return ai.ToolExecutionResult{}, false
		}
		return *e.ToolResult, true
	})
}

// NewMessageStream yields the messages the run adds to the conversation: an
// assistant message per response and a tool message per tool result.
func (r *Result) NewMessageStream(ctx context.Context) iter.Seq2[ai.Message, error] {
	return view(r, ctx, func(e event.Event) (ai.Message, bool) {
		switch e.Type {
		case event.MessageEnd:
			return e.Response.Message(), true
		case event.ToolCallResult:
			return ai.NewToolResultMessage(e.ToolResult.ToToolResult()), true
		}
		return ai.Message{}, false
	})
}

// FullStream yields every well-formed event, including step boundaries and
// tool results.
func (r *Result) FullStream(ctx context.Context) iter.Seq2[event.Event, error] {
	return view(r, ctx, func(e event.Event) (event.Event, bool) {
		return e, true
	})
}

// RawStream yields the backend's events as received, malformed ones
// included. Events the loop adds itself (step boundaries and tool results)
// are left out.
func (r *Result) RawStream(ctx context.Context) iter.Seq2[event.Event, error] {
	return func(yield func(event.Event, error) bool) {
		for e, err := range r.events(ctx, false) {
			if err != nil {
				yield(e, err)
				return
			}
			switch e.Type {
			case event.StepStart, event.StepEnd, event.ToolCallResult:
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
