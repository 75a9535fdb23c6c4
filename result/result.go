// Package result provides the lazy facade returned by CallModel.
//
// A Result sends nothing until it is first queried. Without tools it makes
// a single streaming backend call; with tools (or a conversation accessor)
// it runs the agent loop, streaming every turn and adding step and tool
// result events between turns. Either way the outcome is computed once and
// every accessor and view shares it.
//
// Each view creates a fresh consumer of one shared stream session, so views
// can be iterated concurrently, more than once, and at different paces:
//
//	res := result.New(ctx, client, nil, messages)
//	go func() {
//	    for r, _ := range res.ReasoningStream(ctx) {
//	        log.Print(r)
//	    }
//	}()
//	for delta, err := range res.TextStream(ctx) {
//	    ...
//	}
//	resp, err := res.Response(ctx) // no second backend call
package result

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/agent"
	"github.com/spetersoncode/relay/chat"
	"github.com/spetersoncode/relay/event"
	"github.com/spetersoncode/relay/stream"
	"github.com/spetersoncode/relay/tool"
)

// Result is the lazy outcome of a model call. It is safe for concurrent use.
// Every event stays buffered for the lifetime of the Result so that views
// created later can replay from the start; drop the Result to release them.
type Result struct {
	ctx      context.Context
	client   chat.Client
	registry *tool.Registry
	messages []ai.Message
	opts     []agent.Option
	options  *agent.Options
	logger   *slog.Logger

	sessionOnce sync.Once
	session     *stream.Session[event.Event]

	mu      sync.Mutex
	outcome *agent.Result
	err     error
	settled bool
}

// New creates a Result. Nothing is sent until an accessor or view is used.
// The loop path is taken when registry holds tools or a conversation
// accessor is configured; otherwise a single streaming call is made.
// ctx bounds the backend work and is kept for the Result's lifetime.
func New(ctx context.Context, c chat.Client, registry *tool.Registry, messages []ai.Message, opts ...agent.Option) *Result {
	options := agent.ApplyOptions(opts...)
	return &Result{
		ctx:      ctx,
		client:   c,
		registry: registry,
		messages: ai.CloneMessages(messages),
		opts:     opts,
		options:  options,
		logger:   options.Logger,
	}
}

// UsesTools reports whether the Result runs the agent loop.
func (r *Result) UsesTools() bool {
	return r.registry.Len() > 0 || r.options.Conversation != nil
}

// Close stops any backend work still in progress. Views blocked on the
// session return context.Canceled.
func (r *Result) Close() {
	r.stream().Close()
}

// stream returns the shared session, creating it on first use.
func (r *Result) stream() *stream.Session[event.Event] {
	r.sessionOnce.Do(func() {
		var src stream.Source[event.Event]
		if r.UsesTools() {
			src = r.loopSource
		} else {
			src = r.chatSource
		}
		r.session = stream.New(r.ctx, src, stream.WithLogger(r.logger))
	})
	return r.session
}

// chatSource streams a single backend call. A RunError event is passed
// through and then ends the sequence with its error.
func (r *Result) chatSource(ctx context.Context, yield func(event.Event) bool) error {
	opts := r.options.ChatOptionsFor(agent.TurnContext{Turn: 1}, nil)
	ch, err := r.client.ChatStream(ctx, r.messages, opts...)
	if err != nil {
		return err
	}
	var streamErr error
	err = stream.FromChannel(ch)(ctx, func(e event.Event) bool {
		if !yield(e) {
			return false
		}
		if e.Type == event.RunError && e.Error != nil {
			streamErr = e.Error
			return false
		}
		return true
	})
	if streamErr != nil {
		return streamErr
	}
	return err
}

// loopSource runs the agent loop with every turn streamed, forwarding the
// backend's events and the loop's step and tool result events as they occur.
func (r *Result) loopSource(ctx context.Context, yield func(event.Event) bool) error {
	opts := append(slices.Clone(r.opts), agent.WithStream(func(e event.Event) {
		yield(e)
	}))
	res, err := agent.New(r.client, r.registry).Run(ctx, r.messages, opts...)

	r.mu.Lock()
	r.outcome, r.err, r.settled = res, err, true
	r.mu.Unlock()
	return err
}

// orchestrate drains the loop's session and returns the finished run. The
// loop runs once however many callers wait on it.
func (r *Result) orchestrate(ctx context.Context) (*agent.Result, error) {
	var streamErr error
	for _, err := range r.events(ctx, false) {
		if err != nil {
			streamErr = err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.settled {
		if streamErr == nil {
			streamErr = event.ErrIncomplete
		}
		return nil, streamErr
	}
	return r.outcome, r.err
}

// Orchestration returns the outcome of the run. Without tools it is a
// single-step result built from the streamed response.
func (r *Result) Orchestration(ctx context.Context) (*agent.Result, error) {
	if r.UsesTools() {
		return r.orchestrate(ctx)
	}

	r.mu.Lock()
	if r.settled {
		defer r.mu.Unlock()
		return r.outcome, r.err
	}
	r.mu.Unlock()

	resp, err := r.collect(ctx)
	if err != nil && ctx.Err() != nil {
		// The caller gave up; another caller may still wait for the stream.
		return nil, err
	}

	out := singleStep(resp, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.settled {
		r.outcome, r.err, r.settled = out, err, true
	}
	return r.outcome, r.err
}

// collect drains a fresh consumer for the response on MessageEnd.
func (r *Result) collect(ctx context.Context) (*ai.Response, error) {
	var resp *ai.Response
	for e, err := range r.events(ctx, true) {
		if err != nil {
			return resp, err
		}
		if e.Type == event.MessageEnd {
			resp = e.Response
		}
	}
	if resp == nil {
		return nil, event.ErrIncomplete
	}
	return resp, nil
}

func singleStep(resp *ai.Response, err error) *agent.Result {
	out := &agent.Result{Termination: agent.TerminationComplete, Error: err}
	if err != nil {
		out.Termination = agent.TerminationError
	}
	if resp == nil {
		return out
	}
	out.Response = resp
	out.Responses = []*ai.Response{resp}
	out.Steps = []ai.Step{{Index: 0, Response: resp, ToolCalls: resp.ToolCalls()}}
	out.TotalUsage = resp.Usage
	if calls := resp.ToolCalls(); len(calls) > 0 {
		out.Termination = agent.TerminationManualTools
		out.PendingToolCalls = calls
	}
	return out
}

// Response returns the final response.
func (r *Result) Response(ctx context.Context) (*ai.Response, error) {
	res, err := r.Orchestration(ctx)
	if res == nil || res.Response == nil {
		if err == nil {
			err = agent.ErrNoResponse
		}
		return nil, err
	}
	return res.Response, err
}

// Text returns the text of the final response.
func (r *Result) Text(ctx context.Context) (string, error) {
	resp, err := r.Response(ctx)
	return resp.Text(), err
}

// Responses returns every response of the run, one per turn.
func (r *Result) Responses(ctx context.Context) ([]*ai.Response, error) {
	res, err := r.Orchestration(ctx)
	if res == nil {
		return nil, err
	}
	return res.Responses, err
}

// ToolResults returns every tool execution result of the run.
func (r *Result) ToolResults(ctx context.Context) ([]ai.ToolExecutionResult, error) {
	res, err := r.Orchestration(ctx)
	if res == nil {
		return nil, err
	}
	return res.ToolResults, err
}

// events iterates a fresh consumer. With validate set, malformed events are
// logged and skipped.
func (r *Result) events(ctx context.Context, validate bool) iter.Seq2[event.Event, error] {
	return func(yield func(event.Event, error) bool) {
		c, err := r.stream().NewConsumer()
		if err != nil {
			yield(event.Event{}, err)
			return
		}
		for e, err := range c.All(ctx) {
			if err != nil {
				yield(event.Event{}, err)
				return
			}
			if validate && !e.Valid() {
				r.logger.Warn("skipping malformed stream event", "type", e.Type)
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
