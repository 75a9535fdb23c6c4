package agent

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/chat"
	"github.com/spetersoncode/relay/conversation"
	"github.com/spetersoncode/relay/event"
	"github.com/spetersoncode/relay/stop"
	"github.com/spetersoncode/relay/tool"
)

// Agent runs the multi-turn tool loop against a backend.
type Agent struct {
	client   chat.Client
	registry *tool.Registry
}

// New creates an Agent. A nil registry offers no tools.
func New(c chat.Client, registry *tool.Registry) *Agent {
	if registry == nil {
		registry = tool.NewRegistry()
	}
	return &Agent{client: c, registry: registry}
}

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *tool.Registry {
	return a.registry
}

// Run executes the loop until the model stops calling tools, a stop
// condition or the turn limit ends it, or it pauses for approval or manual
// tools. The returned Result is never nil; on failure it holds the partial
// run and the error is also returned.
func (a *Agent) Run(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	options := ApplyOptions(opts...)

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	ctx, span := options.Tracer.Start(ctx, "relay.agent.run",
		trace.WithAttributes(attribute.Int("relay.max_turns", options.MaxTurns)))
	defer span.End()

	r := &run{
		agent:   a,
		options: options,
		logger:  options.Logger,
		result:  &Result{},
		exec: tool.NewExecutor(a.registry,
			tool.WithHandlerTimeout(options.HandlerTimeout),
			tool.WithMaxConcurrency(options.MaxConcurrentTools),
			tool.WithLogger(options.Logger),
		),
	}
	err := r.execute(ctx, messages)

	span.SetAttributes(
		attribute.String("relay.termination", string(r.result.Termination)),
		attribute.Int("relay.turns", len(r.result.Steps)),
		attribute.Int("relay.total_tokens", r.result.TotalUsage.Total()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r.result, err
}

// run holds the mutable state of a single Run call.
type run struct {
	agent   *Agent
	options *Options
	exec    *tool.Executor
	logger  *slog.Logger

	state    *conversation.State
	history  []ai.Message
	deferred []ai.Message
	result   *Result
}

func (r *run) execute(ctx context.Context, input []ai.Message) error {
	r.emit(event.Event{Type: event.RunStart})

	if err := r.restore(ctx, input); err != nil {
		return r.fail(ctx, err)
	}

	if r.state != nil && r.state.Status == conversation.StatusAwaitingApproval {
		waiting, err := r.resume(ctx)
		if err != nil {
			return r.fail(ctx, err)
		}
		if waiting {
			r.result.PendingToolCalls = r.state.PendingToolCalls
			return r.finish(ctx, TerminationAwaitingApproval)
		}
	}

	for turn := 1; ; turn++ {
		if err := ctx.Err(); err != nil {
			return r.interrupted(ctx, err)
		}

		resp, err := r.send(ctx, turn)
		if err != nil {
			if ctx.Err() != nil {
				return r.interrupted(ctx, ctx.Err())
			}
			return r.fail(ctx, err)
		}

		calls := resp.ToolCalls()
		r.recordStep(turn, resp, calls)
		r.history = append(r.history, resp.Message())

		done, err := stop.Any(r.options.StopWhen...).ShouldStop(ctx, r.result.Steps)
		if err != nil {
			return r.fail(ctx, &StopConditionError{Turn: turn, Err: err})
		}
		if done {
			r.result.StoppedByCondition = true
			return r.finish(ctx, TerminationStopCondition)
		}

		if len(calls) == 0 {
			return r.finish(ctx, TerminationComplete)
		}
		if !r.exec.CanExecute(calls) {
			r.result.PendingToolCalls = calls
			return r.finish(ctx, TerminationManualTools)
		}
		if r.mustPause(calls) {
			return r.pause(ctx, calls)
		}

		results, rejected := r.executeCalls(ctx, calls, nil)
		r.recordResults(turn, results)
		if err := r.checkpoint(ctx, resp); err != nil {
			return r.fail(ctx, err)
		}

		if rejected == len(calls) {
			return r.finish(ctx, TerminationRejected)
		}
		if r.options.MaxTurns > 0 && turn >= r.options.MaxTurns {
			return r.finish(ctx, TerminationMaxTurns)
		}
	}
}

// send makes one backend call with the parameters resolved for turn.
func (r *run) send(ctx context.Context, turn int) (*ai.Response, error) {
	tc := r.turnContext(turn)
	opts := r.options.ChatOptionsFor(tc, r.agent.registry.Definitions())

	ctx, span := r.options.Tracer.Start(ctx, "relay.agent.turn",
		trace.WithAttributes(attribute.Int("relay.turn", turn)))
	defer span.End()

	r.emit(event.Event{Type: event.StepStart, Step: turn})

	resp, err := r.chat(ctx, turn, opts)
	if err == nil && resp == nil {
		err = ErrNoResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("relay.tool_calls", len(resp.ToolCalls())),
		attribute.Int("relay.tokens", resp.Usage.Total()),
	)
	r.logger.Debug("agent turn complete",
		"turn", turn,
		"model", resp.Model,
		"tool_calls", len(resp.ToolCalls()),
		"tokens", resp.Usage.Total(),
	)
	return resp, nil
}

// chat makes one backend call, streaming it when a Stream callback is set.
func (r *run) chat(ctx context.Context, turn int, opts []ai.Option) (*ai.Response, error) {
	if r.options.Stream == nil {
		return r.agent.client.Chat(ctx, r.history, opts...)
	}
	ch, err := r.agent.client.ChatStream(ctx, r.history, opts...)
	if err != nil {
		return nil, err
	}
	return event.Forward(ctx, ch, func(e event.Event) {
		if e.Step == 0 {
			e.Step = turn
		}
		r.options.Stream(e)
	})
}

// emit reports a loop event to the Events channel. Step and tool result
// events also go to the Stream callback.
func (r *run) emit(e event.Event) {
	event.Emit(r.options.Events, e)
	if r.options.Stream == nil {
		return
	}
	switch e.Type {
	case event.StepStart, event.StepEnd, event.ToolCallResult:
		r.options.Stream(e)
	}
}

func (r *run) turnContext(turn int) TurnContext {
	hasError := false
	for _, res := range r.result.ToolResults {
		if !res.Success() {
			hasError = true
			break
		}
	}
	return TurnContext{
		Turn:        turn,
		Responses:   r.result.Responses,
		TotalTokens: r.result.TotalUsage.Total(),
		HasError:    hasError,
	}
}

func (r *run) recordStep(turn int, resp *ai.Response, calls []ai.ToolCall) {
	r.result.Steps = append(r.result.Steps, ai.Step{
		Index:     len(r.result.Steps),
		Response:  resp,
		ToolCalls: calls,
	})
	r.result.Responses = append(r.result.Responses, resp)
	r.result.Response = resp
	r.result.TotalUsage = r.result.TotalUsage.Add(resp.Usage)

	r.emit(event.Event{Type: event.StepEnd, Step: turn, Response: resp})
}

// recordResults attaches results to the current step and appends them to
// the history as one tool message, in call order.
func (r *run) recordResults(turn int, results []ai.ToolExecutionResult) {
	if n := len(r.result.Steps); n > 0 && turn > 0 {
		r.result.Steps[n-1].ToolResults = results
	}
	r.result.ToolResults = append(r.result.ToolResults, results...)
	r.history = append(r.history, ai.NewToolResultMessage(ai.ToolResults(results)...))
	for _, e := range event.ToolResults(results, turn) {
		r.emit(e)
	}
}

// executeCalls runs calls, consulting the inline approver for gated ones.
// Decisions already known (from a resumed approval) are passed in decided.
// It returns one result per call and the number of rejected calls.
func (r *run) executeCalls(ctx context.Context, calls []ai.ToolCall, decided map[string]ApprovalDecision) ([]ai.ToolExecutionResult, int) {
	results := make([]ai.ToolExecutionResult, len(calls))
	var approved []ai.ToolCall
	var slots []int
	rejected := 0

	for i, call := range calls {
		ok, reason := true, ""
		if d, found := decided[call.ID]; found {
			ok, reason = d.Approved, d.Reason
		} else if r.options.requiresApproval(call.Name) && r.options.Approver != nil {
			ok, reason = r.options.Approver(ctx, call)
		}
		if !ok {
			rejected++
			results[i] = ai.ToolExecutionResult{
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Err:        &ErrToolRejected{Name: call.Name, Reason: reason},
			}
			r.logger.Info("tool call rejected", "tool", call.Name, "call_id", call.ID, "reason", reason)
			continue
		}
		approved = append(approved, call)
		slots = append(slots, i)
	}

	for j, res := range r.exec.ExecuteAll(ctx, approved) {
		results[slots[j]] = res
	}
	return results, rejected
}

func (r *run) mustPause(calls []ai.ToolCall) bool {
	if r.options.Approver != nil {
		return false
	}
	for _, c := range calls {
		if r.options.requiresApproval(c.Name) {
			return true
		}
	}
	return false
}

// pause leaves the run awaiting approval of calls.
func (r *run) pause(ctx context.Context, calls []ai.ToolCall) error {
	r.result.PendingToolCalls = calls
	if r.state != nil {
		r.state.PendingToolCalls = calls
		if err := r.state.Transition(conversation.StatusAwaitingApproval); err != nil {
			return r.fail(ctx, err)
		}
	}
	return r.finish(ctx, TerminationAwaitingApproval)
}

// resume executes the calls a paused conversation is waiting on. It reports
// true when some gated call still has no decision.
func (r *run) resume(ctx context.Context) (bool, error) {
	pending := r.state.PendingToolCalls
	decided := make(map[string]ApprovalDecision, len(r.options.Approvals))
	for _, d := range r.options.Approvals {
		decided[d.ToolCallID] = d
	}
	for _, call := range pending {
		if _, ok := decided[call.ID]; !ok && r.options.requiresApproval(call.Name) && r.options.Approver == nil {
			r.logger.Debug("conversation still awaiting approval", "tool", call.Name, "call_id", call.ID)
			return true, nil
		}
	}

	results, _ := r.executeCalls(ctx, pending, decided)
	r.recordResults(0, results)
	r.history = append(r.history, r.deferred...)
	r.deferred = nil

	r.state.PendingToolCalls = nil
	if err := r.state.Transition(conversation.StatusInProgress); err != nil {
		return false, err
	}
	return false, r.save(ctx)
}

// restore loads persisted state and merges the new input into it.
func (r *run) restore(ctx context.Context, input []ai.Message) error {
	acc := r.options.Conversation
	if acc == nil {
		r.history = ai.CloneMessages(input)
		return nil
	}

	st, err := acc.Load(ctx)
	if err != nil {
		return err
	}
	switch {
	case st == nil:
		st = conversation.New()
	case st.Status == conversation.StatusComplete:
		st = st.Continue()
	case st.Status == conversation.StatusInProgress:
		// A newer request supersedes a run that never finished.
		r.logger.Info("interrupting in-progress conversation", "conversation_id", st.ID)
		if err := st.Transition(conversation.StatusInterrupted); err != nil {
			return err
		}
		if err := acc.Save(ctx, st); err != nil {
			return err
		}
		fallthrough
	case st.Status == conversation.StatusInterrupted:
		if err := st.Transition(conversation.StatusInProgress); err != nil {
			return err
		}
	}

	r.state = st
	r.result.ConversationID = st.ID
	r.history = ai.CloneMessages(st.Messages)
	if st.Status == conversation.StatusAwaitingApproval {
		r.deferred = ai.CloneMessages(input)
		return nil
	}
	r.history = append(r.history, input...)
	return r.save(ctx)
}

func (r *run) checkpoint(ctx context.Context, resp *ai.Response) error {
	if r.state == nil {
		return nil
	}
	r.state.PreviousResponseID = resp.ID
	return r.save(ctx)
}

func (r *run) save(ctx context.Context) error {
	if r.state == nil {
		return nil
	}
	r.state.Messages = ai.CloneMessages(r.history)
	return r.options.Conversation.Save(ctx, r.state)
}

// finish records the termination, persists the final state and emits RunEnd.
func (r *run) finish(ctx context.Context, reason TerminationReason) error {
	r.result.Termination = reason
	r.result.Messages = r.history

	if r.state != nil {
		if resp := r.result.Response; resp != nil {
			r.state.PreviousResponseID = resp.ID
		}
		if reason != TerminationAwaitingApproval {
			if err := r.state.Transition(conversation.StatusComplete); err != nil {
				return r.fail(ctx, err)
			}
		}
		if err := r.save(ctx); err != nil {
			return r.fail(ctx, err)
		}
	}

	r.emit(event.Event{
		Type:             event.RunEnd,
		Response:         r.result.Response,
		Message:          string(reason),
		PendingToolCalls: r.result.PendingToolCalls,
		Step:             len(r.result.Steps),
	})
	r.logger.Debug("agent run finished", "termination", reason, "turns", len(r.result.Steps))
	return nil
}

// interrupted ends a cancelled run, leaving persisted state resumable.
func (r *run) interrupted(ctx context.Context, err error) error {
	reason := TerminationCancelled
	if errors.Is(err, context.DeadlineExceeded) {
		reason = TerminationTimeout
	}
	r.result.Termination = reason
	r.result.Messages = r.history
	r.result.Error = err
	r.markInterrupted(ctx)
	r.emit(event.Event{Type: event.RunError, Error: err, Message: string(reason)})
	return err
}

func (r *run) fail(ctx context.Context, err error) error {
	r.result.Termination = TerminationError
	r.result.Messages = r.history
	r.result.Error = err
	r.markInterrupted(ctx)
	r.emit(event.Event{Type: event.RunError, Error: err, Message: string(TerminationError)})
	r.logger.Warn("agent run failed", "error", err, "turns", len(r.result.Steps))
	return err
}

func (r *run) markInterrupted(ctx context.Context) {
	if r.state == nil || r.state.Status != conversation.StatusInProgress {
		return
	}
	if err := r.state.Transition(conversation.StatusInterrupted); err != nil {
		return
	}
	r.state.Messages = ai.CloneMessages(r.history)
	if err := r.options.Conversation.Save(context.WithoutCancel(ctx), r.state); err != nil {
		r.logger.Warn("saving interrupted conversation failed", "conversation_id", r.state.ID, "error", err)
	}
}
