package agent

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/conversation"
	"github.com/spetersoncode/relay/event"
	"github.com/spetersoncode/relay/stop"
)

const tracerName = "github.com/spetersoncode/relay/agent"

// ApproverFunc decides inline whether a gated tool call may run. It returns
// false with a reason to reject the call; the reason is sent to the model.
type ApproverFunc func(ctx context.Context, call ai.ToolCall) (approved bool, reason string)

// Options contains configuration for a run.
type Options struct {
	// MaxTurns caps the number of backend calls. Zero means unlimited.
	// Default is 10.
	MaxTurns int

	// StopWhen ends the loop when any condition is satisfied.
	StopWhen []stop.Condition

	// Timeout bounds the entire run.
	Timeout time.Duration

	// HandlerTimeout bounds each tool execution. Default is 30 seconds.
	HandlerTimeout time.Duration

	// MaxConcurrentTools caps concurrent tool executions within a turn.
	// Zero means unbounded.
	MaxConcurrentTools int

	// ApprovalRequired names the tools whose calls need approval. When
	// empty and Approver is set, every tool needs approval.
	ApprovalRequired []string

	// Approver decides gated calls inline. Without one, the run pauses in
	// the awaiting-approval state and is resumed with Approvals.
	Approver ApproverFunc

	// Approvals are decisions for calls left pending by a paused run.
	Approvals []ApprovalDecision

	// Conversation persists state between runs.
	Conversation conversation.Accessor

	// ChatOptions are applied to every backend call.
	ChatOptions []ai.Option

	Model       Param[string]
	Temperature Param[float64]
	MaxTokens   Param[int]
	ToolChoice  Param[ai.ToolChoice]

	// Events receives lifecycle events. Sends never block; events are
	// dropped when the channel is full.
	Events chan<- event.Event

	// Stream, when set, makes every turn a streaming backend call. Backend
	// events are passed to Stream as they arrive, interleaved with the
	// loop's step and tool result events. It is called on the run's
	// goroutine and may block.
	Stream func(event.Event)

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Option is a functional option for configuring a run.
type Option func(*Options)

// WithMaxTurns sets the maximum number of turns. Default is 10.
func WithMaxTurns(n int) Option {
	return func(o *Options) {
		o.MaxTurns = n
	}
}

// WithStopWhen adds stop conditions. The loop stops when any is satisfied.
func WithStopWhen(conds ...stop.Condition) Option {
	return func(o *Options) {
		o.StopWhen = append(o.StopWhen, conds...)
	}
}

// WithTimeout sets a deadline for the entire run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithHandlerTimeout bounds each tool execution.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandlerTimeout = d
	}
}

// WithMaxConcurrentTools caps concurrent tool executions within a turn.
func WithMaxConcurrentTools(n int) Option {
	return func(o *Options) {
		o.MaxConcurrentTools = n
	}
}

// WithApprovalRequired gates the named tools behind approval.
func WithApprovalRequired(tools ...string) Option {
	return func(o *Options) {
		o.ApprovalRequired = tools
	}
}

// WithApprover decides gated calls inline.
func WithApprover(fn ApproverFunc) Option {
	return func(o *Options) {
		o.Approver = fn
	}
}

// WithApprovals supplies decisions for the calls a paused run is waiting on.
func WithApprovals(decisions ...ApprovalDecision) Option {
	return func(o *Options) {
		o.Approvals = append(o.Approvals, decisions...)
	}
}

// WithConversation persists the run's state through accessor.
func WithConversation(accessor conversation.Accessor) Option {
	return func(o *Options) {
		o.Conversation = accessor
	}
}

// WithChatOptions passes options to every backend call.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithModel sets a fixed model.
func WithModel(model string) Option {
	return WithModelParam(Static(model))
}

// WithModelParam sets the model, possibly per turn.
func WithModelParam(p Param[string]) Option {
	return func(o *Options) {
		o.Model = p
	}
}

// WithTemperature sets a fixed sampling temperature.
func WithTemperature(t float64) Option {
	return WithTemperatureParam(Static(t))
}

// WithTemperatureParam sets the temperature, possibly per turn.
func WithTemperatureParam(p Param[float64]) Option {
	return func(o *Options) {
		o.Temperature = p
	}
}

// WithMaxTokens sets a fixed output token limit.
func WithMaxTokens(n int) Option {
	return WithMaxTokensParam(Static(n))
}

// WithMaxTokensParam sets the output token limit, possibly per turn.
func WithMaxTokensParam(p Param[int]) Option {
	return func(o *Options) {
		o.MaxTokens = p
	}
}

// WithToolChoice sets a fixed tool choice.
func WithToolChoice(choice ai.ToolChoice) Option {
	return WithToolChoiceParam(Static(choice))
}

// WithToolChoiceParam sets the tool choice, possibly per turn.
func WithToolChoiceParam(p Param[ai.ToolChoice]) Option {
	return func(o *Options) {
		o.ToolChoice = p
	}
}

// WithEvents sends lifecycle events to ch.
func WithEvents(ch chan<- event.Event) Option {
	return func(o *Options) {
		o.Events = ch
	}
}

// WithStream streams every turn, passing each event to fn as it arrives.
func WithStream(fn func(event.Event)) Option {
	return func(o *Options) {
		o.Stream = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithTracer sets the tracer used for run and turn spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Options) {
		o.Tracer = t
	}
}

// ApplyOptions applies functional options over the defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxTurns:       10,
		HandlerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}
	return o
}

// ChatOptionsFor builds the backend options for one turn. Per-turn
// parameters are applied last so they override ChatOptions.
func (o *Options) ChatOptionsFor(tc TurnContext, tools []ai.Tool) []ai.Option {
	var opts []ai.Option
	if len(tools) > 0 {
		opts = append(opts, ai.WithTools(tools))
	}
	opts = append(opts, o.ChatOptions...)
	if o.Model.IsSet() {
		opts = append(opts, ai.WithModel(o.Model.Resolve(tc)))
	}
	if o.Temperature.IsSet() {
		opts = append(opts, ai.WithTemperature(o.Temperature.Resolve(tc)))
	}
	if o.MaxTokens.IsSet() {
		opts = append(opts, ai.WithMaxTokens(o.MaxTokens.Resolve(tc)))
	}
	if o.ToolChoice.IsSet() {
		opts = append(opts, ai.WithToolChoice(o.ToolChoice.Resolve(tc)))
	}
	return opts
}

func (o *Options) requiresApproval(name string) bool {
	if len(o.ApprovalRequired) == 0 {
		return o.Approver != nil
	}
	for _, n := range o.ApprovalRequired {
		if n == name {
			return true
		}
	}
	return false
}
