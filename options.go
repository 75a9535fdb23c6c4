package relay

// Options contains configuration for a single backend request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	TopP        *float64
	Tools       []Tool
	ToolChoice  ToolChoice
	// ReasoningEffort requests extended reasoning from models that support it
	// ("low", "medium" or "high").
	ReasoningEffort string
	// ParallelToolCalls lets the model request several tool calls in one turn.
	// Nil leaves the backend default.
	ParallelToolCalls *bool
}

// Option is a functional option for configuring requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithTopP sets nucleus sampling.
func WithTopP(p float64) Option {
	return func(o *Options) {
		o.TopP = &p
	}
}

// WithTools sets the tool definitions offered to the model.
func WithTools(tools []Tool) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// WithToolChoice controls how the model uses the offered tools.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) {
		o.ToolChoice = choice
	}
}

// WithReasoningEffort requests extended reasoning.
func WithReasoningEffort(effort string) Option {
	return func(o *Options) {
		o.ReasoningEffort = effort
	}
}

// WithParallelToolCalls toggles parallel tool calls on backends that support it.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) {
		o.ParallelToolCalls = &enabled
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
