package agent

import ai "github.com/spetersoncode/relay"

// TurnContext describes the loop's progress when a turn's parameters are
// resolved.
type TurnContext struct {
	// Turn is the 1-indexed turn about to be sent.
	Turn int
	// Responses holds the responses of the turns already completed.
	Responses []*ai.Response
	// TotalTokens is the cumulative token usage so far.
	TotalTokens int
	// HasError reports whether any tool executed so far has failed.
	HasError bool
}

// Param is a request parameter that is either fixed or computed per turn.
type Param[T any] struct {
	value   T
	resolve func(TurnContext) T
	set     bool
}

// Static returns a parameter with a fixed value.
func Static[T any](v T) Param[T] {
	return Param[T]{value: v, set: true}
}

// Dynamic returns a parameter computed from the turn context before every turn.
func Dynamic[T any](fn func(TurnContext) T) Param[T] {
	return Param[T]{resolve: fn, set: true}
}

// IsSet reports whether the parameter was configured.
func (p Param[T]) IsSet() bool {
	return p.set
}

// Resolve returns the parameter's value for the given turn.
func (p Param[T]) Resolve(tc TurnContext) T {
	if p.resolve != nil {
		return p.resolve(tc)
	}
	return p.value
}
