package model

import ai "github.com/spetersoncode/relay"

// LongContextThreshold is the input size above which long-context pricing
// applies, for models that have it.
const LongContextThreshold = 200_000

// ChatPricing contains pricing per million tokens (USD) for chat models.
// Fields are zero if not applicable to a specific provider's model.
type ChatPricing struct {
	// InputPerMillion is the standard input token pricing (all providers).
	InputPerMillion float64
	// OutputPerMillion is the standard output token pricing (all providers).
	OutputPerMillion float64
	// CachedInputPerMillion is for cached/prompt-cached input tokens (OpenAI only).
	// Check HasCachedPricing() before using.
	CachedInputPerMillion float64
	// InputPerMillionLong is for long context >200K tokens (Google only).
	// Check HasLongContextPricing() before using.
	InputPerMillionLong float64
	// OutputPerMillionLong is for long context >200K tokens (Google only).
	// Check HasLongContextPricing() before using.
	OutputPerMillionLong float64
}

// HasCachedPricing returns true if the model supports cached input pricing.
func (p ChatPricing) HasCachedPricing() bool {
	return p.CachedInputPerMillion > 0
}

// HasLongContextPricing returns true if the model has tiered pricing for long context.
func (p ChatPricing) HasLongContextPricing() bool {
	return p.InputPerMillionLong > 0 || p.OutputPerMillionLong > 0
}

// CalculateCost returns the cost in USD of usage at the given pricing.
// Long-context rates apply when the input exceeds LongContextThreshold.
func CalculateCost(u ai.Usage, p ChatPricing) float64 {
	in, out := p.InputPerMillion, p.OutputPerMillion
	if p.HasLongContextPricing() && u.InputTokens > LongContextThreshold {
		in, out = p.InputPerMillionLong, p.OutputPerMillionLong
	}
	return float64(u.InputTokens)/1_000_000*in + float64(u.OutputTokens)/1_000_000*out
}
