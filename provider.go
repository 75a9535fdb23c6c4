package relay

import "strings"

// Provider identifies an AI backend.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenAI     Provider = "openai"
	ProviderGoogle     Provider = "google"
)

// SplitModel splits a routed model identifier such as "anthropic/claude-sonnet-4.5"
// into its provider prefix and the provider-local model name. Identifiers without
// a prefix return an empty provider.
func SplitModel(model string) (Provider, string) {
	prefix, name, ok := strings.Cut(model, "/")
	if !ok {
		return "", model
	}
	return Provider(prefix), name
}
