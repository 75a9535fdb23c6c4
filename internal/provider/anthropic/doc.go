// Package anthropic implements chat.Client on the Anthropic Messages API.
//
// System messages are lifted into the request's system prompt, tool results
// travel as user messages carrying tool_result blocks, and extended thinking
// is enabled when a reasoning effort is requested:
//
//	c := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//	resp, err := c.Chat(ctx, msgs, ai.WithReasoningEffort("medium"))
//
// Thinking text is surfaced as reasoning output and reasoning events.
package anthropic
