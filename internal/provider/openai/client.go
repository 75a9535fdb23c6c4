// Package openai implements chat.Client on the OpenAI Chat Completions API.
// The same client serves the hosted router, which speaks the same protocol
// under a different base URL and additionally reports reasoning and cost.
package openai

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/chat"
	"github.com/spetersoncode/relay/event"
	"github.com/spetersoncode/relay/model"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "gpt-5-mini"

// RouterBaseURL is the base URL of the hosted router's OpenAI-compatible API.
const RouterBaseURL = "https://openrouter.ai/api/v1"

// Client wraps the OpenAI SDK to implement chat.Client.
type Client struct {
	client   *openai.Client
	model    string
	provider ai.Provider
	reqOpts  []option.RequestOption
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.reqOpts = append(c.reqOpts, option.WithBaseURL(url))
	}
}

// WithRequestOptions passes raw SDK request options, e.g. an HTTP client.
func WithRequestOptions(opts ...option.RequestOption) ClientOption {
	return func(c *Client) {
		c.reqOpts = append(c.reqOpts, opts...)
	}
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		model:    DefaultModel,
		provider: ai.ProviderOpenAI,
		reqOpts:  []option.RequestOption{option.WithAPIKey(apiKey)},
	}
	for _, opt := range opts {
		opt(c)
	}
	client := openai.NewClient(c.reqOpts...)
	c.client = &client
	return c
}

// NewRouter creates a client for the hosted router. Models are addressed
// as "provider/model". Usage accounting is requested so responses carry
// their cost.
func NewRouter(apiKey string, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBaseURL(RouterBaseURL),
		WithRequestOptions(option.WithJSONSet("usage", map[string]any{"include": true})),
		func(c *Client) { c.provider = ai.ProviderOpenRouter },
	}
	return New(apiKey, append(base, opts...)...)
}

func (c *Client) params(messages []ai.Message, options *ai.Options) (openai.ChatCompletionNewParams, error) {
	modelID := c.model
	if options.Model != "" {
		modelID = options.Model
	}

	converted, err := convertMessages(messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    modelID,
		Messages: converted,
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if options.TopP != nil {
		params.TopP = openai.Float(*options.TopP)
	}
	if options.ReasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(options.ReasoningEffort)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
		if options.ParallelToolCalls != nil {
			params.ParallelToolCalls = openai.Bool(*options.ParallelToolCalls)
		}
	}
	return params, nil
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	params, err := c.params(messages, ai.ApplyOptions(opts...))
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.ErrNoChoices
	}

	choice := resp.Choices[0]
	var extra messageExtras
	_ = json.Unmarshal([]byte(choice.Message.RawJSON()), &extra)

	return buildResponse(resp.ID, resp.Model, choice.Message.Content, extra.Reasoning,
		extractToolCalls(choice.Message.ToolCalls), string(choice.FinishReason), resp.Usage), nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	params, err := c.params(messages, ai.ApplyOptions(opts...))
	if err != nil {
		return nil, err
	}
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	ch := event.NewChannel()

	go func() {
		defer close(ch)
		defer stream.Close()

		var (
			acc       openai.ChatCompletionAccumulator
			messageID string
			reasoning string
			inReason  bool
			callIDs   = map[int64]string{}
			usage     openai.CompletionUsage
		)
		send := func(e event.Event) bool {
			e.MessageID = messageID
			return event.Send(ctx, ch, e)
		}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if messageID == "" {
				messageID = chunk.ID
				if messageID == "" {
					messageID = ai.GenerateMessageID()
				}
				if !send(event.Event{Type: event.MessageStart}) {
					return
				}
			}
			if chunk.Usage.TotalTokens > 0 {
				usage = chunk.Usage
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta

			var extra messageExtras
			_ = json.Unmarshal([]byte(delta.RawJSON()), &extra)
			if extra.Reasoning != "" {
				if !inReason {
					inReason = true
					send(event.Event{Type: event.ReasoningStart})
				}
				reasoning += extra.Reasoning
				send(event.Event{Type: event.ReasoningDelta, Delta: extra.Reasoning})
			}

			if delta.Content != "" {
				if inReason {
					inReason = false
					send(event.Event{Type: event.ReasoningEnd})
				}
				if !send(event.Event{Type: event.MessageDelta, Delta: delta.Content}) {
					return
				}
			}

			for _, tc := range delta.ToolCalls {
				if tc.ID != "" {
					callIDs[tc.Index] = tc.ID
					send(event.Event{Type: event.ToolCallStart, ToolCall: &ai.ToolCall{ID: tc.ID, Name: tc.Function.Name}})
				}
				if tc.Function.Arguments != "" {
					send(event.Event{
						Type:     event.ToolCallArgs,
						ToolCall: &ai.ToolCall{ID: callIDs[tc.Index]},
						Delta:    tc.Function.Arguments,
					})
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(event.Event{Type: event.RunError, Error: wrapError(c.provider, err)})
			return
		}
		if len(acc.Choices) == 0 {
			send(event.Event{Type: event.RunError, Error: ai.ErrNoChoices})
			return
		}
		if inReason {
			send(event.Event{Type: event.ReasoningEnd})
		}

		choice := acc.Choices[0]
		calls := extractToolCalls(choice.Message.ToolCalls)
		for i := range calls {
			send(event.Event{Type: event.ToolCallEnd, ToolCall: &calls[i]})
		}
		resp := buildResponse(acc.ID, acc.Model, choice.Message.Content, reasoning,
			calls, string(choice.FinishReason), usage)
		send(event.Event{Type: event.MessageEnd, Response: resp})
	}()

	return ch, nil
}

// messageExtras holds router fields the SDK does not model.
type messageExtras struct {
	Reasoning string `json:"reasoning"`
}

type usageExtras struct {
	Cost *float64 `json:"cost"`
}

func buildResponse(id, modelID, content, reasoning string, calls []ai.ToolCall, finish string, u openai.CompletionUsage) *ai.Response {
	resp := &ai.Response{
		ID:           id,
		Model:        modelID,
		Status:       ai.StatusCompleted,
		FinishReason: finish,
		Usage: ai.Usage{
			InputTokens:  int(u.PromptTokens),
			OutputTokens: int(u.CompletionTokens),
			TotalTokens:  int(u.TotalTokens),
		},
	}
	if finish == "length" || finish == "content_filter" {
		resp.Status = ai.StatusIncomplete
	}

	var extra usageExtras
	if raw := u.RawJSON(); raw != "" && json.Unmarshal([]byte(raw), &extra) == nil && extra.Cost != nil {
		resp.Usage.Cost = *extra.Cost
	} else if cost, ok := model.CostOf(modelID, resp.Usage); ok {
		resp.Usage.Cost = cost
	}

	if reasoning != "" {
		resp.Output = append(resp.Output, ai.ReasoningOutput(reasoning))
	}
	if content != "" {
		resp.Output = append(resp.Output, ai.TextOutput(content))
	}
	for _, call := range calls {
		resp.Output = append(resp.Output, ai.FunctionCallOutput(call))
	}
	return resp
}

var _ chat.Client = (*Client)(nil)
