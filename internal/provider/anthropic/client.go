package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/chat"
	"github.com/spetersoncode/relay/event"
	"github.com/spetersoncode/relay/model"
)

// DefaultMaxTokens is sent when the request does not set a limit. The
// Messages API requires one.
const DefaultMaxTokens = 4096

// thinkingBudgets maps reasoning effort onto a thinking token budget.
var thinkingBudgets = map[string]int64{
	"low":    1024,
	"medium": 4096,
	"high":   16384,
}

// Client wraps the Anthropic SDK to implement chat.Client.
type Client struct {
	client  *anthropic.Client
	model   string
	reqOpts []option.RequestOption
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithRequestOptions passes raw SDK request options, e.g. a base URL.
func WithRequestOptions(opts ...option.RequestOption) ClientOption {
	return func(c *Client) {
		c.reqOpts = append(c.reqOpts, opts...)
	}
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		model:   model.DefaultClaudeModel.String(),
		reqOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
	}
	for _, opt := range opts {
		opt(c)
	}
	client := anthropic.NewClient(c.reqOpts...)
	c.client = &client
	return c
}

func (c *Client) params(messages []ai.Message, options *ai.Options) anthropic.MessageNewParams {
	modelID := c.model
	if options.Model != "" {
		modelID = options.Model
	}
	maxTokens := int64(DefaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if options.TopP != nil {
		params.TopP = anthropic.Float(*options.TopP)
	}
	if budget, ok := thinkingBudgets[strings.ToLower(options.ReasoningEffort)]; ok {
		// The budget must stay below max_tokens.
		if budget >= maxTokens {
			params.MaxTokens = budget + maxTokens
		}
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}
	if len(options.Tools) > 0 && options.ToolChoice != ai.ToolChoiceNone {
		params.Tools = convertTools(options.Tools)
		params.ToolChoice = convertToolChoice(options.ToolChoice, options.ParallelToolCalls)
	}
	return params
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	params := c.params(messages, ai.ApplyOptions(opts...))

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	var text, reasoning strings.Builder
	var calls []ai.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "thinking":
			reasoning.WriteString(block.Thinking)
		case "tool_use":
			calls = append(calls, ai.ToolCall{ID: block.ID, Name: block.Name, Arguments: string(block.Input)})
		}
	}

	return buildResponse(resp.ID, string(resp.Model), text.String(), reasoning.String(), calls,
		string(resp.StopReason), ai.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		}), nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	params := c.params(messages, ai.ApplyOptions(opts...))

	stream := c.client.Messages.NewStreaming(ctx, params)
	ch := event.NewChannel()

	go func() {
		defer close(ch)
		defer stream.Close()

		p := &processor{
			ctx:    ctx,
			ch:     ch,
			blocks: map[int64]*block{},
		}
		for stream.Next() {
			if !p.handle(stream.Current()) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			p.send(event.Event{Type: event.RunError, Error: wrapError(err)})
			return
		}
		if p.id == "" {
			p.send(event.Event{Type: event.RunError, Error: ai.ErrNoChoices})
			return
		}
		p.send(event.Event{Type: event.MessageEnd, Response: p.response()})
	}()

	return ch, nil
}

// block buffers one streamed content block.
type block struct {
	kind string
	call ai.ToolCall
	args strings.Builder
}

// processor turns Messages API stream events into relay events.
type processor struct {
	ctx context.Context
	ch  chan event.Event

	id, model string
	stop      string
	usage     ai.Usage

	text, reasoning strings.Builder
	calls           []ai.ToolCall
	blocks          map[int64]*block
}

func (p *processor) send(e event.Event) bool {
	e.MessageID = p.id
	return event.Send(p.ctx, p.ch, e)
}

func (p *processor) handle(ev anthropic.MessageStreamEventUnion) bool {
	switch ev.Type {
	case "message_start":
		p.id = ev.Message.ID
		p.model = string(ev.Message.Model)
		p.usage.InputTokens = int(ev.Message.Usage.InputTokens)
		p.usage.OutputTokens = int(ev.Message.Usage.OutputTokens)
		return p.send(event.Event{Type: event.MessageStart})

	case "content_block_start":
		cb := ev.ContentBlock
		b := &block{kind: cb.Type}
		p.blocks[ev.Index] = b
		switch cb.Type {
		case "thinking":
			return p.send(event.Event{Type: event.ReasoningStart})
		case "tool_use":
			b.call = ai.ToolCall{ID: cb.ID, Name: cb.Name}
			return p.send(event.Event{Type: event.ToolCallStart, ToolCall: &ai.ToolCall{ID: cb.ID, Name: cb.Name}})
		}

	case "content_block_delta":
		b := p.blocks[ev.Index]
		switch ev.Delta.Type {
		case "text_delta":
			if ev.Delta.Text == "" {
				return true
			}
			p.text.WriteString(ev.Delta.Text)
			return p.send(event.Event{Type: event.MessageDelta, Delta: ev.Delta.Text})
		case "thinking_delta":
			if ev.Delta.Thinking == "" {
				return true
			}
			p.reasoning.WriteString(ev.Delta.Thinking)
			return p.send(event.Event{Type: event.ReasoningDelta, Delta: ev.Delta.Thinking})
		case "input_json_delta":
			if b == nil || ev.Delta.PartialJSON == "" {
				return true
			}
			b.args.WriteString(ev.Delta.PartialJSON)
			return p.send(event.Event{
				Type:     event.ToolCallArgs,
				ToolCall: &ai.ToolCall{ID: b.call.ID, Name: b.call.Name},
				Delta:    ev.Delta.PartialJSON,
			})
		}

	case "content_block_stop":
		b := p.blocks[ev.Index]
		delete(p.blocks, ev.Index)
		if b == nil {
			return true
		}
		switch b.kind {
		case "thinking":
			return p.send(event.Event{Type: event.ReasoningEnd})
		case "tool_use":
			call := b.call
			call.Arguments = b.args.String()
			if strings.TrimSpace(call.Arguments) == "" {
				call.Arguments = "{}"
			}
			p.calls = append(p.calls, call)
			return p.send(event.Event{Type: event.ToolCallEnd, ToolCall: &call})
		}

	case "message_delta":
		p.stop = string(ev.Delta.StopReason)
		// Output tokens are cumulative.
		if ev.Usage.OutputTokens > 0 {
			p.usage.OutputTokens = int(ev.Usage.OutputTokens)
		}
	}
	return true
}

func (p *processor) response() *ai.Response {
	return buildResponse(p.id, p.model, p.text.String(), p.reasoning.String(), p.calls, p.stop, p.usage)
}

func buildResponse(id, modelID, text, reasoning string, calls []ai.ToolCall, stop string, usage ai.Usage) *ai.Response {
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	if cost, ok := model.CostOf(modelID, usage); ok {
		usage.Cost = cost
	}
	resp := &ai.Response{
		ID:           id,
		Model:        modelID,
		Status:       ai.StatusCompleted,
		FinishReason: stop,
		Usage:        usage,
	}
	if stop == "max_tokens" || stop == "refusal" {
		resp.Status = ai.StatusIncomplete
	}
	if reasoning != "" {
		resp.Output = append(resp.Output, ai.ReasoningOutput(reasoning))
	}
	if text != "" {
		resp.Output = append(resp.Output, ai.TextOutput(text))
	}
	for _, call := range calls {
		resp.Output = append(resp.Output, ai.FunctionCallOutput(call))
	}
	return resp
}

var _ chat.Client = (*Client)(nil)
