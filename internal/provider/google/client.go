package google

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/chat"
	"github.com/spetersoncode/relay/event"
	"github.com/spetersoncode/relay/model"
)

// thinkingBudgets maps reasoning effort onto a thinking token budget.
var thinkingBudgets = map[string]int32{
	"low":    1024,
	"medium": 8192,
	"high":   24576,
}

// Client wraps the Google GenAI SDK to implement chat.Client.
type Client struct {
	client *genai.Client
	model  string
	config genai.ClientConfig
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithVertex switches the backend to Vertex AI in the given project and
// location. The API key is ignored.
func WithVertex(project, location string) ClientOption {
	return func(c *Client) {
		c.config.Backend = genai.BackendVertexAI
		c.config.Project = project
		c.config.Location = location
		c.config.APIKey = ""
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.config.HTTPOptions.BaseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.config.HTTPClient = hc
	}
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model: model.DefaultGeminiModel.String(),
		config: genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	client, err := genai.NewClient(ctx, &c.config)
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

func (c *Client) request(messages []ai.Message, options *ai.Options) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	modelID := c.model
	if options.Model != "" {
		modelID = options.Model
	}

	contents, system, err := convertMessages(messages)
	if err != nil {
		return "", nil, nil, err
	}
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if options.TopP != nil {
		topP := float32(*options.TopP)
		config.TopP = &topP
	}
	if budget, ok := thinkingBudgets[strings.ToLower(options.ReasoningEffort)]; ok {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  &budget,
		}
	}
	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = convertToolChoice(options.ToolChoice)
		}
	}
	return modelID, contents, config, nil
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	modelID, contents, config, err := c.request(messages, ai.ApplyOptions(opts...))
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelID, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}
	if err := blocked(resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, ai.ErrNoChoices
	}

	acc := newAccumulator(modelID)
	acc.add(resp)
	return acc.response(), nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	modelID, contents, config, err := c.request(messages, ai.ApplyOptions(opts...))
	if err != nil {
		return nil, err
	}

	ch := event.NewChannel()

	go func() {
		defer close(ch)

		acc := newAccumulator(modelID)
		send := func(e event.Event) bool {
			e.MessageID = acc.id
			return event.Send(ctx, ch, e)
		}
		started, inReason := false, false

		for resp, err := range c.client.Models.GenerateContentStream(ctx, modelID, contents, config) {
			if err != nil {
				send(event.Event{Type: event.RunError, Error: wrapError(err)})
				return
			}
			if err := blocked(resp); err != nil {
				send(event.Event{Type: event.RunError, Error: err})
				return
			}
			if !started {
				started = true
				if resp.ResponseID != "" {
					acc.id = resp.ResponseID
				}
				if !send(event.Event{Type: event.MessageStart}) {
					return
				}
			}

			for _, part := range acc.add(resp) {
				switch {
				case part.Thought && part.Text != "":
					if !inReason {
						inReason = true
						send(event.Event{Type: event.ReasoningStart})
					}
					if !send(event.Event{Type: event.ReasoningDelta, Delta: part.Text}) {
						return
					}
				case part.Text != "":
					if inReason {
						inReason = false
						send(event.Event{Type: event.ReasoningEnd})
					}
					if !send(event.Event{Type: event.MessageDelta, Delta: part.Text}) {
						return
					}
				}
			}
		}

		if !started {
			send(event.Event{Type: event.RunError, Error: ai.ErrNoChoices})
			return
		}
		if inReason {
			send(event.Event{Type: event.ReasoningEnd})
		}
		// Gemini delivers function calls whole, so each call is announced
		// start to end in one go.
		for i := range acc.calls {
			call := acc.calls[i]
			send(event.Event{Type: event.ToolCallStart, ToolCall: &ai.ToolCall{ID: call.ID, Name: call.Name}})
			send(event.Event{Type: event.ToolCallArgs, ToolCall: &ai.ToolCall{ID: call.ID, Name: call.Name}, Delta: call.Arguments})
			send(event.Event{Type: event.ToolCallEnd, ToolCall: &call})
		}
		send(event.Event{Type: event.MessageEnd, Response: acc.response()})
	}()

	return ch, nil
}

// accumulator folds one or more GenerateContent responses into a response.
type accumulator struct {
	id, model       string
	text, reasoning strings.Builder
	calls           []ai.ToolCall
	finish          genai.FinishReason
	usage           ai.Usage
}

func newAccumulator(modelID string) *accumulator {
	return &accumulator{id: ai.GenerateMessageID(), model: modelID}
}

// add folds resp in and returns the parts it carried.
func (a *accumulator) add(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp.ResponseID != "" {
		a.id = resp.ResponseID
	}
	if resp.ModelVersion != "" {
		a.model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		a.usage = ai.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount + u.ThoughtsTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" {
		a.finish = cand.FinishReason
	}
	if cand.Content == nil {
		return nil
	}
	for _, part := range cand.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			a.calls = append(a.calls, convertFunctionCall(part.FunctionCall))
		case part.Thought:
			a.reasoning.WriteString(part.Text)
		default:
			a.text.WriteString(part.Text)
		}
	}
	return cand.Content.Parts
}

func (a *accumulator) response() *ai.Response {
	usage := a.usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	if cost, ok := model.CostOf(a.model, usage); ok {
		usage.Cost = cost
	}
	resp := &ai.Response{
		ID:           a.id,
		Model:        a.model,
		Status:       ai.StatusCompleted,
		FinishReason: strings.ToLower(string(a.finish)),
		Usage:        usage,
	}
	switch a.finish {
	case genai.FinishReasonMaxTokens, genai.FinishReasonSafety, genai.FinishReasonRecitation:
		resp.Status = ai.StatusIncomplete
	}
	if s := a.reasoning.String(); s != "" {
		resp.Output = append(resp.Output, ai.ReasoningOutput(s))
	}
	if s := a.text.String(); s != "" {
		resp.Output = append(resp.Output, ai.TextOutput(s))
	}
	for _, call := range a.calls {
		resp.Output = append(resp.Output, ai.FunctionCallOutput(call))
	}
	return resp
}

func convertFunctionCall(fc *genai.FunctionCall) ai.ToolCall {
	args, err := json.Marshal(fc.Args)
	if err != nil || fc.Args == nil {
		args = []byte("{}")
	}
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	return ai.ToolCall{ID: id, Name: fc.Name, Arguments: string(args)}
}

var _ chat.Client = (*Client)(nil)
