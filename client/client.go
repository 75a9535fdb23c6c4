package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/agent"
	"github.com/spetersoncode/relay/chat"
	"github.com/spetersoncode/relay/event"
	"github.com/spetersoncode/relay/internal/provider/anthropic"
	"github.com/spetersoncode/relay/internal/provider/google"
	"github.com/spetersoncode/relay/internal/provider/openai"
	"github.com/spetersoncode/relay/model"
	"github.com/spetersoncode/relay/result"
	"github.com/spetersoncode/relay/tool"
)

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use. When OpenRouter is
// set every model is sent through the hosted router.
type APIKeys struct {
	OpenRouter string
	Anthropic  string
	OpenAI     string
	Google     string
}

// Vertex selects the Vertex AI backend for Google models.
type Vertex struct {
	Project  string
	Location string
}

// Config holds configuration for creating a unified client.
type Config struct {
	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// DefaultModel is used when a request names no model, e.g.
	// "anthropic/claude-sonnet-4-5".
	DefaultModel string

	// Vertex, when set, sends Google models to Vertex AI using
	// Application Default Credentials instead of the Gemini API key.
	Vertex *Vertex

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ErrMissingAPIKey is returned when a model is used but no API key
// is configured for that model's provider.
type ErrMissingAPIKey struct {
	Provider ai.Provider
	Model    string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no API key configured for %s (required by model %q)", e.Provider, e.Model)
	}
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrNoModel is returned when no model is specified and no default is configured.
type ErrNoModel struct {
	Operation string
}

func (e *ErrNoModel) Error() string {
	return fmt.Sprintf("no model specified for %s: set client.Config DefaultModel or use ai.WithModel()", e.Operation)
}

// ErrUnknownProvider is returned when a model cannot be routed.
type ErrUnknownProvider struct {
	Model string
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("cannot determine provider for model %q: use a provider prefix such as \"openai/\"", e.Model)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTemperature sets the default temperature for chat requests.
// Per-request options override this default.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithTemperature(t))
	}
}

// WithDefaultMaxTokens sets the default max tokens for chat requests.
// Per-request options override this default.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithMaxTokens(n))
	}
}

// WithDefaultChatOptions sets default options for all chat requests.
// Per-request options override these defaults.
func WithDefaultChatOptions(opts ...ai.Option) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, opts...)
	}
}

// WithBackend installs a chat.Client for a provider, bypassing lazy
// construction. Useful for self-hosted OpenAI-compatible endpoints.
func WithBackend(p ai.Provider, backend chat.Client) ClientOption {
	return func(c *Client) {
		c.backends[p] = backend
	}
}

// Client is a unified chat.Client over all configured providers.
// Provider clients are lazily initialized when first needed.
type Client struct {
	apiKeys         APIKeys
	defaultModel    string
	vertex          *Vertex
	events          chan<- Event
	logger          *slog.Logger
	defaultChatOpts []ai.Option

	mu       sync.Mutex
	backends map[ai.Provider]chat.Client
	initErrs map[ai.Provider]error
}

// New creates a unified client with the given configuration.
func New(cfg Config, opts ...ClientOption) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKeys:      cfg.APIKeys,
		defaultModel: cfg.DefaultModel,
		vertex:       cfg.Vertex,
		events:       cfg.Events,
		logger:       logger,
		backends:     map[ai.Provider]chat.Client{},
		initErrs:     map[ai.Provider]error{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// backend returns the client for p, constructing it on first use.
func (c *Client) backend(ctx context.Context, p ai.Provider, modelID string) (chat.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.backends[p]; ok {
		return b, nil
	}
	if err := c.initErrs[p]; err != nil {
		return nil, err
	}

	var b chat.Client
	switch p {
	case ai.ProviderOpenRouter:
		if c.apiKeys.OpenRouter == "" {
			return nil, &ErrMissingAPIKey{Provider: p, Model: modelID}
		}
		b = openai.NewRouter(c.apiKeys.OpenRouter)
	case ai.ProviderAnthropic:
		if c.apiKeys.Anthropic == "" {
			return nil, &ErrMissingAPIKey{Provider: p, Model: modelID}
		}
		b = anthropic.New(c.apiKeys.Anthropic)
	case ai.ProviderOpenAI:
		if c.apiKeys.OpenAI == "" {
			return nil, &ErrMissingAPIKey{Provider: p, Model: modelID}
		}
		b = openai.New(c.apiKeys.OpenAI)
	case ai.ProviderGoogle:
		var opts []google.ClientOption
		if c.vertex != nil {
			opts = append(opts, google.WithVertex(c.vertex.Project, c.vertex.Location))
		} else if c.apiKeys.Google == "" {
			return nil, &ErrMissingAPIKey{Provider: p, Model: modelID}
		}
		gc, err := google.New(ctx, c.apiKeys.Google, opts...)
		if err != nil {
			c.initErrs[p] = fmt.Errorf("failed to initialize Google client: %w", err)
			return nil, c.initErrs[p]
		}
		b = gc
	default:
		return nil, &ErrUnknownProvider{Model: modelID}
	}

	c.logger.Debug("initialized provider", "provider", p)
	c.backends[p] = b
	return b, nil
}

// route resolves the backend and the model identifier it expects. The
// router takes qualified identifiers; direct providers take bare ones.
func (c *Client) route(ctx context.Context, modelID string) (chat.Client, ai.Provider, string, error) {
	p, _ := ai.SplitModel(modelID)
	if p == "" {
		if m, ok := model.Lookup(modelID); ok {
			p = m.Provider()
			modelID = m.Qualified()
		}
	}

	if c.apiKeys.OpenRouter != "" || p == ai.ProviderOpenRouter {
		b, err := c.backend(ctx, ai.ProviderOpenRouter, modelID)
		return b, ai.ProviderOpenRouter, modelID, err
	}
	if p == "" {
		return nil, "", "", &ErrUnknownProvider{Model: modelID}
	}
	_, name := ai.SplitModel(modelID)
	b, err := c.backend(ctx, p, modelID)
	return b, p, name, err
}

// prepare merges defaults and resolves the backend for one request.
func (c *Client) prepare(ctx context.Context, operation string, opts []ai.Option) (chat.Client, ai.Provider, []ai.Option, error) {
	opts = append(append([]ai.Option{}, c.defaultChatOpts...), opts...)
	modelID := ai.ApplyOptions(opts...).Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	if modelID == "" {
		return nil, "", nil, &ErrNoModel{Operation: operation}
	}

	b, p, routed, err := c.route(ctx, modelID)
	if err != nil {
		return nil, "", nil, err
	}
	return b, p, append(opts, ai.WithModel(routed)), nil
}

// Chat sends a conversation to the backend serving the requested model.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	b, p, opts, err := c.prepare(ctx, "chat", opts)
	if err != nil {
		return nil, err
	}
	modelID := ai.ApplyOptions(opts...).Model

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "chat", Provider: p, Model: modelID})

	resp, err := b.Chat(ctx, messages, opts...)
	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "chat",
			Provider:  p,
			Model:     modelID,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}

	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: "chat",
		Provider:  p,
		Model:     modelID,
		Duration:  time.Since(start),
		Usage:     &resp.Usage,
	})
	return resp, nil
}

// ChatStream sends a conversation and returns the backend's event stream.
// EventRequestComplete fires when the stream ends.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	b, p, opts, err := c.prepare(ctx, "chat_stream", opts)
	if err != nil {
		return nil, err
	}
	modelID := ai.ApplyOptions(opts...).Model

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "chat_stream", Provider: p, Model: modelID})

	src, err := b.ChatStream(ctx, messages, opts...)
	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "chat_stream",
			Provider:  p,
			Model:     modelID,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}
	if c.events == nil {
		return src, nil
	}

	out := event.NewChannel()
	go func() {
		defer close(out)
		final := Event{Type: EventRequestComplete, Operation: "chat_stream", Provider: p, Model: modelID}
		for e := range src {
			switch e.Type {
			case event.MessageEnd:
				final.Usage = &e.Response.Usage
			case event.RunError:
				final.Type, final.Error = EventRequestError, e.Error
			}
			if !event.Send(ctx, out, e) {
				// Drain so the provider goroutine can exit.
				for range src {
				}
				return
			}
		}
		final.Duration = time.Since(start)
		emit(c.events, final)
	}()
	return out, nil
}

// CallModel returns a lazy Result for the conversation. With tools in
// registry the agent loop runs; otherwise a single streaming call is made.
func (c *Client) CallModel(ctx context.Context, registry *tool.Registry, messages []ai.Message, opts ...agent.Option) *result.Result {
	return result.New(ctx, c, registry, messages, opts...)
}

// Run executes the agent loop to completion.
func (c *Client) Run(ctx context.Context, registry *tool.Registry, messages []ai.Message, opts ...agent.Option) (*agent.Result, error) {
	return agent.New(c, registry).Run(ctx, messages, opts...)
}

var _ chat.Client = (*Client)(nil)
