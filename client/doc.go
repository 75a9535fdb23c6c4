// Package client provides a unified multi-provider chat.Client.
//
// Models are addressed as "provider/model". The prefix selects the backend;
// bare identifiers known to the model catalogue are routed by their
// provider. When an OpenRouter key is configured every request goes through
// the hosted router instead, which accepts the same qualified identifiers.
//
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{
//	        Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
//	        OpenAI:    os.Getenv("OPENAI_API_KEY"),
//	    },
//	    DefaultModel: "anthropic/claude-sonnet-4-5",
//	})
//
//	resp, err := c.Chat(ctx, []ai.Message{ai.NewUserMessage("Hello!")})
//
//	// Override per request (routes to OpenAI)
//	resp, err = c.Chat(ctx, msgs, ai.WithModel("openai/gpt-5-mini"))
//
// Provider clients are created on first use, so only the keys of providers
// actually used are required.
//
// # Results
//
// CallModel returns a lazy result.Result whose streaming views can be
// consumed concurrently; Run executes the agent loop directly:
//
//	res := c.CallModel(ctx, registry, msgs, agent.WithMaxTurns(5))
//	for delta, err := range res.TextStream(ctx) {
//	    ...
//	}
//
// # Events
//
// Observe requests via an event channel:
//
//	events := make(chan client.Event, 100)
//	c := client.New(client.Config{APIKeys: keys, Events: events})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s took %v\n", e.Type, e.Operation, e.Duration)
//	    }
//	}()
//
// Backend failures are returned as categorized errors (see ai.IsTransient);
// the client does not retry.
package client
