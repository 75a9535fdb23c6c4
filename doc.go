// Package relay is the core of a client for hosted LLM APIs.
//
// It defines the provider-neutral vocabulary shared by every other package:
// messages, responses and their output items, tool definitions and calls,
// usage accounting, and the [Step] record produced by one round trip of the
// multi-turn tool loop.
//
// The packages built on top of it are:
//
//   - [github.com/spetersoncode/relay/chat]: the backend interface (send and stream)
//   - [github.com/spetersoncode/relay/stream]: a replayable multi-consumer stream multiplexer
//   - [github.com/spetersoncode/relay/stop]: composable stop conditions for the tool loop
//   - [github.com/spetersoncode/relay/tool]: tool registry and parallel executor
//   - [github.com/spetersoncode/relay/agent]: the multi-turn orchestration loop
//   - [github.com/spetersoncode/relay/result]: the lazy result facade with streaming views
//   - [github.com/spetersoncode/relay/client]: provider routing and the CallModel entry point
//
// The package is conventionally imported under the name ai:
//
//	import ai "github.com/spetersoncode/relay"
//
//	messages := []ai.Message{ai.NewUserMessage("What is the capital of France?")}
//	res := c.CallModel(ctx, registry, messages, agent.WithMaxTurns(5))
//	for delta, err := range res.TextStream(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(delta)
//	}
package relay
