// Package tool provides tool definitions, a concurrency-safe registry, and
// the executor that runs the tool calls a model requests.
//
// A [Tool] pairs a definition the model sees with an optional execute
// function. Tools without one are manual: the orchestration loop hands their
// calls back to the caller instead of running them.
//
// Typed tools derive their JSON schema from the argument type:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name"`
//	    Unit     string `json:"unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (string, error) {
//	            return lookup(args.Location), nil
//	        }),
//	)
//
// The [Executor] runs a batch of calls concurrently and returns one result
// per call, in call order, whatever order the tools finish in.
//
// Built-in tools: [FileTools] reads files under a directory and
// [HTTPGet] fetches URLs.
package tool
