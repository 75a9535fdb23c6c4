// Package agent runs the multi-turn tool loop.
//
// Each turn sends the conversation to a chat.Client, records a Step,
// evaluates the stop conditions, and executes the requested tool calls
// concurrently before feeding their results back as a tool message.
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (string, error) {
//	            return lookup(args.Location)
//	        }),
//	)
//
//	a := agent.New(client, registry)
//	res, err := a.Run(ctx, messages,
//	    agent.WithMaxTurns(5),
//	    agent.WithStopWhen(stop.HasToolCall("finalize")),
//	)
//
// # Termination
//
// Result.Termination tells why the loop ended:
//
//   - TerminationComplete: the model answered without tool calls
//   - TerminationStopCondition: a stop condition was satisfied
//   - TerminationMaxTurns: the turn limit was reached
//   - TerminationManualTools: no requested tool can run locally
//   - TerminationAwaitingApproval: gated calls are waiting for a decision
//   - TerminationRejected: every call of a turn was rejected
//   - TerminationTimeout, TerminationCancelled, TerminationError
//
// Tool failures never end the run. They are fed back to the model and
// recorded in the step's ToolResults. Backend errors and stop condition
// errors abort the run; the partial Result is still returned.
//
// # Per-turn parameters
//
// Model, temperature, max tokens and tool choice accept a Param that is
// resolved right before each send:
//
//	agent.WithTemperatureParam(agent.Dynamic(func(tc agent.TurnContext) float64 {
//	    if tc.HasError {
//	        return 0
//	    }
//	    return 0.7
//	}))
//
// # Approval
//
// WithApprovalRequired gates tools. With an Approver the decision is made
// inline. Without one, the run ends with TerminationAwaitingApproval and,
// when a conversation accessor is configured, the pending calls are saved.
// A later Run with WithApprovals resumes from there.
package agent
