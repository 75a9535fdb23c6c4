// Package agui bridges relay streams and the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an event-based protocol that connects
// agents to user-facing applications. This package converts relay events
// and messages to their AG-UI counterparts. It provides no HTTP handlers;
// write the converted events with the AG-UI SDK's SSE writer or any other
// transport.
//
// # Usage
//
// Create a Mapper per run and feed it the full event stream of a result:
//
//	mapper := agui.NewMapper(input.ThreadID, input.RunID)
//	res := result.New(ctx, c, registry, input.Messages)
//	for ev := range mapper.Stream(res.FullStream(ctx)) {
//	    writeEvent(ev)
//	}
//
// # Event Mapping
//
// Each relay event maps to at most one AG-UI event:
//
//   - RunStart, RunEnd, RunError → RUN_STARTED, RUN_FINISHED, RUN_ERROR
//   - StepStart, StepEnd → STEP_STARTED, STEP_FINISHED
//   - MessageStart, MessageDelta, MessageEnd → TEXT_MESSAGE_*
//   - ReasoningStart, ReasoningDelta, ReasoningEnd → THINKING_TEXT_MESSAGE_*
//   - ToolCallStart, ToolCallArgs, ToolCallEnd, ToolCallResult → TOOL_CALL_*
//
// # Frontend Tools
//
// Tools declared by the frontend in RunAgentInput become manual tools: the
// model may call them but the loop never runs them, so the run ends with
// the calls pending for the frontend to fulfil.
//
// The Mapper is not safe for concurrent use. Conversion functions are
// stateless.
package agui
