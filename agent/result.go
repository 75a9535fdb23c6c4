package agent

import ai "github.com/spetersoncode/relay"

// TerminationReason indicates why a run stopped.
type TerminationReason string

const (
	// TerminationComplete means the model answered without tool calls.
	TerminationComplete TerminationReason = "complete"

	// TerminationStopCondition means a stop condition was satisfied.
	TerminationStopCondition TerminationReason = "stop_condition"

	// TerminationMaxTurns means the turn limit was reached.
	TerminationMaxTurns TerminationReason = "max_turns"

	// TerminationManualTools means the model called only tools that cannot
	// run locally. The calls are in PendingToolCalls.
	TerminationManualTools TerminationReason = "manual_tools"

	// TerminationAwaitingApproval means gated calls are waiting for a
	// decision. The calls are in PendingToolCalls.
	TerminationAwaitingApproval TerminationReason = "awaiting_approval"

	// TerminationRejected means every call of a turn was denied approval.
	TerminationRejected TerminationReason = "rejected"

	TerminationTimeout   TerminationReason = "timeout"
	TerminationCancelled TerminationReason = "cancelled"
	TerminationError     TerminationReason = "error"
)

// Result is the outcome of a run.
type Result struct {
	// Response is the last response received.
	Response *ai.Response

	// Responses holds every response, one per turn.
	Responses []*ai.Response

	// Steps holds one record per turn.
	Steps []ai.Step

	// ToolResults holds every tool execution result in execution order,
	// including results of calls resumed after approval.
	ToolResults []ai.ToolExecutionResult

	// Messages is the full conversation history after the run.
	Messages []ai.Message

	// StoppedByCondition reports whether a stop condition ended the run.
	StoppedByCondition bool

	Termination TerminationReason

	// PendingToolCalls lists calls left unexecuted.
	PendingToolCalls []ai.ToolCall

	TotalUsage ai.Usage

	// ConversationID is set when the run was persisted.
	ConversationID string

	Error error
}

// Text returns the text of the final response.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	return r.Response.Text()
}

// Turns returns the number of backend calls made.
func (r *Result) Turns() int {
	if r == nil {
		return 0
	}
	return len(r.Steps)
}
