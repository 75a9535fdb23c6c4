package relay

import (
	"encoding/json"
	"fmt"
	"time"
)

// ToolExecutionResult is the outcome of running one tool call.
type ToolExecutionResult struct {
	ToolCallID string        `json:"toolCallId"`
	ToolName   string        `json:"toolName"`
	Result     any           `json:"result,omitempty"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Success reports whether the tool ran without error.
func (r ToolExecutionResult) Success() bool {
	return r.Err == nil
}

// ToToolResult renders the execution result as the payload sent back to the
// model. Strings are passed through verbatim, other values are JSON-encoded,
// and failures carry the error text with IsError set.
func (r ToolExecutionResult) ToToolResult() ToolResult {
	tr := ToolResult{ToolCallID: r.ToolCallID, Name: r.ToolName}
	if r.Err != nil {
		tr.Content = r.Err.Error()
		tr.IsError = true
		return tr
	}
	switch v := r.Result.(type) {
	case nil:
		tr.Content = ""
	case string:
		tr.Content = v
	case json.RawMessage:
		tr.Content = string(v)
	case []byte:
		tr.Content = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			tr.Content = fmt.Sprint(v)
		} else {
			tr.Content = string(data)
		}
	}
	return tr
}

// ToolResults converts execution results in order.
func ToolResults(results []ToolExecutionResult) []ToolResult {
	out := make([]ToolResult, len(results))
	for i, r := range results {
		out[i] = r.ToToolResult()
	}
	return out
}

// Step records one round trip of the tool loop: the backend response, the
// tool calls it requested and, once executed, their results.
type Step struct {
	Index       int                   `json:"index"`
	Response    *Response             `json:"response"`
	ToolCalls   []ToolCall            `json:"toolCalls,omitempty"`
	ToolResults []ToolExecutionResult `json:"toolResults,omitempty"`
}

// TotalTokens returns the tokens consumed by the step's backend call.
func (s Step) TotalTokens() int {
	if s.Response == nil {
		return 0
	}
	return s.Response.Usage.Total()
}

// Cost returns the monetary cost of the step's backend call.
func (s Step) Cost() float64 {
	if s.Response == nil {
		return 0
	}
	return s.Response.Usage.Cost
}

// FinishReason returns the backend finish reason for the step.
func (s Step) FinishReason() string {
	if s.Response == nil {
		return ""
	}
	return s.Response.FinishReason
}

// Status returns the terminal status of the step's response.
func (s Step) Status() Status {
	if s.Response == nil {
		return ""
	}
	return s.Response.Status
}

// HasToolCall reports whether the step requested a call to the named tool.
func (s Step) HasToolCall(name string) bool {
	for _, c := range s.ToolCalls {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HasError reports whether any tool in the step failed.
func (s Step) HasError() bool {
	for _, r := range s.ToolResults {
		if r.Err != nil {
			return true
		}
	}
	return false
}
