package relay

import "encoding/json"

// Tool describes a function the model may call.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the arguments.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a request from the model to invoke a tool.
type ToolCall struct {
	// ID correlates the call with its result.
	ID   string `json:"id"`
	Name string `json:"name"`
	// Arguments is the serialized JSON argument payload as sent by the model.
	Arguments string `json:"arguments"`
}

// RawArguments returns the arguments as raw JSON, substituting an empty
// object when the model sent none.
func (c ToolCall) RawArguments() json.RawMessage {
	if c.Arguments == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(c.Arguments)
}

// ToolResult is the outcome of a tool call as it is sent back to the model.
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	// Name is the tool name. Some backends key function responses by name.
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
	IsError bool   `json:"isError,omitempty"`
}

// ToolChoice controls how the model uses tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// NewToolResultMessage creates a tool message carrying results.
func NewToolResultMessage(results ...ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: results}
}
