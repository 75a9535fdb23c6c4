package relay

import "strings"

// OutputType identifies the kind of an output item in a response.
type OutputType string

const (
	OutputText         OutputType = "text"
	OutputMessage      OutputType = "message"
	OutputReasoning    OutputType = "reasoning"
	OutputFunctionCall OutputType = "function_call"
	OutputImage        OutputType = "image"
	OutputAudio        OutputType = "audio"
)

// OutputItem is one element of a response's output sequence.
type OutputItem struct {
	Type OutputType `json:"type"`
	ID   string     `json:"id,omitempty"`
	// Text is set for text, message and reasoning items.
	Text string `json:"text,omitempty"`
	// ToolCall is set for function_call items.
	ToolCall *ToolCall `json:"toolCall,omitempty"`
	// URL and Data carry media for image and audio items.
	URL      string `json:"url,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextOutput creates a text output item.
func TextOutput(text string) OutputItem {
	return OutputItem{Type: OutputText, Text: text}
}

// ReasoningOutput creates a reasoning output item.
func ReasoningOutput(text string) OutputItem {
	return OutputItem{Type: OutputReasoning, Text: text}
}

// FunctionCallOutput creates a function_call output item.
func FunctionCallOutput(call ToolCall) OutputItem {
	return OutputItem{Type: OutputFunctionCall, ID: call.ID, ToolCall: &call}
}

// Status is the terminal status reported for a response.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusIncomplete Status = "incomplete"
	StatusFailed     Status = "failed"
	StatusInProgress Status = "in_progress"
)

// Usage is the token and cost accounting for one or more backend calls.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	// TotalTokens is the backend-reported total. It may be zero when the
	// backend only reports the input and output split.
	TotalTokens int `json:"totalTokens,omitempty"`
	// Cost is the monetary cost in USD, zero when unknown.
	Cost float64 `json:"cost,omitempty"`
}

// Total returns the total token count, falling back to input plus output.
func (u Usage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.InputTokens + u.OutputTokens
}

// Add returns the sum of two usage records.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.Total() + other.Total(),
		Cost:         u.Cost + other.Cost,
	}
}

// Response is a complete response from a backend.
type Response struct {
	ID           string       `json:"id,omitempty"`
	Model        string       `json:"model,omitempty"`
	Status       Status       `json:"status,omitempty"`
	FinishReason string       `json:"finishReason,omitempty"`
	Output       []OutputItem `json:"output,omitempty"`
	Usage        Usage        `json:"usage"`
}

// Text returns the concatenated text and message output.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, item := range r.Output {
		if item.Type == OutputText || item.Type == OutputMessage {
			b.WriteString(item.Text)
		}
	}
	return b.String()
}

// Reasoning returns the concatenated reasoning output.
func (r *Response) Reasoning() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, item := range r.Output {
		if item.Type == OutputReasoning {
			b.WriteString(item.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the function calls in output order.
func (r *Response) ToolCalls() []ToolCall {
	if r == nil {
		return nil
	}
	var calls []ToolCall
	for _, item := range r.Output {
		if item.Type == OutputFunctionCall && item.ToolCall != nil {
			calls = append(calls, *item.ToolCall)
		}
	}
	return calls
}

// HasToolCalls reports whether the response requests any tool calls.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls()) > 0
}

// Message converts the response into the assistant message that is appended
// to the conversation history.
func (r *Response) Message() Message {
	msg := Message{Role: RoleAssistant}
	if r == nil {
		return msg
	}
	msg.ID = r.ID
	msg.Content = r.Text()
	msg.Reasoning = r.Reasoning()
	msg.ToolCalls = r.ToolCalls()
	return msg
}
