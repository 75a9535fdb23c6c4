package agui

import (
	"encoding/json"
	"errors"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
)

// RunAgentInput is the AG-UI request for running an agent.
type RunAgentInput struct {
	ThreadID       string           `json:"thread_id"`
	RunID          string           `json:"run_id"`
	Messages       []events.Message `json:"messages"`
	Tools          []any            `json:"tools,omitempty"`
	Context        []any            `json:"context,omitempty"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwarded_props,omitempty"`
}

// PreparedInput is a validated RunAgentInput converted to relay types.
type PreparedInput struct {
	ThreadID string
	RunID    string
	Messages []ai.Message
	Tools    []Tool
	State    any
}

// ErrNoMessages is returned when the input contains no messages.
var ErrNoMessages = errors.New("no messages provided")

// Prepare validates the input and converts it to relay types.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	messages := ToMessages(r.Messages)
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	tools, err := ParseTools(r.Tools)
	if err != nil {
		return nil, err
	}

	return &PreparedInput{
		ThreadID: r.ThreadID,
		RunID:    r.RunID,
		Messages: messages,
		Tools:    tools,
		State:    r.State,
	}, nil
}

// Registry returns a registry holding base's tools plus the frontend tools
// as manual tools. base may be nil. A frontend tool whose name is taken
// fails with tool.ErrToolAlreadyRegistered.
func (p *PreparedInput) Registry(base *tool.Registry) (*tool.Registry, error) {
	reg := tool.NewRegistry()
	for _, name := range base.Names() {
		if t, ok := base.Find(name); ok {
			if err := reg.Register(t); err != nil {
				return nil, err
			}
		}
	}
	for _, t := range ManualTools(p.Tools) {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DecodeState decodes the raw frontend state into T.
// It returns the zero value of T if State is nil.
func DecodeState[T any](input *PreparedInput) (T, error) {
	var result T
	if input.State == nil {
		return result, nil
	}

	data, err := json.Marshal(input.State)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}
