package agui

import (
	"encoding/json"
	"errors"

	"github.com/spetersoncode/relay/agent"
)

// ApprovalInput is a decision the frontend made on a gated tool call.
type ApprovalInput struct {
	ToolCallID string `json:"toolCallId"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

// ParseApprovals decodes either a single decision or an array of them.
func ParseApprovals(data []byte) ([]ApprovalInput, error) {
	var many []ApprovalInput
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one ApprovalInput
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	if one.ToolCallID == "" {
		return nil, errors.New("approval without toolCallId")
	}
	return []ApprovalInput{one}, nil
}

// ToDecision converts the input to an agent decision.
func (a ApprovalInput) ToDecision() agent.ApprovalDecision {
	return agent.ApprovalDecision{
		ToolCallID: a.ToolCallID,
		Approved:   a.Approved,
		Reason:     a.Reason,
	}
}

// Decisions converts inputs for a resumed run:
//
//	decisions := agui.Decisions(inputs)
//	res, err := a.Run(ctx, history, agent.WithConversation(acc), agent.WithApprovals(decisions...))
func Decisions(inputs []ApprovalInput) []agent.ApprovalDecision {
	out := make([]agent.ApprovalDecision, len(inputs))
	for i, in := range inputs {
		out[i] = in.ToDecision()
	}
	return out
}

// HandleApprovals delivers decisions to runs waiting inline on broker. It
// returns the first delivery error after trying every decision.
func HandleApprovals(broker *agent.ApprovalBroker, data []byte) error {
	inputs, err := ParseApprovals(data)
	if err != nil {
		return err
	}
	var errs []error
	for _, in := range inputs {
		if err := broker.Decide(in.ToDecision()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
