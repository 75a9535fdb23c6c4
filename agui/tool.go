package agui

import (
	"encoding/json"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
)

// Tool is a tool definition sent by an AG-UI frontend.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Definition returns the tool definition offered to the model.
func (t Tool) Definition() ai.Tool {
	return ai.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// ParseTools parses the loosely typed Tools field of RunAgentInput.
func ParseTools(raw []any) ([]Tool, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var tools []Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// ManualTools returns the frontend tools as manual tools. Calls to them are
// left pending for the frontend.
func ManualTools(tools []Tool) []tool.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]tool.Tool, len(tools))
	for i, t := range tools {
		out[i] = tool.Manual(t.Definition())
	}
	return out
}
