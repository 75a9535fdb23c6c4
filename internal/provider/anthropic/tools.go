package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	ai "github.com/spetersoncode/relay"
)

func convertTools(tools []ai.Tool) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var schema struct {
			Properties any      `json:"properties"`
			Required   []string `json:"required"`
		}
		if len(t.Parameters) > 0 {
			_ = json.Unmarshal(t.Parameters, &schema)
		}

		param := anthropic.ToolParam{
			Name: t.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}
		if t.Description != "" {
			param.Description = anthropic.String(t.Description)
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &param}
	}
	return result
}

// convertToolChoice maps the choice and the parallel-call preference. The
// API expresses the latter inverted, on the choice itself.
func convertToolChoice(choice ai.ToolChoice, parallel *bool) anthropic.ToolChoiceUnionParam {
	disable := parallel != nil && !*parallel
	if choice == ai.ToolChoiceRequired {
		p := &anthropic.ToolChoiceAnyParam{}
		if disable {
			p.DisableParallelToolUse = anthropic.Bool(true)
		}
		return anthropic.ToolChoiceUnionParam{OfAny: p}
	}
	p := &anthropic.ToolChoiceAutoParam{}
	if disable {
		p.DisableParallelToolUse = anthropic.Bool(true)
	}
	return anthropic.ToolChoiceUnionParam{OfAuto: p}
}
