// Package model is the catalogue of known chat models and their pricing.
//
// Backends that do not report a monetary cost have it derived from this
// catalogue, so cost-based stop conditions work with every provider:
//
//	if cost, ok := model.CostOf(resp.Model, resp.Usage); ok {
//	    resp.Usage.Cost = cost
//	}
//
// Models are addressed by their provider-local ID ("claude-sonnet-4-5") or
// by the router's qualified form ("anthropic/claude-sonnet-4-5"):
//
//	m, ok := model.Lookup("openai/gpt-5-mini")
//	res := c.CallModel(ctx, nil, messages, agent.WithModel(m.Qualified()))
package model
