package tool

import (
	"context"
	"encoding/json"
	"testing"

	ai "github.com/spetersoncode/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"description=Search query"`
	Limit int    `json:"limit,omitempty"`
}

type calcArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func searchTool() Tool {
	return Func("search", "Search the web", func(ctx context.Context, args searchArgs) (string, error) {
		return "result: " + args.Query, nil
	})
}

func TestRegistry(t *testing.T) {
	t.Run("add and find", func(t *testing.T) {
		r := NewRegistry().Add(
			searchTool(),
			Func("calc", "Add numbers", func(ctx context.Context, args calcArgs) (int, error) {
				return args.A + args.B, nil
			}),
		)
		assert.Equal(t, 2, r.Len())
		assert.Equal(t, []string{"calc", "search"}, r.Names())

		found, ok := r.Find("search")
		require.True(t, ok)
		assert.Equal(t, "Search the web", found.Definition().Description)
		assert.True(t, found.HasExecute())

		_, ok = r.Find("missing")
		assert.False(t, ok)
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		r := NewRegistry().Add(searchTool())
		err := r.Register(searchTool())
		var dup *ErrToolAlreadyRegistered
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "search", dup.Name)
		assert.Panics(t, func() { r.Add(searchTool()) })
	})

	t.Run("definitions are sorted", func(t *testing.T) {
		r := NewRegistry().Add(
			Manual(ai.Tool{Name: "zeta"}),
			Manual(ai.Tool{Name: "alpha"}),
		)
		defs := r.Definitions()
		require.Len(t, defs, 2)
		assert.Equal(t, "alpha", defs[0].Name)
		assert.Equal(t, "zeta", defs[1].Name)
	})

	t.Run("unregister", func(t *testing.T) {
		r := NewRegistry().Add(searchTool())
		r.Unregister("search")
		r.Unregister("search")
		assert.Zero(t, r.Len())
	})

	t.Run("nil registry is empty", func(t *testing.T) {
		var r *Registry
		assert.Zero(t, r.Len())
		assert.Nil(t, r.Definitions())
		_, ok := r.Find("x")
		assert.False(t, ok)
	})
}

func TestFuncSchema(t *testing.T) {
	def := searchTool().Definition()

	var schema map[string]any
	require.NoError(t, json.Unmarshal(def.Parameters, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")

	props := schema["properties"].(map[string]any)
	query := props["query"].(map[string]any)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "Search query", query["description"])
	assert.Equal(t, []any{"query"}, schema["required"])
}

func TestManualTool(t *testing.T) {
	m := ManualFunc[calcArgs]("approve", "Ask a human")
	assert.False(t, m.HasExecute())
	_, err := m.Execute(context.Background(), json.RawMessage(`{}`))
	var noExec *ErrNoExecute
	assert.ErrorAs(t, err, &noExec)
}

func TestFuncInvalidArguments(t *testing.T) {
	_, err := searchTool().Execute(context.Background(), json.RawMessage(`{"query": 5}`))
	var invalid *ErrInvalidArguments
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "search", invalid.Name)
}
