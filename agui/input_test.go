package agui

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/relay/tool"
)

func TestRunAgentInput_Prepare(t *testing.T) {
	t.Run("valid input with messages", func(t *testing.T) {
		content := "Hello"
		input := RunAgentInput{
			ThreadID: "thread-1",
			RunID:    "run-1",
			Messages: []events.Message{{ID: "msg-1", Role: "user", Content: &content}},
		}

		prepared, err := input.Prepare()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prepared.ThreadID != "thread-1" || prepared.RunID != "run-1" {
			t.Errorf("unexpected IDs %q %q", prepared.ThreadID, prepared.RunID)
		}
		if len(prepared.Messages) != 1 || prepared.Messages[0].Content != "Hello" {
			t.Errorf("unexpected messages %+v", prepared.Messages)
		}
	})

	t.Run("empty messages returns error", func(t *testing.T) {
		input := RunAgentInput{Messages: []events.Message{}}
		if _, err := input.Prepare(); !errors.Is(err, ErrNoMessages) {
			t.Errorf("error = %v, want ErrNoMessages", err)
		}
	})

	t.Run("parses frontend tools", func(t *testing.T) {
		content := "Hi"
		input := RunAgentInput{
			Messages: []events.Message{{ID: "msg-1", Role: "user", Content: &content}},
			Tools: []any{
				map[string]any{
					"name":        "confirm",
					"description": "Ask the user to confirm",
					"parameters":  map[string]any{"type": "object"},
				},
			},
		}

		prepared, err := input.Prepare()
		if err != nil {
			t.Fatal(err)
		}
		if len(prepared.Tools) != 1 || prepared.Tools[0].Name != "confirm" {
			t.Fatalf("unexpected tools %+v", prepared.Tools)
		}
		if string(prepared.Tools[0].Parameters) != `{"type":"object"}` {
			t.Errorf("unexpected parameters %s", prepared.Tools[0].Parameters)
		}
	})

	t.Run("invalid tools returns error", func(t *testing.T) {
		content := "Hi"
		input := RunAgentInput{
			Messages: []events.Message{{ID: "msg-1", Role: "user", Content: &content}},
			Tools:    []any{"not a tool"},
		}
		if _, err := input.Prepare(); err == nil {
			t.Error("expected error for malformed tools")
		}
	})
}

type lookupArgs struct {
	Query string `json:"query"`
}

func TestPreparedInput_Registry(t *testing.T) {
	base := tool.NewRegistry().Add(tool.Func("lookup", "Look something up",
		func(ctx context.Context, args lookupArgs) (string, error) {
			return "found " + args.Query, nil
		}))

	t.Run("adds frontend tools as manual", func(t *testing.T) {
		p := &PreparedInput{Tools: []Tool{{Name: "confirm", Description: "Confirm"}}}
		reg, err := p.Registry(base)
		if err != nil {
			t.Fatal(err)
		}
		if reg.Len() != 2 {
			t.Fatalf("expected 2 tools, got %d", reg.Len())
		}
		confirm, ok := reg.Find("confirm")
		if !ok || confirm.HasExecute() {
			t.Error("expected confirm to be a manual tool")
		}
		lookup, ok := reg.Find("lookup")
		if !ok || !lookup.HasExecute() {
			t.Error("expected lookup to stay executable")
		}
		if base.Len() != 1 {
			t.Error("expected base registry to be unchanged")
		}
	})

	t.Run("nil base", func(t *testing.T) {
		p := &PreparedInput{Tools: []Tool{{Name: "confirm"}}}
		reg, err := p.Registry(nil)
		if err != nil {
			t.Fatal(err)
		}
		if reg.Len() != 1 {
			t.Errorf("expected 1 tool, got %d", reg.Len())
		}
	})

	t.Run("name conflict", func(t *testing.T) {
		p := &PreparedInput{Tools: []Tool{{Name: "lookup"}}}
		_, err := p.Registry(base)
		var dup *tool.ErrToolAlreadyRegistered
		if !errors.As(err, &dup) {
			t.Errorf("expected ErrToolAlreadyRegistered, got %v", err)
		}
	})
}

type testState struct {
	Counter int    `json:"counter"`
	Label   string `json:"label"`
}

func TestDecodeState(t *testing.T) {
	t.Run("nil state gives zero value", func(t *testing.T) {
		got, err := DecodeState[testState](&PreparedInput{})
		if err != nil {
			t.Fatal(err)
		}
		if got != (testState{}) {
			t.Errorf("expected zero value, got %+v", got)
		}
	})

	t.Run("decodes map state", func(t *testing.T) {
		got, err := DecodeState[testState](&PreparedInput{State: map[string]any{"counter": 3, "label": "x"}})
		if err != nil {
			t.Fatal(err)
		}
		if got.Counter != 3 || got.Label != "x" {
			t.Errorf("unexpected state %+v", got)
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := DecodeState[testState](&PreparedInput{State: map[string]any{"counter": "three"}})
		if err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestRunAgentInput_JSON(t *testing.T) {
	data := []byte(`{
		"thread_id": "thread-1",
		"run_id": "run-1",
		"messages": [{"id": "msg-1", "role": "user", "content": "Hello"}],
		"state": {"counter": 1}
	}`)

	var input RunAgentInput
	if err := json.Unmarshal(data, &input); err != nil {
		t.Fatal(err)
	}
	prepared, err := input.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	if prepared.Messages[0].Content != "Hello" {
		t.Errorf("unexpected content %q", prepared.Messages[0].Content)
	}
	state, err := DecodeState[testState](prepared)
	if err != nil {
		t.Fatal(err)
	}
	if state.Counter != 1 {
		t.Errorf("expected counter 1, got %d", state.Counter)
	}
}
