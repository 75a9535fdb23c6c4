package agui

import (
	"fmt"
	"iter"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/relay/event"
)

// Mapper converts relay events to AG-UI events for a single run.
type Mapper struct {
	threadID string
	runID    string

	started  bool
	finished bool
}

// NewMapper creates a new Mapper for a single run.
// The threadID and runID are used in lifecycle events (RUN_STARTED, RUN_FINISHED).
// Empty IDs are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	m.started = true
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	m.finished = true
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	m.finished = true
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts a relay event to an AG-UI event. It returns nil for
// events with no AG-UI equivalent or missing their payload.
func (m *Mapper) MapEvent(e event.Event) events.Event {
	switch e.Type {
	case event.RunStart:
		return m.RunStarted()
	case event.RunEnd:
		return m.RunFinished()
	case event.RunError:
		return m.RunError(e.Error)

	case event.StepStart:
		return events.NewStepStartedEvent(stepName(e.Step))
	case event.StepEnd:
		return events.NewStepFinishedEvent(stepName(e.Step))

	case event.MessageStart:
		return events.NewTextMessageStartEvent(e.MessageID, events.WithRole(RoleAssistant))
	case event.MessageDelta:
		if e.Delta == "" {
			return nil
		}
		return events.NewTextMessageContentEvent(e.MessageID, e.Delta)
	case event.MessageEnd:
		return events.NewTextMessageEndEvent(e.MessageID)

	case event.ReasoningStart:
		return events.NewThinkingTextMessageStartEvent()
	case event.ReasoningDelta:
		if e.Delta == "" {
			return nil
		}
		return events.NewThinkingTextMessageContentEvent(e.Delta)
	case event.ReasoningEnd:
		return events.NewThinkingTextMessageEndEvent()

	case event.ToolCallStart:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallStartEvent(e.ToolCall.ID, e.ToolCall.Name)
	case event.ToolCallArgs:
		if e.ToolCall == nil || e.Delta == "" {
			return nil
		}
		return events.NewToolCallArgsEvent(e.ToolCall.ID, e.Delta)
	case event.ToolCallEnd:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallEndEvent(e.ToolCall.ID)
	case event.ToolCallResult:
		if e.ToolResult == nil {
			return nil
		}
		tr := e.ToolResult.ToToolResult()
		return events.NewToolCallResultEvent(events.GenerateMessageID(), tr.ToolCallID, tr.Content)
	}
	return nil
}

// Stream maps a relay event stream. The output always starts with
// RUN_STARTED and ends with RUN_FINISHED or RUN_ERROR, adding them when the
// source stream lacks them, as single-shot chat streams do.
func (m *Mapper) Stream(seq iter.Seq2[event.Event, error]) iter.Seq[events.Event] {
	return func(yield func(events.Event) bool) {
		for e, err := range seq {
			if err != nil {
				if !m.finished {
					if !m.started && !yield(m.RunStarted()) {
						return
					}
					yield(m.RunError(err))
				}
				return
			}
			if !m.started && e.Type != event.RunStart {
				if !yield(m.RunStarted()) {
					return
				}
			}
			if ev := m.MapEvent(e); ev != nil {
				if !yield(ev) {
					return
				}
			}
		}
		if !m.started {
			if !yield(m.RunStarted()) {
				return
			}
		}
		if !m.finished {
			yield(m.RunFinished())
		}
	}
}

func stepName(step int) string {
	return fmt.Sprintf("turn-%d", step)
}
