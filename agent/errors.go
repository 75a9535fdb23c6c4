package agent

import (
	"errors"
	"fmt"
)

// ErrNoResponse is returned when a backend call succeeds without a response.
var ErrNoResponse = errors.New("agent: backend returned no response")

// StopConditionError wraps a failure raised by a stop condition. The run is
// aborted when one occurs.
type StopConditionError struct {
	Turn int
	Err  error
}

func (e *StopConditionError) Error() string {
	return fmt.Sprintf("agent: stop condition failed after turn %d: %v", e.Turn, e.Err)
}

func (e *StopConditionError) Unwrap() error { return e.Err }

// ErrToolRejected is the failure recorded for a tool call that was denied approval.
type ErrToolRejected struct {
	Name   string
	Reason string
}

func (e *ErrToolRejected) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("agent: tool call %s rejected", e.Name)
	}
	return fmt.Sprintf("agent: tool call %s rejected: %s", e.Name, e.Reason)
}
