// Package conversation tracks the lifecycle of a multi-turn exchange so that
// an interrupted or approval-gated run can be resumed later.
package conversation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	ai "github.com/spetersoncode/relay"
)

// Status is the lifecycle status of a conversation.
type Status string

const (
	StatusInProgress       Status = "in_progress"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusInterrupted      Status = "interrupted"
	StatusComplete         Status = "complete"
)

// ErrNotFound is returned by stores when no state exists under a key.
var ErrNotFound = errors.New("conversation: not found")

// ErrInvalidTransition is returned when a status change is not allowed.
type ErrInvalidTransition struct {
	From, To Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("conversation: invalid transition %s -> %s", e.From, e.To)
}

var transitions = map[Status][]Status{
	StatusInProgress:       {StatusAwaitingApproval, StatusInterrupted, StatusComplete},
	StatusAwaitingApproval: {StatusInProgress, StatusComplete},
	StatusInterrupted:      {StatusInProgress},
}

// CanTransition reports whether a conversation may move from one status to
// another. Remaining in the same status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// State is the persisted form of a conversation.
type State struct {
	ID       string       `json:"id"`
	Messages []ai.Message `json:"messages"`
	// PreviousResponseID is the ID of the last backend response, used to
	// link a new conversation to the one it continues.
	PreviousResponseID string        `json:"previousResponseId,omitempty"`
	PendingToolCalls   []ai.ToolCall `json:"pendingToolCalls,omitempty"`
	Status             Status        `json:"status"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// New creates an in-progress state with a fresh ID.
func New() *State {
	now := time.Now()
	return &State{
		ID:        uuid.NewString(),
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Continue starts a new in-progress state that carries this state's history
// forward. It is how new input is attached to a completed conversation.
func (s *State) Continue() *State {
	next := New()
	next.Messages = ai.CloneMessages(s.Messages)
	next.PreviousResponseID = s.PreviousResponseID
	return next
}

// Transition moves the state to a new status.
func (s *State) Transition(to Status) error {
	if !CanTransition(s.Status, to) {
		return &ErrInvalidTransition{From: s.Status, To: to}
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	return nil
}

// Clone returns a deep copy of the state's slices.
func (s *State) Clone() *State {
	c := *s
	c.Messages = ai.CloneMessages(s.Messages)
	if s.PendingToolCalls != nil {
		c.PendingToolCalls = append([]ai.ToolCall(nil), s.PendingToolCalls...)
	}
	return &c
}
