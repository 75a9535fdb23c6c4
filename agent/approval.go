package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	ai "github.com/spetersoncode/relay"
)

// ApprovalDecision is a decision on one gated tool call.
type ApprovalDecision struct {
	ToolCallID string `json:"toolCallId"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

// Approve returns a decision approving the call.
func Approve(toolCallID string) ApprovalDecision {
	return ApprovalDecision{ToolCallID: toolCallID, Approved: true}
}

// Reject returns a decision rejecting the call.
func Reject(toolCallID, reason string) ApprovalDecision {
	return ApprovalDecision{ToolCallID: toolCallID, Reason: reason}
}

// ApprovalBroker routes decisions made elsewhere (a UI, a chat command) to
// runs waiting inline on an approval.
//
//	broker := agent.NewApprovalBroker(agent.WithApprovalTimeout(time.Minute))
//	go func() {
//	    for d := range decisions {
//	        _ = broker.Decide(d)
//	    }
//	}()
//	res, err := a.Run(ctx, messages, agent.WithApprover(broker.Approver()))
type ApprovalBroker struct {
	mu       sync.Mutex
	pending  map[string]chan ApprovalDecision
	timeout  time.Duration
	onSubmit func(call ai.ToolCall)
}

// BrokerOption configures an ApprovalBroker.
type BrokerOption func(*ApprovalBroker)

// WithApprovalTimeout bounds how long a call waits for a decision. Default
// is five minutes.
func WithApprovalTimeout(d time.Duration) BrokerOption {
	return func(b *ApprovalBroker) {
		b.timeout = d
	}
}

// WithOnSubmit is called whenever a call starts waiting for a decision.
func WithOnSubmit(fn func(call ai.ToolCall)) BrokerOption {
	return func(b *ApprovalBroker) {
		b.onSubmit = fn
	}
}

// NewApprovalBroker creates a broker.
func NewApprovalBroker(opts ...BrokerOption) *ApprovalBroker {
	b := &ApprovalBroker{
		pending: make(map[string]chan ApprovalDecision),
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Approver returns an ApproverFunc that blocks until a decision arrives.
func (b *ApprovalBroker) Approver() ApproverFunc {
	return b.wait
}

// Decide delivers a decision. It fails when no call with that ID is waiting.
func (b *ApprovalBroker) Decide(d ApprovalDecision) error {
	b.mu.Lock()
	ch, ok := b.pending[d.ToolCallID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("agent: no pending approval for tool call %q", d.ToolCallID)
	}
	select {
	case ch <- d:
	default:
	}
	return nil
}

// Pending returns the IDs of calls waiting for a decision.
func (b *ApprovalBroker) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.pending))
	for id := range b.pending {
		ids = append(ids, id)
	}
	return ids
}

func (b *ApprovalBroker) wait(ctx context.Context, call ai.ToolCall) (bool, string) {
	ch := make(chan ApprovalDecision, 1)
	b.mu.Lock()
	b.pending[call.ID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, call.ID)
		b.mu.Unlock()
	}()

	if b.onSubmit != nil {
		b.onSubmit(call)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	select {
	case d := <-ch:
		return d.Approved, d.Reason
	case <-ctx.Done():
		return false, "approval timed out"
	}
}
