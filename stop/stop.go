// Package stop provides composable predicates that decide when the
// multi-turn tool loop should end.
//
// A [Condition] inspects the ordered steps completed so far. The loop stops
// when any of its conditions is satisfied; an empty set never stops the loop
// on its own. Conditions may block and may fail. A failing condition aborts
// the run with its error.
package stop

import (
	"context"
	"sync"

	ai "github.com/spetersoncode/relay"
)

// Condition decides whether the loop should stop after the given steps.
type Condition interface {
	ShouldStop(ctx context.Context, steps []ai.Step) (bool, error)
}

// Func adapts a pure predicate into a Condition.
type Func func(steps []ai.Step) bool

// ShouldStop calls f.
func (f Func) ShouldStop(_ context.Context, steps []ai.Step) (bool, error) {
	return f(steps), nil
}

// FuncErr adapts a predicate that may block or fail into a Condition.
type FuncErr func(ctx context.Context, steps []ai.Step) (bool, error)

// ShouldStop calls f.
func (f FuncErr) ShouldStop(ctx context.Context, steps []ai.Step) (bool, error) {
	return f(ctx, steps)
}

// StepCountIs stops once at least n steps have completed.
func StepCountIs(n int) Condition {
	return Func(func(steps []ai.Step) bool {
		return len(steps) >= n
	})
}

// HasToolCall stops once any step has requested a call to one of the named tools.
func HasToolCall(names ...string) Condition {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	return Func(func(steps []ai.Step) bool {
		for _, s := range steps {
			for _, c := range s.ToolCalls {
				if want[c.Name] {
					return true
				}
			}
		}
		return false
	})
}

// MaxTokensUsed stops once the cumulative token count reaches n.
func MaxTokensUsed(n int) Condition {
	return Func(func(steps []ai.Step) bool {
		total := 0
		for _, s := range steps {
			total += s.TotalTokens()
		}
		return total >= n
	})
}

// MaxCost stops once the cumulative cost in USD reaches limit.
func MaxCost(limit float64) Condition {
	return Func(func(steps []ai.Step) bool {
		var total float64
		for _, s := range steps {
			total += s.Cost()
		}
		return total >= limit
	})
}

// FinishReasonIs stops when the most recent step finished with reason.
func FinishReasonIs(reason string) Condition {
	return Func(func(steps []ai.Step) bool {
		return len(steps) > 0 && steps[len(steps)-1].FinishReason() == reason
	})
}

// StatusIs stops when the most recent step's response reported status.
func StatusIs(status ai.Status) Condition {
	return Func(func(steps []ai.Step) bool {
		return len(steps) > 0 && steps[len(steps)-1].Status() == status
	})
}

// Any is satisfied when at least one member is. Members are evaluated
// concurrently and all of them run to completion; if any member fails, the
// error of the first failing member in argument order is returned. Any of
// nothing is never satisfied.
func Any(conds ...Condition) Condition {
	return group{conds: conds, all: false}
}

// All is satisfied when every member is. All of nothing is never satisfied.
func All(conds ...Condition) Condition {
	return group{conds: conds, all: true}
}

type group struct {
	conds []Condition
	all   bool
}

func (g group) ShouldStop(ctx context.Context, steps []ai.Step) (bool, error) {
	switch len(g.conds) {
	case 0:
		return false, nil
	case 1:
		return g.conds[0].ShouldStop(ctx, steps)
	}

	type outcome struct {
		stop bool
		err  error
	}
	outcomes := make([]outcome, len(g.conds))
	var wg sync.WaitGroup
	for i, c := range g.conds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stop, err := c.ShouldStop(ctx, steps)
			outcomes[i] = outcome{stop: stop, err: err}
		}()
	}
	wg.Wait()

	result := g.all
	for _, o := range outcomes {
		if o.err != nil {
			return false, o.err
		}
		if g.all {
			result = result && o.stop
		} else {
			result = result || o.stop
		}
	}
	return result, nil
}
