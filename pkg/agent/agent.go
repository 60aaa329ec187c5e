// Package agent defines the autonomous fallback collaborator invoked when
// deterministic resolution is exhausted. The replay engine treats the agent
// as an opaque capability: it hands over a natural-language task and a step
// budget, and consumes a success flag.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/replay/pkg/dom"
)

// DefaultMaxSteps is the step budget applied when an invocation does not set
// its own.
const DefaultMaxSteps = 5

// ErrBudgetExhausted is returned when the agent runs out of steps before
// completing its task.
var ErrBudgetExhausted = errors.New("agent step budget exhausted")

// Invocation is one fallback task handed to the agent.
type Invocation struct {
	// Task describes, in natural language, what the agent should accomplish
	// on the current page.
	Task string

	// MaxSteps bounds the agent's actions for this invocation; zero selects
	// DefaultMaxSteps.
	MaxSteps int
}

// Result reports the agent's outcome. Succeeded false with a nil error means
// the agent gave up within budget.
type Result struct {
	Succeeded bool
	Notes     string

	// Steps is how many actions the agent took.
	Steps int
}

// Agent is an autonomous routine operating on a live page under a bounded
// step budget. There is no retry after a failed invocation; failure is
// terminal for the calling step.
type Agent interface {
	Solve(ctx context.Context, page dom.Page, inv Invocation) (*Result, error)
}

// Budgeted wraps an Agent and enforces the invocation budget: a result
// reporting more steps than allowed is rejected with ErrBudgetExhausted.
func Budgeted(a Agent) Agent {
	return budgeted{inner: a}
}

type budgeted struct {
	inner Agent
}

func (b budgeted) Solve(ctx context.Context, page dom.Page, inv Invocation) (*Result, error) {
	if inv.MaxSteps <= 0 {
		inv.MaxSteps = DefaultMaxSteps
	}
	res, err := b.inner.Solve(ctx, page, inv)
	if err != nil {
		return nil, err
	}
	if res.Steps > inv.MaxSteps {
		return nil, fmt.Errorf("%w: used %d of %d", ErrBudgetExhausted, res.Steps, inv.MaxSteps)
	}
	return res, nil
}
