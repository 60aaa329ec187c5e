package runner

import (
	"errors"
	"time"
)

// Step-fatal error conditions surfaced by the executor.
var (
	// ErrNavigationFailed marks a navigation step whose target was
	// unreachable.
	ErrNavigationFailed = errors.New("navigation failed")

	// ErrAgentFallbackExhausted marks an interaction step whose fallback
	// agent invocation failed or ran out of budget.
	ErrAgentFallbackExhausted = errors.New("agent fallback exhausted")
)

// StepState is the per-step state machine. Every step starts Pending and
// reaches exactly one of Succeeded or Failed.
type StepState string

const (
	StepPending         StepState = "pending"
	StepResolving       StepState = "resolving"
	StepFallbackInvoked StepState = "fallback_invoked"
	StepSucceeded       StepState = "succeeded"
	StepFailed          StepState = "failed"
)

// RunState is the workflow-level state.
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunAborted   RunState = "aborted"
)

// StepOutcome records how one step finished, for the run report.
type StepOutcome struct {
	Index       int       `json:"index"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	State       StepState `json:"state"`
	Optional    bool      `json:"optional,omitempty"`

	// Strategy names the locator that resolved the step's target, when it
	// resolved deterministically.
	Strategy string `json:"strategy,omitempty"`

	// FallbackInvoked reports whether the agent was called for this step.
	FallbackInvoked bool `json:"fallbackInvoked,omitempty"`

	// Warnings holds non-fatal findings, such as ambiguous matches.
	Warnings []string `json:"warnings,omitempty"`

	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsedNs,omitempty"`
}

// Output is one named extraction result, kept in step declaration order.
type Output struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}
