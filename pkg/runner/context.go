// Package runner drives a workflow run: it substitutes variables into each
// step, dispatches steps against a page, classifies outcomes, and escalates
// exhausted interaction steps to the fallback agent.
package runner

// RunContext holds the mutable variable bindings of one workflow run: the
// bound input-schema values plus accumulated step outputs. Each run owns its
// own context; nothing is shared across concurrent runs.
type RunContext struct {
	vars map[string]any
}

// NewRunContext seeds a context with the run's bound input values.
func NewRunContext(inputs map[string]any) *RunContext {
	vars := make(map[string]any, len(inputs))
	for k, v := range inputs {
		vars[k] = v
	}
	return &RunContext{vars: vars}
}

// Set binds a step output, making it available to later steps' templates.
func (rc *RunContext) Set(name string, value any) {
	rc.vars[name] = value
}

// Get returns a bound value.
func (rc *RunContext) Get(name string) (any, bool) {
	v, ok := rc.vars[name]
	return v, ok
}

// Vars returns a copy of the current bindings for template substitution.
func (rc *RunContext) Vars() map[string]any {
	out := make(map[string]any, len(rc.vars))
	for k, v := range rc.vars {
		out[k] = v
	}
	return out
}
