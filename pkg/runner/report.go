package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Report is the persisted artifact of one run: per-step outcomes, warnings,
// and the named extraction results in step declaration order.
type Report struct {
	RunID      string        `json:"runId"`
	Workflow   string        `json:"workflow"`
	State      RunState      `json:"state"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Steps      []StepOutcome `json:"steps"`
	Outputs    []Output      `json:"outputs,omitempty"`
}

func newReport(workflowName string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Workflow:  workflowName,
		State:     RunRunning,
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) finish(state RunState) {
	r.State = state
	r.FinishedAt = time.Now().UTC()
}

// WriteFile persists the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
