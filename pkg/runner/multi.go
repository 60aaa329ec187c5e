package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/replay/pkg/dom"
	"github.com/entrhq/replay/pkg/workflow"
)

// PageProvider yields an isolated page for one run, plus a release function
// invoked when the run finishes.
type PageProvider func(ctx context.Context, run int) (dom.Page, func(), error)

// RunAll executes the workflow once per input set, concurrently, each run
// against its own page. Runs are independent: an aborted run never cancels
// its siblings, which finish on their own against the caller's context.
//
// The returned slice holds one report per input set, indexed like inputSets;
// a slot is nil when its page could not be provided. The error, if any, is
// the first run failure, returned only after every run has finished.
func (e *Executor) RunAll(ctx context.Context, provider PageProvider, def *workflow.Definition, inputSets []map[string]any) ([]*Report, error) {
	var g errgroup.Group
	reports := make([]*Report, len(inputSets))
	for i, inputs := range inputSets {
		g.Go(func() error {
			page, release, err := provider(ctx, i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			defer release()

			report, runErr := e.Run(ctx, page, def, inputs)
			reports[i] = report
			if runErr != nil {
				return fmt.Errorf("run %d: %w", i, runErr)
			}
			return nil
		})
	}
	return reports, g.Wait()
}
