// Package refiner turns a natural-language extraction rule plus an HTML
// sample into a concrete extraction plan. The replay engine consumes the
// produced plan as-is; it never calls the refiner from inside resolution.
package refiner

import (
	"context"

	"github.com/entrhq/replay/pkg/extraction"
)

// Request describes one refinement: a page sample, the user's rule, and
// whether the rule targets repeated records.
type Request struct {
	// HTMLSample is raw page HTML the plan will be derived from. It is
	// cleaned and token-capped before reaching the model.
	HTMLSample string

	// Rule is the natural-language description of what to extract.
	Rule string

	// Multiple marks rules that should yield one record per repeated
	// container.
	Multiple bool
}

// Refiner produces an extraction plan from a request.
type Refiner interface {
	Refine(ctx context.Context, req Request) (*extraction.Plan, error)
}
