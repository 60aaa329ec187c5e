package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/entrhq/replay/pkg/agent"
	"github.com/entrhq/replay/pkg/dom"
	"github.com/entrhq/replay/pkg/extraction"
	"github.com/entrhq/replay/pkg/selector"
	"github.com/entrhq/replay/pkg/workflow"
)

// ContentExtractor is the external content-understanding collaborator behind
// extract_page_content steps. It receives the page HTML and an extraction
// goal and returns a structured result.
type ContentExtractor interface {
	ExtractContent(ctx context.Context, html, goal string) (any, error)
}

// Config holds the executor tunables.
type Config struct {
	// Resolver configures the selector resolution polling loop.
	Resolver selector.Config

	// AgentMaxSteps is the step budget for fallback agent invocations.
	// Zero selects agent.DefaultMaxSteps.
	AgentMaxSteps int
}

// Executor runs workflow definitions against a page. Steps execute strictly
// in declaration order; exactly one step is in flight at a time because each
// step's precondition is the DOM state its predecessor left behind.
type Executor struct {
	resolver *selector.Resolver
	engine   *extraction.Engine
	fallback agent.Agent
	content  ContentExtractor
	cfg      Config
	log      *zap.Logger
}

// NewExecutor creates an Executor. The fallback agent and content extractor
// are optional; without a fallback agent, exhausted interaction steps fail
// directly, and without a content extractor, extract_page_content steps fail.
// A nil logger disables logging.
func NewExecutor(cfg Config, fallback agent.Agent, content ContentExtractor, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if fallback != nil {
		fallback = agent.Budgeted(fallback)
	}
	resolver := selector.New(cfg.Resolver, log)
	return &Executor{
		resolver: resolver,
		engine:   extraction.NewEngine(resolver, log),
		fallback: fallback,
		content:  content,
		cfg:      cfg,
		log:      log.Named("runner"),
	}
}

// Run executes the workflow against the given page with the bound inputs.
// The returned report is populated even when the run aborts; extraction
// records committed before the failure remain in it.
func (e *Executor) Run(ctx context.Context, page dom.Page, def *workflow.Definition, inputs map[string]any) (*Report, error) {
	report := newReport(def.Name)
	if err := def.ValidateInputs(inputs); err != nil {
		report.finish(RunAborted)
		return report, fmt.Errorf("invalid inputs for workflow %q: %w", def.Name, err)
	}
	rc := NewRunContext(inputs)

	for i, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			report.finish(RunAborted)
			return report, err
		}
		out := StepOutcome{
			Index:       i,
			Type:        step.Type(),
			Description: step.Meta().Description,
			Optional:    step.Meta().Optional,
			State:       StepPending,
		}
		start := time.Now()
		stepErr := e.runStep(ctx, page, step, i, rc, report, &out)
		out.Elapsed = time.Since(start)

		if stepErr != nil {
			out.State = StepFailed
			out.Error = stepErr.Error()
			report.Steps = append(report.Steps, out)
			if ctx.Err() != nil {
				report.finish(RunAborted)
				return report, stepErr
			}
			if out.Optional {
				e.log.Warn("optional step failed, continuing",
					zap.Int("step", i),
					zap.String("type", step.Type()),
					zap.Error(stepErr))
				continue
			}
			report.finish(RunAborted)
			return report, fmt.Errorf("step %d (%s): %w", i, step.Type(), stepErr)
		}

		out.State = StepSucceeded
		report.Steps = append(report.Steps, out)
		e.log.Info("step succeeded",
			zap.Int("step", i),
			zap.String("type", step.Type()),
			zap.String("strategy", out.Strategy),
			zap.Bool("fallback", out.FallbackInvoked),
			zap.Duration("elapsed", out.Elapsed))
	}

	report.finish(RunCompleted)
	return report, nil
}

// runStep substitutes, dispatches, and, for exhausted interaction steps,
// escalates to the fallback agent. A nil return means the step succeeded.
func (e *Executor) runStep(ctx context.Context, page dom.Page, step workflow.Step, idx int, rc *RunContext, report *Report, out *StepOutcome) error {
	sub, err := workflow.SubstituteStep(step, rc.Vars())
	if err != nil {
		// Configuration error: reported before any page action is attempted.
		return err
	}
	out.State = StepResolving

	execErr, recoverable := e.execute(ctx, page, sub, idx, rc, report, out)
	if execErr == nil {
		return nil
	}
	if !recoverable || e.fallback == nil {
		return execErr
	}

	out.State = StepFallbackInvoked
	out.FallbackInvoked = true
	task := synthesizeTask(sub)
	e.log.Info("deterministic resolution exhausted, invoking fallback agent",
		zap.Int("step", idx),
		zap.String("task", task))
	res, agentErr := e.fallback.Solve(ctx, page, agent.Invocation{
		Task:     task,
		MaxSteps: e.cfg.AgentMaxSteps,
	})
	if agentErr != nil {
		return fmt.Errorf("%w: %v (after %v)", ErrAgentFallbackExhausted, agentErr, execErr)
	}
	if !res.Succeeded {
		return fmt.Errorf("%w: %s (after %v)", ErrAgentFallbackExhausted, res.Notes, execErr)
	}
	return nil
}

// execute dispatches one substituted step. The boolean reports whether the
// failure is recoverable via the fallback agent; only exhausted deterministic
// resolution of an interaction step qualifies.
func (e *Executor) execute(ctx context.Context, page dom.Page, step workflow.Step, idx int, rc *RunContext, report *Report, out *StepOutcome) (error, bool) {
	switch v := step.(type) {
	case *workflow.NavigationStep:
		if err := page.Navigate(ctx, v.URL); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrNavigationFailed, v.URL, err), false
		}
		return nil, false

	case *workflow.ClickStep:
		el, err := e.resolveTarget(ctx, page, v.Target, v.Hints(), out)
		if err != nil {
			return err, errors.Is(err, selector.ErrExhausted)
		}
		return el.Click(), false

	case *workflow.InputStep:
		el, err := e.resolveTarget(ctx, page, v.Target, v.Hints(), out)
		if err != nil {
			return err, errors.Is(err, selector.ErrExhausted)
		}
		tag, err := el.Tag()
		if err != nil {
			return err, false
		}
		if tag == "select" {
			// Option elements are chosen with select_dropdown steps; typing
			// into the select would clobber the recorded choice.
			out.Warnings = append(out.Warnings, "target is a select element, input skipped")
			return nil, false
		}
		return el.Fill(v.Value), false

	case *workflow.KeyPressStep:
		el, err := e.resolveTarget(ctx, page, v.Target, v.Hints(), out)
		if err != nil {
			return err, errors.Is(err, selector.ErrExhausted)
		}
		return el.Press(v.Key), false

	case *workflow.ScrollStep:
		return page.Scroll(ctx, v.ScrollX, v.ScrollY), false

	case *workflow.SelectDropdownStep:
		el, err := e.resolveTarget(ctx, page, v.Target, v.Hints(), out)
		if err != nil {
			return err, errors.Is(err, selector.ErrExhausted)
		}
		return el.SelectLabel(v.SelectedText), false

	case *workflow.AgentStep:
		if e.fallback == nil {
			return fmt.Errorf("agent step requires a configured agent"), false
		}
		res, err := e.fallback.Solve(ctx, page, agent.Invocation{
			Task:     v.Task,
			MaxSteps: v.MaxSteps,
		})
		if err != nil {
			return err, false
		}
		if !res.Succeeded {
			return fmt.Errorf("agent did not complete task: %s", res.Notes), false
		}
		return nil, false

	case *workflow.ExtractDomContentStep:
		records, err := e.engine.Extract(ctx, page, &v.Plan)
		if err != nil {
			return err, false
		}
		e.storeOutput(rc, report, outputName(v.Output, idx), records)
		return nil, false

	case *workflow.ExtractPageContentStep:
		if e.content == nil {
			return fmt.Errorf("extract_page_content step requires a content extractor"), false
		}
		html, err := page.Content()
		if err != nil {
			return err, false
		}
		result, err := e.content.ExtractContent(ctx, html, v.Goal)
		if err != nil {
			return err, false
		}
		e.storeOutput(rc, report, outputName(v.Output, idx), result)
		return nil, false

	default:
		return fmt.Errorf("unknown step variant %T", step), false
	}
}

// resolveTarget resolves an interaction step's element and records the
// winning strategy and any ambiguity warning in the step outcome.
func (e *Executor) resolveTarget(ctx context.Context, page dom.Page, t workflow.Target, hints selector.Hints, out *StepOutcome) (dom.Element, error) {
	res, err := e.resolver.Resolve(ctx, page, t.ResolvedLocators(), selector.Constraints{
		Purpose: selector.PurposeInteraction,
		Hints:   hints,
	})
	if err != nil {
		return nil, err
	}
	out.Strategy = res.Strategy.String()
	if res.Ambiguous {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("ambiguous match for %s, used first of %d", res.Strategy.String(), len(res.Elements)))
	}
	return res.First(), nil
}

func (e *Executor) storeOutput(rc *RunContext, report *Report, name string, value any) {
	rc.Set(name, value)
	report.Outputs = append(report.Outputs, Output{Name: name, Value: value})
}

func outputName(declared string, idx int) string {
	if declared != "" {
		return declared
	}
	return fmt.Sprintf("step_%d_output", idx)
}

// synthesizeTask builds the natural-language task handed to the fallback
// agent from the step's description and its relevant parameters.
func synthesizeTask(step workflow.Step) string {
	var b strings.Builder
	desc := step.Meta().Description

	switch v := step.(type) {
	case *workflow.ClickStep:
		if desc != "" {
			b.WriteString(desc)
		} else {
			b.WriteString("Click the element")
		}
		writeTargetDetail(&b, v.Target, v.StepMeta)
	case *workflow.InputStep:
		if desc != "" {
			b.WriteString(desc)
		} else {
			b.WriteString("Enter text into the element")
		}
		fmt.Fprintf(&b, ". Text to enter: %q", v.Value)
		writeTargetDetail(&b, v.Target, v.StepMeta)
	case *workflow.KeyPressStep:
		if desc != "" {
			b.WriteString(desc)
		} else {
			b.WriteString("Press a key on the element")
		}
		fmt.Fprintf(&b, ". Key: %q", v.Key)
		writeTargetDetail(&b, v.Target, v.StepMeta)
	case *workflow.SelectDropdownStep:
		if desc != "" {
			b.WriteString(desc)
		} else {
			b.WriteString("Choose a dropdown option")
		}
		fmt.Fprintf(&b, ". Option label: %q", v.SelectedText)
		writeTargetDetail(&b, v.Target, v.StepMeta)
	default:
		if desc != "" {
			b.WriteString(desc)
		} else {
			fmt.Fprintf(&b, "Complete the recorded %s step", step.Type())
		}
	}
	return b.String()
}

func writeTargetDetail(b *strings.Builder, t workflow.Target, m workflow.StepMeta) {
	if m.ElementText != "" {
		fmt.Fprintf(b, ". The element's recorded text was %q", m.ElementText)
	}
	if m.ElementTag != "" {
		fmt.Fprintf(b, ". The element was a <%s>", strings.ToLower(m.ElementTag))
	}
	if t.CSSSelector != "" {
		fmt.Fprintf(b, ". Recorded CSS selector (may be stale): %s", t.CSSSelector)
	}
	if t.XPath != "" {
		fmt.Fprintf(b, ". Recorded XPath (may be stale): %s", t.XPath)
	}
}
