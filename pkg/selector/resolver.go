// Package selector resolves recorded locators against a live document.
//
// Resolution tries an ordered list of locator strategies until one yields a
// usable target: recorded locators in ascending priority order, then a small
// set of generated fallbacks. Each strategy is retried on a fixed polling
// interval up to a bounded ceiling, so elements that appear asynchronously
// still resolve without speculative waits.
package selector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/entrhq/replay/pkg/dom"
)

// Defaults for the resolver's polling loop. The strategy timeout matches the
// per-action ceiling used at recording time.
const (
	DefaultStrategyTimeout = 1000 * time.Millisecond
	DefaultPollInterval    = 100 * time.Millisecond
)

// Config holds the resolver tunables. The zero value selects the defaults.
type Config struct {
	// StrategyTimeout bounds how long one strategy is polled before the
	// next is attempted.
	StrategyTimeout time.Duration

	// PollInterval is the fixed delay between attempts of one strategy.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.StrategyTimeout <= 0 {
		c.StrategyTimeout = DefaultStrategyTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Purpose selects the constraint family applied to candidate elements.
type Purpose int

const (
	// PurposeInteraction requires candidates to be attached, visible, have
	// a non-zero layout box, and be enabled for input.
	PurposeInteraction Purpose = iota

	// PurposeExtraction requires only DOM presence. Collapsed or hidden
	// content is still extractable; expanding it first is the workflow
	// author's responsibility via an explicit interaction step.
	PurposeExtraction
)

// Constraints qualifies candidate elements and steers fallback generation.
type Constraints struct {
	Purpose Purpose

	// Hints feeds interaction fallback generation; zero-valued hints
	// generate nothing.
	Hints Hints

	// FieldName feeds name-derived fallback selectors for extraction
	// fields.
	FieldName string

	// ExpectMultiple marks resolutions where several matches are the
	// normal outcome, such as multi-record extraction containers. It
	// suppresses the ambiguity warning on the winning strategy.
	ExpectMultiple bool
}

// Outcome describes a successful resolution.
type Outcome struct {
	// Strategy is the locator that produced the match.
	Strategy Locator

	// Elements holds every qualifying match, in document order.
	Elements []dom.Element

	// Elapsed is the total resolution time across all attempted
	// strategies.
	Elapsed time.Duration

	// Ambiguous is set when the winning strategy matched more than one
	// element for what is normally a single-target step. The first match
	// in document order is used; this is a warning, not an error.
	Ambiguous bool
}

// First returns the first qualifying element.
func (o *Outcome) First() dom.Element {
	if len(o.Elements) == 0 {
		return nil
	}
	return o.Elements[0]
}

// Resolver finds live elements for recorded locator lists.
type Resolver struct {
	cfg Config
	log *zap.Logger
}

// New creates a Resolver. A nil logger disables logging.
func New(cfg Config, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cfg: cfg.withDefaults(), log: log.Named("resolver")}
}

// Resolve tries each locator in ascending priority order, then generated
// fallbacks, and returns the first strategy producing at least one
// qualifying match. Later strategies are never attempted after a win. When
// every strategy fails within its timeout the error wraps ErrExhausted.
func (r *Resolver) Resolve(ctx context.Context, scope dom.Scope, locs []Locator, c Constraints) (*Outcome, error) {
	ordered := orderLocators(locs)
	base := 0
	for _, l := range ordered {
		if l.Priority >= base {
			base = l.Priority + 1
		}
	}
	switch c.Purpose {
	case PurposeInteraction:
		ordered = append(ordered, InteractionFallbacks(c.Hints, base)...)
	case PurposeExtraction:
		if c.FieldName != "" {
			ordered = append(ordered, FieldNameFallbacks(c.FieldName, base)...)
		}
	}

	start := time.Now()
	var lastErr error
	for _, loc := range ordered {
		els, err := r.tryStrategy(ctx, scope, loc, c)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidExpression):
				// A malformed recorded locator disqualifies itself, not
				// the step.
				r.log.Warn("skipping invalid locator",
					zap.String("locator", loc.String()),
					zap.Error(err))
			case errors.Is(err, ErrTimeout):
				r.log.Debug("strategy produced no qualifying match",
					zap.String("locator", loc.String()),
					zap.Error(err))
				lastErr = err
			default:
				return nil, err
			}
			continue
		}
		out := &Outcome{
			Strategy:  loc,
			Elements:  els,
			Elapsed:   time.Since(start),
			Ambiguous: len(els) > 1 && !c.ExpectMultiple,
		}
		if out.Ambiguous {
			r.log.Warn("ambiguous match, using first in document order",
				zap.String("locator", loc.String()),
				zap.Int("matches", len(els)))
		}
		r.log.Debug("resolved",
			zap.String("locator", loc.String()),
			zap.Bool("generated", loc.Generated()),
			zap.Duration("elapsed", out.Elapsed))
		return out, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no qualifying element after %d strategies in %s: %w (last strategy: %w)",
			len(ordered), time.Since(start).Round(time.Millisecond), ErrExhausted, lastErr)
	}
	return nil, fmt.Errorf("no qualifying element after %d strategies in %s: %w",
		len(ordered), time.Since(start).Round(time.Millisecond), ErrExhausted)
}

// tryStrategy polls one locator until it yields a qualifying match or its
// timeout elapses. A timed-out strategy returns an error wrapping ErrTimeout
// plus the reason nothing qualified: ErrNoMatch when the expression never
// matched, ErrNotInteractable when it matched only unqualified candidates.
func (r *Resolver) tryStrategy(ctx context.Context, scope dom.Scope, loc Locator, c Constraints) ([]dom.Element, error) {
	deadline := time.Now().Add(r.cfg.StrategyTimeout)
	matched := false
	for {
		els, err := r.query(scope, loc)
		if err != nil {
			return nil, err
		}
		if len(els) > 0 {
			matched = true
		}
		qualified, err := r.filter(els, c)
		if err != nil {
			return nil, err
		}
		if len(qualified) > 0 {
			return qualified, nil
		}
		if !time.Now().Before(deadline) {
			reason := ErrNoMatch
			if matched {
				reason = ErrNotInteractable
			}
			return nil, fmt.Errorf("%w within %s: %w", reason, r.cfg.StrategyTimeout, ErrTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

func (r *Resolver) query(scope dom.Scope, loc Locator) ([]dom.Element, error) {
	switch loc.Kind {
	case KindCSS:
		els, err := scope.QueryAll(loc.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err, ErrInvalidExpression)
		}
		return els, nil
	case KindXPath:
		v, err := EvaluateXPath(scope, loc.Value)
		if err != nil {
			return nil, err
		}
		if v.Mode != ModeElement {
			// Value-form expressions cannot produce an element target;
			// resolve their element ancestor instead.
			v, err = EvaluateXPath(scope, ElementPart(loc.Value))
			if err != nil {
				return nil, err
			}
		}
		return v.Elements, nil
	default:
		return nil, fmt.Errorf("unknown locator kind %q: %w", loc.Kind, ErrInvalidExpression)
	}
}

// filter drops candidates that fail the purpose's constraints.
func (r *Resolver) filter(els []dom.Element, c Constraints) ([]dom.Element, error) {
	if c.Purpose == PurposeExtraction {
		return els, nil
	}
	var out []dom.Element
	for _, el := range els {
		ok, err := interactable(el)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, el)
		}
	}
	return out, nil
}

// interactable reports whether el can receive pointer and keyboard events:
// visible, non-zero layout box, and enabled.
func interactable(el dom.Element) (bool, error) {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false, err
	}
	w, h, err := el.BoundingBox()
	if err != nil || w <= 0 || h <= 0 {
		return false, err
	}
	enabled, err := el.Enabled()
	if err != nil || !enabled {
		return false, err
	}
	return true, nil
}
