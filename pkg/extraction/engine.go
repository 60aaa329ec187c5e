package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/entrhq/replay/pkg/dom"
	"github.com/entrhq/replay/pkg/selector"
)

// ErrContainerNotFound is returned when the plan's container locator matches
// nothing. A missing container is fatal for the step; a present container
// with unresolved fields is not.
var ErrContainerNotFound = errors.New("extraction container not found")

// Engine evaluates extraction plans against a page.
type Engine struct {
	resolver *selector.Resolver
	log      *zap.Logger
}

// NewEngine creates an Engine on top of a resolver. A nil logger disables
// logging.
func NewEngine(r *selector.Resolver, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{resolver: r, log: log.Named("extraction")}
}

// Extract resolves the plan's container, then each field relative to every
// matched container, and returns one record per container in document order.
// Extraction never mutates the document: running the same plan twice against
// an unchanged page yields identical records.
func (e *Engine) Extract(ctx context.Context, page dom.Page, plan *Plan) ([]Record, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction plan: %w", err)
	}

	containers, err := e.findContainers(ctx, page, plan)
	if err != nil {
		return nil, err
	}
	if !plan.Multiple && len(containers) > 1 {
		containers = containers[:1]
	}

	pageURL := page.URL()
	records := make([]Record, 0, len(containers))
	for _, container := range containers {
		excluded, err := e.excludedElements(container, plan)
		if err != nil {
			return nil, err
		}
		rec := make(Record, len(plan.Fields))
		for _, f := range plan.Fields {
			v, err := e.extractField(ctx, container, f, excluded, pageURL)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			rec[f.Name] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

// findContainers resolves the container locator. XPath is preferred over CSS
// when the plan carries both.
func (e *Engine) findContainers(ctx context.Context, page dom.Page, plan *Plan) ([]dom.Element, error) {
	var locs []selector.Locator
	if plan.ContainerXPath != "" {
		locs = append(locs, selector.Locator{Kind: selector.KindXPath, Value: plan.ContainerXPath, Priority: 1})
	}
	if plan.ContainerSelector != "" {
		locs = append(locs, selector.Locator{Kind: selector.KindCSS, Value: plan.ContainerSelector, Priority: 2})
	}
	out, err := e.resolver.Resolve(ctx, page, locs, selector.Constraints{
		Purpose: selector.PurposeExtraction,
		// Several containers are the expected shape of a multi-record
		// plan, not an ambiguous match.
		ExpectMultiple: plan.Multiple,
	})
	if err != nil {
		if errors.Is(err, selector.ErrExhausted) {
			return nil, fmt.Errorf("%w (%s %s)", ErrContainerNotFound,
				plan.ContainerXPath, plan.ContainerSelector)
		}
		return nil, err
	}
	return out.Elements, nil
}

// excludedElements collects every element matched by the plan's exclusion
// locators within one container. Absolute XPath prefixes are rewritten to
// stay inside the container subtree.
func (e *Engine) excludedElements(container dom.Element, plan *Plan) ([]dom.Element, error) {
	var out []dom.Element
	for _, expr := range plan.ExcludeXPaths {
		rel := selector.ScopeRelative(selector.ElementPart(expr))
		v, err := selector.EvaluateXPath(container, rel)
		if err != nil {
			e.log.Warn("skipping invalid exclusion xpath",
				zap.String("xpath", expr), zap.Error(err))
			continue
		}
		out = append(out, v.Elements...)
	}
	for _, sel := range plan.ExcludeSelectors {
		els, err := container.QueryAll(sel)
		if err != nil {
			e.log.Warn("skipping invalid exclusion selector",
				zap.String("selector", sel), zap.Error(err))
			continue
		}
		out = append(out, els...)
	}
	return out, nil
}

// extractField resolves one field relative to its container and coerces the
// match per the field's kind. A field that resolves nowhere, or only inside
// an excluded subtree, yields nil rather than an error.
func (e *Engine) extractField(ctx context.Context, container dom.Element, f Field, excluded []dom.Element, pageURL string) (any, error) {
	// Value-form XPath (trailing text() or @attr) short-circuits element
	// coercion: the expression itself names the value to read.
	if f.XPath != "" {
		mode, _, err := selector.ClassifyXPath(f.XPath)
		if err == nil && mode != selector.ModeElement {
			return e.extractXPathValue(container, f, excluded)
		}
	}

	el, err := e.resolveFieldElement(ctx, container, f)
	if err != nil {
		return nil, err
	}
	if el == nil {
		e.log.Debug("field did not resolve", zap.String("field", f.Name))
		return nil, nil
	}
	inExcluded, err := withinAny(el, excluded)
	if err != nil {
		return nil, err
	}
	if inExcluded {
		return nil, nil
	}
	return coerce(el, f, pageURL)
}

// extractXPathValue evaluates a text() or @attr expression relative to the
// container. Exclusion is checked against the value's element ancestor.
func (e *Engine) extractXPathValue(container dom.Element, f Field, excluded []dom.Element) (any, error) {
	rel := selector.ScopeRelative(f.XPath)
	if len(excluded) > 0 {
		anc, err := selector.EvaluateXPath(container, selector.ElementPart(rel))
		if err != nil {
			return nil, err
		}
		if len(anc.Elements) > 0 {
			inExcluded, err := withinAny(anc.Elements[0], excluded)
			if err != nil {
				return nil, err
			}
			if inExcluded {
				return nil, nil
			}
		}
	}
	v, err := selector.EvaluateXPath(container, rel)
	if err != nil {
		return nil, err
	}
	if !v.Found {
		return nil, nil
	}
	return strings.TrimSpace(v.Value), nil
}

// resolveFieldElement tries the field's XPath, then its CSS selector, then
// selectors derived from the field name. A nil element with nil error means
// the field is simply absent.
func (e *Engine) resolveFieldElement(ctx context.Context, container dom.Element, f Field) (dom.Element, error) {
	var locs []selector.Locator
	if f.XPath != "" {
		locs = append(locs, selector.Locator{
			Kind:     selector.KindXPath,
			Value:    selector.ScopeRelative(f.XPath),
			Priority: 1,
		})
	}
	if f.Selector != "" {
		locs = append(locs, selector.Locator{
			Kind:     selector.KindCSS,
			Value:    f.Selector,
			Priority: 2,
		})
	}
	out, err := e.resolver.Resolve(ctx, container, locs, selector.Constraints{
		Purpose:   selector.PurposeExtraction,
		FieldName: f.Name,
	})
	if err != nil {
		if errors.Is(err, selector.ErrExhausted) {
			return nil, nil
		}
		return nil, err
	}
	return out.First(), nil
}

// coerce reads the field's value from its resolved element.
func coerce(el dom.Element, f Field, pageURL string) (any, error) {
	switch f.kind() {
	case KindText:
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(text), nil
	case KindAttribute:
		return attrOrNil(el, f.Attribute)
	case KindHref:
		return urlAttr(el, "href", pageURL)
	case KindSrc:
		return urlAttr(el, "src", pageURL)
	default:
		return nil, fmt.Errorf("unknown field type %q", f.Kind)
	}
}

func attrOrNil(el dom.Element, name string) (any, error) {
	v, present, err := el.Attribute(name)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return v, nil
}

// urlAttr reads a URL-valued attribute and resolves it against the page's
// base URL. An unparseable value passes through as recorded.
func urlAttr(el dom.Element, name, pageURL string) (any, error) {
	raw, present, err := el.Attribute(name)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return raw, nil
	}
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw, nil
	}
	return base.ResolveReference(ref).String(), nil
}

// withinAny reports whether el is one of, or a descendant of, the given
// elements.
func withinAny(el dom.Element, excluded []dom.Element) (bool, error) {
	for _, ex := range excluded {
		ok, err := ex.Contains(el)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
