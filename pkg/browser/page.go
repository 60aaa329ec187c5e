package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/replay/pkg/dom"
)

// JS snippets backing the XPath and containment operations Playwright has no
// direct API for.
const (
	pageXPathFirstJS = `(expr) => {
		const r = document.evaluate(expr, document, null, XPathResult.ORDERED_NODE_ITERATOR_TYPE, null);
		const n = r.iterateNext();
		return n === null ? null : n.nodeValue;
	}`
	elementXPathFirstJS = `(el, expr) => {
		const r = document.evaluate(expr, el, null, XPathResult.ORDERED_NODE_ITERATOR_TYPE, null);
		const n = r.iterateNext();
		return n === null ? null : n.nodeValue;
	}`
	pageXPathAttrJS = `(arg) => {
		const r = document.evaluate(arg.expr, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		const n = r.singleNodeValue;
		return n === null ? null : n.getAttribute(arg.name);
	}`
	elementXPathAttrJS = `(el, arg) => {
		const r = document.evaluate(arg.expr, el, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		const n = r.singleNodeValue;
		return n === null ? null : n.getAttribute(arg.name);
	}`
	containsJS  = `(el, other) => el === other || el.contains(other)`
	tagNameJS   = `(el) => el.tagName.toLowerCase()`
	attributeJS = `(el, name) => el.getAttribute(name)`
	scrollByJS  = `(arg) => window.scrollBy(arg.x, arg.y)`
)

var xpathAttrTailRe = regexp.MustCompile(`/@([A-Za-z_][-\w:.]*)$`)

// splitAttrTail detects an attribute-valued expression. Evaluating the @attr
// tail directly would iterate only existing attribute nodes and silently skip
// past a first-matched element that lacks the attribute; the caller instead
// evaluates the element part and reads the attribute off the first match.
func splitAttrTail(expr string) (base, name string, ok bool) {
	m := xpathAttrTailRe.FindStringSubmatch(expr)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSuffix(expr, m[0]), m[1], true
}

// Page adapts a Playwright page to dom.Page.
type Page struct {
	pw      playwright.Page
	session *Session
	guard   *NavigationGuard
}

// NewPage wraps the session's page. The guard may be nil.
func NewPage(s *Session, guard *NavigationGuard) *Page {
	return &Page{pw: s.Page, session: s, guard: guard}
}

// DOM returns the session's page adapted to the engine's interfaces.
func (s *Session) DOM(guard *NavigationGuard) *Page {
	return NewPage(s, guard)
}

func (p *Page) touch() {
	if p.session != nil {
		p.session.UpdateLastUsed()
	}
}

func (p *Page) URL() string { return p.pw.URL() }

// Navigate loads url and waits for the load state. The guard is consulted
// before any network activity.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.touch()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.guard.Allow(url); err != nil {
		return err
	}
	_, err := p.pw.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Scroll scrolls the page by the given pixel offsets.
func (p *Page) Scroll(ctx context.Context, x, y int) error {
	p.touch()
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.pw.Evaluate(scrollByJS, map[string]any{"x": x, "y": y})
	if err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// Content returns the page's full HTML.
func (p *Page) Content() (string, error) {
	p.touch()
	return p.pw.Content()
}

func (p *Page) Query(selector string) (dom.Element, error) {
	p.touch()
	h, err := p.pw.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return &element{h: h}, nil
}

func (p *Page) QueryAll(selector string) ([]dom.Element, error) {
	p.touch()
	hs, err := p.pw.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	return wrapHandles(hs), nil
}

func (p *Page) XPathAll(expr string) ([]dom.Element, error) {
	p.touch()
	hs, err := p.pw.QuerySelectorAll("xpath=" + expr)
	if err != nil {
		return nil, err
	}
	return wrapHandles(hs), nil
}

func (p *Page) XPathFirst(expr string) (string, bool, error) {
	p.touch()
	if base, name, ok := splitAttrTail(expr); ok {
		res, err := p.pw.Evaluate(pageXPathAttrJS, map[string]any{"expr": base, "name": name})
		if err != nil {
			return "", false, err
		}
		return stringResult(res)
	}
	res, err := p.pw.Evaluate(pageXPathFirstJS, expr)
	if err != nil {
		return "", false, err
	}
	return stringResult(res)
}

// element adapts a Playwright element handle to dom.Element. Handles are
// valid only for the lifetime of the current step.
type element struct {
	h playwright.ElementHandle
}

func wrapHandles(hs []playwright.ElementHandle) []dom.Element {
	out := make([]dom.Element, 0, len(hs))
	for _, h := range hs {
		out = append(out, &element{h: h})
	}
	return out
}

func stringResult(res any) (string, bool, error) {
	if res == nil {
		return "", false, nil
	}
	s, ok := res.(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected evaluation result type %T", res)
	}
	return strings.TrimSpace(s), true, nil
}

func (e *element) Query(selector string) (dom.Element, error) {
	h, err := e.h.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return &element{h: h}, nil
}

func (e *element) QueryAll(selector string) ([]dom.Element, error) {
	hs, err := e.h.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	return wrapHandles(hs), nil
}

func (e *element) XPathAll(expr string) ([]dom.Element, error) {
	hs, err := e.h.QuerySelectorAll("xpath=" + expr)
	if err != nil {
		return nil, err
	}
	return wrapHandles(hs), nil
}

func (e *element) XPathFirst(expr string) (string, bool, error) {
	if base, name, ok := splitAttrTail(expr); ok {
		res, err := e.h.Evaluate(elementXPathAttrJS, map[string]any{"expr": base, "name": name})
		if err != nil {
			return "", false, err
		}
		return stringResult(res)
	}
	res, err := e.h.Evaluate(elementXPathFirstJS, expr)
	if err != nil {
		return "", false, err
	}
	return stringResult(res)
}

func (e *element) Tag() (string, error) {
	res, err := e.h.Evaluate(tagNameJS)
	if err != nil {
		return "", err
	}
	s, _, err := stringResult(res)
	return s, err
}

func (e *element) Text() (string, error) {
	text, err := e.h.TextContent()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *element) Attribute(name string) (string, bool, error) {
	// getAttribute distinguishes a missing attribute (null) from an empty
	// one, which the Playwright convenience accessor does not.
	res, err := e.h.Evaluate(attributeJS, name)
	if err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	s, ok := res.(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected attribute result type %T", res)
	}
	return s, true, nil
}

func (e *element) BoundingBox() (float64, float64, error) {
	box, err := e.h.BoundingBox()
	if err != nil {
		return 0, 0, err
	}
	if box == nil {
		return 0, 0, nil
	}
	return box.Width, box.Height, nil
}

func (e *element) Visible() (bool, error) { return e.h.IsVisible() }
func (e *element) Enabled() (bool, error) { return e.h.IsEnabled() }

func (e *element) Contains(other dom.Element) (bool, error) {
	o, ok := other.(*element)
	if !ok {
		return false, fmt.Errorf("cannot compare elements from different backends")
	}
	res, err := e.h.Evaluate(containsJS, o.h)
	if err != nil {
		return false, err
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected containment result type %T", res)
	}
	return b, nil
}

func (e *element) Click() error            { return e.h.Click() }
func (e *element) Fill(value string) error { return e.h.Fill(value) }
func (e *element) Press(key string) error  { return e.h.Press(key) }

func (e *element) SelectLabel(label string) error {
	_, err := e.h.SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{label},
	})
	if err != nil {
		return fmt.Errorf("failed to select option %q: %w", label, err)
	}
	return nil
}
