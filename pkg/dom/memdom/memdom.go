// Package memdom implements pkg/dom over an in-memory HTML document.
//
// It backs offline validation of extraction plans against recorded HTML
// samples, and the engine's unit tests, where launching a browser would be
// wasteful. CSS selectors are evaluated with cascadia and XPath expressions
// with antchfx/htmlquery, both operating on golang.org/x/net/html node trees.
package memdom

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/entrhq/replay/pkg/dom"
)

// Event records a page mutation performed through the dom interfaces, so
// tests can assert what an execution did to the document.
type Event struct {
	// Action is one of "click", "fill", "press", "select", "scroll",
	// "navigate".
	Action string

	// Target describes the element the action was dispatched on, in
	// tag#id.class form. Empty for page-level actions.
	Target string

	// Value carries the action payload: fill text, pressed key, selected
	// label, scroll offsets, or navigation URL.
	Value string
}

// Page is an in-memory dom.Page backed by a parsed HTML document.
type Page struct {
	mu     sync.Mutex
	doc    *html.Node
	url    string
	docs   map[string]string
	events []Event
}

// Load parses rawHTML into a Page whose URL is pageURL.
func Load(rawHTML, pageURL string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{doc: doc, url: pageURL, docs: make(map[string]string)}, nil
}

// Register makes rawHTML available as the document served for url, so a
// Navigate call during a run can swap the page content.
func (p *Page) Register(url, rawHTML string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[url] = rawHTML
}

// Events returns the mutation events recorded so far.
func (p *Page) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *Page) record(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

// URL implements dom.Page.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Navigate implements dom.Page. Only URLs previously registered with
// Register succeed; anything else reports an unreachable target.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	raw, ok := p.docs[url]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("navigate %s: host unreachable", url)
	}
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	p.mu.Lock()
	p.doc = doc
	p.url = url
	p.mu.Unlock()
	p.record(Event{Action: "navigate", Value: url})
	return nil
}

// Scroll implements dom.Page.
func (p *Page) Scroll(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record(Event{Action: "scroll", Value: fmt.Sprintf("%d,%d", x, y)})
	return nil
}

// Content implements dom.Page.
func (p *Page) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sb strings.Builder
	if err := html.Render(&sb, p.doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Query implements dom.Scope.
func (p *Page) Query(selector string) (dom.Element, error) {
	return queryCSS(p, p.root(), selector)
}

// QueryAll implements dom.Scope.
func (p *Page) QueryAll(selector string) ([]dom.Element, error) {
	return queryCSSAll(p, p.root(), selector)
}

// XPathAll implements dom.Scope.
func (p *Page) XPathAll(expr string) ([]dom.Element, error) {
	return xpathAll(p, p.root(), expr)
}

// XPathFirst implements dom.Scope.
func (p *Page) XPathFirst(expr string) (string, bool, error) {
	return xpathFirst(p.root(), expr)
}

func (p *Page) root() *html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// element is a dom.Element over a single html.Node.
type element struct {
	page *Page
	node *html.Node
}

func (e *element) Query(selector string) (dom.Element, error) {
	return queryCSS(e.page, e.node, selector)
}

func (e *element) QueryAll(selector string) ([]dom.Element, error) {
	return queryCSSAll(e.page, e.node, selector)
}

func (e *element) XPathAll(expr string) ([]dom.Element, error) {
	return xpathAll(e.page, e.node, expr)
}

func (e *element) XPathFirst(expr string) (string, bool, error) {
	return xpathFirst(e.node, expr)
}

func (e *element) Tag() (string, error) {
	return strings.ToLower(e.node.Data), nil
}

func (e *element) Text() (string, error) {
	return strings.TrimSpace(htmlquery.InnerText(e.node)), nil
}

func (e *element) Attribute(name string) (string, bool, error) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

// BoundingBox reports a synthetic fixed-size box for visible elements and a
// zero box for hidden ones, which is all the resolver's layout constraint
// inspects.
func (e *element) BoundingBox() (float64, float64, error) {
	visible, err := e.Visible()
	if err != nil || !visible {
		return 0, 0, err
	}
	return 100, 20, nil
}

func (e *element) Visible() (bool, error) {
	for n := e.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if hasAttr(n, "hidden") {
			return false, nil
		}
		if style := attrValue(n, "style"); style != "" {
			compact := strings.ReplaceAll(style, " ", "")
			if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
				return false, nil
			}
		}
	}
	return true, nil
}

func (e *element) Enabled() (bool, error) {
	return !hasAttr(e.node, "disabled"), nil
}

func (e *element) Contains(other dom.Element) (bool, error) {
	o, ok := other.(*element)
	if !ok {
		return false, fmt.Errorf("memdom: cannot test containment of foreign element %T", other)
	}
	for n := o.node; n != nil; n = n.Parent {
		if n == e.node {
			return true, nil
		}
	}
	return false, nil
}

func (e *element) Click() error {
	e.page.record(Event{Action: "click", Target: describe(e.node)})
	return nil
}

func (e *element) Fill(value string) error {
	setAttr(e.node, "value", value)
	e.page.record(Event{Action: "fill", Target: describe(e.node), Value: value})
	return nil
}

func (e *element) Press(key string) error {
	e.page.record(Event{Action: "press", Target: describe(e.node), Value: key})
	return nil
}

func (e *element) SelectLabel(label string) error {
	tag, _ := e.Tag()
	if tag != "select" {
		return fmt.Errorf("memdom: select on non-select element <%s>", tag)
	}
	for n := e.node.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "option") {
			if strings.TrimSpace(htmlquery.InnerText(n)) == label {
				setAttr(n, "selected", "")
				e.page.record(Event{Action: "select", Target: describe(e.node), Value: label})
				return nil
			}
		}
	}
	return fmt.Errorf("memdom: no option with label %q", label)
}

// --- shared query helpers ---

func queryCSS(p *Page, root *html.Node, selector string) (dom.Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid css selector %q: %w", selector, err)
	}
	n := cascadia.Query(root, sel)
	if n == nil {
		return nil, nil
	}
	return &element{page: p, node: n}, nil
}

func queryCSSAll(p *Page, root *html.Node, selector string) ([]dom.Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid css selector %q: %w", selector, err)
	}
	nodes := cascadia.QueryAll(root, sel)
	return wrap(p, nodes), nil
}

func xpathAll(p *Page, root *html.Node, expr string) ([]dom.Element, error) {
	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	var elems []*html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			elems = append(elems, n)
		}
	}
	return wrap(p, elems), nil
}

var attrTailRe = regexp.MustCompile(`/@([A-Za-z_][-\w:.]*)$`)

func xpathFirst(root *html.Node, expr string) (string, bool, error) {
	if m := attrTailRe.FindStringSubmatch(expr); m != nil {
		base := strings.TrimSuffix(expr, m[0])
		nodes, err := htmlquery.QueryAll(root, base)
		if err != nil {
			return "", false, fmt.Errorf("invalid xpath %q: %w", expr, err)
		}
		for _, n := range nodes {
			if n.Type != html.ElementNode {
				continue
			}
			for _, a := range n.Attr {
				if a.Key == m[1] {
					return a.Val, true, nil
				}
			}
			// Attribute absent on the first matched element.
			return "", false, nil
		}
		return "", false, nil
	}

	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return "", false, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	for _, n := range nodes {
		text := strings.TrimSpace(htmlquery.InnerText(n))
		return text, true, nil
	}
	return "", false, nil
}

func wrap(p *Page, nodes []*html.Node) []dom.Element {
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{page: p, node: n})
	}
	return out
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func describe(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(n.Data))
	if id := attrValue(n, "id"); id != "" {
		sb.WriteString("#" + id)
	}
	for _, c := range strings.Fields(attrValue(n, "class")) {
		sb.WriteString("." + c)
	}
	return sb.String()
}
