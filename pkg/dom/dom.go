// Package dom defines the narrow document interfaces the resolution and
// extraction engine works against.
//
// Two implementations exist: a Playwright-backed adapter in pkg/browser for
// driving a live page, and an in-memory backend in pkg/dom/memdom used for
// offline plan validation and tests. Element handles are not owned by the
// caller and are only valid for the lifetime of the current step; they must
// never be cached across steps.
package dom

import "context"

// Scope is a queryable subtree of the document: either the whole page or a
// single container element.
type Scope interface {
	// Query returns the first element matching the CSS selector, or nil if
	// nothing matches.
	Query(selector string) (Element, error)

	// QueryAll returns all elements matching the CSS selector in document
	// order.
	QueryAll(selector string) ([]Element, error)

	// XPathAll returns all elements matching the XPath expression in
	// document order. The expression must be in element form; text() and
	// attribute selections go through XPathFirst.
	XPathAll(expr string) ([]Element, error)

	// XPathFirst evaluates an XPath expression that selects a text node or
	// an attribute and returns the first match as a string. Text values are
	// whitespace-trimmed. The boolean reports whether anything matched.
	XPathFirst(expr string) (string, bool, error)
}

// Element is an opaque handle to a live element inside a Scope. An Element is
// itself a Scope, so field and exclusion locators can be resolved relative to
// a container.
type Element interface {
	Scope

	// Tag returns the lower-cased tag name.
	Tag() (string, error)

	// Text returns the element's inner text, whitespace-trimmed.
	Text() (string, error)

	// Attribute returns the named attribute's value and whether the
	// attribute is present.
	Attribute(name string) (string, bool, error)

	// BoundingBox returns the rendered width and height. Both are zero for
	// elements without a layout box.
	BoundingBox() (width, height float64, err error)

	// Visible reports whether the element is rendered and visible.
	Visible() (bool, error)

	// Enabled reports whether the element can receive pointer and keyboard
	// events (not disabled).
	Enabled() (bool, error)

	// Contains reports whether other is inside this element's subtree
	// (inclusive).
	Contains(other Element) (bool, error)

	// Click dispatches a click on the element.
	Click() error

	// Fill replaces the element's value with the given text.
	Fill(value string) error

	// Press dispatches a key press on the element.
	Press(key string) error

	// SelectLabel selects the dropdown option whose visible text equals
	// label. Only meaningful for select elements.
	SelectLabel(label string) error
}

// Page is the root scope plus the page-level operations the step executor
// needs.
type Page interface {
	Scope

	// URL returns the current page URL, used as the base for resolving
	// relative href/src values.
	URL() string

	// Navigate loads the given URL and waits for the load state.
	Navigate(ctx context.Context, url string) error

	// Scroll scrolls the page by the given pixel offsets.
	Scroll(ctx context.Context, x, y int) error

	// Content returns the page's full HTML.
	Content() (string, error)
}
