package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/replay/pkg/dom"
)

// XPathMode identifies what an XPath expression selects. Expressions are
// classified once, up front, so evaluation sites never sniff the string form.
type XPathMode int

const (
	// ModeElement selects element nodes.
	ModeElement XPathMode = iota

	// ModeText selects a text node; evaluation returns the first match,
	// whitespace-trimmed. Multiple matches are never concatenated: merging
	// unrelated text runs would be ambiguous.
	ModeText

	// ModeAttribute selects an attribute; evaluation returns its string
	// value, or absent when the first matched element lacks the attribute.
	ModeAttribute
)

func (m XPathMode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeAttribute:
		return "attribute"
	default:
		return "element"
	}
}

var (
	idShorthandRe = regexp.MustCompile(`^\.?id\(['"]([^'"]+)['"]\)`)
	attrSuffixRe  = regexp.MustCompile(`/@([A-Za-z_][-\w:.]*)$`)
)

// NormalizeXPath rewrites legacy shorthand forms into fully qualified XPath,
// so callers never special-case them. Recorded expressions like id('info')
// and .id('info') become //*[@id='info'].
func NormalizeXPath(expr string) string {
	expr = strings.TrimSpace(expr)
	if m := idShorthandRe.FindStringSubmatch(expr); m != nil {
		rest := expr[len(m[0]):]
		return fmt.Sprintf("//*[@id='%s']%s", m[1], rest)
	}
	return expr
}

// ClassifyXPath normalizes expr and classifies it by its trailing form.
// A malformed expression yields ErrInvalidExpression.
func ClassifyXPath(expr string) (XPathMode, string, error) {
	norm := NormalizeXPath(expr)
	if err := checkExpression(norm); err != nil {
		return ModeElement, norm, err
	}
	switch {
	case strings.HasSuffix(norm, "/text()"), strings.HasSuffix(norm, "following-sibling::text()"):
		return ModeText, norm, nil
	case attrSuffixRe.MatchString(norm):
		return ModeAttribute, norm, nil
	default:
		return ModeElement, norm, nil
	}
}

// checkExpression rejects expressions that cannot be valid XPath: empty
// input, unbalanced brackets or parentheses, or an unterminated string
// literal.
func checkExpression(expr string) error {
	if expr == "" {
		return fmt.Errorf("empty expression: %w", ErrInvalidExpression)
	}
	var brackets, parens int
	var quote rune
	for _, r := range expr {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
		case '[':
			brackets++
		case ']':
			brackets--
		case '(':
			parens++
		case ')':
			parens--
		}
		if brackets < 0 || parens < 0 {
			return fmt.Errorf("unbalanced %q: %w", expr, ErrInvalidExpression)
		}
	}
	if quote != 0 || brackets != 0 || parens != 0 {
		return fmt.Errorf("unbalanced %q: %w", expr, ErrInvalidExpression)
	}
	return nil
}

// XPathValue is the result of evaluating an XPath expression against a scope.
type XPathValue struct {
	Mode XPathMode

	// Elements holds the matches for ModeElement, in document order.
	Elements []dom.Element

	// Value holds the string result for ModeText and ModeAttribute; Found
	// reports whether anything matched. An empty match set is not an error
	// by itself.
	Value string
	Found bool
}

// EvaluateXPath classifies expr and evaluates it against scope.
func EvaluateXPath(scope dom.Scope, expr string) (*XPathValue, error) {
	mode, norm, err := ClassifyXPath(expr)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeElement:
		els, err := scope.XPathAll(norm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err, ErrInvalidExpression)
		}
		return &XPathValue{Mode: mode, Elements: els, Found: len(els) > 0}, nil
	default:
		value, found, err := scope.XPathFirst(norm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err, ErrInvalidExpression)
		}
		return &XPathValue{Mode: mode, Value: value, Found: found}, nil
	}
}

// ElementPart strips the trailing text() or attribute selection from an
// XPath expression, leaving the expression for the nearest element ancestor
// of the selected value. Element-mode expressions pass through unchanged.
func ElementPart(expr string) string {
	norm := NormalizeXPath(expr)
	switch {
	case strings.HasSuffix(norm, "/following-sibling::text()"):
		return strings.TrimSuffix(norm, "/following-sibling::text()")
	case strings.HasSuffix(norm, "/text()"):
		return strings.TrimSuffix(norm, "/text()")
	default:
		if m := attrSuffixRe.FindString(norm); m != "" {
			return strings.TrimSuffix(norm, m)
		}
		return norm
	}
}

// ScopeRelative rewrites an absolute // prefix to .// so the expression
// stays inside the container subtree it is resolved against. Recorded
// exclusion and field locators use both forms interchangeably.
func ScopeRelative(expr string) string {
	if strings.HasPrefix(expr, "//") {
		return "." + expr
	}
	return expr
}
