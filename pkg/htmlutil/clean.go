// Package htmlutil prepares raw page HTML for LLM consumption: it strips
// scripts, styles, and other noise while preserving the semantic structure
// and the attributes selectors are built from.
package htmlutil

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Cleaned is the reduced document plus the metadata worth keeping.
type Cleaned struct {
	HTML        string
	Title       string
	Description string
	Truncated   bool
}

// Clean parses rawHTML and rebuilds it without noise elements, keeping only
// the attributes useful for selector generation. Output is capped at
// maxLength characters of emitted text.
func Clean(rawHTML string, maxLength int) (*Cleaned, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &cleaner{max: maxLength}
	truncated := c.walk(doc, 0)

	return &Cleaned{
		HTML:        c.out.String(),
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
		Truncated:   truncated,
	}, nil
}

type cleaner struct {
	out strings.Builder
	n   int
	max int
}

// walk emits one node and its subtree. It returns true once the length cap
// is hit, which stops the traversal.
func (c *cleaner) walk(n *html.Node, depth int) bool {
	if c.n >= c.max {
		return true
	}
	switch n.Type {
	case html.CommentNode:
		return false
	case html.TextNode:
		return c.text(n)
	case html.ElementNode:
		if skippedElements[strings.ToLower(n.Data)] {
			return false
		}
		return c.element(n, depth)
	default:
		return c.children(n, depth)
	}
}

func (c *cleaner) text(n *html.Node) bool {
	text := strings.TrimSpace(n.Data)
	if text == "" {
		return false
	}
	if c.n+len(text) > c.max {
		c.out.WriteString(text[:c.max-c.n])
		c.out.WriteString("...")
		c.n = c.max
		return true
	}
	c.out.WriteString(text)
	c.n += len(text)
	return false
}

func (c *cleaner) element(n *html.Node, depth int) bool {
	tag := strings.ToLower(n.Data)

	if depth > 0 && blockElements[tag] {
		c.out.WriteString("\n")
		c.out.WriteString(strings.Repeat("  ", depth))
	}

	c.out.WriteString("<")
	c.out.WriteString(tag)
	for _, attr := range n.Attr {
		if keepAttribute(tag, attr.Key) {
			fmt.Fprintf(&c.out, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	c.out.WriteString(">")
	c.n += len(tag) + 2

	truncated := c.children(n, depth+1)

	if !voidElements[tag] {
		if blockElements[tag] {
			c.out.WriteString("\n")
			c.out.WriteString(strings.Repeat("  ", depth))
		}
		fmt.Fprintf(&c.out, "</%s>", tag)
		c.n += len(tag) + 3
	}
	return truncated
}

func (c *cleaner) children(n *html.Node, depth int) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if c.walk(child, depth) {
			return true
		}
	}
	return false
}

// skippedElements are removed entirely; their content never reaches the
// model.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"div": true, "p": true, "section": true, "article": true,
	"header": true, "footer": true, "nav": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true,
	"form": true, "fieldset": true, "blockquote": true, "pre": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var globalAttributes = map[string]bool{
	"id":               true,
	"class":            true,
	"role":             true,
	"aria-label":       true,
	"aria-describedby": true,
}

// keepAttribute reports whether an attribute carries targeting or semantic
// value worth showing to the model.
func keepAttribute(tag, name string) bool {
	name = strings.ToLower(name)
	if globalAttributes[name] {
		return true
	}
	if strings.HasPrefix(name, "data-") {
		return true
	}
	switch tag {
	case "a":
		return name == "href" || name == "target"
	case "img":
		return name == "src" || name == "alt"
	case "input", "textarea", "select":
		return name == "name" || name == "type" || name == "placeholder" || name == "value"
	case "button":
		return name == "type" || name == "name"
	case "form":
		return name == "action" || name == "method"
	case "table":
		return name == "summary"
	}
	return false
}

func findTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

func findMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && attr.Val == "description" {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if description != "" {
				return
			}
		}
	}
	traverse(doc)
	return description
}
