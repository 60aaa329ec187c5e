// Package extraction walks container/field extraction plans against a live
// document and assembles typed records.
package extraction

import (
	"fmt"
)

// ValueKind selects how a field's value is read from its resolved element.
type ValueKind string

const (
	// KindText extracts the element's trimmed inner text.
	KindText ValueKind = "text"

	// KindAttribute extracts a named attribute's string value.
	KindAttribute ValueKind = "attribute"

	// KindHref extracts the href attribute resolved to an absolute URL.
	KindHref ValueKind = "href"

	// KindSrc extracts the src attribute resolved to an absolute URL.
	KindSrc ValueKind = "src"
)

// Field is one named value extracted relative to a container. Its locator is
// an XPath expression or a CSS selector (or both, tried XPath first), scoped
// to the container element.
type Field struct {
	Name      string    `json:"name" yaml:"name"`
	Selector  string    `json:"selector,omitempty" yaml:"selector,omitempty"`
	XPath     string    `json:"xpath,omitempty" yaml:"xpath,omitempty"`
	Kind      ValueKind `json:"type,omitempty" yaml:"type,omitempty"`
	Attribute string    `json:"attribute,omitempty" yaml:"attribute,omitempty"`
}

// Plan describes one extraction: a container locator, the fields read from
// each container, and subtrees excluded from field matching.
type Plan struct {
	ContainerXPath    string   `json:"containerXpath,omitempty" yaml:"containerXpath,omitempty"`
	ContainerSelector string   `json:"containerSelector,omitempty" yaml:"containerSelector,omitempty"`
	Fields            []Field  `json:"fields" yaml:"fields"`
	ExcludeXPaths     []string `json:"excludeXpaths,omitempty" yaml:"excludeXpaths,omitempty"`
	ExcludeSelectors  []string `json:"excludeSelectors,omitempty" yaml:"excludeSelectors,omitempty"`

	// Multiple produces one record per matched container in document
	// order; otherwise at most one record is produced from the first
	// container.
	Multiple bool `json:"multiple,omitempty" yaml:"multiple,omitempty"`
}

// Record maps field names to extracted values. Unresolved and excluded
// fields are present with a nil value; the key set is fixed by the plan.
type Record map[string]any

// Validate checks the plan invariants at load time so evaluation sites never
// have to.
func (p *Plan) Validate() error {
	if p.ContainerXPath == "" && p.ContainerSelector == "" {
		return fmt.Errorf("extraction plan needs a container locator")
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("extraction plan needs at least one field")
	}
	seen := make(map[string]struct{}, len(p.Fields))
	for i, f := range p.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.XPath == "" && f.Selector == "" {
			return fmt.Errorf("field %q has no locator", f.Name)
		}
		switch f.Kind {
		case "", KindText, KindHref, KindSrc:
			if f.Attribute != "" {
				return fmt.Errorf("field %q sets attribute without type attribute", f.Name)
			}
		case KindAttribute:
			if f.Attribute == "" {
				return fmt.Errorf("field %q has type attribute but no attribute name", f.Name)
			}
		default:
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Kind)
		}
	}
	return nil
}

// kind returns the effective value kind, defaulting to text.
func (f Field) kind() ValueKind {
	if f.Kind == "" {
		return KindText
	}
	return f.Kind
}
