package workflow

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/entrhq/replay/pkg/extraction"
	"github.com/entrhq/replay/pkg/selector"
)

// ErrUnresolvedPlaceholder marks a template referencing a variable the run
// context does not hold. This is a configuration error: the step is reported
// before any page action is attempted.
var ErrUnresolvedPlaceholder = errors.New("unresolved template placeholder")

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitute resolves {name} placeholders in s from vars. Every placeholder
// must resolve; text without placeholders passes through unchanged.
func Substitute(s string, vars map[string]any) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return fmt.Sprintf("%v", v)
	})
	if missing != "" {
		return "", fmt.Errorf("%w: {%s} in %q", ErrUnresolvedPlaceholder, missing, s)
	}
	return out, nil
}

// SubstituteStep returns a copy of s with every string-valued field
// template-substituted from vars. The original step is never mutated.
func SubstituteStep(s Step, vars map[string]any) (Step, error) {
	sub := func(v *string) error {
		out, err := Substitute(*v, vars)
		if err != nil {
			return err
		}
		*v = out
		return nil
	}
	subAll := func(vs ...*string) error {
		for _, v := range vs {
			if err := sub(v); err != nil {
				return err
			}
		}
		return nil
	}
	subTarget := func(t *Target) error {
		if err := subAll(&t.CSSSelector, &t.XPath); err != nil {
			return err
		}
		locs := make([]selector.Locator, len(t.Locators))
		copy(locs, t.Locators)
		for i := range locs {
			if err := sub(&locs[i].Value); err != nil {
				return err
			}
		}
		t.Locators = locs
		return nil
	}

	switch v := s.(type) {
	case *NavigationStep:
		c := *v
		return &c, subAll(&c.Description, &c.URL)
	case *ClickStep:
		c := *v
		if err := sub(&c.Description); err != nil {
			return nil, err
		}
		return &c, subTarget(&c.Target)
	case *InputStep:
		c := *v
		if err := subAll(&c.Description, &c.Value); err != nil {
			return nil, err
		}
		return &c, subTarget(&c.Target)
	case *KeyPressStep:
		c := *v
		if err := subAll(&c.Description, &c.Key); err != nil {
			return nil, err
		}
		return &c, subTarget(&c.Target)
	case *ScrollStep:
		c := *v
		return &c, sub(&c.Description)
	case *SelectDropdownStep:
		c := *v
		if err := subAll(&c.Description, &c.SelectedText); err != nil {
			return nil, err
		}
		return &c, subTarget(&c.Target)
	case *AgentStep:
		c := *v
		return &c, subAll(&c.Description, &c.Task)
	case *ExtractPageContentStep:
		c := *v
		return &c, subAll(&c.Description, &c.Goal)
	case *ExtractDomContentStep:
		c := *v
		if err := subAll(&c.Description, &c.ContainerXPath, &c.ContainerSelector); err != nil {
			return nil, err
		}
		c.Fields = copyFields(c.Fields)
		for i := range c.Fields {
			if err := subAll(&c.Fields[i].Selector, &c.Fields[i].XPath); err != nil {
				return nil, err
			}
		}
		c.ExcludeXPaths = copyStrings(c.ExcludeXPaths)
		for i := range c.ExcludeXPaths {
			if err := sub(&c.ExcludeXPaths[i]); err != nil {
				return nil, err
			}
		}
		c.ExcludeSelectors = copyStrings(c.ExcludeSelectors)
		for i := range c.ExcludeSelectors {
			if err := sub(&c.ExcludeSelectors[i]); err != nil {
				return nil, err
			}
		}
		return &c, nil
	default:
		return nil, fmt.Errorf("unknown step variant %T", s)
	}
}

func copyFields(in []extraction.Field) []extraction.Field {
	out := make([]extraction.Field, len(in))
	copy(out, in)
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
