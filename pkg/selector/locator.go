package selector

import (
	"fmt"
	"sort"
)

// LocatorKind discriminates the two locator languages.
type LocatorKind string

const (
	KindCSS   LocatorKind = "css"
	KindXPath LocatorKind = "xpath"
)

// Locator is one candidate way of finding an element. Lower priority values
// are tried first.
type Locator struct {
	Kind     LocatorKind `json:"kind" yaml:"kind"`
	Value    string      `json:"value" yaml:"value"`
	Priority int         `json:"priority" yaml:"priority"`

	// generated marks fallback locators synthesized by the resolver, so
	// reports can distinguish recorded strategies from derived ones.
	generated bool
}

// Generated reports whether the locator was synthesized as a fallback rather
// than recorded.
func (l Locator) Generated() bool { return l.generated }

func (l Locator) String() string {
	return fmt.Sprintf("%s:%s", l.Kind, truncate(l.Value, 80))
}

// ValidateLocators enforces the locator-list invariants: at least one entry,
// and unique priorities.
func ValidateLocators(locs []Locator) error {
	if len(locs) == 0 {
		return fmt.Errorf("at least one locator is required")
	}
	seen := make(map[int]struct{}, len(locs))
	for _, l := range locs {
		if l.Kind != KindCSS && l.Kind != KindXPath {
			return fmt.Errorf("unknown locator kind %q", l.Kind)
		}
		if l.Value == "" {
			return fmt.Errorf("empty %s locator value", l.Kind)
		}
		if _, dup := seen[l.Priority]; dup {
			return fmt.Errorf("duplicate locator priority %d", l.Priority)
		}
		seen[l.Priority] = struct{}{}
	}
	return nil
}

// orderLocators returns locs sorted by ascending priority without mutating
// the input.
func orderLocators(locs []Locator) []Locator {
	out := make([]Locator, len(locs))
	copy(out, locs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
