package config

import (
	"sync"

	"github.com/entrhq/replay/pkg/browser"
)

const (
	// SectionIDDomains is the identifier for the domain policy section
	SectionIDDomains = "domains"
)

// DomainsSection manages the navigation domain policy. Patterns are host
// globs with '.' as the separator, so "*.example.com" covers subdomains
// without also covering lookalike hosts.
type DomainsSection struct {
	Allowed []string
	Denied  []string
	mu      sync.RWMutex
}

// NewDomainsSection creates a new domain policy section with default
// settings.
func NewDomainsSection() *DomainsSection {
	return &DomainsSection{}
}

// ID returns the section identifier.
func (s *DomainsSection) ID() string {
	return SectionIDDomains
}

// Title returns the section title.
func (s *DomainsSection) Title() string {
	return "Domain Policy"
}

// Description returns the section description.
func (s *DomainsSection) Description() string {
	return "Restrict which hosts workflow navigation may reach. An empty allow list permits every host not explicitly denied."
}

// Data returns the current configuration data.
func (s *DomainsSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"allowed": stringsToAny(s.Allowed),
		"denied":  stringsToAny(s.Denied),
	}
}

// SetData updates the configuration from the provided data.
func (s *DomainsSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if allowed, ok := stringSlice(data["allowed"]); ok {
		s.Allowed = allowed
	}
	if denied, ok := stringSlice(data["denied"]); ok {
		s.Denied = denied
	}
	return nil
}

// Validate validates the current configuration by compiling the patterns.
func (s *DomainsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := browser.NewNavigationGuard(s.Allowed, s.Denied)
	return err
}

// Reset resets the section to default configuration.
func (s *DomainsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Allowed = nil
	s.Denied = nil
}

// Guard compiles the section into a navigation guard. Extra patterns are
// merged in, so CLI flags can tighten the file-configured policy.
func (s *DomainsSection) Guard(extraAllowed, extraDenied []string) (*browser.NavigationGuard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := append(append([]string{}, s.Allowed...), extraAllowed...)
	denied := append(append([]string{}, s.Denied...), extraDenied...)
	return browser.NewNavigationGuard(allowed, denied)
}

func stringsToAny(values []string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func stringSlice(v interface{}) ([]string, bool) {
	switch vals := v.(type) {
	case []string:
		return vals, true
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
