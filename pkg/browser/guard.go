package browser

import (
	"fmt"
	"net/url"

	"github.com/gobwas/glob"
)

// NavigationGuard restricts which hosts a session may navigate to. Patterns
// are glob expressions matched against the URL host with '.' as the
// separator, so "*.example.com" matches subdomains but not
// "evilexample.com".
type NavigationGuard struct {
	allowed []glob.Glob
	denied  []glob.Glob
}

// NewNavigationGuard compiles the allow and deny pattern lists. Deny wins
// over allow; an empty allow list permits every host not denied.
func NewNavigationGuard(allowedPatterns, deniedPatterns []string) (*NavigationGuard, error) {
	compile := func(patterns []string) ([]glob.Glob, error) {
		globs := make([]glob.Glob, 0, len(patterns))
		for _, p := range patterns {
			g, err := glob.Compile(p, '.')
			if err != nil {
				return nil, fmt.Errorf("invalid host pattern %q: %w", p, err)
			}
			globs = append(globs, g)
		}
		return globs, nil
	}

	allowed, err := compile(allowedPatterns)
	if err != nil {
		return nil, err
	}
	denied, err := compile(deniedPatterns)
	if err != nil {
		return nil, err
	}
	return &NavigationGuard{allowed: allowed, denied: denied}, nil
}

// Allow reports whether navigation to rawURL is permitted.
func (g *NavigationGuard) Allow(rawURL string) error {
	if g == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("unparseable navigation target %q: %w", rawURL, err)
	}
	host := u.Hostname()

	for _, d := range g.denied {
		if d.Match(host) {
			return fmt.Errorf("navigation to %q is denied by policy", host)
		}
	}
	if len(g.allowed) == 0 {
		return nil
	}
	for _, a := range g.allowed {
		if a.Match(host) {
			return nil
		}
	}
	return fmt.Errorf("navigation to %q is not in the allowed domains", host)
}
