package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/replay/pkg/browser"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"
)

// BrowserSection manages browser session defaults.
type BrowserSection struct {
	Headless           bool
	ViewportWidth      int
	ViewportHeight     int
	MaxSessions        int
	IdleTimeoutSeconds int
	mu                 sync.RWMutex
}

// NewBrowserSection creates a new browser section with default settings.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{
		Headless:           true,
		ViewportWidth:      browser.DefaultViewportWidth,
		ViewportHeight:     browser.DefaultViewportHeight,
		MaxSessions:        browser.DefaultMaxSessions,
		IdleTimeoutSeconds: browser.DefaultIdleTimeout,
	}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure browser session defaults: headless mode, viewport size, and session pool limits."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"headless":             s.Headless,
		"viewport_width":       s.ViewportWidth,
		"viewport_height":      s.ViewportHeight,
		"max_sessions":         s.MaxSessions,
		"idle_timeout_seconds": s.IdleTimeoutSeconds,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if headless, ok := data["headless"].(bool); ok {
		s.Headless = headless
	}
	if width, ok := intValue(data["viewport_width"]); ok {
		s.ViewportWidth = width
	}
	if height, ok := intValue(data["viewport_height"]); ok {
		s.ViewportHeight = height
	}
	if sessions, ok := intValue(data["max_sessions"]); ok {
		s.MaxSessions = sessions
	}
	if idle, ok := intValue(data["idle_timeout_seconds"]); ok {
		s.IdleTimeoutSeconds = idle
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive")
	}
	if s.IdleTimeoutSeconds <= 0 {
		return fmt.Errorf("idle_timeout_seconds must be positive")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = true
	s.ViewportWidth = browser.DefaultViewportWidth
	s.ViewportHeight = browser.DefaultViewportHeight
	s.MaxSessions = browser.DefaultMaxSessions
	s.IdleTimeoutSeconds = browser.DefaultIdleTimeout
}

// SessionOptions builds browser session options from the section.
func (s *BrowserSection) SessionOptions() browser.SessionOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return browser.SessionOptions{
		Headless: s.Headless,
		Viewport: &browser.Viewport{
			Width:  s.ViewportWidth,
			Height: s.ViewportHeight,
		},
	}
}

// GetMaxSessions returns the configured session pool limit.
func (s *BrowserSection) GetMaxSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxSessions
}

// GetIdleTimeoutSeconds returns the configured idle session timeout.
func (s *BrowserSection) GetIdleTimeoutSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.IdleTimeoutSeconds
}

// intValue coerces a stored numeric value. JSON decoding yields float64.
func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
