package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/replay/pkg/agent"
	"github.com/entrhq/replay/pkg/selector"
)

const (
	// SectionIDResolver is the identifier for the resolver settings section
	SectionIDResolver = "resolver"
)

// ResolverSection manages selector resolution timing and the fallback agent
// step budget.
type ResolverSection struct {
	StrategyTimeoutMs int
	PollIntervalMs    int
	AgentMaxSteps     int
	mu                sync.RWMutex
}

// NewResolverSection creates a new resolver section with default settings.
func NewResolverSection() *ResolverSection {
	return &ResolverSection{
		StrategyTimeoutMs: int(selector.DefaultStrategyTimeout / time.Millisecond),
		PollIntervalMs:    int(selector.DefaultPollInterval / time.Millisecond),
		AgentMaxSteps:     agent.DefaultMaxSteps,
	}
}

// ID returns the section identifier.
func (s *ResolverSection) ID() string {
	return SectionIDResolver
}

// Title returns the section title.
func (s *ResolverSection) Title() string {
	return "Resolver Settings"
}

// Description returns the section description.
func (s *ResolverSection) Description() string {
	return "Configure how long each locator strategy is polled before the next one is tried, and the fallback agent's step budget."
}

// Data returns the current configuration data.
func (s *ResolverSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"strategy_timeout_ms": s.StrategyTimeoutMs,
		"poll_interval_ms":    s.PollIntervalMs,
		"agent_max_steps":     s.AgentMaxSteps,
	}
}

// SetData updates the configuration from the provided data.
func (s *ResolverSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if timeout, ok := intValue(data["strategy_timeout_ms"]); ok {
		s.StrategyTimeoutMs = timeout
	}
	if interval, ok := intValue(data["poll_interval_ms"]); ok {
		s.PollIntervalMs = interval
	}
	if steps, ok := intValue(data["agent_max_steps"]); ok {
		s.AgentMaxSteps = steps
	}
	return nil
}

// Validate validates the current configuration.
func (s *ResolverSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StrategyTimeoutMs <= 0 {
		return fmt.Errorf("strategy_timeout_ms must be positive")
	}
	if s.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	if s.PollIntervalMs > s.StrategyTimeoutMs {
		return fmt.Errorf("poll_interval_ms must not exceed strategy_timeout_ms")
	}
	if s.AgentMaxSteps <= 0 {
		return fmt.Errorf("agent_max_steps must be positive")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ResolverSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StrategyTimeoutMs = int(selector.DefaultStrategyTimeout / time.Millisecond)
	s.PollIntervalMs = int(selector.DefaultPollInterval / time.Millisecond)
	s.AgentMaxSteps = agent.DefaultMaxSteps
}

// SelectorConfig builds a resolver configuration from the section.
func (s *ResolverSection) SelectorConfig() selector.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selector.Config{
		StrategyTimeout: time.Duration(s.StrategyTimeoutMs) * time.Millisecond,
		PollInterval:    time.Duration(s.PollIntervalMs) * time.Millisecond,
	}
}

// GetAgentMaxSteps returns the configured fallback agent step budget.
func (s *ResolverSection) GetAgentMaxSteps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AgentMaxSteps
}
