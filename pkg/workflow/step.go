// Package workflow defines the recorded workflow document: an ordered list of
// typed steps plus the input schema the run binds values against.
package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/entrhq/replay/pkg/extraction"
	"github.com/entrhq/replay/pkg/selector"
)

// Step type discriminators as they appear in recorded workflow files.
const (
	TypeNavigation         = "navigation"
	TypeClick              = "click"
	TypeInput              = "input"
	TypeKeyPress           = "key_press"
	TypeScroll             = "scroll"
	TypeSelectDropdown     = "select_dropdown"
	TypeAgent              = "agent"
	TypeExtractPageContent = "extract_page_content"
	TypeExtractDomContent  = "extract_dom_content"
)

// Step is the closed set of workflow step variants. Steps are built at load
// time and never mutated during execution; template substitution returns
// copies.
type Step interface {
	// Type returns the step's wire discriminator.
	Type() string

	// Meta returns the fields common to every variant.
	Meta() StepMeta

	// Validate checks the variant's own invariants at load time.
	Validate() error

	isStep()
}

// StepMeta carries the fields shared by every step variant, including the
// annotations the recorder attaches to captured events.
type StepMeta struct {
	Description string `json:"description,omitempty"`

	// Optional steps do not abort the run on failure; their output is left
	// absent and execution continues.
	Optional bool `json:"optional,omitempty"`

	// Recorder annotations. Timestamp is epoch milliseconds at capture.
	Timestamp   int64  `json:"timestamp,omitempty"`
	TabID       int    `json:"tabId,omitempty"`
	ElementTag  string `json:"elementTag,omitempty"`
	ElementText string `json:"elementText,omitempty"`
	FrameURL    string `json:"frameUrl,omitempty"`
}

// Meta implements Step.
func (m StepMeta) Meta() StepMeta { return m }

// Hints exposes the recorder annotations usable for fallback selector
// generation.
func (m StepMeta) Hints() selector.Hints {
	return selector.Hints{Tag: m.ElementTag, Text: m.ElementText}
}

// Target is the element reference carried by interaction steps: a recorded
// CSS selector and XPath, or an explicit prioritized locator list.
type Target struct {
	CSSSelector string             `json:"cssSelector,omitempty"`
	XPath       string             `json:"xpath,omitempty"`
	Locators    []selector.Locator `json:"locators,omitempty"`
}

// Interaction locator priorities when derived from the recorded selector
// pair. CSS is tried before XPath for interactions; gaps leave room for
// inserting strategies without renumbering.
const (
	interactionCSSPriority   = 10
	interactionXPathPriority = 20
)

// ResolvedLocators returns the explicit locator list when present, otherwise
// derives one from the recorded selector pair with CSS tried first.
func (t Target) ResolvedLocators() []selector.Locator {
	if len(t.Locators) > 0 {
		return t.Locators
	}
	var out []selector.Locator
	if t.CSSSelector != "" {
		out = append(out, selector.Locator{
			Kind:     selector.KindCSS,
			Value:    t.CSSSelector,
			Priority: interactionCSSPriority,
		})
	}
	if t.XPath != "" {
		out = append(out, selector.Locator{
			Kind:     selector.KindXPath,
			Value:    t.XPath,
			Priority: interactionXPathPriority,
		})
	}
	return out
}

func (t Target) validate() error {
	if len(t.Locators) > 0 {
		return selector.ValidateLocators(t.Locators)
	}
	if t.CSSSelector == "" && t.XPath == "" {
		return fmt.Errorf("step has no locator")
	}
	return nil
}

// NavigationStep loads a URL in the run's page.
type NavigationStep struct {
	StepMeta
	URL string `json:"url"`
}

func (s *NavigationStep) Type() string { return TypeNavigation }
func (s *NavigationStep) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("navigation step has no url")
	}
	return nil
}

// ClickStep clicks a resolved element.
type ClickStep struct {
	StepMeta
	Target
}

func (s *ClickStep) Type() string    { return TypeClick }
func (s *ClickStep) Validate() error { return s.validate() }

// InputStep types a value into a resolved element. Elements that select from
// fixed options are not typed into; recordings against them carry a
// select_dropdown step instead.
type InputStep struct {
	StepMeta
	Target
	Value string `json:"value"`
}

func (s *InputStep) Type() string    { return TypeInput }
func (s *InputStep) Validate() error { return s.validate() }

// KeyPressStep sends a single key to a resolved element.
type KeyPressStep struct {
	StepMeta
	Target
	Key string `json:"key"`
}

func (s *KeyPressStep) Type() string { return TypeKeyPress }
func (s *KeyPressStep) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("key_press step has no key")
	}
	return s.validate()
}

// ScrollStep scrolls the page by a pixel offset.
type ScrollStep struct {
	StepMeta
	ScrollX int `json:"scrollX"`
	ScrollY int `json:"scrollY"`
}

func (s *ScrollStep) Type() string    { return TypeScroll }
func (s *ScrollStep) Validate() error { return nil }

// SelectDropdownStep picks an option from a select element by its visible
// label.
type SelectDropdownStep struct {
	StepMeta
	Target
	SelectedText string `json:"selectedText"`
}

func (s *SelectDropdownStep) Type() string { return TypeSelectDropdown }
func (s *SelectDropdownStep) Validate() error {
	if s.SelectedText == "" {
		return fmt.Errorf("select_dropdown step has no selectedText")
	}
	return s.validate()
}

// AgentStep hands a free-form task to the autonomous agent with a bounded
// step budget.
type AgentStep struct {
	StepMeta
	Task     string `json:"task"`
	MaxSteps int    `json:"maxSteps,omitempty"`
}

func (s *AgentStep) Type() string { return TypeAgent }
func (s *AgentStep) Validate() error {
	if s.Task == "" {
		return fmt.Errorf("agent step has no task")
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("agent step has negative maxSteps")
	}
	return nil
}

// ExtractPageContentStep hands the whole page to the content-understanding
// collaborator with an extraction goal.
type ExtractPageContentStep struct {
	StepMeta
	Goal   string `json:"goal"`
	Output string `json:"output,omitempty"`
}

func (s *ExtractPageContentStep) Type() string { return TypeExtractPageContent }
func (s *ExtractPageContentStep) Validate() error {
	if s.Goal == "" {
		return fmt.Errorf("extract_page_content step has no goal")
	}
	return nil
}

// ExtractDomContentStep runs a container/field extraction plan and stores the
// records under the step's output name.
type ExtractDomContentStep struct {
	StepMeta
	extraction.Plan
	Output string `json:"output,omitempty"`
}

func (s *ExtractDomContentStep) Type() string    { return TypeExtractDomContent }
func (s *ExtractDomContentStep) Validate() error { return s.Plan.Validate() }

func (*NavigationStep) isStep()         {}
func (*ClickStep) isStep()              {}
func (*InputStep) isStep()              {}
func (*KeyPressStep) isStep()           {}
func (*ScrollStep) isStep()             {}
func (*SelectDropdownStep) isStep()     {}
func (*AgentStep) isStep()              {}
func (*ExtractPageContentStep) isStep() {}
func (*ExtractDomContentStep) isStep()  {}

// UnmarshalStep decodes one step object, dispatching on its "type" field.
func UnmarshalStep(raw json.RawMessage) (Step, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("failed to read step type: %w", err)
	}

	var s Step
	switch head.Type {
	case TypeNavigation:
		s = &NavigationStep{}
	case TypeClick:
		s = &ClickStep{}
	case TypeInput:
		s = &InputStep{}
	case TypeKeyPress:
		s = &KeyPressStep{}
	case TypeScroll:
		s = &ScrollStep{}
	case TypeSelectDropdown:
		s = &SelectDropdownStep{}
	case TypeAgent:
		s = &AgentStep{}
	case TypeExtractPageContent:
		s = &ExtractPageContentStep{}
	case TypeExtractDomContent:
		s = &ExtractDomContentStep{}
	case "":
		return nil, fmt.Errorf("step has no type")
	default:
		return nil, fmt.Errorf("unknown step type %q", head.Type)
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("failed to decode %s step: %w", head.Type, err)
	}
	return s, nil
}
