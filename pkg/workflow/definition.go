package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputField declares one named input the workflow expects at run time.
type InputField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

// Definition is one recorded workflow: ordered steps plus the input schema.
// Immutable once loaded for a run.
type Definition struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Version     string       `json:"version,omitempty"`
	Steps       []Step       `json:"steps"`
	InputSchema []InputField `json:"input_schema,omitempty"`
}

// UnmarshalJSON decodes the step list through the per-variant dispatch.
func (d *Definition) UnmarshalJSON(data []byte) error {
	type alias struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Version     string            `json:"version"`
		Steps       []json.RawMessage `json:"steps"`
		InputSchema []InputField      `json:"input_schema"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	d.Name = a.Name
	d.Description = a.Description
	d.Version = a.Version
	d.InputSchema = a.InputSchema
	d.Steps = make([]Step, 0, len(a.Steps))
	for i, raw := range a.Steps {
		s, err := UnmarshalStep(raw)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		d.Steps = append(d.Steps, s)
	}
	return nil
}

// Parse decodes and validates a workflow definition from JSON.
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads a workflow definition from a .json, .yaml, or .yml file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse workflow file %s: %w", path, err)
		}
	}
	return Parse(data)
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// step dispatch path.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Validate checks the definition's load-time invariants.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("workflow has no name")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps", d.Name)
	}
	for i, s := range d.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Type(), err)
		}
	}
	seen := make(map[string]struct{}, len(d.InputSchema))
	for _, f := range d.InputSchema {
		if f.Name == "" {
			return fmt.Errorf("input schema entry has no name")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate input schema entry %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Type {
		case "string", "number", "bool":
		default:
			return fmt.Errorf("input %q has unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

// ValidateInputs checks bound input values against the schema: required
// entries present, no unknown names, and value types matching declarations.
func (d *Definition) ValidateInputs(inputs map[string]any) error {
	byName := make(map[string]InputField, len(d.InputSchema))
	for _, f := range d.InputSchema {
		byName[f.Name] = f
	}
	for name := range inputs {
		if _, ok := byName[name]; !ok {
			return fmt.Errorf("unknown input %q", name)
		}
	}
	for _, f := range d.InputSchema {
		v, ok := inputs[f.Name]
		if !ok {
			if f.Required {
				return fmt.Errorf("missing required input %q", f.Name)
			}
			continue
		}
		if !typeMatches(f.Type, v) {
			return fmt.Errorf("input %q: expected %s, got %T", f.Name, f.Type, v)
		}
	}
	return nil
}

func typeMatches(declared string, v any) bool {
	switch declared {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "bool":
		_, ok := v.(bool)
		return ok
	default:
		return false
	}
}
