package sketch

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Script is the declarative control script of a sketch: an ordered list
	// of named entries. In YAML, a script is a mapping from entry name to a
	// record, and the order of the mapping is the order in which the controls
	// appear on the control panel and in the uniform buffer.
	//
	//	hue:
	//	  type: slider
	//	  range: [0, 1]
	//	  step: 0.01
	//	  default: 0.5
	//	wave:
	//	  type: automate
	//	  loop: loop
	//	  breakpoints:
	//	    - {position: 0, kind: ramp, value: 0}
	//	    - {position: 4, kind: end, value: 1}
	Script struct {
		Entries []Entry
	}

	// Entry is one record of the script. Type tells which of the fields are
	// meaningful; the rest should be left at their zero values.
	Entry struct {
		// Name is the key of the entry in the script mapping. It is unique
		// within a script.
		Name string `yaml:"-"`

		// Type is one of "slider", "checkbox", "select", "separator",
		// "automate", "triangle", "ramp", "random_slewed", "effect" or "mod".
		Type string

		// Label is shown on the control panel instead of the name, if given.
		Label string `yaml:",omitempty"`

		// Range is [min, max] of a slider, of a parametric curve or of a wave
		// folder's output.
		Range []float64 `yaml:",flow,omitempty"`
		Step  float64   `yaml:",omitempty"`

		// Default is the declared base value. Bypassed controls always resolve
		// to it.
		Default *Value `yaml:",omitempty"`

		Options []string `yaml:",flow,omitempty"`

		// Disabled is a small boolean expression over other control names,
		// e.g. "not animate" or "mode == 'noise'".
		Disabled string `yaml:",omitempty"`
		Excluded bool   `yaml:",omitempty"` // opts out of randomization
		Bypassed bool   `yaml:",omitempty"` // pins the control to Default

		// automate
		Loop        string            `yaml:",omitempty"`
		Breakpoints []BreakpointEntry `yaml:",omitempty"`

		// triangle, ramp and random_slewed. Phase is a fraction of the period.
		Beats float64 `yaml:",omitempty"`
		Phase float64 `yaml:",omitempty"`
		Slew  float64 `yaml:",omitempty"`
		Stem  uint64  `yaml:",omitempty"`

		// effect: Kind is "slew_limiter" or "wave_folder".
		Kind       string  `yaml:",omitempty"`
		Rise       float64 `yaml:",omitempty"`
		Fall       float64 `yaml:",omitempty"`
		Gain       float64 `yaml:",omitempty"`
		Iterations int     `yaml:",omitempty"`
		Symmetry   float64 `yaml:",omitempty"`
		Bias       float64 `yaml:",omitempty"`
		Shape      string  `yaml:",omitempty"`

		// mod
		Source     string   `yaml:",omitempty"`
		Modulators []string `yaml:",flow,omitempty"`
	}

	// BreakpointEntry is one knot of an "automate" entry.
	BreakpointEntry struct {
		Position  float64
		Value     float64
		Kind      string
		Easing    string  `yaml:",omitempty"`
		Amplitude float64 `yaml:",omitempty"`
	}
)

// Entry types
const (
	TypeSlider       = "slider"
	TypeCheckbox     = "checkbox"
	TypeSelect       = "select"
	TypeSeparator    = "separator"
	TypeAutomate     = "automate"
	TypeTriangle     = "triangle"
	TypeRamp         = "ramp"
	TypeRandomSlewed = "random_slewed"
	TypeEffect       = "effect"
	TypeMod          = "mod"
)

// ControlKind returns the kind of control the entry declares. Effects are
// not controls, only building blocks for mods, so ok is false for them and
// for unknown types.
func (e *Entry) ControlKind() (kind ControlKind, ok bool) {
	switch e.Type {
	case TypeSlider:
		return Slider, true
	case TypeCheckbox:
		return Checkbox, true
	case TypeSelect:
		return Select, true
	case TypeSeparator:
		return Separator, true
	case TypeAutomate, TypeTriangle, TypeRamp, TypeRandomSlewed, TypeMod:
		return CurveControl, true
	}
	return 0, false
}

// RangeOr returns the declared range, or [min, max] if none was declared.
func (e *Entry) RangeOr(min, max float64) (float64, float64, error) {
	switch len(e.Range) {
	case 0:
		return min, max, nil
	case 2:
		if e.Range[0] > e.Range[1] {
			return 0, 0, errors.Errorf("range [%g, %g] is reversed", e.Range[0], e.Range[1])
		}
		return e.Range[0], e.Range[1], nil
	}
	return 0, 0, errors.Errorf("range should have exactly two elements, got %d", len(e.Range))
}

// Copy makes a deep copy of an entry.
func (e *Entry) Copy() Entry {
	ret := *e
	ret.Range = append([]float64(nil), e.Range...)
	ret.Options = append([]string(nil), e.Options...)
	ret.Breakpoints = append([]BreakpointEntry(nil), e.Breakpoints...)
	ret.Modulators = append([]string(nil), e.Modulators...)
	if e.Default != nil {
		d := *e.Default
		ret.Default = &d
	}
	return ret
}

// Entry finds an entry by name.
func (s *Script) Entry(name string) (*Entry, bool) {
	for i := range s.Entries {
		if s.Entries[i].Name == name {
			return &s.Entries[i], true
		}
	}
	return nil, false
}

// Copy makes a deep copy of a script.
func (s *Script) Copy() Script {
	ret := Script{Entries: make([]Entry, len(s.Entries))}
	for i := range s.Entries {
		ret.Entries[i] = s.Entries[i].Copy()
	}
	return ret
}

func (s *Script) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: script should be a mapping from control names to records", node.Line)
	}
	s.Entries = s.Entries[:0]
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if seen[key.Value] {
			return errors.Errorf("line %d: duplicate control %q", key.Line, key.Value)
		}
		seen[key.Value] = true
		var e Entry
		if err := val.Decode(&e); err != nil {
			return errors.Wrapf(err, "control %q", key.Value)
		}
		e.Name = key.Value
		s.Entries = append(s.Entries, e)
	}
	return nil
}

func (s Script) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i := range s.Entries {
		var val yaml.Node
		if err := val.Encode(&s.Entries[i]); err != nil {
			return nil, errors.Wrapf(err, "control %q", s.Entries[i].Name)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: s.Entries[i].Name}, &val)
	}
	return node, nil
}

// ReadScript decodes a YAML script.
func ReadScript(r io.Reader) (Script, error) {
	var s Script
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		if err == io.EOF {
			return Script{}, nil
		}
		return Script{}, errors.Wrap(err, "could not decode script")
	}
	return s, nil
}

// Write encodes the script as YAML.
func (s *Script) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, "could not encode script")
	}
	return enc.Close()
}
