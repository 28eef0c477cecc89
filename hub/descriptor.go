package hub

import (
	"strings"

	"github.com/vsariola/sketch"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ControlDescriptor describes a control for the control surface.
type ControlDescriptor struct {
	Name     string       `json:"name"`
	Label    string       `json:"label"`
	Kind     string       `json:"kind"`
	Min      float64      `json:"min"`
	Max      float64      `json:"max"`
	Step     float64      `json:"step,omitempty"`
	Options  []string     `json:"options,omitempty"`
	Default  sketch.Value `json:"default"`
	Value    sketch.Value `json:"value"`
	Disabled bool         `json:"disabled"`
	Excluded bool         `json:"excluded,omitempty"`
	Bypassed bool         `json:"bypassed,omitempty"`
	Curve    bool         `json:"curve,omitempty"`
	Binding  *ChannelID   `json:"binding,omitempty"`
}

// Label returns the declared label of a control, or a title cased version
// of its name: "grid_size" becomes "Grid Size".
func Label(c *Control) string {
	if c.Label != "" {
		return c.Label
	}
	return cases.Title(language.English).String(strings.ReplaceAll(c.Name, "_", " "))
}

// Controls describes every control in declaration order, separators
// included.
func (h *Hub) Controls() []ControlDescriptor {
	ret := make([]ControlDescriptor, 0, h.reg.Len())
	for c := range h.reg.All() {
		d := ControlDescriptor{
			Name:     c.Name,
			Label:    Label(c),
			Kind:     c.Kind.String(),
			Min:      c.Bounds.Min,
			Max:      c.Bounds.Max,
			Step:     c.Bounds.Step,
			Options:  c.Options,
			Default:  c.Default,
			Value:    c.value,
			Disabled: c.isDisabled,
			Excluded: c.Excluded,
			Bypassed: c.Bypassed,
			Curve:    c.signal != nil,
		}
		if id, ok := h.bindings.Channel(c.Name); ok {
			d.Binding = &id
		}
		ret = append(ret, d)
	}
	return ret
}
