package hub

import (
	"github.com/pkg/errors"
	"github.com/viterin/vek/vek32"
	"github.com/vsariola/sketch"
)

// Resolve returns the value of a control with every source of truth
// applied, highest precedence first:
//
//  1. bypass: the declared default
//  2. the active interpolation, if it reaches the control
//  3. the controller override, if the control is bound and the bridge is enabled
//  4. the curve or modulation output
//  5. the base value
//
// Resolve does not change any state, so it returns the same value until
// the next frame or host command.
func (h *Hub) Resolve(name string) (sketch.Value, error) {
	c, ok := h.reg.Control(name)
	if !ok {
		return sketch.Value{}, errors.Wrapf(ErrUnknownControl, "%q", name)
	}
	return h.resolve(c), nil
}

func (h *Hub) resolve(c *Control) sketch.Value {
	if !c.Kind.HasValue() {
		return sketch.Value{}
	}
	if c.Bypassed {
		return c.Default
	}
	return h.resolveUnbypassed(c)
}

func (h *Hub) resolveUnbypassed(c *Control) sketch.Value {
	if v, ok := h.interpolated(c); ok {
		return v
	}
	if h.bridgeOn {
		if v, ok := h.overrides[c.Name]; ok {
			return v
		}
	}
	if c.signal != nil {
		return sketch.FloatValue(c.curve)
	}
	return c.base
}

// Values returns the values committed by the last frame.
func (h *Hub) Values() map[string]sketch.Value {
	ret := make(map[string]sketch.Value, h.reg.Len())
	for c := range h.reg.All() {
		if c.Kind.HasValue() {
			ret[c.Name] = c.value
		}
	}
	return ret
}

// UniformNames lists the controls fed to the renderer, in the order of
// Uniforms.
func (h *Hub) UniformNames() []string {
	var ret []string
	for c := range h.reg.All() {
		if c.Kind.HasValue() {
			ret = append(ret, c.Name)
		}
	}
	return ret
}

// Uniforms writes the numeric form of the committed values into dst, in
// declaration order with separators skipped, and returns it. dst is grown
// if needed.
func (h *Hub) Uniforms(dst []float32) []float32 {
	nums := make([]float64, 0, h.reg.Len())
	for c := range h.reg.All() {
		if c.Kind.HasValue() {
			nums = append(nums, c.Number(c.value))
		}
	}
	if cap(dst) < len(nums) {
		dst = make([]float32, len(nums))
	}
	return vek32.FromFloat64_Into(dst[:len(nums)], nums)
}

// SetValue edits the base value of a control. The controller override of
// the control is cleared and an active transition no longer moves it.
func (h *Hub) SetValue(name string, v sketch.Value) error {
	c, ok := h.reg.Control(name)
	if !ok {
		return errors.Wrapf(ErrUnknownControl, "%q", name)
	}
	v, err := c.Coerce(v)
	if err != nil {
		return err
	}
	c.base = v
	delete(h.overrides, name)
	if h.interp != nil {
		h.interp.remove(name)
	}
	return nil
}

// Bypass returns a Bool pinning the control to its declared default. For
// unknown controls, the Bool is disabled.
func (h *Hub) Bypass(name string) Bool {
	c, ok := h.reg.Control(name)
	if !ok || !c.Kind.HasValue() {
		return Bool{}
	}
	return MakeBool((*bypass)(c))
}

type bypass Control

func (b *bypass) Value() bool     { return b.Bypassed }
func (b *bypass) SetValue(v bool) { b.Bypassed = v }
