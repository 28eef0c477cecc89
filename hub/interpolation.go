package hub

import (
	"math"
	"slices"

	"github.com/viterin/vek"
	"github.com/vsariola/sketch"
)

// Interpolation is a transition of a set of controls from one state to
// another over a musical duration. Float values are interpolated linearly;
// booleans and options hold their from value until the transition ends.
type Interpolation struct {
	Start, Duration float64

	names    []string
	index    map[string]int
	from, to []sketch.Value

	// float lanes, kept for vectorised evaluation
	fromF, toF, cur []float64
	curBeats        float64
	curValid        bool
}

func newInterpolation(start, duration float64) *Interpolation {
	return &Interpolation{Start: start, Duration: duration, index: map[string]int{}}
}

func (ip *Interpolation) add(name string, from, to sketch.Value) {
	ip.index[name] = len(ip.names)
	ip.names = append(ip.names, name)
	ip.from = append(ip.from, from)
	ip.to = append(ip.to, to)
	ip.fromF = append(ip.fromF, from.Float())
	ip.toF = append(ip.toF, to.Float())
	ip.cur = append(ip.cur, 0)
	ip.curValid = false
}

func (ip *Interpolation) remove(name string) {
	i, ok := ip.index[name]
	if !ok {
		return
	}
	ip.names = slices.Delete(ip.names, i, i+1)
	ip.from = slices.Delete(ip.from, i, i+1)
	ip.to = slices.Delete(ip.to, i, i+1)
	ip.fromF = slices.Delete(ip.fromF, i, i+1)
	ip.toF = slices.Delete(ip.toF, i, i+1)
	ip.cur = slices.Delete(ip.cur, i, i+1)
	delete(ip.index, name)
	for j := i; j < len(ip.names); j++ {
		ip.index[ip.names[j]] = j
	}
	ip.curValid = false
}

func (ip *Interpolation) Len() int { return len(ip.names) }

// Target returns the value the control is moving towards, if the
// interpolation reaches it.
func (ip *Interpolation) Target(name string) (sketch.Value, bool) {
	i, ok := ip.index[name]
	if !ok {
		return sketch.Value{}, false
	}
	return ip.to[i], true
}

// Progress is clamp((beats - Start) / Duration, 0, 1).
func (ip *Interpolation) Progress(beats float64) float64 {
	if ip.Duration <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, (beats-ip.Start)/ip.Duration))
}

func (ip *Interpolation) Done(beats float64) bool { return ip.Progress(beats) >= 1 }

// Value returns the interpolated value of the control at the given
// position. Progress 0 gives exactly the from value, progress 1 exactly the
// to value.
func (ip *Interpolation) Value(name string, beats float64) (sketch.Value, bool) {
	i, ok := ip.index[name]
	if !ok {
		return sketch.Value{}, false
	}
	t := ip.Progress(beats)
	from, to := ip.from[i], ip.to[i]
	if t <= 0 || t >= 1 || from.Kind() != sketch.FloatKind || to.Kind() != sketch.FloatKind {
		return sketch.Lerp(from, to, t), true
	}
	ip.update(beats, t)
	return sketch.FloatValue(ip.cur[i]), true
}

// update evaluates all float lanes at once; the result is cached until the
// position changes.
func (ip *Interpolation) update(beats, t float64) {
	if ip.curValid && ip.curBeats == beats {
		return
	}
	vek.Sub_Into(ip.cur, ip.toF, ip.fromF)
	vek.MulNumber_Inplace(ip.cur, t)
	vek.Add_Inplace(ip.cur, ip.fromF)
	ip.curBeats, ip.curValid = beats, true
}

// interpolated returns the value of c under the active interpolation, if
// the interpolation reaches it.
func (h *Hub) interpolated(c *Control) (sketch.Value, bool) {
	if h.interp == nil || !c.Kind.Interactive() {
		return sketch.Value{}, false
	}
	return h.interp.Value(c.Name, h.clock.Beats())
}

// startInterpolation replaces the active interpolation with a transition
// from the current resolved values to target, starting now.
func (h *Hub) startInterpolation(target map[string]sketch.Value) {
	ip := newInterpolation(h.clock.Beats(), h.transitionBeats)
	for c := range h.reg.All() {
		to, ok := target[c.Name]
		if !ok || !c.Kind.Interactive() {
			continue
		}
		if c.Bypassed && h.opts.BypassSkipsTransitions {
			continue
		}
		ip.add(c.Name, h.resolveUnbypassed(c), to)
	}
	h.interp = ip
	if ip.Done(h.clock.Beats()) {
		h.finishInterpolation()
	}
}

// finishInterpolation commits the targets into the base values. The
// controller overrides of those controls are cleared, and the controller is
// told about the new values at the end of the frame.
func (h *Hub) finishInterpolation() {
	ip := h.interp
	if ip == nil {
		return
	}
	h.interp = nil
	for i, name := range ip.names {
		if c, ok := h.reg.Control(name); ok {
			c.base = ip.to[i]
			delete(h.overrides, name)
		}
	}
	h.resendPending = true
}

// freezeInterpolation stops the active interpolation where it is now,
// writing the current interpolated values into the base values.
func (h *Hub) freezeInterpolation() {
	ip := h.interp
	if ip == nil {
		return
	}
	beats := h.clock.Beats()
	h.interp = nil
	for _, name := range ip.names {
		c, ok := h.reg.Control(name)
		if !ok {
			continue
		}
		if v, ok := ip.Value(name, beats); ok {
			c.base = v
			delete(h.overrides, name)
		}
	}
}
