package automation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
)

type (
	// Signal is anything that gives a value as a function of musical time.
	Signal interface {
		At(beats float64) float64
		// Range returns the smallest and largest values the signal can
		// produce.
		Range() (min, max float64)
	}

	// Curve is a breakpoint automation curve. The zero value is not usable;
	// build curves with NewCurve, which validates the breakpoints.
	Curve struct {
		breakpoints []Breakpoint
		drawn       []float64 // value of each breakpoint's segment, random segments drawn once
		loop        LoopMode
		phase       float64
		stem        uint64
	}

	// Breakpoint is one knot of a curve. Position is in beats. Easing is only
	// used by Ramp breakpoints, Amplitude only by Random breakpoints.
	Breakpoint struct {
		Position  float64
		Value     float64
		Kind      Kind
		Easing    Easing
		Amplitude float64
	}

	// Kind tells how the segment starting from a breakpoint is evaluated.
	Kind int

	// LoopMode tells what happens when time goes past the end breakpoint.
	LoopMode int
)

const (
	Ramp Kind = iota
	Step
	Random
	End
)

const (
	Once LoopMode = iota
	Loop
	PingPong
)

// ErrInvalidCurve is returned for malformed breakpoint sequences and
// modulator parameters.
var ErrInvalidCurve = errors.New("invalid curve")

var kindNames = map[string]Kind{"ramp": Ramp, "step": Step, "random": Random, "end": End}

func ParseKind(s string) (Kind, error) {
	if k, ok := kindNames[s]; ok {
		return k, nil
	}
	return 0, errors.Wrapf(ErrInvalidCurve, "unknown breakpoint kind %q", s)
}

func (k Kind) String() string {
	for name, v := range kindNames {
		if v == k {
			return name
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseLoopMode(s string) (LoopMode, error) {
	switch s {
	case "", "once":
		return Once, nil
	case "loop":
		return Loop, nil
	case "ping_pong", "pingpong", "ping-pong":
		return PingPong, nil
	}
	return 0, errors.Wrapf(ErrInvalidCurve, "unknown loop mode %q", s)
}

func (m LoopMode) String() string {
	switch m {
	case Once:
		return "once"
	case Loop:
		return "loop"
	case PingPong:
		return "ping_pong"
	}
	return fmt.Sprintf("LoopMode(%d)", int(m))
}

// NewCurve validates the breakpoints and returns a curve. There should be at
// least two breakpoints, positions should be strictly increasing and the
// last breakpoint, and only it, should be of kind End. phase shifts the
// curve in time (beats). stem seeds the random segments; two curves with the
// same stem and breakpoints produce the same random values.
func NewCurve(breakpoints []Breakpoint, loop LoopMode, phase float64, stem uint64) (*Curve, error) {
	if len(breakpoints) < 2 {
		return nil, errors.Wrapf(ErrInvalidCurve, "need at least two breakpoints, got %d", len(breakpoints))
	}
	if loop < Once || loop > PingPong {
		return nil, errors.Wrapf(ErrInvalidCurve, "unknown loop mode %d", int(loop))
	}
	if !finite(phase) {
		return nil, errors.Wrap(ErrInvalidCurve, "phase is not finite")
	}
	for i, b := range breakpoints {
		if !finite(b.Position) || !finite(b.Value) || !finite(b.Amplitude) {
			return nil, errors.Wrapf(ErrInvalidCurve, "breakpoint %d: non-finite number", i)
		}
		if b.Kind < Ramp || b.Kind > End {
			return nil, errors.Wrapf(ErrInvalidCurve, "breakpoint %d: unknown kind %d", i, int(b.Kind))
		}
		if !b.Easing.Valid() {
			return nil, errors.Wrapf(ErrInvalidCurve, "breakpoint %d: unknown easing %d", i, int(b.Easing))
		}
		if b.Amplitude < 0 {
			return nil, errors.Wrapf(ErrInvalidCurve, "breakpoint %d: negative amplitude", i)
		}
		last := i == len(breakpoints)-1
		if (b.Kind == End) != last {
			if last {
				return nil, errors.Wrap(ErrInvalidCurve, "last breakpoint should be of kind end")
			}
			return nil, errors.Wrapf(ErrInvalidCurve, "breakpoint %d: only the last breakpoint can be of kind end", i)
		}
		if i > 0 && b.Position <= breakpoints[i-1].Position {
			return nil, errors.Wrapf(ErrInvalidCurve, "breakpoint %d: position %g is not after %g", i, b.Position, breakpoints[i-1].Position)
		}
	}
	c := &Curve{
		breakpoints: append([]Breakpoint(nil), breakpoints...),
		drawn:       make([]float64, len(breakpoints)),
		loop:        loop,
		phase:       phase,
		stem:        stem,
	}
	for i, b := range c.breakpoints {
		c.drawn[i] = b.Value
		if b.Kind == Random {
			r := rand.New(rand.NewPCG(stem, uint64(i)))
			c.drawn[i] = b.Value + (2*r.Float64()-1)*b.Amplitude
		}
	}
	return c, nil
}

func (c *Curve) Breakpoints() []Breakpoint { return c.breakpoints }
func (c *Curve) LoopMode() LoopMode        { return c.loop }

// Duration is the position of the end breakpoint; looping curves repeat with
// this period.
func (c *Curve) Duration() float64 {
	return c.breakpoints[len(c.breakpoints)-1].Position
}

// At evaluates the curve at the given musical position.
func (c *Curve) At(beats float64) float64 {
	t := c.reduce(beats + c.phase)
	bps := c.breakpoints
	// i is the last breakpoint at or before t
	i := sort.Search(len(bps), func(i int) bool { return bps[i].Position > t }) - 1
	if i < 0 {
		return c.drawn[0]
	}
	p0 := bps[i]
	if p0.Kind == End || i == len(bps)-1 {
		return p0.Value
	}
	switch p0.Kind {
	case Step, Random:
		return c.drawn[i]
	}
	p1 := bps[i+1]
	frac := (t - p0.Position) / (p1.Position - p0.Position)
	return p0.Value + (p1.Value-p0.Value)*p0.Easing.Apply(frac)
}

// reduce maps t into the domain of the curve according to the loop mode.
func (c *Curve) reduce(t float64) float64 {
	d := c.Duration()
	if d <= 0 {
		return t
	}
	switch c.loop {
	case Loop:
		t = math.Mod(t, d)
		if t < 0 {
			t += d
		}
	case PingPong:
		cycle := math.Floor(t / d)
		r := t - cycle*d
		if math.Mod(math.Abs(cycle), 2) == 1 {
			r = d - r
		}
		t = r
	}
	return t
}

func (c *Curve) Range() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, b := range c.breakpoints {
		lo, hi := b.Value, b.Value
		if b.Kind == Random {
			lo, hi = b.Value-b.Amplitude, b.Value+b.Amplitude
		}
		min, max = math.Min(min, lo), math.Max(max, hi)
	}
	return min, max
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
