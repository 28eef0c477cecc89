package automation

import (
	"fmt"
	"math"
	"slices"

	"github.com/pkg/errors"
)

type (
	// Effect is one modulator in a chain. The set of effects is closed: Kind
	// tells which of the fields are used.
	//
	// A slew limiter limits how fast the value can change: Rise and Fall are
	// the maximum increase and decrease in value per beat. A rate <= 0 means
	// no limit in that direction.
	//
	// A wave folder computes Gain*input + Bias and folds any excursion outside
	// [Min, Max] back inside by reflection, up to Iterations times. Symmetry
	// in (-1, 1) moves the fold pivot from the middle of the range towards Max
	// (positive) or Min (negative). Shape selects the fold curve.
	Effect struct {
		Kind EffectKind

		Rise, Fall float64

		Gain       float64
		Iterations int
		Symmetry   float64
		Bias       float64
		Shape      FoldShape
		Min, Max   float64
	}

	EffectKind int
	FoldShape  int

	// Chain applies effects left to right, keeping the per-effect state from
	// one frame to the next.
	Chain struct {
		effects []Effect
		state   []effectState
	}

	effectState struct {
		primed    bool
		last      float64
		lastBeats float64
	}
)

const (
	SlewLimiter EffectKind = iota
	WaveFolder
)

const (
	FoldTriangle FoldShape = iota
	FoldSine
)

func ParseEffectKind(s string) (EffectKind, error) {
	switch s {
	case "slew_limiter":
		return SlewLimiter, nil
	case "wave_folder":
		return WaveFolder, nil
	}
	return 0, errors.Wrapf(ErrInvalidCurve, "unknown effect kind %q", s)
}

func ParseFoldShape(s string) (FoldShape, error) {
	switch s {
	case "", "triangle":
		return FoldTriangle, nil
	case "sine":
		return FoldSine, nil
	}
	return 0, errors.Wrapf(ErrInvalidCurve, "unknown fold shape %q", s)
}

func (k EffectKind) String() string {
	switch k {
	case SlewLimiter:
		return "slew_limiter"
	case WaveFolder:
		return "wave_folder"
	}
	return fmt.Sprintf("EffectKind(%d)", int(k))
}

// Validate checks the parameters of the effect.
func (e *Effect) Validate() error {
	for _, v := range []float64{e.Rise, e.Fall, e.Gain, e.Symmetry, e.Bias, e.Min, e.Max} {
		if !finite(v) {
			return errors.Wrapf(ErrInvalidCurve, "%v: non-finite parameter", e.Kind)
		}
	}
	switch e.Kind {
	case SlewLimiter:
		return nil
	case WaveFolder:
		if e.Min >= e.Max {
			return errors.Wrapf(ErrInvalidCurve, "wave_folder: range [%g, %g] is empty", e.Min, e.Max)
		}
		if e.Iterations < 0 {
			return errors.Wrapf(ErrInvalidCurve, "wave_folder: negative iterations %d", e.Iterations)
		}
		if e.Symmetry <= -1 || e.Symmetry >= 1 {
			return errors.Wrapf(ErrInvalidCurve, "wave_folder: symmetry should be in (-1, 1), got %g", e.Symmetry)
		}
		if e.Shape != FoldTriangle && e.Shape != FoldSine {
			return errors.Wrapf(ErrInvalidCurve, "wave_folder: unknown shape %d", int(e.Shape))
		}
		return nil
	}
	return errors.Wrapf(ErrInvalidCurve, "unknown effect kind %d", int(e.Kind))
}

func NewChain(effects ...Effect) *Chain {
	return &Chain{
		effects: append([]Effect(nil), effects...),
		state:   make([]effectState, len(effects)),
	}
}

func (c *Chain) Len() int { return len(c.effects) }

// Process runs the input through the chain. beats is the current musical
// position; stateful effects use the time elapsed since the previous call,
// so calling Process twice at the same position does not move a slew
// limiter. Time going backwards (clock reset, curve loop) re-primes the
// state with the input.
func (c *Chain) Process(input, beats float64) float64 {
	v := input
	for i := range c.effects {
		e := &c.effects[i]
		switch e.Kind {
		case SlewLimiter:
			v = e.slew(&c.state[i], v, beats)
		case WaveFolder:
			v = e.fold(v)
		}
	}
	return v
}

// Adopt takes over the state of o if both chains run the same effects, so
// that a rebuilt chain continues where the old one left off.
func (c *Chain) Adopt(o *Chain) bool {
	if o == nil || !slices.Equal(c.effects, o.effects) {
		return false
	}
	copy(c.state, o.state)
	return true
}

// Reset forgets the state of all effects.
func (c *Chain) Reset() {
	for i := range c.state {
		c.state[i] = effectState{}
	}
}

func (e *Effect) slew(s *effectState, input, beats float64) float64 {
	if !s.primed || beats < s.lastBeats {
		*s = effectState{primed: true, last: input, lastBeats: beats}
		return input
	}
	dt := beats - s.lastBeats
	s.lastBeats = beats
	delta := input - s.last
	if delta > 0 && e.Rise > 0 {
		delta = math.Min(delta, e.Rise*dt)
	} else if delta < 0 && e.Fall > 0 {
		delta = math.Max(delta, -e.Fall*dt)
	}
	s.last += delta
	return s.last
}

func (e *Effect) fold(input float64) float64 {
	x := e.Gain*input + e.Bias
	half := (e.Max - e.Min) / 2
	pivot := e.Min + half + e.Symmetry*half
	up, down := e.Max-pivot, pivot-e.Min
	var y float64
	if x >= pivot {
		y = (x - pivot) / up
	} else {
		y = (x - pivot) / down
	}
	switch e.Shape {
	case FoldSine:
		for i := 0; i < e.Iterations; i++ {
			y = math.Sin(y * math.Pi / 2)
		}
	default:
		for i := 0; i < e.Iterations && (y > 1 || y < -1); i++ {
			if y > 1 {
				y = 2 - y
			} else {
				y = -2 - y
			}
		}
	}
	y = math.Max(-1, math.Min(1, y))
	if y >= 0 {
		return pivot + y*up
	}
	return pivot + y*down
}
