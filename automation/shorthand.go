package automation

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// TriangleCurve returns a looping curve going from min to max and back to
// min every period beats. phase is a fraction of the period.
func TriangleCurve(period, min, max, phase float64) (*Curve, error) {
	if !(period > 0) {
		return nil, errors.Wrapf(ErrInvalidCurve, "triangle period should be positive, got %g", period)
	}
	return NewCurve([]Breakpoint{
		{Position: 0, Value: min, Kind: Ramp},
		{Position: period / 2, Value: max, Kind: Ramp},
		{Position: period, Value: min, Kind: End},
	}, Loop, phase*period, 0)
}

// RampCurve returns a looping sawtooth curve rising from min to max every
// period beats. phase is a fraction of the period.
func RampCurve(period, min, max, phase float64) (*Curve, error) {
	if !(period > 0) {
		return nil, errors.Wrapf(ErrInvalidCurve, "ramp period should be positive, got %g", period)
	}
	return NewCurve([]Breakpoint{
		{Position: 0, Value: min, Kind: Ramp},
		{Position: period, Value: max, Kind: End},
	}, Loop, phase*period, 0)
}

// RandomSlewed draws a new random value in [Min, Max] every Beats beats and
// glides linearly from the previous value to the new one during the first
// Slew fraction of each period. Slew = 0 jumps immediately. Draws are seeded
// with (Stem, period index), so the signal is a pure function of time.
type RandomSlewed struct {
	Beats    float64
	Min, Max float64
	Slew     float64
	Stem     uint64
}

func NewRandomSlewed(beats, min, max, slew float64, stem uint64) (*RandomSlewed, error) {
	switch {
	case !(beats > 0):
		return nil, errors.Wrapf(ErrInvalidCurve, "random_slewed period should be positive, got %g", beats)
	case !finite(min) || !finite(max) || min > max:
		return nil, errors.Wrapf(ErrInvalidCurve, "random_slewed range [%g, %g] is invalid", min, max)
	case !(slew >= 0 && slew <= 1):
		return nil, errors.Wrapf(ErrInvalidCurve, "random_slewed slew should be in [0, 1], got %g", slew)
	}
	return &RandomSlewed{Beats: beats, Min: min, Max: max, Slew: slew, Stem: stem}, nil
}

func (r *RandomSlewed) At(beats float64) float64 {
	pos := beats / r.Beats
	n := math.Floor(pos)
	cur := r.draw(int64(n))
	frac := pos - n
	if r.Slew <= 0 || frac >= r.Slew {
		return cur
	}
	prev := r.draw(int64(n) - 1)
	return prev + (cur-prev)*(frac/r.Slew)
}

func (r *RandomSlewed) Range() (min, max float64) { return r.Min, r.Max }

func (r *RandomSlewed) draw(i int64) float64 {
	g := rand.New(rand.NewPCG(r.Stem, uint64(i)))
	return r.Min + g.Float64()*(r.Max-r.Min)
}
