package automation

import (
	"math"

	"github.com/pkg/errors"
)

// Easing shapes the interpolation fraction of a ramp segment. The zero
// value is Linear.
type Easing int

const (
	Linear Easing = iota
	EaseIn
	EaseOut
	EaseInOut
	CubicIn
	CubicOut
	CubicInOut
	SineIn
	SineOut
	SineInOut
	ExpoIn
	ExpoOut
	numEasings
)

var easingNames = [numEasings]string{
	"linear", "ease_in", "ease_out", "ease_in_out",
	"cubic_in", "cubic_out", "cubic_in_out",
	"sine_in", "sine_out", "sine_in_out",
	"expo_in", "expo_out",
}

// ParseEasing finds an easing by name; "" is Linear.
func ParseEasing(name string) (Easing, error) {
	if name == "" {
		return Linear, nil
	}
	for i, n := range easingNames {
		if n == name {
			return Easing(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidCurve, "unknown easing %q", name)
}

func (e Easing) Valid() bool { return e >= 0 && e < numEasings }

func (e Easing) String() string {
	if !e.Valid() {
		return "linear"
	}
	return easingNames[e]
}

// Apply maps the fraction t in [0, 1] through the easing. Apply(0) = 0 and
// Apply(1) = 1 for every easing, so ramps stay continuous at breakpoints.
func (e Easing) Apply(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return t * (2 - t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case CubicIn:
		return t * t * t
	case CubicOut:
		u := t - 1
		return u*u*u + 1
	case CubicInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		u := 2*t - 2
		return 0.5*u*u*u + 1
	case SineIn:
		return 1 - math.Cos(t*math.Pi/2)
	case SineOut:
		return math.Sin(t * math.Pi / 2)
	case SineInOut:
		return 0.5 * (1 - math.Cos(math.Pi*t))
	case ExpoIn:
		return expo(t)
	case ExpoOut:
		return 1 - expo(1-t)
	}
	return t
}

// expo is 2^(10t) rescaled to pass exactly through (0, 0) and (1, 1).
func expo(t float64) float64 {
	return (math.Pow(2, 10*t) - 1) / 1023
}
