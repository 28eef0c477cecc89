package sketch

import (
	"fmt"
	"math"
)

// ControlKind tells what kind of value a control holds and how the host is
// allowed to edit it.
type ControlKind int

const (
	// Checkbox holds a boolean.
	Checkbox ControlKind = iota
	// Slider holds a float within Bounds, optionally quantized to Bounds.Step.
	Slider
	// Select holds one string out of a list of options.
	Select
	// Separator is a purely visual divider on the control panel; it has no
	// value.
	Separator
	// CurveControl is a control whose value is computed every frame from an
	// automation curve, optionally passed through a modulator chain. The host
	// cannot edit it directly, but it can be bound to a controller or bypassed.
	CurveControl
)

var controlKindNames = [...]string{
	Checkbox:     "checkbox",
	Slider:       "slider",
	Select:       "select",
	Separator:    "separator",
	CurveControl: "curve",
}

func (k ControlKind) String() string {
	if k < 0 || int(k) >= len(controlKindNames) {
		return fmt.Sprintf("ControlKind(%d)", int(k))
	}
	return controlKindNames[k]
}

// Interactive reports if the control holds a host-editable value, i.e. it
// takes part in snapshots and randomization.
func (k ControlKind) Interactive() bool {
	return k == Checkbox || k == Slider || k == Select
}

// HasValue reports if the control produces a value at all. Only separators
// do not.
func (k ControlKind) HasValue() bool {
	return k != Separator
}

// Bounds is the range of a slider or a curve control. Step = 0 means the
// value is continuous.
type Bounds struct {
	Min, Max, Step float64
}

// Clamp limits value to [Min, Max].
func (b Bounds) Clamp(value float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, value))
}

// Snap clamps the value and quantizes it to Min + k*Step. The result never
// exceeds Max, even if (Max - Min) is not a multiple of Step.
func (b Bounds) Snap(value float64) float64 {
	value = b.Clamp(value)
	if b.Step <= 0 {
		return value
	}
	k := math.Round((value - b.Min) / b.Step)
	ret := b.Min + k*b.Step
	if ret > b.Max {
		ret -= b.Step
	}
	return b.Clamp(ret)
}

// Normalize maps value from [Min, Max] to [0, 1]. Degenerate bounds map
// everything to 0.
func (b Bounds) Normalize(value float64) float64 {
	if b.Max <= b.Min {
		return 0
	}
	return math.Max(0, math.Min(1, (value-b.Min)/(b.Max-b.Min)))
}

// Denormalize maps n from [0, 1] into the bounds, snapped to Step.
func (b Bounds) Denormalize(n float64) float64 {
	return b.Snap(b.Min + n*(b.Max-b.Min))
}

// Steps returns the number of distinct values the bounds allow minus one,
// or 0 for continuous bounds.
func (b Bounds) Steps() int {
	if b.Step <= 0 || b.Max <= b.Min {
		return 0
	}
	return int(math.Floor((b.Max-b.Min)/b.Step + 1e-9))
}

// Valid reports if the bounds are usable: finite, Min <= Max and Step >= 0.
func (b Bounds) Valid() bool {
	for _, v := range []float64{b.Min, b.Max, b.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Min <= b.Max && b.Step >= 0
}
