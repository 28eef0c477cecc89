package hub

import "math"

// Enabler is an interface that defines a single Enabled() method, which is used
// by the control surface to check if an Action/Bool/Float is enabled or not.
type Enabler interface {
	Enabled() bool
}

// Action

type (
	// Action describes a host action that can be performed on the hub, which
	// can be initiated by calling the Do() method. Action advertises whether
	// it is enabled, so the control surface can e.g. gray out buttons when the
	// underlying action is not allowed. The underlying Doer can optionally
	// implement the Enabler interface to decide if the action is enabled or
	// not; if it does not implement the Enabler interface, the action is
	// always allowed.
	Action struct {
		doer Doer
	}

	// Doer is an interface that defines a single Do() method, which is called
	// when an action is performed.
	Doer interface {
		Do()
	}
)

func MakeAction(doer Doer) Action { return Action{doer: doer} }

func (a Action) Do() {
	e, ok := a.doer.(Enabler)
	if ok && !e.Enabled() {
		return
	}
	if a.doer != nil {
		a.doer.Do()
	}
}

func (a Action) Enabled() bool {
	if a.doer == nil {
		return false // no doer, not allowed
	}
	e, ok := a.doer.(Enabler)
	if !ok {
		return true // not enabler, always allowed
	}
	return e.Enabled()
}

// Bool

type (
	Bool struct {
		value BoolValue
	}

	BoolValue interface {
		Value() bool
		SetValue(bool)
	}
)

func MakeBool(value BoolValue) Bool { return Bool{value: value} }
func (v Bool) Toggle()              { v.SetValue(!v.Value()) }

func (v Bool) SetValue(value bool) (changed bool) {
	if !v.Enabled() || v.Value() == value {
		return false
	}
	v.value.SetValue(value)
	return true
}

func (v Bool) Value() bool {
	if v.value == nil {
		return false
	}
	return v.value.Value()
}

func (v Bool) Enabled() bool {
	if v.value == nil {
		return false
	}
	e, ok := v.value.(Enabler)
	if !ok {
		return true
	}
	return e.Enabled()
}

// Float

type (
	// Float represents a real valued setting of the hub e.g. tempo or
	// transition time. Float guards that all changes are within the range of
	// the underlying FloatValue and that SetValue is not called when the value
	// is unchanged.
	Float struct {
		value FloatValue
	}

	FloatValue interface {
		Value() float64
		SetValue(float64) (changed bool)
		Range() FloatRange
	}

	FloatRange struct {
		Min, Max float64
	}
)

func MakeFloat(value FloatValue) Float { return Float{value} }

func (v Float) Add(delta float64) (changed bool) {
	return v.SetValue(v.Value() + delta)
}

func (v Float) SetValue(value float64) (changed bool) {
	if v.value == nil || math.IsNaN(value) {
		return false
	}
	value = v.Range().Clamp(value)
	if value == v.Value() {
		return false
	}
	return v.value.SetValue(value)
}

func (v Float) Range() FloatRange {
	if v.value == nil {
		return FloatRange{0, 0}
	}
	return v.value.Range()
}

func (v Float) Value() float64 {
	if v.value == nil {
		return 0
	}
	return v.value.Value()
}

func (r FloatRange) Clamp(value float64) float64 {
	return math.Max(math.Min(value, r.Max), r.Min)
}
