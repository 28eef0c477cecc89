package sketch

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Value is the value of a control: a float for sliders and curves, a bool
	// for checkboxes and a string for selects. In YAML and JSON, a Value is
	// just the plain scalar, so persisted states read as a flat name -> value
	// mapping.
	Value struct {
		kind ValueKind
		f    float64
		b    bool
		s    string
	}

	ValueKind int
)

const (
	NoValue ValueKind = iota
	FloatKind
	BoolKind
	StringKind
)

func FloatValue(f float64) Value   { return Value{kind: FloatKind, f: f} }
func BoolValue(b bool) Value       { return Value{kind: BoolKind, b: b} }
func StringValue(s string) Value   { return Value{kind: StringKind, s: s} }
func (v Value) Kind() ValueKind    { return v.kind }
func (v Value) IsZero() bool       { return v.kind == NoValue }
func (v Value) Text() string       { return v.s }
func (v Value) Equal(o Value) bool { return v == o }

// Float returns the numeric form of the value: booleans are 0 or 1, strings
// are 0. Select controls need the option index instead, see Control.Number
// in the hub package.
func (v Value) Float() float64 {
	switch v.kind {
	case FloatKind:
		return v.f
	case BoolKind:
		if v.b {
			return 1
		}
	}
	return 0
}

// Bool returns the truthiness of the value: the bool itself, a non-zero
// float or a non-empty string.
func (v Value) Bool() bool {
	switch v.kind {
	case BoolKind:
		return v.b
	case FloatKind:
		return v.f != 0
	case StringKind:
		return v.s != ""
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case FloatKind:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case BoolKind:
		return strconv.FormatBool(v.b)
	case StringKind:
		return v.s
	}
	return "<none>"
}

// Lerp interpolates linearly between two values. Floats are interpolated;
// bools and strings hold from until t reaches 1. t is clamped to [0, 1] and
// t = 1 returns exactly to.
func Lerp(from, to Value, t float64) Value {
	if t >= 1 || from.kind == NoValue {
		return to
	}
	if t <= 0 {
		return from
	}
	if from.kind == FloatKind && to.kind == FloatKind {
		return FloatValue(from.f + (to.f-from.f)*t)
	}
	return from
}

func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case FloatKind:
		return v.f, nil
	case BoolKind:
		return v.b, nil
	case StringKind:
		return v.s, nil
	}
	return nil, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: value should be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = FloatValue(f)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case "!!null":
		*v = Value{}
	default:
		*v = StringValue(node.Value)
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case FloatKind:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	case BoolKind:
		return json.Marshal(v.b)
	case StringKind:
		return json.Marshal(v.s)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch r := raw.(type) {
	case float64:
		*v = FloatValue(r)
	case bool:
		*v = BoolValue(r)
	case string:
		*v = StringValue(r)
	case nil:
		*v = Value{}
	default:
		return errors.Errorf("value should be a number, a bool or a string, got %s", string(data))
	}
	return nil
}
