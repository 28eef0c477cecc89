package sketch_test

import (
	"math"
	"testing"

	"github.com/vsariola/sketch"
)

func TestBoundsSnap(t *testing.T) {
	cases := []struct {
		b    sketch.Bounds
		in   float64
		want float64
	}{
		{sketch.Bounds{Min: 0, Max: 1}, 0.37, 0.37},
		{sketch.Bounds{Min: 0, Max: 1}, 2, 1},
		{sketch.Bounds{Min: 0, Max: 1}, -2, 0},
		{sketch.Bounds{Min: 0, Max: 1, Step: 0.25}, 0.3, 0.25},
		{sketch.Bounds{Min: 0, Max: 1, Step: 0.4}, 1, 0.8},
		{sketch.Bounds{Min: 1, Max: 8, Step: 0.5}, 2.3, 2.5},
	}
	for _, c := range cases {
		if got := c.b.Snap(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%+v.Snap(%v) = %v, want %v", c.b, c.in, got, c.want)
		}
	}
}

func TestBoundsNormalize(t *testing.T) {
	b := sketch.Bounds{Min: 2, Max: 6, Step: 1}
	if n := b.Normalize(3); n != 0.25 {
		t.Fatalf("normalize = %v", n)
	}
	if d := b.Denormalize(0.3); d != 3 {
		t.Fatalf("denormalize = %v", d)
	}
	if b.Steps() != 4 {
		t.Fatalf("steps = %d", b.Steps())
	}
	if (sketch.Bounds{Min: 1, Max: 1}).Normalize(5) != 0 {
		t.Fatal("degenerate bounds should normalize to 0")
	}
}

func TestBoundsValid(t *testing.T) {
	for _, b := range []sketch.Bounds{
		{Min: 1, Max: 0},
		{Min: 0, Max: 1, Step: -1},
		{Min: math.NaN(), Max: 1},
		{Min: 0, Max: math.Inf(1)},
	} {
		if b.Valid() {
			t.Errorf("%+v is valid", b)
		}
	}
	if !(sketch.Bounds{Min: 0, Max: 0}).Valid() {
		t.Error("point bounds should be valid")
	}
}

func TestControlKind(t *testing.T) {
	if sketch.Separator.HasValue() || sketch.Separator.Interactive() {
		t.Fatal("separators have no value")
	}
	if sketch.CurveControl.Interactive() || !sketch.Slider.Interactive() {
		t.Fatal("only checkboxes, sliders and selects are interactive")
	}
	if sketch.CurveControl.String() != "curve" || sketch.ControlKind(9).String() != "ControlKind(9)" {
		t.Fatal("kind names")
	}
}
