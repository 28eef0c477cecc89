package automation_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/vsariola/sketch/automation"
)

const epsilon = 1e-9

func mustCurve(t *testing.T, bps []automation.Breakpoint, loop automation.LoopMode) *automation.Curve {
	t.Helper()
	c, err := automation.NewCurve(bps, loop, 0, 1)
	if err != nil {
		t.Fatalf("NewCurve failed: %v", err)
	}
	return c
}

func upDown() []automation.Breakpoint {
	return []automation.Breakpoint{
		{Position: 0, Value: 0, Kind: automation.Ramp},
		{Position: 4, Value: 1, Kind: automation.Ramp},
		{Position: 8, Value: 0, Kind: automation.End},
	}
}

func TestCurveUpDownOnce(t *testing.T) {
	c := mustCurve(t, upDown(), automation.Once)
	for _, tc := range []struct{ at, want float64 }{
		{0, 0}, {2, 0.5}, {4, 1}, {6, 0.5}, {8, 0}, {10, 0}, {-3, 0},
	} {
		if got := c.At(tc.at); math.Abs(got-tc.want) > epsilon {
			t.Errorf("At(%v) = %v, want %v", tc.at, got, tc.want)
		}
	}
}

func TestCurveEndValue(t *testing.T) {
	bps := []automation.Breakpoint{
		{Position: 0, Value: 0.3, Kind: automation.Step},
		{Position: 1.5, Value: 0.7, Kind: automation.Ramp, Easing: automation.CubicInOut},
		{Position: 3, Value: 0.25, Kind: automation.End},
	}
	c := mustCurve(t, bps, automation.Once)
	if got := c.At(3); got != 0.25 {
		t.Fatalf("At(end) = %v, want 0.25", got)
	}
	if got := c.At(100); got != 0.25 {
		t.Fatalf("At(past end) = %v, want 0.25", got)
	}
}

func TestCurveLoopPeriodic(t *testing.T) {
	c := mustCurve(t, upDown(), automation.Loop)
	end := c.At(8)
	for k := 0; k < 10; k++ {
		if got := c.At(8 + float64(k)*8); math.Abs(got-end) > epsilon {
			t.Fatalf("k=%d: At = %v, want %v", k, got, end)
		}
	}
	if got := c.At(10); math.Abs(got-0.5) > epsilon {
		t.Fatalf("At(10) = %v, want 0.5", got)
	}
	if got := c.At(-2); math.Abs(got-0.5) > epsilon {
		t.Fatalf("At(-2) = %v, want 0.5", got)
	}
}

func TestCurvePingPong(t *testing.T) {
	bps := []automation.Breakpoint{
		{Position: 0, Value: 0, Kind: automation.Ramp},
		{Position: 4, Value: 1, Kind: automation.End},
	}
	c := mustCurve(t, bps, automation.PingPong)
	for _, tc := range []struct{ at, want float64 }{
		{1, 0.25}, {4, 1}, {5, 0.75}, {7, 0.25}, {8, 0}, {9, 0.25},
	} {
		if got := c.At(tc.at); math.Abs(got-tc.want) > epsilon {
			t.Errorf("At(%v) = %v, want %v", tc.at, got, tc.want)
		}
	}
}

func TestRampContinuity(t *testing.T) {
	for e := automation.Linear; e.Valid(); e++ {
		bps := []automation.Breakpoint{
			{Position: 0, Value: -2, Kind: automation.Ramp, Easing: e},
			{Position: 2, Value: 3, Kind: automation.Ramp, Easing: e},
			{Position: 5, Value: 1, Kind: automation.End},
		}
		c := mustCurve(t, bps, automation.Once)
		for _, p := range bps[1:] {
			below := c.At(p.Position - 1e-7)
			if math.Abs(below-p.Value) > 1e-4 {
				t.Errorf("easing %v: limit below %v is %v, want %v", e, p.Position, below, p.Value)
			}
			if got := c.At(p.Position); got != p.Value {
				t.Errorf("easing %v: At(%v) = %v, want %v", e, p.Position, got, p.Value)
			}
		}
	}
}

func TestStepHoldsValue(t *testing.T) {
	bps := []automation.Breakpoint{
		{Position: 0, Value: 0.2, Kind: automation.Step},
		{Position: 2, Value: 0.9, Kind: automation.End},
	}
	c := mustCurve(t, bps, automation.Once)
	if got := c.At(1.999); got != 0.2 {
		t.Fatalf("step segment = %v, want 0.2", got)
	}
}

func TestRandomSegmentStable(t *testing.T) {
	bps := []automation.Breakpoint{
		{Position: 0, Value: 0.5, Kind: automation.Random, Amplitude: 0.25},
		{Position: 4, Value: 0.5, Kind: automation.Random, Amplitude: 0.25},
		{Position: 8, Value: 0, Kind: automation.End},
	}
	c := mustCurve(t, bps, automation.Loop)
	first := c.At(0.1)
	if first < 0.25 || first > 0.75 {
		t.Fatalf("random value %v out of [0.25, 0.75]", first)
	}
	for _, at := range []float64{0, 1, 2.5, 3.99, 8.5} {
		if got := c.At(at); got != first {
			t.Fatalf("At(%v) = %v, want stable %v", at, got, first)
		}
	}
	again := mustCurve(t, bps, automation.Loop)
	if again.At(5) != c.At(5) {
		t.Fatalf("same stem should give the same draws")
	}
	lo, hi := c.Range()
	if lo != 0 || hi != 0.75 {
		t.Fatalf("Range() = [%v, %v], want [0, 0.75]", lo, hi)
	}
}

func TestInvalidCurves(t *testing.T) {
	r, e := automation.Ramp, automation.End
	tests := []struct {
		name string
		bps  []automation.Breakpoint
	}{
		{"empty", nil},
		{"single", []automation.Breakpoint{{Position: 0, Kind: e}}},
		{"no end", []automation.Breakpoint{{Position: 0, Kind: r}, {Position: 1, Kind: r}}},
		{"end not last", []automation.Breakpoint{{Position: 0, Kind: e}, {Position: 1, Kind: r}}},
		{"two ends", []automation.Breakpoint{{Position: 0, Kind: r}, {Position: 1, Kind: e}, {Position: 2, Kind: e}}},
		{"equal positions", []automation.Breakpoint{{Position: 0, Kind: r}, {Position: 0, Kind: e}}},
		{"decreasing", []automation.Breakpoint{{Position: 1, Kind: r}, {Position: 0, Kind: e}}},
		{"negative amplitude", []automation.Breakpoint{{Position: 0, Kind: automation.Random, Amplitude: -1}, {Position: 1, Kind: e}}},
		{"nan", []automation.Breakpoint{{Position: 0, Kind: r, Value: math.NaN()}, {Position: 1, Kind: e}}},
		{"bad easing", []automation.Breakpoint{{Position: 0, Kind: r, Easing: automation.Easing(99)}, {Position: 1, Kind: e}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := automation.NewCurve(tc.bps, automation.Once, 0, 0)
			if !errors.Is(err, automation.ErrInvalidCurve) {
				t.Fatalf("expected ErrInvalidCurve, got %v", err)
			}
		})
	}
}

func TestParseNames(t *testing.T) {
	if m, err := automation.ParseLoopMode("ping-pong"); err != nil || m != automation.PingPong {
		t.Fatalf("ParseLoopMode(ping-pong) = %v, %v", m, err)
	}
	if _, err := automation.ParseLoopMode("forever"); !errors.Is(err, automation.ErrInvalidCurve) {
		t.Fatalf("expected ErrInvalidCurve, got %v", err)
	}
	if k, err := automation.ParseKind("random"); err != nil || k != automation.Random {
		t.Fatalf("ParseKind(random) = %v, %v", k, err)
	}
	if e, err := automation.ParseEasing("sine_in_out"); err != nil || e != automation.SineInOut {
		t.Fatalf("ParseEasing(sine_in_out) = %v, %v", e, err)
	}
	if _, err := automation.ParseEasing("bounce"); err == nil {
		t.Fatalf("expected error for unknown easing")
	}
}
