package automation_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/vsariola/sketch/automation"
)

func TestTriangleShorthand(t *testing.T) {
	c, err := automation.TriangleCurve(4, -1, 1, 0)
	if err != nil {
		t.Fatalf("TriangleCurve failed: %v", err)
	}
	for _, tc := range []struct{ at, want float64 }{
		{0, -1}, {1, 0}, {2, 1}, {3, 0}, {4, -1}, {6, 1},
	} {
		if got := c.At(tc.at); math.Abs(got-tc.want) > epsilon {
			t.Errorf("At(%v) = %v, want %v", tc.at, got, tc.want)
		}
	}
	shifted, _ := automation.TriangleCurve(4, -1, 1, 0.5)
	if got := shifted.At(0); math.Abs(got-1) > epsilon {
		t.Fatalf("half period phase: At(0) = %v, want 1", got)
	}
	if _, err := automation.TriangleCurve(0, 0, 1, 0); !errors.Is(err, automation.ErrInvalidCurve) {
		t.Fatalf("expected ErrInvalidCurve for zero period, got %v", err)
	}
}

func TestRampShorthand(t *testing.T) {
	c, err := automation.RampCurve(2, 0, 10, 0)
	if err != nil {
		t.Fatalf("RampCurve failed: %v", err)
	}
	if got := c.At(1); math.Abs(got-5) > epsilon {
		t.Fatalf("At(1) = %v, want 5", got)
	}
	if got := c.At(2.5); math.Abs(got-2.5) > epsilon {
		t.Fatalf("At(2.5) = %v, want 2.5", got)
	}
}

func TestRandomSlewed(t *testing.T) {
	r, err := automation.NewRandomSlewed(2, 10, 20, 0.5, 7)
	if err != nil {
		t.Fatalf("NewRandomSlewed failed: %v", err)
	}
	for b := 0.0; b < 40; b += 0.25 {
		v := r.At(b)
		if v < 10 || v > 20 {
			t.Fatalf("At(%v) = %v out of range", b, v)
		}
		if v != r.At(b) {
			t.Fatalf("At(%v) is not deterministic", b)
		}
	}
	// second half of every step holds the draw
	if r.At(3) != r.At(3.9) {
		t.Fatalf("value should hold after the slew portion")
	}
	// gliding starts from the previous draw
	if math.Abs(r.At(4)-r.At(3.99)) > epsilon {
		t.Fatalf("glide should start from the previous value: %v vs %v", r.At(4), r.At(3.99))
	}
	if _, err := automation.NewRandomSlewed(1, 0, 1, 1.5, 0); !errors.Is(err, automation.ErrInvalidCurve) {
		t.Fatalf("expected ErrInvalidCurve for slew > 1, got %v", err)
	}
}

func TestSlewLimiter(t *testing.T) {
	c := automation.NewChain(automation.Effect{Kind: automation.SlewLimiter, Rise: 0.5, Fall: 2})
	if got := c.Process(0, 0); got != 0 {
		t.Fatalf("first call should pass the input, got %v", got)
	}
	if got := c.Process(1, 1); math.Abs(got-0.5) > epsilon {
		t.Fatalf("rise limited to 0.5/beat, got %v", got)
	}
	// paused: no time elapsed, no movement
	if got := c.Process(1, 1); math.Abs(got-0.5) > epsilon {
		t.Fatalf("zero dt should not move the output, got %v", got)
	}
	if got := c.Process(1, 2); math.Abs(got-1) > epsilon {
		t.Fatalf("should reach the target, got %v", got)
	}
	if got := c.Process(0, 2.25); math.Abs(got-0.5) > epsilon {
		t.Fatalf("fall limited to 2/beat, got %v", got)
	}
	// time going backwards re-primes
	if got := c.Process(0.1, 0); got != 0.1 {
		t.Fatalf("reset should re-prime with the input, got %v", got)
	}
}

func TestSlewLimiterUnlimited(t *testing.T) {
	c := automation.NewChain(automation.Effect{Kind: automation.SlewLimiter})
	c.Process(0, 0)
	if got := c.Process(5, 0.01); got != 5 {
		t.Fatalf("rate <= 0 should not limit, got %v", got)
	}
}

func TestWaveFolder(t *testing.T) {
	e := automation.Effect{Kind: automation.WaveFolder, Gain: 1, Iterations: 4, Min: 0, Max: 1}
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	c := automation.NewChain(e)
	for _, tc := range []struct{ in, want float64 }{
		{0.25, 0.25}, {1.25, 0.75}, {-0.25, 0.25}, {2, 0}, {0.5, 0.5},
	} {
		if got := c.Process(tc.in, 0); math.Abs(got-tc.want) > epsilon {
			t.Errorf("fold(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	sine := automation.NewChain(automation.Effect{Kind: automation.WaveFolder, Gain: 3, Iterations: 2, Shape: automation.FoldSine, Symmetry: 0.3, Min: -1, Max: 1})
	for x := -2.0; x <= 2; x += 0.1 {
		if v := sine.Process(x, 0); v < -1-epsilon || v > 1+epsilon {
			t.Fatalf("sine fold(%v) = %v out of range", x, v)
		}
	}
}

func TestEffectValidate(t *testing.T) {
	for _, e := range []automation.Effect{
		{Kind: automation.WaveFolder, Min: 1, Max: 0},
		{Kind: automation.WaveFolder, Max: 1, Symmetry: 1},
		{Kind: automation.WaveFolder, Max: 1, Iterations: -1},
		{Kind: automation.SlewLimiter, Rise: math.Inf(1)},
		{Kind: automation.EffectKind(9)},
	} {
		if err := e.Validate(); !errors.Is(err, automation.ErrInvalidCurve) {
			t.Errorf("%+v: expected ErrInvalidCurve, got %v", e, err)
		}
	}
}

func TestChainOrder(t *testing.T) {
	fold := automation.Effect{Kind: automation.WaveFolder, Gain: 2, Iterations: 1, Min: 0, Max: 1}
	slew := automation.Effect{Kind: automation.SlewLimiter, Rise: 0.1}
	a := automation.NewChain(fold, slew)
	b := automation.NewChain(slew, fold)
	a.Process(0, 0)
	b.Process(0, 0)
	// fold then slew: fold(0.4) = 0.8, limited to 0.1
	if got := a.Process(0.4, 1); math.Abs(got-0.1) > epsilon {
		t.Fatalf("fold->slew = %v, want 0.1", got)
	}
	// slew then fold: slew(0.4) = 0.1, fold(0.1) = 0.2
	if got := b.Process(0.4, 1); math.Abs(got-0.2) > epsilon {
		t.Fatalf("slew->fold = %v, want 0.2", got)
	}
}

func TestChainAdopt(t *testing.T) {
	slow := automation.Effect{Kind: automation.SlewLimiter, Rise: 0.5, Fall: 0.5}
	old := automation.NewChain(slow)
	old.Process(0, 0)
	old.Process(1, 1)
	same := automation.NewChain(slow)
	if !same.Adopt(old) {
		t.Fatal("chain with the same effects did not adopt the state")
	}
	if got := same.Process(1, 1); math.Abs(got-0.5) > epsilon {
		t.Fatalf("adopted chain gave %v, want the held 0.5", got)
	}
	other := automation.NewChain(automation.Effect{Kind: automation.SlewLimiter, Rise: 1, Fall: 1})
	if other.Adopt(old) {
		t.Fatal("chain with different effects adopted the state")
	}
	if got := other.Process(1, 1); got != 1 {
		t.Fatalf("fresh chain gave %v, want the primed input 1", got)
	}
	if same.Adopt(nil) {
		t.Fatal("adopted a nil chain")
	}
}
