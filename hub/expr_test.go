package hub

import (
	"testing"

	"github.com/pkg/errors"
)

func TestCompilePredicate(t *testing.T) {
	types := map[string]any{
		"animate": false,
		"smooth":  false,
		"mode":    "",
		"steps":   0.0,
		"offset":  0.0,
	}
	env := map[string]any{
		"animate": true,
		"smooth":  false,
		"mode":    "noise",
		"steps":   3.0,
		"offset":  -1.0,
	}
	for _, tc := range []struct {
		src  string
		want bool
		refs int
	}{
		{"animate", true, 1},
		{"not animate", false, 1},
		{"!smooth", true, 1},
		{"mode == 'noise'", true, 1},
		{`mode == "noise"`, true, 1},
		{"mode != 'noise'", false, 1},
		{"mode in ['noise', 'waves']", true, 1},
		{"steps == 3", true, 1},
		{"steps != 3.0", false, 1},
		{"steps > 2 and steps < 4", true, 1},
		{"offset == -1", true, 1},
		{"animate and smooth", false, 2},
		{"animate && !smooth", true, 2},
		{"smooth or steps == 3", true, 2},
		{"steps and animate", true, 2},
		{"not offset", false, 1},
		{"not mode", false, 1},
		{"(smooth || animate) && mode == 'noise'", true, 3},
		{"not (animate and mode == 'noise')", false, 2},
		{"smooth == false", true, 1},
		{"smooth ? steps == 3 : false", false, 2},
		{"true", true, 0},
		{"false or false", false, 0},
	} {
		p, refs, err := compilePredicate(tc.src, types)
		if err != nil {
			t.Errorf("compilePredicate(%q) failed: %v", tc.src, err)
			continue
		}
		if got := p.eval(env); got != tc.want {
			t.Errorf("%q evaluated to %v, want %v", tc.src, got, tc.want)
		}
		if len(refs) != tc.refs {
			t.Errorf("%q referenced %v, want %d names", tc.src, refs, tc.refs)
		}
	}
}

func TestCompilePredicateErrors(t *testing.T) {
	types := map[string]any{"animate": false, "mode": "", "steps": 0.0}
	for _, src := range []string{
		"",
		"missing",
		"animate and missing",
		"animate and",
		"(animate",
		"animate animate",
		"mode == ",
		"mode == noise",
		"mode == 'noise",
		"animate ==",
		"steps + 1",
	} {
		if _, _, err := compilePredicate(src, types); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("compilePredicate(%q) = %v, want ErrInvalidEntry", src, err)
		}
	}
}
