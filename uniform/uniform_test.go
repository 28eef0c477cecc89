package uniform_test

import (
	"strings"
	"testing"

	"github.com/vsariola/sketch"
	"github.com/vsariola/sketch/hub"
	"github.com/vsariola/sketch/uniform"
)

const script = `
hue:
  type: slider
gap:
  type: separator
grid_size:
  type: select
  options: [small, large]
`

func layout(t *testing.T) uniform.Layout {
	t.Helper()
	s, err := sketch.ReadScript(strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	reg, errs := hub.Build(s)
	if err := errs.Err(); err != nil {
		t.Fatal(err)
	}
	return uniform.LayoutOf(reg)
}

func TestGLSL(t *testing.T) {
	out, err := uniform.Generate("glsl", layout(t))
	if err != nil {
		t.Fatal(err)
	}
	const want = `layout(std140) uniform Controls {
    float hue; // slider
    float grid_size; // select: small, large
};
#define GRID_SIZE_SMALL 0
#define GRID_SIZE_LARGE 1
`
	if !strings.HasSuffix(out, want) {
		t.Fatalf("generated\n%s\nwant it to end with\n%s", out, want)
	}
}

func TestWGSL(t *testing.T) {
	l := layout(t)
	if l.Padding() != 2 {
		t.Fatalf("padding = %d, want 2", l.Padding())
	}
	out, err := uniform.Generate("wgsl", l)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{
		"struct Controls {",
		"    hue: f32, // slider",
		"    _pad1: f32,",
		"const GRID_SIZE_LARGE: f32 = 1.0;",
	} {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("generated\n%s\nmissing line %q", out, line)
		}
	}
}

func TestUnknownLanguage(t *testing.T) {
	if _, err := uniform.Generate("hlsl", layout(t)); err == nil {
		t.Fatal("hlsl was accepted")
	}
}
