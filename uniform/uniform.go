// Package uniform generates the shader side of the per-frame uniform
// buffer: one float per control, in the order of hub.Uniforms.
package uniform

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/vsariola/sketch/hub"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.tmpl"))

type (
	Field struct {
		Name    string
		Kind    string
		Options []string // selects: option names, in the order of their index
	}

	Layout struct {
		Block  string
		Fields []Field
	}
)

// Languages lists the supported shading languages.
var Languages = []string{"glsl", "wgsl"}

// LayoutOf returns the layout of the registry. Separators have no value and
// take no space.
func LayoutOf(reg *hub.Registry) Layout {
	l := Layout{Block: "Controls"}
	for c := range reg.All() {
		if !c.Kind.HasValue() {
			continue
		}
		l.Fields = append(l.Fields, Field{Name: c.Name, Kind: c.Kind.String(), Options: c.Options})
	}
	return l
}

// Padding is the number of floats needed to round the block up to 16
// bytes.
func (l Layout) Padding() int {
	return (4 - len(l.Fields)%4) % 4
}

// Generate renders the uniform block declaration in the given language.
func Generate(lang string, layout Layout) (string, error) {
	t := templates.Lookup(lang + ".tmpl")
	if t == nil {
		return "", errors.Errorf("unsupported shading language %q", lang)
	}
	var b bytes.Buffer
	if err := t.Execute(&b, layout); err != nil {
		return "", errors.Wrapf(err, "could not generate %s uniforms", lang)
	}
	return b.String(), nil
}
