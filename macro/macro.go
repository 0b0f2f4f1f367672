// Package macro renders G-code templates used around filament moves, such
// as the ramming and load-to-nozzle sequences, into parsed blocks.
package macro

import (
	"fmt"

	pongo2 "github.com/flosch/pongo2/v5"

	"github.com/mastercactapus/gmmu/gcode"
)

// Context holds the variables available to a template.
type Context = pongo2.Context

var set = pongo2.NewSet("mmu", pongo2.DefaultLoader)

// Template is a compiled G-code template.
type Template struct {
	name string
	tpl  *pongo2.Template
}

// Compile parses src. Syntax errors are reported here, not at render time.
func Compile(name, src string) (*Template, error) {
	t, err := set.FromString(src)
	if err != nil {
		return nil, fmt.Errorf("macro %s: %w", name, err)
	}
	return &Template{name: name, tpl: t}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(name, src string) *Template {
	t, err := Compile(name, src)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Name() string { return t.name }

// Render executes the template with ctx and parses the output.
func (t *Template) Render(ctx Context) ([]gcode.Block, error) {
	out, err := t.tpl.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("macro %s: %w", t.name, err)
	}
	b, err := gcode.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("macro %s: %w", t.name, err)
	}
	return b, nil
}
