package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/gmmu/gcode"
)

func TestTemplate_Render(t *testing.T) {
	tpl, err := Compile("load", DefaultLoadToNozzle)
	require.NoError(t, err)
	assert.Equal(t, "load", tpl.Name())

	b, err := tpl.Render(Context{
		"fsensor_to_nozzle":   60,
		"extra_load_distance": 30,
		"load_feedrate":       20,
	})
	require.NoError(t, err)
	require.Len(t, b, 4)
	assert.Equal(t, "M400", b[0].String())
	assert.Equal(t, "G1 E30 F1200", b[1].String())
	assert.Equal(t, "G1 E10 F400", b[2].String())
}

func TestTemplate_Loop(t *testing.T) {
	tpl := MustCompile("loop", "{% for i in slots %}T{{ i }}\n{% endfor %}")
	b, err := tpl.Render(Context{"slots": []int{0, 2}})
	require.NoError(t, err)
	require.Len(t, b, 2)
	assert.True(t, b[0].Is('T', 0))
	assert.True(t, b[1].Is('T', 2))
}

func TestCompile_Error(t *testing.T) {
	_, err := Compile("bad", "G1 E{{ 1 ")
	assert.Error(t, err)
}

func TestTemplate_RenderBadGcode(t *testing.T) {
	tpl := MustCompile("bad", "G1 E{{ x }}")
	_, err := tpl.Render(Context{"x": "abc"})
	assert.Error(t, err)
}

func TestMoves(t *testing.T) {
	b := gcode.MustParse("M400\nG1 E5 F600\nG1 E-2\nG1 X10\nG4 P10\n")
	m, err := Moves(b, 1200)
	require.NoError(t, err)
	assert.Equal(t, []Move{
		{Sync: true},
		{Distance: 5, Feedrate: 10},
		{Distance: -2, Feedrate: 10},
		{Sync: true},
	}, m)

	m, err = Moves(gcode.MustParse("G1 E1\n"), 1200)
	require.NoError(t, err)
	assert.Equal(t, []Move{{Distance: 1, Feedrate: 20}}, m)

	_, err = Moves(gcode.MustParse("M104 S200\n"), 1200)
	assert.Error(t, err)
}

func TestDefaultRamming(t *testing.T) {
	b, err := MustCompile("ramming", DefaultRamming).Render(Context{})
	require.NoError(t, err)
	m, err := Moves(b, 1200)
	require.NoError(t, err)
	assert.Len(t, m, 11)

	var total float64
	for _, mv := range m {
		total += mv.Distance
	}
	assert.InEpsilon(t, -77.0, total, 0.0001)
}
