package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	blocks, err := Parse("M600 A1 ; join\n\nt2\nM708 A11 X40\n")
	assert.NoError(t, err)
	assert.Equal(t, []Block{
		{{W: 'M', Arg: 600}, {W: 'A', Arg: 1}},
		{{W: 'T', Arg: 2}},
		{{W: 'M', Arg: 708}, {W: 'A', Arg: 11}, {W: 'X', Arg: 40}},
	}, blocks)

	assert.True(t, blocks[0].Is('M', 600))
	assert.Equal(t, 1, blocks[0].Int('A', 0))
	assert.Equal(t, 7, blocks[1].Int('P', 7))
	assert.Equal(t, "M708 A11 X40", blocks[2].String())

	_, err = Parse("M600 A\n")
	assert.Error(t, err)
}

func TestParse_Dialect(t *testing.T) {
	blocks, err := Parse("N10 G1\tE-15.5 (retract) F1200*71\r\n(only a comment)\nm83\n")
	assert.NoError(t, err)
	assert.Equal(t, []Block{
		{{W: 'G', Arg: 1}, {W: 'E', Arg: -15.5}, {W: 'F', Arg: 1200}},
		{{W: 'M', Arg: 83}},
	}, blocks)

	_, err = Parse("T1\nG1 X1 #\n")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "line 2")
	}
}

func TestParseBlock(t *testing.T) {
	b, err := ParseBlock("M709 S1")
	assert.NoError(t, err)
	assert.Equal(t, Block{{W: 'M', Arg: 709}, {W: 'S', Arg: 1}}, b)

	b, err = ParseBlock("; nothing")
	assert.NoError(t, err)
	assert.Nil(t, b)
}
