package gcode

import (
	"testing"

	"github.com/mastercactapus/gmmu/coord"
	"github.com/stretchr/testify/assert"
)

func TestVM_Run(t *testing.T) {
	vm := NewVM()
	for _, b := range MustParse("G1 X10 Y20 F3000\nG91\nG1 Z5 E2\nG1 E-1 F600\n") {
		assert.NoError(t, vm.Run(b))
	}
	assert.Equal(t, coord.Point{X: 10, Y: 20, Z: 5}, vm.Pos())
	assert.Equal(t, 1.0, vm.E())
	assert.Equal(t, 600.0, vm.Feed())

	assert.NoError(t, vm.Run(Block{{W: 'G', Arg: 92}, {W: 'E', Arg: 0}}))
	assert.Equal(t, 0.0, vm.E())
}

func TestVM_ExtruderMode(t *testing.T) {
	vm := NewVM()
	assert.NoError(t, vm.Run(Block{{W: 'M', Arg: 83}}))
	assert.True(t, vm.RelativeExtruder())
	assert.False(t, vm.RelativeMotion())

	assert.NoError(t, vm.Run(Block{{W: 'G', Arg: 1}, {W: 'E', Arg: 3}}))
	assert.NoError(t, vm.Run(Block{{W: 'G', Arg: 1}, {W: 'E', Arg: 3}}))
	assert.Equal(t, 6.0, vm.E())
}

func TestVM_Unsupported(t *testing.T) {
	vm := NewVM()
	assert.Error(t, vm.Run(Block{{W: 'M', Arg: 3}}))
	assert.Error(t, vm.Run(Block{{W: 'G', Arg: 0}, {W: 'G', Arg: 1}}))
}
