package gcode

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Read(t *testing.T) {
	blocks := []Block{
		{{W: 'M', Arg: 600}, {W: 'A', Arg: 1}},

		{{W: 'T', Arg: 2}},
	}

	gr := &BlocksReader{Blocks: blocks}

	b := NewBuffer(gr)

	buf := make([]byte, 20)
	n, err := b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, []byte("M600 A1\nT2\n"), buf[:n])

	n, err = b.Read(buf)
	assert.Error(t, err)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}

func TestBuffer_ShortRead(t *testing.T) {
	b := NewBuffer(&BlocksReader{Blocks: []Block{{{W: 'M', Arg: 702}}}})

	buf := make([]byte, 2)
	n, err := b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "M7", string(buf[:n]))
	n, err = b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "02", string(buf[:n]))
	n, err = b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "\n", string(buf[:n]))
	_, err = b.Read(buf)
	assert.Equal(t, io.EOF, err)
}
