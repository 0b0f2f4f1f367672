package gcode

import "io"

// Reader yields blocks one at a time, returning io.EOF at the end.
type Reader interface {
	Read() (Block, error)
}

// BlocksReader reads from an in-memory list, e.g. a snapshot of the
// printer's command queue.
type BlocksReader struct {
	Blocks []Block
	n      int
}

func (b *BlocksReader) Read() (Block, error) {
	if b.n >= len(b.Blocks) {
		return nil, io.EOF
	}

	b.n++
	return b.Blocks[b.n-1], nil
}

// Remaining is the number of blocks not read yet.
func (b *BlocksReader) Remaining() int { return len(b.Blocks) - b.n }
