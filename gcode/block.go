package gcode

import (
	"errors"
	"strings"
)

type Block []Word

func (b Block) Arg(w byte) (bool, float64) {
	for _, g := range b {
		if g.W == w {
			return true, g.Arg
		}
	}
	return false, 0
}

// Int returns the integer argument of w, or def if w is missing.
func (b Block) Int(w byte, def int) int {
	ok, v := b.Arg(w)
	if !ok {
		return def
	}
	return int(v)
}

func (b Block) Has(w byte) bool {
	ok, _ := b.Arg(w)
	return ok
}

func (b Block) SetArg(w byte, val float64) {
	for i, g := range b {
		if g.W == w {
			b[i].Arg = val
			return
		}
	}
}

// Command returns the first G, M or T word of the block.
func (b Block) Command() (Word, bool) {
	for _, g := range b {
		if g.IsCommand() {
			return g, true
		}
	}
	return Word{}, false
}

// Is reports whether the block's command is w.
func (b Block) Is(w byte, code float64) bool {
	c, ok := b.Command()
	return ok && c.W == w && c.Arg == code
}

// Args returns the words of the block that are not commands.
func (b Block) Args() Block {
	res := make(Block, 0, len(b))
	for _, g := range b {
		if !g.IsCommand() {
			res = append(res, g)
		}
	}
	return res
}

func (b Block) Clone() Block {
	c := make(Block, len(b))
	copy(c, b)
	return c
}

func (b Block) HasModal() bool {
	for _, g := range b {
		if g.ModalGroup() != ModalGroupNone {
			return true
		}
	}
	return false
}

func (b Block) String() string {
	parts := make([]string, len(b))
	for i, g := range b {
		parts[i] = g.String()
	}
	return strings.Join(parts, " ")
}

func (b Block) Validate() error {
	var checkWord [256]bool
	var checkModal [256]bool

	var m ModalGroup
	for _, g := range b {
		if !g.IsValid() {
			return errors.New("invalid word in block")
		}
		if g.W != 'G' && checkWord[g.W] {
			return errors.New("word was repeated in a block")
		}
		checkWord[g.W] = true
		m = g.ModalGroup()
		if m != ModalGroupNone && checkModal[m] {
			return errors.New("multiple words from same modal group")
		}
		checkModal[m] = true
	}

	return nil
}
