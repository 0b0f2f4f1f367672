package gcode

import (
	"errors"

	"github.com/mastercactapus/gmmu/coord"
)

// VM tracks the motion state of a printer while running blocks. It is used
// by the simulated printer to follow head and extruder positions.
type VM struct {
	pos coord.Point
	e   float64

	modal [256]float64

	feed float64
}

// NewVM constructs a new VM with default state.
func NewVM() *VM {
	vm := &VM{}

	// using marlin defaults
	vm.modal[ModalGroupMotion] = 0
	vm.modal[ModalGroupDistanceMode] = 90
	vm.modal[ModalGroupExtruderMode] = 82
	vm.modal[ModalGroupUnits] = 21

	return vm
}

func (vm VM) Inches() bool           { return vm.modal[ModalGroupUnits] == 20 }
func (vm VM) RelativeMotion() bool   { return vm.modal[ModalGroupDistanceMode] == 91 }
func (vm VM) RelativeExtruder() bool { return vm.RelativeMotion() || vm.modal[ModalGroupExtruderMode] == 83 }

func (vm VM) Pos() coord.Point { return vm.pos }
func (vm VM) E() float64       { return vm.e }
func (vm VM) Feed() float64    { return vm.feed }

func (vm *VM) SetPos(p coord.Point) { vm.pos = p }

func isSupported(g Word) bool {
	if g.IsAxis() {
		return true
	}

	switch g.W {
	case 'G':
		switch g.Arg {
		case 0, 1, 4, 20, 21, 28, 90, 91, 92:
			return true
		}
	case 'F', 'P', 'S':
		return true
	case 'M':
		switch g.Arg {
		case 82, 83, 400:
			return true
		}
	}

	return false
}

func applyBlock(p coord.Point, b Block, mul float64) coord.Point {
	for _, g := range b {
		switch g.W {
		case 'X':
			p.X = g.Arg * mul
		case 'Y':
			p.Y = g.Arg * mul
		case 'Z':
			p.Z = g.Arg * mul
		}
	}

	return p
}

func (vm *VM) Run(b Block) error {
	err := b.Validate()
	if err != nil {
		return err
	}
	for _, g := range b {
		if !isSupported(g) {
			return errors.New("unsupported code: " + g.String())
		}
		mg := g.ModalGroup()
		if mg == ModalGroupFeedRate {
			vm.feed = g.Arg
		} else if mg != ModalGroupNone && mg != ModalGroupNonModal {
			vm.modal[mg] = g.Arg
		}
	}

	mul := 1.0
	if vm.Inches() {
		mul = 25.4
	}

	switch {
	case b.Is('G', 92):
		// set position without moving
		vm.pos = applyBlock(vm.pos, b, mul)
		if ok, e := b.Arg('E'); ok {
			vm.e = e * mul
		}
		return nil
	case b.Is('G', 28):
		vm.pos = coord.Point{}
		return nil
	}

	if ok, e := b.Arg('E'); ok {
		if vm.RelativeExtruder() {
			vm.e += e * mul
		} else {
			vm.e = e * mul
		}
	}
	if vm.RelativeMotion() {
		vm.pos = vm.pos.Add(applyBlock(coord.Point{}, b, mul))
	} else {
		vm.pos = applyBlock(vm.pos, b, mul)
	}

	return nil
}
