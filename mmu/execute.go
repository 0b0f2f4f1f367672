package mmu

import (
	"fmt"
	"log"

	"github.com/mastercactapus/gmmu/gcode"
	"github.com/mastercactapus/gmmu/spooljoin"
)

// Execute runs an MMU G-code command:
//
//	T<n>                 tool change
//	M600 [A1]            filament change, A1 continues on the next slot
//	M701 P<n>            load to nozzle
//	M702                 unload
//	M704 P<n>            preload to the unit
//	M705 P<n>            eject
//	M706 P<n>            cut
//	M707 A<addr>         read register
//	M708 A<addr> X<val>  write register
//	M709 [S0|S1] [X<n>]  disable/enable, reset (0, 1, 2 or 42)
//	M1600 P<n>           loading test
func (m *MMU) Execute(b gcode.Block) error {
	if m.depth > 0 {
		return ErrReentrant
	}
	c, ok := b.Command()
	if !ok {
		return fmt.Errorf("mmu: no command in %q", b.String())
	}

	if c.W == 'T' {
		slot, err := checkSlot(c.Arg)
		if err != nil {
			return err
		}
		return ready(m.ToolChange(slot))
	}
	if c.W != 'M' {
		return fmt.Errorf("mmu: unsupported command %q", b.String())
	}

	switch int(c.Arg) {
	case 600:
		return m.filamentChange(b.Int('A', 0) == 1)
	case 701, 704, 705, 706, 1600:
		ok, p := b.Arg('P')
		if !ok {
			return fmt.Errorf("mmu: %s needs P<slot>", c)
		}
		slot, err := checkSlot(p)
		if err != nil {
			return err
		}
		switch int(c.Arg) {
		case 701:
			return ready(m.LoadToNozzle(slot))
		case 704:
			return ready(m.LoadFilament(slot))
		case 705:
			return ready(m.Eject(slot))
		case 706:
			return ready(m.Cut(slot))
		}
		return ready(m.LoadingTest(slot))
	case 702:
		return ready(m.Unload())
	case 707:
		ok, a := b.Arg('A')
		if !ok {
			return fmt.Errorf("mmu: %s needs A<address>", c)
		}
		addr, err := checkUint('A', a, 0xff)
		if err != nil {
			return err
		}
		v, ok := m.ReadRegister(uint8(addr))
		if !ok {
			return fmt.Errorf("mmu: read register 0x%02x failed", addr)
		}
		log.Printf("MMU: register 0x%02x = %d", addr, v)
		return nil
	case 708:
		okA, a := b.Arg('A')
		okX, x := b.Arg('X')
		if !okA || !okX {
			return fmt.Errorf("mmu: %s needs A<address> X<value>", c)
		}
		addr, err := checkUint('A', a, 0xff)
		if err != nil {
			return err
		}
		val, err := checkUint('X', x, 0xffff)
		if err != nil {
			return err
		}
		if !m.WriteRegister(uint8(addr), uint16(val)) {
			return fmt.Errorf("mmu: write register 0x%02x failed", addr)
		}
		return nil
	case 709:
		return m.m709(b)
	}
	return fmt.Errorf("mmu: unsupported command %q", b.String())
}

func (m *MMU) m709(b gcode.Block) error {
	if ok, s := b.Arg('S'); ok {
		if s == 0 {
			m.Stop()
		} else {
			m.Start()
		}
	}
	ok, x := b.Arg('X')
	if !ok {
		log.Printf("MMU: %s, tool %d", m.state, m.CurrentTool())
		return nil
	}
	if x != float64(int(x)) {
		return fmt.Errorf("mmu: invalid reset level %g", x)
	}
	level := ResetLevel(x)
	switch level {
	case ResetSoftware, ResetPin, EraseEEPROM:
		if m.state == Stopped {
			return ErrNotReady
		}
	case ResetPower:
	default:
		return fmt.Errorf("mmu: invalid reset level %d", int(x))
	}
	m.Reset(level)
	return nil
}

func checkSlot(v float64) (uint8, error) {
	if v < 0 || v >= spooljoin.Slots || v != float64(int(v)) {
		return 0, fmt.Errorf("mmu: invalid slot %g", v)
	}
	return uint8(v), nil
}

func checkUint(w byte, v float64, max int) (int, error) {
	if v < 0 || v > float64(max) || v != float64(int(v)) {
		return 0, fmt.Errorf("mmu: %c%g out of range 0..%d", w, v, max)
	}
	return int(v), nil
}

func ready(ok bool) error {
	if !ok {
		return ErrNotReady
	}
	return nil
}

// Handles reports whether b is one of the commands Execute runs.
func Handles(b gcode.Block) bool {
	c, ok := b.Command()
	if !ok {
		return false
	}
	if c.W == 'T' {
		return true
	}
	if c.W != 'M' {
		return false
	}
	switch int(c.Arg) {
	case 600, 701, 702, 704, 705, 706, 707, 708, 709, 1600:
		return c.Arg == float64(int(c.Arg))
	}
	return false
}
