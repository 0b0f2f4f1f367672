// Package host provides the printer side of the MMU: a simulated printer
// and an event-stream UI.
package host

import (
	"log"
	"sync"
	"time"

	"github.com/mastercactapus/gmmu/coord"
	"github.com/mastercactapus/gmmu/gcode"
	"github.com/mastercactapus/gmmu/mmu"
)

var (
	_ mmu.Host      = (*Printer)(nil)
	_ mmu.ResetLine = (*Printer)(nil)
	_ mmu.UI        = (*UI)(nil)
)

const (
	DefaultHeatRate = 5.0
	ambient         = 25.0
)

// Printer is a simulated printer. Motion is tracked by a gcode.VM; moves
// complete instantly except extruder moves, which drain one per Idle call.
//
// Printer is driven from a single goroutine; only the command queue and
// the printing flags may be touched from others.
type Printer struct {
	vm *gcode.VM

	target float64
	hotend float64
	moves  int

	// Filament reports the extruder filament sensor. When nil the state set
	// by SetFilament is used.
	Filament func() bool

	// Reset pulses the unit's reset pin. Nil means the pin is not wired.
	Reset func()

	// OnIdle is called at the end of every Idle.
	OnIdle func()

	// HeatRate is how many degrees the hotend moves towards its target per
	// Idle call.
	HeatRate float64

	// Step is slept in every Idle call.
	Step time.Duration

	mx             sync.Mutex
	queue          []gcode.Block
	printing       bool
	homed          bool
	leveling       bool
	fsensorEnabled bool
	filament       bool
}

func NewPrinter() *Printer {
	p := &Printer{
		vm:             gcode.NewVM(),
		hotend:         ambient,
		HeatRate:       DefaultHeatRate,
		homed:          true,
		fsensorEnabled: true,
	}
	p.run(gcode.Block{{W: 'M', Arg: 83}})
	return p
}

func (p *Printer) run(b gcode.Block) {
	if err := p.vm.Run(b); err != nil {
		log.Printf("ERROR: printer: run '%s': %v", b, err)
	}
}

// Run executes a motion block on the printer. M104/M109 set the hotend
// target; everything else goes to the VM.
func (p *Printer) Run(b gcode.Block) error {
	switch {
	case b.Is('M', 104), b.Is('M', 109):
		_, s := b.Arg('S')
		p.SetTargetHotend(s)
		if b.Is('M', 109) {
			p.waitHotend()
		}
		return nil
	case b.Is('M', 400):
		p.Synchronize()
		return nil
	}
	if ok, e := b.Arg('E'); ok && e != 0 {
		p.moves++
	}
	return p.vm.Run(b)
}

func (p *Printer) waitHotend() {
	for p.hotend != maxf(p.target, ambient) {
		p.Idle()
	}
}

func (p *Printer) Idle() {
	if p.moves > 0 {
		p.moves--
	}
	switch {
	case p.hotend < p.target:
		p.hotend += p.HeatRate
		if p.hotend > p.target {
			p.hotend = p.target
		}
	case p.hotend > p.target && p.hotend > ambient:
		p.hotend -= p.HeatRate
		if p.hotend < p.target || p.hotend < ambient {
			p.hotend = maxf(p.target, ambient)
		}
	}
	if p.Step > 0 {
		time.Sleep(p.Step)
	}
	if p.OnIdle != nil {
		p.OnIdle()
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ---- Motion ----

func (p *Printer) Synchronize() {
	for p.moves > 0 {
		p.Idle()
	}
}
func (p *Printer) MovesQueued() bool         { return p.moves > 0 }
func (p *Printer) Position() coord.Point     { return p.vm.Pos() }
func (p *Printer) ExtruderPosition() float64 { return p.vm.E() }

func (p *Printer) MoveXY(x, y, feedrate float64) {
	p.run(gcode.Block{{W: 'G', Arg: 1}, {W: 'X', Arg: x}, {W: 'Y', Arg: y}, {W: 'F', Arg: feedrate * 60}})
}

func (p *Printer) MoveZ(z, feedrate float64) {
	p.run(gcode.Block{{W: 'G', Arg: 1}, {W: 'Z', Arg: z}, {W: 'F', Arg: feedrate * 60}})
}

func (p *Printer) ExtruderMove(distance, feedrate float64) {
	p.run(gcode.Block{{W: 'G', Arg: 1}, {W: 'E', Arg: distance}, {W: 'F', Arg: feedrate * 60}})
	p.moves++
}

// ---- Thermal ----

func (p *Printer) TargetHotend() float64     { return p.target }
func (p *Printer) SetTargetHotend(c float64) { p.target = c }
func (p *Printer) Hotend() float64           { return p.hotend }

// ---- Printer ----

func (p *Printer) PrintActive() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.printing
}

func (p *Printer) SetPrinting(v bool) {
	p.mx.Lock()
	p.printing = v
	p.mx.Unlock()
}

func (p *Printer) LevelingActive() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.leveling
}

func (p *Printer) AxesHomed() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.homed
}

func (p *Printer) SetHomed(v bool) {
	p.mx.Lock()
	p.homed = v
	p.mx.Unlock()
}

func (p *Printer) FSensorEnabled() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.fsensorEnabled
}

func (p *Printer) SetFSensorEnabled(v bool) {
	p.mx.Lock()
	p.fsensorEnabled = v
	p.mx.Unlock()
}

func (p *Printer) FilamentPresent() bool {
	if p.Filament != nil {
		return p.Filament()
	}
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.filament
}

func (p *Printer) SetFilament(v bool) {
	p.mx.Lock()
	p.filament = v
	p.mx.Unlock()
}

// ColorChangePending reports whether an M600 is waiting in the queue.
func (p *Printer) ColorChangePending() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	for _, b := range p.queue {
		if b.Is('M', 600) {
			return true
		}
	}
	return false
}

func (p *Printer) EnqueueFront(b gcode.Block) {
	p.mx.Lock()
	p.queue = append([]gcode.Block{b}, p.queue...)
	p.mx.Unlock()
}

// Enqueue appends b to the command queue.
func (p *Printer) Enqueue(b gcode.Block) {
	p.mx.Lock()
	p.queue = append(p.queue, b)
	p.mx.Unlock()
}

// Next pops the head of the command queue.
func (p *Printer) Next() (gcode.Block, bool) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if len(p.queue) == 0 {
		return nil, false
	}
	b := p.queue[0]
	p.queue = p.queue[1:]
	return b, true
}

// Queue returns a copy of the pending commands.
func (p *Printer) Queue() []gcode.Block {
	p.mx.Lock()
	defer p.mx.Unlock()
	return append([]gcode.Block(nil), p.queue...)
}

func (p *Printer) StopPrint() {
	p.mx.Lock()
	p.printing = false
	p.queue = nil
	p.mx.Unlock()
	log.Println("MMU: print stopped")
}

// PulseReset implements mmu.ResetLine. It returns false when Reset is nil.
func (p *Printer) PulseReset() bool {
	if p.Reset == nil {
		return false
	}
	p.Reset()
	return true
}
