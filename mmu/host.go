package mmu

import (
	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/coord"
	"github.com/mastercactapus/gmmu/gcode"
)

// Motion is the printer's motion planner.
type Motion interface {
	// Synchronize blocks until all queued moves are done.
	Synchronize()
	MovesQueued() bool

	Position() coord.Point

	// MoveXY and MoveZ block until the head arrived. Feedrates are mm/s.
	MoveXY(x, y, feedrate float64)
	MoveZ(z, feedrate float64)

	// ExtruderMove queues a relative extruder move.
	ExtruderMove(distance, feedrate float64)
}

// Thermal controls the hotend.
type Thermal interface {
	TargetHotend() float64
	SetTargetHotend(celsius float64)
	Hotend() float64
}

// Printer is everything else the MMU needs to know about the printer.
type Printer interface {
	// Idle runs the printer's housekeeping. It may call MMU.Tick, which
	// returns ErrReentrant while an operation is waiting.
	Idle()

	PrintActive() bool
	LevelingActive() bool
	AxesHomed() bool
	ColorChangePending() bool

	FSensorEnabled() bool
	FilamentPresent() bool

	// EnqueueFront puts b in front of the printer's command queue.
	EnqueueFront(b gcode.Block)

	StopPrint()
}

// Host combines the printer side collaborators.
type Host interface {
	Motion
	Thermal
	Printer
}

// ResetLine is implemented by hosts that may be wired to the unit's reset
// pin. PulseReset reports false when no pin is connected.
type ResetLine interface {
	PulseReset() bool
}

// Storage persists statistics and settings. Writes are bracketed by
// BeginAccess and EndAccess; Commit flushes them.
type Storage interface {
	BeginAccess()
	ReadUint32(key string) (uint32, bool)
	WriteUint32(key string, v uint32)
	EndAccess()
	Commit() error
}

// UI shows errors and progress and collects the user's answers.
type UI interface {
	ShowError(ec catalog.ErrorCode, src ErrorSource)
	ClearError()
	ShowProgress(text string)
	FullScreenMessage(text string)

	// ButtonPressed returns and consumes the pending choice, if any.
	ButtonPressed() catalog.ButtonOperation
}

// ErrorSource tells where an error was detected.
type ErrorSource int

const (
	SourceMMU ErrorSource = iota
	SourcePrinter
)

func (s ErrorSource) String() string {
	if s == SourcePrinter {
		return "printer"
	}
	return "mmu"
}
