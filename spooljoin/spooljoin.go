// Package spooljoin decides what happens when the unit's filament sensor
// runs empty during a print.
package spooljoin

// Slots is the number of filament slots on the unit.
const Slots = 5

// Decision is the reaction to a runout check.
type Decision int

const (
	// None means no runout, or one that must not be acted upon now.
	None Decision = iota

	// AutoJoin continues on the next slot without asking.
	AutoJoin

	// ManualChange pauses for a user driven filament change.
	ManualChange
)

func (d Decision) String() string {
	switch d {
	case AutoJoin:
		return "auto-join"
	case ManualChange:
		return "manual-change"
	}
	return "none"
}

// Inputs is the printer and unit state a runout decision depends on.
type Inputs struct {
	// SensorPresent is the FINDA reading.
	SensorPresent bool

	// ColorChangePending is set while an M600 is queued or running.
	ColorChangePending bool

	LevelingActive bool
	AxesHomed      bool

	// Printing is set while a job is running and the extruder moves.
	Printing bool

	FSensorEnabled   bool
	SpoolJoinEnabled bool

	// ToolKnown is false when the active slot is unknown.
	ToolKnown bool
}

// Decide maps the inputs onto a reaction.
func Decide(in Inputs) Decision {
	switch {
	case in.SensorPresent,
		in.ColorChangePending,
		in.LevelingActive,
		!in.AxesHomed,
		!in.Printing,
		!in.FSensorEnabled:
		return None
	case in.SpoolJoinEnabled && in.ToolKnown:
		return AutoJoin
	}
	return ManualChange
}

// NextSlot is the slot a spool join continues on: the following one,
// wrapping after the last.
func NextSlot(current uint8) uint8 {
	if current >= Slots-1 {
		return 0
	}
	return current + 1
}
