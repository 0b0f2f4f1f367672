package catalog

// ButtonOperation is an action offered to the user on an error screen.
type ButtonOperation uint8

const (
	NoOperation ButtonOperation = iota
	Retry
	Continue
	ResetMMU
	Unload
	Load
	Eject
	Tune
	StopPrint
	DisableMMU
	MoreInfo
)

var operationNames = [...]string{
	NoOperation: "",
	Retry:       "Retry",
	Continue:    "Continue",
	ResetMMU:    "Reset MMU",
	Unload:      "Unload",
	Load:        "Load",
	Eject:       "Eject",
	Tune:        "Tune",
	StopPrint:   "Stop print",
	DisableMMU:  "Disable MMU",
	MoreInfo:    "More info",
}

func (op ButtonOperation) String() string {
	if int(op) < len(operationNames) {
		return operationNames[op]
	}
	return ""
}

// ParseButtonOperation maps a lowercase name (as used by the HTTP API)
// onto an operation.
func ParseButtonOperation(s string) (ButtonOperation, bool) {
	switch s {
	case "retry":
		return Retry, true
	case "continue":
		return Continue, true
	case "reset":
		return ResetMMU, true
	case "unload":
		return Unload, true
	case "load":
		return Load, true
	case "eject":
		return Eject, true
	case "tune":
		return Tune, true
	case "stop":
		return StopPrint, true
	case "disable":
		return DisableMMU, true
	case "info":
		return MoreInfo, true
	}
	return NoOperation, false
}

// ErrorButtons are the two actions offered for an error.
type ErrorButtons struct {
	Middle ButtonOperation
	Right  ButtonOperation
}

// Has reports whether op is one of the offered actions.
func (b ErrorButtons) Has(op ButtonOperation) bool {
	return op != NoOperation && (b.Middle == op || b.Right == op)
}

// Buttons is what gets pressed in response to an error. The first three
// are physical buttons on the unit and are forwarded to it; the rest are
// handled by the printer.
type Buttons uint8

const (
	Right Buttons = iota
	Middle
	Left
	BtnResetMMU
	BtnLoad
	BtnEject
	BtnStopPrint
	BtnDisableMMU
	BtnTuneMMU
	NoButton Buttons = 0xff
)

// IsUnitButton reports whether b has to be sent to the unit.
func (b Buttons) IsUnitButton() bool {
	return b <= Left
}

// ButtonFor resolves the user's choice on the error screen of ec into the
// button to press. NoButton is returned when op is not offered for ec.
func ButtonFor(ec ErrorCode, op ButtonOperation) Buttons {
	if !Lookup(ec).Buttons.Has(op) {
		return NoButton
	}
	switch op {
	case Retry:
		return Middle
	case Continue:
		return Right
	case Unload:
		return Left
	case ResetMMU:
		return BtnResetMMU
	case Load:
		return BtnLoad
	case Eject:
		return BtnEject
	case StopPrint:
		return BtnStopPrint
	case DisableMMU:
		return BtnDisableMMU
	case Tune:
		return BtnTuneMMU
	}
	return NoButton
}
