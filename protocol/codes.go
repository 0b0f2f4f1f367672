package protocol

// RequestCode is the first character of every request frame.
type RequestCode byte

const (
	Unknown        RequestCode = 0
	Query          RequestCode = 'Q'
	Tool           RequestCode = 'T'
	Load           RequestCode = 'L'
	Unload         RequestCode = 'U'
	Eject          RequestCode = 'E'
	Cut            RequestCode = 'K'
	Home           RequestCode = 'H'
	Reset          RequestCode = 'X'
	Read           RequestCode = 'R'
	Write          RequestCode = 'W'
	Button         RequestCode = 'B'
	Version        RequestCode = 'S'
	FilamentSensor RequestCode = 'f'
)

// IsCommand reports whether the code starts a physical operation on the
// unit, as opposed to a query or register access.
func (c RequestCode) IsCommand() bool {
	switch c {
	case Tool, Load, Unload, Eject, Cut, Home, Reset:
		return true
	}
	return false
}

func (c RequestCode) valid() bool {
	switch c {
	case Query, Tool, Load, Unload, Eject, Cut, Home, Reset, Read, Write, Button, Version, FilamentSensor:
		return true
	}
	return false
}

func (c RequestCode) String() string {
	if c == Unknown {
		return "?"
	}
	return string(rune(c))
}

// ParamCode tags the payload of a response frame.
type ParamCode byte

const (
	ParamUnknown    ParamCode = 0
	ParamAccepted   ParamCode = 'A'
	ParamRejected   ParamCode = 'R'
	ParamProcessing ParamCode = 'P'
	ParamError      ParamCode = 'E'
	ParamFinished   ParamCode = 'F'
	ParamButton     ParamCode = 'B'
)

func (p ParamCode) valid() bool {
	switch p {
	case ParamAccepted, ParamRejected, ParamProcessing, ParamError, ParamFinished, ParamButton:
		return true
	}
	return false
}

// Register addresses on the unit.
const (
	RegFWMajor            uint8 = 0x00
	RegFWMinor            uint8 = 0x01
	RegFWRevision         uint8 = 0x02
	RegFWBuild            uint8 = 0x03
	RegProgress           uint8 = 0x05
	RegError              uint8 = 0x06
	RegFilamentState      uint8 = 0x07
	RegFINDA              uint8 = 0x08
	RegFSensor            uint8 = 0x09
	RegMotorMode          uint8 = 0x0a
	RegExtraLoadDistance  uint8 = 0x0b
	RegFSensorUnloadCheck uint8 = 0x0c
	RegPulleyUnloadFeed   uint8 = 0x0d
	RegPulleyAccel        uint8 = 0x0e
	RegSelectorAccel      uint8 = 0x0f
	RegIdlerAccel         uint8 = 0x10
	RegPulleyLoadFeed     uint8 = 0x11
	RegSelectorFeed       uint8 = 0x12
	RegIdlerFeed          uint8 = 0x13
	RegPulleySlowFeed     uint8 = 0x14
	RegSelectorHomingFeed uint8 = 0x15
	RegIdlerHomingFeed    uint8 = 0x16
	RegPulleySGThrs       uint8 = 0x17
	RegSelectorSGThrs     uint8 = 0x18
	RegIdlerSGThrs        uint8 = 0x19
	RegPulleyPosition     uint8 = 0x1a
	RegSelectorSlot       uint8 = 0x1b
	RegIdlerSlot          uint8 = 0x1c
	RegSelectorCutIRun    uint8 = 0x1d
	RegPulleyIRun         uint8 = 0x1e
	RegSelectorIRun       uint8 = 0x1f
	RegIdlerIRun          uint8 = 0x20
)
