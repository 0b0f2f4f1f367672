// Package catalog maps the numeric error and progress codes reported by the
// unit onto user facing texts and the actions offered for each error.
package catalog

import "strconv"

// ErrorCode is the raw 16 bit error reported by the unit (or injected by the
// printer). Bit 15 marks an error; bits 6..8 name the motor(s) involved and
// bits 9..14 carry TMC driver faults.
type ErrorCode uint16

const (
	Running ErrorCode = 0x0000
	OK      ErrorCode = 0x0001

	FindaDidntSwitchOn    ErrorCode = 0x8001
	FindaDidntSwitchOff   ErrorCode = 0x8002
	FSensorDidntSwitchOn  ErrorCode = 0x8003
	FSensorDidntSwitchOff ErrorCode = 0x8004
	FilamentAlreadyLoaded ErrorCode = 0x8005
	InvalidTool           ErrorCode = 0x8006
	HomingFailed          ErrorCode = 0x8007
	MoveFailed            ErrorCode = 0x8008
	FilamentEjected       ErrorCode = 0x8009
	FSensorTooEarly       ErrorCode = 0x800a
	FindaFlickers         ErrorCode = 0x800b
	MCUUndervoltageVCC    ErrorCode = 0x800d
	FilamentChange        ErrorCode = 0x8029
	LoadToExtruderFailed  ErrorCode = 0x802a
	QueueFull             ErrorCode = 0x802b
	VersionMismatch       ErrorCode = 0x802c
	ProtocolError         ErrorCode = 0x802d
	MMUNotResponding      ErrorCode = 0x802e
	Internal              ErrorCode = 0x802f

	TMCPulleyBit   ErrorCode = 0x0040
	TMCSelectorBit ErrorCode = 0x0080
	TMCIdlerBit    ErrorCode = 0x0100

	HomingSelectorFailed ErrorCode = HomingFailed | TMCSelectorBit
	HomingIdlerFailed    ErrorCode = HomingFailed | TMCIdlerBit
	MoveSelectorFailed   ErrorCode = MoveFailed | TMCSelectorBit
	MoveIdlerFailed      ErrorCode = MoveFailed | TMCIdlerBit
	MovePulleyFailed     ErrorCode = MoveFailed | TMCPulleyBit

	TMCIOINMismatch             ErrorCode = 0x8200
	TMCReset                    ErrorCode = 0x8400
	TMCUndervoltageOnChargePump ErrorCode = 0x8800
	TMCShorted                  ErrorCode = 0x9000
	TMCOverTemperatureWarn      ErrorCode = 0xa000
	TMCOverTemperatureError     ErrorCode = 0xc000

	// MMUSolderingNeedsAttention is reported when a driver self test finds
	// both an IOIN mismatch and an over temperature condition.
	MMUSolderingNeedsAttention ErrorCode = 0xc200
)

const (
	motorMask = TMCPulleyBit | TMCSelectorBit | TMCIdlerBit
	tmcMask   = 0x7e00
)

func (ec ErrorCode) String() string {
	return "0x" + strconv.FormatUint(uint64(ec), 16)
}

// IsError reports whether ec describes a failure rather than RUNNING/OK.
func (ec ErrorCode) IsError() bool {
	return ec != Running && ec != OK
}
