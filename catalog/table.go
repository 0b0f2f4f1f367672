package catalog

// Entry is one row of the error catalog.
type Entry struct {
	// Code is the public, documented error number (e.g. 04101).
	Code        uint16
	Title       string
	Description string
	Buttons     ErrorButtons
}

func btns(middle, right ButtonOperation) ErrorButtons {
	return ErrorButtons{Middle: middle, Right: right}
}

// catalog row identifiers; the order of entries below must match.
const (
	errFindaDidntTrigger = iota
	errFindaFilamentStuck
	errFSensorDidntTrigger
	errFSensorFilamentStuck
	errPulleyCannotMove
	errFSensorTooEarly
	errInspectFinda
	errLoadToExtruderFailed
	errSelectorCannotHome
	errSelectorCannotMove
	errIdlerCannotHome
	errIdlerCannotMove

	errPulleyTooHot
	errSelectorTooHot
	errIdlerTooHot
	errPulleyOverheat
	errSelectorOverheat
	errIdlerOverheat

	errPulleyDriverError
	errSelectorDriverError
	errIdlerDriverError
	errPulleyDriverReset
	errSelectorDriverReset
	errIdlerDriverReset
	errPulleyUndervoltage
	errSelectorUndervoltage
	errIdlerUndervoltage
	errPulleyShorted
	errSelectorShorted
	errIdlerShorted
	errPulleySelfTest
	errSelectorSelfTest
	errIdlerSelfTest
	errMCUUndervoltage

	errMMUNotResponding
	errCommunicationError

	errFilamentAlreadyLoaded
	errInvalidTool
	errQueueFull
	errFWUpdateNeeded
	errFWRuntimeError
	errUnloadManually
	errFilamentEjected
	errFilamentChange

	errUnknown
)

// UnknownIndex is the catalog index every unmapped error code resolves to.
const UnknownIndex = errUnknown

var entries = [...]Entry{
	errFindaDidntTrigger: {4101, "FINDA DIDNT TRIGGER",
		"FINDA didn't trigger while loading the filament. Ensure the filament can move and FINDA works.",
		btns(Retry, Tune)},
	errFindaFilamentStuck: {4102, "FINDA FILAM. STUCK",
		"FINDA didn't switch off while unloading filament. Try unloading manually. Ensure filament can move and FINDA works.",
		btns(Retry, NoOperation)},
	errFSensorDidntTrigger: {4103, "FSENSOR DIDNT TRIGG.",
		"Filament sensor didn't trigger while loading the filament. Ensure the sensor is calibrated and the filament reached it.",
		btns(Retry, NoOperation)},
	errFSensorFilamentStuck: {4104, "FSENSOR FIL. STUCK",
		"Filament sensor didn't switch off while unloading filament. Ensure filament can move and the sensor works.",
		btns(Retry, NoOperation)},
	errPulleyCannotMove: {4105, "PULLEY CANNOT MOVE",
		"Pulley motor stalled. Ensure the pulley can move and check the wiring.",
		btns(Retry, Tune)},
	errFSensorTooEarly: {4106, "FSENSOR TOO EARLY",
		"Filament sensor triggered too early while loading to extruder. Check there isn't anything stuck in PTFE tube. Check that sensor reads properly.",
		btns(Retry, NoOperation)},
	errInspectFinda: {4107, "INSPECT FINDA",
		"Selector can't move due to FINDA detecting a filament. Make sure no filament is in Selector and FINDA works properly.",
		btns(Retry, NoOperation)},
	errLoadToExtruderFailed: {4108, "LOAD TO EXTR. FAILED",
		"Loading to extruder failed. Inspect the filament tip shape. Refine the sensor calibration, if needed.",
		btns(Retry, NoOperation)},
	errSelectorCannotHome: {4115, "SELECTOR CANNOT HOME",
		"The Selector cannot home properly. Check for anything blocking its movement.",
		btns(Retry, Tune)},
	errSelectorCannotMove: {4116, "SELECTOR CANNOT MOVE",
		"The Selector cannot move. Check for anything blocking its movement. Check if the wiring is correct.",
		btns(Retry, Tune)},
	errIdlerCannotHome: {4125, "IDLER CANNOT HOME",
		"The Idler cannot home properly. Check for anything blocking its movement.",
		btns(Retry, Tune)},
	errIdlerCannotMove: {4126, "IDLER CANNOT MOVE",
		"The Idler cannot move properly. Check for anything blocking its movement. Check if the wiring is correct.",
		btns(Retry, Tune)},

	errPulleyTooHot: {4201, "WARNING TMC TOO HOT",
		"TMC driver for the Pulley motor is almost overheating. Make sure there is sufficient airflow near the MMU board.",
		btns(Continue, ResetMMU)},
	errSelectorTooHot: {4211, "WARNING TMC TOO HOT",
		"TMC driver for the Selector motor is almost overheating. Make sure there is sufficient airflow near the MMU board.",
		btns(Continue, ResetMMU)},
	errIdlerTooHot: {4221, "WARNING TMC TOO HOT",
		"TMC driver for the Idler motor is almost overheating. Make sure there is sufficient airflow near the MMU board.",
		btns(Continue, ResetMMU)},
	errPulleyOverheat: {4202, "TMC OVERHEAT ERROR",
		"TMC driver for the Pulley motor is overheated. Cool down the MMU board and reset MMU.",
		btns(ResetMMU, NoOperation)},
	errSelectorOverheat: {4212, "TMC OVERHEAT ERROR",
		"TMC driver for the Selector motor is overheated. Cool down the MMU board and reset MMU.",
		btns(ResetMMU, NoOperation)},
	errIdlerOverheat: {4222, "TMC OVERHEAT ERROR",
		"TMC driver for the Idler motor is overheated. Cool down the MMU board and reset MMU.",
		btns(ResetMMU, NoOperation)},

	errPulleyDriverError: {4301, "TMC DRIVER ERROR",
		"TMC driver for the Pulley motor is not responding. Try resetting the MMU. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errSelectorDriverError: {4311, "TMC DRIVER ERROR",
		"TMC driver for the Selector motor is not responding. Try resetting the MMU. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errIdlerDriverError: {4321, "TMC DRIVER ERROR",
		"TMC driver for the Idler motor is not responding. Try resetting the MMU. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errPulleyDriverReset: {4302, "TMC DRIVER RESET",
		"TMC driver for the Pulley motor was restarted. There is probably an issue with the electronics. Check the wiring and connectors.",
		btns(ResetMMU, NoOperation)},
	errSelectorDriverReset: {4312, "TMC DRIVER RESET",
		"TMC driver for the Selector motor was restarted. There is probably an issue with the electronics. Check the wiring and connectors.",
		btns(ResetMMU, NoOperation)},
	errIdlerDriverReset: {4322, "TMC DRIVER RESET",
		"TMC driver for the Idler motor was restarted. There is probably an issue with the electronics. Check the wiring and connectors.",
		btns(ResetMMU, NoOperation)},
	errPulleyUndervoltage: {4303, "TMC UNDERVOLTAGE ERR",
		"Not enough current for the Pulley TMC driver. There is probably an issue with the electronics. Check the wiring and connectors.",
		btns(ResetMMU, NoOperation)},
	errSelectorUndervoltage: {4313, "TMC UNDERVOLTAGE ERR",
		"Not enough current for the Selector TMC driver. There is probably an issue with the electronics. Check the wiring and connectors.",
		btns(ResetMMU, NoOperation)},
	errIdlerUndervoltage: {4323, "TMC UNDERVOLTAGE ERR",
		"Not enough current for the Idler TMC driver. There is probably an issue with the electronics. Check the wiring and connectors.",
		btns(ResetMMU, NoOperation)},
	errPulleyShorted: {4304, "TMC DRIVER SHORTED",
		"Short circuit on the Pulley TMC driver. Check the wiring and connectors. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errSelectorShorted: {4314, "TMC DRIVER SHORTED",
		"Short circuit on the Selector TMC driver. Check the wiring and connectors. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errIdlerShorted: {4324, "TMC DRIVER SHORTED",
		"Short circuit on the Idler TMC driver. Check the wiring and connectors. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errPulleySelfTest: {4305, "MMU SELFTEST FAILED",
		"MMU selftest failed on the Pulley TMC driver. Check the wiring and connectors. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errSelectorSelfTest: {4315, "MMU SELFTEST FAILED",
		"MMU selftest failed on the Selector TMC driver. Check the wiring and connectors. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errIdlerSelfTest: {4325, "MMU SELFTEST FAILED",
		"MMU selftest failed on the Idler TMC driver. Check the wiring and connectors. If the issue persists contact support.",
		btns(ResetMMU, NoOperation)},
	errMCUUndervoltage: {4306, "MCU UNDERVOLTAGE VCC",
		"MMU MCU detected a 5V undervoltage. There might be an issue with the electronics. Check the wiring and connectors.",
		btns(ResetMMU, NoOperation)},

	errMMUNotResponding: {4401, "MMU NOT RESPONDING",
		"MMU not responding. Check the wiring and connectors.",
		btns(ResetMMU, DisableMMU)},
	errCommunicationError: {4402, "COMMUNICATION ERROR",
		"MMU not responding correctly. Check the wiring and connectors.",
		btns(ResetMMU, DisableMMU)},

	errFilamentAlreadyLoaded: {4501, "FIL. ALREADY LOADED",
		"Cannot perform the action, filament is already loaded. Unload it first.",
		btns(Unload, Continue)},
	errInvalidTool: {4502, "INVALID TOOL",
		"Requested filament tool is not available on this hardware. Check the G-code for tool index out of range (T0-T4).",
		btns(StopPrint, ResetMMU)},
	errQueueFull: {4503, "QUEUE FULL",
		"MMU Firmware internal error, please reset the MMU.",
		btns(ResetMMU, NoOperation)},
	errFWUpdateNeeded: {4504, "MMU FW UPDATE NEEDED",
		"The MMU firmware version is incompatible with the printer's FW. Update to compatible version.",
		btns(DisableMMU, NoOperation)},
	errFWRuntimeError: {4505, "FW RUNTIME ERROR",
		"Internal runtime error. Try resetting the MMU or updating the firmware.",
		btns(ResetMMU, NoOperation)},
	errUnloadManually: {4506, "UNLOAD MANUALLY",
		"Filament detected unexpectedly. Ensure no filament is loaded. Check the sensors and wiring.",
		btns(Unload, NoOperation)},
	errFilamentEjected: {4507, "FILAMENT EJECTED",
		"Remove the ejected filament from the front of the MMU.",
		btns(Continue, NoOperation)},
	errFilamentChange: {4508, "FILAMENT CHANGE",
		"M600 Filament Change. Load a new filament or eject the old one.",
		btns(Load, Eject)},

	errUnknown: {4900, "UNKNOWN ERROR",
		"Unexpected error occurred.",
		btns(ResetMMU, NoOperation)},
}

// Len is the number of catalog rows.
func Len() int {
	return len(entries)
}

// Index maps an error code onto its catalog row. It never fails: codes
// without a dedicated row resolve to UnknownIndex.
func Index(ec ErrorCode) int {
	switch ec {
	case FindaDidntSwitchOn:
		return errFindaDidntTrigger
	case FindaDidntSwitchOff:
		return errFindaFilamentStuck
	case FSensorDidntSwitchOn:
		return errFSensorDidntTrigger
	case FSensorDidntSwitchOff:
		return errFSensorFilamentStuck
	case FSensorTooEarly:
		return errFSensorTooEarly
	case FindaFlickers:
		return errInspectFinda
	case LoadToExtruderFailed:
		return errLoadToExtruderFailed
	case MovePulleyFailed:
		return errPulleyCannotMove
	case HomingSelectorFailed:
		return errSelectorCannotHome
	case MoveSelectorFailed:
		return errSelectorCannotMove
	case HomingIdlerFailed:
		return errIdlerCannotHome
	case MoveIdlerFailed:
		return errIdlerCannotMove
	case MCUUndervoltageVCC:
		return errMCUUndervoltage
	case MMUNotResponding:
		return errMMUNotResponding
	case ProtocolError:
		return errCommunicationError
	case FilamentAlreadyLoaded:
		return errFilamentAlreadyLoaded
	case InvalidTool:
		return errInvalidTool
	case QueueFull:
		return errQueueFull
	case VersionMismatch:
		return errFWUpdateNeeded
	case Internal:
		return errFWRuntimeError
	case FilamentEjected:
		return errFilamentEjected
	case FilamentChange:
		return errFilamentChange
	}

	cls := Decode(ec)
	if !cls.IsTMC() {
		return errUnknown
	}
	// rows for the three motors are laid out pulley, selector, idler
	offset := int(cls.Motor - Pulley)
	switch cls.Fault {
	case FaultIOINMismatch:
		return errPulleyDriverError + offset
	case FaultReset:
		return errPulleyDriverReset + offset
	case FaultUndervoltage:
		return errPulleyUndervoltage + offset
	case FaultShorted:
		return errPulleyShorted + offset
	case FaultSelfTest:
		return errPulleySelfTest + offset
	case FaultOverTemperatureWarn:
		return errPulleyTooHot + offset
	case FaultOverTemperatureError:
		return errPulleyOverheat + offset
	}
	return errUnknown
}

// At returns the catalog row i, falling back to the unknown error row when
// i is out of range.
func At(i int) Entry {
	if i < 0 || i >= len(entries) {
		return entries[errUnknown]
	}
	return entries[i]
}

// Lookup returns the catalog row for ec.
func Lookup(ec ErrorCode) Entry {
	return At(Index(ec))
}

// Title is a shortcut for Lookup(ec).Title.
func Title(ec ErrorCode) string {
	return Lookup(ec).Title
}
