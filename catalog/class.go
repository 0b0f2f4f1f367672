package catalog

// Class is the coarse category of an error.
type Class int

const (
	ClassUnknown Class = iota
	ClassMechanical
	ClassTemperature
	ClassElectrical
	ClassConnect
	ClassSystem
)

func (c Class) String() string {
	switch c {
	case ClassMechanical:
		return "mechanical"
	case ClassTemperature:
		return "temperature"
	case ClassElectrical:
		return "electrical"
	case ClassConnect:
		return "connect"
	case ClassSystem:
		return "system"
	}
	return "unknown"
}

// Motor identifies one of the unit's three steppers.
type Motor int

const (
	NoMotor Motor = iota
	Pulley
	Selector
	Idler
)

func (m Motor) String() string {
	switch m {
	case Pulley:
		return "pulley"
	case Selector:
		return "selector"
	case Idler:
		return "idler"
	}
	return "none"
}

// TMCFault is the driver fault carried by a TMC error.
type TMCFault int

const (
	NoTMCFault TMCFault = iota
	FaultIOINMismatch
	FaultReset
	FaultUndervoltage
	FaultShorted
	FaultOverTemperatureWarn
	FaultOverTemperatureError
	FaultSelfTest
)

// ErrorClass is the decoded form of a raw ErrorCode. It is computed once by
// Decode and then matched on, instead of testing bits at every call site.
type ErrorClass struct {
	Class Class
	Motor Motor
	Fault TMCFault
}

// IsTMC reports whether the error originates from a stepper driver.
func (e ErrorClass) IsTMC() bool {
	return e.Fault != NoTMCFault
}

// firstMotor picks the highest priority motor named by the motor bits.
func firstMotor(ec ErrorCode) Motor {
	switch {
	case ec&TMCPulleyBit != 0:
		return Pulley
	case ec&TMCSelectorBit != 0:
		return Selector
	case ec&TMCIdlerBit != 0:
		return Idler
	}
	return NoMotor
}

// Decode classifies a raw error code. Several motors may be flagged at
// once; the first one in pulley, selector, idler order is reported.
func Decode(ec ErrorCode) ErrorClass {
	switch ec {
	case FindaDidntSwitchOn, FindaDidntSwitchOff, FSensorDidntSwitchOn, FSensorDidntSwitchOff,
		FSensorTooEarly, FindaFlickers, LoadToExtruderFailed,
		MovePulleyFailed, HomingSelectorFailed, MoveSelectorFailed, HomingIdlerFailed, MoveIdlerFailed:
		return ErrorClass{Class: ClassMechanical, Motor: firstMotor(ec)}
	case MMUNotResponding, ProtocolError:
		return ErrorClass{Class: ClassConnect}
	case FilamentAlreadyLoaded, InvalidTool, QueueFull, VersionMismatch, Internal, FilamentEjected, FilamentChange:
		return ErrorClass{Class: ClassSystem}
	case MCUUndervoltageVCC:
		return ErrorClass{Class: ClassElectrical}
	}

	if ec&0x8000 == 0 || ec&tmcMask == 0 {
		return ErrorClass{}
	}
	motor := firstMotor(ec)
	if motor == NoMotor {
		return ErrorClass{}
	}

	// combinations before single bits
	if ec&MMUSolderingNeedsAttention == MMUSolderingNeedsAttention {
		return ErrorClass{Class: ClassElectrical, Motor: motor, Fault: FaultSelfTest}
	}
	switch {
	case ec&TMCIOINMismatch == TMCIOINMismatch:
		return ErrorClass{Class: ClassElectrical, Motor: motor, Fault: FaultIOINMismatch}
	case ec&TMCReset == TMCReset:
		return ErrorClass{Class: ClassElectrical, Motor: motor, Fault: FaultReset}
	case ec&TMCUndervoltageOnChargePump == TMCUndervoltageOnChargePump:
		return ErrorClass{Class: ClassElectrical, Motor: motor, Fault: FaultUndervoltage}
	case ec&TMCShorted == TMCShorted:
		return ErrorClass{Class: ClassElectrical, Motor: motor, Fault: FaultShorted}
	case ec&TMCOverTemperatureError == TMCOverTemperatureError:
		return ErrorClass{Class: ClassTemperature, Motor: motor, Fault: FaultOverTemperatureError}
	case ec&TMCOverTemperatureWarn == TMCOverTemperatureWarn:
		return ErrorClass{Class: ClassTemperature, Motor: motor, Fault: FaultOverTemperatureWarn}
	}
	return ErrorClass{}
}
