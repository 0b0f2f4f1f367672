package logic

// StepStatus is the outcome of a single Step.
type StepStatus int

const (
	Processing StepStatus = iota
	MessageReady
	Finished
	Interrupted
	CommunicationTimeout
	ProtocolError
	CommandRejected
	CommandError
	VersionMismatch
	PrinterError
	CommunicationRecovered
	ButtonPushed
)

var statusNames = [...]string{
	Processing:             "Processing",
	MessageReady:           "MessageReady",
	Finished:               "Finished",
	Interrupted:            "Interrupted",
	CommunicationTimeout:   "CommunicationTimeout",
	ProtocolError:          "ProtocolError",
	CommandRejected:        "CommandRejected",
	CommandError:           "CommandError",
	VersionMismatch:        "VersionMismatch",
	PrinterError:           "PrinterError",
	CommunicationRecovered: "CommunicationRecovered",
	ButtonPushed:           "ButtonPushed",
}

func (s StepStatus) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "StepStatus(?)"
}

// State is the outer state of the protocol.
type State int

const (
	Stopped State = iota
	InitSequence
	Running
)

func (s State) String() string {
	switch s {
	case InitSequence:
		return "InitSequence"
	case Running:
		return "Running"
	}
	return "Stopped"
}

type scope int

const (
	scopeStopped scope = iota
	scopeStartSeq
	scopeDelayedRestart
	scopeIdle
	scopeCommand
)

// sub is the position inside the current scope.
type sub int

const (
	subReady sub = iota
	subWait
	subVersionSent
	subInitReadSent
	subInitWriteSent
	subCommandSent
	subRejected
	subQuerySent
	subFINDASent
	subFinishedFINDASent
	subRegisterSent
	subFSensorSent
	subButtonSent
	subReadSent
	subWriteSent
)
