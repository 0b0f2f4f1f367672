// Package logic drives the request/response exchange with the unit. It
// keeps exactly one request in flight and classifies every response into a
// StepStatus for the orchestrator.
package logic

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/protocol"
)

// Transport carries whole frames to and from the unit.
type Transport interface {
	Send(frame []byte) error

	// Recv returns the next received line, if any, without blocking.
	Recv() ([]byte, bool)

	// Flush discards everything buffered in either direction.
	Flush()
}

// Version is the firmware version of the unit.
type Version struct {
	Major, Minor, Revision uint8
	Build                  uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Compatible reports whether firmware v can be driven by a host expecting
// min: major and minor must match and the revision must be at least min's.
func (v Version) Compatible(min Version) bool {
	return v.Major == min.Major && v.Minor == min.Minor && v.Revision >= min.Revision
}

// RegisterWrite is a register assignment sent during the start sequence.
type RegisterWrite struct {
	Address uint8
	Value   uint16
}

const (
	DefaultLinkTimeout   = 2 * time.Second
	DefaultMaxDropOuts   = 10
	DefaultRetryAttempts = 3
)

// DefaultVersion is the oldest firmware accepted when Options.Version is
// not set.
var DefaultVersion = Version{Major: 3, Minor: 0, Revision: 3}

// ErrTimeouts is returned by New when the timeouts are not ordered as
// heartbeat < link timeout < data timeout.
var ErrTimeouts = errors.New("heartbeat < link timeout < data timeout must hold")

// Options configures a ProtocolLogic. Zero values are replaced by defaults.
type Options struct {
	// LinkTimeout bounds the wait for the response to a single request.
	LinkTimeout time.Duration

	// DataTimeout bounds the whole start sequence. Defaults to 3x LinkTimeout.
	DataTimeout time.Duration

	// Heartbeat is the query period. Defaults to LinkTimeout/2.
	Heartbeat time.Duration

	// MaxDropOuts is the number of consecutive communication failures
	// hidden before one is reported.
	MaxDropOuts int

	// RetryAttempts is the automatic retry budget restored by
	// ResetRetryAttempts.
	RetryAttempts uint8

	// Version is the minimum firmware version.
	Version Version

	// InitRegisters are written after the version handshake.
	InitRegisters []RegisterWrite

	// IdleRegisters are read once per idle cycle, after FINDA.
	IdleRegisters []uint8

	Now func() time.Time
}

// initReads are the registers read during the start sequence.
var initReads = []uint8{protocol.RegExtraLoadDistance, protocol.RegPulleySlowFeed, protocol.RegFINDA}

// ProtocolLogic is the protocol state machine. It is not safe for
// concurrent use; it is meant to be driven by a single loop calling Step.
type ProtocolLogic struct {
	t   Transport
	opt Options

	state State
	scope scope
	sub   sub

	rq       protocol.Request
	awaiting bool
	sentAt   time.Time

	lastHeartbeat     time.Time
	handshakeDeadline time.Time
	restartAt         time.Time

	command    protocol.Request
	planned    protocol.Request
	hasPlanned bool

	initIdx int
	idleIdx int

	version   Version
	regs      map[uint8]uint16
	readValue uint16
	readOK    bool

	errorCode catalog.ErrorCode
	progress  catalog.ProgressCode
	button    catalog.Buttons
	finda     bool

	fsensor      bool
	fsensorSent  bool
	fsensorKnown bool

	retryAttempts uint8
	inAutoRetry   bool
	printerError  catalog.ErrorCode

	dropOut *DropOutFilter
	failed  bool
}

// New creates a stopped ProtocolLogic talking over t.
func New(t Transport, opt Options) (*ProtocolLogic, error) {
	if opt.LinkTimeout == 0 {
		opt.LinkTimeout = DefaultLinkTimeout
	}
	if opt.DataTimeout == 0 {
		opt.DataTimeout = 3 * opt.LinkTimeout
	}
	if opt.Heartbeat == 0 {
		opt.Heartbeat = opt.LinkTimeout / 2
	}
	if opt.MaxDropOuts == 0 {
		opt.MaxDropOuts = DefaultMaxDropOuts
	}
	if opt.RetryAttempts == 0 {
		opt.RetryAttempts = DefaultRetryAttempts
	}
	if opt.Version == (Version{}) {
		opt.Version = DefaultVersion
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Heartbeat <= 0 || opt.Heartbeat >= opt.LinkTimeout || opt.LinkTimeout >= opt.DataTimeout {
		return nil, fmt.Errorf("logic: heartbeat=%s link=%s data=%s: %w", opt.Heartbeat, opt.LinkTimeout, opt.DataTimeout, ErrTimeouts)
	}

	return &ProtocolLogic{
		t:             t,
		opt:           opt,
		regs:          make(map[uint8]uint16),
		button:        catalog.NoButton,
		errorCode:     catalog.OK,
		retryAttempts: opt.RetryAttempts,
		dropOut:       NewDropOutFilter(opt.MaxDropOuts),
	}, nil
}

func (pl *ProtocolLogic) now() time.Time { return pl.opt.Now() }

// Options returns the effective options.
func (pl *ProtocolLogic) Options() Options { return pl.opt }

// Start begins the start sequence.
func (pl *ProtocolLogic) Start() {
	pl.state = InitSequence
	pl.dropOut.Reset()
	pl.failed = false
	pl.restart()
}

// Stop halts all communication. Planned requests are dropped.
func (pl *ProtocolLogic) Stop() {
	pl.state = Stopped
	pl.scope = scopeStopped
	pl.sub = subReady
	pl.awaiting = false
	pl.hasPlanned = false
	pl.t.Flush()
}

func (pl *ProtocolLogic) restart() {
	pl.scope = scopeStartSeq
	pl.sub = subReady
	pl.awaiting = false
	pl.fsensorKnown = false
	pl.handshakeDeadline = pl.now().Add(pl.opt.DataTimeout)
}

func (pl *ProtocolLogic) scheduleRestart() {
	if pl.state == Stopped {
		return
	}
	pl.state = InitSequence
	pl.scope = scopeDelayedRestart
	pl.sub = subReady
	pl.awaiting = false
	pl.restartAt = pl.now().Add(pl.opt.Heartbeat)
}

func (pl *ProtocolLogic) switchToIdle() {
	pl.scope = scopeIdle
	pl.sub = subWait
	pl.command = protocol.Request{}
}

// Step advances the state machine by one tick. It never blocks.
func (pl *ProtocolLogic) Step() StepStatus {
	if pl.state == Stopped {
		return Processing
	}
	if !pl.awaiting {
		pl.activatePlanned()
	}

	prev := pl.scope
	st := pl.scopeStep()
	switch st {
	case Finished:
		switch {
		case !pl.awaiting && pl.activatePlanned():
			if prev != scopeCommand {
				// a new command went out; nothing has finished from the caller's view
				st = Processing
			}
		case pl.scope != scopeIdle:
			pl.switchToIdle()
		}
	case CommandRejected:
		log.Printf("MMU: command %s rejected", pl.command)
	case CommandError:
		log.Printf("MMU: command %s error %s", pl.command, pl.errorCode)
	case VersionMismatch:
		log.Printf("MMU: firmware %s incompatible, need %s", pl.version, pl.opt.Version)
		pl.Stop()
	case ProtocolError, CommunicationTimeout:
		st = pl.handleFailure(st)
	}

	if pl.printerError.IsError() {
		return PrinterError
	}
	return st
}

func (pl *ProtocolLogic) handleFailure(st StepStatus) StepStatus {
	log.Printf("MMU: %s while waiting for %s", st, pl.rq)
	pl.t.Flush()
	pl.scheduleRestart()
	st = pl.dropOut.Record(st)
	if st != Processing {
		pl.failed = true
	}
	return st
}

func (pl *ProtocolLogic) scopeStep() StepStatus {
	switch pl.scope {
	case scopeStartSeq:
		return pl.startSeqStep()
	case scopeDelayedRestart:
		if pl.now().Before(pl.restartAt) {
			return Processing
		}
		pl.restart()
		return Processing
	case scopeIdle:
		return pl.idleStep()
	case scopeCommand:
		return pl.commandStep()
	}
	return Processing
}

// PlanGenericRequest schedules rq to be sent as soon as no response is
// pending. Only one request can be planned; a later one replaces it.
func (pl *ProtocolLogic) PlanGenericRequest(rq protocol.Request) {
	pl.planned = rq
	pl.hasPlanned = true
}

func (pl *ProtocolLogic) activatePlanned() bool {
	if !pl.hasPlanned || pl.state != Running {
		return false
	}
	rq := pl.planned
	pl.hasPlanned = false

	switch rq.Code {
	case protocol.Button:
		pl.sub = subButtonSent
	case protocol.Read:
		pl.readOK = false
		pl.sub = subReadSent
	case protocol.Write:
		pl.readOK = false
		pl.sub = subWriteSent
	default:
		pl.scope = scopeCommand
		pl.command = rq
		pl.errorCode = catalog.Running
		pl.progress = catalog.ProgressOK
		pl.button = catalog.NoButton
		pl.sub = subCommandSent
	}
	pl.send(rq)
	return true
}

func (pl *ProtocolLogic) send(rq protocol.Request) {
	pl.rq = rq
	pl.awaiting = true
	pl.sentAt = pl.now()
	if err := pl.t.Send(rq.Encode()); err != nil {
		// surfaces as a link timeout
		log.Println("ERROR: MMU: send:", err)
	}
}

// expectResponse returns MessageReady with the decoded response once one
// arrived, Processing while still waiting, or a failure status.
func (pl *ProtocolLogic) expectResponse() (protocol.Response, StepStatus) {
	var rsp protocol.Response
	if !pl.awaiting {
		return rsp, ProtocolError
	}
	line, ok := pl.t.Recv()
	if !ok {
		if pl.now().Sub(pl.sentAt) >= pl.opt.LinkTimeout {
			pl.awaiting = false
			return rsp, CommunicationTimeout
		}
		return rsp, Processing
	}
	pl.awaiting = false

	rsp, err := protocol.DecodeResponse(line)
	if err != nil {
		log.Printf("MMU: response %q: %v", line, err)
		return rsp, ProtocolError
	}
	pl.dropOut.Reset()
	return rsp, MessageReady
}

// answers reports whether rsp belongs to the request in flight.
func (pl *ProtocolLogic) answers(rsp protocol.Response) bool {
	return rsp.Request.Code == pl.rq.Code && rsp.Request.Value == pl.rq.Value
}

func (pl *ProtocolLogic) accepted(rsp protocol.Response) bool {
	return pl.answers(rsp) && rsp.Param == protocol.ParamAccepted
}

// ToolChange plans a tool change to slot.
func (pl *ProtocolLogic) ToolChange(slot uint8) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Tool, Value: slot})
}

// LoadFilament plans preloading slot up to FINDA.
func (pl *ProtocolLogic) LoadFilament(slot uint8) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Load, Value: slot})
}

// UnloadFilament plans unloading the active filament.
func (pl *ProtocolLogic) UnloadFilament() {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Unload})
}

// EjectFilament plans ejecting slot.
func (pl *ProtocolLogic) EjectFilament(slot uint8) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Eject, Value: slot})
}

// CutFilament plans cutting the filament tip of slot.
func (pl *ProtocolLogic) CutFilament(slot uint8) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Cut, Value: slot})
}

// Home plans homing of all axes.
func (pl *ProtocolLogic) Home(mode uint8) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Home, Value: mode})
}

// ResetMMU plans a unit reset.
func (pl *ProtocolLogic) ResetMMU(mode uint8) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Reset, Value: mode})
}

// ReadRegister plans a register read; the value is available through
// ReadValue once Step reports Finished.
func (pl *ProtocolLogic) ReadRegister(addr uint8) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Read, Value: addr})
}

// WriteRegister plans a register write.
func (pl *ProtocolLogic) WriteRegister(addr uint8, value uint16) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Write, Value: addr, Value2: value})
}

// Button plans pressing b on the unit.
func (pl *ProtocolLogic) Button(b catalog.Buttons) {
	pl.PlanGenericRequest(protocol.Request{Code: protocol.Button, Value: uint8(b)})
}

// SetFSensor records the state of the printer's filament sensor. Changes
// are forwarded to the unit at the next opportunity.
func (pl *ProtocolLogic) SetFSensor(present bool) {
	pl.fsensor = present
}

func (pl *ProtocolLogic) fsensorChanged() bool {
	return !pl.fsensorKnown || pl.fsensorSent != pl.fsensor
}

func (pl *ProtocolLogic) sendFSensor() {
	var v uint8
	if pl.fsensor {
		v = 1
	}
	pl.fsensorSent = pl.fsensor
	pl.fsensorKnown = true
	pl.send(protocol.Request{Code: protocol.FilamentSensor, Value: v})
	pl.sub = subFSensorSent
}

func (pl *ProtocolLogic) readFINDA() {
	pl.send(protocol.Request{Code: protocol.Read, Value: protocol.RegFINDA})
	pl.sub = subFINDASent
}

func (pl *ProtocolLogic) storeRegister(addr uint8, v uint16) {
	pl.regs[addr] = v
	if addr == protocol.RegFINDA {
		pl.finda = v != 0
	}
}

func (pl *ProtocolLogic) buttonAnswered(rsp protocol.Response) {
	if pl.accepted(rsp) {
		pl.DecrementRetryAttempts()
	}
}

// State is the outer protocol state.
func (pl *ProtocolLogic) State() State { return pl.state }

// Error is the last error code reported by the unit.
func (pl *ProtocolLogic) Error() catalog.ErrorCode { return pl.errorCode }

// Progress is the last progress code reported by the unit.
func (pl *ProtocolLogic) Progress() catalog.ProgressCode { return pl.progress }

// PressedButton is the last button reported as pushed on the unit.
func (pl *ProtocolLogic) PressedButton() catalog.Buttons { return pl.button }

// ClearButton forgets the last pushed button.
func (pl *ProtocolLogic) ClearButton() { pl.button = catalog.NoButton }

// FINDA is the last known state of the unit's filament sensor.
func (pl *ProtocolLogic) FINDA() bool { return pl.finda }

// Version is the firmware version reported during the start sequence.
func (pl *ProtocolLogic) Version() Version { return pl.version }

// Register returns the last value seen for addr.
func (pl *ProtocolLogic) Register(addr uint8) (uint16, bool) {
	v, ok := pl.regs[addr]
	return v, ok
}

// ReadValue is the result of the last ReadRegister. ok is false if the
// unit rejected the request.
func (pl *ProtocolLogic) ReadValue() (v uint16, ok bool) { return pl.readValue, pl.readOK }

// ExtraLoadDistance is the distance (mm) the unit pushes past the
// filament sensor.
func (pl *ProtocolLogic) ExtraLoadDistance() uint8 {
	return uint8(pl.regs[protocol.RegExtraLoadDistance])
}

// PulleySlowFeedrate is the feedrate (mm/s) of the pulley's slow moves.
func (pl *ProtocolLogic) PulleySlowFeedrate() uint16 {
	return pl.regs[protocol.RegPulleySlowFeed]
}

// CommandInProgress is the code of the command being run, or
// protocol.Unknown.
func (pl *ProtocolLogic) CommandInProgress() protocol.RequestCode {
	if pl.scope != scopeCommand {
		return protocol.Unknown
	}
	return pl.command.Code
}

// ResetRetryAttempts restores the automatic retry budget.
func (pl *ProtocolLogic) ResetRetryAttempts() { pl.retryAttempts = pl.opt.RetryAttempts }

// RetryAttempts is the remaining automatic retry budget.
func (pl *ProtocolLogic) RetryAttempts() uint8 { return pl.retryAttempts }

// DecrementRetryAttempts consumes one automatic retry. It only has an
// effect while in auto retry.
func (pl *ProtocolLogic) DecrementRetryAttempts() {
	if pl.inAutoRetry && pl.retryAttempts > 0 {
		pl.retryAttempts--
	}
}

func (pl *ProtocolLogic) SetInAutoRetry(v bool) { pl.inAutoRetry = v }
func (pl *ProtocolLogic) InAutoRetry() bool     { return pl.inAutoRetry }

// SetPrinterError injects an error originating on the printer. Until
// cleared, Step reports PrinterError.
func (pl *ProtocolLogic) SetPrinterError(ec catalog.ErrorCode) { pl.printerError = ec }

// ClearPrinterError removes an injected printer error.
func (pl *ProtocolLogic) ClearPrinterError() { pl.printerError = catalog.Running }

// PrinterError is the injected printer error, or catalog.Running.
func (pl *ProtocolLogic) PrinterError() catalog.ErrorCode { return pl.printerError }

// IsPrinterError reports whether a printer error is pending.
func (pl *ProtocolLogic) IsPrinterError() bool { return pl.printerError.IsError() }
