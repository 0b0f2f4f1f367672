package logic

import (
	"time"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/protocol"
)

func (pl *ProtocolLogic) startSeqStep() StepStatus {
	if pl.now().After(pl.handshakeDeadline) {
		pl.awaiting = false
		return CommunicationTimeout
	}
	if pl.sub == subReady {
		pl.initIdx = 0
		pl.send(protocol.Request{Code: protocol.Version, Value: 0})
		pl.sub = subVersionSent
		return Processing
	}

	rsp, st := pl.expectResponse()
	if st != MessageReady {
		return st
	}
	if !pl.accepted(rsp) {
		return ProtocolError
	}

	switch pl.sub {
	case subVersionSent:
		switch pl.rq.Value {
		case 0:
			pl.version.Major = uint8(rsp.Value)
		case 1:
			pl.version.Minor = uint8(rsp.Value)
		case 2:
			pl.version.Revision = uint8(rsp.Value)
		case 3:
			pl.version.Build = rsp.Value
		}
		if pl.rq.Value < 3 {
			pl.send(protocol.Request{Code: protocol.Version, Value: pl.rq.Value + 1})
			return Processing
		}
		if !pl.version.Compatible(pl.opt.Version) {
			return VersionMismatch
		}
		return pl.nextInitRead()
	case subInitReadSent:
		pl.storeRegister(pl.rq.Value, rsp.Value)
		return pl.nextInitRead()
	case subInitWriteSent:
		pl.regs[pl.rq.Value] = pl.rq.Value2
		return pl.nextInitWrite()
	}
	return ProtocolError
}

func (pl *ProtocolLogic) nextInitRead() StepStatus {
	if pl.initIdx < len(initReads) {
		pl.send(protocol.Request{Code: protocol.Read, Value: initReads[pl.initIdx]})
		pl.initIdx++
		pl.sub = subInitReadSent
		return Processing
	}
	pl.initIdx = 0
	return pl.nextInitWrite()
}

func (pl *ProtocolLogic) nextInitWrite() StepStatus {
	if pl.initIdx < len(pl.opt.InitRegisters) {
		w := pl.opt.InitRegisters[pl.initIdx]
		pl.send(protocol.Request{Code: protocol.Write, Value: w.Address, Value2: w.Value})
		pl.initIdx++
		pl.sub = subInitWriteSent
		return Processing
	}

	pl.state = Running
	pl.switchToIdle()
	// ask right away, the unit may still be busy with a command
	pl.sendQuery()
	if pl.failed {
		pl.failed = false
		return CommunicationRecovered
	}
	return Finished
}

func (pl *ProtocolLogic) heartbeatDue() bool {
	return pl.now().Sub(pl.lastHeartbeat) >= pl.opt.Heartbeat
}

func (pl *ProtocolLogic) sendQuery() {
	pl.lastHeartbeat = pl.now()
	pl.send(protocol.Request{Code: protocol.Query})
	pl.sub = subQuerySent
}

func (pl *ProtocolLogic) idleStep() StepStatus {
	if pl.sub == subReady || pl.sub == subWait {
		if !pl.heartbeatDue() {
			return Finished
		}
		pl.sendQuery()
		return Processing
	}

	rsp, st := pl.expectResponse()
	if st != MessageReady {
		return st
	}

	switch pl.sub {
	case subQuerySent:
		return pl.idleQueryResponse(rsp)
	case subFINDASent:
		if !pl.accepted(rsp) {
			return ProtocolError
		}
		pl.storeRegister(protocol.RegFINDA, rsp.Value)
		pl.idleIdx = 0
		return pl.nextIdleRegister()
	case subRegisterSent:
		if !pl.accepted(rsp) {
			return ProtocolError
		}
		pl.storeRegister(pl.rq.Value, rsp.Value)
		return pl.nextIdleRegister()
	case subFSensorSent:
		pl.sub = subWait
		return Finished
	case subReadSent:
		if pl.accepted(rsp) {
			pl.readValue, pl.readOK = rsp.Value, true
			pl.storeRegister(pl.rq.Value, rsp.Value)
		}
		pl.sub = subWait
		return Finished
	case subWriteSent:
		if pl.accepted(rsp) {
			pl.readOK = true
			pl.regs[pl.rq.Value] = pl.rq.Value2
		}
		pl.sub = subWait
		return Finished
	case subButtonSent:
		pl.buttonAnswered(rsp)
		pl.sub = subWait
		return Finished
	}
	return ProtocolError
}

func (pl *ProtocolLogic) idleQueryResponse(rsp protocol.Response) StepStatus {
	switch rsp.Param {
	case protocol.ParamProcessing, protocol.ParamError:
		if rsp.Request.Code.IsCommand() {
			// the unit is still busy with something, e.g. after a restart
			// of the link in the middle of a command
			pl.scope = scopeCommand
			pl.command = rsp.Request
			return pl.commandQueryResponse(rsp)
		}
		pl.errorCode = catalog.OK
	case protocol.ParamFinished:
		pl.errorCode = catalog.OK
		pl.progress = catalog.ProgressOK
	case protocol.ParamButton:
		pl.button = catalog.Buttons(rsp.Value)
		pl.readFINDA()
		return ButtonPushed
	default:
		return ProtocolError
	}
	pl.readFINDA()
	return Processing
}

func (pl *ProtocolLogic) nextIdleRegister() StepStatus {
	if pl.idleIdx < len(pl.opt.IdleRegisters) {
		pl.send(protocol.Request{Code: protocol.Read, Value: pl.opt.IdleRegisters[pl.idleIdx]})
		pl.idleIdx++
		pl.sub = subRegisterSent
		return Processing
	}
	if pl.fsensorChanged() {
		pl.sendFSensor()
		return Processing
	}
	pl.sub = subWait
	return Finished
}

func (pl *ProtocolLogic) commandStep() StepStatus {
	switch pl.sub {
	case subWait:
		if pl.heartbeatDue() {
			pl.sendQuery()
		}
		return Processing
	case subRejected:
		if pl.heartbeatDue() {
			pl.lastHeartbeat = pl.now()
			pl.send(pl.command)
			pl.sub = subCommandSent
		}
		return Processing
	}

	rsp, st := pl.expectResponse()
	if st != MessageReady {
		return st
	}

	switch pl.sub {
	case subCommandSent:
		if !pl.answers(rsp) {
			return ProtocolError
		}
		switch rsp.Param {
		case protocol.ParamAccepted:
			pl.errorCode = catalog.Running
			pl.sendQuery()
			return Processing
		case protocol.ParamRejected:
			pl.lastHeartbeat = pl.now()
			pl.sub = subRejected
			return CommandRejected
		}
		return ProtocolError
	case subQuerySent:
		return pl.commandQueryResponse(rsp)
	case subFINDASent:
		if !pl.accepted(rsp) {
			return ProtocolError
		}
		pl.storeRegister(protocol.RegFINDA, rsp.Value)
		if pl.fsensorChanged() {
			pl.sendFSensor()
			return Processing
		}
		pl.sub = subWait
		return Processing
	case subFinishedFINDASent:
		if !pl.accepted(rsp) {
			return ProtocolError
		}
		pl.storeRegister(protocol.RegFINDA, rsp.Value)
		pl.sub = subWait
		return Finished
	case subFSensorSent:
		pl.sub = subWait
		return Processing
	case subButtonSent:
		pl.buttonAnswered(rsp)
		// ask right away how the unit reacted
		pl.lastHeartbeat = time.Time{}
		pl.sub = subWait
		return Processing
	case subReadSent:
		if pl.accepted(rsp) {
			pl.readValue, pl.readOK = rsp.Value, true
			pl.storeRegister(pl.rq.Value, rsp.Value)
		}
		pl.sub = subWait
		return Processing
	case subWriteSent:
		if pl.accepted(rsp) {
			pl.readOK = true
			pl.regs[pl.rq.Value] = pl.rq.Value2
		}
		pl.sub = subWait
		return Processing
	}
	return ProtocolError
}

func (pl *ProtocolLogic) commandQueryResponse(rsp protocol.Response) StepStatus {
	if rsp.Request.Code != pl.command.Code || rsp.Request.Value != pl.command.Value {
		// the unit is not running our command anymore
		pl.switchToIdle()
		return Interrupted
	}

	switch rsp.Param {
	case protocol.ParamProcessing:
		pl.progress = catalog.ProgressCode(rsp.Value)
		pl.errorCode = catalog.Running
		pl.readFINDA()
		return Processing
	case protocol.ParamError:
		pl.errorCode = catalog.ErrorCode(rsp.Value)
		pl.readFINDA()
		return CommandError
	case protocol.ParamButton:
		pl.button = catalog.Buttons(rsp.Value)
		pl.readFINDA()
		return ButtonPushed
	case protocol.ParamFinished:
		pl.errorCode = catalog.OK
		pl.progress = catalog.ProgressOK
		// FINDA must reflect the state after the command before anyone
		// looks at it again
		pl.send(protocol.Request{Code: protocol.Read, Value: protocol.RegFINDA})
		pl.sub = subFinishedFINDASent
		return Processing
	}
	return ProtocolError
}
