package unitsim

import (
	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/protocol"
)

func accept(rq protocol.Request, v uint16) protocol.Response {
	return protocol.Response{Request: rq, Param: protocol.ParamAccepted, Value: v}
}

func reject(rq protocol.Request) protocol.Response {
	return protocol.Response{Request: rq, Param: protocol.ParamRejected}
}

func (u *Unit) register(addr uint8) uint16 {
	switch addr {
	case protocol.RegFWMajor, protocol.RegFWMinor, protocol.RegFWRevision:
		return uint16(u.version[addr])
	case protocol.RegFWBuild:
		return u.build
	case protocol.RegProgress:
		return uint16(u.progress)
	case protocol.RegError:
		return uint16(u.errCode)
	case protocol.RegFINDA:
		return boolReg(u.finda)
	case protocol.RegFSensor:
		return boolReg(u.fsensor)
	case protocol.RegSelectorSlot, protocol.RegIdlerSlot:
		return uint16(u.slot)
	}
	return u.regs[addr]
}

func boolReg(v bool) uint16 {
	if v {
		return 1
	}
	return 0
}

func (u *Unit) handle(rq protocol.Request) (protocol.Response, bool) {
	switch rq.Code {
	case protocol.Version:
		if rq.Value > 3 {
			return reject(rq), true
		}
		if rq.Value == 3 {
			return accept(rq, u.build), true
		}
		return accept(rq, uint16(u.version[rq.Value])), true
	case protocol.Read:
		if rq.Value > protocol.RegIdlerIRun {
			return reject(rq), true
		}
		return accept(rq, u.register(rq.Value)), true
	case protocol.Write:
		if rq.Value <= protocol.RegFSensor || rq.Value > protocol.RegIdlerIRun {
			return reject(rq), true
		}
		u.regs[rq.Value] = rq.Value2
		return accept(rq, 0), true
	case protocol.FilamentSensor:
		u.fsensor = rq.Value != 0
		return accept(rq, 0), true
	case protocol.Query:
		return u.query(), true
	case protocol.Button:
		u.pressed(catalog.Buttons(rq.Value))
		return accept(rq, 0), true
	case protocol.Reset:
		u.reset()
		return accept(rq, 0), true
	}

	if !rq.Code.IsCommand() {
		return reject(rq), true
	}
	if u.rejectNext > 0 {
		u.rejectNext--
		return reject(rq), true
	}
	if u.state != cmdFinished {
		return reject(rq), true
	}
	u.cmd = rq
	u.begin()
	return accept(rq, 0), true
}

func (u *Unit) begin() {
	u.state = cmdRunning
	u.remaining = u.CommandPolls
	u.errCode = catalog.Running
	u.progress = progressFor(u.cmd.Code, u.loaded)
}

func progressFor(c protocol.RequestCode, loaded bool) catalog.ProgressCode {
	switch c {
	case protocol.Tool:
		if loaded {
			return catalog.UnloadingToFinda
		}
		return catalog.FeedingToFSensor
	case protocol.Load:
		return catalog.FeedingToFinda
	case protocol.Unload:
		return catalog.UnloadingToFinda
	case protocol.Eject:
		return catalog.EjectingFilament
	case protocol.Cut:
		return catalog.PerformingCut
	case protocol.Home:
		return catalog.Homing
	}
	return catalog.ProgressOK
}

func (u *Unit) query() protocol.Response {
	rsp := protocol.Response{Request: u.cmd}
	if u.button != catalog.NoButton {
		rsp.Param = protocol.ParamButton
		rsp.Value = uint16(u.button)
		u.button = catalog.NoButton
		return rsp
	}

	if u.state == cmdRunning {
		u.remaining--
		if u.remaining <= 0 {
			u.complete()
		} else if u.cmd.Code == protocol.Tool {
			u.progress = catalog.FeedingToFSensor
		}
	}

	switch u.state {
	case cmdRunning:
		rsp.Param = protocol.ParamProcessing
		rsp.Value = uint16(u.progress)
	case cmdError:
		rsp.Param = protocol.ParamError
		rsp.Value = uint16(u.errCode)
	default:
		rsp.Param = protocol.ParamFinished
	}
	return rsp
}

func (u *Unit) complete() {
	if q := u.failures[u.cmd.Code]; len(q) > 0 {
		u.failures[u.cmd.Code] = q[1:]
		u.state = cmdError
		u.errCode = q[0]
		u.progress = catalog.ERRWaitingForUser
		return
	}

	switch u.cmd.Code {
	case protocol.Tool:
		u.slot = u.cmd.Value
		u.finda = true
		u.loaded = true
	case protocol.Load:
		// preload stops at the selector; FINDA is released again
		u.finda = false
	case protocol.Unload, protocol.Eject:
		u.finda = false
		u.loaded = false
	}
	u.state = cmdFinished
	u.errCode = catalog.OK
	u.progress = catalog.ProgressOK
}

func (u *Unit) pressed(b catalog.Buttons) {
	if u.state != cmdError {
		return
	}
	switch b {
	case catalog.Middle:
		u.begin()
	case catalog.Right, catalog.Left:
		u.state = cmdFinished
		u.errCode = catalog.OK
		u.progress = catalog.ProgressOK
	}
}
