package mmu

import (
	"log"
	"math"
	"time"

	"github.com/mastercactapus/gmmu/coord"
	"github.com/mastercactapus/gmmu/logic"
)

// tempTolerance is how close (°C) the hotend has to get to its target
// before filament is moved again.
const tempTolerance = 5

// responseWait waits for the command in flight to finish. Each poll runs
// exactly one protocol step.
type responseWait struct {
	m             *MMU
	moveAxes      bool
	turnOffNozzle bool
}

// poll advances the wait. done is set once the command reached a terminal
// state; ok then tells whether it completed.
func (w *responseWait) poll() (done, ok bool) {
	m := w.m
	if m.state == Stopped {
		return true, false
	}

	m.lastStatus = m.logicStep(true)
	m.checkCooldown()

	switch m.lastStatus {
	case logic.Finished:
		m.resumeHotendTemp()
		m.resumeUnpark()
		if !m.holdRetries {
			m.logic.ResetRetryAttempts()
		}
		m.host.Synchronize()
		return true, true
	case logic.Interrupted:
		return true, false
	case logic.VersionMismatch:
		m.checkUserInput()
		return true, false
	case logic.PrinterError:
		m.pause(w.moveAxes, w.turnOffNozzle)
	case logic.CommandError, logic.CommunicationTimeout, logic.ProtocolError, logic.ButtonPushed:
		if !m.logic.InAutoRetry() {
			m.pause(w.moveAxes, w.turnOffNozzle)
		}
	case logic.CommunicationRecovered:
		m.resumeHotendTemp()
		m.resumeUnpark()
	}

	if m.state == Stopped {
		return true, false
	}
	return false, false
}

// checkCooldown turns the heater off once the cooldown has been pending
// for CooldownTimeout. The timer runs from saveHotendTemp until the flag is
// cleared, across any number of waits.
func (m *MMU) checkCooldown() {
	if m.saved&CooldownPending == 0 {
		return
	}
	if m.now().Sub(m.cooldownStart) < m.cfg.CooldownTimeout {
		return
	}
	m.saved &^= CooldownPending
	m.saved |= Cooldown
	m.cooldownStart = time.Time{}
	m.host.SetTargetHotend(0)
	log.Println("MMU: heater cooldown")
}

// manageResponse blocks until the command in flight finished, yielding to
// the host between steps. It returns false if the command was interrupted
// or the MMU stopped.
func (m *MMU) manageResponse(moveAxes, turnOffNozzle bool) bool {
	w := &responseWait{m: m, moveAxes: moveAxes, turnOffNozzle: turnOffNozzle}
	for {
		if done, ok := w.poll(); done {
			return ok
		}
		m.host.Idle()
	}
}

// pause parks the head and arms the cooldown, then looks for the user's
// answer.
func (m *MMU) pause(moveAxes, turnOffNozzle bool) {
	m.saveAndPark(moveAxes)
	m.saveHotendTemp(turnOffNozzle)
	m.checkUserInput()
}

func (m *MMU) saveAndPark(moveAxes bool) {
	if m.saved != SavedNone {
		return
	}
	log.Println("MMU: saving and parking")
	m.host.Synchronize()
	if !moveAxes {
		return
	}
	m.saved |= ParkExtruder
	m.resumePos = m.host.Position()
	lifted := m.resumePos.Add(coord.Point{Z: m.cfg.ZLift})
	m.host.MoveZ(lifted.Z, m.cfg.ZFeedrate)
	if m.host.AxesHomed() {
		m.host.MoveXY(m.cfg.Park.X, m.cfg.Park.Y, m.cfg.XYFeedrate)
	}
}

func (m *MMU) resumeUnpark() {
	if m.saved&ParkExtruder == 0 {
		return
	}
	log.Println("MMU: resuming", m.resumePos)
	m.host.MoveXY(m.resumePos.X, m.resumePos.Y, m.cfg.XYFeedrate)
	m.host.MoveZ(m.resumePos.Z, m.cfg.ZFeedrate)
	m.saved &^= ParkExtruder
}

func (m *MMU) saveHotendTemp(turnOffNozzle bool) {
	if m.saved&Cooldown != 0 {
		return
	}
	if turnOffNozzle && m.saved&CooldownPending == 0 {
		m.resumeTemp = m.host.TargetHotend()
		m.saved |= CooldownPending
		m.cooldownStart = m.now()
		log.Println("MMU: heater cooldown pending")
	}
}

func (m *MMU) resumeHotendTemp() {
	if m.saved&CooldownPending != 0 {
		m.saved &^= CooldownPending
		m.cooldownStart = time.Time{}
		log.Println("MMU: cooldown flag cleared")
	}
	if m.saved&Cooldown == 0 {
		return
	}
	m.saved &^= Cooldown
	if m.resumeTemp <= 0 {
		return
	}
	log.Printf("MMU: restoring hotend temperature %.0f", m.resumeTemp)
	m.host.SetTargetHotend(m.resumeTemp)
	m.ui.FullScreenMessage("MMU Retry: Restoring temperature...")
	m.waitForHotendTargetTemp()
	log.Println("MMU: hotend temperature reached")
}

// waitForHotendTargetTemp keeps the protocol alive until the hotend
// reached its target.
func (m *MMU) waitForHotendTargetTemp() {
	for {
		target := m.host.TargetHotend()
		if target <= 0 || math.Abs(m.host.Hotend()-target) <= tempTolerance {
			return
		}
		m.host.Idle()
		m.logicStep(false)
	}
}
