package mmu

import (
	"fmt"
	"log"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/protocol"
)

// reportError records ec and either starts an automatic retry or shows the
// error. Counters and the log only see changes of the error code.
func (m *MMU) reportError(ec catalog.ErrorCode, src ErrorSource) {
	if ec != m.lastErrorCode {
		m.lastErrorCode = ec
		m.lastErrorSource = src
		log.Printf("MMU: error %s (%s): %s", ec, src, catalog.Title(ec))

		if ec != catalog.OK && ec != catalog.FilamentEjected && ec != catalog.FilamentChange {
			m.incrementFails()
			if catalog.Decode(ec).IsTMC() {
				m.incrementTMCFailures()
			}
		}
	}

	if !m.retryIfPossible(ec) {
		m.ui.ShowError(ec, src)
	}
}

// retryIfPossible presses Retry on the user's behalf while retry attempts
// are left and Retry is offered for ec.
func (m *MMU) retryIfPossible(ec catalog.ErrorCode) bool {
	if m.logic.RetryAttempts() > 0 && catalog.ButtonFor(ec, catalog.Retry) != catalog.NoButton {
		m.pendingOp = catalog.Retry
		m.logic.SetInAutoRetry(true)
		log.Printf("MMU: automatic retry, %d attempts left", m.logic.RetryAttempts())
		return true
	}
	m.logic.SetInAutoRetry(false)
	return false
}

// buttonPressed resolves the pending choice against the current error.
func (m *MMU) buttonPressed() catalog.Buttons {
	op := m.pendingOp
	m.pendingOp = catalog.NoOperation
	if op == catalog.NoOperation {
		op = m.ui.ButtonPressed()
	}
	if op == catalog.NoOperation {
		return catalog.NoButton
	}
	return catalog.ButtonFor(m.lastErrorCode, op)
}

func (m *MMU) checkUserInput() {
	btn := m.buttonPressed()
	if btn == catalog.NoButton && m.lastButton != catalog.NoButton {
		btn = m.lastButton
		m.lastButton = catalog.NoButton
	}
	if btn == catalog.NoButton {
		return
	}

	if m.lastErrorSource == SourcePrinter {
		// the printer's error screen is dismissed by any answer
		if m.logic.IsPrinterError() && m.logic.InAutoRetry() {
			m.logic.DecrementRetryAttempts()
		}
		m.logic.ClearPrinterError()
		m.lastErrorCode = catalog.OK
		m.ui.ClearError()
	}

	switch btn {
	case catalog.Left, catalog.Middle, catalog.Right:
		log.Printf("MMU: button %d", btn)
		m.resumeHotendTemp()
		if m.lastErrorSource == SourceMMU {
			m.logic.Button(btn)
		}
		switch m.lastErrorCode {
		case catalog.FSensorDidntSwitchOff, catalog.FSensorTooEarly:
			m.helpUnloadToFinda()
		}
	case catalog.BtnTuneMMU:
		m.Tune()
	case catalog.BtnLoad, catalog.BtnEject:
		m.printerOp = btn
	case catalog.BtnResetMMU:
		m.Reset(ResetPin)
	case catalog.BtnDisableMMU:
		m.Stop()
	case catalog.BtnStopPrint:
		m.host.StopPrint()
	}
}

func (m *MMU) helpUnloadToFinda() {
	m.host.ExtruderMove(-m.cfg.UnloadAssistLength, m.cfg.UnloadAssistFeedrate)
}

func (m *MMU) onProgress(pc catalog.ProgressCode) {
	if pc != m.lastProgress {
		m.onProgressChanged(pc)
	} else {
		m.onProgressSame(pc)
	}
}

func (m *MMU) onProgressChanged(pc catalog.ProgressCode) {
	m.ui.ShowProgress(catalog.ProgressCodeToText(pc))
	m.lastProgress = pc

	switch pc {
	case catalog.UnloadingToFinda:
		switch m.logic.CommandInProgress() {
		case protocol.Unload, protocol.Tool:
			// ramming already released the filament
			return
		}
		// most likely recovering from an error
		m.host.Synchronize()
		m.unloadFilamentStarted = true
		m.helpUnloadToFinda()
	case catalog.FeedingToFSensor:
		m.host.Synchronize()
		m.loadFilamentStarted = true
	}
}

func (m *MMU) onProgressSame(pc catalog.ProgressCode) {
	switch pc {
	case catalog.UnloadingToFinda:
		if !m.unloadFilamentStarted || m.host.MovesQueued() {
			return
		}
		if m.host.FilamentPresent() {
			m.helpUnloadToFinda()
		} else {
			m.unloadFilamentStarted = false
		}
	case catalog.FeedingToFSensor:
		if !m.loadFilamentStarted {
			return
		}
		if m.host.FilamentPresent() {
			m.loadFilamentStarted = false
			// the unit pushes ExtraLoadDistance past the sensor, then
			// releases the idler and pushes another 2mm
			m.host.ExtruderMove(float64(m.logic.ExtraLoadDistance())+2, m.pulleySlowFeedrate())
		} else if !m.host.MovesQueued() {
			m.host.ExtruderMove(m.cfg.FeedAssistLength, m.pulleySlowFeedrate())
		}
	}
}

func (m *MMU) pulleySlowFeedrate() float64 {
	if f := m.logic.PulleySlowFeedrate(); f > 0 {
		return float64(f)
	}
	return m.cfg.LoadFeedrate
}

// tunable maps errors offering Tune onto the register to adjust.
func tunable(ec catalog.ErrorCode) (uint8, bool) {
	switch ec {
	case catalog.FindaDidntSwitchOn, catalog.MovePulleyFailed:
		return protocol.RegPulleyIRun, true
	case catalog.HomingSelectorFailed, catalog.MoveSelectorFailed:
		return protocol.RegSelectorSGThrs, true
	case catalog.HomingIdlerFailed, catalog.MoveIdlerFailed:
		return protocol.RegIdlerSGThrs, true
	}
	return 0, false
}

// Tune offers the register relevant to the current error for adjustment.
// The error stays open; the user changes the register with M708 and then
// retries.
func (m *MMU) Tune() {
	reg, ok := tunable(m.lastErrorCode)
	if !ok {
		log.Printf("MMU: nothing to tune for error %s", m.lastErrorCode)
		return
	}
	m.tuneRegister = reg
	v, _ := m.logic.Register(reg)
	m.ui.FullScreenMessage(fmt.Sprintf("Tune register 0x%02x (currently %d) with M708 A%d X<value>, then retry.", reg, v, reg))
}
