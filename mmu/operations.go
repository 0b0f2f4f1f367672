package mmu

import (
	"fmt"
	"log"
)

// ResetLevel selects how hard the unit is reset.
type ResetLevel uint8

const (
	ResetSoftware ResetLevel = 0
	ResetPin      ResetLevel = 1
	ResetPower    ResetLevel = 2
	EraseEEPROM   ResetLevel = 42
)

// Unload rams the filament tip and pulls the filament back into the unit.
func (m *MMU) Unload() bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()
	m.unload()
	return true
}

func (m *MMU) unload() {
	m.waitForHotendTargetTemp()
	m.unloadInner()
}

// LoadFilament preloads slot up to the unit's FINDA sensor.
func (m *MMU) LoadFilament(slot uint8) bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()

	m.ui.FullScreenMessage(fmt.Sprintf("Preloading to MMU: slot %d", slot+1))
	for {
		m.logic.LoadFilament(slot)
		if m.manageResponse(false, false) || m.state == Stopped {
			break
		}
		m.incrementFails()
	}
	return true
}

// LoadToNozzle loads slot all the way into the nozzle.
func (m *MMU) LoadToNozzle(slot uint8) bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()

	m.waitForHotendTargetTemp()
	m.ui.FullScreenMessage(fmt.Sprintf("Loading filament: slot %d", slot+1))
	if m.extruder != NoTool {
		m.filamentRamming()
	}
	if !m.toolChangeCommon(slot) {
		return true
	}
	m.loadToNozzleSequence()
	return true
}

// Eject moves slot's filament out of the unit so the spool can be
// removed.
func (m *MMU) Eject(slot uint8) bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()
	m.eject(slot)
	return true
}

func (m *MMU) eject(slot uint8) {
	m.ui.FullScreenMessage(fmt.Sprintf("Ejecting filament: slot %d", slot+1))
	if m.logic.FINDA() {
		m.unload()
	}
	for {
		m.logic.EjectFilament(slot)
		if m.manageResponse(false, true) || m.state == Stopped {
			break
		}
		m.incrementFails()
	}
	m.extruder = NoTool
	m.toolChangeExtruder = NoTool
}

// Cut cuts the filament tip of slot.
func (m *MMU) Cut(slot uint8) bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()

	m.ui.FullScreenMessage(fmt.Sprintf("Cutting filament: slot %d", slot+1))
	if m.logic.FINDA() {
		m.unload()
	}
	m.cutFilamentInner(slot)
	m.extruder = NoTool
	m.toolChangeExtruder = NoTool
	return true
}

// LoadingTest loads slot to the extruder and unloads it again.
func (m *MMU) LoadingTest(slot uint8) bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()

	m.ui.FullScreenMessage(fmt.Sprintf("Testing filament: slot %d", slot+1))
	if slot != m.extruder {
		if !m.host.PrintActive() {
			m.unload()
		}
		if !m.toolChangeCommon(slot) {
			return true
		}
	}
	m.host.Synchronize()
	m.unload()
	return true
}

// Home plans homing of the unit without waiting for it.
func (m *MMU) Home(mode uint8) {
	m.logic.Home(mode)
}

// Reset resets the unit. The reset pin falls back to a software reset
// when the host has none; power cycling restarts communication.
func (m *MMU) Reset(level ResetLevel) {
	log.Printf("MMU: reset level %d", level)
	switch level {
	case ResetSoftware:
		m.logic.ResetMMU(0)
	case ResetPin:
		rl, ok := m.host.(ResetLine)
		if !ok || !rl.PulseReset() {
			log.Println("MMU: no reset pin, using software reset")
			m.logic.ResetMMU(0)
			return
		}
		if m.state != Stopped {
			m.StopKeepPowered()
			m.Start()
		}
	case ResetPower:
		m.StopKeepPowered()
		m.Start()
	case EraseEEPROM:
		m.logic.ResetMMU(uint8(EraseEEPROM))
	}
}

// ReadRegister reads addr from the unit.
func (m *MMU) ReadRegister(addr uint8) (uint16, bool) {
	if !m.waitForReady() {
		return 0, false
	}
	defer m.enter()()

	for {
		m.logic.ReadRegister(addr)
		if m.manageResponse(false, false) || m.state == Stopped {
			break
		}
	}
	return m.logic.ReadValue()
}

// WriteRegister writes value to addr on the unit.
func (m *MMU) WriteRegister(addr uint8, value uint16) bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()

	for {
		m.logic.WriteRegister(addr, value)
		if m.manageResponse(false, false) || m.state == Stopped {
			break
		}
	}
	_, ok := m.logic.ReadValue()
	if ok && addr == m.tuneRegister {
		m.tuneRegister = 0
	}
	return ok
}
