package mmu

import (
	"log"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/gcode"
	"github.com/mastercactapus/gmmu/spooljoin"
)

// SpoolJoin reports whether runouts continue on the next slot.
func (m *MMU) SpoolJoin() bool { return m.spoolJoin }

// SetSpoolJoin enables or disables spool join and persists the setting.
func (m *MMU) SetSpoolJoin(v bool) {
	m.spoolJoin = v
	var n uint32
	if v {
		n = 1
	}
	m.writeSetting(keySpoolJoin, n)
}

// checkFINDARunout reacts to FINDA running empty during a print. Only one
// filament change is queued until it has been handled, and none while an
// operation moves filament.
func (m *MMU) checkFINDARunout() {
	if m.runoutPending || m.ops > 0 {
		return
	}
	d := spooljoin.Decide(spooljoin.Inputs{
		SensorPresent:      m.logic.FINDA(),
		ColorChangePending: m.host.ColorChangePending(),
		LevelingActive:     m.host.LevelingActive(),
		AxesHomed:          m.host.AxesHomed(),
		Printing:           m.host.PrintActive(),
		FSensorEnabled:     m.host.FSensorEnabled(),
		SpoolJoinEnabled:   m.spoolJoin,
		ToolKnown:          m.CurrentTool() != ToolUnknown,
	})

	switch d {
	case spooljoin.AutoJoin:
		log.Printf("MMU: runout on slot %d, joining slot %d", m.extruder, spooljoin.NextSlot(m.extruder))
		m.runoutPending = true
		m.host.EnqueueFront(gcode.Block{{W: 'M', Arg: 600}, {W: 'A', Arg: 1}})
	case spooljoin.ManualChange:
		log.Println("MMU: runout, filament change required")
		m.runoutPending = true
		m.host.EnqueueFront(gcode.Block{{W: 'M', Arg: 600}})
	}
}

// filamentChange handles M600. With auto set and spool join possible, the
// print continues on the next slot. Otherwise the filament is unloaded and
// the user is asked to load new filament.
func (m *MMU) filamentChange(auto bool) error {
	m.runoutPending = false
	if !m.waitForReady() {
		return ErrNotReady
	}
	defer m.enter()()

	prev := m.extruder
	if auto && m.spoolJoin && prev != NoTool {
		next := spooljoin.NextSlot(prev)
		m.ui.FullScreenMessage("Spool join: continuing on the next slot")
		m.unload()
		if !m.toolChangeCommon(next) {
			return ErrNotReady
		}
		return nil
	}

	m.unload()
	m.logic.SetPrinterError(catalog.FilamentChange)
	m.manageResponse(true, true)
	m.logic.ClearPrinterError()
	if m.state == Stopped {
		return ErrNotReady
	}

	slot := prev
	if slot == NoTool {
		slot = 0
	}
	if m.PrinterButton() == catalog.BtnEject {
		m.eject(slot)
	}
	if !m.toolChangeCommon(slot) {
		return ErrNotReady
	}
	m.loadToNozzleSequence()
	return nil
}
