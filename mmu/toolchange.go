package mmu

import (
	"log"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/macro"
)

// ToolChange switches to slot. Outside of a print the current filament is
// unloaded first; a running print takes care of that itself. It returns
// false only if the MMU is stopped.
func (m *MMU) ToolChange(slot uint8) bool {
	if !m.waitForReady() {
		return false
	}
	defer m.enter()()

	if slot == m.extruder {
		return true
	}
	if !m.host.PrintActive() {
		m.unload()
	}
	m.host.Synchronize()
	return m.toolChangeCommon(slot)
}

// toolChangeCommon repeats tool change attempts until one succeeds. Each
// failed round raises LoadToExtruderFailed for the user (or an automatic
// retry) to answer.
func (m *MMU) toolChangeCommon(slot uint8) bool {
	m.holdRetries = true
	m.logic.ResetRetryAttempts()
	defer func() {
		m.holdRetries = false
		m.logic.ResetRetryAttempts()
	}()

	for !m.toolChangeCommonOnce(slot) {
		if m.state == Stopped {
			return false
		}
		m.logic.SetPrinterError(catalog.LoadToExtruderFailed)
		m.manageResponse(true, true)
		m.logic.ClearPrinterError()
		if m.state == Stopped {
			return false
		}
	}

	m.extruder = slot
	m.toolChangeExtruder = slot
	m.incrementToolChanges()
	log.Printf("MMU: tool %d active", slot)
	return true
}

// toolChangeCommonOnce sends at most ToolChangeRetries tool changes to the
// unit, verifying each load on the printer's filament sensor. Before the
// last attempt the filament tip is cut if a cutter is fitted.
func (m *MMU) toolChangeCommonOnce(slot uint8) bool {
	for retries := m.cfg.ToolChangeRetries; retries > 0; retries-- {
		m.toolChangeExtruder = slot
		m.logic.ToolChange(slot)
		if !m.manageResponse(true, true) {
			if m.state == Stopped {
				return false
			}
			// the unit lost the command; start over from a clean state
			m.incrementFails()
			m.resumeHotendTemp()
			m.unloadInner()
			continue
		}

		if m.verifyFilamentEnteredPTFE() {
			return true
		}
		m.unloadInner()
		if retries == 2 && m.cfg.CutterEnabled {
			m.cutFilamentInner(slot)
		}
	}
	return false
}

// verifyFilamentEnteredPTFE pushes the filament past the printer's sensor
// and back. The load failed if the sensor ever read empty.
func (m *MMU) verifyFilamentEnteredPTFE() bool {
	m.host.Synchronize()
	if !m.host.FSensorEnabled() {
		return true
	}
	if !m.host.FilamentPresent() {
		m.incrementLoadFails()
		return false
	}

	delta := m.cfg.VerifyLength - float64(m.logic.ExtraLoadDistance())
	lost := false
	for _, d := range []float64{delta, -delta} {
		m.host.ExtruderMove(d, m.cfg.VerifyFeedrate)
		for m.host.MovesQueued() {
			if !m.host.FilamentPresent() {
				lost = true
			}
			m.host.Idle()
			m.logicStep(false)
		}
	}
	if lost {
		log.Println("MMU: filament lost during load verification")
		m.incrementLoadFails()
		return false
	}
	return true
}

func (m *MMU) unloadInner() {
	m.filamentRamming()
	for {
		m.logic.UnloadFilament()
		if m.manageResponse(false, true) || m.state == Stopped {
			break
		}
		m.incrementFails()
	}
	m.extruder = NoTool
	m.toolChangeExtruder = NoTool
}

func (m *MMU) cutFilamentInner(slot uint8) {
	for {
		m.logic.CutFilament(slot)
		if m.manageResponse(false, true) || m.state == Stopped {
			break
		}
		m.incrementFails()
	}
}

func (m *MMU) filamentRamming() {
	m.runSequence(m.cfg.Ramming)
}

func (m *MMU) loadToNozzleSequence() {
	m.host.Synchronize()
	m.runSequence(m.cfg.LoadToNozzle)
}

// runSequence renders t and executes it as extruder moves.
func (m *MMU) runSequence(t *macro.Template) {
	blocks, err := t.Render(m.macroContext())
	if err != nil {
		log.Println("ERROR: MMU:", err)
		return
	}
	moves, err := macro.Moves(blocks, m.cfg.LoadFeedrate*60)
	if err != nil {
		log.Printf("ERROR: MMU: macro %s: %v", t.Name(), err)
		return
	}
	for _, mv := range moves {
		if mv.Sync {
			m.host.Synchronize()
			continue
		}
		m.host.ExtruderMove(mv.Distance, mv.Feedrate)
	}
	m.host.Synchronize()
}

func (m *MMU) macroContext() macro.Context {
	return macro.Context{
		"tool":                 int(m.CurrentTool()),
		"target_tool":          int(m.TargetTool()),
		"extra_load_distance":  int(m.logic.ExtraLoadDistance()),
		"pulley_slow_feedrate": int(m.pulleySlowFeedrate()),
		"fsensor_to_nozzle":    int(m.cfg.FSensorToNozzle),
		"load_feedrate":        int(m.cfg.LoadFeedrate),
		"hotend_temp":          int(m.host.TargetHotend()),
	}
}
