package mmu

import "log"

const (
	keyToolChanges = "mmu_tool_changes"
	keyFails       = "mmu_fails"
	keyLoadFails   = "mmu_load_fails"
	keyTMCFailures = "mmu_tmc_failures"
	keySpoolJoin   = "mmu_spool_join"
	keyEnabled     = "mmu_enabled"
)

// Stats are lifetime counters, persisted in Storage.
type Stats struct {
	ToolChanges uint32 `json:"tool_changes"`
	Fails       uint32 `json:"fails"`
	LoadFails   uint32 `json:"load_fails"`
	TMCFailures uint32 `json:"tmc_failures"`
}

// Stats returns the lifetime counters.
func (m *MMU) Stats() Stats { return m.stats }

// ResetStatistics zeroes all counters.
func (m *MMU) ResetStatistics() {
	m.stats = Stats{}
	m.saveStats()
}

func (m *MMU) loadStats() {
	m.store.BeginAccess()
	defer m.store.EndAccess()

	read := func(key string, dst *uint32) {
		if v, ok := m.store.ReadUint32(key); ok {
			*dst = v
		}
	}
	read(keyToolChanges, &m.stats.ToolChanges)
	read(keyFails, &m.stats.Fails)
	read(keyLoadFails, &m.stats.LoadFails)
	read(keyTMCFailures, &m.stats.TMCFailures)
	if v, ok := m.store.ReadUint32(keySpoolJoin); ok {
		m.spoolJoin = v != 0
	}
}

func (m *MMU) saveStats() {
	m.store.BeginAccess()
	m.store.WriteUint32(keyToolChanges, m.stats.ToolChanges)
	m.store.WriteUint32(keyFails, m.stats.Fails)
	m.store.WriteUint32(keyLoadFails, m.stats.LoadFails)
	m.store.WriteUint32(keyTMCFailures, m.stats.TMCFailures)
	m.store.EndAccess()
	m.commit()
}

func (m *MMU) writeSetting(key string, v uint32) {
	m.store.BeginAccess()
	m.store.WriteUint32(key, v)
	m.store.EndAccess()
	m.commit()
}

func (m *MMU) commit() {
	if err := m.store.Commit(); err != nil {
		log.Println("ERROR: MMU: save settings:", err)
	}
}

func (m *MMU) incrementToolChanges() {
	m.stats.ToolChanges++
	m.saveStats()
}

func (m *MMU) incrementFails() {
	m.stats.Fails++
	m.saveStats()
}

func (m *MMU) incrementLoadFails() {
	m.stats.LoadFails++
	m.saveStats()
}

func (m *MMU) incrementTMCFailures() {
	m.stats.TMCFailures++
	m.saveStats()
}
