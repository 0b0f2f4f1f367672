package mmu

import (
	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/protocol"
)

// Status is a snapshot of the MMU for display.
type Status struct {
	State         string `json:"state"`
	Tool          uint8  `json:"tool"`
	TargetTool    uint8  `json:"target_tool"`
	FINDA         bool   `json:"finda"`
	Command       string `json:"command,omitempty"`
	Progress      string `json:"progress"`
	Error         string `json:"error,omitempty"`
	ErrorTitle    string `json:"error_title,omitempty"`
	ErrorSource   string `json:"error_source,omitempty"`
	Firmware      string `json:"firmware,omitempty"`
	RetryAttempts uint8  `json:"retry_attempts"`
	SpoolJoin     bool   `json:"spool_join"`
	TuneRegister  uint8  `json:"tune_register,omitempty"`
	Parked        bool   `json:"parked"`
	Stats         Stats  `json:"stats"`
}

// Status returns a snapshot of the current state.
func (m *MMU) Status() Status {
	s := Status{
		State:         m.state.String(),
		Tool:          m.CurrentTool(),
		TargetTool:    m.TargetTool(),
		FINDA:         m.logic.FINDA(),
		Progress:      catalog.ProgressCodeToText(m.logic.Progress()),
		RetryAttempts: m.logic.RetryAttempts(),
		SpoolJoin:     m.spoolJoin,
		TuneRegister:  m.tuneRegister,
		Parked:        m.saved&ParkExtruder != 0,
		Stats:         m.stats,
	}
	if c := m.logic.CommandInProgress(); c != protocol.Unknown {
		s.Command = c.String()
	}
	if m.lastErrorCode.IsError() {
		s.Error = m.lastErrorCode.String()
		s.ErrorTitle = catalog.Title(m.lastErrorCode)
		s.ErrorSource = m.lastErrorSource.String()
	}
	if m.state == Active {
		s.Firmware = m.logic.Version().String()
	}
	return s
}
