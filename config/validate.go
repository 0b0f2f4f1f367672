package config

import (
	"fmt"

	"github.com/mastercactapus/gmmu/logic"
	"github.com/mastercactapus/gmmu/macro"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	m := cfg.MMU

	// ------------------------------------------------------------
	// LINK SELECTION
	// ------------------------------------------------------------

	links := 0
	if m.Port != "" {
		links++
	}
	if m.SPJS != nil {
		links++
	}
	if m.Sim {
		links++
	}
	switch {
	case links == 0:
		return fmt.Errorf("mmu: one of port, spjs or sim must be set")
	case links > 1:
		return fmt.Errorf("mmu: port, spjs and sim are mutually exclusive")
	}
	if m.Baud < 0 {
		return fmt.Errorf("mmu: baud must not be negative (got %d)", m.Baud)
	}
	if m.SPJS != nil {
		if m.SPJS.URL == "" || m.SPJS.Port == "" {
			return fmt.Errorf("mmu.spjs: url and port are required")
		}
		if m.SPJS.Baud < 0 {
			return fmt.Errorf("mmu.spjs: baud must not be negative (got %d)", m.SPJS.Baud)
		}
	}

	// ------------------------------------------------------------
	// TIMING AND RETRIES
	// ------------------------------------------------------------

	if m.LinkTimeoutMs < 0 || m.HeartbeatMs < 0 || m.MaxDropOuts < 0 || m.CooldownTimeoutMin < 0 {
		return fmt.Errorf("mmu: timeouts and counts must not be negative")
	}
	if m.LinkTimeoutMs > 0 && m.HeartbeatMs >= m.LinkTimeoutMs {
		return fmt.Errorf(
			"mmu: heartbeat_ms (%d) must be shorter than link_timeout_ms (%d)",
			m.HeartbeatMs,
			m.LinkTimeoutMs,
		)
	}
	if m.RetryAttempts < 0 || m.RetryAttempts > 255 {
		return fmt.Errorf("mmu: retry_attempts must be within 0..255 (got %d)", m.RetryAttempts)
	}
	if m.ToolChangeRetries == 1 || m.ToolChangeRetries < 0 {
		return fmt.Errorf("mmu: tool_change_retries must be 0 (default) or at least 2 (got %d)", m.ToolChangeRetries)
	}

	if m.Firmware != "" {
		if _, err := parseVersion(m.Firmware); err != nil {
			return fmt.Errorf("mmu: firmware: %w", err)
		}
	}

	// key = register address
	seen := make(map[uint8]int)
	for i, r := range m.InitRegisters {
		if prev, exists := seen[r.Address]; exists {
			return fmt.Errorf(
				"mmu.init_registers: address 0x%02x written by entries %d and %d",
				r.Address,
				prev,
				i,
			)
		}
		seen[r.Address] = i
	}

	// ------------------------------------------------------------
	// PRINTER
	// ------------------------------------------------------------

	p := cfg.Printer
	for name, v := range map[string]float64{
		"park.z_lift":       p.Park.ZLift,
		"park.xy_feedrate":  p.Park.XYFeedrate,
		"park.z_feedrate":   p.Park.ZFeedrate,
		"verify_length":     p.VerifyLength,
		"verify_feedrate":   p.VerifyFeedrate,
		"fsensor_to_nozzle": p.FSensorToNozzle,
		"load_feedrate":     p.LoadFeedrate,
	} {
		if v < 0 {
			return fmt.Errorf("printer.%s must not be negative (got %g)", name, v)
		}
	}
	if p.Ramming != "" {
		if _, err := macro.Compile("ramming", p.Ramming); err != nil {
			return fmt.Errorf("printer: %w", err)
		}
	}
	if p.LoadToNozzle != "" {
		if _, err := macro.Compile("load_to_nozzle", p.LoadToNozzle); err != nil {
			return fmt.Errorf("printer: %w", err)
		}
	}

	return nil
}

func parseVersion(s string) (logic.Version, error) {
	var v logic.Version
	var rest string
	n, _ := fmt.Sscanf(s, "%d.%d.%d%s", &v.Major, &v.Minor, &v.Revision, &rest)
	if n != 3 {
		return v, fmt.Errorf("%q is not major.minor.revision", s)
	}
	return v, nil
}
