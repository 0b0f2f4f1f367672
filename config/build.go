package config

import (
	"time"

	"github.com/mastercactapus/gmmu/coord"
	"github.com/mastercactapus/gmmu/logic"
	"github.com/mastercactapus/gmmu/macro"
	"github.com/mastercactapus/gmmu/mmu"
)

// Logic returns the protocol options described by cfg.
func (cfg *Config) Logic() (logic.Options, error) {
	m := cfg.MMU
	opt := logic.Options{
		LinkTimeout:   time.Duration(m.LinkTimeoutMs) * time.Millisecond,
		Heartbeat:     time.Duration(m.HeartbeatMs) * time.Millisecond,
		MaxDropOuts:   m.MaxDropOuts,
		RetryAttempts: uint8(m.RetryAttempts),
	}
	if m.Firmware != "" {
		v, err := parseVersion(m.Firmware)
		if err != nil {
			return opt, err
		}
		opt.Version = v
	}
	for _, r := range m.InitRegisters {
		opt.InitRegisters = append(opt.InitRegisters, logic.RegisterWrite{Address: r.Address, Value: r.Value})
	}
	return opt, nil
}

// Orchestrator returns the MMU settings described by cfg, with the G-code
// templates compiled.
func (cfg *Config) Orchestrator() (mmu.Config, error) {
	m, p := cfg.MMU, cfg.Printer
	c := mmu.Config{
		ToolChangeRetries: m.ToolChangeRetries,
		CutterEnabled:     m.Cutter,
		SpoolJoin:         m.SpoolJoin,
		CooldownTimeout:   time.Duration(m.CooldownTimeoutMin) * time.Minute,

		Park:       coord.Point{X: p.Park.X, Y: p.Park.Y},
		ZLift:      p.Park.ZLift,
		XYFeedrate: p.Park.XYFeedrate,
		ZFeedrate:  p.Park.ZFeedrate,

		VerifyLength:    p.VerifyLength,
		VerifyFeedrate:  p.VerifyFeedrate,
		FSensorToNozzle: p.FSensorToNozzle,
		LoadFeedrate:    p.LoadFeedrate,
	}

	var err error
	if p.Ramming != "" {
		c.Ramming, err = macro.Compile("ramming", p.Ramming)
		if err != nil {
			return c, err
		}
	}
	if p.LoadToNozzle != "" {
		c.LoadToNozzle, err = macro.Compile("load_to_nozzle", p.LoadToNozzle)
		if err != nil {
			return c, err
		}
	}
	return c, nil
}
