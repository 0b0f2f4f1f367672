package config

import "github.com/mastercactapus/gmmu/link"

const (
	DefaultAddr      = ":8080"
	DefaultStatsFile = "mmu-stats.yaml"
)

// Normalize fills in defaults that do not belong to a single package.
// It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.MMU.Port != "" && cfg.MMU.Baud == 0 {
		cfg.MMU.Baud = link.DefaultBaud
	}
	if cfg.MMU.SPJS != nil && cfg.MMU.SPJS.Baud == 0 {
		cfg.MMU.SPJS.Baud = link.DefaultBaud
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultAddr
	}
	if cfg.StatsFile == "" {
		cfg.StatsFile = DefaultStatsFile
	}

	// Timing, retry and motion defaults are applied by logic.New and
	// mmu.New for zero values.
}
