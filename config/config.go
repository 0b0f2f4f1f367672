// Package config loads the daemon configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	MMU       MMUConfig     `yaml:"mmu"`
	Printer   PrinterConfig `yaml:"printer"`
	HTTP      HTTPConfig    `yaml:"http"`
	StatsFile string        `yaml:"stats_file"`
}

// ---- UNIT ----

type MMUConfig struct {
	// Exactly one of Port, SPJS or Sim selects the link to the unit.
	Port string      `yaml:"port"`
	Baud int         `yaml:"baud"`
	SPJS *SPJSConfig `yaml:"spjs"`
	Sim  bool        `yaml:"sim"`

	LinkTimeoutMs int `yaml:"link_timeout_ms"`
	HeartbeatMs   int `yaml:"heartbeat_ms"`
	MaxDropOuts   int `yaml:"max_drop_outs"`

	RetryAttempts     int  `yaml:"retry_attempts"`
	ToolChangeRetries int  `yaml:"tool_change_retries"`
	Cutter            bool `yaml:"cutter"`
	SpoolJoin         bool `yaml:"spool_join"`

	CooldownTimeoutMin int `yaml:"cooldown_timeout_min"`

	// Firmware is the minimum unit firmware, "major.minor.revision".
	Firmware string `yaml:"firmware"`

	InitRegisters []RegisterConfig `yaml:"init_registers"`
}

type SPJSConfig struct {
	URL  string `yaml:"url"`
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type RegisterConfig struct {
	Address uint8  `yaml:"address"`
	Value   uint16 `yaml:"value"`
}

// ---- PRINTER ----

type PrinterConfig struct {
	Park ParkConfig `yaml:"park"`

	VerifyLength    float64 `yaml:"verify_length"`
	VerifyFeedrate  float64 `yaml:"verify_feedrate"`
	FSensorToNozzle float64 `yaml:"fsensor_to_nozzle"`
	LoadFeedrate    float64 `yaml:"load_feedrate"`

	// Ramming and LoadToNozzle are G-code templates; empty selects the
	// built-in sequence.
	Ramming      string `yaml:"ramming"`
	LoadToNozzle string `yaml:"load_to_nozzle"`
}

type ParkConfig struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	ZLift      float64 `yaml:"z_lift"`
	XYFeedrate float64 `yaml:"xy_feedrate"`
	ZFeedrate  float64 `yaml:"z_feedrate"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Parse decodes a YAML document. Unknown keys are an error; an empty
// document yields the zero Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &cfg, nil
}

// Load reads and decodes the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
