// Package config provides configuration loading and access for the runner
// and tools.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Engine    EngineConfig    `yaml:"engine"`
	Run       RunConfig       `yaml:"run"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Paint     PaintConfig     `yaml:"paint"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Calibrate CalibrateConfig `yaml:"calibrate"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions for runs that do not load a state.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// EngineConfig holds step engine parameters.
type EngineConfig struct {
	Seed            int64   `yaml:"seed"`
	NegligibleLevel float64 `yaml:"negligible_level"` // field levels below this snap to 0; negative disables
}

// RunConfig holds headless run parameters.
type RunConfig struct {
	MaxSteps  int `yaml:"max_steps"`
	LogEvery  int `yaml:"log_every"`  // steps between step summaries, 0 = never
	SaveEvery int `yaml:"save_every"` // steps between snapshots, 0 = never
}

// TelemetryConfig holds stats and perf window sizes.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // steps per stats window
	PerfWindow  int `yaml:"perf_window"`  // steps in the rolling perf window
}

// PaintConfig holds initial placement settings used when no state file is
// given.
type PaintConfig struct {
	Grain   string      `yaml:"grain"`   // grain name to noise-fill, empty = first grain
	Density float64     `yaml:"density"` // spray density when noise is disabled
	Noise   NoiseConfig `yaml:"noise"`
}

// NoiseConfig holds Perlin noise parameters.
type NoiseConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int     `yaml:"octaves"`
	Scale     float64 `yaml:"scale"`
	Threshold float64 `yaml:"threshold"`
}

// SweepConfig holds multi-seed sweep parameters.
type SweepConfig struct {
	Seeds   int `yaml:"seeds"`
	Workers int `yaml:"workers"` // 0 = one per CPU
}

// CalibrateConfig holds probability calibration parameters.
type CalibrateConfig struct {
	Behavior   string  `yaml:"behavior"`   // behavior name to tune
	Target     float64 `yaml:"target"`     // target occupied fraction in [0,1]
	Steps      int     `yaml:"steps"`      // steps per evaluation
	Seeds      int     `yaml:"seeds"`      // seeds averaged per evaluation
	Iterations int     `yaml:"iterations"` // optimizer major iterations
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells int // World.Width * World.Height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world size %dx%d must be positive", c.World.Width, c.World.Height)
	}
	if c.Calibrate.Target < 0 || c.Calibrate.Target > 1 {
		return fmt.Errorf("calibrate target %v outside [0,1]", c.Calibrate.Target)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.World.Width * c.World.Height
	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 1
	}
	if c.Sweep.Seeds < 1 {
		c.Sweep.Seeds = 1
	}
	if c.Calibrate.Seeds < 1 {
		c.Calibrate.Seeds = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
