// Package config provides configuration loading and access for the viewer
// and the offline renderer.
package config

import (
	_ "embed"
	"fmt"
	"image/color"
	"log/slog"
	"os"

	css "github.com/mazznoer/csscolorparser"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/dotfield/atlas"
	"github.com/pthm-cable/dotfield/driver"
	"github.com/pthm-cable/dotfield/fluid"
	"github.com/pthm-cable/dotfield/pattern"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of a run.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Fluid     fluid.Config    `yaml:"fluid"`
	Pattern   pattern.Config  `yaml:"pattern"`
	Driver    driver.Config   `yaml:"driver"`
	Assets    AssetsConfig    `yaml:"assets"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window parameters.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
	HUDColor  string `yaml:"hud_color"`
	PanelTint string `yaml:"panel_tint"`
}

// AssetsConfig names the source image and pattern atlases. Empty paths
// select the generated fallbacks.
type AssetsConfig struct {
	Image             string                `yaml:"image"`
	Pattern           string                `yaml:"pattern"`
	PatternColumns    int                   `yaml:"pattern_columns"`
	AltPattern        string                `yaml:"alt_pattern"`
	AltPatternColumns int                   `yaml:"alt_pattern_columns"`
	Placeholder       atlas.PlaceholderSpec `yaml:"placeholder"`
}

// TelemetryConfig holds output and logging cadence.
type TelemetryConfig struct {
	OutputDir        string `yaml:"output_dir"`
	PerfWindow       int    `yaml:"perf_window"`
	StatsEveryFrames int    `yaml:"stats_every_frames"`
	PerfLogFrames    int    `yaml:"perf_log_frames"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32    // Screen.Width as float32
	ScreenH32 float32    // Screen.Height as float32
	HUDColor  color.RGBA // Screen.HUDColor parsed
	PanelTint color.RGBA // Screen.PanelTint parsed
	LogLevel  slog.Level // Log.Level parsed
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

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
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
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays YAML data onto cfg. Only fields present in data change.
func Merge(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	var err error
	if c.Derived.HUDColor, err = parseColor(c.Screen.HUDColor); err != nil {
		return fmt.Errorf("screen.hud_color: %w", err)
	}
	if c.Derived.PanelTint, err = parseColor(c.Screen.PanelTint); err != nil {
		return fmt.Errorf("screen.panel_tint: %w", err)
	}
	if err := c.Derived.LogLevel.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	// Asset column counts default to the pattern layout.
	if c.Assets.PatternColumns == 0 {
		c.Assets.PatternColumns = c.Pattern.PatternColumns
	}
	if c.Assets.AltPatternColumns == 0 {
		c.Assets.AltPatternColumns = c.Pattern.AltPatternColumns
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("config: screen size %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if err := c.Fluid.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Pattern.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Driver.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Assets.Placeholder.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Assets.PatternColumns < 1 || c.Assets.AltPatternColumns < 1 {
		return fmt.Errorf("config: asset column counts must be >= 1")
	}
	return nil
}

func parseColor(s string) (color.RGBA, error) {
	c, err := css.Parse(s)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{
		R: uint8(255 * c.R),
		G: uint8(255 * c.G),
		B: uint8(255 * c.B),
		A: uint8(255 * c.A),
	}, nil
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
