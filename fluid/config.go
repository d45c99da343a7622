// Package fluid implements a stable-fluids solver on ping-pong GPU fields.
package fluid

import (
	"errors"
	"fmt"
)

// ErrResolutionChange is returned by SetConfig when the new config asks
// for different field sizes. Fields are never reallocated after New.
var ErrResolutionChange = errors.New("fluid: resolution cannot change after construction")

// Config holds solver tunables.
//
// A zero DensityDissipation or VelocityDissipation means "unset" and is
// replaced by the default in WithDefaults. Use a small positive value to
// clear a field almost every step.
type Config struct {
	SimRes              int     `yaml:"sim_res"`
	DyeRes              int     `yaml:"dye_res"`
	DensityDissipation  float32 `yaml:"density_dissipation"`  // 0 = default
	VelocityDissipation float32 `yaml:"velocity_dissipation"` // 0 = default
	PressureIterations  int     `yaml:"pressure_iterations"`
	Curl                float32 `yaml:"curl"`
	SplatRadius         float32 `yaml:"splat_radius"`
}

// DefaultConfig returns the stock solver settings.
func DefaultConfig() Config {
	return Config{
		SimRes:              128,
		DyeRes:              512,
		DensityDissipation:  0.97,
		VelocityDissipation: 0.98,
		PressureIterations:  20,
		Curl:                30,
		SplatRadius:         0.005,
	}
}

// WithDefaults returns c with zero-valued fields replaced by defaults.
// Curl and PressureIterations keep an explicit zero only when another
// field is set, since 0 is a meaningful value for both.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}
	if c.SimRes == 0 {
		c.SimRes = d.SimRes
	}
	if c.DyeRes == 0 {
		c.DyeRes = d.DyeRes
	}
	if c.DensityDissipation == 0 {
		c.DensityDissipation = d.DensityDissipation
	}
	if c.VelocityDissipation == 0 {
		c.VelocityDissipation = d.VelocityDissipation
	}
	if c.SplatRadius == 0 {
		c.SplatRadius = d.SplatRadius
	}
	return c
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.SimRes <= 0:
		return fmt.Errorf("fluid: sim_res must be positive, got %d", c.SimRes)
	case c.DyeRes <= 0:
		return fmt.Errorf("fluid: dye_res must be positive, got %d", c.DyeRes)
	case c.PressureIterations < 0:
		return fmt.Errorf("fluid: pressure_iterations must be >= 0, got %d", c.PressureIterations)
	case c.DensityDissipation < 0 || c.DensityDissipation > 1:
		return fmt.Errorf("fluid: density_dissipation %v outside [0,1]", c.DensityDissipation)
	case c.VelocityDissipation < 0 || c.VelocityDissipation > 1:
		return fmt.Errorf("fluid: velocity_dissipation %v outside [0,1]", c.VelocityDissipation)
	case c.SplatRadius <= 0:
		return fmt.Errorf("fluid: splat_radius must be positive, got %v", c.SplatRadius)
	}
	return nil
}
