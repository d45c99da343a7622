package main

import (
	"github.com/pthm-cable/dotfield/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "density_dissipation", Path: "fluid.density_dissipation", Min: 0.90, Max: 0.999, Default: 0.97},
			{Name: "velocity_dissipation", Path: "fluid.velocity_dissipation", Min: 0.90, Max: 0.999, Default: 0.98},
			{Name: "curl", Path: "fluid.curl", Min: 0, Max: 60, Default: 30},
			{Name: "splat_radius", Path: "fluid.splat_radius", Min: 0.001, Max: 0.02, Default: 0.005},
			{Name: "delta_scale", Path: "driver.delta_scale", Min: 2, Max: 30, Default: 10},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Fluid.DensityDissipation = float32(c[0])
	cfg.Fluid.VelocityDissipation = float32(c[1])
	cfg.Fluid.Curl = float32(c[2])
	cfg.Fluid.SplatRadius = float32(c[3])
	cfg.Driver.DeltaScale = float32(c[4])
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Fluid.DensityDissipation),
		float64(cfg.Fluid.VelocityDissipation),
		float64(cfg.Fluid.Curl),
		float64(cfg.Fluid.SplatRadius),
		float64(cfg.Driver.DeltaScale),
	}
}
