package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/dotfield/config"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestApplyClampsAndExtracts(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := []float64{2, -1, 30, 0.01, 100}
	pv.ApplyToConfig(cfg, values)
	got := pv.ExtractFromConfig(cfg)
	want := pv.Clamp(values)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("clamped config invalid: %v", err)
	}
}

func TestDefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Default())
	for i, spec := range pv.Specs {
		if math.Abs(got[i]-spec.Default) > 1e-6 {
			t.Errorf("%s default %v, config has %v", spec.Name, spec.Default, got[i])
		}
	}
}

func TestEvaluateFinite(t *testing.T) {
	if testing.Short() {
		t.Skip("runs simulations")
	}
	cfg := config.Default()
	cfg.Fluid.SimRes = 16
	cfg.Fluid.DyeRes = 32
	cfg.Fluid.PressureIterations = 2

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, cfg, DefaultTarget(), []float64{0, math.Pi}, 48, 32, 20, 10)
	fit := fe.Evaluate(pv.DefaultVector())
	if math.IsNaN(fit) || fit >= failedFitness {
		t.Fatalf("fitness = %v", fit)
	}
	if got := len(fe.BestStats()); got != 2 {
		t.Errorf("best stats for %d paths, want 2", got)
	}
	if fe.LastStats().Splats == 0 {
		t.Error("stroke produced no splats")
	}
}
