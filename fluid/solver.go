package fluid

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/dotfield/gpu"
)

// pressureSeed scales the previous pressure before the Jacobi solve.
const pressureSeed = 0.8

// precisions is the fallback order for field allocation.
var precisions = []gpu.Precision{gpu.PrecisionHalf, gpu.PrecisionFloat, gpu.PrecisionByte}

// solverPasses are the programs the solver compiles.
var solverPasses = []gpu.PassKind{
	gpu.PassClear,
	gpu.PassSplat,
	gpu.PassAdvect,
	gpu.PassDivergence,
	gpu.PassCurl,
	gpu.PassVorticity,
	gpu.PassPressure,
	gpu.PassGradientSubtract,
}

// PassObserver receives the wall time of every pass the solver issues.
type PassObserver func(kind gpu.PassKind, d time.Duration)

// Stats are cumulative solver counters.
type Stats struct {
	Steps     uint64
	Splats    uint64
	Draws     uint64
	LastStep  time.Duration
	Precision gpu.Precision
}

// Solver owns the velocity, density, pressure, divergence and curl fields
// and advances them one step at a time.
type Solver struct {
	dev     gpu.Device
	cfg     Config
	logger  *slog.Logger
	observe PassObserver

	velocity *gpu.DoubleField
	density  *gpu.DoubleField
	pressure *gpu.DoubleField

	divergence *gpu.Field
	curl       *gpu.Field

	programs [gpu.NumPasses]gpu.Program

	stats Stats
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the solver logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

// WithPassObserver installs a per-pass timing callback.
func WithPassObserver(fn PassObserver) Option {
	return func(s *Solver) { s.observe = fn }
}

// New compiles the solver programs and allocates its fields on dev.
// Half-float fields are preferred; when the device rejects them the solver
// retries with 32-bit float and then 8-bit storage. Anything allocated
// before a failure is released.
func New(dev gpu.Device, cfg Config, opts ...Option) (*Solver, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{dev: dev, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.init(); err != nil {
		s.Unload()
		return nil, err
	}
	s.logger.Info("fluid solver ready",
		"sim_res", cfg.SimRes,
		"dye_res", cfg.DyeRes,
		"precision", s.stats.Precision.String(),
	)
	return s, nil
}

func (s *Solver) init() error {
	for _, kind := range solverPasses {
		p, err := s.dev.Compile(kind)
		if err != nil {
			return fmt.Errorf("fluid: compile %s: %w", kind, err)
		}
		s.programs[kind] = p
	}

	prec, err := s.negotiate()
	if err != nil {
		return err
	}
	s.stats.Precision = prec

	sim, dye := s.cfg.SimRes, s.cfg.DyeRes
	s.velocity, err = gpu.NewDoubleField(s.dev, sim, sim, gpu.FormatRG16F.WithPrecision(prec), gpu.FilterLinear)
	if err != nil {
		return fmt.Errorf("fluid: velocity: %w", err)
	}
	s.density, err = gpu.NewDoubleField(s.dev, dye, dye, gpu.FormatRGBA16F.WithPrecision(prec), gpu.FilterLinear)
	if err != nil {
		return fmt.Errorf("fluid: density: %w", err)
	}
	s.pressure, err = gpu.NewDoubleField(s.dev, sim, sim, gpu.FormatR16F.WithPrecision(prec), gpu.FilterNearest)
	if err != nil {
		return fmt.Errorf("fluid: pressure: %w", err)
	}
	s.divergence, err = gpu.NewField(s.dev, sim, sim, gpu.FormatR16F.WithPrecision(prec), gpu.FilterNearest)
	if err != nil {
		return fmt.Errorf("fluid: divergence: %w", err)
	}
	s.curl, err = gpu.NewField(s.dev, sim, sim, gpu.FormatR16F.WithPrecision(prec), gpu.FilterNearest)
	if err != nil {
		return fmt.Errorf("fluid: curl: %w", err)
	}
	return nil
}

// negotiate probes the device for the best supported field precision.
func (s *Solver) negotiate() (gpu.Precision, error) {
	for i, prec := range precisions {
		probe, err := gpu.NewField(s.dev, 1, 1, gpu.FormatRGBA16F.WithPrecision(prec), gpu.FilterLinear)
		if err == nil {
			probe.Unload()
			return prec, nil
		}
		if !errors.Is(err, gpu.ErrUnsupportedFormat) {
			return 0, fmt.Errorf("fluid: probe %s fields: %w", prec, err)
		}
		if i+1 < len(precisions) {
			s.logger.Warn("field precision unavailable, falling back",
				"precision", prec.String(),
				"fallback", precisions[i+1].String(),
			)
		}
	}
	return 0, fmt.Errorf("fluid: no renderable field precision: %w", gpu.ErrUnsupportedFormat)
}

// Splat adds a Gaussian impulse at (x, y) in [0,1]² UV space. Velocity
// receives (dx, dy) and density receives a colour derived from the delta.
func (s *Solver) Splat(x, y, dx, dy float32) error {
	w, h := s.dev.SurfaceSize()
	aspect := float32(1)
	if h > 0 {
		aspect = float32(w) / float32(h)
	}
	point := gpu.Vec2{x, y}

	if err := s.draw(gpu.SplatParams{
		Target:      s.velocity.Read().Texture(),
		AspectRatio: aspect,
		Point:       point,
		Color:       gpu.Vec3{dx, dy, 0},
		Radius:      s.cfg.SplatRadius,
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()

	if err := s.draw(gpu.SplatParams{
		Target:      s.density.Read().Texture(),
		AspectRatio: aspect,
		Point:       point,
		Color:       DyeColor(dx, dy),
		Radius:      s.cfg.SplatRadius,
	}, s.density.Write()); err != nil {
		return err
	}
	s.density.Swap()

	s.stats.Splats++
	return nil
}

// DyeColor is the density colour injected by a splat with delta (dx, dy).
func DyeColor(dx, dy float32) gpu.Vec3 {
	return gpu.Vec3{
		abs(dx)*0.1 + 0.2,
		abs(dy)*0.1 + 0.3,
		abs(dx+dy)*0.05 + 0.5,
	}
}

// Step advances the simulation by dt seconds. Negative dt is treated as 0.
func (s *Solver) Step(dt float32) error {
	start := time.Now()
	dt = max(dt, 0)
	simTexel := s.velocity.TexelSize()

	if err := s.draw(gpu.CurlParams{
		Velocity:  s.velocity.Read().Texture(),
		TexelSize: simTexel,
	}, s.curl); err != nil {
		return err
	}

	if err := s.draw(gpu.VorticityParams{
		Velocity:  s.velocity.Read().Texture(),
		Curl:      s.curl.Texture(),
		TexelSize: simTexel,
		Strength:  s.cfg.Curl,
		DT:        dt,
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()

	if err := s.draw(gpu.DivergenceParams{
		Velocity:  s.velocity.Read().Texture(),
		TexelSize: simTexel,
	}, s.divergence); err != nil {
		return err
	}

	if err := s.draw(gpu.ClearParams{
		Source: s.pressure.Read().Texture(),
		Value:  pressureSeed,
	}, s.pressure.Write()); err != nil {
		return err
	}
	s.pressure.Swap()

	for i := 0; i < s.cfg.PressureIterations; i++ {
		if err := s.draw(gpu.PressureParams{
			Pressure:   s.pressure.Read().Texture(),
			Divergence: s.divergence.Texture(),
			TexelSize:  simTexel,
		}, s.pressure.Write()); err != nil {
			return err
		}
		s.pressure.Swap()
	}

	if err := s.draw(gpu.GradientSubtractParams{
		Pressure:  s.pressure.Read().Texture(),
		Velocity:  s.velocity.Read().Texture(),
		TexelSize: simTexel,
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()

	if err := s.draw(gpu.AdvectParams{
		Velocity:    s.velocity.Read().Texture(),
		Source:      s.velocity.Read().Texture(),
		TexelSize:   simTexel,
		DT:          dt,
		Dissipation: s.cfg.VelocityDissipation,
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()

	if err := s.draw(gpu.AdvectParams{
		Velocity:    s.velocity.Read().Texture(),
		Source:      s.density.Read().Texture(),
		TexelSize:   s.density.TexelSize(),
		DT:          dt,
		Dissipation: s.cfg.DensityDissipation,
	}, s.density.Write()); err != nil {
		return err
	}
	s.density.Swap()

	s.stats.Steps++
	s.stats.LastStep = time.Since(start)
	return nil
}

// Reset zeroes every field in place.
func (s *Solver) Reset() error {
	for _, df := range []*gpu.DoubleField{s.velocity, s.density, s.pressure} {
		for range 2 {
			if err := s.draw(gpu.ClearParams{Source: df.Read().Texture(), Value: 0}, df.Write()); err != nil {
				return err
			}
			df.Swap()
		}
	}
	// Any texture other than the target works as the clear source.
	for _, f := range []*gpu.Field{s.divergence, s.curl} {
		if err := s.draw(gpu.ClearParams{Source: s.pressure.Read().Texture(), Value: 0}, f); err != nil {
			return err
		}
	}
	s.logger.Debug("fluid reset")
	return nil
}

// CheckConfig reports whether SetConfig would accept cfg, and returns
// cfg with defaults filled in. The solver is not changed.
func (s *Solver) CheckConfig(cfg Config) (Config, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.SimRes != s.cfg.SimRes || cfg.DyeRes != s.cfg.DyeRes {
		return cfg, fmt.Errorf("%w: sim %d→%d, dye %d→%d",
			ErrResolutionChange, s.cfg.SimRes, cfg.SimRes, s.cfg.DyeRes, cfg.DyeRes)
	}
	return cfg, nil
}

// SetConfig replaces the solver tunables. Resolution changes are rejected
// with ErrResolutionChange.
func (s *Solver) SetConfig(cfg Config) error {
	cfg, err := s.CheckConfig(cfg)
	if err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Config returns the active tunables.
func (s *Solver) Config() Config { return s.cfg }

// Stats returns the solver counters.
func (s *Solver) Stats() Stats { return s.stats }

// DensityTexture returns the current density.
func (s *Solver) DensityTexture() gpu.Texture { return s.density.Read().Texture() }

// VelocityTexture returns the current velocity.
func (s *Solver) VelocityTexture() gpu.Texture { return s.velocity.Read().Texture() }

// PressureTexture returns the current pressure.
func (s *Solver) PressureTexture() gpu.Texture { return s.pressure.Read().Texture() }

// CurlTexture returns the curl computed by the last step.
func (s *Solver) CurlTexture() gpu.Texture { return s.curl.Texture() }

// DivergenceTexture returns the divergence computed by the last step.
func (s *Solver) DivergenceTexture() gpu.Texture { return s.divergence.Texture() }

// Unload releases every program and field. It is safe on a partially
// constructed solver.
func (s *Solver) Unload() {
	for i, p := range s.programs {
		if p != nil {
			p.Unload()
			s.programs[i] = nil
		}
	}
	s.velocity.Unload()
	s.density.Unload()
	s.pressure.Unload()
	s.divergence.Unload()
	s.curl.Unload()
	s.velocity, s.density, s.pressure = nil, nil, nil
	s.divergence, s.curl = nil, nil
}

func (s *Solver) draw(params gpu.Params, dst *gpu.Field) error {
	kind := params.Kind()
	start := time.Now()
	err := s.dev.Draw(s.programs[kind], params, dst.Framebuffer())
	if s.observe != nil {
		s.observe(kind, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("fluid: %s pass: %w", kind, err)
	}
	s.stats.Draws++
	return nil
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
