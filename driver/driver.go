// Package driver runs the per-frame loop: pointer input to splats, the
// fluid step and the pattern composite.
package driver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/dotfield/gpu"
	"github.com/pthm-cable/dotfield/telemetry"
)

// Solver is the fluid simulation the driver steps.
type Solver interface {
	Splat(x, y, dx, dy float32) error
	Step(dt float32) error
	DensityTexture() gpu.Texture
}

// Compositor draws the frame from the density field.
type Compositor interface {
	Render(density gpu.Texture, elapsed float32) error
}

// Surface is the display surface the pointer coordinates refer to.
type Surface interface {
	SurfaceSize() (int, int)
	Resize(width, height int)
}

// Driver owns the frame clock and pointer state.
type Driver struct {
	surface    Surface
	solver     Solver
	compositor Compositor
	cfg        Config
	logger     *slog.Logger
	perf       *telemetry.PerfCollector

	elapsed float32
	frames  uint64
	splats  uint64

	// Last pointer position in UV space.
	prevX, prevY float32
	hasPrev      bool

	idle      float32
	wanderers *wanderers
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithPerf records input and composite timings into pc.
func WithPerf(pc *telemetry.PerfCollector) Option {
	return func(d *Driver) { d.perf = pc }
}

// New creates a driver over an existing solver and compositor.
func New(surface Surface, solver Solver, compositor Compositor, cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		surface:    surface,
		solver:     solver,
		compositor: compositor,
		cfg:        cfg,
		logger:     slog.Default(),
		wanderers:  newWanderers(cfg.Seed),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Tick advances one frame. dt is clamped to [0, MaxDT] for the solver;
// the animation clock advances by the unclamped, non-negative dt.
func (d *Driver) Tick(dt float32) error {
	clock := max(dt, 0)
	step := min(clock, d.cfg.MaxDT)

	if d.perf != nil {
		d.perf.StartFrame()
		d.perf.StartPhase(telemetry.PhaseInput)
	}

	if err := d.updateIdle(clock); err != nil {
		return err
	}

	if d.perf != nil {
		d.perf.EndPhase()
	}

	if err := d.solver.Step(step); err != nil {
		return fmt.Errorf("driver: step: %w", err)
	}
	d.elapsed += clock

	start := time.Now()
	if err := d.compositor.Render(d.solver.DensityTexture(), d.elapsed); err != nil {
		return fmt.Errorf("driver: render: %w", err)
	}
	if d.perf != nil {
		d.perf.Record(telemetry.PhaseComposite, time.Since(start))
		d.perf.EndFrame()
	}

	d.frames++
	return nil
}

func (d *Driver) updateIdle(dt float32) error {
	if d.cfg.IdleSeconds <= 0 || d.cfg.Wanderers == 0 {
		return nil
	}
	d.idle += dt
	if d.idle >= d.cfg.IdleSeconds && d.wanderers.Count() == 0 {
		d.wanderers.spawn(d.cfg.Wanderers, d.cfg.WanderSpeed)
		d.logger.Debug("idle wanderers spawned", "count", d.cfg.Wanderers)
	}
	for _, m := range d.wanderers.update(dt) {
		if err := d.emit(m.x, m.y, m.dx, m.dy); err != nil {
			return err
		}
	}
	return nil
}

// PointerDown starts a new stroke at pixel (px, py), origin top-left. The
// stroke's first motion is measured from here.
func (d *Driver) PointerDown(px, py float32) {
	d.prevX, d.prevY = d.toUV(px, py)
	d.hasPrev = true
	d.interrupt()
}

// PointerUp ends the current stroke.
func (d *Driver) PointerUp() {
	d.hasPrev = false
}

// PointerMove injects a splat for the motion from the previous pointer
// position to pixel (px, py). The first move after PointerUp or startup
// only records the position.
func (d *Driver) PointerMove(px, py float32) error {
	x, y := d.toUV(px, py)
	d.interrupt()
	if !d.hasPrev {
		d.prevX, d.prevY = x, y
		d.hasPrev = true
		return nil
	}
	dx, dy := x-d.prevX, y-d.prevY
	d.prevX, d.prevY = x, y
	return d.emit(x, y, dx, dy)
}

// emit scales a UV motion and splats it unless it is below the threshold.
func (d *Driver) emit(x, y, dx, dy float32) error {
	dx *= d.cfg.DeltaScale
	dy *= d.cfg.DeltaScale
	if abs(dx) <= d.cfg.MoveThreshold && abs(dy) <= d.cfg.MoveThreshold {
		return nil
	}
	if err := d.solver.Splat(x, y, dx, dy); err != nil {
		return fmt.Errorf("driver: splat: %w", err)
	}
	d.splats++
	return nil
}

// interrupt records real input: the idle clock restarts and wanderers leave.
func (d *Driver) interrupt() {
	d.idle = 0
	if d.wanderers.Count() > 0 {
		d.wanderers.clear()
		d.logger.Debug("idle wanderers removed")
	}
}

// toUV converts top-left pixel coordinates to bottom-left UV.
func (d *Driver) toUV(px, py float32) (float32, float32) {
	w, h := d.surface.SurfaceSize()
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return px / float32(w), 1 - py/float32(h)
}

// Resize updates the display surface. Simulation fields keep their size.
func (d *Driver) Resize(width, height int) {
	d.surface.Resize(width, height)
}

// SetConfig replaces the driver settings.
func (d *Driver) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

// Config returns the active settings.
func (d *Driver) Config() Config { return d.cfg }

// Elapsed returns the animation clock in seconds.
func (d *Driver) Elapsed() float32 { return d.elapsed }

// Frames returns how many frames have been ticked.
func (d *Driver) Frames() uint64 { return d.frames }

// Splats returns how many splats the driver has injected.
func (d *Driver) Splats() uint64 { return d.splats }

// Wanderers returns the number of live idle wanderers.
func (d *Driver) Wanderers() int { return d.wanderers.Count() }

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
