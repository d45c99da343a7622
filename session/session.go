// Package session assembles one running scene on a device: the fluid
// solver, the pattern compositor, the frame driver and the telemetry
// around them. The viewer and the offline renderer both drive a Session.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/driver"
	"github.com/pthm-cable/dotfield/fluid"
	"github.com/pthm-cable/dotfield/gpu"
	"github.com/pthm-cable/dotfield/pattern"
	"github.com/pthm-cable/dotfield/telemetry"
)

// Options configures a Session beyond the loaded config.
type Options struct {
	Logger *slog.Logger
	// OutputDir overrides telemetry.output_dir when non-empty.
	OutputDir string
	// LogStats logs frame and perf stats through slog.
	LogStats bool
}

// Session is one scene on one device.
type Session struct {
	cfg    *config.Config
	dev    gpu.Device
	logger *slog.Logger

	solver     *fluid.Solver
	compositor *pattern.Compositor
	driver     *driver.Driver

	perf     *telemetry.PerfCollector
	output   *telemetry.OutputManager
	logStats bool

	placeholder bool
	lastDT      float32
}

// New builds a session. On error every resource created so far is
// released.
func New(dev gpu.Device, cfg *config.Config, opts Options) (s *Session, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s = &Session{
		cfg:      cfg,
		dev:      dev,
		logger:   logger,
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		logStats: opts.LogStats,
	}
	defer func() {
		if err != nil {
			s.Unload()
			s = nil
		}
	}()

	s.solver, err = fluid.New(dev, cfg.Fluid,
		fluid.WithLogger(logger),
		fluid.WithPassObserver(s.perf.ObservePass),
	)
	if err != nil {
		return s, fmt.Errorf("session: %w", err)
	}

	s.compositor, err = pattern.New(dev, cfg.Pattern, pattern.WithLogger(logger))
	if err != nil {
		return s, fmt.Errorf("session: %w", err)
	}
	if err = s.loadAssets(); err != nil {
		return s, fmt.Errorf("session: %w", err)
	}

	s.driver, err = driver.New(dev, s.solver, s.compositor, cfg.Driver,
		driver.WithLogger(logger),
		driver.WithPerf(s.perf),
	)
	if err != nil {
		return s, fmt.Errorf("session: %w", err)
	}

	dir := cfg.Telemetry.OutputDir
	if opts.OutputDir != "" {
		dir = opts.OutputDir
	}
	s.output, err = telemetry.NewOutputManager(dir)
	if err != nil {
		return s, fmt.Errorf("session: %w", err)
	}
	if s.output != nil {
		if err = s.output.WriteConfig(cfg); err != nil {
			return s, fmt.Errorf("session: %w", err)
		}
		logger.Info("telemetry output enabled", "dir", s.output.Dir())
	}

	logger.Info("session ready",
		"precision", s.solver.Stats().Precision.String(),
		"sim_res", cfg.Fluid.SimRes,
		"dye_res", cfg.Fluid.DyeRes,
		"placeholder_image", s.placeholder,
	)
	return s, nil
}

// Update advances one frame by dt seconds and flushes telemetry when due.
func (s *Session) Update(dt float32) error {
	s.lastDT = dt
	if err := s.driver.Tick(dt); err != nil {
		return err
	}
	start := time.Now()
	err := s.flushTelemetry()
	s.perf.RecordLate(telemetry.PhaseTelemetry, time.Since(start))
	return err
}

// Render redraws the current density without advancing the simulation.
func (s *Session) Render() error {
	return s.compositor.Render(s.solver.DensityTexture(), s.driver.Elapsed())
}

// ApplySettings replaces the live-tunable fluid and pattern settings.
// Resolution changes are rejected with fluid.ErrResolutionChange. A
// rejected update leaves both the solver and the compositor unchanged.
func (s *Session) ApplySettings(fc fluid.Config, pc pattern.Config) error {
	fc, err := s.solver.CheckConfig(fc)
	if err != nil {
		return err
	}
	if err := s.compositor.SetConfig(pc); err != nil {
		return err
	}
	if err := s.solver.SetConfig(fc); err != nil {
		return err
	}
	s.cfg.Fluid = s.solver.Config()
	s.cfg.Pattern = s.compositor.Config()
	return nil
}

// ClearFluid zeroes every simulation field.
func (s *Session) ClearFluid() error {
	return s.solver.Reset()
}

// Resize changes the display surface size.
func (s *Session) Resize(width, height int) {
	s.driver.Resize(width, height)
}

// Driver returns the frame driver for pointer input.
func (s *Session) Driver() *driver.Driver { return s.driver }

// Solver returns the fluid solver.
func (s *Session) Solver() *fluid.Solver { return s.solver }

// Compositor returns the pattern compositor.
func (s *Session) Compositor() *pattern.Compositor { return s.compositor }

// Perf returns the frame timing collector.
func (s *Session) Perf() *telemetry.PerfCollector { return s.perf }

// Config returns the session config. ApplySettings keeps it current.
func (s *Session) Config() *config.Config { return s.cfg }

// UsingPlaceholder reports whether the source image is the generated one.
func (s *Session) UsingPlaceholder() bool { return s.placeholder }

// Unload releases every device resource and closes telemetry output.
func (s *Session) Unload() {
	if s.output != nil {
		if err := s.output.Close(); err != nil {
			s.logger.Error("failed to close telemetry output", "error", err)
		}
		s.output = nil
	}
	if s.compositor != nil {
		s.compositor.Unload()
		s.compositor = nil
	}
	if s.solver != nil {
		s.solver.Unload()
		s.solver = nil
	}
}
