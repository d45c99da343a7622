// Package viewer runs a session in a raylib window with mouse input, a
// live tuning panel and on-screen timings.
package viewer

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/gpu/rlgpu"
	"github.com/pthm-cable/dotfield/session"
	"github.com/pthm-cable/dotfield/ui"
)

const controlsLegend = "[Drag] stir  [Tab] controls  [P] timings  [Space] pause  [C] clear  [F11] fullscreen"

// Options configures a Viewer.
type Options struct {
	Logger    *slog.Logger
	OutputDir string
	LogStats  bool
}

// Viewer owns the window-side state of one session.
type Viewer struct {
	cfg    *config.Config
	logger *slog.Logger

	dev  *rlgpu.Device
	sess *session.Session

	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	controls  *ui.ControlsPanel
	settings  ui.Settings

	screenWidth  int32
	screenHeight int32

	paused   bool
	showPerf bool
	dragging bool
}

// New creates a viewer. The raylib window must already be open.
func New(cfg *config.Config, opts Options) (*Viewer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dev, err := rlgpu.New(rlgpu.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}
	sess, err := session.New(dev, cfg, session.Options{
		Logger:    logger,
		OutputDir: opts.OutputDir,
		LogStats:  opts.LogStats,
	})
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}

	theme := ui.DefaultTheme().WithColors(
		rl.Color(cfg.Derived.PanelTint),
		rl.Color(cfg.Derived.HUDColor),
	)
	v := &Viewer{
		cfg:          cfg,
		logger:       logger,
		dev:          dev,
		sess:         sess,
		hud:          ui.NewHUD(theme),
		controls:     ui.NewControlsPanel(10, 10, 280, theme),
		settings:     ui.Settings{Fluid: cfg.Fluid, Pattern: cfg.Pattern},
		screenWidth:  int32(rl.GetScreenWidth()),
		screenHeight: int32(rl.GetScreenHeight()),
	}
	v.perfPanel = ui.NewPerfPanel(v.screenWidth-290, 140, 280, theme)
	return v, nil
}

// Run loops until the window is closed.
func (v *Viewer) Run() error {
	for !rl.WindowShouldClose() {
		v.Update()
		if err := v.Draw(); err != nil {
			return err
		}
	}
	return nil
}

// Paused reports whether the simulation clock is stopped.
func (v *Viewer) Paused() bool { return v.paused }

// Session returns the running session.
func (v *Viewer) Session() *session.Session { return v.sess }

// Unload releases the session.
func (v *Viewer) Unload() {
	if v.sess != nil {
		v.sess.Unload()
		v.sess = nil
	}
}
