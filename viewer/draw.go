package viewer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/ui"
)

// Draw advances the session by the frame time and renders it with the
// overlays. A paused viewer redraws the last frame.
func (v *Viewer) Draw() error {
	rl.BeginDrawing()
	bg := rl.White
	if v.settings.Pattern.DarkMode {
		bg = rl.Black
	}
	rl.ClearBackground(bg)

	var err error
	if v.paused {
		err = v.sess.Render()
	} else {
		err = v.sess.Update(rl.GetFrameTime())
	}
	if err != nil {
		rl.EndDrawing()
		return fmt.Errorf("viewer: frame: %w", err)
	}

	v.drawOverlays()
	rl.EndDrawing()
	v.sess.Perf().RecordPresent()
	return nil
}

func (v *Viewer) drawOverlays() {
	drv := v.sess.Driver()
	v.hud.Draw(ui.HUDData{
		Title:     v.cfg.Screen.Title,
		FPS:       rl.GetFPS(),
		Frames:    drv.Frames(),
		Splats:    drv.Splats(),
		Wanderers: drv.Wanderers(),
		Precision: v.sess.Solver().Stats().Precision.String(),
		Elapsed:   drv.Elapsed(),
		Paused:    v.paused,
	}, v.screenWidth)
	v.hud.DrawControls(v.screenHeight, controlsLegend)

	if v.showPerf {
		v.perfPanel.Draw(v.sess.Perf().Stats())
	}

	res := v.controls.Draw(&v.settings)
	switch {
	case res.Reset:
		v.resetSettings()
	case res.Changed:
		v.applySettings()
	}
	if res.ClearFluid {
		v.clearFluid()
	}
}

func (v *Viewer) applySettings() {
	if err := v.sess.ApplySettings(v.settings.Fluid, v.settings.Pattern); err != nil {
		v.logger.Warn("settings rejected", "error", err)
		v.settings = ui.Settings{Fluid: v.sess.Solver().Config(), Pattern: v.sess.Compositor().Config()}
	}
}

// resetSettings restores the stock fluid and pattern settings. The field
// resolutions stay as they are.
func (v *Viewer) resetSettings() {
	def := config.Default()
	fc := def.Fluid
	cur := v.sess.Solver().Config()
	fc.SimRes, fc.DyeRes = cur.SimRes, cur.DyeRes

	v.settings = ui.Settings{Fluid: fc, Pattern: def.Pattern}
	v.applySettings()
	v.logger.Info("settings reset")
}
