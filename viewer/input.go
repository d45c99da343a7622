package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Update processes keyboard, mouse and window events for the next frame.
func (v *Viewer) Update() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.showPerf = !v.showPerf
	}
	if rl.IsKeyPressed(rl.KeyC) {
		v.clearFluid()
	}

	v.handlePointer()
}

// handlePointer turns mouse drags into driver strokes. Presses that land
// on the controls panel belong to the panel.
func (v *Viewer) handlePointer() {
	drv := v.sess.Driver()
	x, y := v.pointerPosition()
	mouse := rl.GetMousePosition()

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !v.controls.Contains(mouse.X, mouse.Y) {
		v.dragging = true
		drv.PointerDown(x, y)
		return
	}
	if v.dragging && rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		v.dragging = false
		drv.PointerUp()
		return
	}
	if v.paused {
		return
	}

	d := rl.GetMouseDelta()
	if d.X == 0 && d.Y == 0 {
		return
	}
	// Hover over the panel should not stir the fluid.
	if !v.dragging && v.controls.Contains(mouse.X, mouse.Y) {
		return
	}
	if err := drv.PointerMove(x, y); err != nil {
		v.logger.Error("pointer move failed", "error", err)
	}
}

// pointerPosition maps the mouse from screen units to render pixels.
func (v *Viewer) pointerPosition() (float32, float32) {
	m := rl.GetMousePosition()
	rw, rh := v.dev.SurfaceSize()
	if v.screenWidth <= 0 || v.screenHeight <= 0 {
		return m.X, m.Y
	}
	return m.X * float32(rw) / float32(v.screenWidth), m.Y * float32(rh) / float32(v.screenHeight)
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h
	v.sess.Resize(rl.GetRenderWidth(), rl.GetRenderHeight())
	v.perfPanel.SetPosition(w-290, 140)
	v.logger.Debug("window resized", "width", w, "height", h)
}

func (v *Viewer) clearFluid() {
	if err := v.sess.ClearFluid(); err != nil {
		v.logger.Error("clear fluid failed", "error", err)
		return
	}
	v.logger.Info("fluid cleared")
}
