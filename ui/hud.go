package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	FPS       int32
	Frames    uint64
	Splats    uint64
	Wanderers int
	Precision string
	Elapsed   float32
	Paused    bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD(theme Theme) *HUD {
	return &HUD{renderer: NewRenderer(theme)}
}

// Draw renders the HUD in the top-right corner of a screen of the given width.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	t := h.renderer.Theme
	const width = 220
	x := screenWidth - width - t.Padding
	y := t.Padding

	h.renderer.DrawPanel(x, y, width, t.LineHeight*6+t.Padding*2)
	x += t.Padding
	y += t.Padding

	rl.DrawText(data.Title, x, y, t.HeaderFontSize, t.SectionHeader)
	y += t.LineHeight + 2

	y = h.renderer.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", data.FPS))
	y = h.renderer.DrawLabelValue(x, y, "Frames", fmt.Sprintf("%d", data.Frames))
	y = h.renderer.DrawLabelValue(x, y, "Splats", fmt.Sprintf("%d", data.Splats))
	y = h.renderer.DrawLabelValue(x, y, "Wanderers", fmt.Sprintf("%d", data.Wanderers))
	h.renderer.DrawLabelValue(x, y, "Precision", data.Precision)

	if data.Paused {
		rl.DrawText("PAUSED", x, y+t.LineHeight+t.Padding, 16, t.WarnColor)
	}
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-pass timings from a perf window.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32, theme Theme) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(theme), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	t := r.Theme
	rows := int32(len(telemetry.Phases))
	r.DrawPanel(p.x, p.y, p.width, t.Padding*2+(rows+2)*(t.LineHeight+2))

	x := p.x + t.Padding
	y := p.y + t.Padding
	y = r.DrawSectionHeader(x, y, "Frame Timing")
	rl.DrawText(
		fmt.Sprintf("avg %s  max %s", stats.AvgFrameDuration.Round(time.Microsecond), stats.MaxFrameDuration.Round(time.Microsecond)),
		x, y, t.FontSize, t.ValueColor,
	)
	y += t.LineHeight + 2

	for _, phase := range telemetry.Phases {
		pct := float32(stats.PhasePct[phase] / 100)
		fill := t.BarFill
		switch {
		case pct > 0.4:
			fill = t.HotColor
		case pct > 0.2:
			fill = t.WarnColor
		}
		y = r.DrawBar(x, y, phase, pct, p.width-t.Padding*2, fill)
	}
}
