package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/fluid"
	"github.com/pthm-cable/dotfield/pattern"
)

// Settings is the live-tunable state the controls panel edits.
type Settings struct {
	Fluid   fluid.Config
	Pattern pattern.Config
}

// SliderDescriptor binds a slider to one float setting.
type SliderDescriptor struct {
	Section string
	Label   string
	Format  string
	Min     float32
	Max     float32
	Get     func(*Settings) float32
	Set     func(*Settings, float32)
}

// ToggleDescriptor binds a check box to one bool setting.
type ToggleDescriptor struct {
	Label string
	Get   func(*Settings) bool
	Set   func(*Settings, bool)
}

// Apply clamps v into the slider range and stores it. It reports whether
// the setting changed.
func (d SliderDescriptor) Apply(s *Settings, v float32) bool {
	v = clamp(v, d.Min, d.Max)
	if v == d.Get(s) {
		return false
	}
	d.Set(s, v)
	return true
}

// DefaultSliders returns the tunable float settings in display order.
func DefaultSliders() []SliderDescriptor {
	return []SliderDescriptor{
		{"Fluid", "Density fade", "%.3f", 0.8, 1,
			func(s *Settings) float32 { return s.Fluid.DensityDissipation },
			func(s *Settings, v float32) { s.Fluid.DensityDissipation = v }},
		{"Fluid", "Velocity fade", "%.3f", 0.8, 1,
			func(s *Settings) float32 { return s.Fluid.VelocityDissipation },
			func(s *Settings, v float32) { s.Fluid.VelocityDissipation = v }},
		{"Fluid", "Curl", "%.1f", 0, 60,
			func(s *Settings) float32 { return s.Fluid.Curl },
			func(s *Settings, v float32) { s.Fluid.Curl = v }},
		{"Fluid", "Splat radius", "%.4f", 0.0005, 0.02,
			func(s *Settings) float32 { return s.Fluid.SplatRadius },
			func(s *Settings, v float32) { s.Fluid.SplatRadius = v }},

		{"Pattern", "Fade threshold", "%.3f", 0, 0.5,
			func(s *Settings) float32 { return s.Pattern.FadeThreshold },
			func(s *Settings, v float32) { s.Pattern.FadeThreshold = v }},
		{"Pattern", "Fade width", "%.3f", 0.01, 0.5,
			func(s *Settings) float32 { return s.Pattern.FadeWidth },
			func(s *Settings, v float32) { s.Pattern.FadeWidth = v }},
		{"Pattern", "Alt opacity", "%.2f", 0, 1,
			func(s *Settings) float32 { return s.Pattern.AltPatternOpacity },
			func(s *Settings, v float32) { s.Pattern.AltPatternOpacity = v }},
		{"Pattern", "Image scale", "%.2f", 0.25, 2,
			func(s *Settings) float32 { return s.Pattern.ImageScale },
			func(s *Settings, v float32) { s.Pattern.ImageScale = v }},

		{"Grading", "Exposure", "%+.2f", -2, 2,
			func(s *Settings) float32 { return s.Pattern.Exposure },
			func(s *Settings, v float32) { s.Pattern.Exposure = v }},
		{"Grading", "Brightness", "%+.2f", -1, 1,
			func(s *Settings) float32 { return s.Pattern.Brightness },
			func(s *Settings, v float32) { s.Pattern.Brightness = v }},
		{"Grading", "Contrast", "%.2f", 0, 3,
			func(s *Settings) float32 { return s.Pattern.Contrast },
			func(s *Settings, v float32) { s.Pattern.Contrast = v }},
		{"Grading", "Saturation", "%.2f", 0, 2,
			func(s *Settings) float32 { return s.Pattern.Saturation },
			func(s *Settings, v float32) { s.Pattern.Saturation = v }},
	}
}

// DefaultToggles returns the tunable bool settings.
func DefaultToggles() []ToggleDescriptor {
	return []ToggleDescriptor{
		{"Dark mode",
			func(s *Settings) bool { return s.Pattern.DarkMode },
			func(s *Settings, v bool) { s.Pattern.DarkMode = v }},
		{"Smooth fade",
			func(s *Settings) bool { return s.Pattern.EnableFadeTransition },
			func(s *Settings, v bool) { s.Pattern.EnableFadeTransition = v }},
		{"Bottom fade",
			func(s *Settings) bool { return s.Pattern.BottomFade },
			func(s *Settings, v bool) { s.Pattern.BottomFade = v }},
		{"Atlas colors",
			func(s *Settings) bool { return s.Pattern.UseAtlasColors },
			func(s *Settings, v bool) { s.Pattern.UseAtlasColors = v }},
	}
}

// ControlsResult reports what the user did during one Draw.
type ControlsResult struct {
	Changed    bool // a setting was edited
	Reset      bool // the reset button was pressed
	ClearFluid bool // the clear button was pressed
}

// ControlsPanel renders the live tuning panel.
type ControlsPanel struct {
	renderer *Renderer
	sliders  []SliderDescriptor
	toggles  []ToggleDescriptor
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a hidden panel with the default descriptors.
func NewControlsPanel(x, y, width int32, theme Theme) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(theme),
		sliders:  DefaultSliders(),
		toggles:  DefaultToggles(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool { return c.visible }

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point lies over the visible panel.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+c.height())
}

func (c *ControlsPanel) height() int32 {
	t := c.renderer.Theme
	sections := int32(len(sectionsOf(c.sliders)) + 1)
	rows := int32(len(c.sliders))*(t.LineHeight+t.SliderHeight+4) + int32(len(c.toggles))*(t.LineHeight+4)
	return t.Padding*3 + sections*(t.LineHeight+2) + rows + 30
}

// Draw renders the panel and applies edits to s.
func (c *ControlsPanel) Draw(s *Settings) ControlsResult {
	var res ControlsResult
	if !c.visible {
		return res
	}

	r := c.renderer
	t := r.Theme
	inner := c.width - t.Padding*2
	x := c.x + t.Padding

	r.DrawPanel(c.x, c.y, c.width, c.height())
	y := c.y + t.Padding

	section := ""
	for _, d := range c.sliders {
		if d.Section != section {
			section = d.Section
			y = r.DrawSectionHeader(x, y, section)
		}
		rl.DrawText(d.Label, x, y, t.FontSize, t.LabelColor)
		value := fmt.Sprintf(d.Format, d.Get(s))
		rl.DrawText(value, x+inner-rl.MeasureText(value, t.FontSize), y, t.FontSize, t.ValueColor)
		y += t.LineHeight

		v := gui.SliderBar(
			rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(inner), Height: float32(t.SliderHeight)},
			"", "",
			d.Get(s), d.Min, d.Max,
		)
		if d.Apply(s, v) {
			res.Changed = true
		}
		y += t.SliderHeight + 4
	}

	y = r.DrawSectionHeader(x, y, "Display")
	for _, d := range c.toggles {
		box := float32(t.LineHeight - 2)
		v := gui.CheckBox(rl.Rectangle{X: float32(x), Y: float32(y), Width: box, Height: box}, d.Label, d.Get(s))
		if v != d.Get(s) {
			d.Set(s, v)
			res.Changed = true
		}
		y += t.LineHeight + 4
	}

	y += t.Padding
	half := float32(inner-t.Padding) / 2
	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: half, Height: 24}, "Reset") {
		res.Reset = true
	}
	if gui.Button(rl.Rectangle{X: float32(x) + half + float32(t.Padding), Y: float32(y), Width: half, Height: 24}, "Clear fluid") {
		res.ClearFluid = true
	}
	return res
}

func sectionsOf(sliders []SliderDescriptor) []string {
	var out []string
	for _, d := range sliders {
		if len(out) == 0 || out[len(out)-1] != d.Section {
			out = append(out, d.Section)
		}
	}
	return out
}
